package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	lastReq LLMRequest
	resp    LLMResponse
	err     error
}

func (f *fakeLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return LLMResponse{}, f.err
	}
	return f.resp, nil
}

func TestAssistantRespond(t *testing.T) {
	llm := &fakeLLM{resp: LLMResponse{Text: "染髮後48小時內不要洗頭喔！"}}
	a := NewAssistant(llm, "gemini-2.5-flash", nil)

	reply := a.Respond(context.Background(), Snapshot{}, "染髮後要注意什麼？")

	assert.Equal(t, "染髮後48小時內不要洗頭喔！", reply)
	require.Len(t, llm.lastReq.Messages, 1)
	assert.Equal(t, ChatRoleUser, llm.lastReq.Messages[0].Role)
	assert.Equal(t, "染髮後要注意什麼？", llm.lastReq.Messages[0].Content)
	require.NotEmpty(t, llm.lastReq.System)
	assert.Contains(t, llm.lastReq.System[0], "繁體中文")
}

func TestAssistantRespondIncludesProfileContext(t *testing.T) {
	llm := &fakeLLM{resp: LLMResponse{Text: "好的"}}
	a := NewAssistant(llm, "gemini-2.5-flash", nil)

	snap := Snapshot{
		Name:             "王小明",
		Phone:            "0912345678",
		FavoriteServices: []string{"染髮", "護髮"},
		LastBooking:      "2025-05-03 14:00 染髮",
	}
	a.Respond(context.Background(), snap, "嗨")

	require.Len(t, llm.lastReq.System, 2)
	profileCtx := llm.lastReq.System[1]
	assert.Contains(t, profileCtx, "王小明")
	assert.Contains(t, profileCtx, "0912345678")
	assert.Contains(t, profileCtx, "染髮、護髮")
	assert.Contains(t, profileCtx, "2025-05-03 14:00 染髮")
}

func TestAssistantRespondOmitsEmptyProfile(t *testing.T) {
	llm := &fakeLLM{resp: LLMResponse{Text: "好的"}}
	a := NewAssistant(llm, "gemini-2.5-flash", nil)

	a.Respond(context.Background(), Snapshot{}, "嗨")

	assert.Len(t, llm.lastReq.System, 1)
}

func TestAssistantRespondFallsBackOnError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("upstream timeout")}
	a := NewAssistant(llm, "gemini-2.5-flash", nil)

	reply := a.Respond(context.Background(), Snapshot{}, "嗨")

	assert.True(t, strings.Contains(reply, "稍後再試"), "expected apology, got %q", reply)
}

func TestAssistantRespondFallsBackOnEmptyText(t *testing.T) {
	llm := &fakeLLM{resp: LLMResponse{Text: "   "}}
	a := NewAssistant(llm, "gemini-2.5-flash", nil)

	reply := a.Respond(context.Background(), Snapshot{}, "嗨")

	assert.Contains(t, reply, "稍後再試")
}

func TestNewAssistantPanicsWithoutLLM(t *testing.T) {
	assert.Panics(t, func() { NewAssistant(nil, "m", nil) })
}
