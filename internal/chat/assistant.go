package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

const systemPrompt = `你是一位專業的美容沙龍預約助手，名字叫小美。
你的任務是協助顧客了解美容服務、回答保養相關問題，並引導顧客完成預約。
請遵守以下原則：
1. 一律使用繁體中文回覆。
2. 語氣親切、專業、簡潔，每次回覆不超過三句話。
3. 只回答美容、保養、沙龍服務相關的問題，其他話題請禮貌地引導回預約。
4. 如果顧客想預約，請提醒他們輸入「預約」開始預約流程。`

// fallbackReply is returned when the model is unreachable so the
// customer always gets a response.
const fallbackReply = "不好意思，小美現在有點忙不過來，請稍後再試一次，或輸入「預約」直接開始預約喔！"

// Snapshot carries the parts of a customer profile the assistant may
// reference when answering free-form questions.
type Snapshot struct {
	Name             string
	Phone            string
	FavoriteServices []string
	LastBooking      string
}

// Assistant answers messages that the booking dialogue cannot handle
// by delegating to an LLM with salon-specific instructions.
type Assistant struct {
	llm     LLMClient
	modelID string
	logger  *logging.Logger
}

func NewAssistant(llm LLMClient, modelID string, logger *logging.Logger) *Assistant {
	if llm == nil {
		panic("chat: llm client is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Assistant{llm: llm, modelID: modelID, logger: logger}
}

// Respond produces a reply for a free-form customer message. It never
// returns an error to the caller; on LLM failure it logs and falls back
// to a canned apology so the conversation does not go silent.
func (a *Assistant) Respond(ctx context.Context, snap Snapshot, message string) string {
	system := []string{systemPrompt}
	if profileContext := snap.describe(); profileContext != "" {
		system = append(system, profileContext)
	}

	resp, err := a.llm.Complete(ctx, LLMRequest{
		Model:       a.modelID,
		System:      system,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: message}},
		MaxTokens:   512,
		Temperature: 0.7,
	})
	if err != nil {
		a.logger.Error("llm completion failed", "error", err)
		return fallbackReply
	}
	if strings.TrimSpace(resp.Text) == "" {
		a.logger.Warn("llm returned empty reply")
		return fallbackReply
	}
	return resp.Text
}

func (s Snapshot) describe() string {
	var lines []string
	if s.Name != "" {
		lines = append(lines, fmt.Sprintf("姓名：%s", s.Name))
	}
	if s.Phone != "" {
		lines = append(lines, fmt.Sprintf("手機：%s", s.Phone))
	}
	if len(s.FavoriteServices) > 0 {
		lines = append(lines, fmt.Sprintf("常用服務：%s", strings.Join(s.FavoriteServices, "、")))
	}
	if s.LastBooking != "" {
		lines = append(lines, fmt.Sprintf("上次預約：%s", s.LastBooking))
	}
	if len(lines) == 0 {
		return ""
	}
	return "顧客資料：\n" + strings.Join(lines, "\n")
}
