package line

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReply(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody replyRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient("token-123")
	c.SetAPIBase(srv.URL)

	err := c.Reply(context.Background(), "tok-1", "您好！")

	require.NoError(t, err)
	assert.Equal(t, "/v2/bot/message/reply", gotPath)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "tok-1", gotBody.ReplyToken)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "text", gotBody.Messages[0].Type)
	assert.Equal(t, "您好！", gotBody.Messages[0].Text)
}

func TestPush(t *testing.T) {
	var gotPath string
	var gotBody pushRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient("token-123")
	c.SetAPIBase(srv.URL)

	err := c.Push(context.Background(), "U-123", "提醒您明天的預約")

	require.NoError(t, err)
	assert.Equal(t, "/v2/bot/message/push", gotPath)
	assert.Equal(t, "U-123", gotBody.To)
}

func TestReplyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid reply token"}`))
	}))
	defer srv.Close()

	c := NewClient("token-123")
	c.SetAPIBase(srv.URL)

	err := c.Reply(context.Background(), "expired", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid reply token")
	assert.Contains(t, err.Error(), "400")
}
