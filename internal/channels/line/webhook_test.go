package line

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-channel-secret"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

const sampleBody = `{
  "destination": "U-destination",
  "events": [
    {
      "type": "message",
      "replyToken": "tok-1",
      "timestamp": 1746428400000,
      "source": {"type": "user", "userId": "U-123"},
      "message": {"id": "m-1", "type": "text", "text": "哈囉"}
    },
    {
      "type": "follow",
      "timestamp": 1746428400000,
      "source": {"type": "user", "userId": "U-456"}
    },
    {
      "type": "message",
      "replyToken": "tok-2",
      "timestamp": 1746428400000,
      "source": {"type": "user", "userId": "U-123"},
      "message": {"id": "m-2", "type": "sticker"}
    }
  ]
}`

func TestHandleInbound(t *testing.T) {
	var got []ParsedInboundMessage
	h := NewWebhookHandler(secret, func(msg ParsedInboundMessage) {
		got = append(got, msg)
	})

	body := []byte(sampleBody)
	req := httptest.NewRequest("POST", "/webhook/line", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", sign(body))
	rec := httptest.NewRecorder()

	h.HandleInbound(rec, req)

	assert.Equal(t, 200, rec.Code)
	require.Len(t, got, 1, "only text message events should be parsed")
	assert.Equal(t, "U-123", got[0].UserID)
	assert.Equal(t, "哈囉", got[0].Text)
	assert.Equal(t, "tok-1", got[0].ReplyToken)
	assert.Equal(t, "m-1", got[0].MessageID)
	assert.Equal(t, int64(1746428400000), got[0].Timestamp.UnixMilli())
}

func TestHandleInboundRejectsBadSignature(t *testing.T) {
	called := false
	h := NewWebhookHandler(secret, func(ParsedInboundMessage) { called = true })

	body := []byte(sampleBody)
	req := httptest.NewRequest("POST", "/webhook/line", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", base64.StdEncoding.EncodeToString([]byte("forged")))
	rec := httptest.NewRecorder()

	h.HandleInbound(rec, req)

	assert.Equal(t, 401, rec.Code)
	assert.False(t, called)
}

func TestHandleInboundRejectsMissingSignature(t *testing.T) {
	h := NewWebhookHandler(secret, nil)

	req := httptest.NewRequest("POST", "/webhook/line", bytes.NewReader([]byte(sampleBody)))
	rec := httptest.NewRecorder()

	h.HandleInbound(rec, req)

	assert.Equal(t, 401, rec.Code)
}

func TestHandleInboundRejectsMalformedJSON(t *testing.T) {
	h := NewWebhookHandler(secret, nil)

	body := []byte("{not json")
	req := httptest.NewRequest("POST", "/webhook/line", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", sign(body))
	rec := httptest.NewRecorder()

	h.HandleInbound(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"events":[]}`)

	assert.True(t, VerifySignature(secret, body, sign(body)))
	assert.False(t, VerifySignature(secret, body, "not-base64!!"))
	assert.False(t, VerifySignature(secret, []byte("tampered"), sign(body)))
	assert.False(t, VerifySignature("", body, sign(body)))
	assert.False(t, VerifySignature(secret, body, ""))
}
