// Package line implements the LINE Messaging API webhook and reply
// client.
package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// ParsedInboundMessage is one text message extracted from a webhook body.
type ParsedInboundMessage struct {
	UserID     string
	Text       string
	ReplyToken string
	MessageID  string
	Timestamp  time.Time
}

// WebhookHandler validates and parses inbound LINE webhook requests.
type WebhookHandler struct {
	channelSecret string
	onMessage     func(msg ParsedInboundMessage)
}

// NewWebhookHandler creates a webhook handler. onMessage is called for
// each parsed text message.
func NewWebhookHandler(channelSecret string, onMessage func(ParsedInboundMessage)) *WebhookHandler {
	return &WebhookHandler{
		channelSecret: channelSecret,
		onMessage:     onMessage,
	}
}

// HandleInbound handles POST webhook events from the LINE platform.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Line-Signature")
	if !VerifySignature(h.channelSecret, body, signature) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event WebhookBody
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// LINE retries on anything but a fast 200.
	w.WriteHeader(http.StatusOK)

	for _, msg := range ParseWebhookBody(event) {
		if h.onMessage != nil {
			h.onMessage(msg)
		}
	}
}

// ParseWebhookBody extracts text messages from a webhook body. Events
// that are not text messages from a user are skipped.
func ParseWebhookBody(body WebhookBody) []ParsedInboundMessage {
	var messages []ParsedInboundMessage
	for _, ev := range body.Events {
		if ev.Type != "message" || ev.Message == nil || ev.Message.Type != "text" {
			continue
		}
		if ev.Source.UserID == "" {
			continue
		}
		messages = append(messages, ParsedInboundMessage{
			UserID:     ev.Source.UserID,
			Text:       ev.Message.Text,
			ReplyToken: ev.ReplyToken,
			MessageID:  ev.Message.ID,
			Timestamp:  time.UnixMilli(ev.Timestamp),
		})
	}
	return messages
}

// VerifySignature checks the X-Line-Signature header, a base64 encoded
// HMAC-SHA256 of the raw request body keyed by the channel secret.
func VerifySignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), decoded)
}
