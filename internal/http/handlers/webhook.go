package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cw-satou/astral-backend/internal/clients/line"
	"github.com/cw-satou/astral-backend/internal/http/response"
	"github.com/cw-satou/astral-backend/internal/pkg/envutil"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
)

const signatureHeader = "X-Line-Signature"

// WebhookHandler receives LINE platform callbacks. The platform retries on
// non-200, so after the signature check every outcome acknowledges with 200
// and replies are fire-and-forget.
type WebhookHandler struct {
	log     *logger.Logger
	line    line.Client
	liffURL string
}

func NewWebhookHandler(log *logger.Logger, lineClient line.Client) *WebhookHandler {
	return &WebhookHandler{
		log:     log.With("handler", "WebhookHandler"),
		line:    lineClient,
		liffURL: strings.TrimSpace(envutil.Str("LIFF_URL", "")),
	}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("read webhook body: %w", err))
		return
	}

	if h.line == nil {
		h.log.Warn("line client not configured, webhook ignored")
		c.String(http.StatusOK, "OK")
		return
	}

	if !h.line.ValidateSignature(body, c.GetHeader(signatureHeader)) {
		response.RespondError(c, http.StatusBadRequest, "invalid_signature",
			fmt.Errorf("webhook signature mismatch"))
		return
	}

	var req line.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.log.Warn("undecodable webhook payload", "error", err)
		c.String(http.StatusOK, "OK")
		return
	}

	for _, ev := range req.Events {
		if ev.Type != "message" || ev.Message == nil || ev.Message.Type != "text" {
			continue
		}
		if ev.ReplyToken == "" {
			continue
		}
		userID := ""
		if ev.Source != nil {
			userID = ev.Source.UserID
		}
		if err := h.line.ReplyText(c.Request.Context(), ev.ReplyToken, h.replyFor()); err != nil {
			h.log.Error("webhook reply failed", "line_user_id", userID, "error", err)
		}
	}

	c.String(http.StatusOK, "OK")
}

// replyFor is the canned guidance pointing the user at the diagnosis page.
func (h *WebhookHandler) replyFor() string {
	msg := "メッセージありがとうございます。星の羅針盤の診断はこちらからどうぞ。"
	if h.liffURL != "" {
		msg += "\n" + h.liffURL
	}
	return msg
}
