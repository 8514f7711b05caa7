package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/melodiemacher/internal/adapter/payment"
	"github.com/polkiloo/melodiemacher/internal/server/http/dto"
)

const maxWebhookBytes = 64 << 10

// WebhookHandler receives payment provider events.
type WebhookHandler struct {
	facade WebhookFacade
}

// NewWebhookHandler creates WebhookHandler instance.
func NewWebhookHandler(facade WebhookFacade) *WebhookHandler {
	return &WebhookHandler{facade: facade}
}

// Stripe handles POST /api/webhooks/stripe. The raw body is verified against
// the Stripe-Signature header before anything is applied.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil || len(payload) > maxWebhookBytes {
		badRequest(c)
		return
	}

	event, err := h.facade.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid signature"})
			return
		}
		respondError(c, err)
		return
	}

	// A failure here makes the provider redeliver; applying an event twice is harmless.
	if err := h.facade.HandlePaymentEvent(c.Request.Context(), event); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: msgInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
