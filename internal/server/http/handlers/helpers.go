package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/server/http/dto"
	"github.com/polkiloo/melodiemacher/internal/server/http/middleware"
)

const (
	msgInvalidInput   = "Bitte überprüfe deine Eingaben."
	msgPriceChanged   = "Der Preis hat sich geändert. Bitte lade die Seite neu und versuche es erneut."
	msgReferral       = "Dieser Empfehlungscode ist ungültig oder bereits aufgebraucht."
	msgUnauthorized   = "Nicht angemeldet."
	msgNotFound       = "Nicht gefunden."
	msgConflict       = "Die Bestellung wurde inzwischen geändert. Bitte lade die Seite neu."
	msgDelivered      = "Die Bestellung wurde bereits ausgeliefert."
	msgTransition     = "Dieser Statuswechsel ist nicht erlaubt."
	msgMissing        = "Es fehlen noch Dateien für die Auslieferung."
	msgUnavailable    = "Der Dienst ist gerade nicht erreichbar. Bitte versuche es später erneut."
	msgInternal       = "Etwas ist schiefgelaufen. Bitte versuche es später erneut."
	msgInvalidPayload = "Ungültige Anfrage."
)

// CurrentAdmin returns the authenticated admin subject.
func CurrentAdmin(c *gin.Context) string {
	val, ok := c.Get(middleware.AdminContextKey)
	if !ok {
		return ""
	}
	subject, _ := val.(string)
	return subject
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgInvalidPayload})
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgInvalidPayload})
}

// respondError maps domain errors onto status codes and German messages.
func respondError(c *gin.Context, err error) {
	var (
		validation *domainErrors.ValidationError
		mismatch   *domainErrors.PriceMismatchError
		missing    *domainErrors.MissingDeliverablesError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgInvalidInput, Fields: validation.Fields})
	case errors.As(err, &mismatch):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:  msgPriceChanged,
			Totals: &dto.TotalsComparison{Client: mismatch.ClientTotal, Server: mismatch.ServerTotal},
		})
	case errors.As(err, &missing):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: msgMissing, Missing: missing.Missing})
	case errors.Is(err, domainErrors.ErrValidation), errors.Is(err, domainErrors.ErrInvalidDeliverable):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgInvalidInput})
	case errors.Is(err, domainErrors.ErrReferralInvalid), errors.Is(err, domainErrors.ErrReferralExhausted):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgReferral})
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: msgUnauthorized})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: msgNotFound})
	case errors.Is(err, domainErrors.ErrAlreadyDelivered):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: msgDelivered})
	case errors.Is(err, domainErrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: msgTransition})
	case errors.Is(err, domainErrors.ErrConflict), errors.Is(err, domainErrors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: msgConflict})
	case errors.Is(err, domainErrors.ErrPaymentUnavailable), errors.Is(err, domainErrors.ErrAssistantUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: msgUnavailable})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: msgInternal})
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domainErrors.ErrNotFound)
}
