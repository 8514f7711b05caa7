package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/server/http/dto"
	"github.com/polkiloo/melodiemacher/internal/usecase"
)

// MarketingHandler serves referral, loyalty and cron endpoints.
type MarketingHandler struct {
	facade MarketingFacade
}

// NewMarketingHandler creates MarketingHandler instance.
func NewMarketingHandler(facade MarketingFacade) *MarketingHandler {
	return &MarketingHandler{facade: facade}
}

// ValidateReferral handles POST /api/referral/validate. Unknown and exhausted
// codes are a normal answer, not an error.
func (h *MarketingHandler) ValidateReferral(c *gin.Context) {
	var req dto.ReferralValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	code, err := h.facade.ValidateReferral(c.Request.Context(), req.Code)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.ReferralResponse{Valid: true, Code: code.Code, DiscountPercent: code.DiscountPercent})
	case errors.Is(err, domainErrors.ErrReferralExhausted):
		c.JSON(http.StatusOK, dto.ReferralResponse{Valid: false, Message: "Dieser Code wurde bereits zu oft eingelöst."})
	case errors.Is(err, domainErrors.ErrReferralInvalid):
		c.JSON(http.StatusOK, dto.ReferralResponse{Valid: false, Message: "Dieser Code ist leider ungültig."})
	default:
		respondError(c, err)
	}
}

// Loyalty handles GET /api/loyalty?email=.
func (h *MarketingHandler) Loyalty(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" || !strings.Contains(email, "@") {
		badRequest(c)
		return
	}

	status, err := h.facade.LoyaltyStatus(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoyaltyResponse{
		Email:           status.Email,
		PurchaseCount:   status.PurchaseCount,
		Tier:            string(status.Tier),
		DiscountPercent: status.DiscountPercent,
		PurchasesToVIP:  status.PurchasesToVIP,
	})
}

// Drip handles POST /api/cron/drip.
func (h *MarketingHandler) Drip(c *gin.Context) {
	report, err := h.facade.RunDrip(c.Request.Context())
	respondCron(c, report, err)
}

// Anniversaries handles POST /api/cron/anniversaries.
func (h *MarketingHandler) Anniversaries(c *gin.Context) {
	report, err := h.facade.RunAnniversaries(c.Request.Context())
	respondCron(c, report, err)
}

func respondCron(c *gin.Context, report usecase.CronReport, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
