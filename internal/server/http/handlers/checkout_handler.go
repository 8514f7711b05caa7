package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/polkiloo/melodiemacher/internal/server/http/dto"
	"github.com/polkiloo/melodiemacher/internal/usecase"
)

//go:embed templates/*.html
var pageFS embed.FS

var pages = template.Must(template.ParseFS(pageFS, "templates/*.html"))

// CheckoutHandler serves checkout and the public order views.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler creates CheckoutHandler instance.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Checkout handles POST /api/checkout.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	result, err := h.facade.Checkout(c.Request.Context(), usecase.CheckoutInput{
		Form:        req.OrderForm,
		ClientTotal: req.ClientTotal,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]dto.LineItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, dto.LineItemResponse{
			Code:        item.Code,
			Name:        item.Name,
			Description: item.Description,
			Amount:      item.Amount,
		})
	}
	c.JSON(http.StatusOK, dto.CheckoutResponse{
		OrderNumber: result.OrderNumber,
		SessionID:   result.SessionID,
		URL:         result.RedirectURL,
		Total:       result.Total,
		Items:       items,
	})
}

// Order handles GET /api/order/:orderId where orderId is the public order number.
func (h *CheckoutHandler) Order(c *gin.Context) {
	number := strings.TrimSpace(c.Param("orderId"))
	if number == "" {
		badRequest(c)
		return
	}

	detail, err := h.facade.OrderByNumber(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPublicOrderResponse(detail))
}

type downloadPage struct {
	OrderNumber   string
	RecipientName string
	Occasion      string
	Deliverables  []dto.DeliverableResponse
}

// Download handles GET /download/:orderNumber. Orders that are not delivered
// are indistinguishable from unknown ones.
func (h *CheckoutHandler) Download(c *gin.Context) {
	number := strings.TrimSpace(c.Param("orderNumber"))
	detail, err := h.facade.Download(c.Request.Context(), number)
	if err != nil {
		status := http.StatusNotFound
		if !isNotFound(err) {
			_ = c.Error(err)
			status = http.StatusInternalServerError
		}
		c.Render(status, render.HTML{Template: pages, Name: "not_found.html", Data: nil})
		return
	}

	c.Render(http.StatusOK, render.HTML{
		Template: pages,
		Name:     "download.html",
		Data: downloadPage{
			OrderNumber:   detail.Order.OrderNumber,
			RecipientName: detail.Order.RecipientName,
			Occasion:      detail.Order.Occasion,
			Deliverables:  toDeliverableResponses(detail.Deliverables),
		},
	})
}
