package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/server/http/dto"
	"github.com/polkiloo/melodiemacher/internal/server/http/middleware"
	"github.com/polkiloo/melodiemacher/internal/usecase"
)

const maxUploadBytes = 200 << 20

// AdminHandler serves the admin dashboard API.
type AdminHandler struct {
	auth         AuthFacade
	admin        AdminFacade
	marketing    MarketingFacade
	secureCookie bool
}

// NewAdminHandler constructs AdminHandler. secureCookie marks the session
// cookie as HTTPS only.
func NewAdminHandler(auth AuthFacade, admin AdminFacade, marketing MarketingFacade, secureCookie bool) *AdminHandler {
	return &AdminHandler{auth: auth, admin: admin, marketing: marketing, secureCookie: secureCookie}
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetSessionCookie(c, token, h.auth.SessionTTL(), h.secureCookie)
	c.JSON(http.StatusOK, gin.H{"email": strings.ToLower(strings.TrimSpace(req.Email))})
}

// Logout handles POST /api/admin/logout.
func (h *AdminHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, h.secureCookie)
	c.Status(http.StatusNoContent)
}

// List handles GET /api/admin/orders.
func (h *AdminHandler) List(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	orders, err := h.admin.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]dto.AdminOrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toAdminOrderResponse(o))
	}
	c.JSON(http.StatusOK, response)
}

func parseOrderFilter(c *gin.Context) (model.OrderFilter, error) {
	var (
		filter model.OrderFilter
		fields []domainErrors.FieldError
	)
	for _, raw := range c.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, model.OrderStatus(s))
			}
		}
	}
	filter.Priority = model.Priority(strings.TrimSpace(c.Query("priority")))
	filter.SortBy = strings.TrimSpace(c.Query("sort"))

	switch strings.ToLower(c.Query("dir")) {
	case "":
		filter.Desc = filter.SortBy != model.SortByDeadline
	case "asc":
	case "desc":
		filter.Desc = true
	default:
		fields = append(fields, domainErrors.FieldError{Field: "dir", Rule: "oneof", Message: "Unbekannte Sortierrichtung."})
	}

	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields = append(fields, domainErrors.FieldError{Field: name, Rule: "min", Message: "Ungültige Zahl."})
			continue
		}
		*dst = n
	}

	if len(fields) > 0 {
		return filter, &domainErrors.ValidationError{Fields: fields}
	}
	return filter, nil
}

// Detail handles GET /api/admin/orders/:id.
func (h *AdminHandler) Detail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.admin.OrderDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminDetailResponse(detail))
}

// UpdateStatus handles PATCH /api/admin/orders/:id/status.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.admin.TransitionOrder(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminOrderResponse(*order))
}

// BatchStatus handles POST /api/admin/orders/batch-status. Each order reports
// its own outcome; one failure does not abort the rest.
func (h *AdminHandler) BatchStatus(c *gin.Context) {
	var req dto.BatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	results := h.admin.BatchTransition(c.Request.Context(), req.OrderIDs, status)
	response := make([]dto.BatchStatusResult, 0, len(results))
	for _, r := range results {
		item := dto.BatchStatusResult{OrderID: r.OrderID, OK: r.Err == nil}
		if r.Err != nil {
			item.Error = r.Err.Error()
		} else {
			item.Status = string(r.Status)
		}
		response = append(response, item)
	}
	c.JSON(http.StatusOK, gin.H{"results": response})
}

func parseStatus(raw string) (model.OrderStatus, error) {
	status := model.OrderStatus(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", &domainErrors.ValidationError{Fields: []domainErrors.FieldError{
			{Field: "status", Rule: "oneof", Message: "Unbekannter Status."},
		}}
	}
	return status, nil
}

// AddDeliverable handles POST /api/admin/orders/:id/deliverables. It accepts
// a multipart upload (fields "file" and "type") or a JSON body with an
// external file URL.
func (h *AdminHandler) AddDeliverable(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	in := usecase.DeliverableInput{OrderID: id}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
		header, err := c.FormFile("file")
		if err != nil {
			badRequest(c)
			return
		}
		file, err := header.Open()
		if err != nil {
			badRequest(c)
			return
		}
		defer func(f multipart.File) { _ = f.Close() }(file)

		in.Type = model.DeliverableType(strings.ToLower(strings.TrimSpace(c.PostForm("type"))))
		in.FileName = header.Filename
		in.Content = file
	} else {
		var req dto.DeliverableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		in.Type = model.DeliverableType(strings.ToLower(strings.TrimSpace(req.Type)))
		in.FileName = req.FileName
		in.FileURL = req.FileURL
	}

	deliverable, err := h.admin.AddDeliverable(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDeliverableResponse(*deliverable))
}

// RemoveDeliverable handles DELETE /api/admin/orders/:id/deliverables/:deliverableId.
func (h *AdminHandler) RemoveDeliverable(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	deliverableID, ok := parseIDParam(c, "deliverableId")
	if !ok {
		return
	}
	if err := h.admin.RemoveDeliverable(c.Request.Context(), id, deliverableID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Deliver handles POST and PUT /api/admin/orders/:id/deliver.
func (h *AdminHandler) Deliver(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.admin.DeliverOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminOrderResponse(*order))
}

// Priority handles POST /api/admin/orders/:id/priority.
func (h *AdminHandler) Priority(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.admin.ScorePriority(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPriorityResponse(*result))
}

// BatchPriority handles POST /api/admin/orders/priority.
func (h *AdminHandler) BatchPriority(c *gin.Context) {
	var req dto.BatchPriorityRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
	}

	results, err := h.admin.ScoreBatch(c.Request.Context(), req.OrderIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	response := make([]dto.PriorityResponse, 0, len(results))
	for _, r := range results {
		response = append(response, toPriorityResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"results": response})
}

// Quality handles POST /api/admin/orders/:id/quality.
func (h *AdminHandler) Quality(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.admin.AssessQuality(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QualityResponse{
		OrderID: result.OrderID,
		Scored:  result.Scored,
		Score:   result.Score,
		Details: result.Details,
		Reason:  result.Reason,
	})
}

// Prompt handles POST /api/admin/orders/:id/prompt.
func (h *AdminHandler) Prompt(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.admin.GeneratePrompt(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PromptResponse{
		OrderID:   result.OrderID,
		Generated: result.Generated,
		Prompt:    result.Prompt,
		Reason:    result.Reason,
	})
}

// IssueReferral handles POST /api/admin/referrals. A customer keeps one
// active code, so repeated calls return the same code.
func (h *AdminHandler) IssueReferral(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	code, err := h.marketing.IssueReferral(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReferralResponse{Valid: true, Code: code.Code, DiscountPercent: code.DiscountPercent})
}
