package dto

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StatusRequest changes the status of one order.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BatchStatusRequest changes the status of several orders.
type BatchStatusRequest struct {
	OrderIDs []int64 `json:"orderIds" binding:"required,min=1,max=200"`
	Status   string  `json:"status" binding:"required"`
}

// BatchStatusResult is the per-order outcome of a batch change.
type BatchStatusResult struct {
	OrderID int64  `json:"orderId"`
	OK      bool   `json:"ok"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DeliverableRequest registers an externally hosted file.
type DeliverableRequest struct {
	Type     string `json:"type" binding:"required"`
	FileURL  string `json:"fileUrl" binding:"required"`
	FileName string `json:"fileName"`
}

// BatchPriorityRequest selects orders for triage; empty means all unscored.
type BatchPriorityRequest struct {
	OrderIDs []int64 `json:"orderIds" binding:"max=50"`
}

// PriorityResponse is the triage outcome of one order.
type PriorityResponse struct {
	OrderID           int64    `json:"orderId"`
	Scored            bool     `json:"scored"`
	Priority          string   `json:"priority,omitempty"`
	Reasons           []string `json:"reasons,omitempty"`
	SuggestedDeadline string   `json:"suggestedDeadline,omitempty"`
	Reason            string   `json:"reason,omitempty"`
}

// QualityResponse is the quality assessment of one order.
type QualityResponse struct {
	OrderID int64  `json:"orderId"`
	Scored  bool   `json:"scored"`
	Score   int    `json:"score,omitempty"`
	Details string `json:"details,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// PromptResponse is the generated production prompt.
type PromptResponse struct {
	OrderID   int64  `json:"orderId"`
	Generated bool   `json:"generated"`
	Prompt    string `json:"prompt,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
