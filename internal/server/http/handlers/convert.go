package handlers

import (
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/server/http/dto"
	"github.com/polkiloo/melodiemacher/internal/usecase"
)

const dateLayout = "2006-01-02"

func toDeliverableResponses(items []model.Deliverable) []dto.DeliverableResponse {
	out := make([]dto.DeliverableResponse, 0, len(items))
	for _, d := range items {
		out = append(out, toDeliverableResponse(d))
	}
	return out
}

func toDeliverableResponse(d model.Deliverable) dto.DeliverableResponse {
	return dto.DeliverableResponse{
		ID:        d.ID,
		Type:      string(d.Type),
		FileURL:   d.FileURL,
		FileName:  d.FileName,
		CreatedAt: d.CreatedAt,
	}
}

func toPublicOrderResponse(detail *usecase.OrderDetail) dto.PublicOrderResponse {
	o := detail.Order
	resp := dto.PublicOrderResponse{
		OrderNumber:   o.OrderNumber,
		Status:        string(o.Status),
		PackageType:   string(o.PackageType),
		RecipientName: o.RecipientName,
		Occasion:      o.Occasion,
		TotalPrice:    o.TotalPrice,
		CreatedAt:     o.CreatedAt,
		Deliverables:  []dto.DeliverableResponse{},
	}
	if o.Bundle.Selected() {
		resp.Bundle = string(o.Bundle)
	}
	// Links are only handed out once the order is delivered.
	if o.Status == model.OrderStatusDelivered {
		resp.DeliveryURL = o.DeliveryURL
		resp.DeliveredAt = o.DeliveredAt
		resp.Deliverables = toDeliverableResponses(detail.Deliverables)
	}
	return resp
}

func toAdminOrderResponse(o model.Order) dto.AdminOrderResponse {
	resp := dto.AdminOrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		PackageType:     string(o.PackageType),
		BumpKaraoke:     o.BumpKaraoke,
		BumpRush:        o.BumpRush,
		BumpGift:        o.BumpGift,
		HasCustomLyrics: o.HasCustomLyrics,
		CustomLyrics:    o.CustomLyrics,
		BasePrice:       o.BasePrice,
		TotalPrice:      o.TotalPrice,
		RecipientName:   o.RecipientName,
		Occasion:        o.Occasion,
		Relationship:    o.Relationship,
		Story:           o.Story,
		Genre:           o.Genre,
		Mood:            o.Mood,
		AllowEnglish:    o.AllowEnglish,
		ReferralCode:    o.ReferralCode,
		UTMSource:       o.UTMSource,
		UTMMedium:       o.UTMMedium,
		UTMCampaign:     o.UTMCampaign,
		Priority:        string(o.Priority),
		PriorityReasons: o.PriorityReasons,
		QualityScore:    o.QualityScore,
		QualityDetails:  o.QualityDetails,
		GeneratedPrompt: o.GeneratedPrompt,
		DeliveryURL:     o.DeliveryURL,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.Bundle.Selected() {
		resp.Bundle = string(o.Bundle)
	}
	if o.OccasionDate != nil {
		resp.OccasionDate = o.OccasionDate.Format(dateLayout)
	}
	if o.SuggestedDeadline != nil {
		resp.SuggestedDeadline = o.SuggestedDeadline.Format(dateLayout)
	}
	return resp
}

func toAdminDetailResponse(detail *usecase.OrderDetail) dto.AdminOrderDetailResponse {
	return dto.AdminOrderDetailResponse{
		Order:        toAdminOrderResponse(*detail.Order),
		Deliverables: toDeliverableResponses(detail.Deliverables),
		Required:     typeNames(detail.Required),
		Missing:      typeNames(detail.Missing),
	}
}

func typeNames(types []model.DeliverableType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func toPriorityResponse(r usecase.PriorityResult) dto.PriorityResponse {
	resp := dto.PriorityResponse{
		OrderID:  r.OrderID,
		Scored:   r.Scored,
		Priority: string(r.Priority),
		Reasons:  r.Reasons,
		Reason:   r.Reason,
	}
	if r.SuggestedDeadline != nil {
		resp.SuggestedDeadline = r.SuggestedDeadline.Format(dateLayout)
	}
	return resp
}
