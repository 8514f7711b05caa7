package model

import "time"

// DeliverableType is the kind of fulfillment artifact.
type DeliverableType string

const (
	DeliverableMP3 DeliverableType = "mp3"
	DeliverablePDF DeliverableType = "pdf"
	DeliverablePNG DeliverableType = "png"
	DeliverableMP4 DeliverableType = "mp4"
	DeliverableWAV DeliverableType = "wav"
)

// Valid reports whether t is a known deliverable type.
func (t DeliverableType) Valid() bool {
	switch t {
	case DeliverableMP3, DeliverablePDF, DeliverablePNG, DeliverableMP4, DeliverableWAV:
		return true
	}
	return false
}

// Deliverable is an immutable file attached to an order.
type Deliverable struct {
	ID        int64
	OrderID   int64
	Type      DeliverableType
	FileURL   string
	FileName  string
	CreatedAt time.Time
}

// RequiredDeliverables returns the artifact types an order must carry before delivery.
func RequiredDeliverables(o *Order) []DeliverableType {
	required := []DeliverableType{DeliverableMP3}
	if o.PackageType != PackageBasis {
		required = append(required, DeliverablePDF, DeliverablePNG)
	}
	if o.PackageType == PackagePremium {
		required = append(required, DeliverableMP4)
	}
	if o.PackageType == PackagePremium || o.HasKaraoke() {
		required = append(required, DeliverableWAV)
	}
	return required
}

// MissingDeliverables returns required types absent from present.
func MissingDeliverables(o *Order, present []Deliverable) []DeliverableType {
	have := make(map[DeliverableType]bool, len(present))
	for _, d := range present {
		have[d.Type] = true
	}
	var missing []DeliverableType
	for _, t := range RequiredDeliverables(o) {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
