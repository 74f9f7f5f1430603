package model

import (
	"strings"
	"time"
)

// TimestampLayout is how delivery timestamps are stored and displayed. Date
// filtering is a string prefix match against this representation.
const TimestampLayout = "2006-01-02 15:04"

// Delivery is one device handed out to a recipient.
type Delivery struct {
	ID            int64      `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	EquipmentName string     `json:"equipment_name"`
	EquipmentType string     `json:"equipment_type"`
	IMEI          string     `json:"imei,omitempty"`
	RecipientName string     `json:"recipient_name"`
	Notes         string     `json:"notes,omitempty"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	Returned      bool       `json:"returned"`
	Attachment    string     `json:"attachment,omitempty"`
}

// DeliveryFields are the descriptive, user-editable fields of a delivery.
type DeliveryFields struct {
	EquipmentName string
	EquipmentType string
	IMEI          string
	RecipientName string
	Notes         string
}

// Validate checks that the required fields are present.
func (f DeliveryFields) Validate() error {
	switch {
	case strings.TrimSpace(f.EquipmentName) == "":
		return &ValidationError{Field: "equipo"}
	case strings.TrimSpace(f.EquipmentType) == "":
		return &ValidationError{Field: "tipo_equipo"}
	case strings.TrimSpace(f.RecipientName) == "":
		return &ValidationError{Field: "persona"}
	}
	return nil
}

// ActiveFilter narrows the list of active deliveries. Empty fields match everything.
type ActiveFilter struct {
	// DatePrefix must match the beginning of the formatted creation timestamp.
	DatePrefix string
	// Search is matched case-insensitively against equipment name, type,
	// recipient and IMEI.
	Search string
}
