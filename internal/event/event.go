package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	UserSignedUp       Type = "user.signed_up"
	PermissionsChanged Type = "permissions.changed"
	LeadCreated        Type = "lead.created"
)

type Envelope struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func NewEnvelope(t Type, data any) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type UserSignedUpData struct {
	UserID       uint   `json:"user_id"`
	Role         string `json:"role"`
	EmployeeType string `json:"employee_type"`
	ChannelCode  string `json:"channel_code"`
}

// PermissionsChangedData describes one mutation of a permission table.
// UserID is zero for role matrix changes, which affect every user of Role.
type PermissionsChangedData struct {
	Table   string `json:"table"`
	ActorID uint   `json:"actor_id"`
	UserID  uint   `json:"user_id,omitempty"`
	Role    string `json:"role,omitempty"`
	Module  string `json:"module,omitempty"`
	Field   string `json:"field,omitempty"`
}

type LeadCreatedData struct {
	LeadID      uint   `json:"lead_id"`
	Kind        string `json:"kind"`
	SubmittedBy uint   `json:"submitted_by"`
}
