package partner

import (
	"github.com/google/uuid"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// Aggregate type constants
const (
	AggregateTypeClient     = "Client"
	AggregateTypeProvider   = "Provider"
	AggregateTypeConsultant = "Consultant"
)

// EventTypePartnerRegistered is published when a client, provider or consultant is created
const EventTypePartnerRegistered = "PartnerRegistered"

// PartnerRegisteredEvent is published when a new partner is created
type PartnerRegisteredEvent struct {
	shared.BaseDomainEvent
	PartnerID uuid.UUID `json:"partner_id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id"`
}

// NewPartnerRegisteredEvent creates a new PartnerRegisteredEvent
func NewPartnerRegisteredEvent(aggType string, id uuid.UUID, name string, taxID valueobject.TaxID) *PartnerRegisteredEvent {
	return &PartnerRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePartnerRegistered, aggType, id),
		PartnerID:       id,
		Name:            name,
		TaxID:           taxID.String(),
	}
}
