package banking

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/shared"
)

// AggregateTypeSettlement is the aggregate type of settlements
const AggregateTypeSettlement = "Settlement"

// EventTypeMovementReconciled is published when a settlement is created for a movement
const EventTypeMovementReconciled = "MovementReconciled"

// MovementReconciledEvent is published when a bank movement gets its settlement
type MovementReconciledEvent struct {
	shared.BaseDomainEvent
	SettlementID uuid.UUID       `json:"settlement_id"`
	MovementID   uuid.UUID       `json:"movement_id"`
	Kind         SettlementKind  `json:"kind"`
	Code         string          `json:"code"`
	Amount       decimal.Decimal `json:"amount"`
}

// NewMovementReconciledEvent creates a new MovementReconciledEvent
func NewMovementReconciledEvent(s *Settlement, m *BankMovement) *MovementReconciledEvent {
	return &MovementReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementReconciled, AggregateTypeSettlement, s.ID),
		SettlementID:    s.ID,
		MovementID:      m.ID,
		Kind:            s.Kind,
		Code:            m.Code,
		Amount:          s.Amount,
	}
}
