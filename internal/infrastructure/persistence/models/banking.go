package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/domain/shared"
)

// BankMovementModel is the persistence model for imported statement lines.
type BankMovementModel struct {
	BaseModel
	Date        time.Time       `gorm:"type:date;not null;index:idx_movement_order,priority:1"`
	Code        string          `gorm:"type:varchar(20);not null"`
	Concept     string          `gorm:"type:text;not null;default:''"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Balance     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineNo      int             `gorm:"not null;index:idx_movement_order,priority:2"`
	Fingerprint string          `gorm:"type:varchar(64);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (BankMovementModel) TableName() string {
	return "bank_movements"
}

// ToDomain converts the persistence model to a domain BankMovement entity.
func (m *BankMovementModel) ToDomain() *banking.BankMovement {
	return &banking.BankMovement{
		BaseEntity:  m.BaseModel.ToDomain(),
		Date:        m.Date,
		Code:        m.Code,
		Concept:     m.Concept,
		Amount:      m.Amount,
		Balance:     m.Balance,
		LineNo:      m.LineNo,
		Fingerprint: m.Fingerprint,
	}
}

// BankMovementModelFromDomain creates a persistence model from a domain BankMovement entity.
func BankMovementModelFromDomain(mv *banking.BankMovement) *BankMovementModel {
	m := &BankMovementModel{
		Date:        mv.Date,
		Code:        mv.Code,
		Concept:     mv.Concept,
		Amount:      mv.Amount,
		Balance:     mv.Balance,
		LineNo:      mv.LineNo,
		Fingerprint: mv.Fingerprint,
	}
	m.FromDomainBaseEntity(mv.BaseEntity)
	return m
}

// SettlementModel is the persistence model for the Settlement aggregate root.
// The unique movement index enforces one settlement per movement.
type SettlementModel struct {
	AggregateModel
	Kind         banking.SettlementKind `gorm:"type:varchar(30);not null;index"`
	MovementID   uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex"`
	Date         time.Time              `gorm:"type:date;not null"`
	Amount       decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	ConsultantID *uuid.UUID             `gorm:"type:uuid;index"`
	DeliveryRef  string                 `gorm:"type:varchar(100)"`
	ClientID     *uuid.UUID             `gorm:"type:uuid;index"`
	InvoiceID    *uuid.UUID             `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SettlementModel) TableName() string {
	return "settlements"
}

// ToDomain converts the persistence model to a domain Settlement entity.
func (m *SettlementModel) ToDomain() *banking.Settlement {
	return &banking.Settlement{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Kind:              m.Kind,
		MovementID:        m.MovementID,
		Date:              m.Date,
		Amount:            m.Amount,
		ConsultantID:      m.ConsultantID,
		DeliveryRef:       m.DeliveryRef,
		ClientID:          m.ClientID,
		InvoiceID:         m.InvoiceID,
	}
}

// SettlementModelFromDomain creates a persistence model from a domain Settlement entity.
func SettlementModelFromDomain(s *banking.Settlement) *SettlementModel {
	m := &SettlementModel{
		Kind:         s.Kind,
		MovementID:   s.MovementID,
		Date:         s.Date,
		Amount:       s.Amount,
		ConsultantID: s.ConsultantID,
		DeliveryRef:  s.DeliveryRef,
		ClientID:     s.ClientID,
		InvoiceID:    s.InvoiceID,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// PlannedPaymentModel is the persistence model for consultant payments awaiting the bank.
type PlannedPaymentModel struct {
	BaseModel
	ConsultantID uuid.UUID       `gorm:"type:uuid;not null;index:idx_planned_payment_match,priority:1"`
	DeliveryRef  string          `gorm:"type:varchar(100)"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null;index:idx_planned_payment_match,priority:2"`
	DueDate      time.Time       `gorm:"type:date;not null"`
}

// TableName returns the table name for GORM
func (PlannedPaymentModel) TableName() string {
	return "planned_payments"
}

// ToDomain converts the persistence model to a domain PlannedPayment entity.
func (m *PlannedPaymentModel) ToDomain() *banking.PlannedPayment {
	return &banking.PlannedPayment{
		BaseEntity:   m.BaseModel.ToDomain(),
		ConsultantID: m.ConsultantID,
		DeliveryRef:  m.DeliveryRef,
		Amount:       m.Amount,
		DueDate:      m.DueDate,
	}
}

// PlannedPaymentModelFromDomain creates a persistence model from a domain PlannedPayment entity.
func PlannedPaymentModelFromDomain(p *banking.PlannedPayment) *PlannedPaymentModel {
	return &PlannedPaymentModel{
		BaseModel:    baseModel(p.BaseEntity),
		ConsultantID: p.ConsultantID,
		DeliveryRef:  p.DeliveryRef,
		Amount:       p.Amount,
		DueDate:      p.DueDate,
	}
}

// DebtModel is the persistence model for outstanding client debts.
type DebtModel struct {
	BaseModel
	ClientID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_debt_match,priority:1"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null;index:idx_debt_match,priority:2"`
}

// TableName returns the table name for GORM
func (DebtModel) TableName() string {
	return "debts"
}

// ToDomain converts the persistence model to a domain Debt entity.
func (m *DebtModel) ToDomain() *banking.Debt {
	return &banking.Debt{
		BaseEntity: m.BaseModel.ToDomain(),
		ClientID:   m.ClientID,
		InvoiceID:  m.InvoiceID,
		Amount:     m.Amount,
	}
}

// DebtModelFromDomain creates a persistence model from a domain Debt entity.
func DebtModelFromDomain(d *banking.Debt) *DebtModel {
	return &DebtModel{
		BaseModel: baseModel(d.BaseEntity),
		ClientID:  d.ClientID,
		InvoiceID: d.InvoiceID,
		Amount:    d.Amount,
	}
}

func baseModel(e shared.BaseEntity) BaseModel {
	var m BaseModel
	m.FromDomainBaseEntity(e)
	return m
}
