package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/invoicing"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for client and provider invoices,
// credit notes included.
type InvoiceModel struct {
	AggregateModel
	Side          invoicing.Side        `gorm:"type:varchar(10);not null;uniqueIndex:idx_invoice_owner_number,priority:1;index:idx_invoice_outstanding,priority:1"`
	OwnerID       uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_owner_number,priority:2;index:idx_invoice_outstanding,priority:2"`
	Type          invoicing.InvoiceType `gorm:"type:varchar(3);not null;uniqueIndex:idx_invoice_owner_number,priority:3"`
	Number        string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_owner_number,priority:4"`
	Date          time.Time             `gorm:"type:date;not null"`
	Currency      string                `gorm:"type:varchar(3);not null;default:'ARS'"`
	Net           decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	TaxRate       decimal.Decimal       `gorm:"type:decimal(5,2);not null"`
	Total         decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	AmountImputed decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Paid          bool                  `gorm:"not null;default:false;index:idx_invoice_outstanding,priority:3"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	return &invoicing.Invoice{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Side:              m.Side,
		OwnerID:           m.OwnerID,
		Type:              m.Type,
		Number:            m.Number,
		Date:              m.Date,
		Currency:          valueobject.Currency(m.Currency),
		Net:               m.Net,
		TaxRate:           m.TaxRate,
		Total:             m.Total,
		AmountImputed:     m.AmountImputed,
		Paid:              m.Paid,
	}
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Side:          inv.Side,
		OwnerID:       inv.OwnerID,
		Type:          inv.Type,
		Number:        inv.Number,
		Date:          inv.Date,
		Currency:      string(inv.Currency),
		Net:           inv.Net,
		TaxRate:       inv.TaxRate,
		Total:         inv.Total,
		AmountImputed: inv.AmountImputed,
		Paid:          inv.Paid,
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	return m
}

// ImputationModel is the persistence model for the Imputation aggregate root.
type ImputationModel struct {
	AggregateModel
	Side             invoicing.Side        `gorm:"type:varchar(10);not null"`
	OwnerID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	Date             time.Time             `gorm:"type:date;not null"`
	CreditNoteID     uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	Currency         string                `gorm:"type:varchar(3);not null"`
	InvoicesTotal    decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	CreditNoteAmount decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	NetTotal         decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Lines            []ImputationLineModel `gorm:"foreignKey:ImputationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ImputationModel) TableName() string {
	return "imputations"
}

// ImputationLineModel stores what an imputation applied to one invoice
type ImputationLineModel struct {
	ImputationID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID    uuid.UUID       `gorm:"type:uuid;primaryKey;index"`
	Position     int             `gorm:"not null"`
	InvoiceTotal decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (ImputationLineModel) TableName() string {
	return "imputation_lines"
}

// ToDomain converts the persistence model to a domain Imputation entity.
// Lines are returned in position order.
func (m *ImputationModel) ToDomain() *invoicing.Imputation {
	lines := make([]invoicing.ImputationLine, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = invoicing.ImputationLine{
			InvoiceID:    l.InvoiceID,
			Position:     l.Position,
			InvoiceTotal: l.InvoiceTotal,
			Amount:       l.Amount,
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })
	return &invoicing.Imputation{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Side:              m.Side,
		OwnerID:           m.OwnerID,
		Date:              m.Date,
		CreditNoteID:      m.CreditNoteID,
		Currency:          valueobject.Currency(m.Currency),
		Lines:             lines,
		InvoicesTotal:     m.InvoicesTotal,
		CreditNoteAmount:  m.CreditNoteAmount,
		NetTotal:          m.NetTotal,
	}
}

// ImputationModelFromDomain creates a persistence model from a domain Imputation entity.
func ImputationModelFromDomain(imp *invoicing.Imputation) *ImputationModel {
	m := &ImputationModel{
		Side:             imp.Side,
		OwnerID:          imp.OwnerID,
		Date:             imp.Date,
		CreditNoteID:     imp.CreditNoteID,
		Currency:         string(imp.Currency),
		InvoicesTotal:    imp.InvoicesTotal,
		CreditNoteAmount: imp.CreditNoteAmount,
		NetTotal:         imp.NetTotal,
		Lines:            make([]ImputationLineModel, len(imp.Lines)),
	}
	m.FromDomainAggregateRoot(imp.BaseAggregateRoot)
	for i, l := range imp.Lines {
		m.Lines[i] = ImputationLineModel{
			ImputationID: imp.ID,
			InvoiceID:    l.InvoiceID,
			Position:     l.Position,
			InvoiceTotal: l.InvoiceTotal,
			Amount:       l.Amount,
		}
	}
	return m
}

