package models

import (
	"github.com/sistemita/backend/internal/domain/partner"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// CompanyModel holds the columns shared by clients and providers
type CompanyModel struct {
	AggregateModel
	Name  string `gorm:"type:varchar(200);not null"`
	TaxID string `gorm:"type:varchar(11);not null;index"`
	Email string `gorm:"type:varchar(200)"`
}

// ClientModel is the persistence model for the Client aggregate root.
type ClientModel struct {
	CompanyModel
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *partner.Client {
	return &partner.Client{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		TaxID:             storedTaxID(m.TaxID),
		Email:             m.Email,
	}
}

// ClientModelFromDomain creates a persistence model from a domain Client entity.
func ClientModelFromDomain(c *partner.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.TaxID = c.TaxID.String()
	m.Email = c.Email
	return m
}

// ProviderModel is the persistence model for the Provider aggregate root.
type ProviderModel struct {
	CompanyModel
}

// TableName returns the table name for GORM
func (ProviderModel) TableName() string {
	return "providers"
}

// ToDomain converts the persistence model to a domain Provider entity.
func (m *ProviderModel) ToDomain() *partner.Provider {
	return &partner.Provider{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		TaxID:             storedTaxID(m.TaxID),
		Email:             m.Email,
	}
}

// ProviderModelFromDomain creates a persistence model from a domain Provider entity.
func ProviderModelFromDomain(p *partner.Provider) *ProviderModel {
	m := &ProviderModel{}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.TaxID = p.TaxID.String()
	m.Email = p.Email
	return m
}

// ConsultantModel is the persistence model for the Consultant aggregate root.
type ConsultantModel struct {
	AggregateModel
	Name          string `gorm:"type:varchar(200);not null"`
	TaxID         string `gorm:"type:varchar(11);not null;index"`
	AccountNumber string `gorm:"type:varchar(22);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (ConsultantModel) TableName() string {
	return "consultants"
}

// ToDomain converts the persistence model to a domain Consultant entity.
func (m *ConsultantModel) ToDomain() *partner.Consultant {
	return &partner.Consultant{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		TaxID:             storedTaxID(m.TaxID),
		AccountNumber:     m.AccountNumber,
	}
}

// ConsultantModelFromDomain creates a persistence model from a domain Consultant entity.
func ConsultantModelFromDomain(c *partner.Consultant) *ConsultantModel {
	m := &ConsultantModel{}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.TaxID = c.TaxID.String()
	m.AccountNumber = c.AccountNumber
	return m
}

// storedTaxID rebuilds a TaxID read from the database. Rows are validated
// on write, so a malformed value only comes from manual edits and maps to
// the zero TaxID.
func storedTaxID(raw string) valueobject.TaxID {
	id, err := valueobject.NewTaxID(raw)
	if err != nil {
		return valueobject.TaxID{}
	}
	return id
}
