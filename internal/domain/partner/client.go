package partner

import (
	"strings"
	"time"

	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

const maxNameLength = 200

// Client is a company the consultancy bills (Cliente)
type Client struct {
	shared.BaseAggregateRoot
	Name  string // razón social
	TaxID valueobject.TaxID
	Email string
}

// NewClient creates a client with a validated CUIT
func NewClient(name, taxID, email string) (*Client, error) {
	n, id, err := validateCompany(name, taxID)
	if err != nil {
		return nil, err
	}
	client := &Client{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              n,
		TaxID:             id,
		Email:             strings.TrimSpace(email),
	}
	client.AddDomainEvent(NewPartnerRegisteredEvent(AggregateTypeClient, client.ID, client.Name, client.TaxID))
	return client, nil
}

// Rename updates the display name
func (c *Client) Rename(name string) error {
	n, err := validateName(name)
	if err != nil {
		return err
	}
	c.Name = n
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// Provider is a supplier whose invoices the consultancy receives (Proveedor)
type Provider struct {
	shared.BaseAggregateRoot
	Name  string
	TaxID valueobject.TaxID
	Email string
}

// NewProvider creates a provider with a validated CUIT
func NewProvider(name, taxID, email string) (*Provider, error) {
	n, id, err := validateCompany(name, taxID)
	if err != nil {
		return nil, err
	}
	provider := &Provider{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              n,
		TaxID:             id,
		Email:             strings.TrimSpace(email),
	}
	provider.AddDomainEvent(NewPartnerRegisteredEvent(AggregateTypeProvider, provider.ID, provider.Name, provider.TaxID))
	return provider, nil
}

func validateCompany(name, taxID string) (string, valueobject.TaxID, error) {
	n, err := validateName(name)
	if err != nil {
		return "", valueobject.TaxID{}, err
	}
	id, err := valueobject.NewTaxID(taxID)
	if err != nil {
		return "", valueobject.TaxID{}, shared.NewValidationError(shared.CodeInvalidTaxID, err.Error())
	}
	return n, id, nil
}

func validateName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", shared.NewValidationError(shared.CodeInvalidInput, "Name cannot be empty")
	}
	if len(n) > maxNameLength {
		return "", shared.NewValidationError(shared.CodeInvalidInput, "Name cannot exceed 200 characters")
	}
	return n, nil
}
