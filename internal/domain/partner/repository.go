package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// FindByID finds a client by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindByTaxIDAndName finds the client with the given CUIT and display name.
	// The name comparison ignores case and surrounding spaces.
	FindByTaxIDAndName(ctx context.Context, taxID valueobject.TaxID, name string) (*Client, error)

	// FindAll finds all clients matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Client, error)

	// Save creates or updates a client
	Save(ctx context.Context, client *Client) error
}

// ProviderRepository defines the interface for provider persistence
type ProviderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Provider, error)
	Save(ctx context.Context, provider *Provider) error
}

// ConsultantRepository defines the interface for consultant persistence
type ConsultantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Consultant, error)

	// FindByAccountNumber finds the consultant owning the 22-digit CBU
	FindByAccountNumber(ctx context.Context, accountNumber string) (*Consultant, error)

	FindAll(ctx context.Context, filter shared.Filter) ([]Consultant, error)
	Save(ctx context.Context, consultant *Consultant) error
}
