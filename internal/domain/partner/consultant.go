package partner

import (
	"time"

	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
)

// Consultant is a payee of the consultancy. AccountNumber is the CBU the
// bank prints at the end of a transfer concept.
type Consultant struct {
	shared.BaseAggregateRoot
	Name          string
	TaxID         valueobject.TaxID
	AccountNumber string
}

// NewConsultant creates a consultant with a validated CUIT and CBU
func NewConsultant(name, taxID, accountNumber string) (*Consultant, error) {
	n, id, err := validateCompany(name, taxID)
	if err != nil {
		return nil, err
	}
	account, err := valueobject.NormalizeAccountNumber(accountNumber)
	if err != nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, err.Error())
	}
	c := &Consultant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              n,
		TaxID:             id,
		AccountNumber:     account,
	}
	c.AddDomainEvent(NewPartnerRegisteredEvent(AggregateTypeConsultant, c.ID, c.Name, c.TaxID))
	return c, nil
}

// ChangeAccount replaces the consultant's bank account
func (c *Consultant) ChangeAccount(accountNumber string) error {
	account, err := valueobject.NormalizeAccountNumber(accountNumber)
	if err != nil {
		return shared.NewValidationError(shared.CodeInvalidInput, err.Error())
	}
	c.AccountNumber = account
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}
