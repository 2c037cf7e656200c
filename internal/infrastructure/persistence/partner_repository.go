package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sistemita/backend/internal/domain/partner"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
	"github.com/sistemita/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByTaxIDAndName finds the client with the given CUIT and name, ignoring case
func (r *GormClientRepository) FindByTaxIDAndName(ctx context.Context, taxID valueobject.TaxID, name string) (*partner.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tax_id = ? AND UPPER(name) = ?", taxID.String(), strings.ToUpper(strings.TrimSpace(name))).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all clients matching the filter
func (r *GormClientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Client, error) {
	var clientModels []models.ClientModel
	if err := applyPartnerFilter(r.db.WithContext(ctx).Model(&models.ClientModel{}), filter).Find(&clientModels).Error; err != nil {
		return nil, err
	}

	clients := make([]partner.Client, len(clientModels))
	for i, model := range clientModels {
		clients[i] = *model.ToDomain()
	}
	return clients, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *partner.Client) error {
	return r.db.WithContext(ctx).Save(models.ClientModelFromDomain(client)).Error
}

// GormProviderRepository implements ProviderRepository using GORM
type GormProviderRepository struct {
	db *gorm.DB
}

// NewGormProviderRepository creates a new GormProviderRepository
func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

// FindByID finds a provider by its ID
func (r *GormProviderRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Provider, error) {
	var model models.ProviderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all providers matching the filter
func (r *GormProviderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Provider, error) {
	var providerModels []models.ProviderModel
	if err := applyPartnerFilter(r.db.WithContext(ctx).Model(&models.ProviderModel{}), filter).Find(&providerModels).Error; err != nil {
		return nil, err
	}

	providers := make([]partner.Provider, len(providerModels))
	for i, model := range providerModels {
		providers[i] = *model.ToDomain()
	}
	return providers, nil
}

// Save creates or updates a provider
func (r *GormProviderRepository) Save(ctx context.Context, provider *partner.Provider) error {
	return r.db.WithContext(ctx).Save(models.ProviderModelFromDomain(provider)).Error
}

// GormConsultantRepository implements ConsultantRepository using GORM
type GormConsultantRepository struct {
	db *gorm.DB
}

// NewGormConsultantRepository creates a new GormConsultantRepository
func NewGormConsultantRepository(db *gorm.DB) *GormConsultantRepository {
	return &GormConsultantRepository{db: db}
}

// FindByID finds a consultant by its ID
func (r *GormConsultantRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Consultant, error) {
	var model models.ConsultantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByAccountNumber finds the consultant owning the CBU
func (r *GormConsultantRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*partner.Consultant, error) {
	var model models.ConsultantModel
	if err := r.db.WithContext(ctx).First(&model, "account_number = ?", accountNumber).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all consultants matching the filter
func (r *GormConsultantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Consultant, error) {
	var consultantModels []models.ConsultantModel
	if err := applyPartnerFilter(r.db.WithContext(ctx).Model(&models.ConsultantModel{}), filter).Find(&consultantModels).Error; err != nil {
		return nil, err
	}

	consultants := make([]partner.Consultant, len(consultantModels))
	for i, model := range consultantModels {
		consultants[i] = *model.ToDomain()
	}
	return consultants, nil
}

// Save creates or updates a consultant
func (r *GormConsultantRepository) Save(ctx context.Context, consultant *partner.Consultant) error {
	err := r.db.WithContext(ctx).Save(models.ConsultantModelFromDomain(consultant)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Another consultant already uses this account number")
	}
	return err
}

func applyPartnerFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToUpper(filter.Search) + "%"
		query = query.Where("UPPER(name) LIKE ? OR tax_id LIKE ?", pattern, pattern)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, PartnerSortFields, "name")
	orderDir := "ASC"
	if filter.OrderDir != "" {
		orderDir = ValidateSortOrder(filter.OrderDir)
	}
	return query.Order(orderBy + " " + orderDir)
}

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

var (
	_ partner.ClientRepository     = (*GormClientRepository)(nil)
	_ partner.ProviderRepository   = (*GormProviderRepository)(nil)
	_ partner.ConsultantRepository = (*GormConsultantRepository)(nil)
)
