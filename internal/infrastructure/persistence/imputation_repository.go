package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sistemita/backend/internal/domain/invoicing"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormImputationRepository implements ImputationRepository using GORM
type GormImputationRepository struct {
	db *gorm.DB
}

// NewGormImputationRepository creates a new GormImputationRepository
func NewGormImputationRepository(db *gorm.DB) *GormImputationRepository {
	return &GormImputationRepository{db: db}
}

// FindByID loads an imputation together with its lines
func (r *GormImputationRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Imputation, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCreditNote returns the imputation owning the credit note
func (r *GormImputationRepository) FindByCreditNote(ctx context.Context, creditNoteID uuid.UUID) (*invoicing.Imputation, error) {
	return r.findOne(ctx, "credit_note_id = ?", creditNoteID)
}

func (r *GormImputationRepository) findOne(ctx context.Context, query string, arg any) (*invoicing.Imputation, error) {
	var model models.ImputationModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where(query, arg).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates the imputation header and its lines
func (r *GormImputationRepository) Save(ctx context.Context, imputation *invoicing.Imputation) error {
	model := models.ImputationModelFromDomain(imputation)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.CodeCreditNoteInUse, "The credit note is already imputed")
			}
			return err
		}
		return createLines(tx, model)
	})
}

// SaveWithLock writes the header totals if the stored version still matches,
// replaces the lines, then increments the imputation version
func (r *GormImputationRepository) SaveWithLock(ctx context.Context, imputation *invoicing.Imputation) error {
	model := models.ImputationModelFromDomain(imputation)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ImputationModel{}).
			Where("id = ? AND version = ?", model.ID, model.Version).
			Updates(map[string]any{
				"invoices_total":     model.InvoicesTotal,
				"credit_note_amount": model.CreditNoteAmount,
				"net_total":          model.NetTotal,
				"version":            model.Version + 1,
				"updated_at":         model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.ImputationModel{}).Where("id = ?", model.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Where("imputation_id = ?", model.ID).Delete(&models.ImputationLineModel{}).Error; err != nil {
			return err
		}
		return createLines(tx, model)
	})
	if err != nil {
		return err
	}
	imputation.IncrementVersion()
	return nil
}

func createLines(tx *gorm.DB, model *models.ImputationModel) error {
	if len(model.Lines) == 0 {
		return nil
	}
	return tx.Create(&model.Lines).Error
}

// Delete deletes the imputation and its lines
func (r *GormImputationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("imputation_id = ?", id).Delete(&models.ImputationLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ImputationModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure GormImputationRepository implements ImputationRepository
var _ invoicing.ImputationRepository = (*GormImputationRepository)(nil)
