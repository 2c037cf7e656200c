package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// movementBatchSize caps the rows sent in one INSERT
const movementBatchSize = 500

// unreconciledCondition selects movements no settlement references
const unreconciledCondition = "NOT EXISTS (SELECT 1 FROM settlements WHERE settlements.movement_id = bank_movements.id)"

// GormBankMovementRepository implements BankMovementRepository using GORM
type GormBankMovementRepository struct {
	db *gorm.DB
}

// NewGormBankMovementRepository creates a new GormBankMovementRepository
func NewGormBankMovementRepository(db *gorm.DB) *GormBankMovementRepository {
	return &GormBankMovementRepository{db: db}
}

// FindByID finds a movement by its ID
func (r *GormBankMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*banking.BankMovement, error) {
	var model models.BankMovementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindUnreconciled lists movements without a settlement in (date, line_no, id) order
func (r *GormBankMovementRepository) FindUnreconciled(ctx context.Context, after *banking.MovementCursor, limit int) ([]*banking.BankMovement, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BankMovementModel{}).
		Where(unreconciledCondition).
		Order("date ASC, line_no ASC, id ASC")
	if after != nil {
		query = query.Where(
			"(date > ?) OR (date = ? AND line_no > ?) OR (date = ? AND line_no = ? AND id > ?)",
			after.Date, after.Date, after.LineNo, after.Date, after.LineNo, after.ID,
		)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var movementModels []models.BankMovementModel
	if err := query.Find(&movementModels).Error; err != nil {
		return nil, err
	}

	movements := make([]*banking.BankMovement, len(movementModels))
	for i := range movementModels {
		movements[i] = movementModels[i].ToDomain()
	}
	return movements, nil
}

// CountUnreconciled counts movements without a settlement
func (r *GormBankMovementRepository) CountUnreconciled(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BankMovementModel{}).
		Where(unreconciledCondition).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateBatch inserts movements, skipping fingerprints already stored
func (r *GormBankMovementRepository) CreateBatch(ctx context.Context, movements []*banking.BankMovement) (int, error) {
	if len(movements) == 0 {
		return 0, nil
	}

	movementModels := make([]*models.BankMovementModel, len(movements))
	for i, m := range movements {
		movementModels[i] = models.BankMovementModelFromDomain(m)
	}

	inserted := 0
	for start := 0; start < len(movementModels); start += movementBatchSize {
		end := min(start+movementBatchSize, len(movementModels))
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "fingerprint"}},
				DoNothing: true,
			}).
			Create(movementModels[start:end])
		if result.Error != nil {
			return inserted, result.Error
		}
		inserted += int(result.RowsAffected)
	}
	return inserted, nil
}

// Ensure GormBankMovementRepository implements BankMovementRepository
var _ banking.BankMovementRepository = (*GormBankMovementRepository)(nil)
