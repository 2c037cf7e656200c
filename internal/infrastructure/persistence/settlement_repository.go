package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSettlementRepository implements SettlementRepository using GORM
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// Save creates a settlement. The unique movement index rejects a second one.
func (r *GormSettlementRepository) Save(ctx context.Context, settlement *banking.Settlement) error {
	if err := r.db.WithContext(ctx).Create(models.SettlementModelFromDomain(settlement)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "The movement is already reconciled")
		}
		return err
	}
	return nil
}

// FindByMovement returns the settlement of a movement
func (r *GormSettlementRepository) FindByMovement(ctx context.Context, movementID uuid.UUID) (*banking.Settlement, error) {
	var model models.SettlementModel
	if err := r.db.WithContext(ctx).First(&model, "movement_id = ?", movementID).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// GormPlannedPaymentRepository implements PlannedPaymentRepository using GORM
type GormPlannedPaymentRepository struct {
	db *gorm.DB
}

// NewGormPlannedPaymentRepository creates a new GormPlannedPaymentRepository
func NewGormPlannedPaymentRepository(db *gorm.DB) *GormPlannedPaymentRepository {
	return &GormPlannedPaymentRepository{db: db}
}

// FindPendingByConsultantAndAmount returns the oldest planned payment of the consultant with the amount
func (r *GormPlannedPaymentRepository) FindPendingByConsultantAndAmount(ctx context.Context, consultantID uuid.UUID, amount decimal.Decimal) (*banking.PlannedPayment, error) {
	var model models.PlannedPaymentModel
	if err := r.db.WithContext(ctx).
		Where("consultant_id = ? AND amount = ?", consultantID, amount).
		Order("due_date ASC, created_at ASC").
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a planned payment
func (r *GormPlannedPaymentRepository) Save(ctx context.Context, payment *banking.PlannedPayment) error {
	return r.db.WithContext(ctx).Save(models.PlannedPaymentModelFromDomain(payment)).Error
}

// Delete removes a planned payment once the bank confirmed it
func (r *GormPlannedPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.PlannedPaymentModel{}, id)
}

// GormDebtRepository implements DebtRepository using GORM
type GormDebtRepository struct {
	db *gorm.DB
}

// NewGormDebtRepository creates a new GormDebtRepository
func NewGormDebtRepository(db *gorm.DB) *GormDebtRepository {
	return &GormDebtRepository{db: db}
}

// FindByClientAndAmount returns the oldest debt of the client with exactly the amount
func (r *GormDebtRepository) FindByClientAndAmount(ctx context.Context, clientID uuid.UUID, amount decimal.Decimal) (*banking.Debt, error) {
	var model models.DebtModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND amount = ?", clientID, amount).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a debt
func (r *GormDebtRepository) Save(ctx context.Context, debt *banking.Debt) error {
	return r.db.WithContext(ctx).Save(models.DebtModelFromDomain(debt)).Error
}

// Delete removes a debt once collected
func (r *GormDebtRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.DebtModel{}, id)
}

func deleteByID(ctx context.Context, db *gorm.DB, model any, id uuid.UUID) error {
	result := db.WithContext(ctx).Delete(model, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ banking.SettlementRepository     = (*GormSettlementRepository)(nil)
	_ banking.PlannedPaymentRepository = (*GormPlannedPaymentRepository)(nil)
	_ banking.DebtRepository           = (*GormDebtRepository)(nil)
)
