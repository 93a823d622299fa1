package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/callscribe/callscribe/internal/models"
)

type UsageRepository interface {
	Insert(ctx context.Context, rec *models.UsageRecord) error
	MonthlyMinutes(ctx context.Context, monthKey string) (float64, error)
	MonthlySpend(ctx context.Context, monthKey string) (float64, error)
}

type usageRepo struct {
	db *gorm.DB
}

func NewUsageRepo(db *gorm.DB) UsageRepository {
	return &usageRepo{db: db}
}

func (r *usageRepo) Insert(ctx context.Context, rec *models.UsageRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *usageRepo) MonthlyMinutes(ctx context.Context, monthKey string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Where("month_key = ?", monthKey).
		Select("COALESCE(SUM(billed_minutes), 0)").
		Scan(&total).Error
	return total, err
}

func (r *usageRepo) MonthlySpend(ctx context.Context, monthKey string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Where("month_key = ?", monthKey).
		Select("COALESCE(SUM(cost), 0)").
		Scan(&total).Error
	return total, err
}
