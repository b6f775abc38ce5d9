package repository

import (
	"context"

	"gorm.io/gorm"

	"wing_erp_v1_202608/internal/model"
)

// SyncLogRepository 同步运行日志仓储接口
type SyncLogRepository interface {
	Create(ctx context.Context, entry *model.ListingSyncLog) error
	ListRecent(ctx context.Context, limit int) ([]model.ListingSyncLog, error)
	ListByRunID(ctx context.Context, runID string) ([]model.ListingSyncLog, error)
}

type syncLogRepo struct {
	db *gorm.DB
}

// NewSyncLogRepository 创建同步日志仓储
func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepo{db: db}
}

func (r *syncLogRepo) Create(ctx context.Context, entry *model.ListingSyncLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *syncLogRepo) ListRecent(ctx context.Context, limit int) ([]model.ListingSyncLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var entries []model.ListingSyncLog
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *syncLogRepo) ListByRunID(ctx context.Context, runID string) ([]model.ListingSyncLog, error) {
	var entries []model.ListingSyncLog
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id").
		Find(&entries).Error
	return entries, err
}
