package repository

import (
	"context"

	"gorm.io/gorm"

	"wing_erp_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// AccountRepository 账号仓储接口
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByName(ctx context.Context, name string) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	List(ctx context.Context) ([]model.Account, error)

	// ListSyncable 查询可同步账号：激活且 WING API 凭证就绪
	// names 非空时只取指定账号
	ListSyncable(ctx context.Context, names []string) ([]model.Account, error)
}

// ==================== 仓储实现 ====================

type accountRepo struct {
	db *gorm.DB
}

// NewAccountRepository 创建账号仓储
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Create(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) GetByName(ctx context.Context, name string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Where("account_name = ?", name).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) Update(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *accountRepo) List(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.WithContext(ctx).
		Order("account_name").
		Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) ListSyncable(ctx context.Context, names []string) ([]model.Account, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", model.AccountStatusActive).
		Where("api_enabled = ?", true)

	if len(names) > 0 {
		query = query.Where("account_name IN ?", names)
	}

	var accounts []model.Account
	err := query.Order("account_name").Find(&accounts).Error
	return accounts, err
}
