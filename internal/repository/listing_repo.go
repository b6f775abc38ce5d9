package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wing_erp_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ListingRepository 商品镜像仓储接口
type ListingRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	GetBySellerProductID(ctx context.Context, accountID, sellerProductID int64) (*model.Listing, error)
	// GetByISBN 同账号 ISBN 归属查询，未命中返回 nil 不报错
	GetByISBN(ctx context.Context, accountID int64, isbn string) (*model.Listing, error)
	Update(ctx context.Context, listing *model.Listing) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error)

	// ListByAccount 单账号全量读取（同步运行开始时构建内存索引用，避免逐条点查）
	ListByAccount(ctx context.Context, accountID int64) ([]model.Listing, error)

	// ListWithRawJSON 取有详情快照的记录（ISBN 回填用）
	ListWithRawJSON(ctx context.Context, accountID int64, limit int) ([]model.Listing, error)

	// BatchUpsert 批量写入：冲突键 (account_id, seller_product_id)，冲突时整行字段更新
	BatchUpsert(ctx context.Context, listings []model.Listing) error

	// 统计
	CountByAccountAndStatus(ctx context.Context, accountID int64) (map[string]int64, error)
}

// ==================== 过滤条件 ====================

// ListingFilter 商品镜像过滤条件
type ListingFilter struct {
	AccountID int64
	Status    string
	Keyword   string // 商品名模糊
	HasISBN   *bool  // nil=不过滤
	Page      int
	PageSize  int
}

// ==================== 仓储实现 ====================

type listingRepo struct {
	db *gorm.DB
}

// NewListingRepository 创建商品镜像仓储
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepo{db: db}
}

func (r *listingRepo) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepo) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) GetBySellerProductID(ctx context.Context, accountID, sellerProductID int64) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND seller_product_id = ?", accountID, sellerProductID).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) GetByISBN(ctx context.Context, accountID int64, isbn string) (*model.Listing, error) {
	var listing model.Listing
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND isbn = ?", accountID, isbn).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepo) Update(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *listingRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *listingRepo) List(ctx context.Context, filter ListingFilter) ([]model.Listing, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Listing{})

	if filter.AccountID > 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		query = query.Where("product_name LIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.HasISBN != nil {
		if *filter.HasISBN {
			query = query.Where("isbn <> ''")
		} else {
			query = query.Where("isbn = '' OR isbn IS NULL")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}

	var listings []model.Listing
	err := query.
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&listings).Error
	return listings, total, err
}

func (r *listingRepo) ListByAccount(ctx context.Context, accountID int64) ([]model.Listing, error) {
	var listings []model.Listing
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Find(&listings).Error
	return listings, err
}

func (r *listingRepo) ListWithRawJSON(ctx context.Context, accountID int64, limit int) ([]model.Listing, error) {
	query := r.db.WithContext(ctx).
		Where("raw_json IS NOT NULL")
	if accountID > 0 {
		query = query.Where("account_id = ?", accountID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var listings []model.Listing
	err := query.Find(&listings).Error
	return listings, err
}

func (r *listingRepo) BatchUpsert(ctx context.Context, listings []model.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "seller_product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"vendor_item_id", "item_id",
			"product_name", "status", "brand",
			"sale_price", "original_price", "supply_price",
			"stock_quantity", "max_buy_count",
			"delivery_charge_type", "delivery_charge", "return_charge",
			"display_category_code",
			"isbn", "isbn_set", "search_tags",
			"winner_status", "winner_checked_at",
			"raw_json", "last_checked_at", "detail_synced_at",
			"updated_at",
		}),
	}).Create(&listings).Error
}

func (r *listingRepo) CountByAccountAndStatus(ctx context.Context, accountID int64) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Select("status, count(*) as count").
		Where("account_id = ?", accountID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
