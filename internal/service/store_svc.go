package service

import (
	"context"
	"fmt"
	"time"

	"wing_erp_v1_202608/internal/model"
	"wing_erp_v1_202608/internal/repository"
)

// ==================== ListingStore 单账号内存索引 + 缓冲写 ====================

// ListingStore 一次同步运行内单个账号的本地镜像访问器
//
//   - 启动时一次性全量读取该账号 listings，构建
//     seller_product_id → record 与 isbn → record 两张索引，避免逐条点查
//   - 所有变更经 Upsert/MarkDirty 进入写缓冲，按 checkpoint 批量落库，
//     运行结束时整体 Flush
//   - 次级唯一约束（一个 ISBN 同账号下至多挂一条记录）由本层统一仲裁
//
// 非并发安全：同步运行是严格串行的（见编排器），无需加锁
type ListingStore struct {
	repo      repository.ListingRepository
	accountID int64

	byProductID map[int64]*model.Listing
	byISBN      map[string]*model.Listing

	dirty      map[int64]*model.Listing // key: seller_product_id（新建记录此时还没有主键）
	flushEvery int
	dryRun     bool

	flushCount int // 已执行的批量落库次数（含 checkpoint）
}

// UpsertFields Stage-1 目录扫描提交的轻量字段集
type UpsertFields struct {
	SellerProductID int64
	ProductName     string
	Status          string
	SalePrice       int64
	OriginalPrice   int64
	ISBN            string // 可为空，走后续运行/Stage-2 补登
}

// UpsertResult 单条 upsert 的归类结果（计入 SyncRunStats）
type UpsertResult struct {
	Listing      *model.Listing
	Created      bool
	ISBNConflict bool // 候选 ISBN 已挂在其他记录上，被丢弃
}

// NewListingStore 构建账号索引（一次全量读）
func NewListingStore(ctx context.Context, repo repository.ListingRepository, accountID int64, flushEvery int, dryRun bool) (*ListingStore, error) {
	existing, err := repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("加载账号 listings 失败: %v", err)
	}

	store := &ListingStore{
		repo:        repo,
		accountID:   accountID,
		byProductID: make(map[int64]*model.Listing, len(existing)),
		byISBN:      make(map[string]*model.Listing, len(existing)),
		dirty:       make(map[int64]*model.Listing),
		flushEvery:  flushEvery,
		dryRun:      dryRun,
	}
	if store.flushEvery <= 0 {
		store.flushEvery = 200
	}

	for i := range existing {
		l := &existing[i]
		store.byProductID[l.SellerProductID] = l
		if l.ISBN != "" {
			store.byISBN[l.ISBN] = l
		}
	}
	return store, nil
}

// Size 当前索引内记录数
func (s *ListingStore) Size() int {
	return len(s.byProductID)
}

// Get 按 seller_product_id 查索引
func (s *ListingStore) Get(sellerProductID int64) *model.Listing {
	return s.byProductID[sellerProductID]
}

// All 索引内全部记录（Stage-2 候选筛选用）
func (s *ListingStore) All() []*model.Listing {
	records := make([]*model.Listing, 0, len(s.byProductID))
	for _, l := range s.byProductID {
		records = append(records, l)
	}
	return records
}

// Upsert 合并一条远端轻量记录
//
// 匹配顺序：seller_product_id → isbn（远端 id 还未入库过的场景，如其他流程刚建品）。
// 合并规则：标量字段（名称/状态）直接覆盖；价格仅在新值非零时覆盖；
// ISBN 只写入空位，一经写入不再覆盖；落不到已有记录则新建，
// last_checked_at 置为本次运行时间，detail_synced_at 留空。
func (s *ListingStore) Upsert(ctx context.Context, f UpsertFields, now time.Time) (*UpsertResult, error) {
	res := &UpsertResult{}

	listing := s.byProductID[f.SellerProductID]
	if listing == nil && f.ISBN != "" {
		// 次级匹配只认远端 id 未知的记录（如其他流程刚建品）；
		// 已绑定其他远端 id 的记录不吞并，候选 ISBN 走下面的唯一仲裁
		if byISBN := s.byISBN[f.ISBN]; byISBN != nil && byISBN.SellerProductID == 0 {
			listing = byISBN
		}
	}

	if listing == nil {
		listing = &model.Listing{
			AccountID:       s.accountID,
			SellerProductID: f.SellerProductID,
			ProductName:     f.ProductName,
			Status:          f.Status,
			SalePrice:       f.SalePrice,
			OriginalPrice:   f.OriginalPrice,
			LastCheckedAt:   &now,
		}
		s.byProductID[f.SellerProductID] = listing
		res.Created = true
	} else {
		// 次级匹配命中时补登远端 id，并迁移索引键和写缓冲键
		if listing.SellerProductID != f.SellerProductID {
			delete(s.byProductID, listing.SellerProductID)
			delete(s.dirty, listing.SellerProductID)
			listing.SellerProductID = f.SellerProductID
			s.byProductID[f.SellerProductID] = listing
			// 已入库记录先迁移冲突键，否则批量落库按新键走插入路径，留下旧行
			if listing.ID != 0 && !s.dryRun {
				if err := s.repo.UpdateFields(ctx, listing.ID,
					map[string]interface{}{"seller_product_id": f.SellerProductID}); err != nil {
					return nil, fmt.Errorf("迁移远端 id 失败: %v", err)
				}
			}
		}
		listing.ProductName = f.ProductName
		listing.Status = f.Status
		if f.SalePrice > 0 {
			listing.SalePrice = f.SalePrice
		}
		if f.OriginalPrice > 0 {
			listing.OriginalPrice = f.OriginalPrice
		}
		checked := now
		listing.LastCheckedAt = &checked
	}

	if f.ISBN != "" {
		if !s.claimISBN(listing, f.ISBN) {
			res.ISBNConflict = true
		}
	}

	res.Listing = listing
	if err := s.markDirty(ctx, listing); err != nil {
		return nil, err
	}
	return res, nil
}

// ClaimISBN Stage-2 详情补登 ISBN（带唯一仲裁）
// 返回 false 表示该 ISBN 已挂在同账号其他记录上，候选被丢弃
func (s *ListingStore) ClaimISBN(listing *model.Listing, isbn string) bool {
	return s.claimISBN(listing, isbn)
}

func (s *ListingStore) claimISBN(listing *model.Listing, isbn string) bool {
	if owner := s.byISBN[isbn]; owner != nil && owner != listing {
		return false // 先到先得，后来者不覆盖
	}
	if listing.ISBN != "" {
		// 一经写入不再覆盖（保护人工修正值）；相同值视为无事发生
		return listing.ISBN == isbn
	}
	listing.ISBN = isbn
	s.byISBN[isbn] = listing
	return true
}

// MarkDirty 登记 Stage-2 就地改完字段的记录，达到 checkpoint 阈值自动落库
func (s *ListingStore) MarkDirty(ctx context.Context, listing *model.Listing) error {
	return s.markDirty(ctx, listing)
}

func (s *ListingStore) markDirty(ctx context.Context, listing *model.Listing) error {
	s.dirty[listing.SellerProductID] = listing
	if len(s.dirty) >= s.flushEvery {
		return s.Flush(ctx)
	}
	return nil
}

// Flush 将写缓冲批量落库（checkpoint 提交）
// dry-run 模式只清空缓冲，不产生任何写入
func (s *ListingStore) Flush(ctx context.Context) error {
	if len(s.dirty) == 0 {
		return nil
	}
	if s.dryRun {
		s.dirty = make(map[int64]*model.Listing)
		return nil
	}

	batch := make([]model.Listing, 0, len(s.dirty))
	for _, l := range s.dirty {
		row := *l
		// 冲突仲裁统一走 (account_id, seller_product_id) 唯一索引，不能带主键
		row.ID = 0
		batch = append(batch, row)
	}

	if err := s.repo.BatchUpsert(ctx, batch); err != nil {
		return fmt.Errorf("批量落库失败 (%d 条): %v", len(batch), err)
	}

	// 新建记录回填主键，避免后续 checkpoint 重复插入路径
	for i := range batch {
		if l := s.byProductID[batch[i].SellerProductID]; l != nil && l.ID == 0 {
			l.ID = batch[i].ID
		}
	}

	s.dirty = make(map[int64]*model.Listing)
	s.flushCount++
	return nil
}

// FlushCount 已执行的落库批次数
func (s *ListingStore) FlushCount() int {
	return s.flushCount
}
