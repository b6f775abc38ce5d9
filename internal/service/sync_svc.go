package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"wing_erp_v1_202608/internal/model"
	"wing_erp_v1_202608/internal/repository"
	"wing_erp_v1_202608/pkg/wing"
)

// ==================== Listing 同步服务 ====================

// MarketAPI 同步流程依赖的 WING 接口子集（便于测试替换）
type MarketAPI interface {
	ListProductsPage(ctx context.Context, nextToken string, maxPerPage int) (*wing.ProductListPage, error)
	GetProduct(ctx context.Context, sellerProductID int64) (*wing.ProductDetail, error)
	GetItemInventory(ctx context.Context, vendorItemID int64) (*wing.ItemInventory, error)
}

// ClientFactory 按账号凭证构建 API 客户端
type ClientFactory func(account *model.Account) MarketAPI

// SyncConfig 同步服务全局配置（环境变量注入，见 cmd/main.go）
type SyncConfig struct {
	PageSize        int           // 目录扫描每页条数
	FlushEvery      int           // checkpoint 批量落库阈值
	StaleHours      int           // detail_synced_at 超过该小时数视为过期
	RetryWait       time.Duration // 限流重试等待
	InventoryStrict bool          // true 时库存接口失败按详情失败处理
}

// DefaultSyncConfig 与 WING 平台调用配额匹配的默认值
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		PageSize:   50,
		FlushEvery: 200,
		StaleHours: 24,
		RetryWait:  time.Second,
	}
}

// SyncOptions 单次运行参数
type SyncOptions struct {
	AccountNames []string // 为空同步全部可用账号
	MaxPages     int      // 0 不限页
	Quick        bool     // 只跑目录扫描，跳过详情刷新
	Force        bool     // 忽略过期判断，全量刷新详情
	StaleHours   int      // 覆盖全局过期阈值，0 用配置值
	DryRun       bool     // 不产生任何写入
}

// AccountSyncStats 单账号统计
type AccountSyncStats struct {
	AccountID    int64  `json:"account_id"`
	AccountName  string `json:"account_name"`
	TotalSeen    int    `json:"total_seen"`
	NewCount     int    `json:"new_count"`
	UpdatedCount int    `json:"updated_count"`
	ISBNFound    int    `json:"isbn_found"`
	ISBNMissing  int    `json:"isbn_missing"`
	ISBNConflict int    `json:"isbn_conflict"`
	DetailNeeded int    `json:"detail_needed"`
	DetailDone   int    `json:"detail_done"`
	DetailFailed int    `json:"detail_failed"`
	SkippedFresh int    `json:"skipped_fresh"`
	ErrorCount   int    `json:"error_count"`
	DurationMs   int64  `json:"duration_ms"`
	ErrorMsg     string `json:"error_msg,omitempty"`
}

// SyncRunStats 整次运行汇总
type SyncRunStats struct {
	RunID        string             `json:"run_id"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
	Accounts     []AccountSyncStats `json:"accounts"`
	TotalSeen    int                `json:"total_seen"`
	NewCount     int                `json:"new_count"`
	UpdatedCount int                `json:"updated_count"`
	DetailDone   int                `json:"detail_done"`
	DetailFailed int                `json:"detail_failed"`
	ErrorCount   int                `json:"error_count"`
}

func (s *SyncRunStats) add(a AccountSyncStats) {
	s.Accounts = append(s.Accounts, a)
	s.TotalSeen += a.TotalSeen
	s.NewCount += a.NewCount
	s.UpdatedCount += a.UpdatedCount
	s.DetailDone += a.DetailDone
	s.DetailFailed += a.DetailFailed
	s.ErrorCount += a.ErrorCount
}

// ListingSyncService 两段式同步编排器
//
// Stage-1: 目录扫描 — 分页拉取商品列表，轻量字段 upsert 入库
// Stage-2: 详情刷新 — 只对从未同步过或已过期的记录逐条拉详情
type ListingSyncService struct {
	accountRepo repository.AccountRepository
	listingRepo repository.ListingRepository
	syncLogRepo repository.SyncLogRepository
	newClient   ClientFactory
	config      SyncConfig
}

// NewListingSyncService 创建同步服务
func NewListingSyncService(
	accountRepo repository.AccountRepository,
	listingRepo repository.ListingRepository,
	syncLogRepo repository.SyncLogRepository,
	newClient ClientFactory,
	config SyncConfig,
) *ListingSyncService {
	if config.PageSize <= 0 {
		config.PageSize = 50
	}
	if config.FlushEvery <= 0 {
		config.FlushEvery = 200
	}
	if config.StaleHours <= 0 {
		config.StaleHours = 24
	}
	if config.RetryWait <= 0 {
		config.RetryWait = time.Second
	}
	return &ListingSyncService{
		accountRepo: accountRepo,
		listingRepo: listingRepo,
		syncLogRepo: syncLogRepo,
		newClient:   newClient,
		config:      config,
	}
}

// RunSync 对指定（或全部）账号执行一次完整同步，账号间严格串行
// 单账号失败记入统计后继续下一账号，不中断整次运行
func (s *ListingSyncService) RunSync(ctx context.Context, opts SyncOptions) (*SyncRunStats, error) {
	accounts, err := s.accountRepo.ListSyncable(ctx, opts.AccountNames)
	if err != nil {
		return nil, fmt.Errorf("加载可同步账号失败: %v", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("没有可同步的账号（需 status=active 且 api_enabled=true）")
	}

	stats := &SyncRunStats{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	log.Printf("[ListingSync] 运行开始 run_id=%s 账号数=%d quick=%v force=%v dry_run=%v",
		stats.RunID, len(accounts), opts.Quick, opts.Force, opts.DryRun)

	for i := range accounts {
		account := &accounts[i]
		accStats := s.syncAccount(ctx, account, opts)
		stats.add(accStats)
		s.writeSyncLog(ctx, stats.RunID, account, opts, accStats)
	}

	stats.FinishedAt = time.Now()
	log.Printf("[ListingSync] 运行结束 run_id=%s 总扫描=%d 新建=%d 详情=%d 失败=%d",
		stats.RunID, stats.TotalSeen, stats.NewCount, stats.DetailDone, stats.DetailFailed)
	return stats, nil
}

// syncAccount 单账号两段式同步
func (s *ListingSyncService) syncAccount(ctx context.Context, account *model.Account, opts SyncOptions) AccountSyncStats {
	started := time.Now()
	accStats := AccountSyncStats{AccountID: account.ID, AccountName: account.AccountName}
	defer func() { accStats.DurationMs = time.Since(started).Milliseconds() }()

	store, err := NewListingStore(ctx, s.listingRepo, account.ID, s.config.FlushEvery, opts.DryRun)
	if err != nil {
		accStats.ErrorCount++
		accStats.ErrorMsg = err.Error()
		log.Printf("[ListingSync] 账号 %s 初始化失败: %v", account.AccountName, err)
		return accStats
	}

	api := s.newClient(account)
	guard := wing.NewRetryGuard()
	guard.Wait = s.config.RetryWait
	now := time.Now()

	if err := s.scanDirectory(ctx, api, guard, store, opts, now, &accStats); err != nil {
		accStats.ErrorCount++
		accStats.ErrorMsg = err.Error()
		log.Printf("[ListingSync] 账号 %s 目录扫描中断: %v", account.AccountName, err)
		// 已扫页的进度保留，不丢弃
		if ferr := store.Flush(ctx); ferr != nil {
			log.Printf("[ListingSync] 账号 %s 中断落库失败: %v", account.AccountName, ferr)
		}
		return accStats
	}

	// 目录扫描成果先落库再进详情阶段：详情逐条走网络，耗时长且可能中途被杀
	if err := store.Flush(ctx); err != nil {
		accStats.ErrorCount++
		accStats.ErrorMsg = err.Error()
		log.Printf("[ListingSync] 账号 %s 目录落库失败: %v", account.AccountName, err)
		return accStats
	}

	if !opts.Quick {
		s.refreshDetails(ctx, api, guard, store, opts, now, &accStats)
	}

	if err := store.Flush(ctx); err != nil {
		accStats.ErrorCount++
		accStats.ErrorMsg = err.Error()
		log.Printf("[ListingSync] 账号 %s 收尾落库失败: %v", account.AccountName, err)
	}

	log.Printf("[ListingSync] 账号 %s 完成 扫描=%d 新建=%d 更新=%d ISBN命中=%d 详情=%d/%d 跳过=%d",
		account.AccountName, accStats.TotalSeen, accStats.NewCount, accStats.UpdatedCount,
		accStats.ISBNFound, accStats.DetailDone, accStats.DetailNeeded, accStats.SkippedFresh)
	return accStats
}

// scanDirectory Stage-1 分页目录扫描
// 终止条件：nextToken 为空、短页（返回条数不足一页）、或到达 MaxPages
func (s *ListingSyncService) scanDirectory(ctx context.Context, api MarketAPI, guard wing.RetryGuard,
	store *ListingStore, opts SyncOptions, now time.Time, accStats *AccountSyncStats) error {

	nextToken := ""
	pageNum := 0

	for {
		pageNum++
		var page *wing.ProductListPage
		err := guard.Do(func() error {
			var perr error
			page, perr = api.ListProductsPage(ctx, nextToken, s.config.PageSize)
			return perr
		})
		if err != nil {
			// 页级失败终止扫描：跳页会造成该页商品被错误判定为下架
			return fmt.Errorf("第 %d 页拉取失败: %v", pageNum, err)
		}

		for i := range page.Data {
			summary := &page.Data[i]
			status := MapListingStatus(summary.StatusLabel())

			fields := UpsertFields{
				SellerProductID: summary.SellerProductID,
				ProductName:     summary.SellerProductName,
				Status:          status,
				ISBN:            ExtractISBN(summary.SellerProductName, summary.Items),
			}
			if len(summary.Items) > 0 {
				fields.SalePrice = summary.Items[0].SalePrice
				fields.OriginalPrice = summary.Items[0].OriginalPrice
			}

			res, err := store.Upsert(ctx, fields, now)
			if err != nil {
				// 单条失败只计数，不中断本页
				accStats.ErrorCount++
				log.Printf("[ListingSync] 商品 %d upsert 失败: %v", summary.SellerProductID, err)
				continue
			}

			accStats.TotalSeen++
			if res.Created {
				accStats.NewCount++
			} else {
				accStats.UpdatedCount++
			}
			if res.ISBNConflict {
				accStats.ISBNConflict++
			}
			if res.Listing.ISBN != "" {
				accStats.ISBNFound++
			} else {
				accStats.ISBNMissing++
			}
		}

		if page.NextToken == "" || len(page.Data) < s.config.PageSize {
			break
		}
		if opts.MaxPages > 0 && pageNum >= opts.MaxPages {
			log.Printf("[ListingSync] 到达页数上限 %d，扫描提前结束", opts.MaxPages)
			break
		}
		nextToken = page.NextToken
	}
	return nil
}

// selectDetailTargets 筛选需要详情刷新的记录
// 规则：force 全选；否则选从未同步过或 detail_synced_at 早于过期阈值的
func selectDetailTargets(listings []*model.Listing, now time.Time, staleHours int, force bool) []*model.Listing {
	if force {
		return listings
	}
	threshold := time.Duration(staleHours) * time.Hour
	targets := make([]*model.Listing, 0)
	for _, l := range listings {
		if l.NeverSynced() || l.DetailStale(now, threshold) {
			targets = append(targets, l)
		}
	}
	return targets
}

// refreshDetails Stage-2 选择性详情刷新
// 单条失败只计数并继续，绝不中断整批
func (s *ListingSyncService) refreshDetails(ctx context.Context, api MarketAPI, guard wing.RetryGuard,
	store *ListingStore, opts SyncOptions, now time.Time, accStats *AccountSyncStats) {

	staleHours := opts.StaleHours
	if staleHours <= 0 {
		staleHours = s.config.StaleHours
	}

	all := store.All()
	targets := selectDetailTargets(all, now, staleHours, opts.Force)
	accStats.DetailNeeded = len(targets)
	accStats.SkippedFresh = len(all) - len(targets)

	for _, listing := range targets {
		var detail *wing.ProductDetail
		err := guard.Do(func() error {
			var derr error
			detail, derr = api.GetProduct(ctx, listing.SellerProductID)
			return derr
		})
		if err != nil {
			accStats.DetailFailed++
			log.Printf("[ListingSync] 商品 %d 详情拉取失败: %v", listing.SellerProductID, err)
			continue
		}

		if err := s.applyDetail(ctx, store, listing, detail, now, accStats); err != nil {
			accStats.DetailFailed++
			log.Printf("[ListingSync] 商品 %d 详情合并失败: %v", listing.SellerProductID, err)
			continue
		}

		// 库存是独立接口，默认失败不影响详情成功判定
		if listing.VendorItemID > 0 {
			if err := s.applyInventory(ctx, api, guard, store, listing); err != nil {
				if s.config.InventoryStrict {
					accStats.DetailFailed++
					continue
				}
				log.Printf("[ListingSync] 商品 %d 库存查询失败（忽略）: %v", listing.SellerProductID, err)
			}
		}

		synced := now
		listing.DetailSyncedAt = &synced
		if err := store.MarkDirty(ctx, listing); err != nil {
			accStats.ErrorCount++
			log.Printf("[ListingSync] 商品 %d 详情落库失败: %v", listing.SellerProductID, err)
			continue
		}
		accStats.DetailDone++
	}
}

// applyDetail 将详情响应合并到本地记录
func (s *ListingSyncService) applyDetail(ctx context.Context, store *ListingStore,
	listing *model.Listing, detail *wing.ProductDetail, now time.Time, accStats *AccountSyncStats) error {

	listing.ProductName = detail.SellerProductName
	listing.Status = MapListingStatus(detail.StatusLabel())
	if detail.Brand != "" {
		listing.Brand = detail.Brand
	}
	if detail.DisplayCategoryCode > 0 {
		listing.DisplayCategoryCode = strconv.FormatInt(detail.DisplayCategoryCode, 10)
	}
	listing.DeliveryChargeType = detail.DeliveryChargeType
	if detail.DeliveryCharge > 0 {
		listing.DeliveryCharge = detail.DeliveryCharge
	}
	if detail.ReturnCharge > 0 {
		listing.ReturnCharge = detail.ReturnCharge
	}

	if len(detail.Items) > 0 {
		item := &detail.Items[0]
		listing.ItemID = item.ItemID
		listing.VendorItemID = item.VendorItemID
		if item.SalePrice > 0 {
			listing.SalePrice = item.SalePrice
		}
		if item.OriginalPrice > 0 {
			listing.OriginalPrice = item.OriginalPrice
		}
		if item.SupplyPrice > 0 {
			listing.SupplyPrice = item.SupplyPrice
		}
		if item.MaximumBuyCount > 0 {
			listing.MaxBuyCount = item.MaximumBuyCount
		}
		if len(item.SearchTags) > 0 {
			listing.SearchTags = item.SearchTags
		}
		if item.Winner != nil {
			if *item.Winner {
				listing.WinnerStatus = "winner"
			} else {
				listing.WinnerStatus = "not_winner"
			}
			checked := now
			listing.WinnerCheckedAt = &checked
		}
	}

	// 详情阶段的 ISBN 补登：只填空位，同账号唯一仲裁
	if listing.ISBN == "" {
		if isbn := ExtractISBN(detail.SellerProductName, detail.Items); isbn != "" {
			if store.ClaimISBN(listing, isbn) {
				accStats.ISBNFound++
				// 目标可能不是本次扫描触达的（如预置记录），没计过 missing 就不回减
				if accStats.ISBNMissing > 0 {
					accStats.ISBNMissing--
				}
			} else {
				accStats.ISBNConflict++
			}
		}
	}
	if allISBNs := ExtractAllISBNs(detail.SellerProductName, detail.Items); len(allISBNs) > 0 {
		listing.ISBNSet = allISBNs
	}

	// 原始快照留底，便于离线回填与排查
	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("详情序列化失败: %v", err)
	}
	listing.RawJSON = datatypes.JSON(raw)
	return nil
}

// applyInventory 拉取实时库存并修正状态
func (s *ListingSyncService) applyInventory(ctx context.Context, api MarketAPI, guard wing.RetryGuard,
	store *ListingStore, listing *model.Listing) error {

	var inv *wing.ItemInventory
	err := guard.Do(func() error {
		var ierr error
		inv, ierr = api.GetItemInventory(ctx, listing.VendorItemID)
		return ierr
	})
	if err != nil {
		return err
	}

	listing.StockQuantity = inv.AmountInStock
	if inv.SalePrice > 0 {
		listing.SalePrice = inv.SalePrice
	}
	// 库存接口的在售标记比目录状态更实时
	if listing.Status == model.ListingStatusActive && !inv.OnSale {
		listing.Status = model.ListingStatusPaused
	} else if listing.Status == model.ListingStatusPaused && inv.OnSale {
		listing.Status = model.ListingStatusActive
	}
	return nil
}

// writeSyncLog 持久化单账号运行日志（dry-run 跳过）
func (s *ListingSyncService) writeSyncLog(ctx context.Context, runID string, account *model.Account, opts SyncOptions, accStats AccountSyncStats) {
	if opts.DryRun {
		return
	}
	mode := "full"
	if opts.Quick {
		mode = "quick"
	}
	if opts.Force {
		mode = "force"
	}

	logEntry := &model.ListingSyncLog{
		RunID:         runID,
		AccountID:     account.ID,
		AccountName:   account.AccountName,
		Mode:          mode,
		TotalSeen:     accStats.TotalSeen,
		NewCount:      accStats.NewCount,
		UpdatedCount:  accStats.UpdatedCount,
		ISBNFound:     accStats.ISBNFound,
		ISBNMissing:   accStats.ISBNMissing,
		ISBNConflict:  accStats.ISBNConflict,
		DetailFetched: accStats.DetailDone,
		DetailFailed:  accStats.DetailFailed,
		SkippedFresh:  accStats.SkippedFresh,
		ErrorCount:    accStats.ErrorCount,
		DurationMs:    accStats.DurationMs,
		ErrorMsg:      accStats.ErrorMsg,
	}
	if err := s.syncLogRepo.Create(ctx, logEntry); err != nil {
		log.Printf("[ListingSync] 账号 %s 运行日志写入失败: %v", account.AccountName, err)
	}
}

// ==================== 状态映射 ====================

// MapListingStatus 将平台状态文案归一化为内部状态
// 未知文案归入 pending 并记录告警，避免静默丢数据
func MapListingStatus(label string) string {
	switch strings.TrimSpace(label) {
	case "판매중", "승인완료", "APPROVED", "APPROVE":
		return model.ListingStatusActive
	case "판매중지", "SUSPEND", "SUSPENDED":
		return model.ListingStatusPaused
	case "품절", "SOLDOUT", "SOLD_OUT":
		return model.ListingStatusSoldOut
	case "승인반려", "DENIED", "REJECT", "REJECTED":
		return model.ListingStatusRejected
	case "삭제", "DELETE", "DELETED":
		return model.ListingStatusDeleted
	case "승인대기", "REQUESTED", "IN_REVIEW", "":
		return model.ListingStatusPending
	default:
		log.Printf("[ListingSync] 未知商品状态文案: %q，按 pending 处理", label)
		return model.ListingStatusPending
	}
}

// ==================== ISBN 离线回填 ====================

// BackfillISBNStats 回填统计
type BackfillISBNStats struct {
	Scanned   int `json:"scanned"`
	Filled    int `json:"filled"`
	Conflicts int `json:"conflicts"`
	NoMatch   int `json:"no_match"`
}

// BackfillISBNFromRaw 用已留底的详情快照离线补登缺失 ISBN，不发起任何 API 调用
func (s *ListingSyncService) BackfillISBNFromRaw(ctx context.Context, accountID int64, limit int) (*BackfillISBNStats, error) {
	listings, err := s.listingRepo.ListWithRawJSON(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("加载待回填记录失败: %v", err)
	}

	stats := &BackfillISBNStats{}
	for i := range listings {
		listing := &listings[i]
		if listing.ISBN != "" {
			continue
		}
		stats.Scanned++

		var detail wing.ProductDetail
		if err := json.Unmarshal(listing.RawJSON, &detail); err != nil {
			stats.NoMatch++
			continue
		}
		isbn := ExtractISBN(detail.SellerProductName, detail.Items)
		if isbn == "" {
			stats.NoMatch++
			continue
		}

		// 同账号唯一校验：已有归属则放弃
		if owner, err := s.listingRepo.GetByISBN(ctx, listing.AccountID, isbn); err != nil {
			return nil, fmt.Errorf("ISBN 唯一校验失败: %v", err)
		} else if owner != nil && owner.ID != listing.ID {
			stats.Conflicts++
			continue
		}

		if err := s.listingRepo.UpdateFields(ctx, listing.ID, map[string]interface{}{"isbn": isbn}); err != nil {
			return nil, fmt.Errorf("ISBN 回填写入失败: %v", err)
		}
		stats.Filled++
	}

	log.Printf("[ISBNBackfill] 账号 %d 扫描=%d 补登=%d 冲突=%d 无法提取=%d",
		accountID, stats.Scanned, stats.Filled, stats.Conflicts, stats.NoMatch)
	return stats, nil
}
