package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wing_erp_v1_202608/internal/model"
)

func setupListingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.Listing{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func TestListingRepo_CreateAndGet(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	listing := &model.Listing{
		AccountID:       1,
		SellerProductID: 1001,
		ProductName:     "채식주의자",
		Status:          model.ListingStatusActive,
		SalePrice:       13500,
		ISBN:            "9788936434120",
	}
	if err := repo.Create(ctx, listing); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if listing.ID == 0 {
		t.Fatal("Create 后应有主键")
	}

	got, err := repo.GetBySellerProductID(ctx, 1, 1001)
	if err != nil {
		t.Fatalf("GetBySellerProductID 失败: %v", err)
	}
	if got.ProductName != "채식주의자" {
		t.Errorf("ProductName = %q", got.ProductName)
	}

	// 账号不匹配时查不到
	if _, err := repo.GetBySellerProductID(ctx, 2, 1001); err == nil {
		t.Error("跨账号查询应返回错误")
	}
}

func TestListingRepo_GetByISBN(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, &model.Listing{
		AccountID: 1, SellerProductID: 1001,
		ProductName: "소년이 온다", Status: model.ListingStatusActive,
		ISBN: "9788936434120",
	}); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	got, err := repo.GetByISBN(ctx, 1, "9788936434120")
	if err != nil {
		t.Fatalf("GetByISBN 失败: %v", err)
	}
	if got == nil || got.SellerProductID != 1001 {
		t.Errorf("GetByISBN 命中错误: %+v", got)
	}

	// 未命中返回 nil 不报错
	missing, err := repo.GetByISBN(ctx, 1, "9791158741396")
	if err != nil {
		t.Fatalf("GetByISBN 未命中不应报错: %v", err)
	}
	if missing != nil {
		t.Errorf("未命中应返回 nil: %+v", missing)
	}
}

func TestListingRepo_BatchUpsert(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	batch := []model.Listing{
		{AccountID: 1, SellerProductID: 1001, ProductName: "흰", Status: model.ListingStatusActive, SalePrice: 12000},
		{AccountID: 1, SellerProductID: 1002, ProductName: "작별", Status: model.ListingStatusActive, SalePrice: 15000},
	}
	if err := repo.BatchUpsert(ctx, batch); err != nil {
		t.Fatalf("BatchUpsert 失败: %v", err)
	}

	// 同键重写：应更新而不是新增
	update := []model.Listing{
		{AccountID: 1, SellerProductID: 1001, ProductName: "흰 (개정판)", Status: model.ListingStatusSoldOut, SalePrice: 12500},
	}
	if err := repo.BatchUpsert(ctx, update); err != nil {
		t.Fatalf("BatchUpsert 更新失败: %v", err)
	}

	var count int64
	db.Model(&model.Listing{}).Count(&count)
	if count != 2 {
		t.Errorf("记录数 = %d, want 2（冲突应走更新）", count)
	}

	got, err := repo.GetBySellerProductID(ctx, 1, 1001)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if got.ProductName != "흰 (개정판)" {
		t.Errorf("ProductName = %q, want 흰 (개정판)", got.ProductName)
	}
	if got.Status != model.ListingStatusSoldOut {
		t.Errorf("Status = %q, want sold_out", got.Status)
	}

	// 不同账号同商品 id 是两条独立记录
	other := []model.Listing{
		{AccountID: 2, SellerProductID: 1001, ProductName: "흰", Status: model.ListingStatusActive},
	}
	if err := repo.BatchUpsert(ctx, other); err != nil {
		t.Fatalf("BatchUpsert 失败: %v", err)
	}
	db.Model(&model.Listing{}).Count(&count)
	if count != 3 {
		t.Errorf("记录数 = %d, want 3（账号隔离）", count)
	}
}

func TestListingRepo_ListFilters(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	seed := []model.Listing{
		{AccountID: 1, SellerProductID: 1001, ProductName: "채식주의자", Status: model.ListingStatusActive, ISBN: "9788936434120"},
		{AccountID: 1, SellerProductID: 1002, ProductName: "소년이 온다", Status: model.ListingStatusSoldOut},
		{AccountID: 2, SellerProductID: 1003, ProductName: "흰", Status: model.ListingStatusActive},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("预置失败: %v", err)
		}
	}

	// 按账号过滤
	got, total, err := repo.List(ctx, ListingFilter{AccountID: 1})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Errorf("账号过滤 total=%d len=%d, want 2/2", total, len(got))
	}

	// 按状态过滤
	_, total, err = repo.List(ctx, ListingFilter{Status: model.ListingStatusActive})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 2 {
		t.Errorf("状态过滤 total=%d, want 2", total)
	}

	// 关键词模糊
	_, total, err = repo.List(ctx, ListingFilter{Keyword: "소년"})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 {
		t.Errorf("关键词过滤 total=%d, want 1", total)
	}

	// 有无 ISBN
	hasISBN := true
	_, total, err = repo.List(ctx, ListingFilter{HasISBN: &hasISBN})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 {
		t.Errorf("有 ISBN 过滤 total=%d, want 1", total)
	}

	hasISBN = false
	_, total, err = repo.List(ctx, ListingFilter{HasISBN: &hasISBN})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 2 {
		t.Errorf("无 ISBN 过滤 total=%d, want 2", total)
	}
}

func TestListingRepo_ListWithRawJSON(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	withRaw := &model.Listing{
		AccountID: 1, SellerProductID: 1001, ProductName: "상품",
		Status: model.ListingStatusActive, RawJSON: datatypes.JSON(`{"sellerProductId":1001}`),
	}
	withoutRaw := &model.Listing{
		AccountID: 1, SellerProductID: 1002, ProductName: "상품",
		Status: model.ListingStatusActive,
	}
	if err := repo.Create(ctx, withRaw); err != nil {
		t.Fatalf("预置失败: %v", err)
	}
	if err := repo.Create(ctx, withoutRaw); err != nil {
		t.Fatalf("预置失败: %v", err)
	}

	got, err := repo.ListWithRawJSON(ctx, 1, 0)
	if err != nil {
		t.Fatalf("ListWithRawJSON 失败: %v", err)
	}
	if len(got) != 1 || got[0].SellerProductID != 1001 {
		t.Errorf("应只返回有快照的记录: %+v", got)
	}
}

func TestListingRepo_CountByAccountAndStatus(t *testing.T) {
	db := setupListingTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	seed := []model.Listing{
		{AccountID: 1, SellerProductID: 1001, Status: model.ListingStatusActive},
		{AccountID: 1, SellerProductID: 1002, Status: model.ListingStatusActive},
		{AccountID: 1, SellerProductID: 1003, Status: model.ListingStatusSoldOut},
		{AccountID: 2, SellerProductID: 1004, Status: model.ListingStatusActive},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("预置失败: %v", err)
		}
	}

	counts, err := repo.CountByAccountAndStatus(ctx, 1)
	if err != nil {
		t.Fatalf("CountByAccountAndStatus 失败: %v", err)
	}
	if counts[model.ListingStatusActive] != 2 {
		t.Errorf("active = %d, want 2", counts[model.ListingStatusActive])
	}
	if counts[model.ListingStatusSoldOut] != 1 {
		t.Errorf("sold_out = %d, want 1", counts[model.ListingStatusSoldOut])
	}
}

func TestListingModel_Staleness(t *testing.T) {
	now := time.Now()
	old := now.Add(-25 * time.Hour)
	fresh := now.Add(-1 * time.Hour)

	never := &model.Listing{}
	if !never.NeverSynced() {
		t.Error("无 detail_synced_at 应视为从未同步")
	}

	stale := &model.Listing{DetailSyncedAt: &old}
	if !stale.DetailStale(now, 24*time.Hour) {
		t.Error("25 小时前同步过的应判过期")
	}

	recent := &model.Listing{DetailSyncedAt: &fresh}
	if recent.DetailStale(now, 24*time.Hour) {
		t.Error("1 小时前同步过的不应判过期")
	}
}
