package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wing_erp_v1_202608/internal/model"
	"wing_erp_v1_202608/internal/repository"
	"wing_erp_v1_202608/internal/service"
	"wing_erp_v1_202608/internal/task"
	"wing_erp_v1_202608/pkg/wing"
)

// stubWingAPI 固定返回一页商品
type stubWingAPI struct{}

func (stubWingAPI) ListProductsPage(ctx context.Context, nextToken string, maxPerPage int) (*wing.ProductListPage, error) {
	return &wing.ProductListPage{
		Code: "SUCCESS",
		Data: []wing.ProductSummary{
			{SellerProductID: 1001, SellerProductName: "채식주의자", StatusName: "판매중"},
		},
	}, nil
}

func (stubWingAPI) GetProduct(ctx context.Context, sellerProductID int64) (*wing.ProductDetail, error) {
	return &wing.ProductDetail{
		SellerProductID:   sellerProductID,
		SellerProductName: "채식주의자",
		StatusName:        "판매중",
	}, nil
}

func (stubWingAPI) GetItemInventory(ctx context.Context, vendorItemID int64) (*wing.ItemInventory, error) {
	return &wing.ItemInventory{VendorItemID: vendorItemID, OnSale: true}, nil
}

func setupSyncCtlTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.Account{}, &model.Listing{}, &model.ListingSyncLog{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	if err := db.Create(&model.Account{
		AccountName: "bookstore-main",
		VendorID:    "A00012345",
		AccessKey:   "ak", SecretKey: "sk",
		Status:     model.AccountStatusActive,
		APIEnabled: true,
	}).Error; err != nil {
		t.Fatalf("预置账号失败: %v", err)
	}

	syncLogRepo := repository.NewSyncLogRepository(db)
	syncSvc := service.NewListingSyncService(
		repository.NewAccountRepository(db),
		repository.NewListingRepository(db),
		syncLogRepo,
		func(account *model.Account) service.MarketAPI { return stubWingAPI{} },
		service.DefaultSyncConfig(),
	)
	ctl := NewSyncController(task.NewSyncTask(syncSvc), syncLogRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	sync := r.Group("/api/v1/sync")
	{
		sync.POST("/listings", ctl.SyncListings)
		sync.POST("/listings/:name", ctl.SyncAccountListings)
		sync.GET("/runs", ctl.ListRuns)
		sync.GET("/status", ctl.SyncStatus)
	}
	return r, db
}

func TestSyncCtl_TriggerSync(t *testing.T) {
	r, db := setupSyncCtlTest(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/sync/listings?quick=true", nil)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Code int `json:"code"`
		Data struct {
			RunID     string `json:"run_id"`
			TotalSeen int    `json:"total_seen"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if body.Data.RunID == "" {
		t.Error("应返回 run_id")
	}
	if body.Data.TotalSeen != 1 {
		t.Errorf("TotalSeen = %d, want 1", body.Data.TotalSeen)
	}

	var count int64
	db.Model(&model.Listing{}).Count(&count)
	if count != 1 {
		t.Errorf("落库记录数 = %d, want 1", count)
	}
}

func TestSyncCtl_UnknownAccount(t *testing.T) {
	r, _ := setupSyncCtlTest(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/sync/listings/no-such-account", nil)
	r.ServeHTTP(w, req)

	if w.Code != 500 {
		t.Errorf("status=%d, want 500（账号不存在）", w.Code)
	}
}

func TestSyncCtl_ListRuns(t *testing.T) {
	r, _ := setupSyncCtlTest(t)

	// 先跑一次攒日志
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/sync/listings?quick=true", nil)
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("同步失败: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/v1/sync/runs", nil)
	r.ServeHTTP(w, req)

	var body struct {
		Code int                    `json:"code"`
		Data []model.ListingSyncLog `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if len(body.Data) != 1 {
		t.Fatalf("运行日志条数 = %d, want 1", len(body.Data))
	}
	if body.Data[0].Mode != "quick" {
		t.Errorf("Mode = %q, want quick", body.Data[0].Mode)
	}
}

func TestSyncCtl_Status(t *testing.T) {
	r, _ := setupSyncCtlTest(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/sync/status", nil)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status=%d", w.Code)
	}
	var body struct {
		Data struct {
			Running bool `json:"running"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if body.Data.Running {
		t.Error("空闲时 running 应为 false")
	}
}
