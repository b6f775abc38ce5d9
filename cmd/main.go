package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wing_erp_v1_202608/internal/controller"
	"wing_erp_v1_202608/internal/model"
	"wing_erp_v1_202608/internal/repository"
	"wing_erp_v1_202608/internal/router"
	"wing_erp_v1_202608/internal/service"
	"wing_erp_v1_202608/internal/task"
	"wing_erp_v1_202608/pkg/database"
	"wing_erp_v1_202608/pkg/wing"
)

func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 环境变量注册账号凭证
	if err := deps.Services.Account.PopulateFromEnv(context.Background()); err != nil {
		log.Printf("警告: 账号凭证注册失败: %v", err)
	}

	// 4. 启动定时任务
	initTasks(deps)

	// 5. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 6. 启动服务
	startServer(r, deps)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	SyncTask    *task.SyncTask
}

// Repositories 仓库集合
type Repositories struct {
	Account repository.AccountRepository
	Listing repository.ListingRepository
	SyncLog repository.SyncLogRepository
}

// Services 服务集合
type Services struct {
	Account *service.AccountService
	Sync    *service.ListingSyncService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN",
		"host=localhost user=wing_admin password=1234 dbname=wing_erp port=5432 sslmode=disable")
	verbose := getEnv("DB_LOG_SQL", "false") == "true"

	return database.InitDB(dsn, verbose,
		// Account
		&model.Account{},
		// Listing
		&model.Listing{},
		// Log
		&model.ListingSyncLog{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Account: repository.NewAccountRepository(db),
		Listing: repository.NewListingRepository(db),
		SyncLog: repository.NewSyncLogRepository(db),
	}

	// -------- 业务服务 --------
	syncConfig := loadSyncConfig()
	clientFactory := func(account *model.Account) service.MarketAPI {
		return wing.NewClient(account.VendorID, account.AccessKey, account.SecretKey)
	}

	services := &Services{
		Account: service.NewAccountService(repos.Account),
		Sync: service.NewListingSyncService(
			repos.Account, repos.Listing, repos.SyncLog,
			clientFactory, syncConfig,
		),
	}

	// -------- 定时任务 --------
	syncTask := task.NewSyncTask(services.Sync)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Sync:    controller.NewSyncController(syncTask, repos.SyncLog),
		Listing: controller.NewListingController(repos.Listing, services.Sync),
		Account: controller.NewAccountController(services.Account),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		SyncTask:    syncTask,
	}
}

// loadSyncConfig 从环境变量装配同步配置
func loadSyncConfig() service.SyncConfig {
	config := service.DefaultSyncConfig()
	config.PageSize = getEnvInt("SYNC_PAGE_SIZE", config.PageSize)
	config.FlushEvery = getEnvInt("SYNC_FLUSH_EVERY", config.FlushEvery)
	config.StaleHours = getEnvInt("SYNC_STALE_HOURS", config.StaleHours)
	config.InventoryStrict = getEnv("SYNC_INVENTORY_STRICT", "false") == "true"
	return config
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	if getEnv("SYNC_CRON_ENABLED", "true") != "true" {
		log.Println("定时同步已禁用（SYNC_CRON_ENABLED=false）")
		return
	}
	if err := deps.SyncTask.Start(); err != nil {
		log.Fatalf("定时任务启动失败: %v", err)
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, deps *Dependencies) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")
	deps.SyncTask.Stop()

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
