package router

import (
	"github.com/gin-gonic/gin"

	"wing_erp_v1_202608/internal/controller"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Sync    *controller.SyncController
	Listing *controller.ListingController
	Account *controller.AccountController
}

// SetupRouter 构建 gin 引擎并注册所有路由
func SetupRouter(ctls *Controllers) *gin.Engine {
	r := gin.Default()
	InitRoutes(r, ctls)
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctls *Controllers) {
	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// API 路由组
	api := r.Group("/api/v1")
	{
		// sync 同步触发与运行日志
		sync := api.Group("/sync")
		{
			// POST /api/v1/sync/listings
			sync.POST("/listings", ctls.Sync.SyncListings)
			// POST /api/v1/sync/listings/:name
			sync.POST("/listings/:name", ctls.Sync.SyncAccountListings)
			// GET /api/v1/sync/runs
			sync.GET("/runs", ctls.Sync.ListRuns)
			// GET /api/v1/sync/status
			sync.GET("/status", ctls.Sync.SyncStatus)
		}

		// listing 商品镜像查询
		listings := api.Group("/listings")
		{
			listings.GET("", ctls.Listing.GetListings)
			listings.GET("/stats", ctls.Listing.GetStats)
			listings.POST("/backfill-isbn", ctls.Listing.BackfillISBN)
			listings.GET("/:id", ctls.Listing.GetListing)
		}

		// account 账号管理
		accounts := api.Group("/accounts")
		{
			accounts.GET("", ctls.Account.GetAccounts)
			accounts.POST("", ctls.Account.CreateAccount)
		}
	}
}
