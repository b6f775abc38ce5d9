package controller

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"wing_erp_v1_202608/internal/repository"
	"wing_erp_v1_202608/internal/service"
	"wing_erp_v1_202608/pkg/utils"
)

// ListingController 商品镜像控制器
type ListingController struct {
	listingRepo repository.ListingRepository
	syncSvc     *service.ListingSyncService
}

// NewListingController 创建商品镜像控制器
func NewListingController(listingRepo repository.ListingRepository, syncSvc *service.ListingSyncService) *ListingController {
	return &ListingController{listingRepo: listingRepo, syncSvc: syncSvc}
}

// ==================== Handler 实现 ====================

// GetListings 商品镜像分页查询
// @Summary 商品镜像分页查询
// @Tags Listing
// @Param account_id query int false "账号 ID"
// @Param status query string false "状态过滤 (pending/active/paused/sold_out/rejected/deleted)"
// @Param keyword query string false "商品名模糊搜索"
// @Param has_isbn query bool false "是否已有 ISBN"
// @Param page query int false "页码，默认 1"
// @Param page_size query int false "每页条数，默认 50"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/listings [get]
func (c *ListingController) GetListings(ctx *gin.Context) {
	filter := repository.ListingFilter{
		Status:  ctx.Query("status"),
		Keyword: ctx.Query("keyword"),
	}
	if v, err := strconv.ParseInt(ctx.Query("account_id"), 10, 64); err == nil {
		filter.AccountID = v
	}
	if s := ctx.Query("has_isbn"); s != "" {
		hasISBN := s == "true"
		filter.HasISBN = &hasISBN
	}
	filter.Page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(ctx.DefaultQuery("page_size", "50"))

	listings, total, err := c.listingRepo.List(ctx.Request.Context(), filter)
	if err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(200, gin.H{
		"code": 200,
		"data": gin.H{
			"total":     total,
			"page":      filter.Page,
			"page_size": filter.PageSize,
			"items":     listings,
		},
	})
}

// GetListing 查询单条商品镜像
// @Summary 查询单条商品镜像
// @Tags Listing
// @Param id path int true "记录 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/listings/{id} [get]
func (c *ListingController) GetListing(ctx *gin.Context) {
	id := parseID(ctx, "id")
	if id == 0 {
		return
	}

	listing, err := c.listingRepo.GetByID(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(404, gin.H{"code": 404, "message": "记录不存在"})
		return
	}

	ctx.JSON(200, gin.H{"code": 200, "data": listing})
}

// GetStats 账号商品状态统计
// @Summary 按状态统计账号商品数
// @Tags Listing
// @Param account_id query int true "账号 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/listings/stats [get]
func (c *ListingController) GetStats(ctx *gin.Context) {
	accountID, err := strconv.ParseInt(ctx.Query("account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		ctx.JSON(400, gin.H{"code": 400, "message": "无效的账号 ID"})
		return
	}

	// 统计走全表聚合，加 1 分钟缓存挡住轮询
	cacheKey := "listing_stats_" + strconv.FormatInt(accountID, 10)
	if cached, ok := utils.GetCache(cacheKey); ok {
		ctx.JSON(200, gin.H{"code": 200, "data": cached, "cached": true})
		return
	}

	counts, err := c.listingRepo.CountByAccountAndStatus(ctx.Request.Context(), accountID)
	if err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	utils.SetCache(cacheKey, counts, time.Minute)

	ctx.JSON(200, gin.H{"code": 200, "data": counts})
}

// BackfillISBN 离线 ISBN 回填
// @Summary 用已留底的详情快照补登缺失 ISBN（不调用外部 API）
// @Tags Listing
// @Param account_id query int false "账号 ID，0 为全部"
// @Param limit query int false "处理条数上限"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/listings/backfill-isbn [post]
func (c *ListingController) BackfillISBN(ctx *gin.Context) {
	accountID, _ := strconv.ParseInt(ctx.Query("account_id"), 10, 64)
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	stats, err := c.syncSvc.BackfillISBNFromRaw(ctx.Request.Context(), accountID, limit)
	if err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(200, gin.H{
		"code":    200,
		"message": "ISBN 回填完成",
		"data":    stats,
	})
}
