package controller

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"wing_erp_v1_202608/internal/repository"
	"wing_erp_v1_202608/internal/service"
	"wing_erp_v1_202608/internal/task"
)

// SyncController 同步控制器
type SyncController struct {
	syncTask    *task.SyncTask
	syncLogRepo repository.SyncLogRepository
}

// NewSyncController 创建同步控制器
func NewSyncController(syncTask *task.SyncTask, syncLogRepo repository.SyncLogRepository) *SyncController {
	return &SyncController{syncTask: syncTask, syncLogRepo: syncLogRepo}
}

// ==================== Handler 实现 ====================

// SyncListings 触发全账号同步
// @Summary 手动触发全账号 Listing 同步
// @Tags Sync
// @Param quick query bool false "只扫目录，跳过详情刷新"
// @Param force query bool false "忽略过期判断，全量刷新详情"
// @Param dry_run query bool false "试运行，不产生任何写入"
// @Param max_pages query int false "目录扫描页数上限"
// @Param stale_hours query int false "过期阈值（小时），覆盖默认配置"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "已有同步在执行"
// @Router /api/v1/sync/listings [post]
func (c *SyncController) SyncListings(ctx *gin.Context) {
	opts := parseSyncOptions(ctx)

	stats, err := c.syncTask.TriggerSync(ctx.Request.Context(), opts)
	if err != nil {
		if err == task.ErrSyncBusy {
			ctx.JSON(409, gin.H{"code": 409, "message": err.Error()})
			return
		}
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(200, gin.H{
		"code":    200,
		"message": "同步完成",
		"data":    stats,
	})
}

// SyncAccountListings 触发单账号同步
// @Summary 手动触发指定账号的 Listing 同步
// @Tags Sync
// @Param name path string true "账号名"
// @Param quick query bool false "只扫目录，跳过详情刷新"
// @Param force query bool false "忽略过期判断，全量刷新详情"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "已有同步在执行"
// @Router /api/v1/sync/listings/{name} [post]
func (c *SyncController) SyncAccountListings(ctx *gin.Context) {
	name := strings.TrimSpace(ctx.Param("name"))
	if name == "" {
		ctx.JSON(400, gin.H{"code": 400, "message": "无效的账号名"})
		return
	}

	opts := parseSyncOptions(ctx)
	opts.AccountNames = []string{name}

	stats, err := c.syncTask.TriggerSync(ctx.Request.Context(), opts)
	if err != nil {
		if err == task.ErrSyncBusy {
			ctx.JSON(409, gin.H{"code": 409, "message": err.Error()})
			return
		}
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(200, gin.H{
		"code":    200,
		"message": "账号 " + name + " 同步完成",
		"data":    stats,
	})
}

// ListRuns 查询最近的同步运行日志
// @Summary 查询最近的同步运行日志
// @Tags Sync
// @Param limit query int false "返回条数，默认 50"
// @Param run_id query string false "按运行 ID 过滤"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sync/runs [get]
func (c *SyncController) ListRuns(ctx *gin.Context) {
	if runID := ctx.Query("run_id"); runID != "" {
		logs, err := c.syncLogRepo.ListByRunID(ctx.Request.Context(), runID)
		if err != nil {
			ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
			return
		}
		ctx.JSON(200, gin.H{"code": 200, "data": logs})
		return
	}

	limit, _ := strconv.Atoi(ctx.Query("limit"))
	logs, err := c.syncLogRepo.ListRecent(ctx.Request.Context(), limit)
	if err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}
	ctx.JSON(200, gin.H{"code": 200, "data": logs})
}

// SyncStatus 查询同步执行状态
// @Summary 查询当前是否有同步在执行
// @Tags Sync
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sync/status [get]
func (c *SyncController) SyncStatus(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"code": 200,
		"data": gin.H{"running": c.syncTask.IsRunning()},
	})
}

func parseSyncOptions(ctx *gin.Context) service.SyncOptions {
	opts := service.SyncOptions{
		Quick:  ctx.Query("quick") == "true",
		Force:  ctx.Query("force") == "true",
		DryRun: ctx.Query("dry_run") == "true",
	}
	if v, err := strconv.Atoi(ctx.Query("max_pages")); err == nil && v > 0 {
		opts.MaxPages = v
	}
	if v, err := strconv.Atoi(ctx.Query("stale_hours")); err == nil && v > 0 {
		opts.StaleHours = v
	}
	return opts
}

// ==================== 工具函数 ====================

func parseID(ctx *gin.Context, key string) int64 {
	idStr := ctx.Param(key)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(400, gin.H{"code": 400, "message": "无效的 ID"})
		return 0
	}
	return id
}
