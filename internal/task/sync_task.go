package task

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"wing_erp_v1_202608/internal/service"
)

// ==================== 定时同步任务 ====================

// ErrSyncBusy 已有同步在执行，拒绝并发触发
var ErrSyncBusy = errors.New("同步任务执行中，请稍后再试")

// SyncTask Listing 同步定时调度
//
// 调度策略：
//   - 每 30 分钟跑一次快速同步（只扫目录，捕捉状态/价格变动）
//   - 每天凌晨 3 点跑一次完整同步（含过期详情刷新）
//
// 同一时刻只允许一个同步运行，定时触发与手动触发共用互斥标记
type SyncTask struct {
	syncSvc *service.ListingSyncService
	cron    *cron.Cron
	running atomic.Bool
}

// NewSyncTask 创建同步任务
func NewSyncTask(syncSvc *service.ListingSyncService) *SyncTask {
	return &SyncTask{
		syncSvc: syncSvc,
		cron:    cron.New(cron.WithSeconds()),
	}
}

// Start 注册调度并启动
func (t *SyncTask) Start() error {
	// 快速同步：每 30 分钟
	if _, err := t.cron.AddFunc("0 */30 * * * *", func() {
		t.runScheduled("快速同步", service.SyncOptions{Quick: true})
	}); err != nil {
		return err
	}

	// 完整同步：每天 03:00
	if _, err := t.cron.AddFunc("0 0 3 * * *", func() {
		t.runScheduled("完整同步", service.SyncOptions{})
	}); err != nil {
		return err
	}

	t.cron.Start()
	log.Println("[SyncTask] 定时任务已启动（快速: 每30分钟 / 完整: 每天03:00）")

	// 启动后延迟跑一次快速同步，尽快让镜像追上远端
	go func() {
		time.Sleep(30 * time.Second)
		t.runScheduled("启动首跑", service.SyncOptions{Quick: true})
	}()
	return nil
}

// Stop 停止调度，等在跑的任务自然结束
func (t *SyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[SyncTask] 定时任务已停止")
}

// TriggerSync 手动触发同步（API 入口），正在执行时返回 ErrSyncBusy
func (t *SyncTask) TriggerSync(ctx context.Context, opts service.SyncOptions) (*service.SyncRunStats, error) {
	if !t.running.CompareAndSwap(false, true) {
		return nil, ErrSyncBusy
	}
	defer t.running.Store(false)

	return t.syncSvc.RunSync(ctx, opts)
}

// IsRunning 当前是否有同步在执行
func (t *SyncTask) IsRunning() bool {
	return t.running.Load()
}

func (t *SyncTask) runScheduled(name string, opts service.SyncOptions) {
	if !t.running.CompareAndSwap(false, true) {
		log.Printf("[SyncTask] %s 跳过：已有同步在执行", name)
		return
	}
	defer t.running.Store(false)

	log.Printf("[SyncTask] %s 开始", name)
	stats, err := t.syncSvc.RunSync(context.Background(), opts)
	if err != nil {
		log.Printf("[SyncTask] %s 失败: %v", name, err)
		return
	}
	log.Printf("[SyncTask] %s 完成 run_id=%s 扫描=%d 新建=%d 详情=%d 错误=%d",
		name, stats.RunID, stats.TotalSeen, stats.NewCount, stats.DetailDone, stats.ErrorCount)
}
