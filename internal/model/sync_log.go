package model

// ListingSyncLog 同步运行日志（按账号 × 运行各一行）
// 只记录汇总计数，逐条明细看应用日志
type ListingSyncLog struct {
	BaseModel
	RunID       string `gorm:"size:36;index"` // 本次运行的 uuid
	AccountID   int64  `gorm:"index"`
	AccountName string `gorm:"size:50"`
	Mode        string `gorm:"size:20"` // full/quick/dry_run

	TotalSeen     int `gorm:"default:0"` // 目录扫描触达数
	NewCount      int `gorm:"default:0"`
	UpdatedCount  int `gorm:"default:0"`
	ISBNFound     int `gorm:"default:0"`
	ISBNMissing   int `gorm:"default:0"`
	ISBNConflict  int `gorm:"default:0"` // 次级唯一约束冲突被丢弃的候选数
	DetailFetched int `gorm:"default:0"`
	DetailFailed  int `gorm:"default:0"`
	SkippedFresh  int `gorm:"default:0"` // 新鲜度未过期被跳过的记录数
	ErrorCount    int `gorm:"default:0"`

	DurationMs int64  `gorm:"default:0"`
	ErrorMsg   string `gorm:"size:1024"` // 账号级中止原因（逐条错误不记这里）
}

func (ListingSyncLog) TableName() string {
	return "listing_sync_logs"
}
