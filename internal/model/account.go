package model

// Account 状态常量
// 停用必须用非零值：零值会被 gorm 的 default 标签吞掉，写不进库
const (
	AccountStatusActive   = 1 // 正常
	AccountStatusInactive = 2 // 已停用
)

// Account 쿠팡 卖家账号（WING API 凭证持有方）
// 一个账号对应 쿠팡 侧一个 vendor，多账号之间商品镜像完全隔离
type Account struct {
	BaseModel
	AccountName string `gorm:"size:50;uniqueIndex;not null"` // 内部账号名 (如 007-bm)
	VendorID    string `gorm:"size:20;index"`                // 쿠팡 벤더 ID (A 开头)
	AccessKey   string `gorm:"size:100"`                     // WING API access key
	SecretKey   string `gorm:"size:100"`                     // WING API secret key

	Status     int  `gorm:"default:1;index"` // 1-正常 2-停用
	APIEnabled bool `gorm:"default:false"`   // WING API 凭证是否就绪

	// 发货/退货基础设施编码（建品时使用，同步只读）
	OutboundShippingCode string `gorm:"size:50"`
	ReturnCenterCode     string `gorm:"size:50"`

	Listings []Listing `gorm:"foreignKey:AccountID"`
}

func (Account) TableName() string {
	return "accounts"
}

// HasWingAPI 凭证三件套是否齐全
func (a *Account) HasWingAPI() bool {
	return a.VendorID != "" && a.AccessKey != "" && a.SecretKey != ""
}
