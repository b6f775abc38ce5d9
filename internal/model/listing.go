package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Listing 状态枚举（쿠팡 侧状态映射为固定集合）
const (
	ListingStatusPending  = "pending"  // 승인대기 / 未识别标签的安全默认
	ListingStatusActive   = "active"   // 판매중 / 승인완료
	ListingStatusPaused   = "paused"   // 판매중지
	ListingStatusSoldOut  = "sold_out" // 품절
	ListingStatusRejected = "rejected" // 승인반려
	ListingStatusDeleted  = "deleted"  // 삭제（본 서비스는 행을 지우지 않고 상태만 전이）
)

// Listing 账号维度的 쿠팡 商品镜像（API → DB 同步）
//
// 身份约束：
//   - (account_id, seller_product_id) 为主匹配键
//   - (account_id, isbn) 为次级唯一约束，写入前由 ListingStore 统一仲裁，
//     避免同一实体商品产生重复行
type Listing struct {
	BaseModel
	AccountID int64    `gorm:"index:idx_listing_account_status;uniqueIndex:uix_account_spid;not null"`
	Account   *Account `gorm:"foreignKey:AccountID"`

	// --- 쿠팡 核心身份 ---
	SellerProductID int64 `gorm:"uniqueIndex:uix_account_spid;not null"` // sellerProductId
	VendorItemID    int64 `gorm:"index;default:0"`                       // items[0].vendorItemId，改价/改库存必需
	ItemID          int64 `gorm:"default:0"`                             // items[0].itemId

	// --- 商品基本信息 ---
	ProductName string `gorm:"size:500"`
	Status      string `gorm:"size:20;default:'pending';index:idx_listing_account_status"`
	Brand       string `gorm:"size:200"`

	// --- 价格与库存 ---
	SalePrice     int64 `gorm:"default:0"` // salePrice (판매가)
	OriginalPrice int64 `gorm:"default:0"` // originalPrice (정가)
	SupplyPrice   int64 `gorm:"default:0"` // supplyPrice (공급가)
	StockQuantity int   `gorm:"default:0"` // amountInStock
	MaxBuyCount   int   `gorm:"default:0"` // maximumBuyCount (库存上限)

	// --- 配送 ---
	DeliveryChargeType string `gorm:"size:20"` // FREE/NOT_FREE/CONDITIONAL_FREE
	DeliveryCharge     int64  `gorm:"default:0"`
	ReturnCharge       int64  `gorm:"default:0"`

	// --- 分类 ---
	DisplayCategoryCode string `gorm:"size:20;index"`

	// --- ISBN（API 提取；一经写入不再覆盖，避免冲掉人工修正值） ---
	ISBN    string         `gorm:"size:20;index:idx_listing_isbn"`
	ISBNSet pq.StringArray `gorm:"type:text[]"` // 세트 商品的全部有效 ISBN

	// --- 搜索标签（详情 payload 提取） ---
	SearchTags pq.StringArray `gorm:"type:text[]"`

	// --- Buy-Box (아이템 위너) ---
	WinnerStatus    string     `gorm:"size:20"` // winner/not_winner，字段缺失时为空
	WinnerCheckedAt *time.Time

	// --- 同步元数据 ---
	RawJSON        datatypes.JSON `gorm:"type:jsonb"` // 最近一次详情响应快照
	LastCheckedAt  *time.Time     `gorm:"index"`      // Stage-1 每次触达都刷新
	DetailSyncedAt *time.Time     `gorm:"index"`      // 仅详情拉取成功时刷新；为空表示从未详情同步
}

func (Listing) TableName() string {
	return "listings"
}

// NeverSynced 是否从未完成过详情同步
func (l *Listing) NeverSynced() bool {
	return l.DetailSyncedAt == nil
}

// DetailStale 详情数据是否超过阈值未刷新
func (l *Listing) DetailStale(now time.Time, threshold time.Duration) bool {
	if l.DetailSyncedAt == nil {
		return true
	}
	return now.Sub(*l.DetailSyncedAt) > threshold
}
