package wing

// ==========================================
// DTO: 用于接收 쿠팡 WING API 返回的原始 JSON 数据
// ==========================================

// ProductListPage 商品目录单页响应
// GET /v2/providers/seller_api/apis/api/v1/marketplace/seller-products
type ProductListPage struct {
	Code      string           `json:"code"`
	Message   string           `json:"message"`
	NextToken string           `json:"nextToken"`
	Data      []ProductSummary `json:"data"`
}

// ProductSummary 目录扫描返回的轻量商品记录
// 注意：目录接口的 items 字段不保证完整，ISBN 只能机会性提取
type ProductSummary struct {
	SellerProductID     int64         `json:"sellerProductId"`
	SellerProductName   string        `json:"sellerProductName"`
	StatusName          string        `json:"statusName"` // 판매중/판매중지/품절 等韩文标签
	Status              string        `json:"status"`     // 部分响应用英文枚举 (APPROVE/SUSPEND...)
	Brand               string        `json:"brand"`
	DisplayCategoryCode int64         `json:"displayCategoryCode"`
	Items               []ProductItem `json:"items"`
}

// StatusLabel 优先取韩文标签，缺失时回退英文枚举
func (p *ProductSummary) StatusLabel() string {
	if p.StatusName != "" {
		return p.StatusName
	}
	return p.Status
}

// ProductDetailResp 商品单件详情响应外层
type ProductDetailResp struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Data    ProductDetail `json:"data"`
}

// ProductDetail 商品详情（含完整 items 与属性列表）
type ProductDetail struct {
	SellerProductID     int64         `json:"sellerProductId"`
	SellerProductName   string        `json:"sellerProductName"`
	StatusName          string        `json:"statusName"`
	Status              string        `json:"status"`
	Brand               string        `json:"brand"`
	DisplayCategoryCode int64         `json:"displayCategoryCode"`
	DeliveryChargeType  string        `json:"deliveryChargeType"` // FREE/NOT_FREE/CONDITIONAL_FREE
	DeliveryCharge      int64         `json:"deliveryCharge"`
	FreeShipOverAmount  int64         `json:"freeShipOverAmount"`
	ReturnCharge        int64         `json:"returnCharge"`
	Items               []ProductItem `json:"items"`
}

// StatusLabel 优先取韩文标签，缺失时回退英文枚举
func (p *ProductDetail) StatusLabel() string {
	if p.StatusName != "" {
		return p.StatusName
	}
	return p.Status
}

// ProductItem 商品 item（쿠팡 的子 SKU 单位）
// vendorItemId 是后续改价/改库存调用的必要标识
type ProductItem struct {
	ItemID            int64           `json:"itemId"`
	VendorItemID      int64           `json:"vendorItemId"`
	VendorItemName    string          `json:"vendorItemName"`
	SalePrice         int64           `json:"salePrice"`
	OriginalPrice     int64           `json:"originalPrice"`
	SupplyPrice       int64           `json:"supplyPrice"`
	MaximumBuyCount   int             `json:"maximumBuyCount"`
	Barcode           string          `json:"barcode"`
	ExternalVendorSku string          `json:"externalVendorSku"`
	SearchTags        []string        `json:"searchTags"`
	Winner            *bool           `json:"winner"` // Buy-Box 标志，可能缺失
	Attributes        []ItemAttribute `json:"attributes"`
}

// ItemAttribute item 结构化属性（ISBN 在此以 attributeTypeName="ISBN" 出现）
type ItemAttribute struct {
	AttributeTypeName  string `json:"attributeTypeName"`
	AttributeValueName string `json:"attributeValueName"`
}

// ItemInventoryResp 아이템별 수량/가격/상태 조회 응답
type ItemInventoryResp struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Data    ItemInventory `json:"data"`
}

// ItemInventory item 实时库存/在售状态
type ItemInventory struct {
	VendorItemID  int64 `json:"vendorItemId"`
	AmountInStock int   `json:"amountInStock"`
	SalePrice     int64 `json:"salePrice"`
	OnSale        bool  `json:"onSale"`
}
