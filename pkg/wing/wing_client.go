package wing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 쿠팡 WING Open API 클라이언트 ====================

const (
	// BaseURL WING API 网关地址
	BaseURL = "https://api-gateway.coupang.com"

	sellerProductsPath = "/v2/providers/seller_api/apis/api/v1/marketplace/seller-products"
	vendorItemsPath    = "/v2/providers/seller_api/apis/api/v1/marketplace/vendor-items"

	// rateLimitInterval 10 calls/sec → 请求间最小 0.1 秒间隔
	rateLimitInterval = 100 * time.Millisecond
)

// Client WING API 客户端
// 职责：HMAC-SHA256 签名、限速、单次请求与错误分类
// 注意：本层不做重试，重试策略由 RetryGuard 统一负责
type Client struct {
	vendorID  string
	accessKey string
	secretKey string

	http *resty.Client

	mu            sync.Mutex
	lastRequestAt time.Time
}

// NewClient 创建 WING 客户端
func NewClient(vendorID, accessKey, secretKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(BaseURL).
		SetTimeout(30 * time.Second). // 详情接口较慢，给 30s
		SetHeader("Content-Type", "application/json;charset=UTF-8").
		SetHeader("X-EXTENDED-TIMEOUT", "90000")

	return &Client{
		vendorID:  vendorID,
		accessKey: accessKey,
		secretKey: secretKey,
		http:      httpClient,
	}
}

// VendorID 所属卖家编号
func (c *Client) VendorID() string { return c.vendorID }

// SetBaseURL 覆盖网关地址（测试用）
func (c *Client) SetBaseURL(u string) *Client {
	c.http.SetBaseURL(u)
	return c
}

// ==================== 签名与限速 ====================

// sign 生成 HMAC-SHA256 签名
// 签名对象: {datetime}{method}{path}{query}，datetime 格式 yyMMddTHHmmssZ (UTC)
func (c *Client) sign(method, path, query string) string {
	dt := time.Now().UTC().Format("060102T150405Z")
	message := dt + method + path + query

	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(message))
	signature := hex.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf(
		"CEA algorithm=HmacSHA256, access-key=%s, signed-date=%s, signature=%s",
		c.accessKey, dt, signature,
	)
}

// throttle 限速：请求间保持最小间隔
func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastRequestAt)
	if elapsed < rateLimitInterval {
		time.Sleep(rateLimitInterval - elapsed)
	}
	c.lastRequestAt = time.Now()
}

// ==================== 公共请求 ====================

// envelope 쿠팡 API 在 HTTP 200 下也可能返回业务错误
type envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// doRequest 单次 API 请求（不重试），错误按类别归类
// query 必须由调用方按固定顺序拼好——签名使用原始顺序
func (c *Client) doRequest(ctx context.Context, method, path, query string, body, out interface{}) error {
	c.throttle()

	url := path
	if query != "" {
		url = path + "?" + query
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.sign(method, path, query))
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		// 连接失败/超时统一归为网络错误
		return &WingError{Kind: ErrKindNetwork, Code: "NETWORK_ERROR", Message: err.Error()}
	}

	status := resp.StatusCode()
	switch {
	case status == 429:
		return &WingError{Kind: ErrKindRateLimited, Code: "RATE_LIMITED", Message: resp.String(), StatusCode: status}
	case status >= 500:
		return &WingError{Kind: ErrKindNetwork, Code: strconv.Itoa(status), Message: resp.String(), StatusCode: status}
	case status != 200:
		code, message := parseErrorBody(resp.Body(), status)
		return &WingError{Kind: ErrKindRemote, Code: code, Message: message, StatusCode: status}
	}

	// HTTP 200 内嵌业务错误检查
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err == nil && env.Code == "ERROR" {
		return &WingError{Kind: ErrKindRemote, Code: "API_ERROR", Message: env.Message, StatusCode: status}
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return &WingError{Kind: ErrKindRemote, Code: "BAD_RESPONSE", Message: err.Error(), StatusCode: status}
		}
	}
	return nil
}

// parseErrorBody 解析错误响应体 {code, message}
func parseErrorBody(body []byte, status int) (string, string) {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Code != "" {
		return env.Code, env.Message
	}
	return strconv.Itoa(status), string(body)
}

// ==================== 상품 관리 ====================

// ListProductsPage 商品目录单页查询 (nextToken 分页)
// nextToken 为空表示第一页；响应的 NextToken 为空表示已到末页
func (c *Client) ListProductsPage(ctx context.Context, nextToken string, maxPerPage int) (*ProductListPage, error) {
	query := "vendorId=" + c.vendorID + "&maxPerPage=" + strconv.Itoa(maxPerPage)
	if nextToken != "" {
		query += "&nextToken=" + nextToken
	}

	var page ProductListPage
	if err := c.doRequest(ctx, "GET", sellerProductsPath, query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct 商品单件详情查询
func (c *Client) GetProduct(ctx context.Context, sellerProductID int64) (*ProductDetail, error) {
	path := fmt.Sprintf("%s/%d", sellerProductsPath, sellerProductID)

	var resp ProductDetailResp
	if err := c.doRequest(ctx, "GET", path, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ==================== 재고/가격 관리 ====================

// GetItemInventory 아이템별 수량/가격/판매상태 조회
func (c *Client) GetItemInventory(ctx context.Context, vendorItemID int64) (*ItemInventory, error) {
	path := fmt.Sprintf("%s/%d/inventories", vendorItemsPath, vendorItemID)

	var resp ItemInventoryResp
	if err := c.doRequest(ctx, "GET", path, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdatePrice 옵션별 가격 변경 (10원 단위)
// force=true 解除涨跌幅限制（默认受 -50%/+100% 约束）
func (c *Client) UpdatePrice(ctx context.Context, vendorItemID, newPrice int64, force bool) error {
	path := fmt.Sprintf("%s/%d/prices/%d", vendorItemsPath, vendorItemID, newPrice)
	query := ""
	if force {
		query = "forceSalePriceUpdate=true"
	}
	return c.doRequest(ctx, "PUT", path, query, nil, nil)
}

// UpdateQuantity 옵션별 재고 변경
func (c *Client) UpdateQuantity(ctx context.Context, vendorItemID int64, quantity int) error {
	path := fmt.Sprintf("%s/%d/quantities/%d", vendorItemsPath, vendorItemID, quantity)
	return c.doRequest(ctx, "PUT", path, "", nil, nil)
}

// ==================== 연결 테스트 ====================

// TestConnection API 连通性测试（目录查 1 条确认凭证有效）
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.ListProductsPage(ctx, "", 1)
	if err != nil {
		log.Printf("[WingClient] 连接测试失败 vendor_id=%s: %v", c.vendorID, err)
		return false
	}
	return true
}
