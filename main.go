package main

import (
	"context"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"wing_erp_v1_202608/pkg/wing"
)

// 1. 定义与数据库表对应的结构体
type SellerAccount struct {
	ID          int64
	AccountName string
	VendorID    string
	AccessKey   string
	SecretKey   string
	Status      int
}

func (SellerAccount) TableName() string { return "accounts" }

func main() {
	fmt.Println(">>> 开始执行全链路测试...")

	// ------------------------------------------------
	// 2. 连接数据库
	// ------------------------------------------------
	dsn := "host=localhost user=wing_admin password=1234 dbname=wing_erp port=5432 sslmode=disable"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ 数据库连接失败: %v", err)
	}
	fmt.Println("✅ 数据库连接成功！")

	// ------------------------------------------------
	// 3. 从数据库读取第一个激活账号
	// ------------------------------------------------
	var account SellerAccount
	result := db.Where("status = ?", 1).First(&account)
	if result.Error != nil {
		log.Fatalf("❌ 未找到激活账号，请检查 accounts 表是否已插入数据: %v", result.Error)
	}
	fmt.Printf("✅ 读取账号成功: [Name: %s] [VendorID: %s] [Key长度: %d]\n",
		account.AccountName, account.VendorID, len(account.AccessKey))

	// ------------------------------------------------
	// 4. 发起 WING API 请求（拉第一页商品）
	// ------------------------------------------------
	client := wing.NewClient(account.VendorID, account.AccessKey, account.SecretKey)

	fmt.Println(">>> 正在向 Coupang WING 发起商品列表请求...")
	page, err := client.ListProductsPage(context.Background(), "", 1)

	// ------------------------------------------------
	// 5. 结果验证
	// ------------------------------------------------
	if err != nil {
		if wing.IsRateLimited(err) {
			fmt.Println("⚠️ 连接通了，但被限流了（429），稍后再试。")
			return
		}
		log.Fatalf("❌ 请求失败 (可能是 HMAC 凭证错误): %v", err)
	}

	fmt.Println("🎉🎉🎉 测试成功！全链路已打通！")
	fmt.Printf("WING 响应: code=%s 商品数=%d nextToken=%q\n", page.Code, len(page.Data), page.NextToken)
	if len(page.Data) > 0 {
		fmt.Printf("首个商品: [%d] %s (%s)\n",
			page.Data[0].SellerProductID, page.Data[0].SellerProductName, page.Data[0].StatusLabel())
	}
}
