package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wing_erp_v1_202608/internal/model"
	"wing_erp_v1_202608/internal/repository"
)

func setupAccountSvc(t *testing.T) (*AccountService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "连接测试数据库失败")
	require.NoError(t, db.AutoMigrate(&model.Account{}), "数据库迁移失败")

	return NewAccountService(repository.NewAccountRepository(db)), db
}

func TestAccountService_CreateDuplicateRejected(t *testing.T) {
	svc, _ := setupAccountSvc(t)
	ctx := context.Background()

	account := &model.Account{AccountName: "bookstore-main", VendorID: "A1", AccessKey: "k", SecretKey: "s"}
	require.NoError(t, svc.CreateAccount(ctx, account))
	assert.Equal(t, model.AccountStatusActive, account.Status, "默认应为激活状态")

	dup := &model.Account{AccountName: "bookstore-main", VendorID: "A2", AccessKey: "k", SecretKey: "s"}
	assert.Error(t, svc.CreateAccount(ctx, dup), "重名账号应被拒绝")
}

func TestAccountService_CreateEmptyNameRejected(t *testing.T) {
	svc, _ := setupAccountSvc(t)

	err := svc.CreateAccount(context.Background(), &model.Account{VendorID: "A1"})
	assert.Error(t, err)
}

func TestAccountService_PopulateFromEnv(t *testing.T) {
	svc, db := setupAccountSvc(t)
	ctx := context.Background()

	t.Setenv("COUPANG_ACCOUNTS", "bookstore-main, bookstore-sub, incomplete")
	t.Setenv("COUPANG_BOOKSTORE_MAIN_VENDOR_ID", "A00012345")
	t.Setenv("COUPANG_BOOKSTORE_MAIN_ACCESS_KEY", "ak-main")
	t.Setenv("COUPANG_BOOKSTORE_MAIN_SECRET_KEY", "sk-main")
	t.Setenv("COUPANG_BOOKSTORE_SUB_VENDOR_ID", "A00067890")
	t.Setenv("COUPANG_BOOKSTORE_SUB_ACCESS_KEY", "ak-sub")
	t.Setenv("COUPANG_BOOKSTORE_SUB_SECRET_KEY", "sk-sub")
	// incomplete 故意缺 SECRET_KEY
	t.Setenv("COUPANG_INCOMPLETE_VENDOR_ID", "A00099999")
	t.Setenv("COUPANG_INCOMPLETE_ACCESS_KEY", "ak-x")

	require.NoError(t, svc.PopulateFromEnv(ctx))

	var count int64
	db.Model(&model.Account{}).Count(&count)
	assert.EqualValues(t, 2, count, "凭证不全的账号应跳过")

	var main model.Account
	require.NoError(t, db.Where("account_name = ?", "bookstore-main").First(&main).Error)
	assert.Equal(t, "A00012345", main.VendorID)
	assert.True(t, main.APIEnabled)

	// 二次执行刷新凭证而不是重复建
	t.Setenv("COUPANG_BOOKSTORE_MAIN_ACCESS_KEY", "ak-rotated")
	require.NoError(t, svc.PopulateFromEnv(ctx))

	db.Model(&model.Account{}).Count(&count)
	assert.EqualValues(t, 2, count)

	require.NoError(t, db.Where("account_name = ?", "bookstore-main").First(&main).Error)
	assert.Equal(t, "ak-rotated", main.AccessKey, "凭证应刷新")
}
