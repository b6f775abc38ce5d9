package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/gorm"

	"wing_erp_v1_202608/internal/model"
	"wing_erp_v1_202608/internal/repository"
)

// ==================== 账号服务 ====================

// AccountService 卖家账号管理
type AccountService struct {
	accountRepo repository.AccountRepository
}

// NewAccountService 创建账号服务
func NewAccountService(accountRepo repository.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// CreateAccount 新建账号，账号名重复时报错
func (s *AccountService) CreateAccount(ctx context.Context, account *model.Account) error {
	if account.AccountName == "" {
		return fmt.Errorf("账号名不能为空")
	}
	existing, err := s.accountRepo.GetByName(ctx, account.AccountName)
	if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("账号查重失败: %v", err)
	}
	if existing != nil {
		return fmt.Errorf("账号 %s 已存在", account.AccountName)
	}
	if account.Status == 0 {
		account.Status = model.AccountStatusActive
	}
	return s.accountRepo.Create(ctx, account)
}

// GetAccount 按 ID 查账号
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// ListAccounts 全部账号
func (s *AccountService) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return s.accountRepo.List(ctx)
}

// UpdateAccount 更新账号配置
func (s *AccountService) UpdateAccount(ctx context.Context, account *model.Account) error {
	return s.accountRepo.Update(ctx, account)
}

// PopulateFromEnv 启动时从环境变量注册账号凭证
//
// 约定：COUPANG_ACCOUNTS=name1,name2 列出账号名，每个账号再读
// COUPANG_<NAME>_VENDOR_ID / COUPANG_<NAME>_ACCESS_KEY / COUPANG_<NAME>_SECRET_KEY
// （NAME 大写，连字符换下划线）。已存在的账号刷新凭证，不存在的新建
func (s *AccountService) PopulateFromEnv(ctx context.Context) error {
	names := strings.Split(os.Getenv("COUPANG_ACCOUNTS"), ",")
	registered := 0

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		envKey := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		vendorID := os.Getenv("COUPANG_" + envKey + "_VENDOR_ID")
		accessKey := os.Getenv("COUPANG_" + envKey + "_ACCESS_KEY")
		secretKey := os.Getenv("COUPANG_" + envKey + "_SECRET_KEY")
		if vendorID == "" || accessKey == "" || secretKey == "" {
			log.Printf("[AccountInit] 账号 %s 凭证不完整，跳过", name)
			continue
		}

		existing, err := s.accountRepo.GetByName(ctx, name)
		if err != nil && err != gorm.ErrRecordNotFound {
			return fmt.Errorf("账号 %s 查询失败: %v", name, err)
		}

		if existing != nil {
			existing.VendorID = vendorID
			existing.AccessKey = accessKey
			existing.SecretKey = secretKey
			existing.APIEnabled = true
			if err := s.accountRepo.Update(ctx, existing); err != nil {
				return fmt.Errorf("账号 %s 凭证刷新失败: %v", name, err)
			}
		} else {
			account := &model.Account{
				AccountName: name,
				VendorID:    vendorID,
				AccessKey:   accessKey,
				SecretKey:   secretKey,
				Status:      model.AccountStatusActive,
				APIEnabled:  true,
			}
			if err := s.accountRepo.Create(ctx, account); err != nil {
				return fmt.Errorf("账号 %s 注册失败: %v", name, err)
			}
		}
		registered++
	}

	log.Printf("[AccountInit] 环境变量注册账号完成，共 %d 个", registered)
	return nil
}
