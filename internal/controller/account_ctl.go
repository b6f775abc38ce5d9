package controller

import (
	"github.com/gin-gonic/gin"

	"wing_erp_v1_202608/internal/model"
	"wing_erp_v1_202608/internal/service"
)

// AccountController 账号控制器
type AccountController struct {
	accountSvc *service.AccountService
}

// NewAccountController 创建账号控制器
func NewAccountController(accountSvc *service.AccountService) *AccountController {
	return &AccountController{accountSvc: accountSvc}
}

// ==================== Handler 实现 ====================

// accountView 对外脱敏视图，凭证不出网
type accountView struct {
	ID          int64  `json:"id"`
	AccountName string `json:"account_name"`
	VendorID    string `json:"vendor_id"`
	Status      int    `json:"status"`
	APIEnabled  bool   `json:"api_enabled"`
}

func toAccountView(a *model.Account) accountView {
	return accountView{
		ID:          a.ID,
		AccountName: a.AccountName,
		VendorID:    a.VendorID,
		Status:      a.Status,
		APIEnabled:  a.APIEnabled,
	}
}

// GetAccounts 账号列表
// @Summary 账号列表（凭证脱敏）
// @Tags Account
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/accounts [get]
func (c *AccountController) GetAccounts(ctx *gin.Context) {
	accounts, err := c.accountSvc.ListAccounts(ctx.Request.Context())
	if err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	views := make([]accountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, toAccountView(&accounts[i]))
	}
	ctx.JSON(200, gin.H{"code": 200, "data": views})
}

// createAccountReq 新建账号请求体
type createAccountReq struct {
	AccountName string `json:"account_name" binding:"required"`
	VendorID    string `json:"vendor_id" binding:"required"`
	AccessKey   string `json:"access_key" binding:"required"`
	SecretKey   string `json:"secret_key" binding:"required"`
}

// CreateAccount 新建账号
// @Summary 新建卖家账号
// @Tags Account
// @Param body body createAccountReq true "账号凭证"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/accounts [post]
func (c *AccountController) CreateAccount(ctx *gin.Context) {
	var req createAccountReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	account := &model.Account{
		AccountName: req.AccountName,
		VendorID:    req.VendorID,
		AccessKey:   req.AccessKey,
		SecretKey:   req.SecretKey,
		Status:      model.AccountStatusActive,
		APIEnabled:  true,
	}
	if err := c.accountSvc.CreateAccount(ctx.Request.Context(), account); err != nil {
		ctx.JSON(500, gin.H{"code": 500, "message": err.Error()})
		return
	}

	ctx.JSON(200, gin.H{
		"code":    200,
		"message": "账号已创建",
		"data":    toAccountView(account),
	})
}
