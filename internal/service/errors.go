package service

import "errors"

// 业务错误定义，handler 层据此映射状态码与提示信息
var (
	ErrNotFound             = errors.New("记录不存在")
	ErrInvalidCredentials   = errors.New("用户名或密码错误")
	ErrInvalidPassword      = errors.New("密码错误")
	ErrUserDisabled         = errors.New("账号已被禁用")
	ErrEmailExists          = errors.New("邮箱已被注册")
	ErrProductNotAvailable  = errors.New("商品不可购买")
	ErrProductPriceInvalid  = errors.New("商品价格无效")
	ErrOrderCreateFailed    = errors.New("订单创建失败")
	ErrOrderStatusInvalid   = errors.New("订单状态不允许该操作")
	ErrQueueUnavailable     = errors.New("异步队列不可用")
	ErrAffiliateInvalid     = errors.New("推广人无效")
	ErrCommissionRateRange  = errors.New("佣金比例必须在 0-1 之间")
	ErrSettingInvalid       = errors.New("设置内容无效")
	ErrPaymentWindowExpired = errors.New("订单已超过支付期限")
)
