package constants

// 订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusCompleted      = "completed"
	OrderStatusExpired        = "expired"
)

// 用户角色常量
const (
	UserRoleBuyer     = "buyer"
	UserRoleCreator   = "creator"
	UserRoleAffiliate = "affiliate"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 站点币种（当前不支持多币种）
const SiteCurrency = "JPY"

// 队列与任务常量
const (
	QueueDefault    = "default"
	TaskOrderExpire = "order:expire"
)

// 设置键常量
const (
	SettingKeySiteConfig       = "site_config"
	SettingKeyOrderConfig      = "order_config"
	SettingKeyCommissionConfig = "commission_config"
)

// 设置字段常量
const (
	SettingFieldPaymentExpireHours = "payment_expire_hours"
	SettingFieldCommissionRate     = "commission_rate"
)
