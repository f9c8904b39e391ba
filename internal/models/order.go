package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 金额在下单时按商品价格加税计算一次，之后不随商品价格变动重算。
// affiliate_id 仅在创建时归因一次，终态订单不可变更。
type Order struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                                        // 主键
	OrderNo     string         `gorm:"uniqueIndex;not null" json:"order_no"`                                        // 订单编号
	BuyerID     uint           `gorm:"not null;index;index:idx_orders_buyer_product,priority:1" json:"buyer_id"`    // 买家用户ID
	ProductID   uint           `gorm:"not null;index;index:idx_orders_buyer_product,priority:2" json:"product_id"` // 商品ID
	ProductName string         `gorm:"type:varchar(255);not null" json:"product_name"`                              // 商品名称快照
	CreatorID   uint           `gorm:"not null;index" json:"creator_id"`                                            // 创作者用户ID
	AffiliateID *uint          `gorm:"index" json:"affiliate_id,omitempty"`                                         // 推广用户ID（佣金归因用二级索引）
	Amount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                         // 含税金额
	Status      string         `gorm:"index;not null;index:idx_orders_buyer_product,priority:3" json:"status"`      // 订单状态
	ExpiresAt   *time.Time     `gorm:"index" json:"expires_at"`                                                     // 支付截止时间
	PaidAt      *time.Time     `gorm:"index" json:"paid_at"`                                                        // 支付确认时间
	ExpiredAt   *time.Time     `json:"expired_at"`                                                                  // 过期落库时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                                     // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                                  // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                              // 软删除时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
