package models

import "time"

// AffiliateClick 推广链接访问记录
// 仅用于推广数据统计，下单归因只依赖会话内的归因令牌。
type AffiliateClick struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                       // 主键
	AffiliateID uint      `gorm:"not null;index" json:"affiliate_id"`                         // 推广用户ID
	SessionKey  string    `gorm:"type:varchar(128);index" json:"session_key"`                 // 会话标识
	LandingPath string    `gorm:"type:varchar(512)" json:"landing_path"`                      // 落地页面路径
	ClientIP    string    `gorm:"type:varchar(64)" json:"client_ip"`                          // 客户端IP
	UserAgent   string    `gorm:"type:varchar(1024)" json:"user_agent"`                       // 客户端UA
	CreatedAt   time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 创建时间
}

// TableName 指定表名
func (AffiliateClick) TableName() string {
	return "affiliate_clicks"
}
