package repository

import (
	"strings"
	"time"

	"github.com/creatorhub/internal/models"

	"gorm.io/gorm"
)

// AffiliateClickRepository 推广点击数据访问接口
type AffiliateClickRepository interface {
	Create(click *models.AffiliateClick) error
	HasRecentClick(affiliateID uint, sessionKey, landingPath string, since time.Time) (bool, error)
	CountByAffiliate(affiliateID uint) (int64, error)
}

// GormAffiliateClickRepository GORM 实现
type GormAffiliateClickRepository struct {
	db *gorm.DB
}

// NewAffiliateClickRepository 创建推广点击仓库
func NewAffiliateClickRepository(db *gorm.DB) *GormAffiliateClickRepository {
	return &GormAffiliateClickRepository{db: db}
}

// Create 创建推广点击记录
func (r *GormAffiliateClickRepository) Create(click *models.AffiliateClick) error {
	if click == nil {
		return nil
	}
	return r.db.Create(click).Error
}

// HasRecentClick 查询是否存在近期重复点击记录，用于点击去重
func (r *GormAffiliateClickRepository) HasRecentClick(affiliateID uint, sessionKey, landingPath string, since time.Time) (bool, error) {
	if affiliateID == 0 || strings.TrimSpace(sessionKey) == "" {
		return false, nil
	}
	query := r.db.Model(&models.AffiliateClick{}).
		Where("affiliate_id = ? AND session_key = ? AND created_at >= ?",
			affiliateID,
			strings.TrimSpace(sessionKey),
			since,
		)
	if path := strings.TrimSpace(landingPath); path != "" {
		query = query.Where("landing_path = ?", path)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

// CountByAffiliate 统计推广点击数
func (r *GormAffiliateClickRepository) CountByAffiliate(affiliateID uint) (int64, error) {
	if affiliateID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.AffiliateClick{}).Where("affiliate_id = ?", affiliateID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
