package repository

import (
	"errors"
	"time"

	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AffiliateSalesAggregate 推广订单汇总结果
type AffiliateSalesAggregate struct {
	OrderCount  int64
	TotalAmount decimal.Decimal
}

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormOrderRepository

	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByIDAndBuyer(id uint, buyerID uint) (*models.Order, error)
	GetActiveByBuyerAndProduct(buyerID, productID uint, now time.Time) (*models.Order, error)
	ListByBuyer(filter OrderListFilter) ([]models.Order, int64, error)
	ListOverduePendingIDs(now time.Time, limit int) ([]uint, error)
	ListByAffiliate(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	AggregateByAffiliate(affiliateID uint) (AffiliateSalesAggregate, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	if orderNo == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndBuyer 获取买家订单详情
func (r *GormOrderRepository) GetByIDAndBuyer(id uint, buyerID uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("id = ? AND buyer_id = ?", id, buyerID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetActiveByBuyerAndProduct 查询买家在同一商品上的未终结订单。
// 走 (buyer_id, product_id, status) 组合索引，用于重复下单的幂等判定。
// 截止时间已过但 worker 尚未落库的待支付订单按已终结处理，不计入结果。
func (r *GormOrderRepository) GetActiveByBuyerAndProduct(buyerID, productID uint, now time.Time) (*models.Order, error) {
	if buyerID == 0 || productID == 0 {
		return nil, nil
	}
	var order models.Order
	err := r.db.
		Where("buyer_id = ? AND product_id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)",
			buyerID, productID, constants.OrderStatusPendingPayment, now).
		Order("id desc").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByBuyer 获取买家订单列表
func (r *GormOrderRepository) ListByBuyer(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("buyer_id = ?", filter.BuyerID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+filter.OrderNo+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListOverduePendingIDs 查询已过截止时间仍处于待支付的订单 ID，供兜底巡检使用
func (r *GormOrderRepository) ListOverduePendingIDs(now time.Time, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []uint
	err := r.db.Model(&models.Order{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			constants.OrderStatusPendingPayment, now).
		Order("id asc").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByAffiliate 获取归因到指定推广人的订单列表。
// affiliate_id 带单列索引，推广订单量大时不会退化为全表扫描。
func (r *GormOrderRepository) ListByAffiliate(filter OrderListFilter) ([]models.Order, int64, error) {
	if filter.AffiliateID == 0 {
		return []models.Order{}, 0, nil
	}
	query := r.db.Model(&models.Order{}).Where("affiliate_id = ?", filter.AffiliateID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})

	if filter.BuyerID != 0 {
		query = query.Where("buyer_id = ?", filter.BuyerID)
	}
	if filter.AffiliateID != 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// AggregateByAffiliate 汇总推广人名下全部归因订单的数量与销售额
func (r *GormOrderRepository) AggregateByAffiliate(affiliateID uint) (AffiliateSalesAggregate, error) {
	aggregate := AffiliateSalesAggregate{TotalAmount: decimal.Zero}
	if affiliateID == 0 {
		return aggregate, nil
	}

	var row struct {
		Total       int64           `gorm:"column:total"`
		TotalAmount decimal.Decimal `gorm:"column:total_amount"`
	}
	err := r.db.Model(&models.Order{}).
		Select("COUNT(*) AS total, COALESCE(SUM(amount), 0) AS total_amount").
		Where("affiliate_id = ?", affiliateID).
		Scan(&row).Error
	if err != nil {
		return aggregate, err
	}
	aggregate.OrderCount = row.Total
	aggregate.TotalAmount = row.TotalAmount.Round(2)
	return aggregate, nil
}

// UpdateStatus 更新订单状态
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}
