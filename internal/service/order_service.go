package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/logger"
	"github.com/creatorhub/internal/models"
	"github.com/creatorhub/internal/queue"
	"github.com/creatorhub/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 平台统一消费税率，下单时计入订单金额
var orderTaxRate = decimal.NewFromFloat(0.08)

// allowedTransitions 订单状态机，pending_payment 是唯一的非终态
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPendingPayment: {
		constants.OrderStatusCompleted: true,
		constants.OrderStatusExpired:   true,
	},
}

// OrderExpireEnqueuer 订单过期任务入队能力，*queue.Client 实现
type OrderExpireEnqueuer interface {
	Enabled() bool
	EnqueueOrderExpire(payload queue.OrderExpirePayload, delay time.Duration) error
}

// OrderService 订单服务
type OrderService struct {
	orderRepo        repository.OrderRepository
	productRepo      repository.ProductRepository
	userRepo         repository.UserRepository
	attributionStore AttributionStore
	queueClient      OrderExpireEnqueuer
	settingService   *SettingService
	expireHours      int
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, userRepo repository.UserRepository, attributionStore AttributionStore, queueClient OrderExpireEnqueuer, settingService *SettingService, expireHours int) *OrderService {
	return &OrderService{
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		userRepo:         userRepo,
		attributionStore: attributionStore,
		queueClient:      queueClient,
		settingService:   settingService,
		expireHours:      expireHours,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	BuyerID    uint
	ProductID  uint
	SessionKey string
	ClientIP   string
}

// CreateOrder 创建订单。
// 金额 = 商品价格 ×（1 + 税率），只在此处计算一次。
// 推广归因在创建时一次性消费，买家即推广人时静默丢弃。
// 同买家同商品已有未终结订单时直接返回旧订单，不再建新单。
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return nil, ErrQueueUnavailable
	}
	if input.BuyerID == 0 || input.ProductID == 0 {
		return nil, ErrNotFound
	}

	buyer, err := s.userRepo.GetByID(input.BuyerID)
	if err != nil {
		return nil, err
	}
	if buyer == nil {
		return nil, ErrNotFound
	}
	if buyer.Status != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}

	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotAvailable
	}
	if !product.PriceAmount.Decimal.GreaterThan(decimal.Zero) {
		return nil, ErrProductPriceInvalid
	}

	now := time.Now()

	// 幂等预检：已有未到期的待支付订单直接按成功返回。
	// 已过截止时间的旧单不算在内，买家可以立即重新下单。
	existing, err := s.orderRepo.GetActiveByBuyerAndProduct(input.BuyerID, input.ProductID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	affiliateID := s.consumeAttribution(ctx, input.SessionKey, input.BuyerID)

	amount := product.PriceAmount.Decimal.Mul(orderTaxRate.Add(decimal.NewFromInt(1))).Round(2)
	expireHours := s.resolveExpireHours()
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)

	order := &models.Order{
		OrderNo:     generateOrderNo(),
		BuyerID:     input.BuyerID,
		ProductID:   product.ID,
		ProductName: product.Name,
		CreatorID:   product.CreatorID,
		AffiliateID: affiliateID,
		Amount:      models.NewMoneyFromDecimal(amount),
		Status:      constants.OrderStatusPendingPayment,
		ExpiresAt:   &expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var reused *models.Order
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		// 事务内复查，挡住并发双写
		active, err := orderRepo.GetActiveByBuyerAndProduct(input.BuyerID, input.ProductID, now)
		if err != nil {
			return err
		}
		if active != nil {
			reused = active
			return nil
		}
		return orderRepo.Create(order)
	})
	if err != nil {
		logger.Errorw("order_create_failed",
			"buyer_id", input.BuyerID,
			"product_id", input.ProductID,
			"error", err,
		)
		return nil, ErrOrderCreateFailed
	}
	if reused != nil {
		return reused, nil
	}

	if err := s.queueClient.EnqueueOrderExpire(queue.OrderExpirePayload{
		OrderID: order.ID,
	}, time.Duration(expireHours)*time.Hour); err != nil {
		logger.Errorw("order_enqueue_expire_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"error", err,
		)
		// 没有过期任务兜底的订单不能放出去，直接置为过期
		if rollbackErr := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusExpired, map[string]interface{}{
			"expired_at": now,
			"updated_at": now,
		}); rollbackErr != nil {
			logger.Errorw("order_enqueue_rollback_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", rollbackErr,
			)
		}
		return nil, ErrQueueUnavailable
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"buyer_id", order.BuyerID,
		"product_id", order.ProductID,
		"amount", order.Amount.String(),
		"attributed", order.AffiliateID != nil,
	)
	return order, nil
}

// consumeAttribution 一次性消费会话归因，返回订单应绑定的推广人。
// 消费失败不阻断下单，只是放弃本单归因。
func (s *OrderService) consumeAttribution(ctx context.Context, sessionKey string, buyerID uint) *uint {
	if s.attributionStore == nil || strings.TrimSpace(sessionKey) == "" {
		return nil
	}
	affiliateID, hit, err := s.attributionStore.Consume(ctx, sessionKey)
	if err != nil {
		logger.Warnw("order_attribution_consume_failed",
			"session_key", sessionKey,
			"error", err,
		)
		return nil
	}
	if !hit || affiliateID == 0 {
		return nil
	}
	if affiliateID == buyerID {
		// 自推自买：令牌照常消费，归因静默丢弃
		logger.Debugw("order_self_referral_dropped",
			"buyer_id", buyerID,
		)
		return nil
	}
	return &affiliateID
}

// MarkPaid 确认订单支付，pending_payment -> completed。
// 截止时间已过的订单即使 worker 未落库也拒绝支付。
func (s *OrderService) MarkPaid(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}

	now := time.Now()
	if EffectiveStatus(order, now) == constants.OrderStatusExpired {
		return nil, ErrPaymentWindowExpired
	}
	if !canTransition(order.Status, constants.OrderStatusCompleted) {
		return nil, ErrOrderStatusInvalid
	}

	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusCompleted, map[string]interface{}{
		"paid_at":    now,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	order.Status = constants.OrderStatusCompleted
	order.PaidAt = &now
	order.UpdatedAt = now

	logger.Infow("order_marked_paid",
		"order_id", order.ID,
		"order_no", order.OrderNo,
	)
	return order, nil
}

// ExpireOrder 过期任务落地执行。
// 任务到点后重新校验，已支付或未到期的订单不动。
func (s *OrderService) ExpireOrder(orderID uint, now time.Time) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return nil
	}
	if order.ExpiresAt != nil && now.Before(*order.ExpiresAt) {
		return nil
	}
	if !canTransition(order.Status, constants.OrderStatusExpired) {
		return nil
	}

	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusExpired, map[string]interface{}{
		"expired_at": now,
		"updated_at": now,
	}); err != nil {
		return err
	}
	logger.Infow("order_expired",
		"order_id", order.ID,
		"order_no", order.OrderNo,
	)
	return nil
}

// ExpireOverdueOrders 兜底巡检：把漏掉过期任务的到期订单批量置为过期。
// 返回本轮实际处理的订单数。
func (s *OrderService) ExpireOverdueOrders(now time.Time, limit int) (int, error) {
	ids, err := s.orderRepo.ListOverduePendingIDs(now, limit)
	if err != nil {
		return 0, err
	}
	handled := 0
	for _, id := range ids {
		if err := s.ExpireOrder(id, now); err != nil {
			logger.Warnw("order_expire_sweep_failed", "order_id", id, "error", err)
			continue
		}
		handled++
	}
	return handled, nil
}

// GetByID 获取订单
func (s *OrderService) GetByID(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// GetForBuyer 获取买家自己的订单
func (s *OrderService) GetForBuyer(orderID, buyerID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndBuyer(orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// ListForBuyer 买家订单列表
func (s *OrderService) ListForBuyer(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByBuyer(filter)
}

// ListForAdmin 管理端订单列表
func (s *OrderService) ListForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

func canTransition(from, to string) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// resolveExpireHours 支付窗口时长：settings 覆盖配置，配置覆盖默认值
func (s *OrderService) resolveExpireHours() int {
	fallback := s.expireHours
	if fallback <= 0 {
		fallback = DefaultPaymentWindowHours
	}
	if s.settingService == nil {
		return fallback
	}
	hours, err := s.settingService.GetOrderPaymentExpireHours(fallback)
	if err != nil {
		logger.Warnw("order_expire_hours_setting_failed", "error", err)
		return fallback
	}
	return hours
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("CH%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
