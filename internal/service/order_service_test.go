package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/models"

	"github.com/shopspring/decimal"
)

func TestCreateOrderComputesTaxedAmountOnce(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	order, err := env.orderService.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID:   buyer.ID,
		ProductID: product.ID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if !order.Amount.Decimal.Equal(decimal.NewFromInt(108000)) {
		t.Fatalf("amount want 108000 got %s", order.Amount.String())
	}
	if order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("status want pending_payment got %s", order.Status)
	}
	if order.ExpiresAt == nil {
		t.Fatalf("expires_at should be set")
	}
	window := order.ExpiresAt.Sub(order.CreatedAt)
	if window != 24*time.Hour {
		t.Fatalf("payment window want 24h got %s", window)
	}
	if len(env.enqueuer.payloads) != 1 || env.enqueuer.payloads[0].OrderID != order.ID {
		t.Fatalf("expected one expire task for order %d, got %+v", order.ID, env.enqueuer.payloads)
	}
	if env.enqueuer.delays[0] != 24*time.Hour {
		t.Fatalf("expire delay want 24h got %s", env.enqueuer.delays[0])
	}

	// 之后调价不影响已建订单
	product.PriceAmount.Decimal = decimal.NewFromInt(999999)
	if err := env.db.Save(product).Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}
	stored, err := env.orderRepo.GetByID(order.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if !stored.Amount.Decimal.Equal(decimal.NewFromInt(108000)) {
		t.Fatalf("stored amount changed after price update: %s", stored.Amount.String())
	}
}

func TestCreateOrderConsumesAttributionOnce(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	affiliate := activeUser(t, env.db, "affiliate@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	productA := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)
	productB := createServiceTestProduct(t, env.db, creator.ID, "course-b", 50000, true)

	ctx := context.Background()
	sessionKey := "sess-1"
	if err := env.store.Capture(ctx, sessionKey, affiliate.ID); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	first, err := env.orderService.CreateOrder(ctx, CreateOrderInput{
		BuyerID:    buyer.ID,
		ProductID:  productA.ID,
		SessionKey: sessionKey,
	})
	if err != nil {
		t.Fatalf("create first order failed: %v", err)
	}
	if first.AffiliateID == nil || *first.AffiliateID != affiliate.ID {
		t.Fatalf("first order should be attributed to %d, got %+v", affiliate.ID, first.AffiliateID)
	}

	// 令牌一次性消费，同会话第二单不再归因
	second, err := env.orderService.CreateOrder(ctx, CreateOrderInput{
		BuyerID:    buyer.ID,
		ProductID:  productB.ID,
		SessionKey: sessionKey,
	})
	if err != nil {
		t.Fatalf("create second order failed: %v", err)
	}
	if second.AffiliateID != nil {
		t.Fatalf("second order should not be attributed, got %d", *second.AffiliateID)
	}
}

func TestCreateOrderDropsSelfReferralSilently(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	ctx := context.Background()
	sessionKey := "sess-self"
	if err := env.store.Capture(ctx, sessionKey, buyer.ID); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	order, err := env.orderService.CreateOrder(ctx, CreateOrderInput{
		BuyerID:    buyer.ID,
		ProductID:  product.ID,
		SessionKey: sessionKey,
	})
	if err != nil {
		t.Fatalf("self referral must not fail order creation: %v", err)
	}
	if order.AffiliateID != nil {
		t.Fatalf("self referral should leave order unattributed, got %d", *order.AffiliateID)
	}
	// 令牌照常被消费
	if _, hit, _ := env.store.Peek(ctx, sessionKey); hit {
		t.Fatalf("attribution token should be consumed")
	}
}

func TestCreateOrderIdempotentForActiveOrder(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	ctx := context.Background()
	first, err := env.orderService.CreateOrder(ctx, CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	second, err := env.orderService.CreateOrder(ctx, CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("duplicate create should succeed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("duplicate create should return existing order %d, got %d", first.ID, second.ID)
	}
	if len(env.enqueuer.payloads) != 1 {
		t.Fatalf("duplicate create must not enqueue again, got %d tasks", len(env.enqueuer.payloads))
	}

	// 旧订单终结后允许重新下单
	if _, err := env.orderService.MarkPaid(first.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	third, err := env.orderService.CreateOrder(ctx, CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("create after completion failed: %v", err)
	}
	if third.ID == first.ID {
		t.Fatalf("expected a fresh order after previous one completed")
	}
}

func TestCreateOrderOverduePendingDoesNotBlock(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	ctx := context.Background()
	first, err := env.orderService.CreateOrder(ctx, CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 模拟 worker 未落库：截止时间已过，状态仍是待支付
	past := time.Now().Add(-time.Minute)
	if err := env.db.Model(&models.Order{}).Where("id = ?", first.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate expires_at failed: %v", err)
	}

	second, err := env.orderService.CreateOrder(ctx, CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("create after overdue order failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("overdue pending order must not be reused, got order %d again", first.ID)
	}
	if EffectiveStatus(second, time.Now()) != constants.OrderStatusPendingPayment {
		t.Fatalf("fresh order should be payable, got %s", EffectiveStatus(second, time.Now()))
	}
	if len(env.enqueuer.payloads) != 2 {
		t.Fatalf("fresh order must enqueue its own expiry task, got %d tasks", len(env.enqueuer.payloads))
	}
}

func TestCreateOrderRequiresQueue(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	env.enqueuer.disabled = true
	_, err := env.orderService.CreateOrder(context.Background(), CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if !errors.Is(err, ErrQueueUnavailable) {
		t.Fatalf("want ErrQueueUnavailable got %v", err)
	}
}

func TestCreateOrderEnqueueFailureExpiresOrder(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	env.enqueuer.failWith = errors.New("redis down")
	_, err := env.orderService.CreateOrder(context.Background(), CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if !errors.Is(err, ErrQueueUnavailable) {
		t.Fatalf("want ErrQueueUnavailable got %v", err)
	}

	// 入队失败的订单必须被立即置为过期，不能留下无兜底的待支付单
	orders, total, listErr := env.orderRepo.ListByBuyer(orderListFilterForBuyer(buyer.ID))
	if listErr != nil {
		t.Fatalf("list orders failed: %v", listErr)
	}
	if total != 1 {
		t.Fatalf("want 1 order got %d", total)
	}
	if orders[0].Status != constants.OrderStatusExpired {
		t.Fatalf("order status want expired got %s", orders[0].Status)
	}
}

func TestCreateOrderRejectsInactiveProductAndDisabledBuyer(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	disabled := createServiceTestUser(t, env.db, "blocked@example.com", constants.UserRoleBuyer, constants.UserStatusDisabled)
	inactive := createServiceTestProduct(t, env.db, creator.ID, "hidden", 100000, false)
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	ctx := context.Background()
	if _, err := env.orderService.CreateOrder(ctx, CreateOrderInput{BuyerID: buyer.ID, ProductID: inactive.ID}); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("want ErrProductNotAvailable got %v", err)
	}
	if _, err := env.orderService.CreateOrder(ctx, CreateOrderInput{BuyerID: disabled.ID, ProductID: product.ID}); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("want ErrUserDisabled got %v", err)
	}
}

func TestMarkPaidTransitions(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	ctx := context.Background()
	order, err := env.orderService.CreateOrder(ctx, CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	paid, err := env.orderService.MarkPaid(order.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.OrderStatusCompleted || paid.PaidAt == nil {
		t.Fatalf("paid order should be completed with paid_at, got %+v", paid)
	}

	// 终态订单不允许再次支付
	if _, err := env.orderService.MarkPaid(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("want ErrOrderStatusInvalid got %v", err)
	}
}

func TestMarkPaidRejectsPastDeadline(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	order, err := env.orderService.CreateOrder(context.Background(), CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 截止时间拨到过去，模拟 worker 尚未落库的过期订单
	past := time.Now().Add(-time.Second)
	if err := env.db.Model(order).Update("expires_at", past).Error; err != nil {
		t.Fatalf("update expires_at failed: %v", err)
	}

	if _, err := env.orderService.MarkPaid(order.ID); !errors.Is(err, ErrPaymentWindowExpired) {
		t.Fatalf("want ErrPaymentWindowExpired got %v", err)
	}
}

func TestExpireOrderRechecksBeforeWriting(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	ctx := context.Background()
	order, err := env.orderService.CreateOrder(ctx, CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 未到期：跳过
	if err := env.orderService.ExpireOrder(order.ID, time.Now()); err != nil {
		t.Fatalf("expire before deadline failed: %v", err)
	}
	reloaded, _ := env.orderRepo.GetByID(order.ID)
	if reloaded.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("order should stay pending before deadline, got %s", reloaded.Status)
	}

	// 到期：置为过期
	if err := env.orderService.ExpireOrder(order.ID, order.ExpiresAt.Add(time.Second)); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	reloaded, _ = env.orderRepo.GetByID(order.ID)
	if reloaded.Status != constants.OrderStatusExpired || reloaded.ExpiredAt == nil {
		t.Fatalf("order should be expired with expired_at, got %+v", reloaded)
	}

	// 已支付订单不受晚到的过期任务影响
	second, err := env.orderService.CreateOrder(ctx, CreateOrderInput{BuyerID: buyer.ID, ProductID: product.ID})
	if err != nil {
		t.Fatalf("create second order failed: %v", err)
	}
	if _, err := env.orderService.MarkPaid(second.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if err := env.orderService.ExpireOrder(second.ID, second.ExpiresAt.Add(time.Hour)); err != nil {
		t.Fatalf("late expire task failed: %v", err)
	}
	reloaded, _ = env.orderRepo.GetByID(second.ID)
	if reloaded.Status != constants.OrderStatusCompleted {
		t.Fatalf("paid order must stay completed, got %s", reloaded.Status)
	}
}

func TestCanTransition(t *testing.T) {
	if !canTransition(constants.OrderStatusPendingPayment, constants.OrderStatusCompleted) {
		t.Fatalf("pending -> completed should be allowed")
	}
	if !canTransition(constants.OrderStatusPendingPayment, constants.OrderStatusExpired) {
		t.Fatalf("pending -> expired should be allowed")
	}
	if canTransition(constants.OrderStatusCompleted, constants.OrderStatusExpired) {
		t.Fatalf("completed is terminal")
	}
	if canTransition(constants.OrderStatusExpired, constants.OrderStatusCompleted) {
		t.Fatalf("expired is terminal")
	}
}
