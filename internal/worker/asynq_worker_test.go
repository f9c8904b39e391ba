package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/models"
	"github.com/creatorhub/internal/provider"
	"github.com/creatorhub/internal/queue"
	"github.com/creatorhub/internal/repository"
	"github.com/creatorhub/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.Setting{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)
	settingService := service.NewSettingService(repository.NewSettingRepository(db))
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, nil, nil, settingService, service.DefaultPaymentWindowHours)

	consumer := NewConsumer(&provider.Container{OrderService: orderService})
	return consumer, db
}

func createWorkerTestOrder(t *testing.T, db *gorm.DB, status string, expiresAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:     fmt.Sprintf("CH%d", time.Now().UnixNano()),
		BuyerID:     1,
		ProductID:   1,
		ProductName: "测试商品",
		CreatorID:   2,
		Amount:      models.NewMoneyFromDecimal(decimal.NewFromInt(108000)),
		Status:      status,
		ExpiresAt:   &expiresAt,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func orderExpireTask(t *testing.T, orderID uint) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(queue.OrderExpirePayload{OrderID: orderID})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskOrderExpire, payload)
}

func TestHandleOrderExpireMarksOverdueOrder(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	order := createWorkerTestOrder(t, db, constants.OrderStatusPendingPayment, time.Now().Add(-time.Minute))

	if err := consumer.handleOrderExpire(context.Background(), orderExpireTask(t, order.ID)); err != nil {
		t.Fatalf("handle order expire failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusExpired {
		t.Fatalf("want expired got %s", reloaded.Status)
	}
	if reloaded.ExpiredAt == nil {
		t.Fatalf("expired_at should be set")
	}
}

func TestHandleOrderExpireSkipsPaidOrder(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	order := createWorkerTestOrder(t, db, constants.OrderStatusCompleted, time.Now().Add(-time.Minute))

	if err := consumer.handleOrderExpire(context.Background(), orderExpireTask(t, order.ID)); err != nil {
		t.Fatalf("handle order expire failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCompleted {
		t.Fatalf("paid order must not be expired, got %s", reloaded.Status)
	}
}

func TestHandleOrderExpireSkipsNotYetDueOrder(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	order := createWorkerTestOrder(t, db, constants.OrderStatusPendingPayment, time.Now().Add(time.Hour))

	if err := consumer.handleOrderExpire(context.Background(), orderExpireTask(t, order.ID)); err != nil {
		t.Fatalf("handle order expire failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("not-yet-due order must stay pending, got %s", reloaded.Status)
	}
}

func TestHandleOrderExpireTolerantInputs(t *testing.T) {
	consumer, _ := setupWorkerTest(t)

	// 缺失订单与零值负载都按成功吞掉，不触发 asynq 重试
	if err := consumer.handleOrderExpire(context.Background(), orderExpireTask(t, 99999)); err != nil {
		t.Fatalf("missing order should not error: %v", err)
	}
	if err := consumer.handleOrderExpire(context.Background(), orderExpireTask(t, 0)); err != nil {
		t.Fatalf("zero order id should not error: %v", err)
	}

	bad := asynq.NewTask(queue.TaskOrderExpire, []byte("{not-json"))
	if err := consumer.handleOrderExpire(context.Background(), bad); err == nil {
		t.Fatalf("broken payload should surface an error")
	}
}

func TestExpireOverdueOrdersSweep(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	overdue := createWorkerTestOrder(t, db, constants.OrderStatusPendingPayment, time.Now().Add(-time.Minute))
	fresh := createWorkerTestOrder(t, db, constants.OrderStatusPendingPayment, time.Now().Add(time.Hour))

	handled, err := consumer.OrderService.ExpireOverdueOrders(time.Now(), 100)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if handled != 1 {
		t.Fatalf("want 1 handled got %d", handled)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, overdue.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusExpired {
		t.Fatalf("overdue order want expired got %s", reloaded.Status)
	}
	var reloadedFresh models.Order
	if err := db.First(&reloadedFresh, fresh.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedFresh.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("fresh order must stay pending, got %s", reloadedFresh.Status)
	}
}
