package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}); err != nil {
		t.Fatalf("migrate order failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func createTestOrder(t *testing.T, repo *GormOrderRepository, orderNo string, buyerID, productID uint, affiliateID *uint, amount int64, status string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:     orderNo,
		BuyerID:     buyerID,
		ProductID:   productID,
		ProductName: "测试商品",
		CreatorID:   1,
		AffiliateID: affiliateID,
		Amount:      models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
		Status:      status,
	}
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestGetActiveByBuyerAndProductOnlyMatchesPending(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	now := time.Now()

	createTestOrder(t, repo, "ORD-1", 10, 100, nil, 108000, constants.OrderStatusExpired)
	pending := createTestOrder(t, repo, "ORD-2", 10, 100, nil, 108000, constants.OrderStatusPendingPayment)
	createTestOrder(t, repo, "ORD-3", 10, 200, nil, 54000, constants.OrderStatusPendingPayment)

	got, err := repo.GetActiveByBuyerAndProduct(10, 100, now)
	if err != nil {
		t.Fatalf("get active order failed: %v", err)
	}
	if got == nil || got.ID != pending.ID {
		t.Fatalf("want pending order %d, got %+v", pending.ID, got)
	}

	got, err = repo.GetActiveByBuyerAndProduct(10, 999, now)
	if err != nil {
		t.Fatalf("get active order failed: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil for unknown product, got %+v", got)
	}
}

func TestGetActiveByBuyerAndProductSkipsOverduePending(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)
	now := time.Now()

	overdue := createTestOrder(t, repo, "ORD-1", 20, 100, nil, 108000, constants.OrderStatusPendingPayment)
	past := now.Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", overdue.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate expires_at failed: %v", err)
	}

	// 截止时间已过但 worker 未落库的待支付订单不算活跃
	got, err := repo.GetActiveByBuyerAndProduct(20, 100, now)
	if err != nil {
		t.Fatalf("get active order failed: %v", err)
	}
	if got != nil {
		t.Fatalf("overdue pending order must not match, got %+v", got)
	}

	fresh := createTestOrder(t, repo, "ORD-2", 20, 100, nil, 108000, constants.OrderStatusPendingPayment)
	future := now.Add(time.Hour)
	if err := db.Model(&models.Order{}).Where("id = ?", fresh.ID).Update("expires_at", future).Error; err != nil {
		t.Fatalf("set expires_at failed: %v", err)
	}

	got, err = repo.GetActiveByBuyerAndProduct(20, 100, now)
	if err != nil {
		t.Fatalf("get active order failed: %v", err)
	}
	if got == nil || got.ID != fresh.ID {
		t.Fatalf("want unexpired pending order %d, got %+v", fresh.ID, got)
	}
}

func TestListByAffiliateFiltersByAffiliateID(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)

	affiliate := uint(7)
	other := uint(8)
	createTestOrder(t, repo, "ORD-A1", 10, 100, &affiliate, 108000, constants.OrderStatusPendingPayment)
	createTestOrder(t, repo, "ORD-A2", 11, 101, &affiliate, 54000, constants.OrderStatusCompleted)
	createTestOrder(t, repo, "ORD-B1", 12, 102, &other, 30000, constants.OrderStatusCompleted)
	createTestOrder(t, repo, "ORD-N1", 13, 103, nil, 20000, constants.OrderStatusCompleted)

	rows, total, err := repo.ListByAffiliate(OrderListFilter{AffiliateID: affiliate, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list by affiliate failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("want 2 attributed orders, got total=%d len=%d", total, len(rows))
	}
	for _, row := range rows {
		if row.AffiliateID == nil || *row.AffiliateID != affiliate {
			t.Fatalf("unexpected affiliate on order %s: %+v", row.OrderNo, row.AffiliateID)
		}
	}

	rows, total, err = repo.ListByAffiliate(OrderListFilter{AffiliateID: affiliate, Status: constants.OrderStatusCompleted, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list by affiliate with status failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].OrderNo != "ORD-A2" {
		t.Fatalf("want only completed order ORD-A2, got total=%d rows=%+v", total, rows)
	}
}

func TestAggregateByAffiliateSumsAllAttributedOrders(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)

	affiliate := uint(7)
	createTestOrder(t, repo, "ORD-A1", 10, 100, &affiliate, 108000, constants.OrderStatusPendingPayment)
	createTestOrder(t, repo, "ORD-A2", 11, 101, &affiliate, 54000, constants.OrderStatusCompleted)
	createTestOrder(t, repo, "ORD-N1", 12, 102, nil, 99999, constants.OrderStatusCompleted)

	aggregate, err := repo.AggregateByAffiliate(affiliate)
	if err != nil {
		t.Fatalf("aggregate by affiliate failed: %v", err)
	}
	if aggregate.OrderCount != 2 {
		t.Fatalf("order count want 2 got %d", aggregate.OrderCount)
	}
	if !aggregate.TotalAmount.Equal(decimal.NewFromInt(162000)) {
		t.Fatalf("total amount want 162000 got %s", aggregate.TotalAmount)
	}

	aggregate, err = repo.AggregateByAffiliate(0)
	if err != nil {
		t.Fatalf("aggregate zero affiliate failed: %v", err)
	}
	if aggregate.OrderCount != 0 || !aggregate.TotalAmount.IsZero() {
		t.Fatalf("zero affiliate should aggregate to empty, got %+v", aggregate)
	}
}
