package service

import (
	"context"
	"errors"
	"testing"

	"github.com/creatorhub/internal/models"
	"github.com/creatorhub/internal/repository"

	"github.com/shopspring/decimal"
)

func TestSummaryForAffiliateUsesCurrentRate(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	affiliate := activeUser(t, env.db, "affiliate@example.com")
	buyerA := activeUser(t, env.db, "buyer-a@example.com")
	buyerB := activeUser(t, env.db, "buyer-b@example.com")
	productA := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)
	productB := createServiceTestProduct(t, env.db, creator.ID, "course-b", 50000, true)

	ctx := context.Background()
	for _, c := range []struct {
		buyerID   uint
		productID uint
		session   string
	}{
		{buyerA.ID, productA.ID, "sess-a"},
		{buyerB.ID, productB.ID, "sess-b"},
	} {
		if err := env.store.Capture(ctx, c.session, affiliate.ID); err != nil {
			t.Fatalf("capture failed: %v", err)
		}
		if _, err := env.orderService.CreateOrder(ctx, CreateOrderInput{
			BuyerID:    c.buyerID,
			ProductID:  c.productID,
			SessionKey: c.session,
		}); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	commissionService := NewCommissionService(env.orderRepo, env.userRepo, env.settings)

	// 默认比例 0.10：(108000 + 54000) × 0.10 = 16200
	summary, err := commissionService.SummaryForAffiliate(affiliate.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalSales != 2 {
		t.Fatalf("total sales want 2 got %d", summary.TotalSales)
	}
	if !summary.TotalAmount.Decimal.Equal(decimal.NewFromInt(162000)) {
		t.Fatalf("total amount want 162000 got %s", summary.TotalAmount.String())
	}
	if !summary.TotalCommission.Decimal.Equal(decimal.NewFromInt(16200)) {
		t.Fatalf("total commission want 16200 got %s", summary.TotalCommission.String())
	}

	// 调整比例立即反映到汇总，不做按单快照
	if _, err := env.settings.UpdateCommissionSetting(CommissionSetting{Rate: 0.2}); err != nil {
		t.Fatalf("update commission rate failed: %v", err)
	}
	summary, err = commissionService.SummaryForAffiliate(affiliate.ID)
	if err != nil {
		t.Fatalf("summary after rate change failed: %v", err)
	}
	if !summary.TotalCommission.Decimal.Equal(decimal.NewFromInt(32400)) {
		t.Fatalf("commission after rate change want 32400 got %s", summary.TotalCommission.String())
	}
}

func TestSummaryForAffiliateCountsPendingOrders(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	affiliate := activeUser(t, env.db, "affiliate@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	ctx := context.Background()
	if err := env.store.Capture(ctx, "sess-1", affiliate.ID); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	order, err := env.orderService.CreateOrder(ctx, CreateOrderInput{
		BuyerID:    buyer.ID,
		ProductID:  product.ID,
		SessionKey: "sess-1",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	commissionService := NewCommissionService(env.orderRepo, env.userRepo, env.settings)

	// 待支付订单也计入汇总
	summary, err := commissionService.SummaryForAffiliate(affiliate.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalSales != 1 || !summary.TotalCommission.Decimal.Equal(decimal.NewFromInt(10800)) {
		t.Fatalf("pending order should count, got sales=%d commission=%s", summary.TotalSales, summary.TotalCommission.String())
	}

	// 过期后订单仍保留归因并继续计入
	if err := env.orderService.ExpireOrder(order.ID, order.ExpiresAt.Add(1)); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	summary, err = commissionService.SummaryForAffiliate(affiliate.ID)
	if err != nil {
		t.Fatalf("summary after expiry failed: %v", err)
	}
	if summary.TotalSales != 1 {
		t.Fatalf("expired order should stay attributed, got %d", summary.TotalSales)
	}
}

func TestSummaryForUnknownAffiliate(t *testing.T) {
	env := setupOrderServiceTest(t)
	commissionService := NewCommissionService(env.orderRepo, env.userRepo, env.settings)

	if _, err := commissionService.SummaryForAffiliate(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound got %v", err)
	}
}

func TestCommissionForOrder(t *testing.T) {
	env := setupOrderServiceTest(t)
	commissionService := NewCommissionService(env.orderRepo, env.userRepo, env.settings)

	affiliateID := uint(7)
	order := ordersFixtureWithAmount(affiliateID, 108000)
	got, err := commissionService.CommissionFor(order)
	if err != nil {
		t.Fatalf("commission for order failed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(10800)) {
		t.Fatalf("commission want 10800 got %s", got)
	}

	// 无归因订单佣金为 0
	order.AffiliateID = nil
	got, err = commissionService.CommissionFor(order)
	if err != nil {
		t.Fatalf("commission for unattributed order failed: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("unattributed order commission want 0 got %s", got)
	}
}

func TestAggregateOrders(t *testing.T) {
	affiliateID := uint(7)
	orders := []models.Order{
		*ordersFixtureWithAmount(affiliateID, 108000),
		*ordersFixtureWithAmount(affiliateID, 54000),
		// 无归因订单计入销量但不产生佣金
		{Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(99999))},
	}

	sales, commission := AggregateOrders(orders, decimal.NewFromFloat(0.10))
	if sales != 3 {
		t.Fatalf("total sales want 3 got %d", sales)
	}
	if !commission.Equal(decimal.NewFromInt(16200)) {
		t.Fatalf("total commission want 16200 got %s", commission)
	}

	sales, commission = AggregateOrders(nil, decimal.NewFromFloat(0.10))
	if sales != 0 || !commission.IsZero() {
		t.Fatalf("empty aggregate want 0/0 got sales=%d commission=%s", sales, commission)
	}
}

func TestListAttributedOrders(t *testing.T) {
	env := setupOrderServiceTest(t)
	creator := activeUser(t, env.db, "creator@example.com")
	affiliate := activeUser(t, env.db, "affiliate@example.com")
	buyer := activeUser(t, env.db, "buyer@example.com")
	product := createServiceTestProduct(t, env.db, creator.ID, "course-a", 100000, true)

	ctx := context.Background()
	if err := env.store.Capture(ctx, "sess-1", affiliate.ID); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if _, err := env.orderService.CreateOrder(ctx, CreateOrderInput{
		BuyerID:    buyer.ID,
		ProductID:  product.ID,
		SessionKey: "sess-1",
	}); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	commissionService := NewCommissionService(env.orderRepo, env.userRepo, env.settings)
	rows, total, err := commissionService.ListAttributedOrders(repository.OrderListFilter{
		AffiliateID: affiliate.ID,
		Page:        1,
		PageSize:    10,
	})
	if err != nil {
		t.Fatalf("list attributed orders failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("want 1 attributed order got total=%d len=%d", total, len(rows))
	}
}
