package service

import (
	"context"
	"testing"
	"time"

	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/models"
)

func pendingOrderExpiringAt(expiresAt time.Time) *models.Order {
	return &models.Order{
		Status:    constants.OrderStatusPendingPayment,
		ExpiresAt: &expiresAt,
	}
}

func TestEffectiveStatusDerivesExpiry(t *testing.T) {
	now := time.Now()

	// 截止前一分钟仍是待支付
	order := pendingOrderExpiringAt(now.Add(time.Minute))
	if got := EffectiveStatus(order, now); got != constants.OrderStatusPendingPayment {
		t.Fatalf("want pending_payment got %s", got)
	}

	// 截止后一秒，即使 worker 未落库也按过期展示
	order = pendingOrderExpiringAt(now.Add(-time.Second))
	if got := EffectiveStatus(order, now); got != constants.OrderStatusExpired {
		t.Fatalf("want expired got %s", got)
	}

	// 恰好到点也算过期
	order = pendingOrderExpiringAt(now)
	if got := EffectiveStatus(order, now); got != constants.OrderStatusExpired {
		t.Fatalf("deadline instant should count as expired, got %s", got)
	}

	// 已完成订单不受截止时间影响
	expiresAt := now.Add(-time.Hour)
	order = &models.Order{Status: constants.OrderStatusCompleted, ExpiresAt: &expiresAt}
	if got := EffectiveStatus(order, now); got != constants.OrderStatusCompleted {
		t.Fatalf("completed order must stay completed, got %s", got)
	}
}

func TestPaymentRemainingClampsToZero(t *testing.T) {
	now := time.Now()

	order := pendingOrderExpiringAt(now.Add(90 * time.Second))
	if got := PaymentRemaining(order, now); got != 90*time.Second {
		t.Fatalf("want 90s got %s", got)
	}

	order = pendingOrderExpiringAt(now.Add(-time.Hour))
	if got := PaymentRemaining(order, now); got != 0 {
		t.Fatalf("past deadline should clamp to 0, got %s", got)
	}

	if got := PaymentRemaining(nil, now); got != 0 {
		t.Fatalf("nil order should be 0, got %s", got)
	}
}

func TestFormatCountdown(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-5 * time.Second, "00:00:00"},
		{time.Second, "00:00:01"},
		{23*time.Hour + 59*time.Minute + 59*time.Second, "23:59:59"},
		{24 * time.Hour, "24:00:00"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
	}
	for _, c := range cases {
		if got := FormatCountdown(c.in); got != c.want {
			t.Fatalf("FormatCountdown(%s) want %s got %s", c.in, c.want, got)
		}
	}
}

func TestCountdownEmitsAndClosesAtZero(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	deadline := time.Now().Add(45 * time.Millisecond)
	ch := Countdown(ctx, deadline, 10*time.Millisecond)

	var values []time.Duration
	for v := range ch {
		values = append(values, v)
	}
	if len(values) == 0 {
		t.Fatalf("countdown should emit at least once")
	}
	if values[len(values)-1] != 0 {
		t.Fatalf("countdown should end with 0, got %s", values[len(values)-1])
	}
	for i := 1; i < len(values); i++ {
		if values[i] > values[i-1] {
			t.Fatalf("countdown values should not increase: %v", values)
		}
	}
}

func TestCountdownStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	deadline := time.Now().Add(time.Hour)
	ch := Countdown(ctx, deadline, 10*time.Millisecond)

	// 先收一个值，确认通道在工作
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("countdown did not emit")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// 取消瞬间可能还有一个在途值，再读一次必须关闭
			if _, ok := <-ch; ok {
				t.Fatalf("countdown channel should close after cancel")
			}
		}
	case <-time.After(time.Second):
		t.Fatalf("countdown channel did not close after cancel")
	}
}
