package service

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/models"
)

// DefaultPaymentWindowHours 默认支付窗口时长
const DefaultPaymentWindowHours = 24

// EffectiveStatus 计算订单的有效状态。
// 过期任务是延迟落库的，截止时间已过但 worker 尚未执行时，
// 对外一律按已过期展示，不依赖库中状态。
func EffectiveStatus(order *models.Order, now time.Time) string {
	if order == nil {
		return ""
	}
	if order.Status == constants.OrderStatusPendingPayment &&
		order.ExpiresAt != nil && !now.Before(*order.ExpiresAt) {
		return constants.OrderStatusExpired
	}
	return order.Status
}

// PaymentRemaining 计算剩余支付时长，已过截止或无截止时间返回 0
func PaymentRemaining(order *models.Order, now time.Time) time.Duration {
	if order == nil || order.ExpiresAt == nil {
		return 0
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return 0
	}
	remaining := order.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatCountdown 将剩余时长格式化为 HH:MM:SS
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// Countdown 启动秒级倒计时，通道按 interval 推送剩余时长。
// 归零后推送最后一个 0 值并关闭；ctx 取消时立即停止。
func Countdown(ctx context.Context, deadline time.Time, interval time.Duration) <-chan time.Duration {
	if interval <= 0 {
		interval = time.Second
	}
	ch := make(chan time.Duration, 1)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		emit := func(now time.Time) bool {
			remaining := deadline.Sub(now)
			if remaining < 0 {
				remaining = 0
			}
			select {
			case ch <- remaining:
			case <-ctx.Done():
				return false
			}
			return remaining > 0
		}

		if !emit(time.Now()) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if !emit(now) {
					return
				}
			}
		}
	}()

	return ch
}
