package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/creatorhub/internal/logger"
	"github.com/creatorhub/internal/provider"
	"github.com/creatorhub/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderExpire, c.handleOrderExpire)
}

func (c *Consumer) handleOrderExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_expire_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_expire_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	// ExpireOrder 内部复查状态与截止时间，已支付或未到期的订单不动
	if err := c.OrderService.ExpireOrder(payload.OrderID, time.Now()); err != nil {
		logger.Warnw("worker_order_expire_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}
