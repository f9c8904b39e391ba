package queue

import (
	"encoding/json"

	"github.com/creatorhub/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderExpire 订单支付超时过期任务
	TaskOrderExpire = constants.TaskOrderExpire
)

// OrderExpirePayload 订单过期任务载荷
type OrderExpirePayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderExpireTask 创建订单过期任务
func NewOrderExpireTask(payload OrderExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderExpire, body), nil
}
