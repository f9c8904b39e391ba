package public

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/creatorhub/internal/http/response"
	"github.com/creatorhub/internal/models"
	"github.com/creatorhub/internal/repository"
	"github.com/creatorhub/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// OrderView 订单响应结构，附带支付窗口展示字段
type OrderView struct {
	models.Order
	EffectiveStatus  string `json:"effective_status"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Countdown        string `json:"countdown"`
}

func buildOrderView(order *models.Order, now time.Time) OrderView {
	remaining := service.PaymentRemaining(order, now)
	return OrderView{
		Order:            *order,
		EffectiveStatus:  service.EffectiveStatus(order, now),
		RemainingSeconds: int64(remaining / time.Second),
		Countdown:        service.FormatCountdown(remaining),
	}
}

func buildOrderViews(orders []models.Order, now time.Time) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, buildOrderView(&orders[i], now))
	}
	return views
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	order, err := h.OrderService.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		BuyerID:    uid,
		ProductID:  req.ProductID,
		SessionKey: getSessionKey(c),
		ClientIP:   c.ClientIP(),
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}

	response.Success(c, buildOrderView(order, time.Now()))
}

// ListOrders 获取订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	orderNo := strings.TrimSpace(c.Query("order_no"))

	orders, total, err := h.OrderService.ListForBuyer(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		BuyerID:  uid,
		Status:   status,
		OrderNo:  orderNo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}

	response.SuccessWithPage(c, buildOrderViews(orders, time.Now()), response.BuildPagination(page, pageSize, total))
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单标识无效", nil)
		return
	}

	order, err := h.OrderService.GetForBuyer(uint(orderID), uid)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}

	response.Success(c, buildOrderView(order, time.Now()))
}
