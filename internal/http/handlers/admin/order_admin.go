package admin

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

// AdminOrderView 管理端订单返回，附带派生状态
type AdminOrderView struct {
	models.Order
	EffectiveStatus string `json:"effective_status"`
}

func buildAdminOrderView(order *models.Order, now time.Time) AdminOrderView {
	return AdminOrderView{
		Order:           *order,
		EffectiveStatus: service.EffectiveStatus(order, now),
	}
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	orderNo := strings.TrimSpace(c.Query("order_no"))

	var buyerID, affiliateID, productID uint
	if raw := strings.TrimSpace(c.Query("buyer_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			buyerID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("affiliate_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			affiliateID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("product_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			productID = uint(parsed)
		}
	}

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	orders, total, err := h.OrderService.ListForAdmin(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		BuyerID:     buyerID,
		AffiliateID: affiliateID,
		ProductID:   productID,
		Status:      status,
		OrderNo:     orderNo,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}

	now := time.Now()
	items := make([]AdminOrderView, 0, len(orders))
	for i := range orders {
		items = append(items, buildAdminOrderView(&orders[i], now))
	}

	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单标识无效", nil)
		return
	}

	order, err := h.OrderService.GetByID(uint(orderID))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}

	view := buildAdminOrderView(order, time.Now())
	commission, err := h.CommissionService.CommissionFor(order)
	if err != nil {
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}

	response.Success(c, gin.H{
		"order":      view,
		"commission": commission,
	})
}

// AdminMarkOrderPaid 确认订单支付
func (h *Handler) AdminMarkOrderPaid(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单标识无效", nil)
		return
	}

	order, err := h.OrderService.MarkPaid(uint(orderID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrPaymentWindowExpired):
			respondError(c, response.CodeBadRequest, "支付窗口已过期", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "订单状态不允许该操作", nil)
		default:
			respondError(c, response.CodeInternal, "订单更新失败", err)
		}
		return
	}

	requestLog(c).Infow("order_marked_paid",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"admin_id", adminID,
	)
	h.recordAdminAudit(c, "order_mark_paid", "/admin/orders/"+c.Param("id")+"/paid", models.JSON{
		"order_id": order.ID,
		"order_no": order.OrderNo,
	})
	response.Success(c, buildAdminOrderView(order, time.Now()))
}
