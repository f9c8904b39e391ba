package public

import (
	"errors"
	"strconv"
	"time"

	"github.com/creatorhub/internal/http/response"
	"github.com/creatorhub/internal/repository"
	"github.com/creatorhub/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAffiliateSummary 当前用户的推广汇总。
// 佣金按当前比例实时计算，调整比例后历史订单一并按新比例汇总。
func (h *Handler) GetAffiliateSummary(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	summary, err := h.CommissionService.SummaryForAffiliate(uid)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "推广人不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "推广汇总获取失败", err)
		return
	}

	clicks, err := h.ReferralService.ClickCount(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "推广汇总获取失败", err)
		return
	}

	response.Success(c, gin.H{
		"affiliate_id":     summary.AffiliateID,
		"click_count":      clicks,
		"total_sales":      summary.TotalSales,
		"total_amount":     summary.TotalAmount,
		"commission_rate":  summary.CommissionRate,
		"total_commission": summary.TotalCommission,
	})
}

// ListAffiliateOrders 当前用户名下的归因订单列表
func (h *Handler) ListAffiliateOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.CommissionService.ListAttributedOrders(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		AffiliateID: uid,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "推广订单获取失败", err)
		return
	}

	response.SuccessWithPage(c, buildOrderViews(orders, time.Now()), response.BuildPagination(page, pageSize, total))
}
