package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/creatorhub/internal/http/response"
	"github.com/creatorhub/internal/repository"
	"github.com/creatorhub/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminGetAffiliateSummary 推广人汇总。
// 汇总覆盖全部归因订单，不区分订单状态；佣金按当前比例实时计算。
func (h *Handler) AdminGetAffiliateSummary(c *gin.Context) {
	affiliateID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || affiliateID == 0 {
		respondError(c, response.CodeBadRequest, "推广人标识无效", nil)
		return
	}

	summary, err := h.CommissionService.SummaryForAffiliate(uint(affiliateID))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "推广人不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "推广汇总获取失败", err)
		return
	}

	clicks, err := h.ReferralService.ClickCount(uint(affiliateID))
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

// AdminListAffiliateOrders 推广人名下归因订单列表
func (h *Handler) AdminListAffiliateOrders(c *gin.Context) {
	affiliateID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || affiliateID == 0 {
		respondError(c, response.CodeBadRequest, "推广人标识无效", nil)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.CommissionService.ListAttributedOrders(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		AffiliateID: uint(affiliateID),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "推广订单获取失败", err)
		return
	}

	now := time.Now()
	items := make([]AdminOrderView, 0, len(orders))
	for i := range orders {
		items = append(items, buildAdminOrderView(&orders[i], now))
	}

	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}
