package service

import (
	"github.com/creatorhub/internal/models"
	"github.com/creatorhub/internal/repository"

	"github.com/shopspring/decimal"
)

// CommissionService 佣金汇总服务
// 不落佣金流水，按当前平台比例对归因订单实时汇总。
type CommissionService struct {
	orderRepo      repository.OrderRepository
	userRepo       repository.UserRepository
	settingService *SettingService
}

// NewCommissionService 创建佣金汇总服务
func NewCommissionService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, settingService *SettingService) *CommissionService {
	return &CommissionService{
		orderRepo:      orderRepo,
		userRepo:       userRepo,
		settingService: settingService,
	}
}

// AffiliateSummary 推广人业绩汇总
type AffiliateSummary struct {
	AffiliateID     uint         `json:"affiliate_id"`
	TotalSales      int64        `json:"total_sales"`
	TotalAmount     models.Money `json:"total_amount"`
	CommissionRate  float64      `json:"commission_rate"`
	TotalCommission models.Money `json:"total_commission"`
}

// CommissionFor 按当前比例计算单笔订单佣金
func (s *CommissionService) CommissionFor(order *models.Order) (decimal.Decimal, error) {
	if order == nil || order.AffiliateID == nil {
		return decimal.Zero, nil
	}
	rate, err := s.settingService.GetCommissionRate()
	if err != nil {
		return decimal.Zero, err
	}
	return order.Amount.Decimal.Mul(rate).Round(2), nil
}

// SummaryForAffiliate 汇总推广人名下全部归因订单。
// 比例每次实时读取，调高调低都立刻反映到汇总结果。
func (s *CommissionService) SummaryForAffiliate(affiliateID uint) (*AffiliateSummary, error) {
	if affiliateID == 0 {
		return nil, ErrNotFound
	}
	affiliate, err := s.userRepo.GetByID(affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrNotFound
	}

	aggregate, err := s.orderRepo.AggregateByAffiliate(affiliateID)
	if err != nil {
		return nil, err
	}
	rate, err := s.settingService.GetCommissionRate()
	if err != nil {
		return nil, err
	}

	commission := aggregate.TotalAmount.Mul(rate).Round(2)
	rateValue, _ := rate.Float64()
	return &AffiliateSummary{
		AffiliateID:     affiliateID,
		TotalSales:      aggregate.OrderCount,
		TotalAmount:     models.NewMoneyFromDecimal(aggregate.TotalAmount),
		CommissionRate:  rateValue,
		TotalCommission: models.NewMoneyFromDecimal(commission),
	}, nil
}

// ListAttributedOrders 推广人名下订单明细
func (s *CommissionService) ListAttributedOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByAffiliate(filter)
}

// AggregateOrders 内存聚合给定订单集。
// totalSales 计全部订单，佣金只计已归因订单。
func AggregateOrders(orders []models.Order, rate decimal.Decimal) (totalSales int64, totalCommission decimal.Decimal) {
	totalCommission = decimal.Zero
	for i := range orders {
		if orders[i].AffiliateID == nil {
			continue
		}
		totalCommission = totalCommission.Add(orders[i].Amount.Decimal.Mul(rate))
	}
	return int64(len(orders)), totalCommission.Round(2)
}
