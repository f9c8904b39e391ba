package service

import (
	"fmt"
	"math"

	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/models"

	"github.com/shopspring/decimal"
)

const (
	commissionRateMin = 0.0
	commissionRateMax = 1.0
	// DefaultCommissionRate 平台默认佣金比例
	DefaultCommissionRate = 0.10
)

// CommissionSetting 平台佣金配置
// rate 为 0-1 之间的小数比例，全平台统一，按汇总时的当前值计算。
type CommissionSetting struct {
	Rate float64 `json:"commission_rate"`
}

// CommissionDefaultSetting 默认佣金配置
func CommissionDefaultSetting() CommissionSetting {
	return CommissionSetting{Rate: DefaultCommissionRate}
}

// NormalizeCommissionSetting 归一化佣金配置
func NormalizeCommissionSetting(setting CommissionSetting) CommissionSetting {
	setting.Rate = roundCommissionRate(setting.Rate)
	if setting.Rate < commissionRateMin {
		setting.Rate = commissionRateMin
	}
	if setting.Rate > commissionRateMax {
		setting.Rate = commissionRateMax
	}
	return setting
}

// ValidateCommissionSetting 校验佣金配置
func ValidateCommissionSetting(setting CommissionSetting) error {
	if setting.Rate < commissionRateMin || setting.Rate > commissionRateMax {
		return fmt.Errorf("%w: %v", ErrCommissionRateRange, setting.Rate)
	}
	return nil
}

// CommissionSettingToMap 将佣金配置转换为 settings 存储结构
func CommissionSettingToMap(setting CommissionSetting) map[string]interface{} {
	normalized := NormalizeCommissionSetting(setting)
	return map[string]interface{}{
		constants.SettingFieldCommissionRate: normalized.Rate,
	}
}

func commissionSettingFromJSON(raw models.JSON, fallback CommissionSetting) CommissionSetting {
	result := fallback
	if rateRaw, ok := raw[constants.SettingFieldCommissionRate]; ok {
		if parsed, err := parseSettingFloat(rateRaw); err == nil {
			result.Rate = parsed
		}
	}
	return NormalizeCommissionSetting(result)
}

func normalizeCommissionSettingMap(value map[string]interface{}) models.JSON {
	setting := commissionSettingFromJSON(models.JSON(value), CommissionDefaultSetting())
	return models.JSON(CommissionSettingToMap(setting))
}

// GetCommissionSetting 获取佣金设置（优先 settings，空时回退默认）
func (s *SettingService) GetCommissionSetting() (CommissionSetting, error) {
	fallback := CommissionDefaultSetting()
	if s == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyCommissionConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return commissionSettingFromJSON(value, fallback), nil
}

// UpdateCommissionSetting 更新佣金设置
func (s *SettingService) UpdateCommissionSetting(setting CommissionSetting) (CommissionSetting, error) {
	if err := ValidateCommissionSetting(setting); err != nil {
		return CommissionDefaultSetting(), err
	}
	normalized := NormalizeCommissionSetting(setting)
	if _, err := s.Update(constants.SettingKeyCommissionConfig, CommissionSettingToMap(normalized)); err != nil {
		return CommissionDefaultSetting(), err
	}
	return normalized, nil
}

// GetCommissionRate 获取当前佣金比例（decimal 表示）
func (s *SettingService) GetCommissionRate() (decimal.Decimal, error) {
	setting, err := s.GetCommissionSetting()
	if err != nil {
		return decimal.NewFromFloat(DefaultCommissionRate), err
	}
	return decimal.NewFromFloat(setting.Rate), nil
}

// ParseCommissionRate 解析外部输入的佣金比例
func ParseCommissionRate(value interface{}) (float64, error) {
	return parseSettingFloat(value)
}

func roundCommissionRate(value float64) float64 {
	return math.Round(value*10000) / 10000
}
