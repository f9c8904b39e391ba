package service

import (
	"context"
	"strings"
	"time"

	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/logger"
	"github.com/creatorhub/internal/models"
	"github.com/creatorhub/internal/repository"
)

// 同会话同落地页的重复点击在该窗口内只记一次
const clickDedupeWindow = 10 * time.Minute

// AttributionStore 会话归因令牌存储能力
// 每个会话最多保存一个推广人，后捕获覆盖先捕获，消费为一次性操作。
type AttributionStore interface {
	Capture(ctx context.Context, sessionKey string, affiliateID uint) error
	Peek(ctx context.Context, sessionKey string) (uint, bool, error)
	Consume(ctx context.Context, sessionKey string) (uint, bool, error)
	Clear(ctx context.Context, sessionKey string) error
}

// ReferralService 推广归因服务
type ReferralService struct {
	store     AttributionStore
	userRepo  repository.UserRepository
	clickRepo repository.AffiliateClickRepository
}

// NewReferralService 创建推广归因服务
func NewReferralService(store AttributionStore, userRepo repository.UserRepository, clickRepo repository.AffiliateClickRepository) *ReferralService {
	return &ReferralService{
		store:     store,
		userRepo:  userRepo,
		clickRepo: clickRepo,
	}
}

// CaptureVisitInput 推广落地访问输入
type CaptureVisitInput struct {
	SessionKey  string
	AffiliateID uint
	LandingPath string
	ClientIP    string
	UserAgent   string
}

// CaptureVisit 处理带推广参数的落地访问。
// 无效推广人静默忽略，访问本身不报错；有效推广人覆盖会话中已有的归因。
func (s *ReferralService) CaptureVisit(ctx context.Context, input CaptureVisitInput) (bool, error) {
	sessionKey := strings.TrimSpace(input.SessionKey)
	if sessionKey == "" || input.AffiliateID == 0 {
		return false, nil
	}

	affiliate, err := s.userRepo.GetByID(input.AffiliateID)
	if err != nil {
		return false, err
	}
	if affiliate == nil || affiliate.Status != constants.UserStatusActive {
		logger.Debugw("referral_capture_ignored",
			"session_key", sessionKey,
			"affiliate_id", input.AffiliateID,
		)
		return false, nil
	}

	if err := s.store.Capture(ctx, sessionKey, affiliate.ID); err != nil {
		return false, err
	}

	s.recordClick(affiliate.ID, sessionKey, input)
	return true, nil
}

// CurrentAttribution 查询会话当前归因（不消费）
func (s *ReferralService) CurrentAttribution(ctx context.Context, sessionKey string) (uint, bool, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return 0, false, nil
	}
	return s.store.Peek(ctx, sessionKey)
}

// Store 返回底层归因存储，供下单流程消费令牌
func (s *ReferralService) Store() AttributionStore {
	return s.store
}

// ClickCount 统计推广人累计点击数
func (s *ReferralService) ClickCount(affiliateID uint) (int64, error) {
	if s.clickRepo == nil {
		return 0, nil
	}
	return s.clickRepo.CountByAffiliate(affiliateID)
}

// recordClick 落库点击统计，失败只记日志不影响归因
func (s *ReferralService) recordClick(affiliateID uint, sessionKey string, input CaptureVisitInput) {
	if s.clickRepo == nil {
		return
	}
	landingPath := strings.TrimSpace(input.LandingPath)
	duplicated, err := s.clickRepo.HasRecentClick(affiliateID, sessionKey, landingPath, time.Now().Add(-clickDedupeWindow))
	if err != nil {
		logger.Warnw("referral_click_dedupe_check_failed",
			"affiliate_id", affiliateID,
			"error", err,
		)
		return
	}
	if duplicated {
		return
	}
	click := &models.AffiliateClick{
		AffiliateID: affiliateID,
		SessionKey:  sessionKey,
		LandingPath: landingPath,
		ClientIP:    strings.TrimSpace(input.ClientIP),
		UserAgent:   strings.TrimSpace(input.UserAgent),
		CreatedAt:   time.Now(),
	}
	if err := s.clickRepo.Create(click); err != nil {
		logger.Warnw("referral_click_record_failed",
			"affiliate_id", affiliateID,
			"error", err,
		)
	}
}
