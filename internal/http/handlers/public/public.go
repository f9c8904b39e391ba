package public

import (
	"strconv"
	"strings"
	"time"

	"github.com/creatorhub/internal/cache"
	"github.com/creatorhub/internal/constants"
	handlershared "github.com/creatorhub/internal/http/handlers/shared"
	"github.com/creatorhub/internal/http/response"
	"github.com/creatorhub/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheKey = "public:config"
	publicConfigCacheTTL = 60 * time.Second
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

// GetConfig 获取全局配置
func (h *Handler) GetConfig(c *gin.Context) {
	defaults := map[string]interface{}{
		"site_currency": constants.SiteCurrency,
	}

	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), publicConfigCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	data, err := h.SettingService.GetConfig(defaults)
	if err != nil {
		respondError(c, response.CodeInternal, "配置获取失败", err)
		return
	}

	_ = cache.SetJSON(c.Request.Context(), publicConfigCacheKey, data, publicConfigCacheTTL)
	response.Success(c, data)
}

// TrackVisit 记录落地访问并捕获推广归因。
// ref 非法或推广人不可用时静默忽略，访问本身永远成功。
func (h *Handler) TrackVisit(c *gin.Context) {
	sessionKey := getSessionKey(c)

	var affiliateID uint
	if ref := strings.TrimSpace(c.Query("ref")); ref != "" {
		if parsed, err := strconv.ParseUint(ref, 10, 64); err == nil {
			affiliateID = uint(parsed)
		}
	}

	captured := false
	if h.ReferralService != nil && sessionKey != "" && affiliateID != 0 {
		var err error
		captured, err = h.ReferralService.CaptureVisit(c.Request.Context(), service.CaptureVisitInput{
			SessionKey:  sessionKey,
			AffiliateID: affiliateID,
			LandingPath: strings.TrimSpace(c.Query("path")),
			ClientIP:    c.ClientIP(),
			UserAgent:   c.Request.UserAgent(),
		})
		if err != nil {
			// 归因存储不可用只丢弃本次归因，访问响应照常成功
			handlershared.RequestLog(c).Warnw("visit_capture_failed",
				"affiliate_id", affiliateID,
				"error", err,
			)
			captured = false
		}
	}

	response.Success(c, gin.H{
		"captured": captured,
	})
}
