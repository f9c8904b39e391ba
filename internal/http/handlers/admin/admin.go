package admin

import (
	"errors"
	"strings"

	"github.com/creatorhub/internal/cache"
	"github.com/creatorhub/internal/constants"
	"github.com/creatorhub/internal/http/response"
	"github.com/creatorhub/internal/models"
	"github.com/creatorhub/internal/service"

	"github.com/gin-gonic/gin"
)

const publicConfigCacheKey = "public:config"

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiresAt string                 `json:"expires_at"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	admin, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, response.CodeUnauthorized, "用户名或密码错误", nil)
			return
		}
		respondError(c, response.CodeInternal, "登录失败", err)
		return
	}
	response.Success(c, LoginResponse{
		Token: token,
		User: map[string]interface{}{
			"id":       admin.ID,
			"username": admin.Username,
		},
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// GetSetting 获取设置
func (h *Handler) GetSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		respondError(c, response.CodeBadRequest, "设置键不能为空", nil)
		return
	}

	// 佣金配置带默认值回退，其余键原样返回
	if key == constants.SettingKeyCommissionConfig {
		setting, err := h.SettingService.GetCommissionSetting()
		if err != nil {
			respondError(c, response.CodeInternal, "设置获取失败", err)
			return
		}
		response.Success(c, service.CommissionSettingToMap(setting))
		return
	}

	value, err := h.SettingService.GetByKey(key)
	if err != nil {
		respondError(c, response.CodeInternal, "设置获取失败", err)
		return
	}
	if value == nil {
		response.Success(c, gin.H{})
		return
	}

	response.Success(c, value)
}

// UpdateSettingRequest 更新设置请求
type UpdateSettingRequest struct {
	Value map[string]interface{} `json:"value" binding:"required"`
}

// UpdateSetting 更新设置。
// 佣金比例越界直接拒绝，不做静默截断。
func (h *Handler) UpdateSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		respondError(c, response.CodeBadRequest, "设置键不能为空", nil)
		return
	}

	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if key == constants.SettingKeyCommissionConfig {
		rateRaw, ok := req.Value[constants.SettingFieldCommissionRate]
		if !ok {
			respondError(c, response.CodeBadRequest, "佣金比例不能为空", nil)
			return
		}
		rate, err := service.ParseCommissionRate(rateRaw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "佣金比例格式错误", nil)
			return
		}
		updated, err := h.SettingService.UpdateCommissionSetting(service.CommissionSetting{Rate: rate})
		if err != nil {
			if errors.Is(err, service.ErrCommissionRateRange) {
				respondError(c, response.CodeBadRequest, "佣金比例需在 0 到 1 之间", nil)
				return
			}
			respondError(c, response.CodeInternal, "设置保存失败", err)
			return
		}
		h.recordAdminAudit(c, "setting_update", "/admin/settings/"+key, models.JSON{"key": key})
		response.Success(c, service.CommissionSettingToMap(updated))
		return
	}

	value, err := h.SettingService.Update(key, req.Value)
	if err != nil {
		respondError(c, response.CodeInternal, "设置保存失败", err)
		return
	}

	if key == constants.SettingKeySiteConfig {
		_ = cache.Del(c.Request.Context(), publicConfigCacheKey)
	}
	h.recordAdminAudit(c, "setting_update", "/admin/settings/"+key, models.JSON{"key": key})
	response.Success(c, value)
}

// recordAdminAudit 敏感操作落审计日志，失败只记日志不影响响应
func (h *Handler) recordAdminAudit(c *gin.Context, action, object string, detail models.JSON) {
	if h.AuthzAuditService == nil {
		return
	}
	adminID := c.GetUint("admin_id")
	if adminID == 0 {
		return
	}
	if err := h.AuthzAuditService.Record(service.AuthzAuditRecordInput{
		OperatorAdminID:  adminID,
		OperatorUsername: c.GetString("username"),
		Action:           action,
		Object:           object,
		Method:           c.Request.Method,
		RequestID:        c.GetString("request_id"),
		Detail:           detail,
	}); err != nil {
		requestLog(c).Warnw("admin_audit_record_failed",
			"action", action,
			"object", object,
			"error", err,
		)
	}
}
