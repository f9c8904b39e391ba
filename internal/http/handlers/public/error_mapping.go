package public

import (
	"errors"

	"github.com/creatorhub/internal/http/response"
	"github.com/creatorhub/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "买家或商品不存在"},
	{target: service.ErrUserDisabled, code: response.CodeForbidden, msg: "账号已被禁用"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "商品不可购买"},
	{target: service.ErrProductPriceInvalid, code: response.CodeBadRequest, msg: "商品价格无效"},
	{target: service.ErrQueueUnavailable, code: response.CodeInternal, msg: "队列服务不可用"},
	{target: service.ErrOrderCreateFailed, code: response.CodeInternal, msg: "订单创建失败"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "订单创建失败")
}
