package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"support_chat_server/internal/infrastructure/middleware"
	"support_chat_server/internal/model"
	"support_chat_server/pkg/errorx"
)

// HandleSuccess 返回成功响应
// payload 的字段与 success 平铺在同一层，例如 {"success":true,"conversation":{...}}
func HandleSuccess(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// HandleError 通用错误处理方法
// errorx.CodeError 按错误码映射 HTTP 状态；其他错误一律视为服务繁忙
// 使用示例：
//
//	if err := svc.DoSomething(); err != nil {
//	    HandleError(c, err)
//	    return
//	}
func HandleError(c *gin.Context, err error) {
	var codeErr *errorx.CodeError
	if !errors.As(err, &codeErr) {
		codeErr = errorx.Wrap(err, errorx.CodeServerBusy, errorx.ErrServerBusy.Msg)
	}

	status := errorx.HTTPStatus(codeErr.Code)
	if status >= http.StatusInternalServerError {
		zap.L().Error("system error",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Int("code", codeErr.Code),
			zap.Error(err),
		)
	}

	body := gin.H{
		"success": false,
		"code":    codeErr.Code,
		"message": codeErr.Msg,
	}
	// 底层错误只在 debug 模式下返回
	if detail := codeErr.Detail(); detail != "" && gin.IsDebugging() {
		body["error"] = detail
	}
	c.JSON(status, body)
}

// HandleParamError 处理参数绑定错误（带 validator 翻译支持）
func HandleParamError(c *gin.Context, err error) {
	body := gin.H{
		"success": false,
		"code":    errorx.CodeInvalidParam,
		"message": errorx.ErrInvalidParam.Msg,
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && Trans != nil {
		body["errors"] = RemoveTopStruct(validationErrs.Translate(Trans))
	} else if gin.IsDebugging() {
		// 非 validator 错误（如 JSON 格式错误）
		body["error"] = err.Error()
	}
	zap.L().Debug("param bind error", zap.Error(err))
	c.JSON(http.StatusBadRequest, body)
}

// currentIdentity 读取鉴权中间件写入的身份，缺失时直接返回 401
func currentIdentity(c *gin.Context) (model.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		HandleError(c, errorx.ErrUnauthorized)
	}
	return identity, ok
}
