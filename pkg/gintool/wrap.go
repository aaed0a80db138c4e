package gintool

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/model"
)

// validate 绑定全部来源后统一校验, gin 自带的逐次校验在启动时关闭
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	return v
}()

// Validate 按 binding 标签校验参数
func Validate(param any) error {
	return validate.Struct(param)
}

// newParam 为指针类型的参数分配内存
func newParam[T any]() T {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ != nil && typ.Kind() == reflect.Pointer {
		return reflect.New(typ.Elem()).Interface().(T)
	}
	return zero
}

func badRequest(c *gin.Context, log loggerv2.Logger, msg string, err error) {
	GinResponse(c, &Response{
		Code:    http.StatusBadRequest,
		Message: err.Error(),
	})
	log.ErrorContext(c.Request.Context(), msg, logger.Error(err))
}

// WrapHandler 包装处理函数, 依次绑定 URI, Header, Query 与请求体, 再注入操作人
func WrapHandler[T model.CommonParamInterface](h func(c *gin.Context, pType T), log loggerv2.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		param := newParam[T]()
		// 1) URI
		if len(c.Params) > 0 {
			if err := c.ShouldBindUri(param); err != nil {
				badRequest(c, log, "WrapHandler bind uri failed", err)
				return
			}
		}

		// 2) Header
		if err := c.ShouldBindHeader(param); err != nil {
			badRequest(c, log, "WrapHandler bind header failed", err)
			return
		}

		// 3) Query
		if c.Request.URL != nil && c.Request.URL.RawQuery != "" {
			if err := c.ShouldBindQuery(param); err != nil {
				badRequest(c, log, "WrapHandler bind query failed", err)
				return
			}
		}

		// 4) Body, 按 Content-Type 选择 JSON 或表单
		if c.Request.ContentLength != 0 && c.Request.Method != http.MethodGet {
			if err := c.ShouldBind(param); err != nil {
				badRequest(c, log, "WrapHandler bind body failed", err)
				return
			}
		}

		if err := Validate(param); err != nil {
			badRequest(c, log, "WrapHandler validate failed", err)
			return
		}

		if err := ExtractOperator(c, param); err != nil {
			GinResponse(c, &Response{
				Code:    http.StatusUnauthorized,
				Message: err.Error(),
			})
			log.ErrorContext(c.Request.Context(), "WrapHandler ExtractOperator failed", logger.Error(err))
			return
		}

		h(c, param)
	}
}

// WrapWithoutBodyHandler 包装处理函数, 只注入操作人
func WrapWithoutBodyHandler[T model.CommonParamInterface](h func(c *gin.Context, pType T), log loggerv2.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		param := newParam[T]()

		if err := ExtractOperator(c, param); err != nil {
			GinResponse(c, &Response{
				Code:    http.StatusUnauthorized,
				Message: err.Error(),
			})
			log.ErrorContext(c.Request.Context(), "WrapWithoutBodyHandler ExtractOperator failed", logger.Error(err))
			return
		}

		h(c, param)
	}
}
