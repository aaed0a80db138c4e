package gintool

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/submission_controller/constants"
	"github.com/to404hanga/submission_controller/pkg/errs"
)

type Response struct {
	Code      int      `json:"code"`
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
	Data      any      `json:"data,omitempty"`
	RequestID string   `json:"request_id"`
}

func GinResponse(c *gin.Context, resp *Response) {
	resp.RequestID = c.GetHeader(constants.HeaderRequestIDKey)
	c.JSON(http.StatusOK, resp)
}

// GinErrorResponse 按错误类别响应, 内部错误不向调用方暴露细节
func GinErrorResponse(c *gin.Context, err error) {
	code := errs.HTTPStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	GinResponse(c, &Response{
		Code:    code,
		Message: msg,
		Details: errs.Details(err),
	})
}

// GinSuccess 成功响应
func GinSuccess(c *gin.Context, data any) {
	GinResponse(c, &Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}
