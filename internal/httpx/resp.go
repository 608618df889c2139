package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go_netinv/internal/util"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// OK sends a successful response with message "success"
func OK(c *gin.Context, data any) {
	OKMsg(c, "success", data)
}

// OKMsg sends a successful response with custom message
func OKMsg(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Fail sends an error response with specified HTTP status, business code, and message
func Fail(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

// FailErr sends an error response from an AppError. The internal error is
// logged with the request id and never returned to the client.
func FailErr(c *gin.Context, err *AppError) {
	if err.Err != nil {
		util.WithComponent("http").
			WithField("request_id", c.GetString("request_id")).
			WithField("path", c.FullPath()).
			WithField("code", err.Code).
			WithError(err.Err).
			Error(err.Message)
	}

	c.JSON(err.HTTPStatus, Response{
		Code:    err.Code,
		Message: err.Message,
		Data:    err.Data,
	})
}

// ListData is the data payload of a paginated list
type ListData struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// OKItems sends a successful list response with pagination
func OKItems(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	OK(c, ListData{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}
