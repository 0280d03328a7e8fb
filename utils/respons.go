package utils

import (
	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondErrorCode adds a machine readable kind next to the human message.
func RespondErrorCode(c *gin.Context, status int, code, message string, data interface{}) {
	c.JSON(status, JSONResponse{
		Status:  false,
		Message: message,
		Code:    code,
		Data:    data,
	})
}
