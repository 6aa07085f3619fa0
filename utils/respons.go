package utils

import (
	"github.com/gin-gonic/gin"
)

// ExposeErrors menentukan apakah pesan error internal ikut dikirim ke client
var ExposeErrors = true

type JSONResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Success: code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Success: false,
		Message: err.Error(),
	})
}

// RespondFailure -> pesan umum untuk client, detail error hanya jika ExposeErrors aktif
func RespondFailure(c *gin.Context, code int, message string, err error) {
	resp := JSONResponse{
		Success: false,
		Message: message,
	}
	if err != nil && ExposeErrors {
		resp.Error = err.Error()
	}
	c.JSON(code, resp)
}

// RespondValidation -> 400 dengan daftar error per field
func RespondValidation(c *gin.Context, errors interface{}) {
	c.JSON(400, JSONResponse{
		Success: false,
		Message: "Validation failed",
		Errors:  errors,
	})
}
