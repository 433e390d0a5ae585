package utils

import "github.com/gin-gonic/gin"

// DataResponse is the uniform envelope every caller of this service
// consumes, for successes and failures alike.
type DataResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Respond writes the envelope with the given HTTP status.
func Respond(ctx *gin.Context, status int, success bool, message string, data interface{}) {
	ctx.JSON(status, DataResponse{
		Success: success,
		Message: message,
		Data:    data,
	})
}

// OK returns a success envelope.
func OK(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, 200, true, message, data)
}

// Fail returns a failure envelope with the given status.
func Fail(ctx *gin.Context, status int, message string) {
	Respond(ctx, status, false, message, nil)
}
