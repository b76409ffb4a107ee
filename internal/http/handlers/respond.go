package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every non-validation response carries the fixed envelope
// {status: "success"|"error", message?, ...}. Validation failures use
// the {message, errors} shape clients inspect field by field.

func RespondSuccess(ctx *gin.Context, status int, payload gin.H) {
	body := gin.H{"status": "success"}

	for k, v := range payload {
		body[k] = v
	}

	ctx.JSON(status, body)
}

func RespondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{
		"status":  "error",
		"message": message,
	})
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message)
}

func RespondValidation(ctx *gin.Context, message string, errs map[string][]string) {
	ctx.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": message,
		"errors":  errs,
	})
}
