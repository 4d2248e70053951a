package httputil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/carebook/booking-api/pkg/apperror"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithError maps an error to its HTTP status. Internal detail stays in
// the server log; the caller only ever sees the taxonomy message.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperror.From(err)

	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("request failed")
	}

	c.JSON(appErr.StatusCode(), Response{
		Status:  "error",
		Message: appErr.Message,
	})
}

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validationMessages = map[string]string{
	"required":  "field is required",
	"email":     "invalid email format",
	"min":       "value is too short",
	"oneof":     "value is not one of the allowed options",
	"clocktime": "must be a 24h time in HH:MM form",
}

// RespondWithValidationError reports a request binding failure, listing the
// failed fields by their json names when the error carries them.
func RespondWithValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, Response{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := validationMessages[fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed %s validation", fe.Tag())
		}
		fields = append(fields, FieldError{Field: fe.Field(), Message: msg})
	}

	c.JSON(http.StatusBadRequest, Response{
		Status:  "error",
		Message: "validation failed",
		Data:    gin.H{"errors": fields},
	})
}
