package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/BrandonKMoore/socialeyes/pkg/socialeyes/policy"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// Error aborts the request with status and message
func Error(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: msg, StatusCode: status})
}

// Abort renders err. Policy rejections keep their status and message; any
// other error is logged and reported as a bare 500.
func Abort(c *gin.Context, err error) {
	var perr *policy.Error
	if errors.As(err, &perr) {
		c.AbortWithStatusJSON(perr.StatusCode(), ErrorResponse{
			Message:    perr.Message,
			StatusCode: perr.StatusCode(),
			Errors:     perr.Fields,
		})
		return
	}

	Logger(c).Error("request failed", "error", err)
	Error(c, http.StatusInternalServerError, "Internal Server Error")
}

// BindError renders a request binding failure as a 400 with one entry per
// invalid field
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		Error(c, http.StatusBadRequest, "Bad Request")
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[lowerFirst(fe.Field())] = fieldMessage(fe)
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Message:    "Bad Request",
		StatusCode: http.StatusBadRequest,
		Errors:     fields,
	})
}

func fieldMessage(fe validator.FieldError) string {
	name := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return "Invalid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", name, lowerFirst(fe.Param()))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", name)
	case "future":
		return fmt.Sprintf("%s must be in the future", name)
	case "latitude", "longitude":
		return fmt.Sprintf("%s is not valid", fe.Tag())
	}
	return fmt.Sprintf("%s is invalid", name)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
