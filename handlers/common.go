package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultPageLimit = 20

var tracer = otel.Tracer("coherp-backend")

// startSpan opens a span for expensive report endpoints.
func startSpan(c *gin.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(c.Request.Context(), name)
}

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Fields  interface{} `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// respondError maps the three failure tiers onto HTTP statuses: binding and
// validation problems are 400, missing records 404, business-rule rejections
// 422, everything else a logged 500.
func respondError(c *gin.Context, moduleName, fn string, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "VALIDATION",
			Message: "request validation failed",
			Fields:  utils.ProcessValidationErrors(validationErrs),
		}})
		return
	}

	if errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, errorEnvelope{Error: errorBody{
			Code:    "NOT_FOUND",
			Message: "record not found",
		}})
		return
	}

	if appErr, ok := utils.AsAppError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, errorEnvelope{Error: errorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
		}})
		return
	}

	logger := config.GetLogger()
	config.LogError(logger, moduleName, fn, "unhandled error", nil, err)
	c.JSON(http.StatusInternalServerError, errorEnvelope{Error: errorBody{
		Code:    "INTERNAL",
		Message: "something went wrong",
	}})
}

func respondBindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "VALIDATION",
			Message: "request validation failed",
			Fields:  utils.ProcessValidationErrors(validationErrs),
		}})
		return
	}
	c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
		Code:    "BAD_REQUEST",
		Message: err.Error(),
	}})
}

// pathId parses the :id segment.
func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "invalid id",
		}})
		return 0, false
	}
	return id, true
}

// pageParams reads ?limit= and ?after= for cursor pagination.
func pageParams(c *gin.Context) (*int, *string) {
	limit := defaultPageLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	var after *string
	if v := c.Query("after"); v != "" {
		after = &v
	}
	return &limit, after
}

func queryString(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

func queryInt(c *gin.Context, name string) *int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return &n
		}
	}
	return nil
}
