// Package handler holds the gin handlers of the dashboard BFF.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/form"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/apiclient"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/logger"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/dto"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// ValidationError sends a 400 response carrying the field errors
func (h *BaseHandler) ValidationError(c *gin.Context, errs form.ValidationErrors) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
		dto.ErrCodeValidation, "Request validation failed", middleware.GetRequestID(c), errs))
}

// HandleError converts application, domain and backend errors to responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	if errs, ok := form.AsValidationErrors(err); ok {
		h.ValidationError(c, errs)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	if apiErr, ok := apiclient.AsAPIError(err); ok {
		switch {
		case apiclient.IsUnauthorized(err):
			h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, apiclient.UserMessage(err))
		case apiclient.IsNotFound(err):
			h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, apiclient.UserMessage(err))
		case apiclient.IsConstraintViolation(err):
			h.Error(c, http.StatusConflict, dto.ErrCodeReferenced, apiclient.UserMessage(err))
		default:
			logger.FromGin(c).Warn("backend call failed")
			h.Error(c, http.StatusBadGateway, dto.ErrCodeBackend, apiErr.Message)
		}
		return
	}

	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindJSON decodes the body into v, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, err.Error())
		return false
	}
	return true
}

func (h *BaseHandler) entityParam(c *gin.Context) (catalog.Entity, bool) {
	entity, err := catalog.ParseEntity(c.Param("entity"))
	if err != nil {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, err.Error())
		return "", false
	}
	return entity, true
}

func (h *BaseHandler) idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// attachment sends a file download
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
