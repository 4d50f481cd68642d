package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/importer"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/tabular"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/dto"
)

// ImportHandler handles spreadsheet import endpoints
type ImportHandler struct {
	BaseHandler
	service *importer.Service
	maxSize int64
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(service *importer.Service, maxSize int64) *ImportHandler {
	return &ImportHandler{service: service, maxSize: maxSize}
}

// Template downloads an empty workbook with the import columns
func (h *ImportHandler) Template(c *gin.Context) {
	entity, ok := h.entityParam(c)
	if !ok {
		return
	}
	data, err := h.service.Template(entity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	attachment(c, tabular.TemplateFileName, tabular.ContentTypeXLSX, data)
}

// Validate parses the uploaded file and reports every row error. A valid result
// carries the batch id to commit.
func (h *ImportHandler) Validate(c *gin.Context) {
	entity, ok := h.entityParam(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if h.maxSize > 0 && header.Size > h.maxSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "file exceeds the maximum upload size")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.BadRequest(c, importer.MessageReadFailed)
		return
	}

	result, err := h.service.Validate(entity, header.Filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Commit creates the rows of a validated batch
func (h *ImportHandler) Commit(c *gin.Context) {
	if _, ok := h.entityParam(c); !ok {
		return
	}
	result, err := h.service.Commit(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Discard drops a validated batch without importing it
func (h *ImportHandler) Discard(c *gin.Context) {
	h.service.Discard(c.Param("batchId"))
	c.Status(http.StatusNoContent)
}
