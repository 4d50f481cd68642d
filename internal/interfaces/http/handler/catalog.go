package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appcatalog "github.com/Fiarr4ikDev/DiplomForXenon/internal/application/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/logger"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/storage"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/dto"
)

// CatalogHandler serves the list screens of parts, categories, suppliers and inventory
type CatalogHandler struct {
	BaseHandler
	pages *appcatalog.Pages
	sink  storage.ExportSink
}

// NewCatalogHandler creates a catalog handler. sink may be nil, in which case
// exports can only be downloaded.
func NewCatalogHandler(pages *appcatalog.Pages, sink storage.ExportSink) *CatalogHandler {
	return &CatalogHandler{pages: pages, sink: sink}
}

func (h *CatalogHandler) screen(c *gin.Context) (appcatalog.Screen, bool) {
	entity, ok := h.entityParam(c)
	if !ok {
		return nil, false
	}
	s, err := h.pages.Screen(entity)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return s, true
}

// List returns the filtered list view
func (h *CatalogHandler) List(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	search := c.Query("search")
	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		h.Success(c, s.LoadView(c.Request.Context(), search))
		return
	}
	h.Success(c, s.ListView(search))
}

// Refetch marks the list stale and starts a new fetch
func (h *CatalogHandler) Refetch(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	if err := s.Refetch(); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.ListView(c.Query("search")))
}

// Dialog returns the current dialog state
func (h *CatalogHandler) Dialog(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	h.Success(c, s.DialogView())
}

// OpenCreate opens the create dialog with an empty draft
func (h *CatalogHandler) OpenCreate(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	if err := s.OpenCreate(); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.DialogView())
}

// OpenEdit opens the edit dialog prefilled from the record
func (h *CatalogHandler) OpenEdit(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := s.OpenEdit(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.DialogView())
}

// OpenDelete asks for delete confirmation
func (h *CatalogHandler) OpenDelete(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := s.OpenDelete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.DialogView())
}

// OpenAdjust opens the quantity dialog of an inventory record
func (h *CatalogHandler) OpenAdjust(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	direction := catalog.AdjustDirection(c.DefaultQuery("direction", string(catalog.AdjustAdd)))
	if direction != catalog.AdjustAdd && direction != catalog.AdjustRemove {
		h.BadRequest(c, "direction must be add or remove")
		return
	}
	if err := s.OpenAdjust(c.Request.Context(), id, direction); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.DialogView())
}

// PatchDraft merges a JSON object into the draft and returns the field errors
func (h *CatalogHandler) PatchDraft(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "failed to read request body")
		return
	}
	errs, err := s.PatchDraft(body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := dto.DraftResponse{Dialog: s.DialogView()}
	if len(errs) > 0 {
		resp.Errors = errs
	}
	h.Success(c, resp)
}

// Submit runs the open dialog. Backend failures come back as an unsuccessful
// outcome; only validation and dialog state problems are errors.
func (h *CatalogHandler) Submit(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	h.submit(c, s)
}

// SubmitAdjust sets the quantity of the adjust dialog and submits it
func (h *CatalogHandler) SubmitAdjust(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	var req dto.AdjustmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	errs, err := s.SetAdjustment(req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if len(errs) > 0 {
		h.ValidationError(c, errs)
		return
	}
	h.submit(c, s)
}

func (h *CatalogHandler) submit(c *gin.Context, s appcatalog.Screen) {
	outcome, err := s.Submit(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcome)
}

// Close closes the dialog without saving
func (h *CatalogHandler) Close(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	s.Close()
	c.Status(http.StatusNoContent)
}

// Export renders the filtered list as a workbook. With deliver=true the file is
// handed to the export storage and its location returned instead.
func (h *CatalogHandler) Export(c *gin.Context) {
	s, ok := h.screen(c)
	if !ok {
		return
	}
	out, err := s.Export(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	deliver, _ := strconv.ParseBool(c.Query("deliver"))
	if !deliver {
		attachment(c, out.FileName, out.ContentType, out.Data)
		return
	}
	if h.sink == nil {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Export storage is not configured")
		return
	}

	d, err := h.sink.Deliver(c.Request.Context(), out.FileName, out.Data, out.ContentType)
	if err != nil {
		logger.FromGin(c).Error("failed to deliver export",
			zap.String("entity", s.Entity().String()),
			zap.Error(err),
		)
		h.Error(c, http.StatusBadGateway, dto.ErrCodeBackend, "Failed to store the export")
		return
	}
	h.Success(c, dto.ExportDelivery{
		FileName: out.FileName,
		Rows:     out.Rows,
		Key:      d.Key,
		Location: d.Location,
		URL:      d.URL,
		Size:     int64(d.Size),
	})
}
