// Package catalog wires one CRUD page per entity: the cached list, the dialog
// controller, mutations against the backend and the notifications they produce.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/form"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/notify"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/apiclient"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/cache"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/tabular"
)

// EntityAPI is the backend collection a page reads and mutates
type EntityAPI[T catalog.Record, R any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, req R) (T, error)
	Update(ctx context.Context, id int64, req R) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Adjuster changes the stock of an inventory record
type Adjuster interface {
	Adjust(ctx context.Context, id int64, direction catalog.AdjustDirection, quantity int) (catalog.InventoryRecord, error)
}

// ErrAdjustUnsupported is returned when a page without stock adjustment is asked to adjust
var ErrAdjustUnsupported = shared.NewDomainError("ADJUST_UNSUPPORTED", "Quantity adjustment is only available for inventory")

// Deps are the collaborators shared by every page
type Deps struct {
	Queries   *cache.QueryClient
	Publisher shared.EventPublisher
	Notifier  *notify.Notifier
	Validator *form.Validator
	Logger    *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Queries == nil {
		d.Queries = cache.NewQueryClient()
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewNotifier()
	}
	if d.Validator == nil {
		d.Validator = form.NewValidator()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// Outcome is the result of a submit that reached the backend
type Outcome struct {
	Succeeded bool            `json:"succeeded"`
	Severity  notify.Severity `json:"severity"`
	Message   string          `json:"message"`
	RecordID  int64           `json:"recordId,omitempty"`
}

// Export is a rendered spreadsheet
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
	Rows        int
}

// mutationError marks errors returned by the backend call of a submit
type mutationError struct {
	mode form.Mode
	err  error
}

func (e *mutationError) Error() string { return e.err.Error() }
func (e *mutationError) Unwrap() error { return e.err }

// Page is the list, dialog and mutation flow of one entity
type Page[T catalog.Record, R any] struct {
	def      Definition[T, R]
	api      EntityAPI[T, R]
	adjuster Adjuster
	query    *cache.Query[[]T]
	dialog   *form.Dialog[T, R]
	deps     Deps
	logger   *zap.Logger
}

// PageOption configures a Page
type PageOption[T catalog.Record, R any] func(*Page[T, R])

// WithAdjuster enables the quantity adjustment dialog
func WithAdjuster[T catalog.Record, R any](a Adjuster) PageOption[T, R] {
	return func(p *Page[T, R]) {
		p.adjuster = a
	}
}

// NewPage registers the entity collection with the query cache and returns its page
func NewPage[T catalog.Record, R any](def Definition[T, R], api EntityAPI[T, R], deps Deps, opts ...PageOption[T, R]) *Page[T, R] {
	deps = deps.withDefaults()
	p := &Page[T, R]{
		def:    def,
		api:    api,
		deps:   deps,
		logger: deps.Logger.With(zap.String("entity", def.Entity.String())),
		dialog: form.NewDialog(deps.Validator, def.NewDraft, def.ToDraft),
	}
	p.query = cache.Register(deps.Queries, cache.EntityKey(def.Entity), api.List)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Entity returns the entity of the page
func (p *Page[T, R]) Entity() catalog.Entity {
	return p.def.Entity
}

// Definition returns the page definition
func (p *Page[T, R]) Definition() Definition[T, R] {
	return p.def
}

// Query returns the cached collection
func (p *Page[T, R]) Query() *cache.Query[[]T] {
	return p.query
}

// List projects the cached collection through the search filter, starting a fetch
// when the collection is stale.
func (p *Page[T, R]) List(search string) View[T] {
	return p.view(p.query.Get(), search)
}

// Load is List after waiting for any pending fetch
func (p *Page[T, R]) Load(ctx context.Context, search string) View[T] {
	return p.view(p.query.Load(ctx), search)
}

func (p *Page[T, R]) view(r cache.Result[[]T], search string) View[T] {
	rows := Filter(r.Data, p.def.Columns, search)
	if rows == nil {
		rows = []T{}
	}
	v := View[T]{
		Rows:       rows,
		Total:      len(r.Data),
		Search:     search,
		IsLoading:  r.IsLoading,
		IsFetching: r.IsFetching,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Err != nil {
		v.Error = apiclient.UserMessage(r.Err)
	}
	return v
}

// Refetch reloads the collection
func (p *Page[T, R]) Refetch() error {
	return p.query.Refetch()
}

// Find returns the record with id from the cached collection
func (p *Page[T, R]) Find(ctx context.Context, id int64) (T, error) {
	var zero T
	r := p.query.Load(ctx)
	if r.Err != nil && !r.HasData {
		return zero, r.Err
	}
	for _, rec := range r.Data {
		if rec.RecordID() == id {
			return rec, nil
		}
	}
	return zero, shared.NewDomainError(shared.ErrNotFound.Code,
		fmt.Sprintf("%s record %d not found", p.def.Entity, id))
}

// Dialog returns the dialog state
func (p *Page[T, R]) Dialog() form.State[T, R] {
	return p.dialog.State()
}

// OpenCreate opens the create dialog
func (p *Page[T, R]) OpenCreate() error {
	return p.dialog.OpenCreate()
}

// OpenEdit opens the edit dialog for the record with id
func (p *Page[T, R]) OpenEdit(ctx context.Context, id int64) error {
	rec, err := p.Find(ctx, id)
	if err != nil {
		return err
	}
	return p.dialog.OpenEdit(rec)
}

// OpenDelete asks for confirmation before deleting the record with id
func (p *Page[T, R]) OpenDelete(ctx context.Context, id int64) error {
	rec, err := p.Find(ctx, id)
	if err != nil {
		return err
	}
	return p.dialog.OpenDelete(rec)
}

// OpenAdjust opens the add/remove quantity dialog
func (p *Page[T, R]) OpenAdjust(ctx context.Context, id int64, direction catalog.AdjustDirection) error {
	if p.adjuster == nil {
		return ErrAdjustUnsupported
	}
	rec, err := p.Find(ctx, id)
	if err != nil {
		return err
	}
	return p.dialog.OpenAdjust(rec, direction)
}

// SetDraft replaces the draft and returns its field errors
func (p *Page[T, R]) SetDraft(draft R) (form.ValidationErrors, error) {
	return p.dialog.SetDraft(draft)
}

// PatchDraft applies the JSON fields in patch on top of the current draft
func (p *Page[T, R]) PatchDraft(patch []byte) (form.ValidationErrors, error) {
	draft := p.dialog.State().Draft
	if err := json.Unmarshal(patch, &draft); err != nil {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "invalid draft: "+err.Error())
	}
	return p.dialog.SetDraft(draft)
}

// SetAdjustment sets the quantity of the adjust dialog
func (p *Page[T, R]) SetAdjustment(quantity int) (form.ValidationErrors, error) {
	return p.dialog.SetAdjustment(quantity)
}

// Close closes the dialog
func (p *Page[T, R]) Close() {
	p.dialog.Close()
}

// Submit runs the open dialog. Validation and dialog-state errors are returned as
// errors and nothing is sent. Backend failures are not: they become an Outcome and
// an error notification, and a referenced record gets the page's own message.
func (p *Page[T, R]) Submit(ctx context.Context) (Outcome, error) {
	var recordID int64
	mode := p.dialog.State().Mode

	err := p.dialog.Submit(ctx, func(ctx context.Context, sub form.Submission[T, R]) error {
		id, err := p.mutate(ctx, sub)
		if err != nil {
			return &mutationError{mode: sub.Mode, err: err}
		}
		recordID = id
		return nil
	})

	var mErr *mutationError
	switch {
	case err == nil:
		text := p.successText(mode)
		p.deps.Notifier.Success(text)
		return Outcome{Succeeded: true, Severity: notify.SeveritySuccess, Message: text, RecordID: recordID}, nil
	case errors.As(err, &mErr):
		text := p.failureText(mErr)
		p.logger.Warn("mutation failed",
			zap.String("mode", string(mErr.mode)),
			zap.Error(mErr.err),
		)
		if mErr.mode == form.ModeConfirmingDelete {
			p.dialog.Close()
		}
		p.deps.Notifier.Error(text)
		return Outcome{Severity: notify.SeverityError, Message: text}, nil
	default:
		return Outcome{}, err
	}
}

func (p *Page[T, R]) mutate(ctx context.Context, sub form.Submission[T, R]) (int64, error) {
	var (
		action catalog.ChangeAction
		id     = sub.TargetID()
	)
	switch sub.Mode {
	case form.ModeCreating:
		created, err := p.api.Create(ctx, sub.Draft)
		if err != nil {
			return 0, err
		}
		action, id = catalog.ActionCreated, created.RecordID()
	case form.ModeEditing:
		if _, err := p.api.Update(ctx, id, sub.Draft); err != nil {
			return 0, err
		}
		action = catalog.ActionUpdated
	case form.ModeConfirmingDelete:
		if err := p.api.Delete(ctx, id); err != nil {
			return 0, err
		}
		action = catalog.ActionDeleted
	case form.ModeAdjustingQuantity:
		if p.adjuster == nil {
			return 0, ErrAdjustUnsupported
		}
		if _, err := p.adjuster.Adjust(ctx, id, sub.Direction, sub.Adjustment.Quantity); err != nil {
			return 0, err
		}
		action = catalog.ActionAdjusted
	default:
		return 0, fmt.Errorf("unexpected dialog mode %q", sub.Mode)
	}

	p.changed(ctx, action, id)
	return id, nil
}

// changed announces a successful mutation. Without a publisher the page
// invalidates the cache itself.
func (p *Page[T, R]) changed(ctx context.Context, action catalog.ChangeAction, id int64) {
	p.logger.Info("collection changed", zap.String("action", string(action)), zap.Int64("record_id", id))
	if p.deps.Publisher == nil {
		p.deps.Queries.Invalidate(cache.KeysFor(p.def.Entity)...)
		p.deps.Queries.InvalidatePrefix(cache.MetricsKeyPrefix)
		return
	}
	ev := catalog.NewCollectionChangedEvent(p.def.Entity, action, id)
	if err := p.deps.Publisher.Publish(ctx, ev); err != nil {
		p.logger.Error("failed to publish collection change", zap.Error(err))
	}
}

func (p *Page[T, R]) successText(mode form.Mode) string {
	switch mode {
	case form.ModeCreating:
		return p.def.Labels.Created
	case form.ModeEditing:
		return p.def.Labels.Updated
	case form.ModeConfirmingDelete:
		return p.def.Labels.Deleted
	case form.ModeAdjustingQuantity:
		return p.def.Labels.Adjusted
	}
	return ""
}

func (p *Page[T, R]) failureText(e *mutationError) string {
	if e.mode == form.ModeConfirmingDelete {
		if apiclient.IsConstraintViolation(e.err) {
			return p.def.Labels.Referenced
		}
		return p.def.Labels.DeleteFailed
	}
	if apiErr, ok := apiclient.AsAPIError(e.err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return p.def.Labels.SaveFailed
}

// Export renders the currently filtered rows as a workbook. Rows come from the
// cache; a fetch only happens when the collection was never loaded or is stale.
func (p *Page[T, R]) Export(ctx context.Context, search string) (*Export, error) {
	r := p.query.Load(ctx)
	if r.Err != nil && !r.HasData {
		return nil, fmt.Errorf("load %s: %w", p.def.Entity, r.Err)
	}
	rows := Filter(r.Data, p.def.Columns, search)
	data, err := tabular.Export(Table(p.def.Labels.SheetName, rows, p.def.Columns))
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", p.def.Entity, err)
	}
	return &Export{
		FileName:    p.def.Labels.FileName,
		ContentType: tabular.ContentTypeXLSX,
		Data:        data,
		Rows:        len(rows),
	}, nil
}
