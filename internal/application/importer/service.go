// Package importer runs the spreadsheet import flow: parse, validate every row,
// keep the batch for preview and create the records one by one on confirmation.
package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/notify"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/apiclient"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/tabular"
)

// User-facing texts
const (
	MessageReadFailed   = "Ошибка при чтении файла"
	MessageImportFailed = "Ошибка при импорте данных"
	messageImported     = "Импортировано записей: %d"
)

// DefaultBatchTTL is how long a validated batch waits for its commit
const DefaultBatchTTL = 30 * time.Minute

// Errors
var (
	ErrBatchNotFound = shared.NewDomainError(shared.ErrNotFound.Code, "Import batch not found or expired")
	ErrBatchInvalid  = shared.NewDomainError("VALIDATION_ERRORS", "Cannot import a batch with validation errors")
	ErrUnknownEntity = shared.NewDomainError(shared.ErrInvalidInput.Code, "Entity does not support import")
)

// State is the lifecycle of a batch
type State string

const (
	StateValidated State = "validated"
	StateImporting State = "importing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Batch is a parsed and validated upload
type Batch struct {
	ID        string         `json:"id"`
	Entity    catalog.Entity `json:"entity"`
	FileName  string         `json:"fileName"`
	State     State          `json:"state"`
	Valid     bool           `json:"valid"`
	CreatedAt time.Time      `json:"createdAt"`
	rows      []tabular.Row
}

// CommitResult reports a commit. Rows created before a failure stay created.
type CommitResult struct {
	BatchID   string `json:"batchId"`
	Total     int    `json:"total"`
	Created   int    `json:"created"`
	FailedRow int    `json:"failedRow,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message"`
}

// Succeeded reports whether every row was created
func (r *CommitResult) Succeeded() bool {
	return r.FailedRow == 0
}

// Service validates uploads and commits valid batches
type Service struct {
	schemas   map[catalog.Entity]Schema
	publisher shared.EventPublisher
	notifier  *notify.Notifier
	logger    *zap.Logger
	now       func() time.Time
	ttl       time.Duration

	mu      sync.Mutex
	batches map[string]*Batch
}

// Option configures a Service
type Option func(*Service)

// WithPublisher announces imported rows on the bus
func WithPublisher(p shared.EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithNotifier sets where the commit outcome is shown
func WithNotifier(n *notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithBatchTTL sets how long validated batches are kept
func WithBatchTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an import service for the given schemas
func NewService(schemas []Schema, opts ...Option) *Service {
	s := &Service{
		schemas:  make(map[catalog.Entity]Schema, len(schemas)),
		notifier: notify.NewNotifier(),
		logger:   zap.NewNop(),
		now:      time.Now,
		ttl:      DefaultBatchTTL,
		batches:  make(map[string]*Batch),
	}
	for _, sc := range schemas {
		s.schemas[sc.Entity] = sc
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) schema(entity catalog.Entity) (Schema, error) {
	sc, ok := s.schemas[entity]
	if !ok {
		return Schema{}, ErrUnknownEntity
	}
	return sc, nil
}

// Headers returns the import columns of entity
func (s *Service) Headers(entity catalog.Entity) ([]string, error) {
	sc, err := s.schema(entity)
	if err != nil {
		return nil, err
	}
	return sc.Headers(), nil
}

// Template returns an empty workbook with the import headers of entity
func (s *Service) Template(entity catalog.Entity) ([]byte, error) {
	headers, err := s.Headers(entity)
	if err != nil {
		return nil, err
	}
	return tabular.Template(headers)
}

// Validate parses an uploaded file and checks every row. The whole file is scanned
// so the result lists every violation. A file that cannot be read yields an invalid
// result rather than an error.
func (s *Service) Validate(entity catalog.Entity, filename string, data []byte) (*tabular.ValidationResult, error) {
	sc, err := s.schema(entity)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New().String()
	sheet, err := tabular.Parse(filename, data)
	if err != nil {
		s.logger.Info("import file unreadable",
			zap.String("entity", entity.String()),
			zap.String("file", filename),
			zap.Error(err),
		)
		return &tabular.ValidationResult{BatchID: batchID, Errors: []string{MessageReadFailed}}, nil
	}

	ec := tabular.NewValidator(sc.Rules).Validate(sheet.Rows)
	result := tabular.NewValidationResult(batchID, sheet.Rows, ec)

	s.mu.Lock()
	s.pruneLocked()
	s.batches[batchID] = &Batch{
		ID:        batchID,
		Entity:    entity,
		FileName:  filename,
		State:     StateValidated,
		Valid:     result.IsValid,
		CreatedAt: s.now(),
		rows:      sheet.Rows,
	}
	s.mu.Unlock()

	s.logger.Info("import batch validated",
		zap.String("entity", entity.String()),
		zap.String("batch_id", batchID),
		zap.Int("rows", result.TotalRows),
		zap.Int("error_rows", result.ErrorRows),
		zap.Bool("valid", result.IsValid),
	)
	return result, nil
}

// Batch returns a pending batch
func (s *Service) Batch(id string) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	b, ok := s.batches[id]
	if !ok {
		return Batch{}, ErrBatchNotFound
	}
	return *b, nil
}

// Discard drops a pending batch
func (s *Service) Discard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, id)
}

// Commit creates the rows of a valid batch strictly in order, waiting for each
// create before the next. The first failure stops the batch; rows created before
// it are not rolled back. Either way a single notification reports the outcome
// and the batch is consumed.
func (s *Service) Commit(ctx context.Context, batchID string) (*CommitResult, error) {
	s.mu.Lock()
	b, ok := s.batches[batchID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrBatchNotFound
	}
	if !b.Valid {
		s.mu.Unlock()
		return nil, ErrBatchInvalid
	}
	if b.State != StateValidated {
		s.mu.Unlock()
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("batch is %s", b.State))
	}
	b.State = StateImporting
	sc := s.schemas[b.Entity]
	rows := b.rows
	s.mu.Unlock()

	result := &CommitResult{BatchID: batchID, Total: len(rows)}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			s.fail(result, row, err)
			break
		}
		if _, err := sc.create(ctx, row); err != nil {
			s.fail(result, row, err)
			break
		}
		result.Created++
	}

	state := StateCompleted
	if result.Succeeded() {
		result.Message = fmt.Sprintf(messageImported, result.Created)
		s.notifier.Success(result.Message)
	} else {
		state = StateFailed
		result.Message = MessageImportFailed
		s.notifier.Error(MessageImportFailed)
	}

	s.mu.Lock()
	b.State = state
	delete(s.batches, batchID)
	s.mu.Unlock()

	if result.Created > 0 {
		s.announce(ctx, b.Entity, result.Created)
	}
	s.logger.Info("import batch committed",
		zap.String("entity", b.Entity.String()),
		zap.String("batch_id", batchID),
		zap.Int("created", result.Created),
		zap.Int("failed_row", result.FailedRow),
	)
	return result, nil
}

func (s *Service) fail(result *CommitResult, row tabular.Row, err error) {
	result.FailedRow = row.Number
	result.Error = apiclient.UserMessage(err)
	s.logger.Warn("import row failed",
		zap.Int("row", row.Number),
		zap.Int("created_before", result.Created),
		zap.Error(err),
	)
}

func (s *Service) announce(ctx context.Context, entity catalog.Entity, count int) {
	if s.publisher == nil {
		return
	}
	ev := catalog.NewCollectionChangedEvent(entity, catalog.ActionImported, 0)
	ev.Count = count
	if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.Error("failed to publish import event", zap.Error(err))
	}
}

func (s *Service) pruneLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, b := range s.batches {
		if b.CreatedAt.Before(cutoff) {
			delete(s.batches, id)
		}
	}
}
