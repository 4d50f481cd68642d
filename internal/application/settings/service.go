// Package settings loads, saves and broadcasts the user preferences kept in the
// local state store: the interface appearance and the stock level thresholds.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/form"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/notify"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/persistence"
)

// Threshold validation errors
var (
	ErrLowThreshold    = shared.NewDomainError("INVALID_LOW_THRESHOLD", "Порог низкого запаса должен быть положительным числом.")
	ErrMediumThreshold = shared.NewDomainError("INVALID_MEDIUM_THRESHOLD", "Порог среднего запаса должен быть числом больше порога низкого запаса.")
)

// Confirmation texts
const (
	MessageThresholdsSaved = "Настройки успешно сохранены!"
	MessageThresholdsReset = "Настройки сброшены к значениям по умолчанию."
	MessageAppearanceReset = "Настройки внешнего вида сброшены"
)

// Store is the key/value state the settings live in
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Service is the settings API handed to pages and handlers
type Service struct {
	store     Store
	validator *form.Validator
	notifier  *notify.Notifier
	logger    *zap.Logger

	// serialises read-modify-write of the appearance
	saveMu sync.Mutex

	mu            sync.Mutex
	nextID        uint64
	appearanceFns map[uint64]func(Appearance)
	thresholdFns  map[uint64]func(catalog.Thresholds)
}

// Option configures a Service
type Option func(*Service)

// WithNotifier sets where save confirmations are shown
func WithNotifier(n *notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithValidator shares a validator instance
func WithValidator(v *form.Validator) Option {
	return func(s *Service) {
		s.validator = v
	}
}

// NewService creates the settings service
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		logger:        zap.NewNop(),
		appearanceFns: make(map[uint64]func(Appearance)),
		thresholdFns:  make(map[uint64]func(catalog.Thresholds)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = form.NewValidator()
	}
	return s
}

// Load returns the stored appearance. Missing or corrupt values fall back to the defaults.
func (s *Service) Load(ctx context.Context) (Appearance, error) {
	raw, ok, err := s.store.Get(ctx, persistence.KeySettings)
	if err != nil {
		return DefaultAppearance(), err
	}
	if !ok {
		return DefaultAppearance(), nil
	}

	a := DefaultAppearance()
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		s.logger.Warn("Stored appearance is corrupt, using defaults", zap.Error(err))
		return DefaultAppearance(), nil
	}
	if errs := s.validator.Struct(a); errs != nil {
		s.logger.Warn("Stored appearance is invalid, using defaults", zap.Error(errs))
		return DefaultAppearance(), nil
	}
	return a, nil
}

// Save merges patch into the stored appearance, persists it and tells subscribers
func (s *Service) Save(ctx context.Context, patch Patch) (Appearance, error) {
	s.saveMu.Lock()
	current, err := s.Load(ctx)
	if err != nil {
		s.saveMu.Unlock()
		return current, err
	}

	updated := patch.Apply(current)
	if errs := s.validator.Struct(updated); errs != nil {
		s.saveMu.Unlock()
		return current, errs
	}

	data, err := json.Marshal(updated)
	if err != nil {
		s.saveMu.Unlock()
		return current, fmt.Errorf("failed to encode appearance: %w", err)
	}
	if err := s.store.Set(ctx, persistence.KeySettings, string(data)); err != nil {
		s.saveMu.Unlock()
		return current, err
	}
	s.saveMu.Unlock()

	if msg := patch.confirmation(); msg != "" && s.notifier != nil {
		s.notifier.Settings(msg)
	}
	s.broadcastAppearance(updated)
	return updated, nil
}

// Reset removes the stored appearance
func (s *Service) Reset(ctx context.Context) (Appearance, error) {
	if err := s.store.Delete(ctx, persistence.KeySettings); err != nil {
		return DefaultAppearance(), err
	}
	if s.notifier != nil {
		s.notifier.Settings(MessageAppearanceReset)
	}
	a := DefaultAppearance()
	s.broadcastAppearance(a)
	return a, nil
}

// Subscribe calls fn with the new appearance after every save or reset
func (s *Service) Subscribe(fn func(Appearance)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.appearanceFns[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.appearanceFns, id)
		s.mu.Unlock()
	}
}

// Thresholds returns the stored stock thresholds. A value that is missing or not
// a number falls back to its default; a pair that is not ordered falls back entirely.
func (s *Service) Thresholds(ctx context.Context) (catalog.Thresholds, error) {
	t := catalog.DefaultThresholds()

	low, err := s.intValue(ctx, persistence.KeyLowStockThreshold)
	if err != nil {
		return t, err
	}
	if low != nil {
		t.Low = *low
	}
	medium, err := s.intValue(ctx, persistence.KeyMediumStockThreshold)
	if err != nil {
		return t, err
	}
	if medium != nil {
		t.Medium = *medium
	}

	if !t.Valid() {
		s.logger.Warn("Stored thresholds are inconsistent, using defaults",
			zap.Int("low", t.Low),
			zap.Int("medium", t.Medium),
		)
		return catalog.DefaultThresholds(), nil
	}
	return t, nil
}

// SaveThresholds validates and persists t
func (s *Service) SaveThresholds(ctx context.Context, t catalog.Thresholds) error {
	if t.Low < 0 {
		return ErrLowThreshold
	}
	if t.Medium <= t.Low {
		return ErrMediumThreshold
	}

	if err := s.store.Set(ctx, persistence.KeyLowStockThreshold, strconv.Itoa(t.Low)); err != nil {
		return err
	}
	if err := s.store.Set(ctx, persistence.KeyMediumStockThreshold, strconv.Itoa(t.Medium)); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Settings(MessageThresholdsSaved)
	}
	s.broadcastThresholds(t)
	return nil
}

// ResetThresholds removes the stored thresholds
func (s *Service) ResetThresholds(ctx context.Context) (catalog.Thresholds, error) {
	if err := s.store.Delete(ctx, persistence.KeyLowStockThreshold, persistence.KeyMediumStockThreshold); err != nil {
		return catalog.DefaultThresholds(), err
	}
	if s.notifier != nil {
		s.notifier.Settings(MessageThresholdsReset)
	}
	t := catalog.DefaultThresholds()
	s.broadcastThresholds(t)
	return t, nil
}

// SubscribeThresholds calls fn with the new thresholds after every save or reset
func (s *Service) SubscribeThresholds(fn func(catalog.Thresholds)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.thresholdFns[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.thresholdFns, id)
		s.mu.Unlock()
	}
}

func (s *Service) intValue(ctx context.Context, key string) (*int, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.Warn("Stored threshold is not a number", zap.String("key", key), zap.String("value", raw))
		return nil, nil
	}
	return &n, nil
}

func (s *Service) broadcastAppearance(a Appearance) {
	s.mu.Lock()
	fns := make([]func(Appearance), 0, len(s.appearanceFns))
	for _, fn := range s.appearanceFns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(a)
	}
}

func (s *Service) broadcastThresholds(t catalog.Thresholds) {
	s.mu.Lock()
	fns := make([]func(catalog.Thresholds), 0, len(s.thresholdFns))
	for _, fn := range s.thresholdFns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(t)
	}
}
