package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Well-known state keys
const (
	KeyAuthToken            = "authToken"
	KeyUsername             = "username"
	KeyUserID               = "userId"
	KeyAvatarURL            = "avatarUrl"
	KeyLowStockThreshold    = "lowStockThreshold"
	KeyMediumStockThreshold = "mediumStockThreshold"
	KeySettings             = "settings"
)

// ErrCorruptValue is returned when a stored value cannot be decoded
var ErrCorruptValue = errors.New("stored value is corrupt")

// StateEntryModel is one key/value row
type StateEntryModel struct {
	Key       string `gorm:"column:state_key;primaryKey;size:100"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (StateEntryModel) TableName() string {
	return "client_state"
}

// LocalStore is a string key/value store over the state database
type LocalStore struct {
	db *gorm.DB
}

// NewLocalStore creates a new LocalStore
func NewLocalStore(db *gorm.DB) *LocalStore {
	return &LocalStore{db: db}
}

// WithTx returns a new store bound to the given transaction
func (s *LocalStore) WithTx(tx *gorm.DB) *LocalStore {
	return &LocalStore{db: tx}
}

// Get returns the value stored under key. ok is false when the key is absent.
func (s *LocalStore) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	var entry StateEntryModel
	err = s.db.WithContext(ctx).Where("state_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return entry.Value, true, nil
}

// Set stores value under key, replacing any previous value
func (s *LocalStore) Set(ctx context.Context, key, value string) error {
	entry := StateEntryModel{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "state_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// SetMany stores several values in one transaction
func (s *LocalStore) SetMany(ctx context.Context, values map[string]string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.WithTx(tx)
		for k, v := range values {
			if err := store.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the given keys; absent keys are ignored
func (s *LocalStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("state_key IN ?", keys).Delete(&StateEntryModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// Keys lists every stored key in order
func (s *LocalStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.WithContext(ctx).Model(&StateEntryModel{}).Order("state_key").Pluck("state_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// GetJSON decodes the JSON value under key into out. It returns ErrCorruptValue
// when the value exists but does not decode.
func (s *LocalStore) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrCorruptValue, key, err)
	}
	return true, nil
}

// SetJSON stores v encoded as JSON
func (s *LocalStore) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
