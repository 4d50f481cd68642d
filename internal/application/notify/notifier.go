// Package notify keeps the single transient message shown after a mutation,
// an import or a settings change.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Severity drives the color and icon of a message
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Default lifetimes
const (
	DefaultMutationTTL = 6 * time.Second
	DefaultSettingsTTL = 3 * time.Second
)

// Message is one transient notification
type Message struct {
	ID        uuid.UUID `json:"id"`
	Severity  Severity  `json:"severity"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notifier holds at most one active message; showing a new one replaces it
type Notifier struct {
	mu          sync.Mutex
	current     *Message
	mutationTTL time.Duration
	settingsTTL time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Notifier
type Option func(*Notifier)

// WithTTL sets the lifetimes of mutation and settings messages
func WithTTL(mutation, settings time.Duration) Option {
	return func(n *Notifier) {
		if mutation > 0 {
			n.mutationTTL = mutation
		}
		if settings > 0 {
			n.settingsTTL = settings
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		n.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// NewNotifier creates an empty notifier
func NewNotifier(opts ...Option) *Notifier {
	n := &Notifier{
		mutationTTL: DefaultMutationTTL,
		settingsTTL: DefaultSettingsTTL,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Show replaces the active message
func (n *Notifier) Show(severity Severity, text string, ttl time.Duration) Message {
	now := n.now()
	msg := Message{
		ID:        uuid.New(),
		Severity:  severity,
		Text:      text,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	n.mu.Lock()
	n.current = &msg
	n.mu.Unlock()

	n.logger.Debug("Notification shown",
		zap.String("severity", string(severity)),
		zap.String("text", text),
	)
	return msg
}

// Success shows a mutation success
func (n *Notifier) Success(text string) Message {
	return n.Show(SeveritySuccess, text, n.mutationTTL)
}

// Error shows a mutation failure
func (n *Notifier) Error(text string) Message {
	return n.Show(SeverityError, text, n.mutationTTL)
}

// Warning shows a mutation warning
func (n *Notifier) Warning(text string) Message {
	return n.Show(SeverityWarning, text, n.mutationTTL)
}

// Info shows an informational mutation message
func (n *Notifier) Info(text string) Message {
	return n.Show(SeverityInfo, text, n.mutationTTL)
}

// Settings confirms a settings change with the shorter lifetime
func (n *Notifier) Settings(text string) Message {
	return n.Show(SeveritySuccess, text, n.settingsTTL)
}

// Current returns the active message; expired messages are dropped
func (n *Notifier) Current() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Message{}, false
	}
	if !n.now().Before(n.current.ExpiresAt) {
		n.current = nil
		return Message{}, false
	}
	return *n.current, true
}

// Dismiss removes the active message
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	n.current = nil
	n.mu.Unlock()
}
