// Package session keeps the signed-in user of the dashboard: the bearer token,
// the username, the user id and the avatar, all mirrored in the local state store.
package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/form"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/notify"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/apiclient"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/persistence"
)

// User-facing texts
const (
	MessageProfileUpdated  = "Информация успешно обновлена!"
	MessageProfileFailed   = "Произошла ошибка при обновлении информации"
	MessageAvatarUploaded  = "Аватарка успешно загружена!"
	MessageAvatarFailed    = "Ошибка при загрузке аватарки"
	MessageAvatarNoFile    = "Выберите файл для загрузки."
	MessageRegistered      = "Регистрация прошла успешно"
	MessageLoginFailed     = "Неверное имя пользователя или пароль"
	defaultAvatarMediaType = "application/octet-stream"
)

// ErrNotAuthenticated is returned by calls that need a signed-in user
var ErrNotAuthenticated = shared.NewDomainError("NOT_AUTHENTICATED", "Пользователь не авторизован")

// sessionKeys are cleared together on logout
var sessionKeys = []string{
	persistence.KeyAuthToken,
	persistence.KeyUsername,
	persistence.KeyUserID,
	persistence.KeyAvatarURL,
}

// Store is the key/value state the session lives in
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// AuthAPI is the backend auth surface
type AuthAPI interface {
	Login(ctx context.Context, creds apiclient.Credentials) (apiclient.LoginResponse, error)
	Register(ctx context.Context, creds apiclient.Credentials) (apiclient.User, error)
	UpdateProfile(ctx context.Context, upd apiclient.ProfileUpdate) (apiclient.User, error)
	Avatar(ctx context.Context, userID int64) (apiclient.Avatar, error)
	UploadAvatar(ctx context.Context, filename string, content io.Reader) error
}

// State is what the interface shows about the session
type State struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	UserID        int64  `json:"userId,omitempty"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
}

// Manager owns the session
type Manager struct {
	store     Store
	auth      AuthAPI
	validator *form.Validator
	notifier  *notify.Notifier
	logger    *zap.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Manager
type Option func(*Manager)

// WithNotifier sets where outcomes are shown
func WithNotifier(n *notify.Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithValidator shares a validator instance
func WithValidator(v *form.Validator) Option {
	return func(m *Manager) {
		m.validator = v
	}
}

// NewManager creates a session manager. Call Restore once at startup.
func NewManager(store Store, auth AuthAPI, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		auth:   auth,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.validator == nil {
		m.validator = form.NewValidator()
	}
	return m
}

// SetAuth replaces the backend client; it exists because the client needs the
// manager as its token source.
func (m *Manager) SetAuth(auth AuthAPI) {
	m.auth = auth
}

// Token implements apiclient.TokenSource
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) setToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// Restore reloads the stored session. A session without a token or username
// is cleared entirely. A missing avatar is fetched again.
func (m *Manager) Restore(ctx context.Context) (State, error) {
	token, hasToken, err := m.store.Get(ctx, persistence.KeyAuthToken)
	if err != nil {
		return State{}, err
	}
	username, hasUser, err := m.store.Get(ctx, persistence.KeyUsername)
	if err != nil {
		return State{}, err
	}
	if !hasToken || token == "" || !hasUser || username == "" {
		m.setToken("")
		return State{}, m.store.Delete(ctx, sessionKeys...)
	}

	m.setToken(token)
	state, err := m.State(ctx)
	if err != nil {
		return state, err
	}
	if state.AvatarURL == "" {
		state.AvatarURL = m.refreshAvatar(ctx, state.UserID)
	}
	return state, nil
}

// State returns the current session as stored
func (m *Manager) State(ctx context.Context) (State, error) {
	token := m.Token()
	if token == "" {
		return State{}, nil
	}
	username, _, err := m.store.Get(ctx, persistence.KeyUsername)
	if err != nil {
		return State{}, err
	}
	avatar, _, err := m.store.Get(ctx, persistence.KeyAvatarURL)
	if err != nil {
		return State{}, err
	}

	userID := UserIDFromToken(token)
	if raw, ok, err := m.store.Get(ctx, persistence.KeyUserID); err == nil && ok {
		if id, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			userID = id
		}
	}
	return State{
		Authenticated: true,
		Username:      username,
		UserID:        userID,
		AvatarURL:     avatar,
	}, nil
}

// Login signs in and stores the session, then loads the avatar
func (m *Manager) Login(ctx context.Context, creds apiclient.Credentials) (State, error) {
	if errs := m.validator.Struct(creds); errs != nil {
		return State{}, errs
	}

	resp, err := m.auth.Login(ctx, creds)
	if err != nil {
		m.logger.Warn("Login failed", zap.String("username", creds.Username), zap.Error(err))
		if apiclient.IsUnauthorized(err) {
			return State{}, shared.NewDomainError("LOGIN_FAILED", MessageLoginFailed)
		}
		return State{}, err
	}
	if resp.Username == "" {
		return State{}, fmt.Errorf("login response carries no username")
	}

	userID := UserIDFromToken(resp.Token)
	if err := m.store.Set(ctx, persistence.KeyAuthToken, resp.Token); err != nil {
		return State{}, err
	}
	if err := m.store.Set(ctx, persistence.KeyUsername, resp.Username); err != nil {
		return State{}, err
	}
	if err := m.store.Set(ctx, persistence.KeyUserID, strconv.FormatInt(userID, 10)); err != nil {
		return State{}, err
	}
	m.setToken(resp.Token)

	m.logger.Info("User signed in", zap.String("username", resp.Username), zap.Int64("user_id", userID))
	return State{
		Authenticated: true,
		Username:      resp.Username,
		UserID:        userID,
		AvatarURL:     m.refreshAvatar(ctx, userID),
	}, nil
}

// Register creates an account; it does not sign in
func (m *Manager) Register(ctx context.Context, creds apiclient.Credentials) (apiclient.User, error) {
	if errs := m.validator.Struct(creds); errs != nil {
		return apiclient.User{}, errs
	}
	user, err := m.auth.Register(ctx, creds)
	if err != nil {
		m.notifyError(apiclient.UserMessage(err))
		return user, err
	}
	if m.notifier != nil {
		m.notifier.Success(MessageRegistered)
	}
	return user, nil
}

// Logout clears every session key
func (m *Manager) Logout(ctx context.Context) error {
	m.setToken("")
	return m.store.Delete(ctx, sessionKeys...)
}

// UpdateProfile changes the username and optionally the password. The stored
// username follows a successful change.
func (m *Manager) UpdateProfile(ctx context.Context, upd apiclient.ProfileUpdate) (State, error) {
	if m.Token() == "" {
		return State{}, ErrNotAuthenticated
	}
	if errs := m.validator.Struct(upd); errs != nil {
		return State{}, errs
	}

	if _, err := m.auth.UpdateProfile(ctx, upd); err != nil {
		m.logger.Warn("Profile update failed", zap.Error(err))
		msg := apiclient.UserMessage(err)
		if msg == "" {
			msg = MessageProfileFailed
		}
		m.notifyError(msg)
		return State{}, err
	}

	current, err := m.State(ctx)
	if err != nil {
		return current, err
	}
	if name := upd.Username; name != "" && name != current.Username {
		if err := m.store.Set(ctx, persistence.KeyUsername, name); err != nil {
			return current, err
		}
		current.Username = name
	}
	if m.notifier != nil {
		m.notifier.Success(MessageProfileUpdated)
	}
	return current, nil
}

// UploadAvatar sends a new picture and reloads the stored avatar
func (m *Manager) UploadAvatar(ctx context.Context, filename string, content io.Reader) (State, error) {
	if m.Token() == "" {
		return State{}, ErrNotAuthenticated
	}
	if filename == "" || content == nil {
		if m.notifier != nil {
			m.notifier.Warning(MessageAvatarNoFile)
		}
		return State{}, shared.NewDomainError("AVATAR_REQUIRED", MessageAvatarNoFile)
	}

	if err := m.auth.UploadAvatar(ctx, filename, content); err != nil {
		m.logger.Warn("Avatar upload failed", zap.Error(err))
		msg := apiclient.UserMessage(err)
		if msg == "" {
			msg = MessageAvatarFailed
		}
		m.notifyError(msg)
		return State{}, err
	}

	state, err := m.State(ctx)
	if err != nil {
		return state, err
	}
	state.AvatarURL = m.refreshAvatar(ctx, state.UserID)
	if m.notifier != nil {
		m.notifier.Success(MessageAvatarUploaded)
	}
	return state, nil
}

// refreshAvatar downloads the avatar into the store as a data URL. Failures are
// logged and clear the stored avatar.
func (m *Manager) refreshAvatar(ctx context.Context, userID int64) string {
	avatar, err := m.auth.Avatar(ctx, userID)
	if err != nil || len(avatar.Data) == 0 {
		if err != nil {
			m.logger.Warn("Avatar fetch failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		if derr := m.store.Delete(ctx, persistence.KeyAvatarURL); derr != nil {
			m.logger.Warn("Failed to clear avatar", zap.Error(derr))
		}
		return ""
	}

	url := DataURL(avatar.ContentType, avatar.Data)
	if err := m.store.Set(ctx, persistence.KeyAvatarURL, url); err != nil {
		m.logger.Warn("Failed to store avatar", zap.Error(err))
	}
	return url
}

func (m *Manager) notifyError(msg string) {
	if m.notifier != nil {
		m.notifier.Error(msg)
	}
}

// DataURL encodes data as a base64 data URL
func DataURL(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = defaultAvatarMediaType
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var _ apiclient.TokenSource = (*Manager)(nil)
