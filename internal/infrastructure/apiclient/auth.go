package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
)

// Credentials is the body of login and register calls
type Credentials struct {
	Username string `json:"username" validate:"nonblank,max=100"`
	Password string `json:"password" validate:"nonblank"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// User is the account returned by register and profile update
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ProfileUpdate is the body of the profile update call
type ProfileUpdate struct {
	Username        string `json:"username" validate:"nonblank,max=100"`
	CurrentPassword string `json:"currentPassword" validate:"nonblank"`
	NewPassword     string `json:"newPassword,omitempty"`
}

// Avatar is a user picture as served by the backend
type Avatar struct {
	Data        []byte
	ContentType string
}

// AuthClient wraps the /auth endpoints
type AuthClient struct {
	c *Client
}

// Auth returns the auth client
func (c *Client) Auth() *AuthClient {
	return &AuthClient{c: c}
}

// Login exchanges credentials for a token
func (a *AuthClient) Login(ctx context.Context, creds Credentials) (LoginResponse, error) {
	var out LoginResponse
	if err := a.c.Post(ctx, "/auth/login", nil, creds, &out); err != nil {
		return out, err
	}
	if out.Token == "" {
		return out, fmt.Errorf("login response carries no token")
	}
	return out, nil
}

// Register creates a new account
func (a *AuthClient) Register(ctx context.Context, creds Credentials) (User, error) {
	var out User
	err := a.c.Post(ctx, "/auth/register", nil, creds, &out)
	return out, err
}

// UpdateProfile changes the username and optionally the password
func (a *AuthClient) UpdateProfile(ctx context.Context, upd ProfileUpdate) (User, error) {
	var out User
	err := a.c.Put(ctx, "/auth/update", upd, &out)
	return out, err
}

// Avatar downloads the avatar of the given user
func (a *AuthClient) Avatar(ctx context.Context, userID int64) (Avatar, error) {
	resp, err := a.c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    "/auth/avatar/" + strconv.FormatInt(userID, 10),
		Headers: map[string]string{"Accept": "image/*"},
	})
	if err != nil {
		return Avatar{}, err
	}
	return Avatar{Data: resp.Body, ContentType: resp.Headers.Get("Content-Type")}, nil
}

// UploadAvatar sends a new picture as the multipart part "avatar"
func (a *AuthClient) UploadAvatar(ctx context.Context, filename string, content io.Reader) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("avatar", filename)
	if err != nil {
		return fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("writing avatar: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	_, err = a.c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        "/auth/avatar/upload",
		RawBody:     buf.Bytes(),
		ContentType: w.FormDataContentType(),
	})
	return err
}
