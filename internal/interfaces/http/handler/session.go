package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/session"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/apiclient"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/dto"
)

// SessionHandler handles sign-in and the user profile
type SessionHandler struct {
	BaseHandler
	manager *session.Manager
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// State returns the current session
func (h *SessionHandler) State(c *gin.Context) {
	state, err := h.manager.State(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// Login signs in with a username and password
func (h *SessionHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	state, err := h.manager.Login(c.Request.Context(), apiclient.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// Register creates an account; the caller signs in afterwards
func (h *SessionHandler) Register(c *gin.Context) {
	var req dto.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.manager.Register(c.Request.Context(), apiclient.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(user))
}

// Logout clears the session
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.manager.Logout(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateProfile changes the username and optionally the password
func (h *SessionHandler) UpdateProfile(c *gin.Context) {
	var req dto.ProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	state, err := h.manager.UpdateProfile(c.Request.Context(), apiclient.ProfileUpdate{
		Username:        req.Username,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// Avatar returns the stored avatar as a data URL
func (h *SessionHandler) Avatar(c *gin.Context) {
	state, err := h.manager.State(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !state.Authenticated {
		h.HandleError(c, session.ErrNotAuthenticated)
		return
	}
	h.Success(c, gin.H{"avatarUrl": state.AvatarURL})
}

// UploadAvatar sends the multipart "avatar" file to the backend
func (h *SessionHandler) UploadAvatar(c *gin.Context) {
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		_, err = h.manager.UploadAvatar(c.Request.Context(), "", nil)
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	state, err := h.manager.UploadAvatar(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}
