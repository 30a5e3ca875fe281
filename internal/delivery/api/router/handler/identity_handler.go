package handler

import (
	"net/http"

	"tasker/internal/delivery/api/middleware"
	"tasker/internal/delivery/api/response"

	"github.com/labstack/echo/v4"
)

// IdentityHandler exposes the identity behind the access token
type IdentityHandler struct{}

// NewIdentityHandler creates a new IdentityHandler instance
func NewIdentityHandler() *IdentityHandler {
	return &IdentityHandler{}
}

// IdentityResponse is the wire shape of the verified identity
type IdentityResponse struct {
	ID       string         `json:"id"`
	Email    string         `json:"email,omitempty"`
	Role     string         `json:"role,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Me returns the identity resolved by the auth middleware
func (h *IdentityHandler) Me(c echo.Context) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "CONTEXT_ERROR", "Identity not found in context")
	}

	return response.Success(c, http.StatusOK, IdentityResponse{
		ID:       identity.ID.String(),
		Email:    identity.Email,
		Role:     identity.Role,
		Metadata: identity.Metadata,
	})
}

// HealthCheck reports that the server is up
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
