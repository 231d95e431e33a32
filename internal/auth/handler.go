package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

type Handler struct {
	Repo *Repo
	JWT  *JWT
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	Role        string    `json:"role,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type loginInput struct {
	Body loginBody
}

type loginOutput struct {
	Body tokenResponse
}

func Register(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/v1/auth/login",
		Summary:     "Login",
		Tags:        []string{"Auth"},
	}, h.login)

	huma.Register(api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/v1/auth/refresh",
		Summary:     "Refresh token",
		Tags:        []string{"Auth"},
	}, h.refresh)
}

func (h *Handler) login(ctx context.Context, in *loginInput) (*loginOutput, error) {
	role, err := h.Repo.VerifyCredentials(ctx, in.Body.Username, in.Body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInactive) {
			return nil, huma.Error401Unauthorized("invalid credentials")
		}
		return nil, err
	}
	tok, err := h.JWT.Generate(in.Body.Username, role)
	if err != nil {
		return nil, err
	}
	return &loginOutput{Body: tokenResponse{AccessToken: tok, Role: role, ExpiresAt: time.Now().Add(h.JWT.Expiry())}}, nil
}

type refreshInput struct {
	Authorization string `header:"Authorization"`
}

// refresh registers before the auth middleware, so it checks the presented
// bearer token itself and re-issues from its claims.
func (h *Handler) refresh(ctx context.Context, in *refreshInput) (*loginOutput, error) {
	if !strings.HasPrefix(in.Authorization, "Bearer ") {
		return nil, huma.Error401Unauthorized("unauthorized")
	}
	claims, err := h.JWT.Validate(strings.TrimPrefix(in.Authorization, "Bearer "))
	if err != nil {
		return nil, huma.Error401Unauthorized("unauthorized")
	}
	tok, err := h.JWT.Generate(claims.Subject, claims.Role)
	if err != nil {
		return nil, err
	}
	return &loginOutput{Body: tokenResponse{AccessToken: tok, Role: claims.Role, ExpiresAt: time.Now().Add(h.JWT.Expiry())}}, nil
}
