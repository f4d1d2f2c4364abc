package handlers

import (
	"context"
	"net/http"

	"github.com/baechuer/wholesale-catalog/internal/application/auth"
	"github.com/baechuer/wholesale-catalog/internal/domain"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/dto"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/middleware"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/response"
	"github.com/baechuer/wholesale-catalog/internal/transport/http/validate"
)

type Authenticator interface {
	Login(ctx context.Context, username, password string) (auth.LoginResult, error)
	CreateUser(ctx context.Context, cmd auth.CreateUserCmd) (domain.Identity, error)
	ListUsers(ctx context.Context) ([]domain.Identity, error)
}

type AuthHandler struct {
	svc Authenticator
}

func NewAuthHandler(svc Authenticator) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginReq
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		status := "error"
		if domain.Is(err, "invalid_credentials") {
			status = "invalid_credentials"
		}
		middleware.LoginAttemptsTotal.WithLabelValues(status).Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.LoginAttemptsTotal.WithLabelValues("success").Inc()
	response.OK(w, dto.ToLoginResp(res))
}

func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserReq
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	id, err := h.svc.CreateUser(r.Context(), req.ToCmd(middleware.Actor(r.Context())))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, id)
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.Identity{}
	}
	response.OK(w, users)
}
