// Package auth contiene el controller HTTP de signup/signin.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellochat/internal/auth"
	"github.com/dropDatabas3/hellochat/internal/http/dto"
	httperrors "github.com/dropDatabas3/hellochat/internal/http/errors"
	"github.com/dropDatabas3/hellochat/internal/http/helpers"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
)

// Service es lo que el controller usa de auth.Service.
type Service interface {
	Signup(ctx context.Context, in auth.CreateUser) (*auth.SignupResult, error)
	Signin(ctx context.Context, in auth.SignIn) (string, error)
}

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Signup maneja POST /api/signup. 201 con {token, user}.
func (c *Controller) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Component("auth"), logger.Op("Signup"))

	var req dto.SignupRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Signup(ctx, auth.CreateUser{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeAuthError(w, log, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.SignupResponse{
		Token: res.Token,
		User:  dto.NewUserView(res.User),
	})
}

// Signin maneja POST /api/signin. 200 con {token}.
func (c *Controller) Signin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Component("auth"), logger.Op("Signin"))

	var req dto.SigninRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	tok, err := c.service.Signin(ctx, auth.SignIn{Email: req.Email, Password: req.Password})
	if err != nil {
		writeAuthError(w, log, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SigninResponse{Token: tok})
}

// writeAuthError mapea errores del service a HTTP.
func writeAuthError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, auth.ErrInvalidInput):
		httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithDetail(detail(err, auth.ErrInvalidInput)))
	case errors.Is(err, auth.ErrWeakPassword):
		httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(detail(err, auth.ErrWeakPassword)))
	case errors.Is(err, auth.ErrDuplicateAccount):
		httperrors.WriteError(w, httperrors.ErrEmailAlreadyInUse)
	case errors.Is(err, auth.ErrInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
	default:
		log.Error("auth request failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}

// detail devuelve lo que el service agregó después del sentinel ("auth: invalid input: email" => "email").
func detail(err, sentinel error) string {
	return strings.TrimPrefix(strings.TrimPrefix(err.Error(), sentinel.Error()), ": ")
}
