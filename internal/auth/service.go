// Package auth implementa signup/signin sobre puertos de storage, hashing y tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/hellochat/internal/jwt"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
	"github.com/dropDatabas3/hellochat/internal/security/password"
	"github.com/dropDatabas3/hellochat/internal/store"
	"github.com/dropDatabas3/hellochat/internal/util"
	"github.com/dropDatabas3/hellochat/internal/validation"
)

// CreateUser es el input de Signup. DisplayName vacío => Username.
type CreateUser struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// SignIn es el input de Signin.
type SignIn struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResult es la cuenta creada más su primer token.
type SignupResult struct {
	User  *store.User
	Token string
}

// Deps son los puertos del service. Todos menos Policy son obligatorios.
type Deps struct {
	Users    UserStore
	Hasher   PasswordHasher
	Issuer   TokenIssuer
	Verifier TokenVerifier
	// Policy nil => password.DefaultPolicy
	Policy *password.Policy
}

// Service implementa signup/signin. Es seguro para uso concurrente.
type Service struct {
	deps Deps
	// digest de referencia para el camino "email desconocido"
	dummyDigest string
}

const dummyPassword = "hellochat:dummy:not-a-password"

// New valida deps y precalcula el digest dummy de Signin.
func New(deps Deps) (*Service, error) {
	if deps.Users == nil || deps.Hasher == nil || deps.Issuer == nil || deps.Verifier == nil {
		return nil, errors.New("auth: incomplete deps")
	}
	if deps.Policy == nil {
		p := password.DefaultPolicy
		deps.Policy = &p
	}
	// con el mismo hasher para que el costo coincida con digests reales
	dummy, err := deps.Hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("auth: dummy digest: %w", err)
	}
	return &Service{deps: deps, dummyDigest: dummy}, nil
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Signup normaliza, valida, hashea y persiste la cuenta y emite un token.
// Email o username ya registrados devuelven ErrDuplicateAccount sin token.
func (s *Service) Signup(ctx context.Context, in CreateUser) (*SignupResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Signup"),
	)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if !validation.ValidUsername(in.Username) {
		return nil, fmt.Errorf("%w: username", ErrInvalidInput)
	}
	if !validation.ValidEmail(in.Email) {
		return nil, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if !validation.ValidDisplayName(in.DisplayName) {
		return nil, fmt.Errorf("%w: display_name", ErrInvalidInput)
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Username
	}
	if ok, reasons := s.deps.Policy.Validate(in.Password); !ok {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, password.Reasons(reasons))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	digest, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		log.Error("password hash failed", logger.Err(err))
		return nil, fmt.Errorf("%w: hash: %v", ErrPersistence, err)
	}

	u, err := s.deps.Users.CreateUser(ctx, store.NewUser{
		Username:     in.Username,
		DisplayName:  in.DisplayName,
		Email:        in.Email,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Debug("duplicate account", logger.Email(util.MaskEmail(in.Email)))
			return nil, ErrDuplicateAccount
		}
		log.Error("create user failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	log = log.With(logger.UserID(u.ID))

	tok, err := s.deps.Issuer.Generate(claimsFor(u))
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrTokenIssue, err)
	}

	log.Info("account created")
	return &SignupResult{User: u, Token: tok}, nil
}

// Signin devuelve un token nuevo. Email desconocido, password incorrecta y
// digest corrupto son todos ErrInvalidCredentials.
func (s *Service) Signin(ctx context.Context, in SignIn) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Signin"),
	)

	in.Email = normalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" {
		return "", ErrMissingFields
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	u, err := s.deps.Users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// mismo trabajo que con un usuario real
			_, _ = s.deps.Hasher.Verify(in.Password, s.dummyDigest)
			log.Debug("signin rejected", logger.Email(util.MaskEmail(in.Email)))
			return "", ErrInvalidCredentials
		}
		log.Error("user lookup failed", logger.Err(err))
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	log = log.With(logger.UserID(u.ID))

	ok, err := s.deps.Hasher.Verify(in.Password, u.PasswordHash)
	if err != nil {
		// digest corrupto en storage: para el cliente es lo mismo que password incorrecta
		log.Warn("stored digest unreadable", logger.Err(err))
		return "", ErrInvalidCredentials
	}
	if !ok {
		log.Debug("signin rejected")
		return "", ErrInvalidCredentials
	}

	tok, err := s.deps.Issuer.Generate(claimsFor(u))
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return "", fmt.Errorf("%w: %v", ErrTokenIssue, err)
	}
	log.Info("signin ok")
	return tok, nil
}

// VerifyBearerToken delega en el verifier. Los errores son los de internal/jwt.
func (s *Service) VerifyBearerToken(token string) (*jwt.Claims, error) {
	return s.deps.Verifier.Verify(token)
}

func claimsFor(u *store.User) jwt.Claims {
	return jwt.Claims{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email}
}
