package auth

import (
	"context"

	"github.com/dropDatabas3/hellochat/internal/jwt"
	"github.com/dropDatabas3/hellochat/internal/store"
)

// UserStore es lo mínimo que el service necesita del storage.
type UserStore interface {
	CreateUser(ctx context.Context, u store.NewUser) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

// PasswordHasher lo implementa password.Hasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

// TokenIssuer lo implementa jwt.TokenIssuer.
type TokenIssuer interface {
	Generate(c jwt.Claims) (string, error)
}

// TokenVerifier lo implementa jwt.TokenVerifier.
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}
