// Package dto define los cuerpos de request/response de la API del chat-server.
package dto

import (
	"time"

	"github.com/dropDatabas3/hellochat/internal/store"
)

// SignupRequest es el body de POST /api/signup.
type SignupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// SigninRequest es el body de POST /api/signin.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserView es el usuario tal como sale por la API: sin digest.
type UserView struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewUserView(u *store.User) UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
	}
}

type SignupResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type SigninResponse struct {
	Token string `json:"token"`
}
