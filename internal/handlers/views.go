package handlers

import (
	"time"

	"authgate/api/internal/models"
)

type userView struct {
	UserID       string     `json:"user_id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Picture      *string    `json:"picture"`
	AuthProvider string     `json:"auth_provider"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func newUserView(u models.User) userView {
	return userView{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		Picture:      u.Picture,
		AuthProvider: string(u.AuthProvider),
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
	}
}

type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        userView `json:"user"`
}

func newTokenResponse(token string, u models.User) tokenResponse {
	return tokenResponse{AccessToken: token, TokenType: "bearer", User: newUserView(u)}
}

type messageResponse struct {
	Message string `json:"message"`
}
