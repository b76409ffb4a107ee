package user

import (
	"errors"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already taken")
)

// Summary is the public shape embedded in register/login/user responses.
// created_at is only present on the /user endpoint.
type Summary struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (u User) Summary() Summary {
	return Summary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

func (u User) SummaryWithCreatedAt() Summary {
	createdAt := u.CreatedAt

	return Summary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: &createdAt,
	}
}

type RegisterRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
}

func (RegisterRequest) Messages() map[string]string {
	return map[string]string{
		"password_confirmation.eqfield": "The password confirmation does not match.",
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
