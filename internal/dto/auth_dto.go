package dto

import "time"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
}

type OAuthCallbackRequest struct {
	ProviderAccountID string `json:"provider_account_id"`
	Email             string `json:"email"`
	Name              string `json:"name,omitempty"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// Session is the client-facing projection of the signed claims.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsOAuth   bool      `json:"is_oauth"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthResponse struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
