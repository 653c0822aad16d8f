package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/stagegate/stagegate-backend/internal/autherrs"
	"github.com/stagegate/stagegate-backend/internal/dto"
	"github.com/stagegate/stagegate-backend/internal/middleware"
	"github.com/stagegate/stagegate-backend/internal/services"
)

type AuthHandler struct {
	credentials *services.CredentialService
	oauth       *services.OAuthService
	sessions    *services.SessionService
}

func NewAuthHandler(credentials *services.CredentialService, oauth *services.OAuthService, sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{credentials: credentials, oauth: oauth, sessions: sessions}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	user, err := h.credentials.Register(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		if errors.Is(err, services.ErrPasswordTooShort) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		var authErr *autherrs.Error
		if errors.As(err, &authErr) {
			authErr.Email = req.Email
			authErr.Log()
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: autherrs.UserMessage(authErr.Kind),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	// No token yet: the account must confirm its email before it can sign in.
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user_id": user.ID,
		"message": "Registration successful. Verify your email to sign in.",
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	user, err := h.credentials.Verify(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.rejectSignIn(c, req.Email, err)
	}

	claims := h.sessions.IssueClaims(user)
	signed, err := h.sessions.SignToken(claims)
	if err != nil {
		var authErr *autherrs.Error
		if errors.As(err, &authErr) {
			authErr.UserID = user.ID.String()
			authErr.Log()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: autherrs.UserMessage(autherrs.KindJWTError),
		})
	}

	setSessionCookie(c, signed, claims.ExpiresAt)
	return c.JSON(dto.AuthResponse{Token: signed, Session: h.sessions.Project(claims)})
}

// rejectSignIn logs the real reason and returns the one generic rejection.
// Unknown email, wrong password, and unverified email are indistinguishable
// to the client.
func (h *AuthHandler) rejectSignIn(c *fiber.Ctx, email string, err error) error {
	kind := autherrs.KindCredentialsInvalid
	if errors.Is(err, services.ErrEmailNotVerified) {
		kind = autherrs.KindEmailNotVerified
	}
	var authErr *autherrs.Error
	if errors.As(err, &authErr) {
		kind = authErr.Kind
	}
	(&autherrs.Error{
		Kind:    kind,
		Message: "sign-in rejected",
		Err:     err,
		Email:   email,
		Route:   c.Path(),
	}).Log()
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: autherrs.UserMessage(autherrs.KindCredentialsInvalid),
	})
}

func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	provider := c.Params("provider")
	var req dto.OAuthCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	user, err := h.oauth.Resolve(c.UserContext(), services.ProviderIdentity{
		Provider:          provider,
		ProviderAccountID: req.ProviderAccountID,
		Email:             req.Email,
		Name:              req.Name,
		RawProfile:        c.Body(),
	})
	if err != nil {
		var authErr *autherrs.Error
		if errors.As(err, &authErr) {
			authErr.Provider = provider
			authErr.Email = req.Email
			authErr.Route = c.Path()
			authErr.Log()
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: autherrs.UserMessage(authErr.Kind),
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: autherrs.UserMessage(autherrs.KindOAuthFailed),
		})
	}

	claims := h.sessions.IssueClaims(user)
	signed, err := h.sessions.SignToken(claims)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: autherrs.UserMessage(autherrs.KindJWTError),
		})
	}

	setSessionCookie(c, signed, claims.ExpiresAt)
	return c.JSON(dto.AuthResponse{Token: signed, Session: h.sessions.Project(claims)})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.credentials.ConfirmEmail(c.UserContext(), req.Email); err != nil {
		var authErr *autherrs.Error
		if errors.As(err, &authErr) {
			authErr.Email = req.Email
			authErr.Log()
		}
		// Do not reveal whether the email exists.
		return c.JSON(fiber.Map{"message": "If the account exists, its email is now verified."})
	}
	return c.JSON(fiber.Map{"message": "If the account exists, its email is now verified."})
}

// Session runs after SessionRefresh and returns the projected client view of
// the (possibly refreshed) claims.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	claims, ok := middleware.RefreshedClaims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	return c.JSON(h.sessions.Project(claims))
}

// Logout clears the session cookie; the token itself simply ages out.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.ClearCookie(middleware.SessionCookie)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
