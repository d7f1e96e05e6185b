package handler

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"examroom/internal/config"
	"examroom/internal/dto"
	"examroom/internal/logger"
	"examroom/internal/middleware"
	"examroom/internal/service"
	"examroom/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const oauthStateCookieName = "oauthstate"

// AuthHandler handles login and token endpoints.
type AuthHandler struct {
	authService service.AuthService
	validator   *validation.Validator
	appConfig   *config.Config
}

func NewAuthHandler(authService service.AuthService, validator *validation.Validator, appConfig *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
		appConfig:   appConfig,
	}
}

// Login authenticates a student with login code, password and device fingerprint.
// @Summary Student login
// @Description Authenticates a student and binds the device fingerprint on first login.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login payload"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse "Invalid credentials"
// @Failure 403 {object} middleware.ErrorResponse "Device bound to another account"
// @Failure 404 {object} middleware.ErrorResponse "Unknown login ID"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := h.validator.ValidateLoginRequest(req); len(errs) > 0 {
		return errs
	}

	resp, err := h.authService.Login(c.Context(), req.LoginID, req.Password, req.Fingerprint)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Refresh exchanges a refresh token for a new token pair.
// @Summary Refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshRequest true "Refresh payload"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	tokens, err := h.authService.RefreshToken(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(tokens)
}

// Logout ends the session. Tokens are stateless, so the server only logs the
// event; the client discards its token pair.
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if userID := middleware.RequesterID(c); userID != "" {
		logger.Get().Info("User logout", zap.String("userID", userID))
	}
	return c.JSON(fiber.Map{"message": "Logged out. Discard your tokens."})
}

// GoogleLogin initiates the admin Google OAuth2 login flow.
// @Summary Initiate Google Login
// @Description Redirects the administrator to Google's OAuth2 consent page.
// @Tags auth
// @Success 307 {string} string "Redirects to Google"
// @Router /auth/google/login [get]
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	appLogger := logger.Get()
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		appLogger.Error("Failed to generate random state for OAuth", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(middleware.ErrorResponse{
			Code: "OAUTH_STATE_GENERATION_ERROR", Message: "Could not generate state for OAuth flow", Status: fiber.StatusInternalServerError,
		})
	}
	state := base64.URLEncoding.EncodeToString(b)

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   c.Secure(),
		SameSite: "Lax",
		Path:     "/",
	})

	return c.Redirect(h.authService.GetGoogleLoginURL(state), fiber.StatusTemporaryRedirect)
}

// GoogleCallback handles the callback from Google OAuth2.
// @Summary Google OAuth2 Callback
// @Description Completes admin authentication after Google login and issues JWTs.
// @Tags auth
// @Param code query string true "Authorization code from Google"
// @Param state query string true "State string for CSRF protection"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid state or code"
// @Failure 403 {object} middleware.ErrorResponse "Email not on the admin allow-list"
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	expectedState := c.Cookies(oauthStateCookieName)
	if code == "" || state == "" || expectedState == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing code or state")
	}

	c.Cookie(&fiber.Cookie{
		Name:    oauthStateCookieName,
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
		Path:    "/",
	})

	resp, err := h.authService.HandleGoogleCallback(c.Context(), code, state, expectedState)
	if err != nil {
		logger.Get().Warn("Google callback failed", zap.Error(err))
		return err
	}
	return c.JSON(resp)
}
