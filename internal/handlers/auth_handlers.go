package handlers

import (
	"errors"
	"net/http"

	"pharmatrack/internal/common"
	"pharmatrack/internal/models"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/services"

	"github.com/labstack/echo/v4"
)

type AuthHandlers struct {
	authService    services.AuthService
	accountService services.AccountService
	userRepo       repositories.UserRepository
	orgRepo        repositories.OrganizationRepository
}

func NewAuthHandlers(authService services.AuthService, accountService services.AccountService,
	userRepo repositories.UserRepository, orgRepo repositories.OrganizationRepository) *AuthHandlers {
	return &AuthHandlers{
		authService:    authService,
		accountService: accountService,
		userRepo:       userRepo,
		orgRepo:        orgRepo,
	}
}

type SignupRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	OrganizationName string `json:"organization_name"`
}

type SignupResponse struct {
	services.TokenPair
	User         *models.User         `json:"user"`
	Organization *models.Organization `json:"organization"`
}

// Signup registers an organizer and its organization in one transaction.
func (h *AuthHandlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	for field, value := range map[string]string{
		"email":             req.Email,
		"password":          req.Password,
		"first_name":        req.FirstName,
		"organization_name": req.OrganizationName,
	} {
		if err := common.ValidateRequiredString(value, field); err != nil {
			return common.SendValidationError(c, field, err.Error())
		}
	}

	user, org, err := h.accountService.Signup(ctx, services.SignupInput{
		Email:            req.Email,
		Password:         req.Password,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			return common.SendConflictError(c, "email already exists")
		}
		return common.SendServerError(c, "Failed to sign up")
	}

	tokens, err := h.authService.GenerateTokens(ctx, user.ID)
	if err != nil {
		return common.SendServerError(c, "Failed to generate tokens")
	}

	return c.JSON(http.StatusCreated, SignupResponse{TokenPair: *tokens, User: user, Organization: org})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	services.TokenPair
	User *models.User `json:"user"`
}

func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return common.SendClientError(c, "Email and password are required")
	}

	user, err := h.accountService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return common.SendUnauthorizedError(c)
		}
		return common.SendServerError(c, "Failed to log in")
	}

	tokens, err := h.authService.GenerateTokens(ctx, user.ID)
	if err != nil {
		return common.SendServerError(c, "Failed to generate tokens")
	}

	return c.JSON(http.StatusOK, LoginResponse{TokenPair: *tokens, User: user})
}

type RefreshRequest struct {
	UserID       string `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandlers) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	userID, err := common.ValidateUUID(req.UserID, "user_id")
	if err != nil {
		return common.SendValidationError(c, "user_id", err.Error())
	}
	if req.RefreshToken == "" {
		return common.SendValidationError(c, "refresh_token", "refresh_token is required")
	}

	tokens, err := h.authService.Refresh(ctx, userID, req.RefreshToken)
	if err != nil {
		return common.SendUnauthorizedError(c)
	}
	return c.JSON(http.StatusOK, tokens)
}

type MeResponse struct {
	User         *models.User         `json:"user"`
	Organization *models.Organization `json:"organization"`
	Role         string               `json:"role"`
}

// Me returns the authenticated caller's account, organization and role.
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	user, err := h.userRepo.GetByID(ctx, id.UserID)
	if err != nil {
		return common.SendUnauthorizedError(c)
	}
	org, err := h.orgRepo.GetByID(ctx, id.OrganizationID)
	if err != nil {
		return common.SendServerError(c, "Failed to load organization")
	}

	return c.JSON(http.StatusOK, MeResponse{User: user, Organization: org, Role: string(id.Role)})
}

// Logout revokes the caller's refresh token. Access tokens stay valid until
// they expire.
func (h *AuthHandlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.authService.Revoke(ctx, id.UserID); err != nil {
		return common.SendServerError(c, "Failed to log out")
	}
	return c.NoContent(http.StatusNoContent)
}
