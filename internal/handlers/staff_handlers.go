package handlers

import (
	"errors"
	"net/http"

	"pharmatrack/internal/common"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"
	"pharmatrack/internal/services"

	"github.com/labstack/echo/v4"
)

// StaffHandlers serves the organizer-only staff management endpoints.
type StaffHandlers struct {
	staffService services.StaffService
	orgRepo      repositories.OrganizationRepository
}

func NewStaffHandlers(staffService services.StaffService, orgRepo repositories.OrganizationRepository) *StaffHandlers {
	return &StaffHandlers{staffService: staffService, orgRepo: orgRepo}
}

type StaffRequest struct {
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (h *StaffHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req StaffRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Email, "email"); err != nil {
		return common.SendValidationError(c, "email", err.Error())
	}
	if err := common.ValidateRequiredString(req.FirstName, "first_name"); err != nil {
		return common.SendValidationError(c, "first_name", err.Error())
	}
	role, err := scope.ParseRole(req.Role)
	if err != nil || !role.StaffRole() {
		return common.SendValidationError(c, "role", "role must be agent, pharmacist or management")
	}

	org, err := h.orgRepo.GetByID(ctx, id.OrganizationID)
	if err != nil {
		return common.SendServerError(c, "Failed to load organization")
	}

	staff, err := h.staffService.Invite(ctx, id.OrganizationID, org.Name, services.InviteStaffInput{
		Role:      role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			return common.SendConflictError(c, "email already exists")
		}
		return common.SendServerError(c, "Failed to create staff")
	}
	return c.JSON(http.StatusCreated, staff)
}

func (h *StaffHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.staffService.Count(ctx, id.OrganizationID, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count staff")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	staff, err := h.staffService.List(ctx, id.OrganizationID, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list staff")
	}
	return c.JSON(http.StatusOK, listResponse{Data: staff, Page: page})
}

func (h *StaffHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	staff, err := h.staffService.GetBySlug(ctx, id.OrganizationID, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Staff")
		}
		return common.SendServerError(c, "Failed to load staff")
	}
	return c.JSON(http.StatusOK, staff)
}

func (h *StaffHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req StaffRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	role, err := scope.ParseRole(req.Role)
	if err != nil || !role.StaffRole() {
		return common.SendValidationError(c, "role", "role must be agent, pharmacist or management")
	}

	staff, err := h.staffService.Update(ctx, id.OrganizationID, c.Param("slug"), services.UpdateStaffInput{
		Role:      role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Staff")
		}
		if errors.Is(err, services.ErrEmailExists) {
			return common.SendConflictError(c, "email already exists")
		}
		return common.SendServerError(c, "Failed to update staff")
	}
	return c.JSON(http.StatusOK, staff)
}

func (h *StaffHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.staffService.Delete(ctx, id.OrganizationID, c.Param("slug")); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Staff")
		}
		return common.SendServerError(c, "Failed to delete staff")
	}
	return c.NoContent(http.StatusNoContent)
}
