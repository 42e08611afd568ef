package handlers

import (
	"net/http"

	"pharmatrack/internal/common"
	"pharmatrack/internal/models"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LeadHandlers serves the lead endpoints (organizer or agent).
type LeadHandlers struct {
	leadRepo  repositories.LeadRepository
	staffRepo repositories.StaffRepository
}

func NewLeadHandlers(leadRepo repositories.LeadRepository, staffRepo repositories.StaffRepository) *LeadHandlers {
	return &LeadHandlers{leadRepo: leadRepo, staffRepo: staffRepo}
}

type LeadRequest struct {
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	City            string  `json:"city"`
	Notes           string  `json:"notes"`
	CategoryID      *string `json:"category_id"`
	AssignedStaffID *string `json:"assigned_staff_id"`
}

// assignedStaff resolves the assigned staff for a write. Staff callers always
// work on rows assigned to themselves; the organizer may pick any staff
// member, checked for membership in the organization. On failure the
// response has already been written.
func assignedStaff(c echo.Context, staffRepo repositories.StaffRepository, id scope.Identity, requested *string) (*uuid.UUID, bool) {
	if id.Role != scope.RoleOrganizer {
		return id.StaffID, true
	}
	if requested == nil || *requested == "" {
		return nil, true
	}
	staffID, err := common.ValidateUUID(*requested, "assigned_staff_id")
	if err != nil {
		common.SendValidationError(c, "assigned_staff_id", err.Error())
		return nil, false
	}
	if _, err := staffRepo.GetByID(c.Request().Context(), id.OrganizationID, staffID); err != nil {
		if notFound(err) {
			common.SendNotFoundError(c, "Staff member")
		} else {
			common.SendServerError(c, "Failed to load staff member")
		}
		return nil, false
	}
	return &staffID, true
}

func optionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := common.ValidateUUID(*raw, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (h *LeadHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req LeadRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.FirstName, "first_name"); err != nil {
		return common.SendValidationError(c, "first_name", err.Error())
	}
	assignedTo, ok := assignedStaff(c, h.staffRepo, id, req.AssignedStaffID)
	if !ok {
		return nil
	}
	categoryID, err := optionalUUID(req.CategoryID, "category_id")
	if err != nil {
		return common.SendValidationError(c, "category_id", err.Error())
	}

	lead := &models.Lead{
		ID:              uuid.New(),
		OrganizationID:  id.OrganizationID,
		AssignedStaffID: assignedTo,
		CategoryID:      categoryID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		City:            req.City,
		Notes:           req.Notes,
	}
	if err := h.leadRepo.Create(ctx, lead); err != nil {
		return common.SendServerError(c, "Failed to create lead")
	}
	return c.JSON(http.StatusCreated, lead)
}

func (h *LeadHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.leadRepo.Count(ctx, sc, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count leads")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	leads, err := h.leadRepo.List(ctx, sc, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list leads")
	}
	return c.JSON(http.StatusOK, listResponse{Data: leads, Page: page})
}

func (h *LeadHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	lead, err := h.leadRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Lead")
		}
		return common.SendServerError(c, "Failed to load lead")
	}
	return c.JSON(http.StatusOK, lead)
}

func (h *LeadHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req LeadRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.FirstName, "first_name"); err != nil {
		return common.SendValidationError(c, "first_name", err.Error())
	}
	assignedTo, ok := assignedStaff(c, h.staffRepo, id, req.AssignedStaffID)
	if !ok {
		return nil
	}
	categoryID, err := optionalUUID(req.CategoryID, "category_id")
	if err != nil {
		return common.SendValidationError(c, "category_id", err.Error())
	}

	lead, err := h.leadRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Lead")
		}
		return common.SendServerError(c, "Failed to load lead")
	}

	lead.AssignedStaffID = assignedTo
	lead.CategoryID = categoryID
	lead.FirstName = req.FirstName
	lead.LastName = req.LastName
	lead.Email = req.Email
	lead.Phone = req.Phone
	lead.City = req.City
	lead.Notes = req.Notes

	if err := h.leadRepo.Update(ctx, sc, lead); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Lead")
		}
		return common.SendServerError(c, "Failed to update lead")
	}
	return c.JSON(http.StatusOK, lead)
}

func (h *LeadHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.leadRepo.Delete(ctx, sc, c.Param("slug")); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Lead")
		}
		return common.SendServerError(c, "Failed to delete lead")
	}
	return c.NoContent(http.StatusNoContent)
}
