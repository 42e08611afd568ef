package handlers

import (
	"net/http"
	"time"

	"pharmatrack/internal/common"
	"pharmatrack/internal/models"
	"pharmatrack/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AttendanceHandlers serves attendance records (organizer or management).
type AttendanceHandlers struct {
	attendanceRepo repositories.AttendanceRepository
	staffRepo      repositories.StaffRepository
}

func NewAttendanceHandlers(attendanceRepo repositories.AttendanceRepository, staffRepo repositories.StaffRepository) *AttendanceHandlers {
	return &AttendanceHandlers{attendanceRepo: attendanceRepo, staffRepo: staffRepo}
}

type AttendanceRequest struct {
	AssignedStaffID string     `json:"assigned_staff_id"`
	Date            time.Time  `json:"date"`
	CheckIn         *time.Time `json:"check_in"`
	CheckOut        *time.Time `json:"check_out"`
}

func (h *AttendanceHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req AttendanceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Date.IsZero() {
		return common.SendValidationError(c, "date", "date is required")
	}
	staffID, err := common.ValidateUUID(req.AssignedStaffID, "assigned_staff_id")
	if err != nil {
		return common.SendValidationError(c, "assigned_staff_id", err.Error())
	}

	// The staff member must belong to the caller's organization.
	if _, err := h.staffRepo.GetByID(ctx, id.OrganizationID, staffID); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Staff member")
		}
		return common.SendServerError(c, "Failed to load staff member")
	}

	att := &models.Attendance{
		ID:              uuid.New(),
		OrganizationID:  id.OrganizationID,
		AssignedStaffID: &staffID,
		Date:            req.Date,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
	}
	if err := h.attendanceRepo.Create(ctx, att); err != nil {
		return common.SendServerError(c, "Failed to create attendance record")
	}
	return c.JSON(http.StatusCreated, att)
}

func (h *AttendanceHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.attendanceRepo.Count(ctx, sc, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count attendance records")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	recs, err := h.attendanceRepo.List(ctx, sc, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list attendance records")
	}
	return c.JSON(http.StatusOK, listResponse{Data: recs, Page: page})
}

func (h *AttendanceHandlers) Get(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	att, err := h.attendanceRepo.GetBySlug(c.Request().Context(), sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Attendance record")
		}
		return common.SendServerError(c, "Failed to load attendance record")
	}
	return c.JSON(http.StatusOK, att)
}

func (h *AttendanceHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req AttendanceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Date.IsZero() {
		return common.SendValidationError(c, "date", "date is required")
	}

	att, err := h.attendanceRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Attendance record")
		}
		return common.SendServerError(c, "Failed to load attendance record")
	}

	if req.AssignedStaffID != "" {
		staffID, err := common.ValidateUUID(req.AssignedStaffID, "assigned_staff_id")
		if err != nil {
			return common.SendValidationError(c, "assigned_staff_id", err.Error())
		}
		if _, err := h.staffRepo.GetByID(ctx, id.OrganizationID, staffID); err != nil {
			if notFound(err) {
				return common.SendNotFoundError(c, "Staff member")
			}
			return common.SendServerError(c, "Failed to load staff member")
		}
		att.AssignedStaffID = &staffID
	}
	att.Date = req.Date
	att.CheckIn = req.CheckIn
	att.CheckOut = req.CheckOut

	if err := h.attendanceRepo.Update(ctx, sc, att); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Attendance record")
		}
		return common.SendServerError(c, "Failed to update attendance record")
	}
	return c.JSON(http.StatusOK, att)
}

func (h *AttendanceHandlers) Delete(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.attendanceRepo.Delete(c.Request().Context(), sc, c.Param("slug")); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Attendance record")
		}
		return common.SendServerError(c, "Failed to delete attendance record")
	}
	return c.NoContent(http.StatusNoContent)
}
