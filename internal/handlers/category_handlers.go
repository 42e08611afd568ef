package handlers

import (
	"net/http"

	"pharmatrack/internal/common"
	"pharmatrack/internal/models"
	"pharmatrack/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CategoryHandlers serves the organizer-only lead category endpoints.
type CategoryHandlers struct {
	categoryRepo repositories.CategoryRepository
}

func NewCategoryHandlers(categoryRepo repositories.CategoryRepository) *CategoryHandlers {
	return &CategoryHandlers{categoryRepo: categoryRepo}
}

type CategoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoryHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	category := &models.Category{
		ID:             uuid.New(),
		OrganizationID: id.OrganizationID,
		Name:           req.Name,
	}
	if err := h.categoryRepo.Create(ctx, category); err != nil {
		return common.SendServerError(c, "Failed to create category")
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.categoryRepo.Count(ctx, id.OrganizationID, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count categories")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	categories, err := h.categoryRepo.List(ctx, id.OrganizationID, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list categories")
	}
	return c.JSON(http.StatusOK, listResponse{Data: categories, Page: page})
}

func (h *CategoryHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	category, err := h.categoryRepo.GetBySlug(ctx, id.OrganizationID, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Category")
		}
		return common.SendServerError(c, "Failed to load category")
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	category, err := h.categoryRepo.GetBySlug(ctx, id.OrganizationID, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Category")
		}
		return common.SendServerError(c, "Failed to load category")
	}

	category.Name = req.Name
	if err := h.categoryRepo.Update(ctx, category); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Category")
		}
		return common.SendServerError(c, "Failed to update category")
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.categoryRepo.Delete(ctx, id.OrganizationID, c.Param("slug")); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Category")
		}
		return common.SendServerError(c, "Failed to delete category")
	}
	return c.NoContent(http.StatusNoContent)
}
