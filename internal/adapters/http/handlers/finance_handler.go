package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"saccolink/internal/adapters/http/middleware"
	"saccolink/internal/core/services"
	"saccolink/internal/pkg/pagination"
	"saccolink/internal/pkg/response"
)

// FinanceHandler handles funding, expense and project endpoints
type FinanceHandler struct {
	financeService *services.FinanceService
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(financeService *services.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeService: financeService}
}

// CreateFundingSource handles funding source creation
func (h *FinanceHandler) CreateFundingSource(c *fiber.Ctx) error {
	var req services.FundingSourceInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SaccoID == 0 || req.Name == "" {
		return response.BadRequest(c, "Sacco ID and name are required")
	}

	p := middleware.GetPrincipal(c)
	source, err := h.financeService.CreateFundingSource(c.Context(), p, &req)
	if err != nil {
		return h.financeError(c, err, "Failed to create funding source")
	}

	return response.Created(c, "Funding source created successfully", source)
}

// ListFundingSources handles funding source listing
func (h *FinanceHandler) ListFundingSources(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	sources, err := h.financeService.ListFundingSources(c.Context(), p)
	if err != nil {
		return response.InternalServerError(c, "Failed to list funding sources")
	}
	return response.Success(c, "Funding sources retrieved successfully", sources)
}

// RecordFunding handles funding receipts
func (h *FinanceHandler) RecordFunding(c *fiber.Ctx) error {
	var req services.FundingInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SaccoID == 0 || req.SourceID == 0 {
		return response.BadRequest(c, "Sacco ID and source ID are required")
	}

	p := middleware.GetPrincipal(c)
	funding, err := h.financeService.RecordFunding(c.Context(), p, &req)
	if err != nil {
		return h.financeError(c, err, "Failed to record funding")
	}

	return response.Created(c, "Funding recorded successfully", funding)
}

// ListFundings handles funding listing
func (h *FinanceHandler) ListFundings(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	p := middleware.GetPrincipal(c)

	fundings, total, err := h.financeService.ListFundings(c.Context(), p, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list fundings")
	}
	return response.Success(c, "Fundings retrieved successfully", pagination.NewResponse(fundings, params, total))
}

// CreateExpenseCategory handles expense category creation
func (h *FinanceHandler) CreateExpenseCategory(c *fiber.Ctx) error {
	var req services.ExpenseCategoryInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SaccoID == 0 || req.Name == "" {
		return response.BadRequest(c, "Sacco ID and name are required")
	}

	p := middleware.GetPrincipal(c)
	category, err := h.financeService.CreateExpenseCategory(c.Context(), p, &req)
	if err != nil {
		return h.financeError(c, err, "Failed to create expense category")
	}

	return response.Created(c, "Expense category created successfully", category)
}

// ListExpenseCategories handles expense category listing
func (h *FinanceHandler) ListExpenseCategories(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	categories, err := h.financeService.ListExpenseCategories(c.Context(), p)
	if err != nil {
		return response.InternalServerError(c, "Failed to list expense categories")
	}
	return response.Success(c, "Expense categories retrieved successfully", categories)
}

// RecordExpense handles expense recording
func (h *FinanceHandler) RecordExpense(c *fiber.Ctx) error {
	var req services.ExpenseInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SaccoID == 0 || req.CategoryID == 0 {
		return response.BadRequest(c, "Sacco ID and category ID are required")
	}

	p := middleware.GetPrincipal(c)
	expense, err := h.financeService.RecordExpense(c.Context(), p, &req)
	if err != nil {
		return h.financeError(c, err, "Failed to record expense")
	}

	return response.Created(c, "Expense recorded successfully", expense)
}

// ListExpenses handles expense listing
func (h *FinanceHandler) ListExpenses(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	p := middleware.GetPrincipal(c)

	expenses, total, err := h.financeService.ListExpenses(c.Context(), p, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list expenses")
	}
	return response.Success(c, "Expenses retrieved successfully", pagination.NewResponse(expenses, params, total))
}

// CreateProject handles project creation
func (h *FinanceHandler) CreateProject(c *fiber.Ctx) error {
	var req services.ProjectInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SaccoID == 0 || req.Name == "" {
		return response.BadRequest(c, "Sacco ID and name are required")
	}

	p := middleware.GetPrincipal(c)
	project, err := h.financeService.CreateProject(c.Context(), p, &req)
	if err != nil {
		return h.financeError(c, err, "Failed to create project")
	}

	return response.Created(c, "Project created successfully", project)
}

// UpdateProjectStatus handles project status changes
func (h *FinanceHandler) UpdateProjectStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid project ID")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	p := middleware.GetPrincipal(c)
	project, err := h.financeService.UpdateProjectStatus(c.Context(), p, uint(id), req.Status)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			return response.NotFound(c, "Project not found")
		}
		return response.InternalServerError(c, "Failed to update project status")
	}

	return response.Success(c, "Project status updated successfully", project)
}

// ListProjects handles project listing
func (h *FinanceHandler) ListProjects(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	p := middleware.GetPrincipal(c)

	projects, total, err := h.financeService.ListProjects(c.Context(), p, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list projects")
	}
	return response.Success(c, "Projects retrieved successfully", pagination.NewResponse(projects, params, total))
}

// financeError maps the common finance errors to responses
func (h *FinanceHandler) financeError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrSaccoScopeMismatch):
		return response.Forbidden(c, "You cannot record finance entries in this sacco")
	case errors.Is(err, services.ErrInvalidFinanceAmount):
		return response.BadRequest(c, "Amount must be positive")
	default:
		return response.InternalServerError(c, fallback)
	}
}
