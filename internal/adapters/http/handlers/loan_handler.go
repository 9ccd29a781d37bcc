package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"saccolink/internal/adapters/http/middleware"
	"saccolink/internal/core/services"
	"saccolink/internal/pkg/pagination"
	"saccolink/internal/pkg/response"
)

// LoanHandler handles loan lifecycle endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateProduct handles loan product creation
func (h *LoanHandler) CreateProduct(c *fiber.Ctx) error {
	var req services.LoanProductInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SaccoID == 0 {
		return response.BadRequest(c, "Sacco ID is required")
	}
	if req.Name == "" || req.ProductCode == "" {
		return response.BadRequest(c, "Product name and code are required")
	}

	p := middleware.GetPrincipal(c)
	product, err := h.loanService.CreateProduct(c.Context(), p, &req)
	if err != nil {
		if errors.Is(err, services.ErrSaccoScopeMismatch) {
			return response.Forbidden(c, "You cannot create products in this sacco")
		}
		return response.InternalServerError(c, "Failed to create loan product")
	}

	return response.Created(c, "Loan product created successfully", product)
}

// ListProducts handles loan product listing
func (h *LoanHandler) ListProducts(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	products, err := h.loanService.ListProducts(c.Context(), p)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loan products")
	}

	return response.Success(c, "Loan products retrieved successfully", products)
}

// Apply handles loan applications
func (h *LoanHandler) Apply(c *fiber.Ctx) error {
	var req services.ApplyInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.MemberID == 0 || req.ProductID == 0 {
		return response.BadRequest(c, "Member ID and product ID are required")
	}
	if req.Amount <= 0 {
		return response.BadRequest(c, "Amount must be positive")
	}
	if req.DurationMonths <= 0 {
		return response.BadRequest(c, "Duration must be positive")
	}

	p := middleware.GetPrincipal(c)
	loan, err := h.loanService.Apply(c.Context(), p, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrLoanProductNotFound):
			return response.NotFound(c, "Loan product not found")
		case errors.Is(err, services.ErrLoanProductInactive):
			return response.BadRequest(c, "Loan product is not available")
		case errors.Is(err, services.ErrInvalidLoanAmount):
			return response.BadRequest(c, "Amount outside allowed limits")
		case errors.Is(err, services.ErrInvalidLoanDuration):
			return response.BadRequest(c, "Duration outside allowed limits")
		default:
			return response.InternalServerError(c, "Failed to submit loan application")
		}
	}

	return response.Created(c, "Loan application submitted successfully", loan)
}

// Get handles single loan retrieval
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid loan ID")
	}

	p := middleware.GetPrincipal(c)
	loan, err := h.loanService.GetLoan(c.Context(), p, uint(id))
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", loan)
}

// List handles loan listing, optionally filtered by status
func (h *LoanHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := c.Query("status")
	p := middleware.GetPrincipal(c)

	loans, total, err := h.loanService.ListLoans(c.Context(), p, status, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, params, total))
}

// Approve handles loan approval
func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req services.ApproveInput
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	p := middleware.GetPrincipal(c)
	loan, err := h.loanService.Approve(c.Context(), p, uint(id), &req)
	if err != nil {
		return h.loanError(c, err, "Failed to approve loan")
	}

	return response.Success(c, "Loan approved successfully", loan)
}

// Decline handles loan rejection
func (h *LoanHandler) Decline(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	p := middleware.GetPrincipal(c)
	loan, err := h.loanService.Decline(c.Context(), p, uint(id), req.Reason)
	if err != nil {
		return h.loanError(c, err, "Failed to decline loan")
	}

	return response.Success(c, "Loan declined", loan)
}

// Withdraw handles application withdrawal
func (h *LoanHandler) Withdraw(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid loan ID")
	}

	p := middleware.GetPrincipal(c)
	loan, err := h.loanService.Withdraw(c.Context(), p, uint(id))
	if err != nil {
		return h.loanError(c, err, "Failed to withdraw loan")
	}

	return response.Success(c, "Loan application withdrawn", loan)
}

// Disburse handles loan disbursement
func (h *LoanHandler) Disburse(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req services.DisburseInput
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	p := middleware.GetPrincipal(c)
	loan, err := h.loanService.Disburse(c.Context(), p, uint(id), &req)
	if err != nil {
		return h.loanError(c, err, "Failed to disburse loan")
	}

	return response.Success(c, "Loan disbursed successfully", loan)
}

// WriteOff handles loan write-off
func (h *LoanHandler) WriteOff(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid loan ID")
	}

	p := middleware.GetPrincipal(c)
	loan, err := h.loanService.WriteOff(c.Context(), p, uint(id))
	if err != nil {
		return h.loanError(c, err, "Failed to write off loan")
	}

	return response.Success(c, "Loan written off", loan)
}

// MarkDefaulted handles flagging a loan as defaulted
func (h *LoanHandler) MarkDefaulted(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid loan ID")
	}

	p := middleware.GetPrincipal(c)
	loan, err := h.loanService.MarkDefaulted(c.Context(), p, uint(id))
	if err != nil {
		return h.loanError(c, err, "Failed to mark loan defaulted")
	}

	return response.Success(c, "Loan marked as defaulted", loan)
}

// AddRepayment handles repayment postings
func (h *LoanHandler) AddRepayment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req services.RepaymentInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	p := middleware.GetPrincipal(c)
	repayment, loan, err := h.loanService.AddRepayment(c.Context(), p, uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, services.ErrLoanClosed):
			return response.BadRequest(c, "Loan is already closed")
		case errors.Is(err, services.ErrLoanNotRepayable):
			return response.BadRequest(c, "Loan is not accepting repayments")
		case errors.Is(err, services.ErrInvalidRepayment):
			return response.BadRequest(c, "Invalid repayment amount")
		case errors.Is(err, services.ErrRepaymentSplitExceeds):
			return response.BadRequest(c, "Principal and interest split exceeds repayment amount")
		case errors.Is(err, services.ErrDuplicateMobileTxID):
			return response.Conflict(c, "Mobile money transaction already recorded")
		default:
			return response.InternalServerError(c, "Failed to record repayment")
		}
	}

	return response.Created(c, "Repayment recorded successfully", fiber.Map{
		"repayment": repayment,
		"loan":      loan,
	})
}

// ListRepayments handles listing a loan's repayments
func (h *LoanHandler) ListRepayments(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid loan ID")
	}

	p := middleware.GetPrincipal(c)
	repayments, err := h.loanService.ListRepayments(c.Context(), p, uint(id))
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to list repayments")
	}

	return response.Success(c, "Repayments retrieved successfully", repayments)
}

// Balance handles remaining-balance retrieval
func (h *LoanHandler) Balance(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid loan ID")
	}

	p := middleware.GetPrincipal(c)
	loan, balance, err := h.loanService.LoanBalance(c.Context(), p, uint(id))
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to get loan balance")
	}

	return response.Success(c, "Loan balance retrieved successfully", fiber.Map{
		"loan_number":       loan.LoanNumber,
		"status":            loan.Status,
		"total_amount":      loan.TotalAmount(),
		"remaining_balance": balance,
	})
}

// loanError maps common lifecycle errors to responses
func (h *LoanHandler) loanError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrLoanNotFound):
		return response.NotFound(c, "Loan not found")
	case errors.Is(err, services.ErrInvalidLoanTransition):
		return response.UnprocessableEntity(c, "Loan cannot move to that status")
	default:
		return response.InternalServerError(c, fallback)
	}
}
