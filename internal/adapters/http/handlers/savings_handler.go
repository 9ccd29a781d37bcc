package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"saccolink/internal/adapters/http/middleware"
	"saccolink/internal/core/services"
	"saccolink/internal/pkg/pagination"
	"saccolink/internal/pkg/response"
)

// SavingsHandler handles savings endpoints
type SavingsHandler struct {
	savingsService *services.SavingsService
}

// NewSavingsHandler creates a new savings handler
func NewSavingsHandler(savingsService *services.SavingsService) *SavingsHandler {
	return &SavingsHandler{savingsService: savingsService}
}

// CreateProduct handles saving product creation
func (h *SavingsHandler) CreateProduct(c *fiber.Ctx) error {
	var req services.SavingProductInput
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
	product, err := h.savingsService.CreateProduct(c.Context(), p, &req)
	if err != nil {
		if errors.Is(err, services.ErrSaccoScopeMismatch) {
			return response.Forbidden(c, "You cannot create products in this sacco")
		}
		return response.InternalServerError(c, "Failed to create saving product")
	}

	return response.Created(c, "Saving product created successfully", product)
}

// ListProducts handles saving product listing
func (h *SavingsHandler) ListProducts(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	products, err := h.savingsService.ListProducts(c.Context(), p)
	if err != nil {
		return response.InternalServerError(c, "Failed to list saving products")
	}

	return response.Success(c, "Saving products retrieved successfully", products)
}

// OpenAccount handles savings account opening
func (h *SavingsHandler) OpenAccount(c *fiber.Ctx) error {
	var req services.OpenAccountInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.MemberID == 0 || req.ProductID == 0 {
		return response.BadRequest(c, "Member ID and product ID are required")
	}

	p := middleware.GetPrincipal(c)
	account, err := h.savingsService.OpenAccount(c.Context(), p, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrSavingProductNotFound):
			return response.NotFound(c, "Saving product not found")
		case errors.Is(err, services.ErrSavingProductInactive):
			return response.BadRequest(c, "Saving product is not available")
		default:
			return response.InternalServerError(c, "Failed to open account")
		}
	}

	return response.Created(c, "Savings account opened successfully", account)
}

// GetAccount handles single account retrieval
func (h *SavingsHandler) GetAccount(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid account ID")
	}

	p := middleware.GetPrincipal(c)
	account, err := h.savingsService.GetAccount(c.Context(), p, uint(id))
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to get account")
	}

	return response.Success(c, "Account retrieved successfully", account)
}

// ListAccounts handles account listing
func (h *SavingsHandler) ListAccounts(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	p := middleware.GetPrincipal(c)

	accounts, total, err := h.savingsService.ListAccounts(c.Context(), p, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list accounts")
	}

	return response.Success(c, "Accounts retrieved successfully", pagination.NewResponse(accounts, params, total))
}

// SetAccountStatus handles freezing, closing and reopening accounts
func (h *SavingsHandler) SetAccountStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid account ID")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	p := middleware.GetPrincipal(c)
	account, err := h.savingsService.SetAccountStatus(c.Context(), p, uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			return response.NotFound(c, "Account not found")
		case errors.Is(err, services.ErrInvalidAccountStatus):
			return response.BadRequest(c, "Invalid account status")
		default:
			return response.InternalServerError(c, "Failed to update account status")
		}
	}

	return response.Success(c, "Account status updated successfully", account)
}

// PostTransaction handles deposits, withdrawals and the other ledger entries
func (h *SavingsHandler) PostTransaction(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid account ID")
	}

	var req services.PostTransactionInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	p := middleware.GetPrincipal(c)
	txn, err := h.savingsService.PostTransaction(c.Context(), p, uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			return response.NotFound(c, "Account not found")
		case errors.Is(err, services.ErrAccountNotOpen):
			return response.BadRequest(c, "Account is not open")
		case errors.Is(err, services.ErrInvalidTxnType):
			return response.BadRequest(c, "Invalid transaction type")
		case errors.Is(err, services.ErrInvalidTxnAmount):
			return response.BadRequest(c, "Transaction amount must be positive")
		case errors.Is(err, services.ErrInsufficientBalance):
			return response.UnprocessableEntity(c, "Insufficient balance")
		default:
			return response.InternalServerError(c, "Failed to post transaction")
		}
	}

	return response.Created(c, "Transaction posted successfully", txn)
}

// ListTransactions handles listing an account's ledger entries
func (h *SavingsHandler) ListTransactions(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid account ID")
	}

	params := pagination.GetParams(c)
	p := middleware.GetPrincipal(c)

	txns, total, err := h.savingsService.ListTransactions(c.Context(), p, uint(id), params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to list transactions")
	}

	return response.Success(c, "Transactions retrieved successfully", pagination.NewResponse(txns, params, total))
}
