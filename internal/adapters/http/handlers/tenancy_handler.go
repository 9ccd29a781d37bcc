package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"saccolink/internal/adapters/http/middleware"
	"saccolink/internal/core/services"
	"saccolink/internal/pkg/pagination"
	"saccolink/internal/pkg/response"
)

// TenancyHandler handles region, district and sacco administration endpoints
type TenancyHandler struct {
	tenancyService *services.TenancyService
}

// NewTenancyHandler creates a new tenancy handler
func NewTenancyHandler(tenancyService *services.TenancyService) *TenancyHandler {
	return &TenancyHandler{tenancyService: tenancyService}
}

// CreateRegion handles region creation
func (h *TenancyHandler) CreateRegion(c *fiber.Ctx) error {
	var req services.RegionInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return response.BadRequest(c, "Region name is required")
	}

	region, err := h.tenancyService.CreateRegion(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRegionAlreadyExists):
			return response.Conflict(c, "Region already exists")
		default:
			return response.InternalServerError(c, "Failed to create region")
		}
	}

	return response.Created(c, "Region created successfully", region)
}

// ListRegions handles listing regions
func (h *TenancyHandler) ListRegions(c *fiber.Ctx) error {
	regions, err := h.tenancyService.ListRegions(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list regions")
	}
	return response.Success(c, "Regions retrieved successfully", regions)
}

// CreateDistrict handles district creation
func (h *TenancyHandler) CreateDistrict(c *fiber.Ctx) error {
	var req services.DistrictInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return response.BadRequest(c, "District name is required")
	}
	if req.RegionID == 0 {
		return response.BadRequest(c, "Region ID is required")
	}

	district, err := h.tenancyService.CreateDistrict(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRegionNotFound):
			return response.NotFound(c, "Region not found")
		default:
			return response.InternalServerError(c, "Failed to create district")
		}
	}

	return response.Created(c, "District created successfully", district)
}

// ListDistricts handles listing districts, optionally filtered by region
func (h *TenancyHandler) ListDistricts(c *fiber.Ctx) error {
	regionID, _ := strconv.Atoi(c.Query("region_id", "0"))

	districts, err := h.tenancyService.ListDistricts(c.Context(), uint(regionID))
	if err != nil {
		return response.InternalServerError(c, "Failed to list districts")
	}
	return response.Success(c, "Districts retrieved successfully", districts)
}

// RegisterSacco handles sacco registration
func (h *TenancyHandler) RegisterSacco(c *fiber.Ctx) error {
	var req services.SaccoInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return response.BadRequest(c, "Sacco name is required")
	}
	if req.RegistrationNumber == "" {
		return response.BadRequest(c, "Registration number is required")
	}

	p := middleware.GetPrincipal(c)
	sacco, err := h.tenancyService.RegisterSacco(c.Context(), p, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSaccoScopeMismatch):
			return response.Forbidden(c, "Sacco is outside your region")
		case errors.Is(err, services.ErrSaccoAlreadyExists):
			return response.Conflict(c, "Registration number already exists")
		case errors.Is(err, services.ErrRegionNotFound):
			return response.NotFound(c, "Region not found")
		case errors.Is(err, services.ErrDistrictNotFound):
			return response.NotFound(c, "District not found")
		case errors.Is(err, services.ErrInvalidLoanBounds):
			return response.BadRequest(c, "Loan minimum must not exceed loan maximum")
		default:
			return response.InternalServerError(c, "Failed to register sacco")
		}
	}

	return response.Created(c, "Sacco registered successfully", sacco)
}

// GetSacco handles single sacco retrieval
func (h *TenancyHandler) GetSacco(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid sacco ID")
	}

	p := middleware.GetPrincipal(c)
	sacco, err := h.tenancyService.GetSacco(c.Context(), p, uint(id))
	if err != nil {
		if errors.Is(err, services.ErrSaccoNotFound) {
			return response.NotFound(c, "Sacco not found")
		}
		return response.InternalServerError(c, "Failed to get sacco")
	}

	return response.Success(c, "Sacco retrieved successfully", sacco)
}

// ListSaccos handles listing saccos visible to the caller
func (h *TenancyHandler) ListSaccos(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	p := middleware.GetPrincipal(c)

	saccos, total, err := h.tenancyService.ListSaccos(c.Context(), p, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list saccos")
	}

	return response.Success(c, "Saccos retrieved successfully", pagination.NewResponse(saccos, params, total))
}

// UpdateSacco handles sacco profile updates
func (h *TenancyHandler) UpdateSacco(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid sacco ID")
	}

	var req services.SaccoInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	p := middleware.GetPrincipal(c)
	sacco, err := h.tenancyService.UpdateSacco(c.Context(), p, uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSaccoNotFound):
			return response.NotFound(c, "Sacco not found")
		case errors.Is(err, services.ErrInvalidLoanBounds):
			return response.BadRequest(c, "Loan minimum must not exceed loan maximum")
		default:
			return response.InternalServerError(c, "Failed to update sacco")
		}
	}

	return response.Success(c, "Sacco updated successfully", sacco)
}

// SetSaccoActive handles sacco activation and deactivation
func (h *TenancyHandler) SetSaccoActive(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid sacco ID")
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	p := middleware.GetPrincipal(c)
	sacco, err := h.tenancyService.SetSaccoActive(c.Context(), p, uint(id), req.Active)
	if err != nil {
		if errors.Is(err, services.ErrSaccoNotFound) {
			return response.NotFound(c, "Sacco not found")
		}
		return response.InternalServerError(c, "Failed to update sacco status")
	}

	message := "Sacco deactivated successfully"
	if req.Active {
		message = "Sacco activated successfully"
	}
	return response.Success(c, message, sacco)
}

// CreateAdminUser handles sacco-admin and regional-admin account creation
func (h *TenancyHandler) CreateAdminUser(c *fiber.Ctx) error {
	var req services.AdminUserInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Username == "" {
		return response.BadRequest(c, "Username is required")
	}
	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	user, err := h.tenancyService.CreateAdminUser(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "Password does not meet requirements")
		case errors.Is(err, services.ErrRegionBindingMissing):
			return response.BadRequest(c, "Regional admin requires a region")
		case errors.Is(err, services.ErrSaccoNotFound):
			return response.NotFound(c, "Sacco not found")
		case errors.Is(err, services.ErrUserAlreadyExists):
			return response.Conflict(c, "Username or email already exists")
		default:
			return response.InternalServerError(c, "Failed to create admin account")
		}
	}

	role := "sacco_admin"
	if req.Regional {
		role = "regional_admin"
	}
	return response.Created(c, "Admin account created successfully", user.ToResponse(role))
}
