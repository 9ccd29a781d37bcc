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

// MemberHandler handles member endpoints
type MemberHandler struct {
	memberService *services.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// Register handles member registration
func (h *MemberHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterMemberInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SaccoID == 0 {
		return response.BadRequest(c, "Sacco ID is required")
	}
	if req.FirstName == "" || req.LastName == "" {
		return response.BadRequest(c, "First and last name are required")
	}
	if req.Username != "" && req.Password == "" {
		return response.BadRequest(c, "Password is required when creating a login")
	}

	p := middleware.GetPrincipal(c)
	member, err := h.memberService.RegisterMember(c.Context(), p, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSaccoScopeMismatch):
			return response.Forbidden(c, "You cannot register members in this sacco")
		case errors.Is(err, services.ErrSaccoNotFound):
			return response.NotFound(c, "Sacco not found")
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "Password does not meet requirements")
		case errors.Is(err, services.ErrUserAlreadyExists):
			return response.Conflict(c, "Username already exists")
		case errors.Is(err, services.ErrNationalIDTaken):
			return response.Conflict(c, "National ID already registered")
		case errors.Is(err, services.ErrMemberNumberTaken):
			return response.Conflict(c, "Member number already exists")
		default:
			return response.InternalServerError(c, "Failed to register member")
		}
	}

	return response.Created(c, "Member registered successfully", member)
}

// Get handles single member retrieval
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid member ID")
	}

	p := middleware.GetPrincipal(c)
	member, err := h.memberService.GetMember(c.Context(), p, uint(id))
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			return response.NotFound(c, "Member not found")
		}
		return response.InternalServerError(c, "Failed to get member")
	}

	return response.Success(c, "Member retrieved successfully", member)
}

// Me handles the member's own profile retrieval
func (h *MemberHandler) Me(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	member, err := h.memberService.GetOwnMember(c.Context(), p)
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			return response.NotFound(c, "No member record linked to this account")
		}
		return response.InternalServerError(c, "Failed to get member")
	}

	return response.Success(c, "Member retrieved successfully", member)
}

// List handles member listing
func (h *MemberHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	p := middleware.GetPrincipal(c)

	members, total, err := h.memberService.ListMembers(c.Context(), p, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list members")
	}

	return response.Success(c, "Members retrieved successfully", pagination.NewResponse(members, params, total))
}

// Search handles member search by name, number or phone
func (h *MemberHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return response.BadRequest(c, "Search query is required")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	p := middleware.GetPrincipal(c)
	members, err := h.memberService.SearchMembers(c.Context(), p, query, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to search members")
	}

	return response.Success(c, "Members retrieved successfully", members)
}

// UpdateStatus handles member status changes
func (h *MemberHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid member ID")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	p := middleware.GetPrincipal(c)
	member, err := h.memberService.UpdateMemberStatus(c.Context(), p, uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidMemberStatus):
			return response.BadRequest(c, "Invalid member status")
		case errors.Is(err, services.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		default:
			return response.InternalServerError(c, "Failed to update member status")
		}
	}

	return response.Success(c, "Member status updated successfully", member)
}

// CreateGroup handles member group creation
func (h *MemberHandler) CreateGroup(c *fiber.Ctx) error {
	var req struct {
		SaccoID     uint   `json:"sacco_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SaccoID == 0 {
		return response.BadRequest(c, "Sacco ID is required")
	}
	if req.Name == "" {
		return response.BadRequest(c, "Group name is required")
	}

	p := middleware.GetPrincipal(c)
	group, err := h.memberService.CreateGroup(c.Context(), p, req.SaccoID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrSaccoScopeMismatch) {
			return response.Forbidden(c, "You cannot create groups in this sacco")
		}
		return response.InternalServerError(c, "Failed to create group")
	}

	return response.Created(c, "Group created successfully", group)
}

// ListGroups handles member group listing
func (h *MemberHandler) ListGroups(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	groups, err := h.memberService.ListGroups(c.Context(), p)
	if err != nil {
		return response.InternalServerError(c, "Failed to list groups")
	}

	return response.Success(c, "Groups retrieved successfully", groups)
}
