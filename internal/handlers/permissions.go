package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/casedesk/casedesk/internal/middleware"
	"github.com/casedesk/casedesk/internal/permissions"
	"github.com/casedesk/casedesk/internal/services"
	"github.com/casedesk/casedesk/pkg/errors"
	"github.com/casedesk/casedesk/pkg/response"
)

// PermissionHandler exposes the permission resolution and cache management API.
type PermissionHandler struct {
	svc *services.PermissionService
}

func NewPermissionHandler(svc *services.PermissionService) (*PermissionHandler, error) {
	if svc == nil {
		return nil, stderrors.New("permission handler: service is required")
	}
	return &PermissionHandler{svc: svc}, nil
}

type effectiveSetResponse struct {
	*permissions.EffectiveSet
	FromCache bool `json:"from_cache"`
}

// GET /api/permissions/users/:id
func (h *PermissionHandler) UserPermissions(c *gin.Context) {
	userID := c.Param("id")
	companyID := c.Query("company_id")
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))

	set, fromCache, err := h.svc.EffectivePermissions(requestContext(c), userID, companyID, refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, effectiveSetResponse{EffectiveSet: set, FromCache: fromCache})
}

// GET /api/permissions/me
func (h *PermissionHandler) MyPermissions(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	set, fromCache, err := h.svc.EffectivePermissions(requestContext(c), userID, c.Query("company_id"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, effectiveSetResponse{EffectiveSet: set, FromCache: fromCache})
}

type checkRequest struct {
	UserID       string   `json:"user_id" binding:"required"`
	Permission   string   `json:"permission"`
	Permissions  []string `json:"permissions"`
	CompanyID    string   `json:"company_id"`
	ForceRefresh bool     `json:"force_refresh"`
}

// POST /api/permissions/check
//
// Accepts exactly one of `permission` (single check) or `permissions` (bulk
// check); supplying both or neither is rejected.
func (h *PermissionHandler) Check(c *gin.Context) {
	var body checkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewInvalidInput("invalid check payload"))
		return
	}

	single := body.Permission != ""
	bulk := len(body.Permissions) > 0
	if single == bulk {
		response.Error(c, errors.NewInvalidInput("exactly one of permission or permissions must be set"))
		return
	}

	if single {
		result, err := h.svc.Check(requestContext(c), services.CheckInput{
			UserID:       body.UserID,
			Permission:   body.Permission,
			CompanyID:    body.CompanyID,
			ForceRefresh: body.ForceRefresh,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, result)
		return
	}

	results, err := h.svc.CheckMany(requestContext(c), services.CheckManyInput{
		UserID:       body.UserID,
		Permissions:  body.Permissions,
		CompanyID:    body.CompanyID,
		ForceRefresh: body.ForceRefresh,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

type invalidateRequest struct {
	UserID    string `json:"user_id"`
	RoleID    string `json:"role_id"`
	CompanyID string `json:"company_id"`
	All       bool   `json:"all"`
	Reason    string `json:"reason"`
}

// POST /api/permissions/cache/invalidate
func (h *PermissionHandler) Invalidate(c *gin.Context) {
	var body invalidateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewInvalidInput("invalid invalidation payload"))
		return
	}

	result, err := h.svc.Invalidate(requestContext(c), services.InvalidateInput{
		UserID:    body.UserID,
		RoleID:    body.RoleID,
		CompanyID: body.CompanyID,
		All:       body.All,
		Reason:    body.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

type warmupRequest struct {
	UserIDs   []string `json:"user_ids"`
	CompanyID string   `json:"company_id"`
	RoleID    string   `json:"role_id"`
}

// POST /api/permissions/cache/warmup
func (h *PermissionHandler) Warmup(c *gin.Context) {
	var body warmupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewInvalidInput("invalid warmup payload"))
		return
	}

	result, err := h.svc.Warmup(requestContext(c), services.WarmupInput{
		UserIDs:   body.UserIDs,
		CompanyID: body.CompanyID,
		RoleID:    body.RoleID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GET /api/permissions/cache/stats
func (h *PermissionHandler) CacheStats(c *gin.Context) {
	response.Success(c, http.StatusOK, h.svc.CacheStats())
}

// GET /api/permissions/catalog
func (h *PermissionHandler) Catalog(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		response.Success(c, http.StatusOK, permissions.ByCategory(category))
		return
	}
	response.Success(c, http.StatusOK, permissions.All())
}
