package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/license-gate/src/middleware"
	"github.com/khabaroff/license-gate/src/models"
	"github.com/khabaroff/license-gate/src/repositories"
	"github.com/khabaroff/license-gate/src/services"
)

// AdminHandler handles admin operations
type AdminHandler struct {
	adminService *services.AdminService
	clients      repositories.ClientRepository
	usageReset   *services.UsageResetService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService, clients repositories.ClientRepository, usageReset *services.UsageResetService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		clients:      clients,
		usageReset:   usageReset,
	}
}

// AdminLoginRequest represents the request body for admin login
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse represents the response for successful login
type AdminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// HandleAdminLogin authenticates admin user and returns JWT token
func (ah *AdminHandler) HandleAdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return
	}

	admin, err := ah.adminService.AuthenticateAdmin(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrAdminDisabled) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "admin access is not configured",
			})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid username or password",
		})
		return
	}

	token, err := middleware.GenerateAdminToken(admin.ID, admin.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to generate token",
		})
		return
	}

	middleware.SetAdminCookie(c, token)
	c.JSON(http.StatusOK, AdminLoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
	})
}

// ClientListResponse represents the registry with total count
type ClientListResponse struct {
	Clients []*models.ClientRecord `json:"clients"`
	Total   int                    `json:"total"`
}

// HandleListClients returns every client record
func (ah *AdminHandler) HandleListClients(c *gin.Context) {
	clients, err := ah.clients.List(c.Request.Context())
	if err != nil {
		logger := middleware.RequestLogger(c, "admin")
		logger.Error().Err(err).Msg("failed to list clients")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to list clients",
		})
		return
	}
	if clients == nil {
		clients = []*models.ClientRecord{}
	}

	c.JSON(http.StatusOK, ClientListResponse{
		Clients: clients,
		Total:   len(clients),
	})
}

// HandleResetUsage zeroes every usage counter on demand
func (ah *AdminHandler) HandleResetUsage(c *gin.Context) {
	reset, err := ah.usageReset.ResetNow(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to reset usage",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"reset":  reset,
	})
}
