package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dynasty-blog/dynasty/internal/api/middleware"
	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/service"
	"github.com/dynasty-blog/dynasty/pkg/logger"
	"github.com/dynasty-blog/dynasty/pkg/response"
)

// AuthHandler handles author authentication
type AuthHandler struct {
	userService *service.UserService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *service.UserService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger.WithComponent("auth-handler"),
	}
}

// Login handles author login
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	loginResp, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		if _, ok := domain.IsValidation(err); !ok {
			h.logger.Warn("Login failed", "username", req.Username, "error", err)
		}
		response.FromError(c, err)
		return
	}

	response.Success(c, loginResp)
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.BadRequest(c, "Invalid request body")
		return
	}

	tokens, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	response.Success(c, tokens)
}

// GetMe returns the current authenticated author
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, user)
}
