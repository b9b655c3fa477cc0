package handler

import (
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/cinema-sessions/internal/config" // app configuration
	"github.com/iliyamo/cinema-sessions/internal/utils"  // helper functions (hashing, token issuing)
)

// AuthHandler issues operator tokens. There is a single operator account
// configured through ADMIN_USER and ADMIN_PASSWORD_HASH.
type AuthHandler struct {
	Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{Cfg: cfg}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User   string    `json:"user"`
	Role   string    `json:"role"`
	Access tokenPart `json:"access"`
}

// Login verifies the operator credentials and returns an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	if !h.Cfg.AuthEnabled() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "operator login is not configured"})
	}
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	// bcrypt runs before the username check.
	okPass := utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password)
	if !okPass || req.Username != h.Cfg.AdminUser {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	at, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Username, utils.RoleAdmin, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token issue failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:   req.Username,
		Role:   utils.RoleAdmin,
		Access: tokenPart{Token: at.Token, Expires: at.Exp},
	})
}
