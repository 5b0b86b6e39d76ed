package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sanjana123-dot/hometownhub/config"
	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
	"gorm.io/gorm"
)

// Context keys set by AuthRequired.
const (
	CtxUserKey   = "auth_user"
	CtxUserIDKey = "auth_user_id"
	CtxTokenKey  = "auth_token"
)

// AuthRequired validates the bearer token, rejects revoked tokens, loads the
// account and blocks banned or suspended users. The loaded *models.User is
// stored in the context for handlers.
func AuthRequired(db func() *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			utils.Error(c, 401, 40101, "authorization token required")
			c.Abort()
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		if utils.IsTokenBlacklisted(c.Request.Context(), tokenStr) {
			utils.Error(c, 401, 40102, "token has been revoked")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenStr)
		if err != nil {
			utils.Error(c, 401, 40103, "invalid or expired token")
			c.Abort()
			return
		}

		var user models.User
		if err := db().First(&user, claims.UserID).Error; err != nil {
			utils.Error(c, 401, 40104, "account no longer exists")
			c.Abort()
			return
		}

		if user.IsBanned {
			reason := user.BanReason
			if reason == "" {
				reason = "your account has been banned"
			}
			utils.Error(c, 403, 40301, reason)
			c.Abort()
			return
		}
		if user.IsSuspended {
			reason := user.SuspensionReason
			if reason == "" {
				reason = "your account has been suspended"
			}
			utils.Error(c, 403, 40302, reason)
			c.Abort()
			return
		}

		c.Set(CtxUserKey, &user)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxTokenKey, tokenStr)
		c.Next()
	}
}

// AdminRequired gates platform administration endpoints. Must run after
// AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != models.RoleAdmin {
			utils.Error(c, 403, 40303, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by AuthRequired, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CORSOriginAllowed implements the allow-list plus hosted-preview exception:
// exact origins come from config, and any subdomain of the configured PaaS
// suffix is accepted for preview deployments.
func CORSOriginAllowed(origin string) bool {
	cfg := config.Get()
	for _, allowed := range cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	if cfg.PaaSOriginSuffix != "" && strings.HasSuffix(origin, cfg.PaaSOriginSuffix) {
		return strings.HasPrefix(origin, "https://")
	}
	return false
}
