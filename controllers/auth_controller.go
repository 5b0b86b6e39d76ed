package controllers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sanjana123-dot/hometownhub/config"
	"github.com/sanjana123-dot/hometownhub/middleware"
	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

// Overridable so tests run without network access.
var verifyEmailDomain = utils.VerifyEmailDomain

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Hometown string `json:"hometown" binding:"required"`
	City     string `json:"city" binding:"required"`
	State    string `json:"state" binding:"required"`
}

// Register creates an account. The email domain must publish MX records.
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "all fields are required")
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if len(req.Password) < utils.MinPasswordLength {
		utils.Error(c, 400, 40002, "password must be at least 8 characters")
		return
	}
	if !utils.ValidEmailFormat(req.Email) {
		utils.Error(c, 400, 40003, "please provide a valid email address")
		return
	}
	if !verifyEmailDomain(c.Request.Context(), req.Email) {
		utils.Error(c, 400, 40004, "email domain cannot receive mail")
		return
	}

	var count int64
	if err := db().Model(&models.User{}).
		Where("email = ? OR username = ?", req.Email, req.Username).
		Count(&count).Error; err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}
	if count > 0 {
		utils.Error(c, 400, 40005, "an account with this email or username already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(c, 500, 50002, "failed to process password")
		return
	}

	user := models.User{
		Name:         utils.StripTags(req.Name),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Hometown:     utils.StripTags(req.Hometown),
		City:         utils.StripTags(req.City),
		State:        utils.StripTags(req.State),
	}
	if err := db().Create(&user).Error; err != nil {
		utils.Error(c, 500, 50003, "failed to create account")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.Error(c, 500, 50004, "failed to issue token")
		return
	}

	utils.Logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	utils.Created(c, gin.H{"token": token, "user": user})
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Login accepts email or username, case-insensitive. Any mismatch returns the
// same 401 so the response does not reveal which part was wrong.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "identifier and password are required")
		return
	}
	identifier := strings.ToLower(strings.TrimSpace(req.Identifier))

	var user models.User
	err := db().Where("email = ? OR username = ?", identifier, identifier).First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(c, 401, 40110, "invalid credentials")
		return
	}

	if user.IsBanned {
		reason := user.BanReason
		if reason == "" {
			reason = "your account has been banned"
		}
		utils.Error(c, 403, 40301, reason)
		return
	}
	if user.IsSuspended {
		reason := user.SuspensionReason
		if reason == "" {
			reason = "your account has been suspended"
		}
		utils.Error(c, 403, 40302, reason)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.Error(c, 500, 50004, "failed to issue token")
		return
	}

	utils.Success(c, gin.H{"token": token, "user": user})
}

// Me returns the authenticated account.
func Me(c *gin.Context) {
	utils.Success(c, currentUser(c))
}

// Logout revokes the presented token until its natural expiry.
func Logout(c *gin.Context) {
	tokenStr := c.GetString(middleware.CtxTokenKey)
	if tokenStr != "" {
		if claims, err := utils.ParseToken(tokenStr); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(c.Request.Context(), tokenStr, claims.ExpiresAt.Time)
		}
	}
	utils.Success(c, gin.H{"message": "logged out"})
}

type forgotPasswordRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
}

// maskEmail hides most of the local part: jdoe@example.com -> j***e@example.com.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return "***"
	}
	if at <= 1 {
		return "***" + email[at:]
	}
	local := email[:at]
	if len(local) <= 2 {
		return string(local[0]) + "***" + email[at:]
	}
	return string(local[0]) + "***" + string(local[len(local)-1]) + email[at:]
}

// ForgotPassword has two steps. With only an identifier it returns the masked
// email so the caller must type the full address to proceed; with an email it
// issues the reset token. Unknown emails get the same success response so
// account existence is not revealed.
func ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Identifier == "" && req.Email == "") {
		utils.Error(c, 400, 40001, "identifier or email is required")
		return
	}

	if req.Email == "" {
		identifier := strings.ToLower(strings.TrimSpace(req.Identifier))
		var user models.User
		if err := db().Where("email = ? OR username = ?", identifier, identifier).First(&user).Error; err != nil {
			utils.Error(c, 404, 40410, "no account found for that identifier")
			return
		}
		utils.Success(c, gin.H{"maskedEmail": maskEmail(user.Email)})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var user models.User
	if err := db().Where("email = ?", email).First(&user).Error; err != nil {
		// Same response as the success path.
		utils.Success(c, gin.H{"message": "if that account exists, a reset link has been sent"})
		return
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		utils.Error(c, 500, 50005, "failed to generate reset token")
		return
	}
	token := hex.EncodeToString(raw)
	sum := sha256.Sum256([]byte(token))
	expire := time.Now().Add(time.Hour)

	err := db().Model(&user).Updates(map[string]interface{}{
		"reset_password_token":  hex.EncodeToString(sum[:]),
		"reset_password_expire": expire,
	}).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", config.Get().FrontendURL, token)

	if utils.MailerConfigured() {
		if err := utils.SendPasswordResetMail(user.Email, resetURL); err != nil {
			// Clear the token so a failed send does not leave a live reset.
			db().Model(&user).Updates(map[string]interface{}{
				"reset_password_token":  "",
				"reset_password_expire": nil,
			})
			utils.Error(c, 500, 50006, "email could not be sent")
			return
		}
		utils.Success(c, gin.H{"message": "if that account exists, a reset link has been sent"})
		return
	}

	// Development mode: no SMTP configured, hand the link back directly.
	utils.Logger.Info("password reset link (smtp not configured)", zap.String("url", resetURL))
	utils.Success(c, gin.H{
		"message":  "if that account exists, a reset link has been sent",
		"resetUrl": resetURL,
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetPassword consumes a reset token within its one-hour window.
func ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, 40001, "token and password are required")
		return
	}
	if len(req.Password) < utils.MinPasswordLength {
		utils.Error(c, 400, 40002, "password must be at least 8 characters")
		return
	}

	sum := sha256.Sum256([]byte(req.Token))
	hashed := hex.EncodeToString(sum[:])

	var user models.User
	err := db().Where("reset_password_token = ? AND reset_password_expire > ?", hashed, time.Now()).
		First(&user).Error
	if err != nil {
		utils.Error(c, 400, 40011, "invalid or expired reset token")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(c, 500, 50002, "failed to process password")
		return
	}

	err = db().Model(&user).Updates(map[string]interface{}{
		"password_hash":         hash,
		"reset_password_token":  "",
		"reset_password_expire": gorm.Expr("NULL"),
	}).Error
	if err != nil {
		utils.Error(c, 500, 50001, "database error")
		return
	}

	utils.Logger.Info("password reset", zap.Uint("user_id", user.ID))
	utils.Success(c, gin.H{"message": "password has been reset"})
}
