package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sanjana123-dot/hometownhub/config"
	"github.com/sanjana123-dot/hometownhub/controllers"
	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/routes"
	"github.com/sanjana123-dot/hometownhub/utils"
)

// setupTest builds an isolated in-memory database and a full router. Each
// test gets its own schema.
func setupTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	tmp := t.TempDir()
	config.SetForTesting(config.AppConfig{
		JWTSecret:          "test-secret",
		GinMode:            gin.TestMode,
		GinPath:            filepath.Join(tmp, "gin.log"),
		LogLevel:           "error",
		RateLimitPerMinute: 100000,
		AllowedOrigins:     []string{"http://localhost:3000"},
		FrontendURL:        "http://localhost:3000",
		UploadDir:          filepath.Join(tmp, "uploads"),
		UploadMaxSizeMB:    50,
		UploadTTLMinutes:   60,
	})
	if err := utils.InitLogger(config.Get()); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	utils.ResetBlacklistForTesting()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Community{}, &models.Membership{},
		&models.Post{}, &models.PostFile{}, &models.PostLike{}, &models.Comment{},
		&models.Event{}, &models.EventAttendee{}, &models.Announcement{},
		&models.Message{}, &models.MessageFile{}, &models.Notification{},
		&models.UploadedFile{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	config.SetDBForTesting(db)

	// DNS never reachable in tests.
	controllers.SetVerifyEmailDomain(func(ctx context.Context, email string) bool { return true })
	t.Cleanup(func() { controllers.SetVerifyEmailDomain(utils.VerifyEmailDomain) })

	return routes.SetupRouter(), db
}

// createUser inserts an account and returns it with a valid token.
func createUser(t *testing.T, db *gorm.DB, username, role string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Name:         username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Hometown:     "Springfield",
		City:         "Springfield",
		State:        "IL",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return &user, token
}

// createCommunity inserts an approved community with the creator as a member.
func createTestCommunity(t *testing.T, db *gorm.DB, creator *models.User, requiresApproval bool) *models.Community {
	t.Helper()

	community := models.Community{
		Name:             "Maple Street",
		Description:      "neighbors of maple street",
		City:             "Springfield",
		State:            "IL",
		CreatorID:        creator.ID,
		Status:           models.CommunityApproved,
		RequiresApproval: requiresApproval,
	}
	if err := db.Create(&community).Error; err != nil {
		t.Fatalf("create community: %v", err)
	}
	membership := models.Membership{CommunityID: community.ID, UserID: creator.ID, State: models.MemberActive}
	if err := db.Create(&membership).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}
	if err := controllers.RecomputeMemberCount(db, community.ID); err != nil {
		t.Fatalf("member count: %v", err)
	}
	return &community
}

func addMember(t *testing.T, db *gorm.DB, communityID uint, user *models.User, state string) {
	t.Helper()
	m := models.Membership{CommunityID: communityID, UserID: user.ID, State: state}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := controllers.RecomputeMemberCount(db, communityID); err != nil {
		t.Fatalf("member count: %v", err)
	}
}

// doRequest performs a JSON request against the router.
func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body %s", w.Code, want, w.Body.String())
	}
}
