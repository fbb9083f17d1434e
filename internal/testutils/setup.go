package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/cache"
	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/event"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/permission"
	"github.com/Kyz7/fincore/internal/server"
	"github.com/Kyz7/fincore/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to create test database")

	// every pooled connection to :memory: would get its own database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(database.Models()...)
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

// TestApp bundles the app with the collaborators tests inspect.
type TestApp struct {
	*fiber.App
	DB       *gorm.DB
	Cache    *cache.Memory
	Verifier *FakeVerifier
}

func SetupTestApp(t *testing.T) *TestApp {
	db := TestDB(t)
	database.DB = db

	utils.UploadBasePath = t.TempDir()
	err := utils.InitLocalStorage()
	assert.NoError(t, err, "Failed to initialize storage")
	utils.UseLocalStorage = true

	store := cache.NewMemory()
	err = permission.NewService(db, store, event.Nop{}).SeedDefaultRolePermissions(context.Background())
	require.NoError(t, err, "Failed to seed role permissions")

	verifier := NewFakeVerifier()
	app := server.New(server.Deps{
		DB:       db,
		Cache:    store,
		Events:   event.Nop{},
		Verifier: verifier,
	})

	return &TestApp{App: app, DB: db, Cache: store, Verifier: verifier}
}

// CreateTestUser stores an active user with the given role and module
// access. The MPIN is stored hashed.
func CreateTestUser(t *testing.T, db *gorm.DB, mobile, mpin string, role access.Role, modules access.ModuleAccess) *models.User {
	hash, err := utils.HashMPIN(mpin)
	require.NoError(t, err)

	user := &models.User{
		Name:         "Test User " + mobile,
		Mobile:       mobile,
		Email:        mobile + "@example.com",
		MPIN:         hash,
		Role:         role,
		EmployeeType: "DST",
		ChannelCode:  "TEST1234",
		Status:       "active",
	}
	require.NoError(t, db.Create(user).Error, "Failed to create test user")
	require.NoError(t, permission.SaveModuleAccess(db, user.ID, modules, user.ID), "Failed to save module access")

	return user
}

// AllModules grants both modules.
var AllModules = access.ModuleAccess{CreditCards: true, LoanDisbursement: true}

func GetAuthToken(t *testing.T, userID uint, role access.Role) string {
	token, err := utils.GenerateJWT(userID, role)
	assert.NoError(t, err, "Failed to generate test token")
	return token
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error"`
	Meta    *Meta        `json:"meta"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	assert.NotNil(t, result.Error, "Expected error object")
	assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
}

// MakeMultipartRequestWithFile sends fields and files as multipart form
// data. Each file part carries the content type sniffed from its bytes.
func MakeMultipartRequestWithFile(app *fiber.App, method, url string, fields map[string]string, files map[string][]byte, token string) (*httptest.ResponseRecorder, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, val := range fields {
		if err := writer.WriteField(key, val); err != nil {
			return nil, err
		}
	}

	for fieldName, fileContent := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s.jpg"`, fieldName, fieldName))
		h.Set("Content-Type", http.DetectContentType(fileContent))
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(fileContent); err != nil {
			return nil, err
		}
	}

	contentType := writer.FormDataContentType()
	writer.Close()

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", contentType)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode
	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}
