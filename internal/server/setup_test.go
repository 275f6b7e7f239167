package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"drinklog/internal/config"
	"drinklog/internal/live"
	"drinklog/internal/logger"
	"drinklog/internal/metrics"
	"drinklog/internal/services"
	"drinklog/internal/testutil"
	"drinklog/internal/validator"
)

// testApp holds the full application stack for end-to-end tests.
type testApp struct {
	DB     *gorm.DB
	Hub    *live.Hub
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register(config.DefaultIceLevels, config.DefaultSugarLevels)
}

func testConfig() *config.Config {
	return &config.Config{
		CORSAllowedOrigins: "https://app.example",
		MetricsAPIKey:      "metrics-key",
		QuickOrderLimit:    6,
		TopStoreLimit:      5,
		ExportLocale:       "zh-TW",
		ShareURL:           "https://drinklog.example",
	}
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	hub := live.NewHub()
	m := metrics.New(hub)

	router := NewRouter(Deps{
		Config:       testConfig(),
		UserService:  services.NewUserService(db),
		DrinkService: services.NewDrinkService(db, hub, nil, m),
		AuditService: services.NewAuditService(db),
		Metrics:      m,
	})
	return &testApp{DB: db, Hub: hub, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"display_name":"Amy"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// createDrink posts a drink and returns its id.
func (app *testApp) createDrink(t *testing.T, token, date, store, item string) string {
	t.Helper()
	body := fmt.Sprintf(`{"date":%q,"store":%q,"item":%q,"price":"55","ice":"少冰","sugar":"半糖"}`, date, store, item)
	rec := app.request("POST", "/api/v1/drinks", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create drink failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}
