package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDrinkFlow_CRUDAndOverview(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "drinks@test.com", "password123")

	first := app.createDrink(t, token, "2024-01-01", "A", "MilkTea")
	app.createDrink(t, token, "2024-01-02", "B", "Coffee")
	app.createDrink(t, token, "2024-01-03", "A", "MilkTea")

	rec := app.request("GET", "/api/v1/drinks/overview?start_date=2024-01-02", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview failed: %d %s", rec.Code, rec.Body.String())
	}
	view := parseJSON(t, rec)
	if view["record_count"] != float64(2) || view["total_count"] != float64(3) {
		t.Errorf("unexpected counts %v / %v", view["record_count"], view["total_count"])
	}
	quick := view["quick_orders"].([]interface{})
	if len(quick) != 2 || quick[0].(map[string]interface{})["date"] != "2024-01-03" {
		t.Errorf("expected the most recent combo first, got %v", quick)
	}
	top := view["top_stores"].([]interface{})
	if top[0].(map[string]interface{})["store"] != "A" || top[0].(map[string]interface{})["count"] != float64(2) {
		t.Errorf("unexpected top stores %v", top)
	}

	// Editing moves the record to the top.
	rec = app.request("PUT", "/api/v1/drinks/"+first,
		`{"date":"2024-01-01","store":"C","item":"Tea","ice":"去冰","sugar":"無糖","note":"edited"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
	}
	if price, ok := parseJSON(t, rec)["price"]; ok {
		t.Errorf("expected price cleared by full replacement, got %v", price)
	}
	rec = app.request("GET", "/api/v1/drinks", "", token)
	data := parseJSON(t, rec)["data"].([]interface{})
	if data[0].(map[string]interface{})["id"] != first {
		t.Errorf("expected edited record first, got %v", data[0])
	}

	rec = app.request("DELETE", "/api/v1/drinks/"+first, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/drinks/"+first, "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}

	rec = app.request("GET", "/api/v1/drinks/vocabulary", "", token)
	vocab := parseJSON(t, rec)
	if len(vocab["stores"].([]interface{})) != 2 {
		t.Errorf("expected stores A and B, got %v", vocab["stores"])
	}
}

func TestDrinkFlow_Validation(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "valid@test.com", "password123")

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing sugar", `{"date":"2024-01-01","store":"A","item":"B","ice":"少冰"}`, "ICE_SUGAR_REQUIRED"},
		{"missing store", `{"date":"2024-01-01","store":" ","item":"B","ice":"少冰","sugar":"半糖"}`, "INVALID_INPUT"},
		{"bad date", `{"date":"01/01/2024","store":"A","item":"B","ice":"少冰","sugar":"半糖"}`, "INVALID_DATE"},
		{"negative price", `{"date":"2024-01-01","store":"A","item":"B","price":-1,"ice":"少冰","sugar":"半糖"}`, "INVALID_PRICE"},
		{"unknown sugar level", `{"date":"2024-01-01","store":"A","item":"B","ice":"少冰","sugar":"extra"}`, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.request("POST", "/api/v1/drinks", tt.body, token)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, code)
			}
		})
	}

	rec := app.request("GET", "/api/v1/drinks", "", token)
	if parseJSON(t, rec)["total_items"] != float64(0) {
		t.Error("rejected writes must not be stored")
	}
}

func TestDrinkFlow_OwnerIsolation(t *testing.T) {
	app := setupApp(t)
	alice, _, _ := app.registerUser(t, "alice@test.com", "password123")
	bob, _, _ := app.registerUser(t, "bob@test.com", "password123")

	id := app.createDrink(t, alice, "2024-01-01", "A", "MilkTea")

	if rec := app.request("GET", "/api/v1/drinks/"+id, "", bob); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another owner's drink, got %d", rec.Code)
	}
	if rec := app.request("DELETE", "/api/v1/drinks/"+id, "", bob); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting another owner's drink, got %d", rec.Code)
	}
	rec := app.request("GET", "/api/v1/drinks", "", bob)
	if parseJSON(t, rec)["total_items"] != float64(0) {
		t.Error("expected bob to see no drinks")
	}
	if rec := app.request("GET", "/api/v1/drinks/"+id, "", alice); rec.Code != http.StatusOK {
		t.Errorf("expected alice to still see her drink, got %d", rec.Code)
	}
}

func TestDrinkFlow_ExportAndShare(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "export@test.com", "password123")

	rec := app.request("GET", "/api/v1/drinks/export", "", token)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 with no records, got %d", rec.Code)
	}

	id := app.createDrink(t, token, "2024-01-02", "A", "MilkTea")
	rec = app.request("GET", "/api/v1/drinks/export", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("export failed: %d %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "2024-01-02_2024-01-02.xlsx") {
		t.Errorf("unexpected content disposition %q", cd)
	}

	rec = app.request("GET", "/api/v1/drinks/"+id+"/share?locale=en", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("share failed: %d", rec.Code)
	}
	msg := parseJSON(t, rec)
	if msg["url"] != "https://drinklog.example" || !strings.Contains(msg["text"].(string), "MilkTea") {
		t.Errorf("unexpected share message %v", msg)
	}
}

func TestRouter_HealthMetricsAndCORS(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "ops@test.com", "password123")
	app.createDrink(t, token, "2024-01-02", "A", "MilkTea")

	if rec := app.request("GET", "/api/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("expected healthy, got %d", rec.Code)
	}

	if rec := app.request("GET", "/metrics", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected metrics to require the key, got %d", rec.Code)
	}
	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	req.Header.Set("X-API-Key", "metrics-key")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `drinklog_drink_writes_total{op="create"} 1`) {
		t.Errorf("expected one create write in metrics output")
	}
	if !strings.Contains(body, "drinklog_http_requests_total") {
		t.Errorf("expected request counter in metrics output")
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/drinks", http.NoBody)
	req.Header.Set("Origin", "https://app.example")
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/drinks", http.NoBody)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow origin for unknown origin, got %q", got)
	}
}
