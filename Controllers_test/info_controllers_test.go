package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPing(t *testing.T) {
	app := newTestApp(t, appOptions{})

	w, resp := app.do(t, http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", resp["message"])
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestGetRestaurantInfo(t *testing.T) {
	app := newTestApp(t, appOptions{})

	w, resp := app.do(t, http.MethodGet, "/restaurant?lang=nl", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Keizerslaan 26, 1000 Brussel, België", data["address"])
	assert.Len(t, data["hours"], 7)

	services := data["services"].([]interface{})
	require.Len(t, services, 2)
	lunch := services[0].(map[string]interface{})
	assert.Equal(t, []interface{}{"12:00", "12:30", "13:00", "13:30"}, lunch["slots"])

	takeaway := data["takeaway"].(map[string]interface{})
	assert.Equal(t, "https://eastatwest.com/order", takeaway["order_url"])
	assert.Equal(t, "tel:+32465206024", takeaway["phone_url"])
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t, appOptions{})

	w, _ := app.do(t, http.MethodOptions, "/admin/reservations/abc", nil, map[string]string{
		"Origin":                        allowedOrigin,
		"Access-Control-Request-Method": "PATCH",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, allowedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")

	w, _ = app.do(t, http.MethodGet, "/restaurant", nil, map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCacheHeadersByRoute(t *testing.T) {
	app := newTestApp(t, appOptions{})

	w, _ := app.do(t, http.MethodGet, "/menu", nil, nil)
	assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))

	w, _ = app.do(t, http.MethodGet, "/admin/reservations", nil, map[string]string{"Authorization": "Bearer " + tokenFor(t, "admin")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
