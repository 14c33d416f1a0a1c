package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/quickestimate/internal/auth"
	"github.com/Simplici0/quickestimate/internal/photos"
	"github.com/Simplici0/quickestimate/internal/pricing"
	"github.com/Simplici0/quickestimate/internal/seed"
	"github.com/Simplici0/quickestimate/internal/store"
)

const testPassword = "correct horse"

var testNow = time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)

// newTestServer wires a server to a migrated and seeded SQLite store in a
// temp dir. Photos are stored inline unless a test swaps the backend.
func newTestServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))
	_, err = seed.Run(ctx, st, pricing.DefaultSettings())
	require.NoError(t, err)

	return &server{
		store:        st,
		sessions:     auth.NewManager(st, time.Hour),
		creds:        auth.Credentials{Password: testPassword},
		cookie:       cookieConfig{Name: "steelhead_admin"},
		photos:       photos.InlineStorage{},
		limits:       photos.DefaultLimits(),
		exportPrefix: "steelhead-leads",
		corsOrigins:  []string{"*"},
		now:          func() time.Time { return testNow },
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// login signs in as the admin and returns the session cookie.
func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/admin/login", map[string]string{"password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == "steelhead_admin" {
			return c
		}
	}
	t.Fatalf("login did not set a session cookie")
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type errorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

type fieldErrorsResponse struct {
	Error   string `json:"error"`
	Details struct {
		FormErrors  []string            `json:"formErrors"`
		FieldErrors map[string][]string `json:"fieldErrors"`
	} `json:"details"`
}

func fenceInputs() map[string]any {
	return map[string]any{
		"projectType": "Fence",
		"dimensions":  map[string]any{"linearFeet": 100, "heightFeet": 6},
		"access":      "standard",
		"demoHaulOff": "standard",
		"slope":       "standard",
		"notes":       "",
	}
}

func fenceEstimate() pricing.Result {
	linear, height := 100.0, 6.0
	return pricing.Calculate(pricing.Inputs{
		ProjectType: pricing.ProjectFence,
		Dimensions:  pricing.Dimensions{LinearFeet: &linear, HeightFeet: &height},
		Access:      pricing.LevelStandard,
		DemoHaulOff: pricing.LevelStandard,
		Slope:       pricing.LevelStandard,
	}, pricing.DefaultSettings())
}

func TestHealth(t *testing.T) {
	h := newTestServer(t).routes()

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProjectTypes(t *testing.T) {
	h := newTestServer(t).routes()

	rec := doJSON(t, h, http.MethodGet, "/api/project-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ProjectTypes []projectTypeInfo `json:"projectTypes"`
		Levels       []string          `json:"complexityLevels"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.ProjectTypes, 4)
	assert.Equal(t, pricing.ProjectFence, body.ProjectTypes[0].Name)
	assert.Equal(t, pricing.DimLinearFeet, body.ProjectTypes[0].Measurement)
	assert.Equal(t, []pricing.Dimension{pricing.DimLinearFeet, pricing.DimHeightFeet}, body.ProjectTypes[0].RequiredFields)
	assert.Equal(t, pricing.ProjectRepairHandyman, body.ProjectTypes[3].Name)
	assert.Equal(t, []string{"easy", "standard", "difficult"}, body.Levels)
}

func TestEstimate(t *testing.T) {
	h := newTestServer(t).routes()

	rec := doJSON(t, h, http.MethodPost, "/api/estimate", fenceInputs())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Estimate pricing.Result `json:"estimate"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, fenceEstimate(), body.Estimate)
}

func TestEstimate_CoercesNumericStrings(t *testing.T) {
	h := newTestServer(t).routes()
	in := fenceInputs()
	in["dimensions"] = map[string]any{"linearFeet": "100", "heightFeet": "6"}

	rec := doJSON(t, h, http.MethodPost, "/api/estimate", in)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Estimate pricing.Result `json:"estimate"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, fenceEstimate().HighEstimate, body.Estimate.HighEstimate)
}

func TestEstimate_InvalidInputs(t *testing.T) {
	h := newTestServer(t).routes()
	in := fenceInputs()
	in["projectType"] = "Roof"
	in["slope"] = "steep"

	rec := doJSON(t, h, http.MethodPost, "/api/estimate", in)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body fieldErrorsResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "Invalid estimate inputs", body.Error)
	assert.Contains(t, body.Details.FieldErrors, "projectType")
	assert.Contains(t, body.Details.FieldErrors, "slope")
}

func TestEstimate_MalformedJSON(t *testing.T) {
	h := newTestServer(t).routes()

	rec := doJSON(t, h, http.MethodPost, "/api/estimate", `{"projectType":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body fieldErrorsResponse
	decodeBody(t, rec, &body)
	require.NotEmpty(t, body.Details.FormErrors)
	assert.True(t, strings.HasPrefix(body.Details.FormErrors[0], "Invalid JSON"))
}

func TestEstimate_OverflowingDimensions(t *testing.T) {
	h := newTestServer(t).routes()
	in := fenceInputs()
	in["dimensions"] = map[string]any{"linearFeet": 1e308, "heightFeet": 6}

	rec := doJSON(t, h, http.MethodPost, "/api/estimate", in)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "Invalid estimate inputs", body.Error)
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"value": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to encode response"}`, rec.Body.String())
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))
}

func TestEstimate_UsesCurrentSettings(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()

	next := pricing.DefaultSettings()
	next.LaborRatePerHour = 100
	require.NoError(t, srv.store.ReplaceSettings(context.Background(), next))

	rec := doJSON(t, h, http.MethodPost, "/api/estimate", fenceInputs())
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Estimate pricing.Result `json:"estimate"`
	}
	decodeBody(t, rec, &body)
	// 100 ft fence: 3 + 100/8 = 15.5 labor hours.
	assert.InDelta(t, 1550.0, body.Estimate.LaborCost, 1e-9)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t).routes()

	req := httptest.NewRequest(http.MethodOptions, "/api/estimate", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func photosDisk(t *testing.T) *photos.DiskStorage {
	t.Helper()
	return photos.NewDiskStorage(t.TempDir(), "/uploads")
}
