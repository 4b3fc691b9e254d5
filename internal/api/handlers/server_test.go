package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"archgraph.io/archgraph/internal/api/middleware"
	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/service"
	"archgraph.io/archgraph/internal/store"
	"archgraph.io/archgraph/internal/store/memory"
	"archgraph.io/archgraph/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (domain.Aggregate, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Save(context.Context, string, domain.Aggregate) error {
	return errors.New("connection refused")
}

// newTestRouter wires the handlers the way the application router does, minus
// auth. A non-empty X-Test-User header plays the role of the JWT middleware.
func newTestRouter(t *testing.T, st store.Store) *gin.Engine {
	t.Helper()
	svc := service.New(st, service.WithIDGenerator(testutil.SequentialIDs("id")))

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Request = c.Request.WithContext(middleware.SetUserContext(c.Request.Context(), uid, uid))
		}
		c.Next()
	})
	NewServer(ServerDeps{Service: svc, Store: st}).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body=%s", w.Body.String())
	return out
}

func requireErrorBody(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, "body=%s", w.Body.String())
	body := decodeJSON[map[string]any](t, w)
	require.Equal(t, code, body["code"])
	require.NotEmpty(t, body["message"])
}

func TestHandlers_ProjectLifecycle(t *testing.T) {
	r := newTestRouter(t, memory.New())

	w := doRequest(t, r, http.MethodPost, "/api/v1/projects", `{"name":"Shop","tags":["retail"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decodeJSON[domain.Project](t, w)
	require.Equal(t, "Shop", p.Name)
	require.NotEmpty(t, p.RootSystemID)
	require.Contains(t, p.Systems, p.RootSystemID)

	w = doRequest(t, r, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeJSON[ProjectList](t, w)
	require.Equal(t, 1, list.Total)
	require.Equal(t, p.ID, list.Items[0].ID)

	w = doRequest(t, r, http.MethodPatch, "/api/v1/projects/"+p.ID, `{"description":"online store"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeJSON[domain.Project](t, w)
	require.Equal(t, "Shop", updated.Name)
	require.Equal(t, "online store", updated.Description)

	w = doRequest(t, r, http.MethodDelete, "/api/v1/projects/"+p.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())

	w = doRequest(t, r, http.MethodGet, "/api/v1/projects/"+p.ID, "")
	requireErrorBody(t, w, http.StatusNotFound, "PROJECT_NOT_FOUND")
}

func TestHandlers_EmptyListIsArray(t *testing.T) {
	r := newTestRouter(t, memory.New())

	w := doRequest(t, r, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"items":[],"total":0}`, w.Body.String())
}

func TestHandlers_ArchitectureRoundTrip(t *testing.T) {
	r := newTestRouter(t, memory.New())

	w := doRequest(t, r, http.MethodPost, "/api/v1/projects", `{"name":"Shop"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	p := decodeJSON[domain.Project](t, w)
	base := "/api/v1/projects/" + p.ID

	w = doRequest(t, r, http.MethodPost, base+"/systems", `{"name":"Checkout"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sys := decodeJSON[domain.System](t, w)

	w = doRequest(t, r, http.MethodPatch, base+"/systems/"+sys.ID, `{"description":"pays"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "pays", decodeJSON[domain.System](t, w).Description)

	w = doRequest(t, r, http.MethodPost, base+"/components", `{"name":"Web"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	web := decodeJSON[domain.Component](t, w)

	w = doRequest(t, r, http.MethodPost, base+"/components", `{"name":"API"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	api := decodeJSON[domain.Component](t, w)

	w = doRequest(t, r, http.MethodPost, base+"/components/"+api.ID+"/entry-points", `{"name":"POST /orders","type":"http"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ep := decodeJSON[domain.EntryPoint](t, w)

	w = doRequest(t, r, http.MethodGet, base+"/entry-points/"+ep.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "http", decodeJSON[domain.EntryPoint](t, w).Type)

	w = doRequest(t, r, http.MethodGet, base+"/components/"+api.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{ep.ID}, decodeJSON[domain.Component](t, w).EntryPointIDs)

	flowBody := `{
		"name": "Place order",
		"systemScopeIds": ["` + sys.ID + `"],
		"steps": [{
			"name": "submit",
			"source": {"componentId": "` + web.ID + `"},
			"target": {"componentId": "` + api.ID + `", "entryPointId": "` + ep.ID + `"}
		}]
	}`
	w = doRequest(t, r, http.MethodPost, base+"/flows", flowBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	flow := decodeJSON[domain.Flow](t, w)
	require.Len(t, flow.Steps, 1)

	w = doRequest(t, r, http.MethodDelete, base+"/components/"+api.ID, "")
	requireErrorBody(t, w, http.StatusBadRequest, "COMPONENT_IN_USE")

	w = doRequest(t, r, http.MethodDelete, base+"/entry-points/"+ep.ID, "")
	requireErrorBody(t, w, http.StatusBadRequest, "ENTRY_POINT_IN_USE")

	w = doRequest(t, r, http.MethodDelete, base+"/flows/"+flow.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, r, http.MethodDelete, base+"/components/"+api.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, r, http.MethodGet, base+"/entry-points/"+ep.ID, "")
	requireErrorBody(t, w, http.StatusNotFound, "ENTRY_POINT_NOT_FOUND")

	w = doRequest(t, r, http.MethodDelete, base+"/systems/"+p.RootSystemID, "")
	requireErrorBody(t, w, http.StatusBadRequest, "ROOT_SYSTEM_IMMUTABLE")

	w = doRequest(t, r, http.MethodDelete, base+"/systems/"+sys.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandlers_DataModelKeepsIntegerConstraints(t *testing.T) {
	r := newTestRouter(t, memory.New())

	w := doRequest(t, r, http.MethodPost, "/api/v1/projects", `{"name":"Shop"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/api/v1/projects/" + decodeJSON[domain.Project](t, w).ID

	w = doRequest(t, r, http.MethodPost, base+"/data-models", `{
		"name": "User",
		"attributes": [{"name": "login", "type": "string", "constraints": [{"type": "minLength", "value": 5}]}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	model := decodeJSON[map[string]any](t, w)
	attrs := model["attributes"].([]any)
	require.Len(t, attrs, 1)
	constraints := attrs[0].(map[string]any)["constraints"].([]any)
	require.Equal(t, map[string]any{"type": "minLength", "value": float64(5)}, constraints[0])

	modelID := model["id"].(string)
	w = doRequest(t, r, http.MethodGet, base+"/data-models/"+modelID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodPatch, base+"/data-models/"+modelID, `{"name":"Account"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Account", decodeJSON[map[string]any](t, w)["name"])

	w = doRequest(t, r, http.MethodDelete, base+"/data-models/"+modelID, "")
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandlers_ErrorMapping(t *testing.T) {
	r := newTestRouter(t, memory.New())
	w := doRequest(t, r, http.MethodPost, "/api/v1/projects", `{"name":"Shop"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/api/v1/projects/" + decodeJSON[domain.Project](t, w).ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed json", http.MethodPost, "/api/v1/projects", `{"name":`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"trailing json value", http.MethodPost, "/api/v1/projects", `{"name":"a"} {}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"body is not an object", http.MethodPost, "/api/v1/projects", `["name"]`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"blank name", http.MethodPost, "/api/v1/projects", `{"name":"  "}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown project", http.MethodGet, "/api/v1/projects/ghost", "", http.StatusNotFound, "PROJECT_NOT_FOUND"},
		{"unknown system", http.MethodGet, base + "/systems/ghost", "", http.StatusNotFound, "SYSTEM_NOT_FOUND"},
		{"unknown parent", http.MethodPost, base + "/systems", `{"name":"x","parentId":"ghost"}`, http.StatusNotFound, "PARENT_SYSTEM_NOT_FOUND"},
		{"unknown flow", http.MethodPatch, base + "/flows/ghost", `{}`, http.StatusNotFound, "FLOW_NOT_FOUND"},
		{"empty scope", http.MethodPost, base + "/flows", `{"name":"x","systemScopeIds":[]}`, http.StatusBadRequest, "SYSTEM_SCOPE_EMPTY"},
		{"unknown data model", http.MethodDelete, base + "/data-models/ghost", "", http.StatusNotFound, "DATA_MODEL_NOT_FOUND"},
		{"unknown component", http.MethodPost, base + "/components/ghost/entry-points", `{"name":"x","type":"http"}`, http.StatusNotFound, "COMPONENT_NOT_FOUND"},
		{"unknown entry point", http.MethodPatch, base + "/entry-points/ghost", `{}`, http.StatusNotFound, "ENTRY_POINT_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, r, tt.method, tt.path, tt.body)
			requireErrorBody(t, w, tt.status, tt.code)
		})
	}
}

func TestHandlers_EmptyBodyIsEmptyObject(t *testing.T) {
	r := newTestRouter(t, memory.New())
	w := doRequest(t, r, http.MethodPost, "/api/v1/projects", `{"name":"Shop"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	p := decodeJSON[domain.Project](t, w)

	w = doRequest(t, r, http.MethodPatch, "/api/v1/projects/"+p.ID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "Shop", decodeJSON[domain.Project](t, w).Name)
}

func TestHandlers_TenantFromUserContext(t *testing.T) {
	r := newTestRouter(t, memory.New())

	w := doRequest(t, r, http.MethodPost, "/api/v1/projects", `{"name":"Alice's"}`, "X-Test-User", "alice")
	require.Equal(t, http.StatusCreated, w.Code)
	p := decodeJSON[domain.Project](t, w)

	w = doRequest(t, r, http.MethodGet, "/api/v1/projects", "", "X-Test-User", "bob")
	require.Equal(t, 0, decodeJSON[ProjectList](t, w).Total)

	w = doRequest(t, r, http.MethodGet, "/api/v1/projects/"+p.ID, "", "X-Test-User", "bob")
	requireErrorBody(t, w, http.StatusNotFound, "PROJECT_NOT_FOUND")

	w = doRequest(t, r, http.MethodGet, "/api/v1/projects/"+p.ID, "", "X-Test-User", "alice")
	require.Equal(t, http.StatusOK, w.Code)

	// Anonymous callers share the default tenant.
	w = doRequest(t, r, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, 0, decodeJSON[ProjectList](t, w).Total)
}

func TestHandlers_StoreFailureIsInternal(t *testing.T) {
	r := newTestRouter(t, brokenStore{})

	w := doRequest(t, r, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeJSON[map[string]any](t, w)
	require.Equal(t, "INTERNAL_ERROR", body["code"])
	require.NotContains(t, w.Body.String(), "connection refused")
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		store  store.Store
		path   string
		status int
		want   Health
	}{
		{"live", memory.New(), "/api/v1/health/live", http.StatusOK, Health{Status: HealthStatusOk}},
		{"ready", memory.New(), "/api/v1/health/ready", http.StatusOK, Health{Status: HealthStatusOk, Checks: map[string]string{"store": "ok"}}},
		{"not ready", brokenStore{}, "/api/v1/health/ready", http.StatusServiceUnavailable, Health{Status: HealthStatusDegraded, Checks: map[string]string{"store": "error"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, tt.store)
			w := doRequest(t, r, http.MethodGet, tt.path, "")
			require.Equal(t, tt.status, w.Code)
			require.Equal(t, tt.want, decodeJSON[Health](t, w))
		})
	}
}
