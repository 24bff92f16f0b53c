package v1

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"onegov.dev/electionday/internal/server/httpserver"
	"onegov.dev/electionday/internal/server/svr"
	"onegov.dev/electionday/internal/service"
	"onegov.dev/electionday/internal/tree"
)

func newTestApp() (*fiber.App, *svr.V1) {
	app := fiber.New(fiber.Config{ErrorHandler: httpserver.ErrorHandler})
	v1, _ := svr.CreateEndpointGroups(app)
	return app, v1
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, gjson.Result) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, gjson.ParseBytes(data)
}

func TestPageController(t *testing.T) {
	app, v1 := newTestApp()
	RegisterPage(v1, Page{PageService: service.NewPage(tree.NewMemoryStore())})

	status, wahlen := do(t, app, http.MethodPost, "/api/v1/pages", `{"title": "Wahlen"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "wahlen", wahlen.Get("name").String())
	assert.Equal(t, "wahlen", wahlen.Get("path").String())
	wahlenID := wahlen.Get("id").String()

	status, kr := do(t, app, http.MethodPost, "/api/v1/pages", `{"parentId": `+wahlenID+`, "title": "Kantonsrat 2015"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "wahlen/kantonsrat-2015", kr.Get("path").String())

	status, _ = do(t, app, http.MethodPost, "/api/v1/pages", `{"parentId": `+wahlenID+`, "title": "Regierungsrat 2015"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, got := do(t, app, http.MethodGet, "/api/v1/pages/by-path/wahlen/kantonsrat-2015", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, kr.Get("id").Int(), got.Get("id").Int())

	status, children := do(t, app, http.MethodGet, "/api/v1/pages/"+wahlenID+"/children", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"kantonsrat-2015", "regierungsrat-2015"}, names(children))

	status, renamed := do(t, app, http.MethodPatch, "/api/v1/pages/"+wahlenID, `{"title": "Wahlen und Abstimmungen"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Wahlen und Abstimmungen", renamed.Get("title").String())

	status, _ = do(t, app, http.MethodDelete, "/api/v1/pages/"+wahlenID, "")
	assert.Equal(t, fiber.StatusNoContent, status)

	status, roots := do(t, app, http.MethodGet, "/api/v1/pages", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, roots.Array())
}

func names(nodes gjson.Result) []string {
	var out []string
	for _, n := range nodes.Array() {
		out = append(out, n.Get("name").String())
	}
	return out
}

func TestPageControllerErrors(t *testing.T) {
	app, v1 := newTestApp()
	RegisterPage(v1, Page{PageService: service.NewPage(tree.NewMemoryStore())})

	status, _ := do(t, app, http.MethodPost, "/api/v1/pages", `{"title": "Wahlen"}`)
	require.Equal(t, fiber.StatusCreated, status)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		code   string
	}{
		{"missing title", http.MethodPost, "/api/v1/pages", `{}`, fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"name not normalized", http.MethodPost, "/api/v1/pages", `{"title": "x", "name": "Not Normalized"}`, fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"duplicate name", http.MethodPost, "/api/v1/pages", `{"title": "Wahlen", "name": "wahlen"}`, fiber.StatusConflict, "CONFLICT"},
		{"unknown page", http.MethodGet, "/api/v1/pages/999", "", fiber.StatusNotFound, "NOT_FOUND"},
		{"invalid id", http.MethodGet, "/api/v1/pages/abc", "", fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown path", http.MethodGet, "/api/v1/pages/by-path/abstimmungen", "", fiber.StatusNotFound, "NOT_FOUND"},
		{"invalid direction", http.MethodPost, "/api/v1/pages/1/move", `{"targetId": 1, "direction": "sideways"}`, fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"move to self", http.MethodPost, "/api/v1/pages/1/move", `{"targetId": 1, "direction": "above"}`, fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown route", http.MethodGet, "/api/v1/nothing", "", fiber.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Get("code").String())
		})
	}
}
