package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_home(t *testing.T) {
	app := setup(t)

	tests := []struct {
		name     string
		language string
		want     string
	}{
		{"default locale", "", "¡Bienvenido a la API de Sistema de Tutorías!"},
		{"english", "en-GB,en;q=0.8", "Welcome to the Sistema de Tutorías API!"},
		{"first supported wins", "fr-FR, en;q=0.5, es;q=0.9", "Welcome to the Sistema de Tutorías API!"},
		{"unsupported", "de", "¡Bienvenido a la API de Sistema de Tutorías!"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := app.request(t, http.MethodGet, "/", "", nil, "Accept-Language", tc.language)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.want, env.Message)
		})
	}
}

func TestServer_unknownRoute(t *testing.T) {
	app := setup(t)

	rec, env := app.request(t, http.MethodGet, "/api/nothing-here", "", nil, "Accept-Language", "en")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Resource not found", env.Message)
	assert.Nil(t, env.Errors)
}

func TestServer_metrics(t *testing.T) {
	app := setup(t)
	app.request(t, http.MethodGet, "/api/chapter", app.getToken(t, app.tutee), nil)
	app.request(t, http.MethodGet, "/api/chapter", "", nil)

	rec, _ := app.request(t, http.MethodGet, app.conf.Server.MetricsPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `tutorias_http_requests_total{code="200",method="GET",route="/api/chapter"} 1`)
	assert.Contains(t, body, `tutorias_http_requests_total{code="401",method="GET",route="/api/chapter"} 1`)
	assert.Contains(t, body, "tutorias_http_request_duration_seconds")
	assert.Contains(t, body, "go_goroutines")
}

func TestServer_docs(t *testing.T) {
	app := setup(t)

	rec, _ := app.request(t, http.MethodGet, "/docs/openapi.yaml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")
	assert.Contains(t, rec.Body.String(), "/tutoring/{id}/cancel:")

	rec, _ = app.request(t, http.MethodGet, "/docs", "", nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/docs/", rec.Header().Get("Location"))

	rec, _ = app.request(t, http.MethodGet, "/docs/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sistema de Tutorías")
}
