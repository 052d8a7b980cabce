package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistematutorias/tutorias/core/chapter"
)

func Test_chapterApi(t *testing.T) {
	app := setup(t)
	adminToken := app.getToken(t, app.admin)

	app.runTests(t, []httpTest{
		{name: "auth required", path: "/api/chapter", wantCode: http.StatusUnauthorized},
		{
			name: "admin required", method: http.MethodPost, path: "/api/chapter", body: chapter.NewChapter{Name: "Cusco"},
			token: app.getToken(t, app.tutor), wantCode: http.StatusForbidden,
		},
		{
			name: "blank name", method: http.MethodPost, path: "/api/chapter", body: chapter.NewChapter{Name: "  "},
			token: adminToken, wantCode: http.StatusBadRequest,
		},
		{
			name: "name exists", method: http.MethodPost, path: "/api/chapter", body: chapter.NewChapter{Name: "LIMA"},
			token: adminToken, wantCode: http.StatusBadRequest, wantMsg: "Ya existe un capítulo con este nombre",
		},
		{
			name: "unknown", path: "/api/chapter/unknown", token: adminToken,
			wantCode: http.StatusNotFound, wantMsg: "El capítulo no existe",
		},
	})

	rec, env := app.request(t, http.MethodPost, "/api/chapter/", adminToken, chapter.NewChapter{Name: " Arequipa "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Capítulo creado con éxito", env.Message)
	var ch chapter.Chapter
	decodeData(t, env, &ch)
	assert.Equal(t, "Arequipa", ch.Name)
	assert.Equal(t, "/api/chapter/"+ch.ID, rec.Header().Get("Location"))

	rec, env = app.request(t, http.MethodGet, "/api/chapter/"+ch.ID, app.getToken(t, app.tutee), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Capítulo encontrado", env.Message)

	tests := []struct {
		name     string
		ordering string
		want     []string
	}{
		{"by name", "", []string{"Arequipa", "Lima"}},
		{"by name desc", "?ordering=-name", []string{"Lima", "Arequipa"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := app.request(t, http.MethodGet, "/api/chapter"+tc.ordering, app.getToken(t, app.tutee), nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var chapters []chapter.Chapter
			decodeData(t, env, &chapters)
			names := make([]string, 0, len(chapters))
			for _, c := range chapters {
				names = append(names, c.Name)
			}
			assert.Equal(t, tc.want, names)
		})
	}
}
