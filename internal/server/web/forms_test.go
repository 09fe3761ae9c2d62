package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/formkeeper/internal/server/models"
	"github.com/dmitrijs2005/formkeeper/internal/server/repositories/submissions"
	"github.com/dmitrijs2005/formkeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormsClient(t *testing.T) (*testClient, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := submissions.OpenSQLite(context.Background(), "file:"+filepath.Join(dir, "datos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fs := services.NewFormService(map[string]submissions.Repository{
		services.BackendText: submissions.NewTextRepository(filepath.Join(dir, submissions.TextFileName)),
		services.BackendJSON: submissions.NewJSONRepository(filepath.Join(dir, submissions.JSONFileName)),
		services.BackendCSV:  submissions.NewCSVRepository(filepath.Join(dir, submissions.CSVFileName)),
		services.BackendDB:   submissions.NewSQLiteRepository(db),
	})

	s := newTestServer(t)
	NewFormHandlers(fs, newTestRenderer(t)).Mount(s.App())
	return newTestClient(t, s.App()), dir
}

type saveResponse struct {
	Mensaje string `json:"mensaje"`
	ID      string `json:"id"`
}

type listResponse struct {
	Datos []models.Submission `json:"datos"`
}

func TestForms_Page(t *testing.T) {
	tc, _ := newFormsClient(t)

	requireRedirect(t, tc.get("/"), "/formulario")

	resp := tc.get("/formulario")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	for _, b := range []string{"txt", "json", "csv", "db"} {
		assert.Contains(t, body, `formaction="/guardar_`+b+`"`)
		assert.Contains(t, body, `href="/leer_`+b+`"`)
	}
	assert.NotContains(t, body, "guardar_s3")
}

func TestForms_SaveAndReadEveryBackend(t *testing.T) {
	tc, _ := newFormsClient(t)

	for _, b := range []string{"txt", "json", "csv", "db"} {
		t.Run(b, func(t *testing.T) {
			resp := tc.postForm("/guardar_"+b, url.Values{"nombre": {"Ana"}, "email": {"ana@example.com"}})
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			var saved saveResponse
			decodeJSON(t, resp, &saved)
			assert.NotEmpty(t, saved.ID)
			assert.True(t, strings.HasPrefix(saved.Mensaje, "Datos guardados"))

			resp = tc.postJSON("/guardar_"+b, `{"nombre": "Luis", "email": "luis@example.com"}`)
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			resp = tc.get("/leer_" + b)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var list listResponse
			decodeJSON(t, resp, &list)
			require.Len(t, list.Datos, 2)
			assert.Equal(t, saved.ID, list.Datos[0].ID)
			assert.Equal(t, "Ana", list.Datos[0].Name)
			assert.Equal(t, "luis@example.com", list.Datos[1].Email)
		})
	}
}

func TestForms_BackendsAreIndependent(t *testing.T) {
	tc, _ := newFormsClient(t)

	resp := tc.postForm("/guardar_txt", url.Values{"nombre": {"Ana"}, "email": {"ana@example.com"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = tc.get("/leer_db")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list listResponse
	decodeJSON(t, resp, &list)
	assert.Empty(t, list.Datos)

	resp = tc.get("/leer_json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestForms_MissingFilesAre404(t *testing.T) {
	tc, _ := newFormsClient(t)

	for _, b := range []string{"txt", "json", "csv"} {
		resp := tc.get("/leer_" + b)
		require.Equal(t, http.StatusNotFound, resp.StatusCode, b)
		var e map[string]string
		decodeJSON(t, resp, &e)
		assert.NotEmpty(t, e["error"])
	}
}

func TestForms_CorruptedJSONIs500(t *testing.T) {
	tc, dir := newFormsClient(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, submissions.JSONFileName), []byte("[{"), 0o600))

	resp := tc.get("/leer_json")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp = tc.postForm("/guardar_json", url.Values{"nombre": {"Ana"}, "email": {"ana@example.com"}})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestForms_NullJSONFileListsEmpty(t *testing.T) {
	tc, dir := newFormsClient(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, submissions.JSONFileName), []byte("null\n"), 0o600))

	resp := tc.get("/leer_json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"datos": []}`, readBody(t, resp))
}

func TestForms_Validation(t *testing.T) {
	tc, dir := newFormsClient(t)

	tests := []url.Values{
		{"nombre": {""}, "email": {"ana@example.com"}},
		{"nombre": {"Ana"}, "email": {"no-at-sign"}},
		{"nombre": {strings.Repeat("x", 101)}, "email": {"ana@example.com"}},
		{"nombre": {"Ana\tTab"}, "email": {"ana@example.com"}},
		{"nombre": {"Jos\xe9"}, "email": {"jose@example.com"}},
	}
	for i, form := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			resp := tc.postForm("/guardar_txt", form)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var e map[string]string
			decodeJSON(t, resp, &e)
			assert.NotEmpty(t, e["error"])
		})
	}

	_, err := os.Stat(filepath.Join(dir, submissions.TextFileName))
	assert.True(t, errors.Is(err, os.ErrNotExist), "nothing may be written on invalid input")
}

func TestForms_UnparsableBody(t *testing.T) {
	tc, _ := newFormsClient(t)

	req := httptest.NewRequest(http.MethodPost, "/guardar_csv", strings.NewReader("nombre=Ana"))
	req.Header.Set("Content-Type", "text/plain")
	resp := tc.do(req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = tc.postJSON("/guardar_csv", `{"nombre": `)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type failingForms struct{}

func (failingForms) Backends() []string { return []string{services.BackendDB} }
func (failingForms) Save(context.Context, string, string, string) (*models.Submission, error) {
	return nil, errors.New("db error: constraint failed")
}
func (failingForms) List(context.Context, string) ([]models.Submission, error) {
	return nil, errors.New("db error: no such table")
}

func TestForms_StoreFailureIs500(t *testing.T) {
	s := newTestServer(t)
	NewFormHandlers(failingForms{}, newTestRenderer(t)).Mount(s.App())
	tc := newTestClient(t, s.App())

	resp := tc.postForm("/guardar_db", url.Values{"nombre": {"Ana"}, "email": {"ana@example.com"}})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, readBody(t, resp), "constraint")

	resp = tc.get("/leer_db")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
