package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid page range: 5-2", Kind: "invalid_range"})
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Get(context.Background(), "/anything", nil)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_range", apiErr.Kind)
	assert.Contains(t, err.Error(), "Invalid page range: 5-2")
}

func TestClient_PostAndDelete(t *testing.T) {
	var gotBody map[string]any
	var deleted bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			json.NewDecoder(r.Body).Decode(&gotBody)
			json.NewEncoder(w).Encode(map[string]string{"id": "abc"})
		case http.MethodDelete:
			deleted = true
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	var resp struct{ ID string }
	require.NoError(t, c.Post(context.Background(), "/api/sessions", map[string]string{"tool": "merge"}, &resp))
	assert.Equal(t, "abc", resp.ID)
	assert.Equal(t, "merge", gotBody["tool"])

	require.NoError(t, c.Delete(context.Background(), "/api/sessions/abc"))
	assert.True(t, deleted)
}

func TestClient_UploadAndDownload(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	require.NoError(t, os.WriteFile(a, []byte("AAA"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("BB"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/upload" {
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			var names []string
			for _, fh := range r.MultipartForm.File["files"] {
				names = append(names, fh.Filename)
			}
			json.NewEncoder(w).Encode(map[string]any{"files": names})
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="../a_rotated.pdf"`)
		w.Write(bytes.ToUpper(body))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	var up struct{ Files []string }
	require.NoError(t, c.Upload(context.Background(), "/upload", []string{a, b}, &up))
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, up.Files)

	f, err := c.Download(context.Background(), "/transform", map[string]int{"angle": 90})
	require.NoError(t, err)
	assert.Equal(t, "a_rotated.pdf", f.Name)
	assert.Equal(t, "application/pdf", f.ContentType)
	assert.Equal(t, `{"ANGLE":90}`, string(f.Data))

	saved, err := Save(filepath.Join(dir, "out"), f)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "a_rotated.pdf"), saved.Path)
	assert.Equal(t, len(f.Data), saved.Bytes)

	err = c.Upload(context.Background(), "/upload", []string{filepath.Join(dir, "missing.pdf")}, nil)
	assert.Error(t, err)
}

func TestOutputTo(t *testing.T) {
	data := map[string]any{"name": "split", "multi": false}

	var buf bytes.Buffer
	require.NoError(t, OutputTo(&buf, OutputFormatJSON, data))
	assert.JSONEq(t, `{"name":"split","multi":false}`, buf.String())

	buf.Reset()
	require.NoError(t, OutputTo(&buf, OutputFormatYAML, data))
	assert.Contains(t, buf.String(), "name: split")

	assert.Error(t, OutputTo(&buf, "xml", data))

	SetOutputFormat("json")
	assert.Equal(t, OutputFormatJSON, GetOutputFormat())
	SetOutputFormat("toml")
	assert.Equal(t, OutputFormatYAML, GetOutputFormat())
}

type fakeEndpoint struct {
	method, path, group string
	init                bool
}

func (e *fakeEndpoint) Route() (string, string, http.HandlerFunc) {
	return e.method, e.path, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(e.path))
	}
}
func (e *fakeEndpoint) RequiresInit() bool { return e.init }
func (e *fakeEndpoint) Group() string      { return e.group }
func (e *fakeEndpoint) Command(func() string) *cobra.Command {
	return &cobra.Command{Use: e.path}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeEndpoint{method: "GET", path: "/health"})
	r.Register(&fakeEndpoint{method: "GET", path: "/api/sessions", group: "sessions", init: true})
	r.Register(&fakeEndpoint{method: "DELETE", path: "/api/sessions/{id}", group: "sessions", init: true})
	require.Len(t, r.Endpoints(), 3)

	mux := http.NewServeMux()
	wrapped := 0
	r.RegisterRoutes(mux, func(h http.HandlerFunc) http.HandlerFunc {
		wrapped++
		return h
	})
	assert.Equal(t, 2, wrapped)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "/health", rec.Body.String())

	cmd := r.BuildCommands(func() string { return "" })
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"/health", "sessions"}, names)

	for _, c := range cmd.Commands() {
		if c.Name() == "sessions" {
			assert.Len(t, c.Commands(), 2)
		}
	}
}
