package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStorePutAndDelete(t *testing.T) {
	var deleted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "hello", string(body))
			assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
			pathname := strings.TrimPrefix(r.URL.Path, "/")
			json.NewEncoder(w).Encode(BlobUploadResult{
				URL:      "https://cdn.example.org/" + pathname,
				Pathname: pathname,
			})
		case r.Method == http.MethodPost && r.URL.Path == "/delete":
			var payload struct {
				URLs []string `json:"urls"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			deleted = append(deleted, payload.URLs...)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	store := NewBlobStore(server.URL+"/", "test-token")
	require.True(t, store.Enabled())

	pathname := BlobPathname("CV.PDF")
	assert.True(t, strings.HasPrefix(pathname, "uploads/"))
	assert.True(t, strings.HasSuffix(pathname, ".pdf"))

	res, err := store.Put(ctx, pathname, "application/pdf", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.org/"+pathname, res.URL)
	assert.Equal(t, pathname, res.Pathname)

	require.NoError(t, store.Delete(ctx, res.URL))
	assert.Equal(t, []string{res.URL}, deleted)
}

func TestBlobStoreErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewBlobStore(server.URL, "tok").Put(ctx, "uploads/a.png", "image/png", strings.NewReader("x"))
	assert.Error(t, err)

	disabled := NewBlobStore("", "")
	assert.False(t, disabled.Enabled())
	_, err = disabled.Put(ctx, "uploads/a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBlobStoreDisabled)
	assert.True(t, IsKind(disabled.Delete(ctx, "u"), KindUnavailable))
}
