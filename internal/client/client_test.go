package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/ecotrack/internal/domain"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        map[string]any
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			require.NoError(t, json.Unmarshal(data, &rec.Body))
		}
		seen = append(seen, rec)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c, &seen
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsRelativeBase(t *testing.T) {
	_, err := New("/api")
	require.Error(t, err)
	_, err = New("ftp://host")
	require.Error(t, err)

	c, err := New("http://127.0.0.1:8000/prefix/")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000/prefix", c.BaseURL())
}

func TestList(t *testing.T) {
	c, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Action{
			{ID: 1, Action: "Recycling", Date: "2025-01-08", Points: 25},
			{ID: 2, Action: "Composting", Date: "2025-01-09", Points: 10},
		})
	})
	items, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[1].ID)
	assert.Equal(t, "GET", (*seen)[0].Method)
	assert.Equal(t, "/api/actions/", (*seen)[0].Path)
}

func TestListNonArrayIsEmpty(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"unexpected": "object"})
	})
	items, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCreateSendsPayloadWithoutID(t *testing.T) {
	c, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, domain.Action{ID: 1, Action: "Recycling", Date: "2025-01-08", Points: 25})
	})
	got, err := c.Create(context.Background(), domain.ActionInput{Action: "Recycling", Date: "2025-01-08", Points: 25})
	require.NoError(t, err)
	assert.Equal(t, domain.Action{ID: 1, Action: "Recycling", Date: "2025-01-08", Points: 25}, got)

	req := (*seen)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.ContentType)
	assert.Equal(t, map[string]any{"action": "Recycling", "date": "2025-01-08", "points": float64(25)}, req.Body)
}

func TestUpdateSendsOnlyPatchedFields(t *testing.T) {
	c, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.Action{ID: 1, Action: "Composting", Date: "2025-01-10", Points: 30})
	})
	points := int64(30)
	got, err := c.Update(context.Background(), 1, domain.ActionPatch{Points: &points})
	require.NoError(t, err)
	assert.Equal(t, int64(30), got.Points)

	req := (*seen)[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/api/actions/1/", req.Path)
	assert.Equal(t, map[string]any{"points": float64(30)}, req.Body)
}

func TestReplaceUsesPut(t *testing.T) {
	c, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.Action{ID: 3, Action: "Bike", Date: "2025-02-01", Points: 5})
	})
	_, err := c.Replace(context.Background(), 3, domain.ActionInput{Action: "Bike", Date: "2025-02-01", Points: 5})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, (*seen)[0].Method)
	assert.Equal(t, "/api/actions/3/", (*seen)[0].Path)
}

func TestDeleteRequires204(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    bool
		wantErr bool
	}{
		{name: "no content", status: http.StatusNoContent, want: true},
		{name: "ok is not deletion", status: http.StatusOK, want: false},
		{name: "not found", status: http.StatusNotFound, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			ok, err := c.Delete(context.Background(), 9)
			assert.Equal(t, "/api/actions/9/", (*seen)[0].Path)
			assert.Equal(t, tt.want, ok)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNon2xxBecomesStatusError(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	})
	_, err := c.Get(context.Background(), 42)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, `{"detail":"Not found."}`, statusErr.Body)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestValidationStatusIsNotNotFound(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"points": {"points must be >= 0"}})
	})
	_, err := c.Create(context.Background(), domain.ActionInput{Action: "x", Date: "2025-01-01", Points: -1})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base)
	require.NoError(t, err)
	_, err = c.List(context.Background())
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}
