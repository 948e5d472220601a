package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchkit/freegift/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewServer(st, slog.New(slog.DiscardHandler))
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func validDiscount() map[string]any {
	return map[string]any{
		"title":         "Free gift with purchase",
		"method":        "automatic",
		"startsAt":      "2026-08-01T00:00:00Z",
		"configuration": `{"offeredProductId":"V1","freeProductId":"V2"}`,
	}
}

func TestDiscountLifecycle(t *testing.T) {
	s := newTestServer(t)

	// Create.
	rec := doJSON(t, s, http.MethodPost, "/api/discounts", validDiscount())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Discount store.Definition `json:"discount"`
		Warnings []string         `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Discount.ID)
	assert.Empty(t, created.Warnings)

	// Read.
	rec = doJSON(t, s, http.MethodGet, "/api/discounts/"+created.Discount.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// List.
	rec = doJSON(t, s, http.MethodGet, "/api/discounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Discounts []store.Definition `json:"discounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Discounts, 1)

	// Update.
	upd := validDiscount()
	upd["title"] = "Holiday gift"
	rec = doJSON(t, s, http.MethodPut, "/api/discounts/"+created.Discount.ID, upd)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Delete.
	rec = doJSON(t, s, http.MethodDelete, "/api/discounts/"+created.Discount.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/discounts/"+created.Discount.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreate_RejectsInvalidConfiguration(t *testing.T) {
	s := newTestServer(t)

	d := validDiscount()
	d["configuration"] = `{"offeredProductId":""}`
	rec := doJSON(t, s, http.MethodPost, "/api/discounts", d)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid configuration", resp.Error)
	assert.NotEmpty(t, resp.Fields)
}

func TestCreate_RequiresTitle(t *testing.T) {
	s := newTestServer(t)

	d := validDiscount()
	d["title"] = ""
	rec := doJSON(t, s, http.MethodPost, "/api/discounts", d)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreate_WarnsOnIdenticalVariants(t *testing.T) {
	s := newTestServer(t)

	d := validDiscount()
	d["configuration"] = `{"offeredProductId":"V1","freeProductId":"V1"}`
	rec := doJSON(t, s, http.MethodPost, "/api/discounts", d)
	require.Equal(t, http.StatusCreated, rec.Code, "equal ids are legal, only warned about")

	var created struct {
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Warnings, 1)
	assert.Contains(t, created.Warnings[0], "same variant")
}

func TestUpdate_MissingDiscount(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/discounts/no-such-id", validDiscount())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetafields(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/metafields", map[string]string{
		"key":   "function_id",
		"value": "fn-1",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/metafields", map[string]string{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "key is required")
}

func TestBadRequestBodies(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/discounts", "/api/metafields"} {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, fmt.Sprintf("path %s", path))
	}
}
