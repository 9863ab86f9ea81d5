package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clubhouse/clubhouse/internal/shared"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{shared.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("find message: %w", shared.ErrNotFound), http.StatusNotFound},
		{shared.ErrDuplicate, http.StatusConflict},
		{shared.ErrInvalidInput, http.StatusBadRequest},
		{shared.ErrCSRFTokenMismatch, http.StatusForbidden},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), "%v", tc.err)
	}
}

func TestNewErrorPageHidesDetails(t *testing.T) {
	page := NewErrorPage(errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, page.Status)
	assert.Equal(t, "Internal Server Error", page.Message)
}

func TestJSON(t *testing.T) {
	res := httptest.NewRecorder()
	JSON(res, http.StatusOK, map[string]string{"status": "ok"})
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, res.Body.String())
}
