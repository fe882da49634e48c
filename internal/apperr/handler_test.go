package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DjordjeVuckovic/fineregr/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGlobalErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", apperr.NewValidation("bad command"), http.StatusBadRequest, `"error":"bad command"`},
		{"http error", echo.ErrNotFound, http.StatusNotFound, `"error":"Not Found"`},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, `"error":"internal server error"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			apperr.GlobalErrorHandler()(tc.err, c)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestGlobalErrorHandler_CancelledRequest(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/rows", nil), rec)

	apperr.GlobalErrorHandler()(fmt.Errorf("aggregate: %w", context.Canceled), c)

	assert.False(t, c.Response().Committed)
	assert.Empty(t, rec.Body.String())
}
