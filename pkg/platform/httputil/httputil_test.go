package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "carehub/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "internal_error", body["error"])
		assert.NotContains(t, body, "error_description")
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("forbidden keeps the message verbatim", func(t *testing.T) {
		w := httptest.NewRecorder()
		denied := dErrors.New(dErrors.CodeForbidden, "Unauthorized: Missing required permission")
		WriteError(w, errors.Join(denied, errors.New("audit down")))

		assert.Equal(t, http.StatusForbidden, w.Code)
		body := decode(t, w)
		assert.Equal(t, "forbidden", body["error"])
		assert.Equal(t, "Unauthorized: Missing required permission", body["error_description"])
	})

	t.Run("wrapped domain errors keep their code", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, fmt.Errorf("handler: %w", dErrors.New(dErrors.CodeNotFound, "Action x.y not found")))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Action x.y not found", decode(t, w)["error_description"])
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeUnauthorized:       http.StatusUnauthorized,
		dErrors.CodeForbidden:          http.StatusForbidden,
		dErrors.CodeNotFound:           http.StatusNotFound,
		dErrors.CodeBadRequest:         http.StatusBadRequest,
		dErrors.CodeValidation:         http.StatusUnprocessableEntity,
		dErrors.CodeConflict:           http.StatusConflict,
		dErrors.CodeInvariantViolation: http.StatusConflict,
		dErrors.CodeTimeout:            http.StatusGatewayTimeout,
		dErrors.CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFor(code), code)
	}
}

func TestReadBody(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, MaxBodyBytes+1)))
	_, err := ReadBody(w, r)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	r = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"a":1}`))
	body, err := ReadBody(w, r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(body))
}
