package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/httpapi"
	"github.com/helioshr/helios/pkg/serrors"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			err:        serrors.NewError("DEPARTMENT_NOT_FOUND", "department not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   "DEPARTMENT_NOT_FOUND",
		},
		{
			name:       "forbidden",
			err:        serrors.NewError("ACCESS_FORBIDDEN", "access denied"),
			wantStatus: http.StatusForbidden,
			wantCode:   "ACCESS_FORBIDDEN",
		},
		{
			name:       "conflict",
			err:        errors.Wrap(serrors.NewError("EMPLOYEE_CODE_TAKEN", "taken"), "creating"),
			wantStatus: http.StatusConflict,
			wantCode:   "EMPLOYEE_CODE_TAKEN",
		},
		{
			name:       "hierarchy violation",
			err:        serrors.NewError("HIERARCHY_CYCLE", "cycle"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "HIERARCHY_CYCLE",
		},
		{
			name:       "unauthenticated",
			err:        composables.ErrNoPrincipal,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHENTICATED",
		},
		{
			name:       "opaque internal",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			httpapi.RespondError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var envelope httpapi.ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.Equal(t, tt.wantCode, envelope.Code)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, httpapi.WriteJSON(rec, http.StatusCreated, map[string]int{"id": 7}))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())
}
