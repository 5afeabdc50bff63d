package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/serrors"
)

// RespondError maps service errors onto HTTP responses. Coded errors carry
// their own code and template data; anything unrecognized becomes an opaque
// 500 so internals never leak to clients.
func RespondError(w http.ResponseWriter, err error) {
	if errors.Is(err, composables.ErrNoPrincipal) {
		_ = WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required", nil)
		return
	}

	var coded *serrors.BaseError
	if errors.As(err, &coded) {
		_ = WriteError(w, statusForCode(coded.Code), coded.Code, coded.Message, coded.TemplateData)
		return
	}

	_ = WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}

func statusForCode(code string) int {
	switch {
	case code == accesscontrol.ErrCodeForbidden:
		return http.StatusForbidden
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_TAKEN"), strings.HasSuffix(code, "_EXISTS"):
		return http.StatusConflict
	case strings.HasPrefix(code, "HIERARCHY_"), strings.HasSuffix(code, "_CONFLICT"):
		return http.StatusUnprocessableEntity
	case strings.HasSuffix(code, "_HAS_ACTIVE_CHILDREN"), strings.HasSuffix(code, "_HAS_ACTIVE_SUBORDINATES"):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
