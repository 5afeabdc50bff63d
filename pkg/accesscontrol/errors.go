package accesscontrol

import (
	"strconv"

	"github.com/helioshr/helios/pkg/serrors"
)

const ErrCodeForbidden = "ACCESS_FORBIDDEN"

// ErrForbidden is the sentinel callers compare against with errors.Is.
var ErrForbidden = serrors.NewError(ErrCodeForbidden, "access denied")

// forbiddenError builds the error returned for a denied request. A denial is
// always surfaced as an error, never converted into an empty result.
func forbiddenError(req Request) *serrors.BaseError {
	return serrors.NewError(ErrCodeForbidden, "access denied").WithTemplateData(map[string]string{
		"action": string(req.Action),
		"user":   strconv.FormatInt(req.Principal.UserID, 10),
		"tier":   strconv.Itoa(int(req.Principal.Tier)),
		"path":   req.Path,
	})
}
