package serrors_test

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"

	"github.com/helioshr/helios/pkg/serrors"
)

func TestBaseError(t *testing.T) {
	sentinel := serrors.NewError("THING_NOT_FOUND", "thing not found")

	wrapped := errors.Wrap(
		serrors.NewError("THING_NOT_FOUND", "thing not found").
			WithTemplateData(map[string]string{"id": "42"}),
		"loading thing",
	)

	assert.ErrorIs(t, wrapped, sentinel)
	assert.NotErrorIs(t, wrapped, serrors.NewError("OTHER", "other"))
	assert.Equal(t, "THING_NOT_FOUND: thing not found", sentinel.Error())
}
