package errors_test

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	domainerrors "github.com/limccn/omi-cache-manager/internal/domain/errors"
)

func TestDomainError_Predicates(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		is     func(error) bool
		status int
	}{
		{"not found", domainerrors.NewNotFoundError("key", "foo"), domainerrors.IsNotFound, http.StatusNotFound},
		{"configuration", domainerrors.NewConfigurationError("bad", "CACHE_REDIS_PORT"), domainerrors.IsConfigurationError, http.StatusInternalServerError},
		{"argument", domainerrors.NewArgumentError("get", "no key"), domainerrors.IsArgumentError, http.StatusInternalServerError},
		{"resolution", domainerrors.NewResolutionError("memcached"), domainerrors.IsResolutionError, http.StatusInternalServerError},
		{"binding", domainerrors.NewBindingConflictError(), domainerrors.IsBindingConflict, http.StatusConflict},
		{"command", domainerrors.NewCommandError("incr", assert.AnError), domainerrors.IsCommandError, http.StatusInternalServerError},
		{"key", domainerrors.NewKeyError("foo", assert.AnError), domainerrors.IsKeyError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
			assert.True(t, tt.is(errors.Wrap(tt.err, "wrapped")), "predicates see through wrapping")
			assert.False(t, tt.is(assert.AnError))

			domainErr, ok := domainerrors.GetDomainError(tt.err)
			assert.True(t, ok)
			assert.Equal(t, tt.status, domainErr.HTTPStatus)
		})
	}
}

func TestDomainError_Message(t *testing.T) {
	err := domainerrors.NewCommandError("incr", errors.New("ERR value is not an integer"))
	assert.Equal(t, "COMMAND_ERROR: execute command incr failed (ERR value is not an integer)", err.Error())
	assert.ErrorContains(t, err, "not an integer")

	assert.Equal(t, "BINDING_CONFLICT: "+domainerrors.NewBindingConflictError().Message,
		domainerrors.NewBindingConflictError().Error())
}

func TestDomainError_Unwrap(t *testing.T) {
	err := domainerrors.NewKeyError("foo", assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, domainerrors.IsDomainError(assert.AnError))
	assert.True(t, domainerrors.IsDomainError(errors.Wrap(err, "outer")))
}
