package errs

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/submission_controller/pkg/option"
)

func TestKindAndStatus(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantKind   Kind
		wantStatus int
	}{
		{name: "nil", err: nil, wantKind: KindInternal, wantStatus: http.StatusOK},
		{name: "plain", err: io.EOF, wantKind: KindInternal, wantStatus: http.StatusInternalServerError},
		{name: "validation", err: ValidationError(ReasonStructure, "bad"), wantKind: KindValidation, wantStatus: http.StatusBadRequest},
		{name: "policy wrapped", err: fmt.Errorf("Intake failed at policy: %w", PolicyViolation(ReasonCooloff, "wait")), wantKind: KindPolicy, wantStatus: http.StatusForbidden},
		{name: "not found", err: NotFound("submission", 1), wantKind: KindNotFound, wantStatus: http.StatusNotFound},
		{name: "conflict", err: Conflict(ReasonAlreadyConnected, "taken"), wantKind: KindConflict, wantStatus: http.StatusConflict},
		{name: "git", err: GitFailure(ReasonEmptyRepository, "empty", io.EOF), wantKind: KindGit, wantStatus: http.StatusBadGateway},
		{name: "storage", err: StorageFailure("disk", io.EOF), wantKind: KindStorage, wantStatus: http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantKind, KindOf(tc.err))
			assert.Equal(t, tc.wantStatus, HTTPStatus(tc.err))
		})
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", PolicyViolation(ReasonPendingSubmission, "busy"))
	assert.True(t, errors.Is(err, ErrPolicy))
	assert.True(t, errors.Is(err, ErrPendingSubmission))
	assert.False(t, errors.Is(err, ErrCooloff))
	assert.False(t, errors.Is(err, ErrNotFound))

	cause := errors.New("permission denied")
	assert.ErrorIs(t, StorageFailure("write", cause), cause)
}

func TestDetails(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ValidationError(ReasonAuthorsMalformed, "bad authors", "line 1", "line 3"))
	assert.Equal(t, []string{"line 1", "line 3"}, Details(err))
	assert.Nil(t, Details(io.EOF))
}

func TestFound(t *testing.T) {
	v, err := Found(option.Some(3), "thing", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = Found(option.None[int](), "thing", 1)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Contains(t, err.Error(), "thing 1 not found")
}
