package graph

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	abstractions "github.com/microsoft/kiota-abstractions-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteCallError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *RemoteCallError
		want string
	}{
		{
			name: "status code and message",
			err:  &RemoteCallError{Op: "list inbox", StatusCode: 403, Code: "ErrorAccessDenied", Message: "Access is denied."},
			want: "list inbox failed (HTTP 403): ErrorAccessDenied: Access is denied.",
		},
		{
			name: "falls back to wrapped error",
			err:  &RemoteCallError{Op: "get user token", Err: errors.New("connection refused")},
			want: "get user token failed: connection refused",
		},
		{
			name: "throttled",
			err:  &RemoteCallError{Op: "send mail", StatusCode: 429, Code: "TooManyRequests", Message: "slow down", RetryAfter: "10"},
			want: "send mail failed (HTTP 429): TooManyRequests: slow down (retry after 10 seconds)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestNewRemoteCallError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, newRemoteCallError("op", nil))
	})

	t.Run("unwraps to cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := newRemoteCallError("get current user", cause)

		var rce *RemoteCallError
		require.ErrorAs(t, err, &rce)
		assert.Equal(t, "get current user", rce.Op)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("azcore response error", func(t *testing.T) {
		respErr := &azcore.ResponseError{StatusCode: http.StatusUnauthorized, ErrorCode: "invalid_grant"}
		err := newRemoteCallError("get user token", fmt.Errorf("token: %w", respErr))

		var rce *RemoteCallError
		require.ErrorAs(t, err, &rce)
		assert.Equal(t, http.StatusUnauthorized, rce.StatusCode)
		assert.Equal(t, "invalid_grant", rce.Code)
	})

	t.Run("kiota api error", func(t *testing.T) {
		apiErr := &abstractions.ApiError{ResponseStatusCode: http.StatusBadGateway, Message: "the server returned an unexpected status code"}
		err := newRemoteCallError("list inbox", apiErr)

		var rce *RemoteCallError
		require.ErrorAs(t, err, &rce)
		assert.Equal(t, http.StatusBadGateway, rce.StatusCode)
		assert.Equal(t, "the server returned an unexpected status code", rce.Message)
	})

	t.Run("does not double wrap", func(t *testing.T) {
		inner := &RemoteCallError{Op: "send mail", StatusCode: 500}
		err := newRemoteCallError("outer", inner)
		assert.Same(t, inner, err)
	})
}
