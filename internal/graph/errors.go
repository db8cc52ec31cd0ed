package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	abstractions "github.com/microsoft/kiota-abstractions-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
)

var (
	// ErrConfiguration reports missing or invalid settings. It is detected before
	// any network activity.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrUninitializedSession reports an operation invoked before Initialize.
	ErrUninitializedSession = errors.New("graph has not been initialized for user auth")

	// ErrInvalidArgument reports a request rejected locally, before it was sent.
	ErrInvalidArgument = errors.New("invalid argument")
)

// RemoteCallError is returned when the identity provider or Microsoft Graph
// fails a request. The underlying error is kept in Err and is reachable through
// errors.Is and errors.As.
type RemoteCallError struct {
	Op         string // Operation that failed, e.g. "list inbox"
	StatusCode int    // HTTP status, 0 when no response was received
	Code       string // Service error code, e.g. "ErrorAccessDenied"
	Message    string // Service error message
	RetryAfter string // Retry-After header value when the service throttled the call
	Err        error
}

func (e *RemoteCallError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(" failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
	}
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.RetryAfter != "" {
		fmt.Fprintf(&b, " (retry after %s seconds)", e.RetryAfter)
	}
	return b.String()
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// newRemoteCallError wraps err, pulling status, code and message out of the
// Graph OData error or the Azure SDK error it carries.
func newRemoteCallError(op string, err error) error {
	if err == nil {
		return nil
	}

	var existing *RemoteCallError
	if errors.As(err, &existing) {
		return err
	}

	rce := &RemoteCallError{Op: op, Err: err}

	var odataErr *odataerrors.ODataError
	if errors.As(err, &odataErr) {
		rce.StatusCode = odataErr.ResponseStatusCode
		if info := odataErr.GetErrorEscaped(); info != nil {
			if info.GetCode() != nil {
				rce.Code = *info.GetCode()
			}
			if info.GetMessage() != nil {
				rce.Message = *info.GetMessage()
			}
		}
		if headers := odataErr.GetResponseHeaders(); headers != nil {
			if retry := headers.Get("Retry-After"); len(retry) > 0 {
				rce.RetryAfter = retry[0]
			}
		}
		return rce
	}

	var authErr *azidentity.AuthenticationFailedError
	if errors.As(err, &authErr) {
		if authErr.RawResponse != nil {
			rce.StatusCode = authErr.RawResponse.StatusCode
		}
		return rce
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		rce.StatusCode = respErr.StatusCode
		rce.Code = respErr.ErrorCode
		return rce
	}

	// Responses without a Graph error body.
	var apiErr *abstractions.ApiError
	if errors.As(err, &apiErr) {
		rce.StatusCode = apiErr.ResponseStatusCode
		rce.Message = apiErr.Message
		if apiErr.ResponseHeaders != nil {
			if retry := apiErr.ResponseHeaders.Get("Retry-After"); len(retry) > 0 {
				rce.RetryAfter = retry[0]
			}
		}
	}
	return rce
}
