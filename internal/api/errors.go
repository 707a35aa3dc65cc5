package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/openlearn/courseware/internal/session"
)

// Error codes the courseware API uses in its JSON error bodies.
const (
	codeInvalidCredentials = "invalid_credentials"
	codeRefreshExpired     = "refresh_expired"
	codeAuthExpired        = "auth_expired"
)

const maxErrorBody = 8 << 10

// apiError is the JSON error body returned by the courseware API.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorFromResponse maps a non-2xx response to the session error
// taxonomy. It consumes and closes the response body.
func errorFromResponse(op string, resp *http.Response) error {
	defer resp.Body.Close()

	var body apiError
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if readErr == nil {
		// Ignore a malformed body; the status code still classifies
		_ = json.Unmarshal(raw, &body)
	}

	if resp.StatusCode >= 500 {
		return &session.NetworkError{Op: op, Err: fmt.Errorf("server error: HTTP %d", resp.StatusCode)}
	}

	switch body.Code {
	case codeInvalidCredentials:
		return fmt.Errorf("%w: %s", session.ErrInvalidCredentials, body.Message)
	case codeRefreshExpired:
		return fmt.Errorf("%w: %s", session.ErrRefreshExpired, body.Message)
	case codeAuthExpired:
		return fmt.Errorf("%w: %s", session.ErrAuthExpired, body.Message)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: HTTP 401", session.ErrAuthExpired)
	}

	if body.Message != "" {
		return fmt.Errorf("%s failed: HTTP %d: %s", op, resp.StatusCode, body.Message)
	}
	return fmt.Errorf("%s failed: HTTP %d", op, resp.StatusCode)
}

// networkError wraps a transport-level failure (dial, DNS, timeout).
func networkError(op string, err error) error {
	return &session.NetworkError{Op: op, Err: err}
}

// transportError classifies an error returned by http.Client.Do. The
// refresh transport surfaces session errors through RoundTrip, which
// the client wraps in a *url.Error; those keep their classification.
// Anything else is a plain network failure.
func transportError(op string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		inner := urlErr.Err
		if errors.Is(inner, session.ErrAuthExpired) ||
			errors.Is(inner, session.ErrRefreshExpired) ||
			session.IsNetwork(inner) {
			return inner
		}
	}
	return networkError(op, err)
}
