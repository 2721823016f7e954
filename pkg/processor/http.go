package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"
)

const requestTimeout = 3 * time.Second

// ErrUnexpectedStatus is returned when a vendor answers with a non 2xx status code
var ErrUnexpectedStatus = errors.New("unexpected response status")

// StatusError carries a vendor's non 2xx answer
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s answered %d: %s", ErrUnexpectedStatus, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Permanent reports whether resending the same request cannot succeed
func (e *StatusError) Permanent() bool {
	return permanentStatus(e.StatusCode)
}

// permanentStatus is true for 4xx answers other than timeouts and rate limiting
func permanentStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code <= 499
}

// rejection returns the StatusError behind err when the vendor refused the request for good
func rejection(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Permanent() {
		return statusErr, true
	}
	return nil, false
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: requestTimeout,
	}
}

// postJSON sends body as JSON with a bearer token and decodes the response into out
func postJSON(ctx context.Context, client *http.Client, url, token string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	contents, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(contents))}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(contents, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}
