package patients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client checks patient existence against the patient-directory service.
// Lookups are fail-closed: any transport error, timeout, or non-200 response
// means the patient is treated as unknown, so a flaky directory can never
// let an appointment through for a patient that may not exist.
type Client struct {
	baseURL string
	http    *http.Client
}

const defaultTimeout = 5 * time.Second

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Exists reports whether the directory knows the patient. The error is
// informational (for logging); callers must treat (false, err) the same as
// (false, nil).
func (c *Client) Exists(ctx context.Context, patientID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/patients/"+url.PathEscape(patientID), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("patient lookup: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	return resp.StatusCode == http.StatusOK, nil
}
