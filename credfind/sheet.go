package credfind

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPSheet reads a credential worksheet from a CSV export URL, the way
// hosted-notebook environments publish their linked sheets. It satisfies
// SheetSource; Linked is a pure URL presence check so probing stays cheap
// and side-effect-free.
type HTTPSheet struct {
	// URL is the CSV export endpoint. The worksheet name is appended as
	// the "worksheet" query parameter when non-empty.
	URL string

	client *retryablehttp.Client
}

// NewHTTPSheet builds an HTTPSheet with a quiet retryablehttp client.
func NewHTTPSheet(rawURL string) *HTTPSheet {
	c := retryablehttp.NewClient()
	c.Logger = nil // sheet URLs can embed tokens; keep the client silent
	return &HTTPSheet{URL: rawURL, client: c}
}

// Linked reports whether a sheet endpoint is configured at all.
func (s *HTTPSheet) Linked(context.Context) bool {
	return s != nil && s.URL != ""
}

// Rows fetches the worksheet and parses it as CSV with variable-width
// records. The caller enforces the row cap; Rows returns everything the
// endpoint served.
func (s *HTTPSheet) Rows(ctx context.Context, worksheet string) ([][]string, error) {
	target := s.URL
	if worksheet != "" {
		u, err := url.Parse(s.URL)
		if err != nil {
			return nil, fmt.Errorf("parse sheet URL: %w", err)
		}
		q := u.Query()
		q.Set("worksheet", worksheet)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheet request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: unexpected status %s", resp.Status)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1 // key=value sheets are ragged by nature
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse sheet csv: %w", err)
	}
	return rows, nil
}
