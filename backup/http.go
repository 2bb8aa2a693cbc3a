package backup

import (
	"context"
	"fmt"

	"github.com/carlmjohnson/requests"
)

// HTTPTarget POSTs archives to URL?name=<name>
type HTTPTarget struct {
	URL string
	// sent as X-Api-Key header if not empty
	APIKey string
}

func (t *HTTPTarget) Put(ctx context.Context, name string, data []byte) error {
	if t.URL == "" {
		return fmt.Errorf("url is not set")
	}
	r := requests.
		URL(t.URL).
		Param("name", name).
		BodyBytes(data).
		ContentType("application/octet-stream")
	if t.APIKey != "" {
		r = r.Header("X-Api-Key", t.APIKey)
	}
	return r.Fetch(ctx)
}

func (t *HTTPTarget) String() string {
	return "http '" + t.URL + "'"
}
