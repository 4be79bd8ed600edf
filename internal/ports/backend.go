package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/waselni/waselni-cli/internal/domain"
)

// BackendRequest is one HTTP call to the marketplace API. Path is relative to
// the configured base address. BearerToken is attached as an Authorization
// header only when non-empty.
type BackendRequest struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	Header      http.Header
	BearerToken string
}

type BackendResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r BackendResponse) Decode(target any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty body", domain.ErrUnexpectedResponse)
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("%w: decode body: %w", domain.ErrUnexpectedResponse, err)
	}
	return nil
}

// Backend sends requests to the marketplace API.
// Non-success statuses are returned as *domain.APIError; failures without a
// response match domain.ErrUnreachable.
type Backend interface {
	Configure(baseURL string) error
	BaseURL() string
	Send(ctx context.Context, req BackendRequest) (BackendResponse, error)
}
