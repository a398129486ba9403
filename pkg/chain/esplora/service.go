package esplora

import (
	"fmt"
	"net/http"

	"github.com/sparkwallet/sparkd/pkg/chain"
	"github.com/sparkwallet/sparkd/pkg/httputil"
	"go.uber.org/ratelimit"
)

const requestsPerSecond = 10

type esplora struct {
	apiURL  string
	limiter ratelimit.Limiter
}

// NewService returns a new esplora service as a chain.Service interface.
func NewService(apiURL string) (chain.Service, error) {
	service := &esplora{
		apiURL:  apiURL,
		limiter: ratelimit.New(requestsPerSecond),
	}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (e *esplora) healthCheck() error {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	status, resp, err := e.get(url)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s", resp)
	}
	return nil
}

func (e *esplora) get(url string) (int, string, error) {
	e.limiter.Take()
	return httputil.NewHTTPRequest("GET", url, "", nil)
}

func (e *esplora) post(url, body string) (int, string, error) {
	e.limiter.Take()
	return httputil.NewHTTPRequest(
		"POST", url, body, map[string]string{"Content-Type": "text/plain"},
	)
}
