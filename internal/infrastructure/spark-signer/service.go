package sparksigner

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"github.com/sparkwallet/sparkd/internal/core/ports"
	"github.com/sparkwallet/sparkd/pkg/circuitbreaker"
	"github.com/sparkwallet/sparkd/pkg/httputil"
)

// Service groups the two capabilities exposed by the spark signer
// daemon, the signing ceremonies and the leaf bookkeeping.
type Service interface {
	ports.Signer
	ports.TreeService
}

// service talks to the spark signer daemon over its REST interface.
type service struct {
	apiURL string
	cb     *gobreaker.CircuitBreaker
}

// NewService returns a client for the spark signer daemon reachable at
// the given address.
func NewService(apiURL string) (Service, error) {
	svc := &service{
		apiURL: apiURL,
		cb:     circuitbreaker.NewCircuitBreaker("sparksigner"),
	}

	if err := svc.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return svc, nil
}

func (s *service) healthCheck() error {
	status, resp, err := s.get(fmt.Sprintf("%s/v1/info", s.apiURL))
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s", resp)
	}
	return nil
}

func (s *service) get(url string) (int, string, error) {
	iRes, err := s.cb.Execute(func() (interface{}, error) {
		status, resp, err := httputil.NewHTTPRequest("GET", url, "", nil)
		if err != nil {
			return nil, err
		}
		return httpResponse{status, resp}, nil
	})
	if err != nil {
		return 0, "", err
	}
	res := iRes.(httpResponse)
	return res.status, res.body, nil
}

func (s *service) post(url string, body interface{}) (int, string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, "", err
	}

	iRes, err := s.cb.Execute(func() (interface{}, error) {
		status, resp, err := httputil.NewHTTPRequest(
			"POST", url, string(payload),
			map[string]string{"Content-Type": "application/json"},
		)
		if err != nil {
			return nil, err
		}
		return httpResponse{status, resp}, nil
	})
	if err != nil {
		return 0, "", err
	}
	res := iRes.(httpResponse)
	return res.status, res.body, nil
}

type httpResponse struct {
	status int
	body   string
}
