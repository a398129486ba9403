package esplora

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sparkwallet/sparkd/pkg/chain"
)

// GetRecommendedFees queries the mempool.space compatible endpoint of the
// explorer. The response is returned as is, callers must not cache it
// across claim attempts.
func (e *esplora) GetRecommendedFees() (*chain.RecommendedFees, error) {
	url := fmt.Sprintf("%s/v1/fees/recommended", e.apiURL)
	status, resp, err := e.get(url)
	if err != nil {
		return nil, fmt.Errorf("error on retrieving recommended fees: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", resp)
	}

	fees := &chain.RecommendedFees{}
	if err := json.Unmarshal([]byte(resp), fees); err != nil {
		return nil, fmt.Errorf("error on retrieving recommended fees: %w", err)
	}
	return fees, nil
}
