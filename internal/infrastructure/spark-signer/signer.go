package sparksigner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sparkwallet/sparkd/internal/core/ports"
)

type claimQuoteRequest struct {
	TxHex string `json:"txHex"`
	Vout  uint32 `json:"vout"`
}

type claimQuoteResponse struct {
	TxID             string `json:"txid"`
	Vout             uint32 `json:"vout"`
	CreditAmountSats uint64 `json:"creditAmountSats"`
	SignedQuote      string `json:"signedQuote"`
}

func (s *service) FetchClaimQuote(
	ctx context.Context, txHex string, vout uint32,
) (*ports.ClaimQuote, error) {
	url := fmt.Sprintf("%s/v1/deposits/quote", s.apiURL)
	status, resp, err := s.post(url, claimQuoteRequest{txHex, vout})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", resp)
	}

	quote := claimQuoteResponse{}
	if err := json.Unmarshal([]byte(resp), &quote); err != nil {
		return nil, err
	}

	return &ports.ClaimQuote{
		TxID:             quote.TxID,
		Vout:             quote.Vout,
		CreditAmountSats: quote.CreditAmountSats,
		SignedQuote:      quote.SignedQuote,
	}, nil
}

type claimRequest struct {
	TxID        string `json:"txid"`
	Vout        uint32 `json:"vout"`
	SignedQuote string `json:"signedQuote"`
}

type paymentResponse struct {
	ID         string `json:"id"`
	AmountSats uint64 `json:"amountSats"`
	FeeSats    uint64 `json:"feeSats"`
	Timestamp  int64  `json:"timestamp"`
}

func (s *service) ClaimDeposit(
	ctx context.Context, quote *ports.ClaimQuote,
) (*ports.Payment, error) {
	url := fmt.Sprintf("%s/v1/deposits/claim", s.apiURL)
	status, resp, err := s.post(url, claimRequest{
		TxID:        quote.TxID,
		Vout:        quote.Vout,
		SignedQuote: quote.SignedQuote,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", resp)
	}

	payment := paymentResponse{}
	if err := json.Unmarshal([]byte(resp), &payment); err != nil {
		return nil, err
	}

	return &ports.Payment{
		ID:         payment.ID,
		AmountSats: payment.AmountSats,
		FeeSats:    payment.FeeSats,
		Timestamp:  payment.Timestamp,
	}, nil
}

type refundRequest struct {
	TxHex       string `json:"txHex"`
	Vout        uint32 `json:"vout"`
	Destination string `json:"destination"`
	FeeSats     uint64 `json:"feeSats"`
}

type signedTxResponse struct {
	TxID  string `json:"txid"`
	TxHex string `json:"txHex"`
}

func (s *service) SignRefund(
	ctx context.Context, txHex string, vout uint32,
	destination string, feeSats uint64,
) (*ports.SignedTx, error) {
	url := fmt.Sprintf("%s/v1/deposits/refund", s.apiURL)
	status, resp, err := s.post(url, refundRequest{
		TxHex:       txHex,
		Vout:        vout,
		Destination: destination,
		FeeSats:     feeSats,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", resp)
	}

	signedTx := signedTxResponse{}
	if err := json.Unmarshal([]byte(resp), &signedTx); err != nil {
		return nil, err
	}

	return &ports.SignedTx{TxID: signedTx.TxID, TxHex: signedTx.TxHex}, nil
}

type swapRequest struct {
	LeafIDs      []string `json:"leafIds"`
	TargetValues []uint64 `json:"targetValues"`
}

type leafResponse struct {
	ID        string `json:"id"`
	ValueSats uint64 `json:"valueSats"`
}

type swapResponse struct {
	Leaves []leafResponse `json:"leaves"`
}

func (s *service) SwapLeaves(
	ctx context.Context, leaves []ports.Leaf, targetValues []uint64,
) ([]ports.Leaf, error) {
	leafIDs := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		leafIDs = append(leafIDs, leaf.ID)
	}

	url := fmt.Sprintf("%s/v1/leaves/swap", s.apiURL)
	status, resp, err := s.post(url, swapRequest{leafIDs, targetValues})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", resp)
	}

	swap := swapResponse{}
	if err := json.Unmarshal([]byte(resp), &swap); err != nil {
		return nil, err
	}

	return toLeaves(swap.Leaves), nil
}

func toLeaves(responses []leafResponse) []ports.Leaf {
	leaves := make([]ports.Leaf, 0, len(responses))
	for _, r := range responses {
		leaves = append(leaves, ports.Leaf{ID: r.ID, ValueSats: r.ValueSats})
	}
	return leaves
}
