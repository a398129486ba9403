package esplora

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sparkwallet/sparkd/pkg/chain"
)

type txStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint32 `json:"block_height"`
	BlockTime   int64  `json:"block_time"`
}

func (s txStatus) toStatus() chain.TxStatus {
	return chain.TxStatus{
		Confirmed:   s.Confirmed,
		BlockHeight: s.BlockHeight,
		BlockTime:   s.BlockTime,
	}
}

func (e *esplora) GetTransactionStatus(txid string) (*chain.TxStatus, error) {
	url := fmt.Sprintf("%s/tx/%s/status", e.apiURL, txid)
	status, resp, err := e.get(url)
	if err != nil {
		return nil, fmt.Errorf("error on retrieving tx status: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", resp)
	}

	var parsed txStatus
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		return nil, fmt.Errorf("error on retrieving tx status: %w", err)
	}

	chainStatus := parsed.toStatus()
	return &chainStatus, nil
}

func (e *esplora) GetTransactionHex(txid string) (string, error) {
	url := fmt.Sprintf("%s/tx/%s/hex", e.apiURL, txid)
	status, resp, err := e.get(url)
	if err != nil {
		return "", fmt.Errorf("error on retrieving tx hex: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%s", resp)
	}
	return resp, nil
}

func (e *esplora) BroadcastTransaction(txHex string) (string, error) {
	url := fmt.Sprintf("%s/tx", e.apiURL)
	status, resp, err := e.post(url, txHex)
	if err != nil {
		return "", fmt.Errorf("error on broadcasting tx: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%s", resp)
	}
	return resp, nil
}
