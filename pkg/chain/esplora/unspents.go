package esplora

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/sparkwallet/sparkd/pkg/chain"
	"golang.org/x/sync/errgroup"
)

type addressUtxo struct {
	TxID   string   `json:"txid"`
	Vout   uint32   `json:"vout"`
	Value  uint64   `json:"value"`
	Status txStatus `json:"status"`
}

func (e *esplora) GetAddressUtxos(addr string) ([]chain.Utxo, error) {
	url := fmt.Sprintf("%s/address/%s/utxo", e.apiURL, addr)
	status, resp, err := e.get(url)
	if err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", resp)
	}

	var outs []addressUtxo
	if err := json.Unmarshal([]byte(resp), &outs); err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %w", err)
	}

	utxos := make([]chain.Utxo, 0, len(outs))
	for _, out := range outs {
		utxos = append(utxos, chain.Utxo{
			TxID:      out.TxID,
			Vout:      out.Vout,
			ValueSats: out.Value,
			Status:    out.Status.toStatus(),
		})
	}
	return utxos, nil
}

// GetUtxosForAddresses fetches the utxos of all the given addresses in
// parallel.
func (e *esplora) GetUtxosForAddresses(addresses []string) ([]chain.Utxo, error) {
	var mtx sync.Mutex
	utxos := make([]chain.Utxo, 0)

	eg := &errgroup.Group{}
	for i := range addresses {
		addr := addresses[i]
		eg.Go(func() error {
			addrUtxos, err := e.GetAddressUtxos(addr)
			if err != nil {
				return err
			}
			mtx.Lock()
			defer mtx.Unlock()
			utxos = append(utxos, addrUtxos...)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return utxos, nil
}
