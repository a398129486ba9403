package sparksigner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sparkwallet/sparkd/internal/core/ports"
)

type listLeavesResponse struct {
	Leaves []leafResponse `json:"leaves"`
}

func (s *service) ListLeaves(ctx context.Context) ([]ports.Leaf, error) {
	url := fmt.Sprintf("%s/v1/leaves", s.apiURL)
	status, resp, err := s.get(url)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", resp)
	}

	list := listLeavesResponse{}
	if err := json.Unmarshal([]byte(resp), &list); err != nil {
		return nil, err
	}

	return toLeaves(list.Leaves), nil
}

type reserveRequest struct {
	Values []uint64 `json:"values"`
}

type reservationResponse struct {
	ID     string         `json:"id"`
	Leaves []leafResponse `json:"leaves"`
}

func (s *service) ReserveLeaves(
	ctx context.Context, exactValues []uint64,
) (*ports.LeavesReservation, error) {
	url := fmt.Sprintf("%s/v1/leaves/reserve", s.apiURL)
	status, resp, err := s.post(url, reserveRequest{exactValues})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s", resp)
	}

	reservation := reservationResponse{}
	if err := json.Unmarshal([]byte(resp), &reservation); err != nil {
		return nil, err
	}

	return &ports.LeavesReservation{
		ID:     reservation.ID,
		Leaves: toLeaves(reservation.Leaves),
	}, nil
}

type finalizeRequest struct {
	Leaves []leafResponse `json:"leaves"`
}

func (s *service) FinalizeReservation(
	ctx context.Context, reservationID string, newLeaves []ports.Leaf,
) error {
	leaves := make([]leafResponse, 0, len(newLeaves))
	for _, leaf := range newLeaves {
		leaves = append(leaves, leafResponse{ID: leaf.ID, ValueSats: leaf.ValueSats})
	}

	url := fmt.Sprintf(
		"%s/v1/leaves/reservations/%s/finalize", s.apiURL, reservationID,
	)
	status, resp, err := s.post(url, finalizeRequest{leaves})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s", resp)
	}
	return nil
}

func (s *service) CancelReservation(
	ctx context.Context, reservationID string,
) error {
	url := fmt.Sprintf(
		"%s/v1/leaves/reservations/%s/cancel", s.apiURL, reservationID,
	)
	status, resp, err := s.post(url, struct{}{})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s", resp)
	}
	return nil
}
