package inbound

import (
	"github.com/eklabs/authgate/internal/dashboard/usecase"
	"github.com/eklabs/authgate/internal/pkg/router"
)

// HTTPEndpoint exposes the dashboard query endpoint.
type HTTPEndpoint struct {
	uc uc
}

// Query answers a dashboard question scoped to the caller's role.
func (h *HTTPEndpoint) Query(r *router.Request) (any, error) {
	var req QueryRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Query(r.Context(), usecase.QueryInput{Query: req.Query})
	if err != nil {
		return nil, err
	}

	return newQueryResponse(resp), nil
}
