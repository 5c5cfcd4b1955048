package inbound

import (
	"context"

	"github.com/eklabs/authgate/internal/dashboard/entity"
	"github.com/eklabs/authgate/internal/dashboard/usecase"
	"github.com/eklabs/authgate/internal/pkg/router"
)

type uc interface {
	Query(ctx context.Context, in usecase.QueryInput) (*entity.QueryResult, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// need authenticated & authorized
	r.POST("/api/dashboard/query", end.Query)
}
