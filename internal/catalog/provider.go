package catalog

import (
	"context"

	"watchfeed-engine/internal/config"
	"watchfeed-engine/internal/domain"
)

// Meta reports what a Discover call actually fetched; it lands in the run
// telemetry.
type Meta struct {
	MoviePages     int `json:"movie_pages"`
	TVPages        int `json:"tv_pages"`
	PageErrors     int `json:"page_errors"`
	ProviderErrors int `json:"provider_errors"`
	Counts     struct {
		Movie int `json:"movie"`
		TV    int `json:"tv"`
	} `json:"counts"`
}

// Provider discovers candidate items for a run. Implementations degrade on
// partial failure and return an error only when nothing was fetched.
type Provider interface {
	Name() string
	Discover(ctx context.Context, opts config.Options) ([]domain.CandidateItem, Meta, error)
}
