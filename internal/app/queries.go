package app

import (
	"context"
	"time"

	"midway_hotel/internal/domain"
)

// recentKey holds the newest maxRecent log entries; smaller limits are
// sliced from it. The orchestrator evicts it on every recorded search.
const (
	recentKey = "searches:recent"
	maxRecent = 100
)

// QueryService is the read side of the search log.
type QueryService struct {
	searches domain.SearchLogRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.SearchLogRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{searches: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) RecentSearches(ctx context.Context, limit int) ([]domain.SearchLogEntry, error) {
	if limit <= 0 || limit > maxRecent {
		limit = 20
	}
	if s.searches == nil {
		return []domain.SearchLogEntry{}, nil
	}

	var all []domain.SearchLogEntry
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, recentKey, &all); ok {
			return head(all, limit), nil
		}
	}
	all, err := s.searches.ListRecent(ctx, maxRecent)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cacheTTL > 0 {
		_ = s.cache.Set(ctx, recentKey, all, int(s.cacheTTL.Seconds()))
	}
	return head(all, limit), nil
}

// head copies so callers never alias the cached slice.
func head(in []domain.SearchLogEntry, n int) []domain.SearchLogEntry {
	if n > len(in) {
		n = len(in)
	}
	out := make([]domain.SearchLogEntry, n)
	copy(out, in[:n])
	return out
}
