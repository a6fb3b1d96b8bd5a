package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"midway_hotel/internal/domain"
)

// BatchItem is one place pair for an unattended run.
type BatchItem struct {
	Start   string                `json:"start"`
	End     string                `json:"end"`
	Options *domain.SearchOptions `json:"options,omitempty"`
}

type BatchResult struct {
	Item   BatchItem `json:"item"`
	Search *Search   `json:"search"`
}

// BatchService runs many searches with bounded concurrency. Results keep
// the input order.
type BatchService struct {
	orch    *Orchestrator
	workers int64
	refresh bool
}

func NewBatchService(o *Orchestrator, workers int, refresh bool) *BatchService {
	if workers <= 0 {
		workers = 1
	}
	return &BatchService{orch: o, workers: int64(workers), refresh: refresh}
}

func (b *BatchService) Run(ctx context.Context, items []BatchItem, lang string) ([]BatchResult, error) {
	out := make([]BatchResult, len(items))
	sem := semaphore.NewWeighted(b.workers)
	var wg sync.WaitGroup

	for i, it := range items {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return out[:i], err
		}
		wg.Add(1)
		go func(i int, it BatchItem) {
			defer wg.Done()
			defer sem.Release(1)

			f := SearchForm{Start: it.Start, End: it.End, Options: it.Options, Lang: lang}
			if b.refresh {
				b.orch.Invalidate(ctx, f)
			}
			s := b.orch.Submit(ctx, f)
			out[i] = BatchResult{Item: it, Search: s}
			if s.Err != nil {
				log.Warn().Str("start", it.Start).Str("end", it.End).Err(s.Err).Msg("batch search failed")
				return
			}
			log.Info().Str("start", it.Start).Str("end", it.End).Int("hotels", len(s.Hotels)).Msg("batch search ok")
		}(i, it)
	}

	wg.Wait()
	return out, nil
}

// Invalidate evicts the cached inventory result the form would hit.
// Geocoding failures leave nothing to evict.
func (o *Orchestrator) Invalidate(ctx context.Context, f SearchForm) {
	if o.d.Cache == nil {
		return
	}
	start, end, err := o.resolve(ctx, f, normLang(f.Lang))
	if err != nil {
		return
	}
	req := o.buildRequest(domain.Midpoint(start.Coordinate, end.Coordinate), f.Options)
	_ = o.d.Cache.Del(ctx, "results:"+domain.EncodeRequest(req).Encode())
}
