package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"midway_hotel/internal/adapters/observability"
	"midway_hotel/internal/domain"
)

// PickerService drives interactive location pickers. Marker moves are
// applied at once; reverse-geocoded labels arrive later and are dropped
// when the marker has moved since the lookup was issued.
type PickerService struct {
	geo           domain.Geocoder
	store         domain.PickerStore
	lookupTimeout time.Duration

	wg sync.WaitGroup
}

func NewPickerService(geo domain.Geocoder, store domain.PickerStore, lookupTimeout time.Duration) *PickerService {
	if lookupTimeout <= 0 {
		lookupTimeout = 10 * time.Second
	}
	return &PickerService{geo: geo, store: store, lookupTimeout: lookupTimeout}
}

// Open starts a picker from the device position. When the position is
// unavailable the picker stays unresolved; no default is substituted.
func (s *PickerService) Open(ctx context.Context, loc domain.DeviceLocator, lang string) (domain.PickerState, error) {
	lang = normLang(lang)
	st := domain.PickerState{ID: uuid.NewString(), Zoom: domain.DefaultZoom, Lang: lang}

	if c, err := position(ctx, loc); err == nil {
		st.MoveMarker(c)
		st.Label = Message(lang, MsgCurrentLocation)
	} else {
		log.Debug().Err(err).Str("picker", st.ID).Msg("picker opened unresolved")
		st.Message = Message(lang, MsgLocationUnavailable)
	}

	if err := s.store.Create(ctx, st); err != nil {
		return domain.PickerState{}, err
	}
	return st, nil
}

func (s *PickerService) Get(ctx context.Context, id string) (domain.PickerState, error) {
	return s.store.Get(ctx, id)
}

// Click pins the marker optimistically and schedules the label lookup.
func (s *PickerService) Click(ctx context.Context, id string, c domain.Coordinate) (domain.PickerState, error) {
	if err := c.Validate(); err != nil {
		return domain.PickerState{}, err
	}
	var gen uint64
	st, err := s.store.Update(ctx, id, func(p *domain.PickerState) error {
		gen = p.MoveMarker(c)
		p.Label = ""
		p.LabelPending = true
		if p.Zoom < domain.MaxZoom {
			p.Zoom++
		}
		return nil
	})
	if err != nil {
		return st, err
	}
	s.lookup(ctx, st.ID, gen, c, st.Lang)
	return st, nil
}

func (s *PickerService) lookup(ctx context.Context, id string, gen uint64, c domain.Coordinate, lang string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// outlives the request that triggered it
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.lookupTimeout)
		defer cancel()

		label := s.geo.Reverse(lctx, c)
		if label == domain.AddressUnavailable {
			label = Message(lang, MsgAddressUnavailable)
		}
		_, err := s.store.Update(lctx, id, func(p *domain.PickerState) error {
			if p.Generation != gen {
				return domain.ErrStale
			}
			p.Label = label
			p.LabelPending = false
			return nil
		})
		switch {
		case errors.Is(err, domain.ErrStale):
			observability.ObserveReverse("stale")
			log.Debug().Str("picker", id).Uint64("gen", gen).Msg("discarded stale reverse lookup")
		case err != nil:
			log.Warn().Err(err).Str("picker", id).Msg("apply reverse lookup failed")
		default:
			observability.ObserveReverse("applied")
		}
	}()
}

// Search moves the marker to a free-text match. Geocoding failures are
// reported through the state's message and leave the marker untouched.
func (s *PickerService) Search(ctx context.Context, id, query string) (domain.PickerState, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return st, err
	}
	if strings.TrimSpace(query) == "" {
		return st, &domain.ValidationError{Fields: []string{"q"}, Err: errors.New("empty query")}
	}
	issued := st.Generation

	res, gerr := s.geo.Forward(ctx, query)
	out, err := s.store.Update(ctx, id, func(p *domain.PickerState) error {
		if gerr != nil {
			if errors.Is(gerr, domain.ErrNotFound) {
				p.Message = Message(p.Lang, MsgAddressNotFound)
			} else {
				p.Message = Message(p.Lang, MsgRetry)
			}
			return nil
		}
		if p.Generation != issued {
			return domain.ErrStale
		}
		p.MoveMarker(res.Coordinate)
		p.Label = res.DisplayAddress
		p.LabelPending = false
		return nil
	})
	if errors.Is(err, domain.ErrStale) {
		log.Debug().Str("picker", id).Msg("discarded stale text search result")
		return out, nil
	}
	if gerr != nil {
		log.Info().Err(gerr).Str("picker", id).Str("kind", ErrorKind(gerr)).Msg("picker text search failed")
	}
	return out, err
}

// Drain blocks until every scheduled reverse lookup has finished.
func (s *PickerService) Drain() { s.wg.Wait() }

// Locator exposes a picker's marker as a device position, so a resolved
// picker can feed a current-location search.
func (s *PickerService) Locator(id string) domain.DeviceLocator {
	return pickerLocator{store: s.store, id: id}
}

type pickerLocator struct {
	store domain.PickerStore
	id    string
}

func (l pickerLocator) CurrentPosition(ctx context.Context) (domain.Coordinate, error) {
	st, err := l.store.Get(ctx, l.id)
	if err != nil {
		return domain.Coordinate{}, err
	}
	if !st.Resolved() {
		return domain.Coordinate{}, domain.ErrLocationUnavailable
	}
	return *st.Marker, nil
}

func position(ctx context.Context, loc domain.DeviceLocator) (domain.Coordinate, error) {
	if loc == nil {
		return domain.Coordinate{}, domain.ErrLocationUnavailable
	}
	c, err := loc.CurrentPosition(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrLocationUnavailable) {
			return domain.Coordinate{}, err
		}
		return domain.Coordinate{}, fmt.Errorf("%w: %v", domain.ErrLocationUnavailable, err)
	}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %v", domain.ErrLocationUnavailable, err)
	}
	return c, nil
}
