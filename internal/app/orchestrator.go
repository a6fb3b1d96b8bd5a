package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"midway_hotel/internal/adapters/observability"
	"midway_hotel/internal/domain"
	"midway_hotel/internal/shared"
)

type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving"
	StateSearching State = "searching"
	StateParsing   State = "parsing"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

// SearchForm is one submission of the search form.
type SearchForm struct {
	Start              string                `json:"start" validate:"required_unless=UseCurrentLocation true,max=200"`
	End                string                `json:"end" validate:"required_unless=UseCurrentLocation true,max=200"`
	UseCurrentLocation bool                  `json:"useCurrentLocation"`
	Options            *domain.SearchOptions `json:"options,omitempty"`

	// Device answers "get current position" for this submission.
	Device domain.DeviceLocator `json:"-" validate:"-"`
	Lang   string               `json:"-" validate:"-"`
}

// Search is one run of the state machine. Failed and Ready are terminal;
// a resubmission gets a new Search.
type Search struct {
	ID        string                      `json:"id"`
	State     State                       `json:"state"`
	History   []State                     `json:"history"`
	Start     *domain.ParsedAddressResult `json:"start,omitempty"`
	End       *domain.ParsedAddressResult `json:"end,omitempty"`
	Request   *domain.SearchRequest       `json:"request,omitempty"`
	Handoff   string                      `json:"handoff,omitempty"`
	Hotels    []domain.HotelView          `json:"hotels"`
	ErrorKind string                      `json:"errorKind,omitempty"`
	Message   string                      `json:"message,omitempty"`
	Err       error                       `json:"-"`

	lang  string
	start string
	end   string
}

func newSearch(lang string) *Search {
	return &Search{
		ID:      uuid.NewString(),
		State:   StateIdle,
		History: []State{StateIdle},
		Hotels:  []domain.HotelView{},
		lang:    normLang(lang),
	}
}

func (s *Search) to(st State) {
	s.State = st
	s.History = append(s.History, st)
}

type Deps struct {
	Geocoder  domain.Geocoder
	Inventory domain.InventoryClient
	Cache     domain.Cache               // optional
	CacheTTL  time.Duration              // inventory results only
	SearchLog domain.SearchLogRepository // optional
	Session   domain.SessionSource       // optional
	RadiusKm  float64
	Now       func() time.Time
}

type Orchestrator struct {
	d   Deps
	val *shared.Validator
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.RadiusKm <= 0 || d.RadiusKm > domain.MaxRadiusKm {
		d.RadiusKm = domain.DefaultRadiusKm
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Orchestrator{d: d, val: shared.NewValidator()}
}

// Submit runs Idle → Resolving → Searching → Parsing → Ready, or stops at
// Failed. Invalid input fails before any network call.
func (o *Orchestrator) Submit(ctx context.Context, f SearchForm) *Search {
	s := newSearch(f.Lang)
	f.Start, f.End = strings.TrimSpace(f.Start), strings.TrimSpace(f.End)
	s.start, s.end = f.Start, f.End

	if err := o.validate(f); err != nil {
		return o.finish(ctx, s, err)
	}

	s.to(StateResolving)
	start, end, err := o.resolve(ctx, f, s.lang)
	if err != nil {
		return o.finish(ctx, s, err)
	}
	s.Start, s.End = &start, &end

	req := o.buildRequest(domain.Midpoint(start.Coordinate, end.Coordinate), f.Options)
	return o.execute(ctx, s, req)
}

// Execute is the results view: a pure function of the handed-off request.
func (o *Orchestrator) Execute(ctx context.Context, req domain.SearchRequest, lang string) *Search {
	return o.execute(ctx, newSearch(lang), req)
}

func (o *Orchestrator) validate(f SearchForm) error {
	if err := o.val.Struct(f); err != nil {
		return err
	}
	if opt := f.Options; opt != nil && !opt.CheckIn.IsZero() && !opt.CheckOut.IsZero() && !opt.CheckOut.After(opt.CheckIn) {
		return &domain.ValidationError{Fields: []string{"CheckOut"}, Err: errors.New("check-out must be after check-in")}
	}
	return nil
}

// resolve geocodes both places concurrently; the first failure wins and
// the other result, if any, is discarded.
func (o *Orchestrator) resolve(ctx context.Context, f SearchForm, lang string) (domain.ParsedAddressResult, domain.ParsedAddressResult, error) {
	var start, end domain.ParsedAddressResult

	if f.UseCurrentLocation {
		c, err := position(ctx, f.Device)
		if err != nil {
			return start, end, err
		}
		here := domain.ParsedAddressResult{Coordinate: c, DisplayAddress: Message(lang, MsgCurrentLocation)}
		return here, here, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := o.d.Geocoder.Forward(gctx, f.Start)
		if err != nil {
			return fmt.Errorf("start %q: %w", f.Start, err)
		}
		start = r
		return nil
	})
	g.Go(func() error {
		r, err := o.d.Geocoder.Forward(gctx, f.End)
		if err != nil {
			return fmt.Errorf("end %q: %w", f.End, err)
		}
		end = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.ParsedAddressResult{}, domain.ParsedAddressResult{}, err
	}
	return start, end, nil
}

func (o *Orchestrator) buildRequest(mid domain.Coordinate, opt *domain.SearchOptions) domain.SearchRequest {
	now := o.d.Now()
	checkIn := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	checkOut := checkIn.AddDate(0, 0, 1)
	if opt != nil {
		if !opt.CheckIn.IsZero() {
			checkIn = opt.CheckIn
			checkOut = checkIn.AddDate(0, 0, 1)
		}
		if !opt.CheckOut.IsZero() && opt.CheckOut.After(checkIn) {
			checkOut = opt.CheckOut
		}
		cp := *opt
		cp.Amenities = opt.AmenitySet()
		cp.CheckIn, cp.CheckOut = checkIn, checkOut
		opt = &cp
	}
	return domain.SearchRequest{
		Midpoint: mid,
		RadiusKm: o.d.RadiusKm,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Options:  opt,
	}
}

func (o *Orchestrator) execute(ctx context.Context, s *Search, req domain.SearchRequest) *Search {
	s.Request = &req
	s.Handoff = domain.EncodeRequest(req).Encode()

	s.to(StateSearching)
	key := "results:" + s.Handoff
	hotels, hit := o.cached(ctx, key)
	if !hit {
		body, err := o.d.Inventory.Search(ctx, req)
		if err != nil {
			return o.finish(ctx, s, err)
		}
		s.to(StateParsing)
		hotels, err = ParseHotels(body)
		if err != nil {
			return o.finish(ctx, s, err)
		}
		o.store(ctx, key, hotels)
	} else {
		s.to(StateParsing)
	}

	views := make([]domain.HotelView, 0, len(hotels))
	for _, h := range hotels {
		views = append(views, Present(h))
	}
	s.Hotels = applyFilters(views, req.Options)
	if len(s.Hotels) == 0 {
		s.Message = Message(s.lang, MsgNoHotels)
	}
	s.to(StateReady)
	return o.finish(ctx, s, nil)
}

func (o *Orchestrator) cached(ctx context.Context, key string) ([]domain.Hotel, bool) {
	if o.d.Cache == nil || o.d.CacheTTL <= 0 {
		return nil, false
	}
	var hs []domain.Hotel
	ok, err := o.d.Cache.Get(ctx, key, &hs)
	if err != nil {
		log.Warn().Err(err).Msg("results cache read failed")
		return nil, false
	}
	return hs, ok
}

func (o *Orchestrator) store(ctx context.Context, key string, hs []domain.Hotel) {
	if o.d.Cache == nil || o.d.CacheTTL <= 0 {
		return
	}
	if err := o.d.Cache.Set(ctx, key, hs, int(o.d.CacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Msg("results cache write failed")
	}
}

// finish records the outcome; a non-nil err moves s to Failed.
func (o *Orchestrator) finish(ctx context.Context, s *Search, err error) *Search {
	kind := ErrorKind(err)
	if err != nil {
		s.Err = err
		s.ErrorKind = kind
		s.Message = UserMessage(s.lang, err)
		s.to(StateFailed)
	}
	observability.ObserveSearch(string(s.State), kind, len(s.Hotels))

	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("search", s.ID).Str("state", string(s.State)).Str("kind", kind).Int("hotels", len(s.Hotels)).Msg("search finished")

	o.record(ctx, s, kind)
	return s
}

func (o *Orchestrator) record(ctx context.Context, s *Search, kind string) {
	if o.d.SearchLog == nil {
		return
	}
	e := domain.SearchLogEntry{
		Query:      s.Handoff,
		State:      string(s.State),
		HotelCount: len(s.Hotels),
		CreatedAt:  o.d.Now().UTC(),
	}
	if o.d.Session != nil {
		if u := o.d.Session.CurrentUser(ctx); u != nil {
			id := u.ID
			e.UserID = &id
		}
	}
	if s.start != "" {
		e.StartPlace = &s.start
	}
	if s.end != "" {
		e.EndPlace = &s.end
	}
	if s.Request != nil {
		mid := s.Request.Midpoint
		e.Midpoint = &mid
	}
	if kind != "none" {
		e.ErrorKind = &kind
	}
	if err := o.d.SearchLog.RecordSearch(context.WithoutCancel(ctx), e); err != nil {
		log.Warn().Err(err).Str("search", s.ID).Msg("record search failed")
		return
	}
	if o.d.Cache != nil {
		_ = o.d.Cache.Del(ctx, recentKey)
	}
}
