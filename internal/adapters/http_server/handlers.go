// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"midway_hotel/internal/adapters/device"
	"midway_hotel/internal/app"
	"midway_hotel/internal/domain"
	"midway_hotel/internal/session"
)

type Handlers struct {
	Orch   *app.Orchestrator
	Picker *app.PickerService
	Geo    domain.Geocoder
	Q      *app.QueryService
	Auth   *session.JWTVerifier // nil disables bearer auth
	Now    func() time.Time
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

const maxBody = 64 << 10

func (s *Server) MountHandlers(h *Handlers) {
	if h.Now == nil {
		h.Now = time.Now
	}
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Group(func(r chi.Router) {
		r.Use(Authenticate(h.Auth))

		r.Post("/v1/search", h.submitSearch)
		r.Get("/v1/results", h.results)
		r.Get("/v1/geocode/forward", h.forward)
		r.Get("/v1/geocode/reverse", h.reverse)

		r.Post("/v1/picker", h.openPicker)
		r.Get("/v1/picker/{id}", h.getPicker)
		r.Post("/v1/picker/{id}/click", h.clickPicker)
		r.Post("/v1/picker/{id}/search", h.searchPicker)

		r.With(RequireUser).Get("/v1/searches", h.recentSearches)
	})
}

var (
	langTags    = []string{"ja", "en"}
	langMatcher = language.NewMatcher([]language.Tag{language.Japanese, language.English})
)

// selectLang honours ?lang= first, then Accept-Language; Japanese is the
// fallback.
func selectLang(r *http.Request) string {
	if l := strings.ToLower(r.URL.Query().Get("lang")); l != "" {
		for _, t := range langTags {
			if strings.HasPrefix(l, t) {
				return t
			}
		}
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return langTags[0]
	}
	_, idx, conf := langMatcher.Match(tags...)
	if conf == language.No {
		return langTags[0]
	}
	return langTags[idx]
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemKind(w, status, title, detail, "")
}

func writeProblemKind(w http.ResponseWriter, status int, title, detail, kind string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Kind: kind}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// statusFor maps the error taxonomy onto HTTP.
func statusFor(kind string) (int, string) {
	switch kind {
	case "validation":
		return http.StatusBadRequest, "Invalid request"
	case "not_found":
		return http.StatusNotFound, "Not Found"
	case "location":
		return http.StatusUnprocessableEntity, "Location unavailable"
	case "config":
		return http.StatusInternalServerError, "Service not configured"
	case "http", "malformed", "network":
		return http.StatusBadGateway, "Upstream failure"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeError(w http.ResponseWriter, lang string, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	kind := app.ErrorKind(err)
	status, title := statusFor(kind)
	writeProblemKind(w, status, title, app.UserMessage(lang, err), kind)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &domain.ValidationError{Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

// ---- search ----

type optionsBody struct {
	PriceRange     *string  `json:"priceRange"`
	StarRating     int      `json:"starRating"`
	Amenities      []string `json:"amenities"`
	NumberOfGuests int      `json:"numberOfGuests"`
	RoomType       string   `json:"roomType"`
	CheckInDate    string   `json:"checkInDate"`
	CheckOutDate   string   `json:"checkOutDate"`
}

func (o *optionsBody) toDomain() (*domain.SearchOptions, error) {
	if o == nil {
		return nil, nil
	}
	out := &domain.SearchOptions{
		PriceRange:     o.PriceRange,
		StarRating:     o.StarRating,
		Amenities:      o.Amenities,
		NumberOfGuests: o.NumberOfGuests,
		RoomType:       domain.RoomType(strings.ToLower(o.RoomType)),
	}
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Time
	}{{"checkInDate", o.CheckInDate, &out.CheckIn}, {"checkOutDate", o.CheckOutDate, &out.CheckOut}} {
		if d.raw == "" {
			continue
		}
		t, err := time.Parse(domain.DateLayout, d.raw)
		if err != nil {
			return nil, &domain.ValidationError{Fields: []string{d.name}, Err: err}
		}
		*d.dst = t
	}
	return out, nil
}

type searchBody struct {
	Start              string             `json:"start"`
	End                string             `json:"end"`
	UseCurrentLocation bool               `json:"useCurrentLocation"`
	Position           *domain.Coordinate `json:"position,omitempty"`
	PickerID           string             `json:"pickerId,omitempty"`
	Options            *optionsBody       `json:"options,omitempty"`
}

func (h *Handlers) submitSearch(w http.ResponseWriter, r *http.Request) {
	lang := selectLang(r)
	var body searchBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, lang, err)
		return
	}
	opts, err := body.Options.toDomain()
	if err != nil {
		writeError(w, lang, err)
		return
	}

	var loc domain.DeviceLocator = device.NewFixed(body.Position)
	if body.PickerID != "" {
		loc = h.Picker.Locator(body.PickerID)
	}
	s := h.Orch.Submit(r.Context(), app.SearchForm{
		Start:              body.Start,
		End:                body.End,
		UseCurrentLocation: body.UseCurrentLocation,
		Options:            opts,
		Device:             loc,
		Lang:               lang,
	})
	if s.Err != nil {
		writeError(w, lang, s.Err)
		return
	}
	w.Header().Set("Content-Language", lang)
	w.Header().Set("Location", "/v1/results?"+s.Handoff)
	writeJSON(w, http.StatusOK, s)
}

type resultsView struct {
	Request domain.SearchRequest `json:"request"`
	Handoff string               `json:"handoff"`
	Hotels  []domain.HotelView   `json:"hotels"`
	Message string               `json:"message,omitempty"`
}

// results renders a handed-off query; the same query always renders the
// same view, so it carries an ETag.
func (h *Handlers) results(w http.ResponseWriter, r *http.Request) {
	lang := selectLang(r)
	q := r.URL.Query()
	q.Del("lang")
	req := domain.DecodeRequest(q, h.Now())

	s := h.Orch.Execute(r.Context(), req, lang)
	if s.Err != nil {
		writeError(w, lang, s.Err)
		return
	}

	etag, body := calcETagAndBody(resultsView{Request: req, Handoff: s.Handoff, Hotels: s.Hotels, Message: s.Message})
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Language", lang)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write results body")
	}
}

// ---- geocoding ----

func (h *Handlers) forward(w http.ResponseWriter, r *http.Request) {
	lang := selectLang(r)
	res, err := h.Geo.Forward(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) reverse(w http.ResponseWriter, r *http.Request) {
	lang := selectLang(r)
	c, err := parseCoordinate(r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))
	if err != nil {
		writeError(w, lang, err)
		return
	}
	addr := h.Geo.Reverse(r.Context(), c)
	if addr == domain.AddressUnavailable {
		addr = app.Message(lang, app.MsgAddressUnavailable)
	}
	writeJSON(w, http.StatusOK, domain.ParsedAddressResult{Coordinate: c, DisplayAddress: addr})
}

func parseCoordinate(lat, lon string) (domain.Coordinate, error) {
	la, err1 := strconv.ParseFloat(lat, 64)
	lo, err2 := strconv.ParseFloat(lon, 64)
	if err1 != nil || err2 != nil {
		return domain.Coordinate{}, &domain.ValidationError{Fields: []string{"lat", "lon"}, Err: errors.New("lat and lon must be numbers")}
	}
	c := domain.Coordinate{Lat: la, Lon: lo}
	return c, c.Validate()
}

// ---- picker ----

type openPickerBody struct {
	Position *domain.Coordinate `json:"position,omitempty"`
}

func (h *Handlers) openPicker(w http.ResponseWriter, r *http.Request) {
	lang := selectLang(r)
	var body openPickerBody
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &body); err != nil {
			writeError(w, lang, err)
			return
		}
	}
	st, err := h.Picker.Open(r.Context(), device.NewFixed(body.Position), lang)
	if err != nil {
		writeError(w, lang, err)
		return
	}
	w.Header().Set("Location", "/v1/picker/"+st.ID)
	writeJSON(w, http.StatusCreated, st)
}

func (h *Handlers) getPicker(w http.ResponseWriter, r *http.Request) {
	st, err := h.Picker.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writePickerError(w, selectLang(r), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) clickPicker(w http.ResponseWriter, r *http.Request) {
	lang := selectLang(r)
	var c domain.Coordinate
	if err := decodeBody(w, r, &c); err != nil {
		writeError(w, lang, err)
		return
	}
	st, err := h.Picker.Click(r.Context(), chi.URLParam(r, "id"), c)
	if err != nil {
		writePickerError(w, lang, err)
		return
	}
	writeJSON(w, http.StatusAccepted, st)
}

type pickerSearchBody struct {
	Q string `json:"q"`
}

func (h *Handlers) searchPicker(w http.ResponseWriter, r *http.Request) {
	lang := selectLang(r)
	var body pickerSearchBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, lang, err)
		return
	}
	st, err := h.Picker.Search(r.Context(), chi.URLParam(r, "id"), body.Q)
	if err != nil {
		writePickerError(w, lang, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// An unknown picker id is a missing resource, not a failed geocode.
func writePickerError(w http.ResponseWriter, lang string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "picker not found")
		return
	}
	writeError(w, lang, err)
}

// ---- search log ----

func (h *Handlers) recentSearches(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 100 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
			return
		}
		limit = l
	}
	out, err := h.Q.RecentSearches(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list recent searches failed")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}
