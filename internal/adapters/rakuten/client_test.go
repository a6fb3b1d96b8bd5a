package rakuten_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"midway_hotel/internal/adapters/rakuten"
	"midway_hotel/internal/domain"
)

func stay(in, out string) (time.Time, time.Time) {
	a, _ := time.Parse(domain.DateLayout, in)
	b, _ := time.Parse(domain.DateLayout, out)
	return a, b
}

func baseRequest() domain.SearchRequest {
	in, out := stay("2024-12-01", "2024-12-02")
	return domain.SearchRequest{
		Midpoint: domain.Coordinate{Lat: 35.669635, Lon: 139.73438},
		RadiusKm: domain.DefaultRadiusKm,
		CheckIn:  in,
		CheckOut: out,
	}
}

func TestSearch_MissingCredentialIsConfigErrorWithoutRequest(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	_, err := rakuten.New(ts.URL, "", 100, time.Second).Search(context.Background(), baseRequest())
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("no HTTP request expected, got %d", hits)
	}
}

func TestSearch_SendsRequiredParamsAndReturnsRawBody(t *testing.T) {
	const body = `<root><hotels/></root>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		want := map[string]string{
			"applicationId": "app-123",
			"format":        "xml",
			"datumType":     "1",
			"latitude":      "35.669635",
			"longitude":     "139.73438",
			"searchRadius":  "3.0",
			"checkinDate":   "2024-12-01",
			"checkoutDate":  "2024-12-02",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("param %s = %q, want %q", k, got, v)
			}
		}
		for _, k := range []string{"minCharge", "maxCharge", "adultNum", "squeezeCondition"} {
			if q.Has(k) {
				t.Errorf("unexpected optional param %s", k)
			}
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	got, err := rakuten.New(ts.URL, "app-123", 100, time.Second).Search(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(got) != body {
		t.Fatalf("body = %q", got)
	}
}

func TestParams_Options(t *testing.T) {
	req := baseRequest()
	price := "¥5,000 - ¥10,000"
	req.Options = &domain.SearchOptions{
		PriceRange:     &price,
		NumberOfGuests: 2,
		Amenities:      []string{"無料 Wi-Fi", "朝食付き", "駐車場", "wifi"},
	}
	p, err := rakuten.Params(req)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if p.Get("minCharge") != "5000" || p.Get("maxCharge") != "10000" || p.Get("adultNum") != "2" {
		t.Fatalf("unexpected params: %v", p)
	}
	if p.Get("squeezeCondition") != "internet,breakfast" {
		t.Fatalf("squeezeCondition = %q", p.Get("squeezeCondition"))
	}
}

func TestParams_RejectsInvertedStay(t *testing.T) {
	req := baseRequest()
	req.CheckIn, req.CheckOut = req.CheckOut, req.CheckIn
	if _, err := rakuten.Params(req); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSearch_Non2xxIsHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<root><error>wrong_parameter</error></root>`))
	}))
	defer ts.Close()

	_, err := rakuten.New(ts.URL, "app-123", 100, time.Second).Search(context.Background(), baseRequest())
	var he *domain.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if he.Status != http.StatusBadRequest || he.Body != `<root><error>wrong_parameter</error></root>` {
		t.Fatalf("unexpected HTTPError: %+v", he)
	}
}

// The service answers a search with no vacancies with 404 and a not_found
// body. Transport only reports it; it is not turned into an empty result.
func TestSearch_NotFoundStatusIsHTTPError(t *testing.T) {
	const body = `<root><error>not_found</error><error_description>data not found</error_description></root>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	raw, err := rakuten.New(ts.URL, "app-123", 100, time.Second).Search(context.Background(), baseRequest())
	var he *domain.HTTPError
	if !errors.As(err, &he) || raw != nil {
		t.Fatalf("expected *HTTPError and no body, got %q, %v", raw, err)
	}
	if he.Status != http.StatusNotFound || he.Body != body {
		t.Fatalf("unexpected HTTPError: %+v", he)
	}
}

func TestSearch_TransportFailureIsNetworkError(t *testing.T) {
	_, err := rakuten.New("http://127.0.0.1:1", "app-123", 100, time.Second).Search(context.Background(), baseRequest())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestParsePriceRange(t *testing.T) {
	cases := []struct {
		in     string
		lo, hi int
	}{
		{"¥5000 - ¥10000", 5000, 10000},
		{"５０００〜１００００", 5000, 10000},
		{"10000-5000", 5000, 10000},
		{"5000-", 5000, 0},
		{"-8000", 0, 8000},
		{"8000", 0, 8000},
		{"", 0, 0},
	}
	for _, c := range cases {
		lo, hi := rakuten.ParsePriceRange(c.in)
		if lo != c.lo || hi != c.hi {
			t.Fatalf("ParsePriceRange(%q) = %d,%d want %d,%d", c.in, lo, hi, c.lo, c.hi)
		}
	}
}
