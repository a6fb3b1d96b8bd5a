package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"# comment", "", " Tokyo Station | Shibuya Station ", "那覇空港|首里城"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Start != "Tokyo Station" || got[0].End != "Shibuya Station" || got[1].End != "首里城" {
		t.Fatalf("got %+v", got)
	}
	if _, err := parsePairs([]string{"no separator"}); err == nil {
		t.Fatal("expected error")
	}
}

// offline points every backend at a geocoder that knows no places.
func offline(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("NOMINATIM_BASE_URL", srv.URL)
	t.Setenv("RAKUTEN_BASE_URL", srv.URL)
	t.Setenv("EXTERNAL_RPS", "50")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("JWT_SECRET", "")
}

func TestRun_ExitCodes(t *testing.T) {
	offline(t)
	cases := map[string][]string{
		"no pairs":           nil,
		"unknown flag":       {"-bogus", "a|b"},
		"token needs secret": {"-token", "abc", "a|b"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			if code := run(args, &out); code != 2 {
				t.Fatalf("exit = %d, want 2", code)
			}
			if out.Len() != 0 {
				t.Fatalf("unexpected output %q", out.String())
			}
		})
	}
}

func TestRun_FailedSearchReportsAndExitsOne(t *testing.T) {
	offline(t)
	var out bytes.Buffer
	if code := run([]string{"-lang", "en", "Atlantis|Lemuria"}, &out); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	var line struct {
		Item   struct{ Start, End string }
		Search struct {
			State     string `json:"state"`
			ErrorKind string `json:"errorKind"`
			Message   string `json:"message"`
		}
	}
	if err := json.Unmarshal(out.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if line.Item.Start != "Atlantis" || line.Search.State != "failed" || line.Search.ErrorKind != "not_found" {
		t.Fatalf("line = %+v", line)
	}
	if line.Search.Message != "Address not found" {
		t.Fatalf("message = %q", line.Search.Message)
	}
}
