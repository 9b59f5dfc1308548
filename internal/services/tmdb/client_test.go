package tmdb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"curator/internal/media"
	"curator/internal/services/tmdb"
)

const multiSearchBody = `{
  "page": 1,
  "results": [
    {
      "id": 42,
      "media_type": "movie",
      "title": "流浪地球",
      "release_date": "2019-02-05",
      "genre_ids": [878, 28],
      "original_language": "zh",
      "popularity": 55.1,
      "vote_average": 7.3
    },
    {
      "id": 7,
      "media_type": "person",
      "name": "Someone Famous"
    },
    {
      "id": 99,
      "media_type": "tv",
      "name": "Some Show",
      "first_air_date": "2021-09-01",
      "genre_ids": [16],
      "original_language": "ja",
      "origin_country": ["JP"]
    }
  ],
  "total_results": 3
}`

func newTestClient(t *testing.T, handler http.Handler) *tmdb.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := tmdb.New("test-key", server.URL, "zh-CN",
		tmdb.WithHTTPClient(server.Client()),
		tmdb.WithRetry(3, time.Millisecond),
		tmdb.WithRequestSpacing(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestSearchMapsResults(t *testing.T) {
	var gotQuery, gotLanguage string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/multi" {
			t.Errorf("path = %q, want /search/multi", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("query")
		gotLanguage = r.URL.Query().Get("language")
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Error("api_key missing from request")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(multiSearchBody))
	}))

	records, err := client.Search(context.Background(), "流浪地球")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "流浪地球" {
		t.Fatalf("query = %q", gotQuery)
	}
	if gotLanguage != "zh-CN" {
		t.Fatalf("language = %q", gotLanguage)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (person dropped)", len(records))
	}

	movie := records[0]
	if movie.Kind != media.KindMovie || movie.Title != "流浪地球" || movie.OriginalLanguage != "zh" {
		t.Fatalf("movie record = %+v", movie)
	}
	if len(movie.GenreIDs) != 2 || movie.GenreIDs[0] != 878 {
		t.Fatalf("movie genres = %v", movie.GenreIDs)
	}

	show := records[1]
	if show.Kind != media.KindTV || show.Title != "Some Show" || show.ReleaseDate != "2021-09-01" {
		t.Fatalf("tv record = %+v", show)
	}
	if len(show.OriginCountries) != 1 || show.OriginCountries[0] != "JP" {
		t.Fatalf("tv origin countries = %v", show.OriginCountries)
	}
}

func TestSearchEmptyResultsIsNotError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":1,"results":[],"total_results":0}`))
	}))

	records, err := client.Search(context.Background(), "nothing here")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
}

func TestSearchRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(multiSearchBody))
	}))

	records, err := client.Search(context.Background(), "show")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
}

func TestSearchGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if _, err := client.Search(context.Background(), "show"); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	}))
	if _, err := client.Search(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestNewValidatesInputs(t *testing.T) {
	if _, err := tmdb.New("", "https://api.example.com", "en-US"); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := tmdb.New("key", "", "en-US"); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
