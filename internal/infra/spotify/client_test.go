package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

func trackJSON(id string) string {
	return fmt.Sprintf(`{"type":"track","id":%q,"name":"Track %s","duration_ms":200000,"explicit":true,
		"artists":[{"id":"ar1","name":"Artist One"},{"id":"ar2","name":"Artist Two"}],
		"album":{"id":"al1","name":"Album","images":[{"url":"https://img/640","height":640,"width":640},{"url":"https://img/64","height":64,"width":64}]}}`, id, id)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewWithHTTPClient(server.Client(), Config{BaseURL: server.URL + "/", PageSize: 2})
	c.retryDelay = time.Millisecond
	return c
}

func TestFetchFirst_Playlist(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/playlists/PL1":
			assert.Equal(t, "name", r.URL.Query().Get("fields"))
			fmt.Fprint(w, `{"name":"Morning Mix"}`)
		case "/playlists/PL1/tracks":
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			assert.Equal(t, "JP", r.URL.Query().Get("market"))
			if r.URL.Query().Get("offset") == "2" {
				fmt.Fprintf(w, `{"limit":2,"offset":2,"total":3,"next":null,"items":[{"track":%s}]}`, trackJSON("t3"))
				return
			}
			fmt.Fprintf(w, `{"limit":2,"offset":0,"total":3,"next":"https://api/next","items":[{"track":%s},{"track":%s}]}`,
				trackJSON("t1"), trackJSON("t2"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	page, err := client.FetchFirst(ctx, listing.Seed{Kind: listing.SeedPlaylist, ID: "https://open.spotify.com/playlist/PL1?si=x"})
	require.NoError(t, err)

	assert.Equal(t, "Morning Mix", page.Title)
	assert.Equal(t, "playlist:2:PL1", page.Continuation)
	units := media.Playable(page.Items)
	assert.Equal(t, []string{"t1", "t2"}, media.IDs(units))
	assert.Equal(t, "Artist One, Artist Two", units[0].ArtistNames())
	assert.Equal(t, "Album", units[0].AlbumTitle())
	assert.Equal(t, "https://img/640", units[0].ThumbnailURL)
	assert.Equal(t, 200*time.Second, units[0].Duration)
	assert.True(t, units[0].Explicit)

	next, err := client.FetchNext(ctx, page.Continuation)
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, media.IDs(media.Playable(next.Items)))
	assert.False(t, next.HasMore())
}

func TestFetchFirst_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "city pop", r.URL.Query().Get("q"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		fmt.Fprintf(w, `{"tracks":{"limit":2,"offset":0,"total":10,"next":"https://api/next","items":[%s,%s]}}`,
			trackJSON("s1"), trackJSON("s2"))
	})

	page, err := client.FetchFirst(context.Background(), listing.Seed{Kind: listing.SeedSearch, ID: "city pop"})
	require.NoError(t, err)
	assert.Equal(t, "city pop", page.Title)
	assert.Equal(t, "search:2:city pop", page.Continuation)
	assert.Len(t, page.Items, 2)
}

func TestFetchFirst_Album(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/albums/AL1":
			fmt.Fprint(w, `{"id":"AL1","name":"Debut","images":[{"url":"https://img/a","height":300,"width":300}]}`)
		case "/albums/AL1/tracks":
			fmt.Fprint(w, `{"limit":2,"offset":0,"total":1,"next":null,"items":[
				{"id":"x1","name":"Intro","duration_ms":60000,"artists":[{"id":"ar1","name":"Solo"}]}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	page, err := client.FetchFirst(context.Background(), listing.Seed{Kind: listing.SeedAlbum, ID: "spotify:album:AL1"})
	require.NoError(t, err)
	assert.Equal(t, "Debut", page.Title)
	assert.False(t, page.HasMore())

	units := media.Playable(page.Items)
	require.Len(t, units, 1)
	assert.Equal(t, "Debut", units[0].AlbumTitle())
	assert.Equal(t, "https://img/a", units[0].ThumbnailURL)
	assert.Equal(t, time.Minute, units[0].Duration)
}

func TestFetchFirst_UnsupportedKind(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	_, err := client.FetchFirst(context.Background(), listing.Seed{Kind: listing.SeedStation, ID: "x"})
	assert.Error(t, err)
}

func TestFetchNext_RejectedCursor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"status":404,"message":"Not found."}}`)
	})

	tests := []struct {
		name   string
		cursor string
	}{
		{"not found", "playlist:100:gone"},
		{"malformed", "playlist"},
		{"bad offset", "album:-1:AL1"},
		{"unknown kind", "station:0:x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.FetchNext(context.Background(), tt.cursor)
			require.Error(t, err)
			assert.True(t, listing.IsInvalidCursor(err))
		})
	}
}

func TestFetchNext_ServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":{"status":502,"message":"Bad gateway"}}`)
	})

	_, err := client.FetchNext(context.Background(), "search:2:q")
	require.Error(t, err)
	assert.False(t, listing.IsInvalidCursor(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestParseCursor(t *testing.T) {
	kind, offset, id, err := parseCursor(formatCursor(listing.SeedSearch, 40, "a:b c"))
	require.NoError(t, err)
	assert.Equal(t, listing.SeedSearch, kind)
	assert.Equal(t, 40, offset)
	assert.Equal(t, "a:b c", id)
}

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Spotify URI format",
			input:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL format",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL with query params",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Plain playlist ID",
			input:    "37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "HTTP URL (not HTTPS)",
			input:    "http://open.spotify.com/playlist/testID",
			expected: "testID",
		},
		{
			name:     "URL with multiple query params",
			input:    "https://open.spotify.com/playlist/abc123?si=xyz&utm_source=copy",
			expected: "abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractPlaylistID(tt.input)
			assert.Equal(t, tt.expected, result,
				"extractPlaylistID(%s) should return %s", tt.input, tt.expected)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "rate limit error with 429",
			err:      errors.New("Error 429: rate limit exceeded"),
			expected: true,
		},
		{
			name:     "rate limit text",
			err:      errors.New("rate limit exceeded"),
			expected: true,
		},
		{
			name:     "server error 500",
			err:      errors.New("Error 500: internal server error"),
			expected: true,
		},
		{
			name:     "server error 502",
			err:      errors.New("502 Bad Gateway"),
			expected: true,
		},
		{
			name:     "server error 503",
			err:      errors.New("503 Service Unavailable"),
			expected: true,
		},
		{
			name:     "server error 504",
			err:      errors.New("504 Gateway Timeout"),
			expected: true,
		},
		{
			name:     "client error 400",
			err:      errors.New("400 Bad Request"),
			expected: false,
		},
		{
			name:     "not found error",
			err:      errors.New("404 not found"),
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRetryable(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
