package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(context.Background(), Config{
		APIKey:     "test_key",
		PageSize:   2,
		Endpoint:   server.URL + "/",
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	return client
}

func videosResponse(ids ...string) string {
	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = fmt.Sprintf(`{"id":%q,"contentDetails":{"duration":"PT3M30S"}}`, id)
	}
	return `{"items":[` + strings.Join(items, ",") + `]}`
}

// videoIDs collects the requested IDs whether sent repeated or comma separated.
func videoIDs(r *http.Request) []string {
	var ids []string
	for _, v := range r.URL.Query()["id"] {
		ids = append(ids, strings.Split(v, ",")...)
	}
	return ids
}

func TestFetchFirst_Playlist(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		q := r.URL.Query()
		switch {
		case strings.HasSuffix(r.URL.Path, "/playlists"):
			assert.Equal(t, "PL1", q.Get("id"))
			fmt.Fprint(w, `{"items":[{"id":"PL1","snippet":{"title":"Road &amp; Trip"}}]}`)
		case strings.HasSuffix(r.URL.Path, "/playlistItems"):
			assert.Equal(t, "PL1", q.Get("playlistId"))
			assert.Equal(t, "2", q.Get("maxResults"))
			if q.Get("pageToken") == "CAIQAA" {
				fmt.Fprint(w, `{"items":[{"snippet":{"title":"Three"},"contentDetails":{"videoId":"v3"}}]}`)
				return
			}
			fmt.Fprint(w, `{"nextPageToken":"CAIQAA","items":[
				{"snippet":{"title":"One","videoOwnerChannelId":"UC1","videoOwnerChannelTitle":"Band - Topic",
					"thumbnails":{"default":{"url":"https://i/d.jpg"},"high":{"url":"https://i/h.jpg"}}},
					"contentDetails":{"videoId":"v1"}},
				{"snippet":{"title":"Deleted video"},"contentDetails":{}},
				{"snippet":{"title":"Two"},"contentDetails":{"videoId":"v2"}}]}`)
		case strings.HasSuffix(r.URL.Path, "/videos"):
			fmt.Fprint(w, videosResponse(videoIDs(r)...))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	page, err := client.FetchFirst(ctx, listing.Seed{Kind: listing.SeedPlaylist, ID: "PL1"})
	require.NoError(t, err)

	assert.Equal(t, "Road & Trip", page.Title)
	assert.Equal(t, "playlist:CAIQAA:PL1", page.Continuation)
	units := media.Playable(page.Items)
	require.Equal(t, []string{"v1", "v2"}, media.IDs(units))
	assert.Equal(t, "Band", units[0].ArtistNames())
	assert.Equal(t, "https://i/h.jpg", units[0].ThumbnailURL)
	assert.Equal(t, 210*time.Second, units[0].Duration)

	next, err := client.FetchNext(ctx, page.Continuation)
	require.NoError(t, err)
	assert.Equal(t, []string{"v3"}, media.IDs(media.Playable(next.Items)))
	assert.False(t, next.HasMore())
}

func TestFetchFirst_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			assert.Equal(t, "jazz", q.Get("q"))
			assert.Equal(t, "video", q.Get("type"))
			assert.Equal(t, musicCategoryID, q.Get("videoCategoryId"))
			fmt.Fprint(w, `{"items":[
				{"id":{"kind":"youtube#video","videoId":"j1"},"snippet":{"title":"Take Five","channelTitle":"Dave"}},
				{"id":{"kind":"youtube#channel","channelId":"UCx"},"snippet":{"title":"Channel"}}]}`)
		case strings.HasSuffix(r.URL.Path, "/videos"):
			fmt.Fprint(w, videosResponse("j1"))
		}
	})

	page, err := client.FetchFirst(context.Background(), listing.Seed{Kind: listing.SeedSearch, ID: "jazz"})
	require.NoError(t, err)
	assert.Equal(t, "jazz", page.Title)
	assert.False(t, page.HasMore())
	assert.Equal(t, []string{"j1"}, media.IDs(media.Playable(page.Items)))
}

func TestFetchNext_RejectedCursor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"Invalid page token"}}`)
	})

	for _, cursor := range []string{"playlist:stale:PL1", "playlist", "album:tok:x", "search::q"} {
		t.Run(cursor, func(t *testing.T) {
			_, err := client.FetchNext(context.Background(), cursor)
			require.Error(t, err)
			assert.True(t, listing.IsInvalidCursor(err))
		})
	}
}

func TestFetchNext_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"quotaExceeded"}}`)
	})

	_, err := client.FetchNext(context.Background(), "search:tok:q")
	require.Error(t, err)
	assert.False(t, listing.IsInvalidCursor(err))
}

func TestFetchNext_DurationLookupErrorIsNotACursorRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/playlistItems"):
			fmt.Fprint(w, `{"items":[{"snippet":{"title":"Three"},"contentDetails":{"videoId":"v3"}}]}`)
		case strings.HasSuffix(r.URL.Path, "/videos"):
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"code":404,"message":"videos not found"}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	_, err := client.FetchNext(context.Background(), "playlist:CAIQAA:PL1")
	require.Error(t, err)
	assert.False(t, listing.IsInvalidCursor(err))
	assert.Contains(t, err.Error(), "video details")
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT3M30S", 3*time.Minute + 30*time.Second},
		{"PT1H2M3S", time.Hour + 2*time.Minute + 3*time.Second},
		{"PT45S", 45 * time.Second},
		{"PT10M", 10 * time.Minute},
		{"P1DT1S", 24*time.Hour + time.Second},
		{"", 0},
		{"PTxS", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDuration(tt.in))
		})
	}
}
