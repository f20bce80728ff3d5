// Package playerv1 defines the messages of the innerbeat.v1.PlayerService API.
//
// The messages are plain Go structs, not protoc-generated types. They travel as
// JSON through Codec, which takes the place of connect's protobuf and protojson
// codecs, so clients must use the "json" codec (Content-Type application/json or
// application/connect+json). Binary protobuf requests fail to decode.
package playerv1

import "time"

// Artist is an artist credit of a track.
type Artist struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Track is one playable item.
type Track struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Artists      []*Artist `json:"artists,omitempty"`
	AlbumID      string    `json:"album_id,omitempty"`
	Album        string    `json:"album,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	Explicit     bool      `json:"explicit,omitempty"`
}

// Status is the state of the active queue.
type Status struct {
	SessionID   string   `json:"session_id"`
	Generation  uint64   `json:"generation"`
	Title       string   `json:"title,omitempty"`
	Seed        string   `json:"seed,omitempty"` // Seed the queue was started from; empty for lists
	Items       []*Track `json:"items"`
	Index       int32    `json:"index"`
	PositionMs  int64    `json:"position_ms"`
	State       string   `json:"state"` // idle, playing, paused or waiting
	HasNextPage bool     `json:"has_next_page"`
	Loading     bool     `json:"loading"`
}

// NotificationType identifies a notification.
type NotificationType string

const (
	NotificationTypeInitialState   NotificationType = "initial_state"
	NotificationTypeQueueChanged   NotificationType = "queue_changed"
	NotificationTypeItemsAppended  NotificationType = "items_appended"
	NotificationTypeTrackStarted   NotificationType = "track_started"
	NotificationTypeTrackEnded     NotificationType = "track_ended"
	NotificationTypeTrackSkipped   NotificationType = "track_skipped"
	NotificationTypeStateChanged   NotificationType = "state_changed"
	NotificationTypeQueueDepleting NotificationType = "queue_depleting"
	NotificationTypeQueueEnded     NotificationType = "queue_ended"
)

// Notification is one message of the Watch stream.
type Notification struct {
	SequenceNo uint64           `json:"sequence_no"`
	Type       NotificationType `json:"type"`
	Generation uint64           `json:"generation"`
	Index      int32            `json:"index"`
	State      string           `json:"state"`
	Track      *Track           `json:"track,omitempty"`
	Status     *Status          `json:"status,omitempty"` // Set on initial_state, queue_changed and items_appended
}

// SourceInfo describes a configured listing source.
type SourceInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default bool   `json:"default"`
}

// HistoryEntry is one played track.
type HistoryEntry struct {
	Track    *Track    `json:"track"`
	PlayedAt time.Time `json:"played_at"`
}

type PlaySeedRequest struct {
	Seed    string `json:"seed"` // "[source/]kind:id[|params]"
	Preload *Track `json:"preload,omitempty"`
}

type PlaySeedResponse struct {
	Status *Status `json:"status"`
}

type PlayListRequest struct {
	Title      string   `json:"title"`
	Items      []*Track `json:"items"`
	StartIndex int32    `json:"start_index"`
	Shuffle    bool     `json:"shuffle"`
}

type PlayListResponse struct {
	Status *Status `json:"status"`
}

type PlayArtistRequest struct {
	Artist  string `json:"artist"`
	Shuffle bool   `json:"shuffle"`
}

type PlayArtistResponse struct {
	Status *Status `json:"status"`
}

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Status *Status `json:"status"`
}

type LoadMoreRequest struct{}

type LoadMoreResponse struct {
	Appended    int32 `json:"appended"`
	HasNextPage bool  `json:"has_next_page"`
}

// ControlRequest is the request of Pause, Resume, Skip, Previous and Stop.
type ControlRequest struct{}

// ControlResponse reports the outcome of a playback control.
type ControlResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Status  *Status `json:"status,omitempty"`
}

type SeekRequest struct {
	Index int32 `json:"index"`
}

type ListSourcesRequest struct{}

type ListSourcesResponse struct {
	Sources []*SourceInfo `json:"sources"`
}

type ListArtistsRequest struct{}

type ListArtistsResponse struct {
	Artists []string `json:"artists"`
}

type GetHistoryRequest struct {
	Limit int32 `json:"limit"`
}

type GetHistoryResponse struct {
	Entries []*HistoryEntry `json:"entries"`
}

type WatchRequest struct{}

type BrowseRequest struct {
	Source   string `json:"source,omitempty"`    // Empty selects the default source
	BrowseID string `json:"browse_id,omitempty"` // Empty selects the source's home page
	Params   string `json:"params,omitempty"`
}

// BrowseItem is an entry of a browsed page. Seed, when set, can be passed to PlaySeed.
type BrowseItem struct {
	Kind         string `json:"kind"` // song, album, artist or playlist
	ID           string `json:"id"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Seed         string `json:"seed,omitempty"`
}

type BrowseSection struct {
	Title string        `json:"title"`
	Items []*BrowseItem `json:"items"`
}

type BrowseResponse struct {
	Source   string           `json:"source"`
	Title    string           `json:"title,omitempty"`
	Sections []*BrowseSection `json:"sections"`
}
