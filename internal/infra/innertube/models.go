package innertube

// Runs is formatted text split into runs.
type Runs struct {
	Runs []Run `json:"runs"`
}

// Run is one piece of formatted text, optionally linking somewhere.
type Run struct {
	Text               string              `json:"text"`
	NavigationEndpoint *NavigationEndpoint `json:"navigationEndpoint,omitempty"`
}

// String joins the text of all runs.
func (r *Runs) String() string {
	if r == nil {
		return ""
	}
	s := ""
	for _, run := range r.Runs {
		s += run.Text
	}
	return s
}

// NavigationEndpoint is where a click on an entry leads.
type NavigationEndpoint struct {
	WatchEndpoint  *WatchEndpoint  `json:"watchEndpoint,omitempty"`
	BrowseEndpoint *BrowseEndpoint `json:"browseEndpoint,omitempty"`
}

// WatchEndpoint starts playback of a video, optionally within a playlist.
type WatchEndpoint struct {
	VideoID    string `json:"videoId,omitempty"`
	PlaylistID string `json:"playlistId,omitempty"`
	Params     string `json:"params,omitempty"`
}

// BrowseEndpoint opens a browse page (album, artist, playlist).
type BrowseEndpoint struct {
	BrowseID string `json:"browseId"`
	Params   string `json:"params,omitempty"`
}

// Thumbnails holds image variants ordered by size.
type Thumbnails struct {
	Thumbnails []Thumbnail `json:"thumbnails"`
}

// Thumbnail is one image variant.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Largest returns the URL of the largest variant.
func (t *Thumbnails) Largest() string {
	if t == nil || len(t.Thumbnails) == 0 {
		return ""
	}
	return t.Thumbnails[len(t.Thumbnails)-1].URL
}

// ThumbnailRenderer wraps a thumbnail the way music renderers nest it.
type ThumbnailRenderer struct {
	MusicThumbnailRenderer *struct {
		Thumbnail Thumbnails `json:"thumbnail"`
	} `json:"musicThumbnailRenderer,omitempty"`
}

// URL returns the largest thumbnail URL.
func (t *ThumbnailRenderer) URL() string {
	if t == nil || t.MusicThumbnailRenderer == nil {
		return ""
	}
	return t.MusicThumbnailRenderer.Thumbnail.Largest()
}

// Continuation is a page token in one of the shapes the API uses.
type Continuation struct {
	NextContinuationData      *ContinuationData `json:"nextContinuationData,omitempty"`
	NextRadioContinuationData *ContinuationData `json:"nextRadioContinuationData,omitempty"`
}

// ContinuationData carries the token.
type ContinuationData struct {
	Continuation        string `json:"continuation"`
	ClickTrackingParams string `json:"clickTrackingParams,omitempty"`
}

func continuationToken(cs []Continuation) string {
	for _, c := range cs {
		if c.NextContinuationData != nil && c.NextContinuationData.Continuation != "" {
			return c.NextContinuationData.Continuation
		}
		if c.NextRadioContinuationData != nil && c.NextRadioContinuationData.Continuation != "" {
			return c.NextRadioContinuationData.Continuation
		}
	}
	return ""
}

// MusicResponsiveListItemRenderer is a row in a shelf (song, album, artist or playlist).
type MusicResponsiveListItemRenderer struct {
	FlexColumns []struct {
		Renderer struct {
			Text Runs `json:"text"`
		} `json:"musicResponsiveListItemFlexColumnRenderer"`
	} `json:"flexColumns"`
	FixedColumns []struct {
		Renderer struct {
			Text Runs `json:"text"`
		} `json:"musicResponsiveListItemFixedColumnRenderer"`
	} `json:"fixedColumns,omitempty"`
	PlaylistItemData *struct {
		VideoID string `json:"videoId"`
	} `json:"playlistItemData,omitempty"`
	Thumbnail          *ThumbnailRenderer  `json:"thumbnail,omitempty"`
	NavigationEndpoint *NavigationEndpoint `json:"navigationEndpoint,omitempty"`
	Badges             []Badge             `json:"badges,omitempty"`
}

// MusicTwoRowItemRenderer is a card in a carousel.
type MusicTwoRowItemRenderer struct {
	Title              Runs                `json:"title"`
	Subtitle           *Runs               `json:"subtitle,omitempty"`
	NavigationEndpoint *NavigationEndpoint `json:"navigationEndpoint,omitempty"`
	ThumbnailRenderer  *ThumbnailRenderer  `json:"thumbnailRenderer,omitempty"`
	SubtitleBadges     []Badge             `json:"subtitleBadges,omitempty"`
}

// Badge marks an entry, e.g. as explicit.
type Badge struct {
	MusicInlineBadgeRenderer *struct {
		Icon struct {
			IconType string `json:"iconType"`
		} `json:"icon"`
	} `json:"musicInlineBadgeRenderer,omitempty"`
}

func explicit(badges []Badge) bool {
	for _, b := range badges {
		if b.MusicInlineBadgeRenderer != nil && b.MusicInlineBadgeRenderer.Icon.IconType == "MUSIC_EXPLICIT_BADGE" {
			return true
		}
	}
	return false
}

// ShelfContent is one entry of a shelf.
type ShelfContent struct {
	MusicResponsiveListItemRenderer *MusicResponsiveListItemRenderer `json:"musicResponsiveListItemRenderer,omitempty"`
	MusicTwoRowItemRenderer         *MusicTwoRowItemRenderer         `json:"musicTwoRowItemRenderer,omitempty"`
}

// MusicShelfRenderer is a vertical list of rows.
type MusicShelfRenderer struct {
	Title         *Runs          `json:"title,omitempty"`
	Contents      []ShelfContent `json:"contents"`
	Continuations []Continuation `json:"continuations,omitempty"`
}

// MusicCarouselShelfRenderer is a horizontal list of cards.
type MusicCarouselShelfRenderer struct {
	Header *struct {
		Basic *struct {
			Title Runs `json:"title"`
		} `json:"musicCarouselShelfBasicHeaderRenderer,omitempty"`
	} `json:"header,omitempty"`
	Contents []ShelfContent `json:"contents"`
}

// SectionListRenderer is the list of shelves on a page.
type SectionListRenderer struct {
	Contents []struct {
		MusicShelfRenderer         *MusicShelfRenderer         `json:"musicShelfRenderer,omitempty"`
		MusicPlaylistShelfRenderer *MusicShelfRenderer         `json:"musicPlaylistShelfRenderer,omitempty"`
		MusicCarouselShelfRenderer *MusicCarouselShelfRenderer `json:"musicCarouselShelfRenderer,omitempty"`
	} `json:"contents"`
	Continuations []Continuation `json:"continuations,omitempty"`
}

// Tabs is the tab container shared by browse and search responses.
type Tabs struct {
	Tabs []struct {
		TabRenderer struct {
			Content *struct {
				SectionListRenderer *SectionListRenderer `json:"sectionListRenderer,omitempty"`
			} `json:"content,omitempty"`
		} `json:"tabRenderer"`
	} `json:"tabs"`
}

func (t *Tabs) sectionList() *SectionListRenderer {
	if t == nil {
		return nil
	}
	for _, tab := range t.Tabs {
		if tab.TabRenderer.Content != nil && tab.TabRenderer.Content.SectionListRenderer != nil {
			return tab.TabRenderer.Content.SectionListRenderer
		}
	}
	return nil
}

// BrowseResponse is the response of the browse endpoint.
type BrowseResponse struct {
	Contents *struct {
		SingleColumnBrowseResultsRenderer *Tabs                `json:"singleColumnBrowseResultsRenderer,omitempty"`
		SectionListRenderer               *SectionListRenderer `json:"sectionListRenderer,omitempty"`
	} `json:"contents,omitempty"`
	ContinuationContents *struct {
		SectionListContinuation        *SectionListRenderer `json:"sectionListContinuation,omitempty"`
		MusicPlaylistShelfContinuation *MusicShelfRenderer  `json:"musicPlaylistShelfContinuation,omitempty"`
		MusicShelfContinuation         *MusicShelfRenderer  `json:"musicShelfContinuation,omitempty"`
	} `json:"continuationContents,omitempty"`
	Header *struct {
		MusicDetailHeaderRenderer *struct {
			Title Runs `json:"title"`
		} `json:"musicDetailHeaderRenderer,omitempty"`
		MusicImmersiveHeaderRenderer *struct {
			Title Runs `json:"title"`
		} `json:"musicImmersiveHeaderRenderer,omitempty"`
		MusicHeaderRenderer *struct {
			Title Runs `json:"title"`
		} `json:"musicHeaderRenderer,omitempty"`
		MusicVisualHeaderRenderer *struct {
			Title Runs `json:"title"`
		} `json:"musicVisualHeaderRenderer,omitempty"`
	} `json:"header,omitempty"`
}

func (r *BrowseResponse) title() string {
	if r.Header == nil {
		return ""
	}
	switch {
	case r.Header.MusicDetailHeaderRenderer != nil:
		return r.Header.MusicDetailHeaderRenderer.Title.String()
	case r.Header.MusicImmersiveHeaderRenderer != nil:
		return r.Header.MusicImmersiveHeaderRenderer.Title.String()
	case r.Header.MusicHeaderRenderer != nil:
		return r.Header.MusicHeaderRenderer.Title.String()
	case r.Header.MusicVisualHeaderRenderer != nil:
		return r.Header.MusicVisualHeaderRenderer.Title.String()
	}
	return ""
}

func (r *BrowseResponse) sectionList() *SectionListRenderer {
	if r.Contents == nil {
		return nil
	}
	if r.Contents.SectionListRenderer != nil {
		return r.Contents.SectionListRenderer
	}
	return r.Contents.SingleColumnBrowseResultsRenderer.sectionList()
}

// SearchResponse is the response of the search endpoint.
type SearchResponse struct {
	Contents *struct {
		TabbedSearchResultsRenderer *Tabs `json:"tabbedSearchResultsRenderer,omitempty"`
	} `json:"contents,omitempty"`
	ContinuationContents *struct {
		MusicShelfContinuation *MusicShelfRenderer `json:"musicShelfContinuation,omitempty"`
	} `json:"continuationContents,omitempty"`
}

// PlaylistPanelVideoRenderer is an entry of the watch queue.
type PlaylistPanelVideoRenderer struct {
	VideoID            string              `json:"videoId"`
	Title              Runs                `json:"title"`
	LongBylineText     Runs                `json:"longBylineText"`
	LengthText         *Runs               `json:"lengthText,omitempty"`
	Thumbnail          *Thumbnails         `json:"thumbnail,omitempty"`
	NavigationEndpoint *NavigationEndpoint `json:"navigationEndpoint,omitempty"`
	Badges             []Badge             `json:"badges,omitempty"`
}

// PlaylistPanelRenderer is the watch queue.
type PlaylistPanelRenderer struct {
	Title    string `json:"title,omitempty"`
	Contents []struct {
		PlaylistPanelVideoRenderer *PlaylistPanelVideoRenderer `json:"playlistPanelVideoRenderer,omitempty"`
	} `json:"contents"`
	Continuations []Continuation `json:"continuations,omitempty"`
}

// NextResponse is the response of the next endpoint (radio and watch queues).
type NextResponse struct {
	Contents *struct {
		SingleColumnMusicWatchNextResultsRenderer struct {
			TabbedRenderer struct {
				WatchNextTabbedResultsRenderer struct {
					Tabs []struct {
						TabRenderer struct {
							Content *struct {
								MusicQueueRenderer struct {
									Content *struct {
										PlaylistPanelRenderer *PlaylistPanelRenderer `json:"playlistPanelRenderer,omitempty"`
									} `json:"content,omitempty"`
								} `json:"musicQueueRenderer"`
							} `json:"content,omitempty"`
						} `json:"tabRenderer"`
					} `json:"tabs"`
				} `json:"watchNextTabbedResultsRenderer"`
			} `json:"tabbedRenderer"`
		} `json:"singleColumnMusicWatchNextResultsRenderer"`
	} `json:"contents,omitempty"`
	ContinuationContents *struct {
		PlaylistPanelContinuation *PlaylistPanelRenderer `json:"playlistPanelContinuation,omitempty"`
	} `json:"continuationContents,omitempty"`
}

func (r *NextResponse) panel() *PlaylistPanelRenderer {
	if r.ContinuationContents != nil && r.ContinuationContents.PlaylistPanelContinuation != nil {
		return r.ContinuationContents.PlaylistPanelContinuation
	}
	if r.Contents == nil {
		return nil
	}
	for _, tab := range r.Contents.SingleColumnMusicWatchNextResultsRenderer.TabbedRenderer.WatchNextTabbedResultsRenderer.Tabs {
		c := tab.TabRenderer.Content
		if c != nil && c.MusicQueueRenderer.Content != nil && c.MusicQueueRenderer.Content.PlaylistPanelRenderer != nil {
			return c.MusicQueueRenderer.Content.PlaylistPanelRenderer
		}
	}
	return nil
}

// apiError is the error envelope returned with non-2xx responses.
type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}
