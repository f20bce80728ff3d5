package library

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/innerbeat/internal/domain/listing"
	"github.com/osa030/innerbeat/internal/domain/media"
)

// id3v23 builds a minimal ID3v2.3 tag with ISO-8859-1 text frames.
func id3v23(frames map[string]string) []byte {
	var body bytes.Buffer
	for id, text := range frames {
		body.WriteString(id)
		_ = binary.Write(&body, binary.BigEndian, uint32(len(text)+1))
		body.Write([]byte{0, 0}) // flags
		body.WriteByte(0)        // encoding
		body.WriteString(text)
	}
	body.Write(make([]byte, 16)) // padding

	size := body.Len()
	var tag bytes.Buffer
	tag.WriteString("ID3")
	tag.Write([]byte{3, 0, 0})
	tag.Write([]byte{byte(size >> 21 & 0x7f), byte(size >> 14 & 0x7f), byte(size >> 7 & 0x7f), byte(size & 0x7f)})
	tag.Write(body.Bytes())
	tag.Write(make([]byte, 256)) // audio
	return tag.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func newTestLibrary(t *testing.T, pageSize int) *Library {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "b", "02.mp3"), id3v23(map[string]string{
		"TIT2": "Second", "TPE1": "Band", "TALB": "First Album", "TRCK": "2/3", "TYER": "2001",
	}))
	writeFile(t, filepath.Join(root, "b", "01.mp3"), id3v23(map[string]string{
		"TIT2": "Opener", "TPE1": "Band", "TALB": "First Album", "TRCK": "1/3",
	}))
	writeFile(t, filepath.Join(root, "b", "03.mp3"), id3v23(map[string]string{
		"TIT2": "Closer", "TPE1": "Band", "TALB": "First Album", "TRCK": "3/3",
	}))
	writeFile(t, filepath.Join(root, "a", "solo.mp3"), id3v23(map[string]string{
		"TIT2": "Alone", "TPE1": "Artist", "TALB": "Single",
	}))
	writeFile(t, filepath.Join(root, "untagged song.mp3"), []byte("not really audio"))
	writeFile(t, filepath.Join(root, "cover.jpg"), []byte("jpeg"))

	lib, err := New(Config{Root: root, PageSize: pageSize})
	require.NoError(t, err)
	n, err := lib.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, n)
	return lib
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Root: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	lib, err := New(Config{Root: t.TempDir(), Extensions: []string{"MP3", ".flac"}})
	require.NoError(t, err)
	assert.True(t, lib.IsFormatSupported("x/y.mp3"))
	assert.True(t, lib.IsFormatSupported("x/y.FLAC"))
	assert.False(t, lib.IsFormatSupported("x/y.ogg"))
}

func TestScan(t *testing.T) {
	lib := newTestLibrary(t, 50)

	assert.Equal(t, []string{"Artist", "Band"}, lib.Artists())

	units, err := lib.ArtistUnits("band")
	require.NoError(t, err)
	titles := make([]string, len(units))
	for i, u := range units {
		titles[i] = u.Title
	}
	assert.Equal(t, []string{"Opener", "Second", "Closer"}, titles)
	assert.Equal(t, "First Album", units[0].AlbumTitle())
	assert.Equal(t, "Band", units[0].ArtistNames())

	track, ok := lib.Track(units[1].ID)
	require.True(t, ok)
	assert.Equal(t, 2001, track.Year)
	assert.Equal(t, 2, track.TrackNumber)

	_, err = lib.ArtistUnits("nobody")
	assert.ErrorIs(t, err, ErrUnknownArtist)
}

func TestScan_UntaggedFallsBackToFileName(t *testing.T) {
	lib := newTestLibrary(t, 50)

	var found bool
	for _, u := range lib.Units() {
		if u.Title == "untagged song" {
			found = true
			assert.Empty(t, u.Artists)
		}
	}
	assert.True(t, found)
}

func TestScan_StableIDs(t *testing.T) {
	lib := newTestLibrary(t, 50)
	before := media.IDs(lib.Units())

	_, err := lib.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, media.IDs(lib.Units()))
}

func TestScan_Canceled(t *testing.T) {
	lib := newTestLibrary(t, 50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lib.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, lib.Len())
}

func TestSource_Pagination(t *testing.T) {
	lib := newTestLibrary(t, 2)
	ctx := context.Background()

	page, err := lib.FetchFirst(ctx, listing.Seed{Kind: listing.SeedArtist, ID: "Band"})
	require.NoError(t, err)
	assert.Equal(t, "Band", page.Title)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "artist:2:Band", page.Continuation)

	next, err := lib.FetchNext(ctx, page.Continuation)
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "Closer", next.Items[0].ItemTitle())
	assert.False(t, next.HasMore())
}

func TestSource_Search(t *testing.T) {
	lib := newTestLibrary(t, 10)

	page, err := lib.FetchFirst(context.Background(), listing.Seed{Kind: listing.SeedSearch, ID: "single"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Alone", page.Items[0].ItemTitle())
}

func TestSource_Errors(t *testing.T) {
	lib := newTestLibrary(t, 10)
	ctx := context.Background()

	_, err := lib.FetchFirst(ctx, listing.Seed{Kind: listing.SeedStation, ID: "x"})
	assert.Error(t, err)

	for _, cursor := range []string{"garbage", "artist:x:Band", "station:0:x"} {
		_, err := lib.FetchNext(ctx, cursor)
		assert.True(t, listing.IsInvalidCursor(err), cursor)
	}

	page, err := lib.FetchNext(ctx, "artist:99:Band")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore())
}
