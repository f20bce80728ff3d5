// Package main provides the player CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/innerbeat/internal/api/connect"
	playerv1 "github.com/osa030/innerbeat/internal/api/playerv1"
	"github.com/osa030/innerbeat/internal/api/playerv1/playerv1connect"
)

var (
	app    = kingpin.New("innerbeat-playercli", "innerbeat player client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("INNERBEAT_SERVER").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	statusCmd = app.Command("status", "Show the player status")

	playCmd  = app.Command("play", "Play a remote listing")
	playSeed = playCmd.Arg("seed", `Seed descriptor, e.g. "station:VIDEO_ID" or "spotify/playlist:ID"`).Required().String()

	playArtistCmd     = app.Command("play-artist", "Play the songs of a library artist")
	playArtistName    = playArtistCmd.Arg("artist", "Artist name").Required().String()
	playArtistShuffle = playArtistCmd.Flag("shuffle", "Shuffle the songs").Bool()

	browseCmd    = app.Command("browse", "Browse a source page and print playable seeds")
	browseID     = browseCmd.Arg("id", "Browse ID, e.g. FEmusic_moods_and_genres_category (default: home feed)").String()
	browseSource = browseCmd.Flag("source", "Source name (default: the default source)").String()
	browseParams = browseCmd.Flag("params", "Opaque browse parameters").String()

	artistsCmd = app.Command("artists", "List library artists")
	sourcesCmd = app.Command("sources", "List listing sources")

	historyCmd   = app.Command("history", "Show recently played tracks")
	historyLimit = historyCmd.Flag("limit", "Number of entries").Default("20").Int32()

	moreCmd     = app.Command("more", "Load the next page of the queue")
	pauseCmd    = app.Command("pause", "Pause playback")
	resumeCmd   = app.Command("resume", "Resume playback")
	skipCmd     = app.Command("skip", "Skip the current track")
	previousCmd = app.Command("previous", "Restart or go back to the previous track").Alias("prev")
	stopCmd     = app.Command("stop", "Stop playback")

	seekCmd   = app.Command("seek", "Play the loaded track at an index")
	seekIndex = seekCmd.Arg("index", "Track index").Required().Int32()

	watchCmd = app.Command("watch", "Watch player notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := playerv1connect.NewPlayerServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewAdminTokenClientInterceptor(*token)),
	)

	ctx := context.Background()

	switch command {
	case statusCmd.FullCommand():
		status(ctx, client)
	case playCmd.FullCommand():
		play(ctx, client, *playSeed)
	case playArtistCmd.FullCommand():
		playArtist(ctx, client, *playArtistName, *playArtistShuffle)
	case browseCmd.FullCommand():
		browse(ctx, client, *browseSource, *browseID, *browseParams)
	case artistsCmd.FullCommand():
		listArtists(ctx, client)
	case sourcesCmd.FullCommand():
		listSources(ctx, client)
	case historyCmd.FullCommand():
		history(ctx, client, *historyLimit)
	case moreCmd.FullCommand():
		loadMore(ctx, client)
	case pauseCmd.FullCommand():
		control(client.Pause(ctx, connect.NewRequest(&playerv1.ControlRequest{})))
	case resumeCmd.FullCommand():
		control(client.Resume(ctx, connect.NewRequest(&playerv1.ControlRequest{})))
	case skipCmd.FullCommand():
		control(client.Skip(ctx, connect.NewRequest(&playerv1.ControlRequest{})))
	case previousCmd.FullCommand():
		control(client.Previous(ctx, connect.NewRequest(&playerv1.ControlRequest{})))
	case stopCmd.FullCommand():
		control(client.Stop(ctx, connect.NewRequest(&playerv1.ControlRequest{})))
	case seekCmd.FullCommand():
		control(client.Seek(ctx, connect.NewRequest(&playerv1.SeekRequest{Index: *seekIndex})))
	case watchCmd.FullCommand():
		watch(ctx, client)
	}
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}

func status(ctx context.Context, client playerv1connect.PlayerServiceClient) {
	resp, err := client.GetStatus(ctx, connect.NewRequest(&playerv1.GetStatusRequest{}))
	if err != nil {
		fail(err)
	}
	printStatus(resp.Msg.Status)
}

func play(ctx context.Context, client playerv1connect.PlayerServiceClient, seed string) {
	resp, err := client.PlaySeed(ctx, connect.NewRequest(&playerv1.PlaySeedRequest{Seed: seed}))
	if err != nil {
		fail(err)
	}
	printStatus(resp.Msg.Status)
}

func playArtist(ctx context.Context, client playerv1connect.PlayerServiceClient, artist string, shuffle bool) {
	resp, err := client.PlayArtist(ctx, connect.NewRequest(&playerv1.PlayArtistRequest{
		Artist:  artist,
		Shuffle: shuffle,
	}))
	if err != nil {
		fail(err)
	}
	printStatus(resp.Msg.Status)
}

func browse(ctx context.Context, client playerv1connect.PlayerServiceClient, source, id, params string) {
	resp, err := client.Browse(ctx, connect.NewRequest(&playerv1.BrowseRequest{
		Source:   source,
		BrowseID: id,
		Params:   params,
	}))
	if err != nil {
		fail(err)
	}
	title := resp.Msg.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Printf("=== %s [%s] ===\n", title, resp.Msg.Source)
	for _, sec := range resp.Msg.Sections {
		fmt.Printf("\n%s:\n", sec.Title)
		for _, it := range sec.Items {
			line := fmt.Sprintf("  %-8s %s", it.Kind, it.Title)
			if it.Subtitle != "" {
				line += " - " + it.Subtitle
			}
			if it.Seed != "" {
				line += fmt.Sprintf("  [%s]", it.Seed)
			}
			fmt.Println(line)
		}
	}
}

func listArtists(ctx context.Context, client playerv1connect.PlayerServiceClient) {
	resp, err := client.ListArtists(ctx, connect.NewRequest(&playerv1.ListArtistsRequest{}))
	if err != nil {
		fail(err)
	}
	fmt.Printf("Artists (%d):\n", len(resp.Msg.Artists))
	for _, a := range resp.Msg.Artists {
		fmt.Printf("  %s\n", a)
	}
}

func listSources(ctx context.Context, client playerv1connect.PlayerServiceClient) {
	resp, err := client.ListSources(ctx, connect.NewRequest(&playerv1.ListSourcesRequest{}))
	if err != nil {
		fail(err)
	}
	fmt.Printf("Sources (%d):\n", len(resp.Msg.Sources))
	for _, s := range resp.Msg.Sources {
		def := ""
		if s.Default {
			def = " (default)"
		}
		fmt.Printf("  %-20s - %s%s\n", s.Name, s.Type, def)
	}
}

func history(ctx context.Context, client playerv1connect.PlayerServiceClient, limit int32) {
	resp, err := client.GetHistory(ctx, connect.NewRequest(&playerv1.GetHistoryRequest{Limit: limit}))
	if err != nil {
		fail(err)
	}
	fmt.Printf("History (%d):\n", len(resp.Msg.Entries))
	for _, e := range resp.Msg.Entries {
		playedAt := "-"
		if !e.PlayedAt.IsZero() {
			playedAt = e.PlayedAt.Local().Format(time.DateTime)
		}
		fmt.Printf("  %s  %s\n", playedAt, formatTrack(e.Track))
	}
}

func loadMore(ctx context.Context, client playerv1connect.PlayerServiceClient) {
	resp, err := client.LoadMore(ctx, connect.NewRequest(&playerv1.LoadMoreRequest{}))
	if err != nil {
		fail(err)
	}
	fmt.Printf("Appended %d tracks (more pages: %v)\n", resp.Msg.Appended, resp.Msg.HasNextPage)
}

func control(resp *connect.Response[playerv1.ControlResponse], err error) {
	if err != nil {
		fail(err)
	}
	if !resp.Msg.Success {
		fmt.Printf("Failed: %s\n", resp.Msg.Message)
		return
	}
	fmt.Println(resp.Msg.Message)
}

func watch(ctx context.Context, client playerv1connect.PlayerServiceClient) {
	stream, err := client.Watch(ctx, connect.NewRequest(&playerv1.WatchRequest{}))
	if err != nil {
		fail(err)
	}

	fmt.Println("Watching notifications. Press Ctrl+C to exit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		os.Exit(0)
	}()

	for stream.Receive() {
		printNotification(stream.Msg())
	}

	if err := stream.Err(); err != nil {
		fmt.Printf("Stream error: %v\n", err)
	}
}

func printNotification(n *playerv1.Notification) {
	fmt.Printf("\n[Sequence: %d] === %s ===\n", n.SequenceNo, strings.ToUpper(string(n.Type)))
	fmt.Printf("  Generation: %d  Index: %d  State: %s\n", n.Generation, n.Index, formatState(n.State))
	if n.Track != nil {
		fmt.Printf("  Track: %s\n", formatTrack(n.Track))
	}
	if n.Status != nil && n.Type == playerv1.NotificationTypeInitialState {
		printStatus(n.Status)
	}
}

func printStatus(s *playerv1.Status) {
	if s == nil {
		return
	}
	fmt.Println("\n=== PLAYER STATUS ===")
	fmt.Printf("Session ID: %s\n", s.SessionID)
	fmt.Printf("Queue: %s (generation %d)\n", s.Title, s.Generation)
	if s.Seed != "" {
		fmt.Printf("Seed: %s\n", s.Seed)
	}
	fmt.Printf("State: %s\n", formatState(s.State))
	fmt.Printf("Loaded: %d tracks, more pages: %v", len(s.Items), s.HasNextPage)
	if s.Loading {
		fmt.Print(" (loading)")
	}
	fmt.Println()

	if s.Index >= 0 && int(s.Index) < len(s.Items) {
		cur := s.Items[s.Index]
		fmt.Printf("\nCurrently Playing [%d]:\n", s.Index)
		fmt.Printf("  %s\n", formatTrack(cur))
		fmt.Printf("  Position: %s / %s\n", formatMs(s.PositionMs), formatMs(cur.DurationMs))
	} else {
		fmt.Println("\nNo track currently playing")
	}

	if next := int(s.Index) + 1; next < len(s.Items) {
		fmt.Println("\nUp Next:")
		for i := next; i < len(s.Items) && i < next+5; i++ {
			fmt.Printf("  [%d] %s\n", i, formatTrack(s.Items[i]))
		}
	}
	fmt.Println()
}

func formatTrack(t *playerv1.Track) string {
	if t == nil {
		return "-"
	}
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	s := t.Title
	if len(names) > 0 {
		s += " - " + strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s (%s)", s, t.ID)
}

func formatMs(ms int64) string {
	if ms <= 0 {
		return "--:--"
	}
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func formatState(state string) string {
	switch state {
	case "playing":
		return "▶️  Playing"
	case "paused":
		return "⏸  Paused"
	case "waiting":
		return "⏳ Waiting for the next page"
	case "idle":
		return "⏹  Idle"
	default:
		return "❓ Unknown"
	}
}
