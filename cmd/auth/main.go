// Package main provides the Spotify refresh token helper.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/innerbeat/internal/infra/logger"
	"github.com/osa030/innerbeat/internal/infra/spotify"
)

var (
	app          = kingpin.New("innerbeat-auth", "Obtain a Spotify refresh token for innerbeat")
	clientID     = app.Flag("client-id", "Spotify Client ID").Envar("SPOTIFY_CLIENT_ID").Required().String()
	clientSecret = app.Flag("client-secret", "Spotify Client Secret").Envar("SPOTIFY_CLIENT_SECRET").Required().String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()
	sourceName   = app.Flag("source", "Source name used in the printed config snippet").Default("spotify").String()
	timeout      = app.Flag("timeout", "How long to wait for authorization").Default("5m").Duration()
)

var donePage = template.Must(template.New("done").Parse(`<!DOCTYPE html>
<html>
<head><title>innerbeat</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh;">
  <h1>{{.}}</h1>
  <p>You can close this window and return to the terminal.</p>
</body>
</html>
`))

type callbackResult struct {
	token *oauth2.Token
	err   error
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	closer, err := logger.Init(logger.Config{Output: "stdout", Level: "info"})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	state, err := newState()
	if err != nil {
		zlog.Fatal().Msgf("Failed to generate state: %v", err)
	}

	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(fmt.Sprintf("http://127.0.0.1:%d/callback", *port)),
		spotifyauth.WithClientID(*clientID),
		spotifyauth.WithClientSecret(*clientSecret),
		spotifyauth.WithScopes(spotify.Scopes...),
	)

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if st := r.FormValue("state"); st != state {
			http.Error(w, "State mismatch", http.StatusForbidden)
			zlog.Warn().Msgf("State mismatch: %s", st)
			return
		}
		token, err := auth.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "Failed to get token", http.StatusForbidden)
			results <- callbackResult{err: err}
			return
		}
		_ = donePage.Execute(w, "Authorization Complete")
		results <- callbackResult{token: token}
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", *port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Msgf("Failed to start callback server: %v", err)
		}
	}()

	fmt.Println("Please visit the following URL to authorize innerbeat:")
	fmt.Println()
	fmt.Println(auth.AuthURL(state))
	fmt.Println()
	fmt.Println("Waiting for authorization...")

	var res callbackResult
	select {
	case res = <-results:
	case <-time.After(*timeout):
		res.err = fmt.Errorf("no callback within %s", *timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error().Msgf("Failed to shutdown callback server: %v", err)
	}

	if res.err != nil {
		zlog.Fatal().Msgf("Authorization failed: %v", res.err)
	}
	printToken(res.token.RefreshToken)
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func printToken(refreshToken string) {
	fmt.Println()
	fmt.Println("=== Authorization Successful ===")
	fmt.Println()
	fmt.Println("Add this source to your server config:")
	fmt.Println()
	fmt.Println("sources:")
	fmt.Printf("  - name: %s\n", *sourceName)
	fmt.Println("    type: spotify")
	fmt.Println("    settings:")
	fmt.Printf("      client_id: %q\n", *clientID)
	fmt.Println("      client_secret: \"...\"")
	fmt.Printf("      refresh_token: %q\n", refreshToken)
	fmt.Println()
	fmt.Println("Or set as environment variable:")
	fmt.Printf("export SPOTIFY_REFRESH_TOKEN=%q\n", refreshToken)
}
