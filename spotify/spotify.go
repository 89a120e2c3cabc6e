// Package spotify wraps the handful of Spotify Web API calls the collector
// needs: market-scoped playlist search, playlist tracks, and batched artist
// lookups for genre tags.
//
// Every GET can be routed through a filesystem read-through cache keyed by
// the full request URL, so within one run (and one cache directory) each
// distinct request hits the network at most once, and the cached bodies
// double as the run's raw-data artifacts.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"marketscope/data"
	"marketscope/readthrough"
	"marketscope/request"

	"github.com/avast/retry-go"
	"golang.org/x/time/rate"
)

const (
	defaultAPIURL   = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"

	artistBatchSize = 50
	maxAttempts     = 4
)

// ErrAuth means the client credentials were rejected. There's no point
// retrying; the run should abort.
var ErrAuth = errors.New("invalid or expired spotify credentials")

// RateLimitError is returned internally on a 429 and retried after waiting
// out the server's Retry-After. It only escapes to callers once the attempt
// budget is exhausted.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by spotify; retry after %s", e.RetryAfter)
}

type serverError struct {
	status int
	url    string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("spotify returned %d for '%s'", e.status, e.url)
}

type Option func(*Client)

// WithCache routes responses through the given read-through cache.
func WithCache(rt *readthrough.ReadThrough) Option {
	return func(spo *Client) { spo.cache = rt }
}

// WithBaseURLs points the client somewhere other than the real API. Only
// tests use this.
func WithBaseURLs(apiURL, tokenURL string) Option {
	return func(spo *Client) {
		spo.apiURL = strings.TrimSuffix(apiURL, "/")
		spo.tokenURL = tokenURL
	}
}

// New creates a new Spotify client, with the given clientID and clientSecret.
func New(clientID, clientSecret string, opts ...Option) *Client {
	spo := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		apiURL:       defaultAPIURL,
		tokenURL:     defaultTokenURL,
		limiter:      rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		artists:      map[string]data.Artist{},
	}
	for _, opt := range opts {
		opt(spo)
	}
	return spo
}

type Client struct {
	mu sync.Mutex

	clientID     string
	clientSecret string

	apiURL   string
	tokenURL string

	cache   *readthrough.ReadThrough
	limiter *rate.Limiter

	accessToken string
	expiresAt   time.Time

	// per-run artist cache, so each artist is requested at most once even
	// across playlists
	artists map[string]data.Artist
}

// SearchPlaylists finds playlists for a market by running a fixed set of
// market-scoped search terms, de-duplicating by playlist ID, and keeping the
// most-followed `limit` results.
func (spo *Client) SearchPlaylists(ctx context.Context, market string, limit int) ([]data.Playlist, error) {
	terms := []string{"top hits", "popular", "top " + strings.ToLower(market)}

	seen := map[string]bool{}
	var playlists []data.Playlist
	for _, term := range terms {
		query := url.Values{}
		query.Set("q", term)
		query.Set("type", "playlist")
		query.Set("market", market)
		query.Set("limit", "10")

		resp, err := spo.get(ctx, "/search", query)
		if err != nil {
			return nil, err
		}
		var results playlistSearchResults
		dec := json.NewDecoder(resp)
		if err := dec.Decode(&results); err != nil {
			resp.Close()
			return nil, fmt.Errorf("playlist search decode error: %w", err)
		}
		resp.Close()

		for _, item := range results.Playlists.Items {
			if item.ID == "" || seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			playlists = append(playlists, data.Playlist{
				SpotifyID:   item.ID,
				Name:        item.Name,
				Description: item.Description,
				Followers:   item.Followers.Total,
				Market:      market,
			})
		}
	}

	sort.SliceStable(playlists, func(i, j int) bool {
		return playlists[i].Followers > playlists[j].Followers
	})
	if limit > 0 && len(playlists) > limit {
		playlists = playlists[:limit]
	}
	return playlists, nil
}

type playlistSearchResults struct {
	Playlists struct {
		Limit  int
		Offset int
		Total  int

		Items []struct {
			ID          string
			Name        string
			Description string
			Followers   struct {
				Total int64
			}
		}
	}
}

// FetchPlaylistTracks fetches up to limit tracks for the playlist, resolves
// each track's artists through the batched artist endpoint, and attaches the
// union of the artists' genre tags to the track.
func (spo *Client) FetchPlaylistTracks(ctx context.Context, playlistID string, limit int) ([]data.Track, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))

	resp, err := spo.get(ctx, fmt.Sprintf("/playlists/%s/tracks", playlistID), query)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	var results playlistTracksPage
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&results); err != nil {
		return nil, fmt.Errorf("playlist tracks decode error: %w", err)
	}

	var tracks []data.Track
	var artistIDs []string
	for _, item := range results.Items {
		fetched := item.Track
		if fetched.ID == "" {
			continue
		}
		artists := fetched.Artists
		if len(artists) > 3 {
			// billing order; three is plenty for genre tagging
			artists = artists[:3]
		}
		track := data.Track{
			SpotifyID:  fetched.ID,
			Name:       fetched.Name,
			AlbumName:  fetched.Album.Name,
			Popularity: fetched.Popularity,
			Explicit:   fetched.Explicit,
			DurationMS: fetched.DurationMS,
			Artists:    make([]data.Artist, 0, len(artists)),
		}
		for _, artist := range artists {
			if artist.ID == "" {
				continue
			}
			track.Artists = append(track.Artists, data.Artist{
				SpotifyID: artist.ID,
				Name:      artist.Name,
			})
			artistIDs = append(artistIDs, artist.ID)
		}
		tracks = append(tracks, track)
	}

	genres, err := spo.FetchArtists(ctx, artistIDs)
	if err != nil {
		return nil, err
	}
	for i := range tracks {
		set := map[string]bool{}
		for j, artist := range tracks[i].Artists {
			full, ok := genres[artist.SpotifyID]
			if !ok {
				continue
			}
			tracks[i].Artists[j].Genres = full.Genres
			tracks[i].Artists[j].Followers = full.Followers
			for _, genre := range full.Genres {
				set[genre] = true
			}
		}
		for genre := range set {
			tracks[i].Genres = append(tracks[i].Genres, genre)
		}
		sort.Strings(tracks[i].Genres)
	}

	return tracks, nil
}

type playlistTracksPage struct {
	Limit  int
	Offset int
	Total  int

	Items []struct {
		Track struct {
			ID         string
			Name       string
			Popularity int64
			Explicit   bool
			DurationMS int64 `json:"duration_ms"`

			Album struct {
				Name string
			}
			Artists []struct {
				ID   string
				Name string
			}
		}
	}
}

// FetchArtists resolves genre tags and follower counts for the given artist
// IDs, batching requests in fifties. Already-seen artists are answered from
// the per-run cache without a request.
func (spo *Client) FetchArtists(ctx context.Context, artistIDs []string) (map[string]data.Artist, error) {
	var uncached []string
	seen := map[string]bool{}
	for _, id := range artistIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := spo.artists[id]; !ok {
			uncached = append(uncached, id)
		}
	}

	for start := 0; start < len(uncached); start += artistBatchSize {
		end := start + artistBatchSize
		if end > len(uncached) {
			end = len(uncached)
		}

		query := url.Values{}
		query.Set("ids", strings.Join(uncached[start:end], ","))
		resp, err := spo.get(ctx, "/artists", query)
		if err != nil {
			return nil, err
		}
		var results artistsResults
		dec := json.NewDecoder(resp)
		if err := dec.Decode(&results); err != nil {
			resp.Close()
			return nil, fmt.Errorf("artists decode error: %w", err)
		}
		resp.Close()

		for _, fetched := range results.Artists {
			if fetched.ID == "" {
				continue
			}
			spo.artists[fetched.ID] = data.Artist{
				SpotifyID: fetched.ID,
				Name:      fetched.Name,
				Followers: fetched.Followers.Total,
				Genres:    fetched.Genres,
			}
		}
	}

	result := make(map[string]data.Artist, len(artistIDs))
	for id := range seen {
		if artist, ok := spo.artists[id]; ok {
			result[id] = artist
		}
	}
	return result, nil
}

type artistsResults struct {
	Artists []struct {
		ID        string
		Name      string
		Genres    []string
		Followers struct {
			Total int64
		}
	}
}

func (spo *Client) get(ctx context.Context, path string, query url.Values) (io.ReadCloser, error) {
	spo.mu.Lock()
	defer spo.mu.Unlock()

	u, err := url.Parse(spo.apiURL + path)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	u.RawQuery = query.Encode()
	key := u.String()

	if spo.cache != nil {
		if cached, _, err := spo.cache.Get(key); err == nil {
			return cached, nil
		} else if !errors.Is(err, readthrough.ErrMiss) {
			return nil, err
		}
	}

	var body io.ReadCloser
	err = retry.Do(
		func() error {
			if err := spo.limiter.Wait(ctx); err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, "GET", key, nil)
			if err != nil {
				return fmt.Errorf("request error: %w", err)
			}
			token, err := spo.token(ctx)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("request error: %w", err)
			}

			switch {
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				resp.Body.Close()
				return fmt.Errorf("fetching '%s': %w", key, ErrAuth)

			case resp.StatusCode == http.StatusTooManyRequests:
				rle := &RateLimitError{RetryAfter: retryAfter(resp)}
				resp.Body.Close()
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(rle.RetryAfter):
				}
				return rle

			case resp.StatusCode >= 500:
				resp.Body.Close()
				return &serverError{status: resp.StatusCode, url: key}
			}

			if err := request.Error(resp); err != nil {
				return fmt.Errorf("fetch error: %w", err)
			}

			body = resp.Body
			return nil
		},
		retry.Attempts(maxAttempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var rle *RateLimitError
			var srv *serverError
			if errors.As(err, &rle) || errors.As(err, &srv) {
				log.Printf("spotify errored, retrying: %v", err)
				return true
			}
			return false
		}),
	)
	if err != nil {
		return nil, err
	}

	if spo.cache != nil {
		cached, _, err := spo.cache.Set(key, body)
		if err != nil {
			return nil, err
		}
		return cached, nil
	}
	return body, nil
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		log.Printf("no retry-after header on 429; retrying in 1 minute")
		return time.Minute
	}
	seconds, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return time.Minute
	}
	return time.Duration(seconds)*time.Second + time.Second
}

type tokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (spo *Client) token(ctx context.Context) (string, error) {
	if spo.accessToken == "" || spo.expiresAt.Before(time.Now().Add(time.Second)) {
		if err := spo.fetchToken(ctx); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Bearer %s", spo.accessToken), nil
}

func (spo *Client) fetchToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, "POST", spo.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("token request error: %w", err)
	}
	up := fmt.Sprintf("%s:%s", spo.clientID, spo.clientSecret)
	credential := base64.StdEncoding.EncodeToString([]byte(up))
	req.Header.Set("Authorization", fmt.Sprintf("Basic %s", credential))
	req.Header.Set("Content-type", "application/x-www-form-urlencoded")

	requestAt := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request error: %w", err)
	}
	defer resp.Body.Close()

	// spotify answers bad client credentials with a 400
	if resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("token fetch: %w", ErrAuth)
	}
	if err := request.Error(resp); err != nil {
		return fmt.Errorf("token fetch error: %w", err)
	}

	var result tokenResult
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&result); err != nil {
		return fmt.Errorf("token decode error: %w", err)
	}

	spo.accessToken = result.AccessToken
	spo.expiresAt = requestAt.Add(time.Duration(result.ExpiresIn) * time.Second)

	return nil
}
