package birdsy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	bhttp "birdsync/http"
	"birdsync/internal/retry"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production service root.
const DefaultBaseURL = "https://birdsy.com"

// API paths relative to the base URL.
const (
	authPath     = "/api/v1/auth"
	daysPath     = "/api/v2/episodes/days"
	episodesPath = "/api/v2/episodes"
	deletePath   = "/api/v2/episodes/group_actions/delete"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the service root (default DefaultBaseURL).
	BaseURL string
	// HTTP is the transport; nil builds one with bhttp.DefaultConfig.
	HTTP *bhttp.Client
	// MaxPageAttempts bounds how often one listing page is requested (default 3).
	MaxPageAttempts int
	// PagePause is the delay between attempts on the same page (default 500ms).
	PagePause time.Duration
	// Logger receives per-page diagnostics; the zero value discards them.
	Logger zerolog.Logger
}

// Client talks to the Birdsy API. It holds no session state: the token
// returned by Authenticate is passed to every call.
type Client struct {
	baseURL string
	http    *bhttp.Client
	pages   retry.Config
	log     zerolog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTP
	if hc == nil {
		hc = bhttp.New(nil)
	}
	pages := retry.DefaultConfig()
	if opts.MaxPageAttempts > 0 {
		pages.MaxAttempts = opts.MaxPageAttempts
	}
	if opts.PagePause > 0 {
		pages.Pause = opts.PagePause
	}

	return &Client{
		baseURL: base,
		http:    hc,
		pages:   pages,
		log:     opts.Logger,
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// authHeaders returns the headers of an authenticated call. The service
// expects the raw token in the authorization header, without a scheme.
func authHeaders(token string) map[string]string {
	return map[string]string{"authorization": token}
}

// Authenticate exchanges credentials for a session token. Every failure wraps
// ErrAuthFailed; nothing is retried.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	req := authRequest{
		Email:     email,
		GrantType: "password",
		Password:  password,
	}

	var resp authResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, c.url(authPath), req, &resp, nil); err != nil {
		return "", wrap("auth", fmt.Errorf("%w: %w", ErrAuthFailed, err))
	}

	token := resp.Data.Attributes.Token
	if token == "" {
		return "", wrap("auth", fmt.Errorf("%w: response carried no token", ErrAuthFailed))
	}
	return token, nil
}

// DeleteEpisode removes one episode from the remote catalog.
func (c *Client) DeleteEpisode(ctx context.Context, token string, id EpisodeID) error {
	req := deleteRequest{IDs: []EpisodeID{id}}
	if err := c.http.DoJSON(ctx, http.MethodPost, c.url(deletePath), req, nil, authHeaders(token)); err != nil {
		return wrap("delete", err)
	}
	return nil
}

// Fetch streams the artifact at url (a thumbnail or video link from an
// Episode) into w. Artifact links are pre-signed, so no token is sent.
func (c *Client) Fetch(ctx context.Context, url string, w io.Writer) (int64, error) {
	if url == "" {
		return 0, wrap("fetch", errors.New("empty artifact url"))
	}
	n, err := c.http.Stream(ctx, url, w, nil)
	if err != nil {
		return n, wrap("fetch", err)
	}
	return n, nil
}
