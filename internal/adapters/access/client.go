package access

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/replayrelay/internal/domain"
)

var ErrNoAccessURL = errors.New("access response carried no accessUrl")

const accessPath = "/replay/access"

// Client fetches signed replay-server URLs from the API using the session
// bearer token.
type Client struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	HTTP    *http.Client
}

type accessResponse struct {
	AccessURL string `json:"accessUrl"`
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) Fetch(ctx context.Context, sid domain.SessionID) (domain.AccessGrant, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	url := strings.TrimRight(c.BaseURL, "/") + accessPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.AccessGrant{}, fmt.Errorf("build access request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domain.AccessGrant{}, fmt.Errorf("fetch replay access: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.AccessGrant{}, fmt.Errorf("fetch replay access: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var ar accessResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return domain.AccessGrant{}, fmt.Errorf("decode replay access: %w", err)
	}
	if ar.AccessURL == "" {
		return domain.AccessGrant{}, ErrNoAccessURL
	}

	log.Debug().Str("module", "access").Str("session", string(sid)).Msg("replay access granted")
	return domain.AccessGrant{URL: ar.AccessURL, SessionID: sid}, nil
}
