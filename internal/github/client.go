// Package github talks to the GitHub GraphQL API on behalf of one token.
package github

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// DefaultEndpoint is the public GraphQL endpoint
const DefaultEndpoint = "https://api.github.com/graphql"

const defaultHTTPTimeout = 30 * time.Second

// Client issues GraphQL requests with one identity
type Client struct {
	v4  *githubv4.Client
	log zerolog.Logger
}

// NewClient creates a client authenticating with token
func NewClient(ctx context.Context, endpoint, token string, log zerolog.Logger) *Client {
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	hc.Timeout = defaultHTTPTimeout
	return NewClientWithHTTP(endpoint, hc, log)
}

// NewClientWithHTTP creates a client over an already authenticated http.Client
func NewClientWithHTTP(endpoint string, hc *http.Client, log zerolog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		v4:  githubv4.NewEnterpriseClient(endpoint, hc),
		log: log.With().Str("component", "github").Logger(),
	}
}

func (c *Client) query(ctx context.Context, op string, q interface{}, vars map[string]interface{}) error {
	start := time.Now()
	err := c.v4.Query(ctx, q, vars)
	c.log.Debug().Str("op", op).Dur("duration", time.Since(start)).Err(err).Msg("GraphQL query")
	return err
}

func (c *Client) mutate(ctx context.Context, op string, m interface{}, input githubv4.Input) error {
	start := time.Now()
	err := c.v4.Mutate(ctx, m, input, nil)
	c.log.Debug().Str("op", op).Dur("duration", time.Since(start)).Err(err).Msg("GraphQL mutation")
	return err
}
