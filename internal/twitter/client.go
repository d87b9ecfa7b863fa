// Package twitter implements the post gateway against the Twitter v2 API.
package twitter

import (
	"context"
	"errors"
	"net/http"

	"github.com/dghubble/oauth1"
	twitter "github.com/g8rswimmer/go-twitter/v2"
	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/reacji-tweeter/internal/errors"
	"github.com/p-blackswan/reacji-tweeter/internal/retry"
)

const defaultHost = "https://api.twitter.com"

// Credentials is the OAuth1 user-context credential set.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// authorizer satisfies the go-twitter Authorizer interface. Request signing
// already happens in the oauth1 transport, so there is nothing to add here.
type authorizer struct{}

func (authorizer) Add(*http.Request) {}

// Client creates and deletes tweets. Transient API failures are retried here;
// callers never retry on top of this.
type Client struct {
	api    *twitter.Client
	retry  retry.Config
	logger zerolog.Logger
}

// NewClient creates a gateway with OAuth1 request signing.
func NewClient(creds Credentials, logger zerolog.Logger) *Client {
	oauthCfg := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	return newClient(oauthCfg.Client(oauth1.NoContext, token), defaultHost, logger)
}

func newClient(httpClient *http.Client, host string, logger zerolog.Logger) *Client {
	return &Client{
		api: &twitter.Client{
			Authorizer: authorizer{},
			Client:     httpClient,
			Host:       host,
		},
		retry:  retry.DefaultConfig(),
		logger: logger.With().Str("component", "twitter").Logger(),
	}
}

// CreatePost tweets the content and returns the new tweet's id.
func (c *Client) CreatePost(ctx context.Context, content string) (string, error) {
	var id string
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		resp, err := c.api.CreateTweet(ctx, twitter.CreateTweetRequest{Text: content})
		if err != nil {
			return wrapErr("creating tweet", err)
		}
		if resp == nil || resp.Tweet == nil {
			return perrors.NewAPIError("twitter", 0, "create tweet response has no data")
		}
		id = resp.Tweet.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	c.logger.Debug().Str("tweet_id", id).Msg("tweet created")
	return id, nil
}

// DeletePost deletes a tweet by id.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		if _, err := c.api.DeleteTweet(ctx, id); err != nil {
			return wrapErr("deleting tweet", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Debug().Str("tweet_id", id).Msg("tweet deleted")
	return nil
}

// wrapErr maps go-twitter errors onto APIError so retry can see the status
// code.
func wrapErr(op string, err error) error {
	var respErr *twitter.ErrorResponse
	if errors.As(err, &respErr) {
		return &perrors.APIError{
			Service:    "twitter",
			StatusCode: respErr.StatusCode,
			Message:    op + ": " + respErr.Detail,
			Err:        err,
		}
	}
	return &perrors.APIError{Service: "twitter", Message: op, Err: err}
}
