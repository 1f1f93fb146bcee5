package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/gmllt/kanvan/board"
)

var (
	// ErrRemoteRejected is wrapped by every non-2xx answer of the remote.
	ErrRemoteRejected = errors.New("remote rejected request")
	// ErrNetworkUnavailable is wrapped by transport failures.
	ErrNetworkUnavailable = errors.New("remote unavailable")
	// ErrInvalidEcho means the remote accepted a create but answered with a
	// record the store cannot hold.
	ErrInvalidEcho = errors.New("remote returned an invalid card")
)

type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: remote answered %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: remote answered %d: %s", e.Op, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrRemoteRejected }

// Remote is the CRUD surface the gateway persists cards through.
type Remote interface {
	Fetch(ctx context.Context) ([]board.Card, error)
	Create(ctx context.Context, c board.Card) (board.Card, error)
	Delete(ctx context.Context, id string) error
}

// Client talks to the /tasks endpoints over HTTP.
type Client struct {
	baseURL    string
	http       *http.Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
	log        *logrus.Entry
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default client, whose timeout bounds every
// request.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithFetchRetries sets how many times a failed fetch is retried.
func WithFetchRetries(n uint64) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithFetchBackOff sets the delay policy between fetch attempts.
func WithFetchBackOff(fn func() backoff.BackOff) ClientOption {
	return func(c *Client) { c.newBackOff = fn }
}

func WithClientLogger(l *logrus.Entry) ClientOption {
	return func(c *Client) { c.log = l }
}

func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("remote base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid remote base url: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: timeout},
		maxRetries: 3,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Fetch loads every card in ambient order. Transport failures and 5xx
// answers are retried with exponential backoff; other statuses are final.
func (c *Client) Fetch(ctx context.Context) ([]board.Card, error) {
	var cards []board.Card
	op := func() error {
		var err error
		cards, err = c.fetchOnce(ctx)
		var se *StatusError
		if errors.As(err, &se) && se.Status < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		if err != nil {
			c.log.WithError(err).Warn("fetch tasks failed")
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]board.Card, error) {
	resp, err := c.do(ctx, "fetch", http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	cards := []board.Card{}
	if err := json.NewDecoder(resp.Body).Decode(&cards); err != nil {
		return nil, fmt.Errorf("fetch: decoding tasks: %w", err)
	}
	return cards, nil
}

// Create posts c and returns the remote's representation of it.
func (c *Client) Create(ctx context.Context, card board.Card) (board.Card, error) {
	body, err := json.Marshal(card)
	if err != nil {
		return board.Card{}, fmt.Errorf("create: encoding card: %w", err)
	}
	resp, err := c.do(ctx, "create", http.MethodPost, "/tasks", body)
	if err != nil {
		return board.Card{}, err
	}
	defer resp.Body.Close()
	var created board.Card
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return board.Card{}, fmt.Errorf("create: %w: decoding response: %v", ErrRemoteRejected, err)
	}
	return created, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, "delete", http.MethodDelete, "/tasks/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// do sends the request and turns transport failures and non-2xx answers
// into errors. On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.log.WithFields(logrus.Fields{"method": method, "path": path}).Debug("remote request")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrNetworkUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return resp, nil
}
