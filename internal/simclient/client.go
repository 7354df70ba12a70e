// Package simclient streams race snapshots from a simulator server.
package simclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/bcdxn/f1sim/internal/domain"
	"github.com/coder/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// New returns a new simulator stream Client.
func New(opts ...ClientOption) *Client {
	// create a default instance of the client
	c := &Client{
		raceCh:      make(chan domain.Snapshot),
		incidentsCh: make(chan []domain.IncidentSnapshot),
		doneCh:      make(chan error, 1),
		logger:      slog.Default(),
		baseURL:     "ws://localhost:8080",
		session:     "default",
	}
	// apply given options
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Client struct {
	// internal state
	lastIncident time.Time
	// channels
	raceCh      chan domain.Snapshot
	incidentsCh chan []domain.IncidentSnapshot
	doneCh      chan error
	// simulator server configuration
	baseURL  string
	session  string
	interval time.Duration
	reset    bool
	// logger
	logger *slog.Logger
}

/* Client Optional Functional Parameters
------------------------------------------------------------------------------------------------- */

type ClientOption = func(c *Client)

// WithBaseURL configures the websocket URL of the simulator server, e.g. ws://localhost:8080.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithSession configures the session key to stream.
func WithSession(key string) ClientOption {
	return func(c *Client) { c.session = key }
}

// WithInterval asks the server to advance one lap per interval.
func WithInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.interval = d }
}

// WithReset asks the server to start a fresh race when the stream opens.
func WithReset() ClientOption {
	return func(c *Client) { c.reset = true }
}

// WithLogger configures the logger to use within the client.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

/* Client API
------------------------------------------------------------------------------------------------- */

// Race exposes the race channel as read-only; a full snapshot of the race can be read from this
// channel after every simulated lap.
func (c *Client) Race() <-chan domain.Snapshot {
	return c.raceCh
}

// Incidents exposes the incidents channel as read-only; incidents that were not part of a previous
// snapshot are written to this channel, oldest first.
func (c *Client) Incidents() <-chan []domain.IncidentSnapshot {
	return c.incidentsCh
}

// Done allows the client to signal to the caller that it has exited; this can happen if an error
// occurs or if the websocket connection is closed by the server. The channel is closed on exit.
func (c *Client) Done() <-chan error {
	return c.doneCh
}

// Listen connects to the stream and publishes snapshots until ctx is cancelled or the server
// closes the connection.
func (c *Client) Listen(ctx context.Context) {
	defer close(c.doneCh)

	u, err := c.streamURL()
	if err != nil {
		c.logger.Error("error building websocket URL", "err", err)
		c.doneCh <- err
		return
	}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		c.logger.Error("error dialing websocket", "err", err.Error())
		c.doneCh <- err
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 20)

	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				conn.Close(websocket.StatusNormalClosure, "client closed")
			} else {
				c.doneCh <- err
			}
			return
		}
		// No errors, process the message from the simulator
		c.processMessage(ctx, msg)
	}
}

/* Private Helper Functions
------------------------------------------------------------------------------------------------- */

// streamURL builds the URL of the stream endpoint with the configured query parameters.
func (c *Client) streamURL() (*url.URL, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := url.Values{"session": {c.session}}
	if c.interval > 0 {
		q.Set("interval", c.interval.String())
	}
	if c.reset {
		q.Set("reset", "true")
	}
	return &url.URL{
		Scheme:   u.Scheme,
		Host:     u.Host,
		Path:     "/api/simulation/stream",
		RawQuery: q.Encode(),
	}, nil
}

// processMessage decodes a snapshot and writes it, and any new incidents, to the client channels.
func (c *Client) processMessage(ctx context.Context, msg []byte) {
	var snap domain.Snapshot
	if err := json.Unmarshal(msg, &snap); err != nil {
		c.logger.Warn("snapshot msg in unknown format", "err", err, "msg", string(msg))
		return
	}
	c.logger.Debug("received snapshot", "lap", snap.CurrentLap, "finished", snap.Finished)

	select {
	case c.raceCh <- snap:
	case <-ctx.Done():
		return
	}

	fresh := c.newIncidents(snap.Incidents)
	if len(fresh) == 0 {
		return
	}
	select {
	case c.incidentsCh <- fresh:
	case <-ctx.Done():
	}
}

// newIncidents returns the incidents stamped after the newest one seen so far.
func (c *Client) newIncidents(incidents []domain.IncidentSnapshot) []domain.IncidentSnapshot {
	fresh := make([]domain.IncidentSnapshot, 0, len(incidents))
	for _, inc := range incidents {
		if inc.Timestamp.After(c.lastIncident) {
			fresh = append(fresh, inc)
		}
	}
	if len(fresh) > 0 {
		c.lastIncident = fresh[len(fresh)-1].Timestamp
	}
	return fresh
}
