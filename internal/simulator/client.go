package simulator

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/toritoma/playbridge/internal/logging"
	"github.com/toritoma/playbridge/internal/session"
)

// Poster runs fn on the host's sequencing context.
type Poster interface {
	Post(fn func()) bool
}

// Connect outcome kinds.
const (
	ConnectOK      = "ok"
	ConnectSuspend = "suspend"
	ConnectFail    = "fail"
)

// ConnectOutcome is what one Connect call resolves to.
type ConnectOutcome struct {
	Kind          string `mapstructure:"kind"`
	HasResolution bool   `mapstructure:"has_resolution"`
	ErrorCode     int    `mapstructure:"error_code"`
	Cause         int    `mapstructure:"cause"`
}

// Validate checks that the outcome kind is known.
func (o ConnectOutcome) Validate() error {
	switch o.Kind {
	case ConnectOK, ConnectSuspend, ConnectFail:
		return nil
	default:
		return fmt.Errorf("unknown connect outcome %q (want ok, suspend or fail)", o.Kind)
	}
}

func (o ConnectOutcome) String() string {
	switch o.Kind {
	case ConnectFail:
		return fmt.Sprintf("fail(code=%d, resolution=%t)", o.ErrorCode, o.HasResolution)
	case ConnectSuspend:
		return fmt.Sprintf("suspend(cause=%d)", o.Cause)
	default:
		return o.Kind
	}
}

// Client is a scripted session.Client. Each Connect consumes the next
// outcome from the script; once the script is exhausted connects succeed.
// Callbacks are posted onto the looper, never delivered inline.
type Client struct {
	poster Poster
	logger *logging.Logger

	mu          sync.Mutex
	callbacks   session.ConnectionCallbacks
	script      []ConnectOutcome
	connecting  bool
	connected   bool
	connects    int
	merged      int
	disconnects int
	generation  int
}

// NewClient creates a Client that resolves connects according to script.
func NewClient(poster Poster, script []ConnectOutcome, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Client{
		poster: poster,
		script: append([]ConnectOutcome(nil), script...),
		logger: logger.WithPhase("sim-client"),
	}
}

// Register implements session.Client.
func (c *Client) Register(callbacks session.ConnectionCallbacks) {
	c.mu.Lock()
	c.callbacks = callbacks
	c.mu.Unlock()
}

// Enqueue appends outcomes to the script.
func (c *Client) Enqueue(outcomes ...ConnectOutcome) {
	c.mu.Lock()
	c.script = append(c.script, outcomes...)
	c.mu.Unlock()
}

// Connect implements session.Client.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.connecting || c.connected {
		c.merged++
		c.mu.Unlock()
		c.logger.Debug("connect merged", "connecting", c.IsConnecting())
		return
	}
	outcome := ConnectOutcome{Kind: ConnectOK}
	if len(c.script) > 0 {
		outcome = c.script[0]
		c.script = c.script[1:]
	}
	c.connecting = true
	c.connects++
	gen := c.generation
	c.mu.Unlock()

	c.logger.Debug("connect started", "outcome", outcome.String())
	c.poster.Post(func() { c.deliver(gen, outcome) })
}

func (c *Client) deliver(gen int, outcome ConnectOutcome) {
	c.mu.Lock()
	if gen != c.generation || !c.connecting {
		c.mu.Unlock()
		c.logger.Debug("stale connect result dropped", "outcome", outcome.String())
		return
	}
	c.connecting = false
	c.connected = outcome.Kind == ConnectOK
	cb := c.callbacks
	c.mu.Unlock()

	if cb == nil {
		return
	}
	switch outcome.Kind {
	case ConnectOK:
		cb.OnConnected()
	case ConnectSuspend:
		cb.OnConnectionSuspended(outcome.Cause)
	case ConnectFail:
		cb.OnConnectionFailed(outcome.HasResolution, outcome.ErrorCode)
	}
}

// Suspend drops a live connection and reports the suspension.
func (c *Client) Suspend(cause int) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	cb := c.callbacks
	c.mu.Unlock()

	if !wasConnected {
		c.logger.Debug("suspend ignored: not connected")
		return
	}
	c.poster.Post(func() {
		if cb != nil {
			cb.OnConnectionSuspended(cause)
		}
	})
}

// Disconnect implements session.Client. Results of in-flight connects are
// discarded.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.connecting = false
	c.connected = false
	c.disconnects++
	c.generation++
	c.mu.Unlock()
}

// IsConnecting implements session.Client.
func (c *Client) IsConnecting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connecting
}

// IsConnected implements session.Client.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Stats reports how many connects were started, merged and how many
// disconnects were issued.
func (c *Client) Stats() (connects, merged, disconnects int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects, c.merged, c.disconnects
}

// ParseConnectOutcome parses the short form used on the command line:
// "ok", "suspend[:cause]", "fail:code" or "fail:code:resolvable".
func ParseConnectOutcome(s string) (ConnectOutcome, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	o := ConnectOutcome{Kind: strings.ToLower(parts[0])}
	if err := o.Validate(); err != nil {
		return ConnectOutcome{}, err
	}

	switch o.Kind {
	case ConnectSuspend:
		if len(parts) > 1 {
			cause, err := strconv.Atoi(parts[1])
			if err != nil {
				return ConnectOutcome{}, fmt.Errorf("invalid suspend cause %q", parts[1])
			}
			o.Cause = cause
		}
	case ConnectFail:
		if len(parts) < 2 {
			return ConnectOutcome{}, fmt.Errorf("fail outcome needs an error code: %q", s)
		}
		code, err := strconv.Atoi(parts[1])
		if err != nil {
			return ConnectOutcome{}, fmt.Errorf("invalid error code %q", parts[1])
		}
		o.ErrorCode = code
		if len(parts) > 2 {
			if parts[2] != "resolvable" {
				return ConnectOutcome{}, fmt.Errorf("unknown fail flag %q", parts[2])
			}
			o.HasResolution = true
		}
	}
	return o, nil
}
