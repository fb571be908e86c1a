package radio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/nstehr/pitch/pitch-core/model"
)

var (
	ErrQueueFull        = errors.New("radio queue full")
	ErrNoGameController = errors.New("game controller address unknown")
	ErrCircuitOpen      = errors.New("radio circuit open")
	ErrRateLimited      = errors.New("radio rate limited")
)

// Config is the radio section of the configuration.
type Config struct {
	TeamNumber         uint8         `json:"teamNumber" yaml:"team_number"`
	GameControllerAddr string        `json:"gameControllerAddr,omitempty" yaml:"game_controller_addr,omitempty"`
	GameControllerPort int           `json:"gameControllerPort" yaml:"game_controller_port"`
	QueueSize          int           `json:"queueSize" yaml:"queue_size"`
	Rate               int           `json:"rate" yaml:"rate"`
	Burst              int           `json:"burst" yaml:"burst"`
	BreakerThreshold   int           `json:"breakerThreshold" yaml:"breaker_threshold"`
	BreakerTimeout     time.Duration `json:"breakerTimeout" yaml:"breaker_timeout"`
}

func DefaultConfig() Config {
	return Config{
		GameControllerPort: 3939,
		QueueSize:          16,
		Rate:               5,
		Burst:              5,
		BreakerThreshold:   5,
		BreakerTimeout:     10 * time.Second,
	}
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.GameControllerPort <= 0 || c.GameControllerPort > 65535 {
		c.GameControllerPort = d.GameControllerPort
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.Rate <= 0 {
		c.Rate = d.Rate
	}
	if c.Burst <= 0 {
		c.Burst = c.Rate
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = d.BreakerThreshold
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = d.BreakerTimeout
	}
}

// Sender delivers outgoing messages over UDP. WriteToNetwork only enqueues;
// Run drains the queue on its own goroutine so the control cycle never
// waits on the network.
type Sender struct {
	cfg     Config
	conn    net.PacketConn
	queue   chan model.OutgoingMessage
	breaker circuitbreaker.CircuitBreaker[int]
	limiter ratelimit.RateLimiter
	onSend  func(error)

	mu     sync.RWMutex
	gcHost string
}

type Option func(*Sender)

// WithSendHook is called after every delivery attempt with its result.
func WithSendHook(fn func(error)) Option {
	return func(s *Sender) { s.onSend = fn }
}

// NewSender sends through conn. Close closes it.
func NewSender(cfg Config, conn net.PacketConn, opts ...Option) *Sender {
	cfg.normalize()
	threshold := cfg.BreakerThreshold
	s := &Sender{
		cfg:    cfg,
		conn:   conn,
		queue:  make(chan model.OutgoingMessage, cfg.QueueSize),
		gcHost: cfg.GameControllerAddr,
		breaker: circuitbreaker.New[int](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    cfg.BreakerTimeout,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- normalized positive
			},
		}),
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:  cfg.Rate,
			Burst: cfg.Burst,
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen opens an ephemeral UDP socket and returns a sender bound to it.
func Listen(cfg Config, opts ...Option) (*Sender, error) {
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("open radio socket: %w", err)
	}
	return NewSender(cfg, conn, opts...), nil
}

// SetGameControllerHost sets the host return messages go to.
func (s *Sender) SetGameControllerHost(host string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if host != s.gcHost {
		slog.Info("game controller address changed", "from", s.gcHost, "to", host)
		s.gcHost = host
	}
}

// ObserveMessages learns the game controller host from the newest decoded
// game controller message that carries a sender address.
func (s *Sender) ObserveMessages(history []model.TimedMessages) {
	for i := len(history) - 1; i >= 0; i-- {
		msgs := history[i].Messages
		for j := len(msgs) - 1; j >= 0; j-- {
			gc := msgs[j].GameController
			if gc == nil || gc.Sender == "" {
				continue
			}
			host := gc.Sender
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			s.SetGameControllerHost(host)
			return
		}
	}
}

func (s *Sender) destination() (net.Addr, error) {
	s.mu.RLock()
	host := s.gcHost
	s.mu.RUnlock()
	if host == "" {
		return nil, ErrNoGameController
	}
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(s.cfg.GameControllerPort)))
	if err != nil {
		return nil, fmt.Errorf("resolve game controller %q: %w", host, err)
	}
	return addr, nil
}

// WriteToNetwork queues msg for delivery without blocking.
func (s *Sender) WriteToNetwork(msg model.OutgoingMessage) error {
	select {
	case s.queue <- msg:
		return nil
	default:
		return fmt.Errorf("%w: %d pending", ErrQueueFull, cap(s.queue))
	}
}

// Run delivers queued messages until ctx is cancelled.
func (s *Sender) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.queue:
			err := s.deliver(ctx, msg)
			switch {
			case err == nil:
			case errors.Is(err, ErrNoGameController):
				slog.Debug("game controller unknown, dropping return message")
			default:
				slog.Warn("radio send failed", "error", err, "breaker", s.BreakerState())
			}
			if s.onSend != nil {
				s.onSend(err)
			}
		}
	}
}

func (s *Sender) deliver(ctx context.Context, msg model.OutgoingMessage) error {
	if msg.GameControllerReturn == nil {
		return nil
	}
	addr, err := s.destination()
	if err != nil {
		return err
	}
	if !s.limiter.Allow(ctx, "game_controller") {
		return ErrRateLimited
	}
	payload, err := EncodeReturn(*msg.GameControllerReturn, s.cfg.TeamNumber)
	if err != nil {
		return err
	}

	called := false
	_, err = s.breaker.Execute(ctx, func(ctx context.Context) (int, error) {
		called = true
		return s.conn.WriteTo(payload, addr)
	})
	if err != nil && !called {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	if err != nil {
		return fmt.Errorf("send to %s: %w", addr, err)
	}
	return nil
}

// Close closes the socket. Messages still queued are dropped.
func (s *Sender) Close() error {
	return s.conn.Close()
}

// BreakerState reports the circuit breaker state for diagnostics.
func (s *Sender) BreakerState() string {
	return s.breaker.State().String()
}
