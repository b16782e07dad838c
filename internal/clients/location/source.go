// Package location streams device positions for the recording states. The
// stock implementation reads JSON frames from a websocket gateway; anything
// that can produce Position values can stand in for it.
package location

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/openhiking/trailmap/internal/lib/geo"
)

// State of a location source.
type State string

const (
	StateDisabled  State = "Disabled"
	StateSearching State = "Searching"
	StateTracking  State = "Tracking"
)

// DefaultAccuracyLimitMeters drops fixes too imprecise to record.
const DefaultAccuracyLimitMeters = 50.0

const reconnectDelay = 5 * time.Second

// Position is one location fix.
type Position struct {
	Latlng         geo.Point `json:"latlng"`
	AccuracyMeters float64   `json:"accuracy"`
	Heading        float64   `json:"heading"`
	Timestamp      time.Time `json:"timestamp"`
}

// Source produces a stream of location fixes.
type Source interface {
	// Start begins producing positions. It returns once the source is
	// searching; fixes arrive on Positions.
	Start(ctx context.Context) error
	// Stop ends the stream and closes Positions.
	Stop()
	State() State
	Positions() <-chan Position
}

// WebsocketSource reads position frames from a websocket gateway. It
// reconnects with a fixed delay until stopped.
type WebsocketSource struct {
	url           string
	accuracyLimit float64
	log           *zap.Logger

	mu        sync.Mutex
	state     State
	positions chan Position
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWebsocketSource creates a source reading from the given gateway URL.
func NewWebsocketSource(url string, accuracyLimit float64, log *zap.Logger) *WebsocketSource {
	if accuracyLimit <= 0 {
		accuracyLimit = DefaultAccuracyLimitMeters
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WebsocketSource{
		url:           url,
		accuracyLimit: accuracyLimit,
		log:           log,
		state:         StateDisabled,
	}
}

// Start connects to the gateway in the background.
func (s *WebsocketSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisabled {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateSearching
	s.positions = make(chan Position, 16)
	s.done = make(chan struct{})

	go s.run(runCtx)
	return nil
}

// Stop disconnects and closes the position channel.
func (s *WebsocketSource) Stop() {
	s.mu.Lock()
	if s.state == StateDisabled {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.state = StateDisabled
	close(s.positions)
	s.mu.Unlock()
}

func (s *WebsocketSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *WebsocketSource) Positions() <-chan Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions
}

func (s *WebsocketSource) run(ctx context.Context) {
	defer close(s.done)

	for {
		if err := s.readSession(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Debug("location session ended, reconnecting", zap.Error(err))
		}

		s.setState(StateSearching)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *WebsocketSource) readSession(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var pos Position
		if err := json.Unmarshal(data, &pos); err != nil {
			s.log.Debug("invalid position frame", zap.Error(err))
			continue
		}
		if !geo.IsValid(pos.Latlng) {
			continue
		}
		if pos.AccuracyMeters > s.accuracyLimit {
			// An imprecise fix means the device is still searching.
			s.setState(StateSearching)
			continue
		}

		s.setState(StateTracking)
		select {
		case s.positions <- pos:
		default:
			s.log.Debug("position buffer full, dropping fix")
		}
	}
}

func (s *WebsocketSource) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisabled {
		s.state = state
	}
}
