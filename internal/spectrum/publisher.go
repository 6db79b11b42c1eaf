// Package spectrum publishes culled spectrum snapshots to browser-based UI
// clients over a websocket. It is the one externally-facing surface of the
// detector and carries no detection logic of its own.
package spectrum

import (
	"log"
	"math"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	// MaxPoints bounds a published snapshot's length.
	MaxPoints = 512
	// MaxHz is the upper frequency a snapshot ever reports.
	MaxHz = 3000.0
	// FloorDB clamps the lowest magnitude a snapshot reports.
	FloorDB = -92.0
)

// Snapshot is one culled/truncated spectrum frame.
type Snapshot struct {
	BinHz  float64   `json:"binHz"`
	Points []float32 `json:"points"`
}

type client struct {
	conn *websocket.Conn
	send chan Snapshot
	open bool
}

// Publisher fans Snapshot values out to any number of websocket clients.
// Publish never blocks on a slow or silent client; it allocates the
// snapshot it sends on every call.
type Publisher struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewPublisher builds a publisher with no connected clients.
func NewPublisher() *Publisher {
	return &Publisher{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket and registers it as a
// listener until it disconnects; its "open"/"close" messages only toggle
// whether it receives snapshots.
func (p *Publisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("spectrum: upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan Snapshot, 4)}

	p.mu.Lock()
	p.clients[c] = struct{}{}
	p.mu.Unlock()

	go p.readLoop(c)
	p.writeLoop(c)
}

// readLoop watches for the client's "open"/"close" control frames, which
// gate whether Publish actually sends it snapshots.
func (p *Publisher) readLoop(c *client) {
	defer p.remove(c)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		switch string(msg) {
		case "open":
			c.open = true
		case "close":
			c.open = false
		}
	}
}

func (p *Publisher) writeLoop(c *client) {
	for snap := range c.send {
		if !c.open {
			continue
		}
		if err := c.conn.WriteJSON(snap); err != nil {
			p.remove(c)
			return
		}
	}
}

func (p *Publisher) remove(c *client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.clients[c]; ok {
		delete(p.clients, c)
		close(c.send)
		c.conn.Close()
	}
}

// Publish culls a raw power spectrum (as produced by dsp.RingFFT.Power)
// down to the published snapshot shape and fans it out to every
// open client, dropping the frame for any client whose send buffer is
// full rather than blocking the caller.
func (p *Publisher) Publish(power []float64, binHz float64) {
	maxBin := int(MaxHz / binHz)
	if maxBin > len(power) {
		maxBin = len(power)
	}
	step := 1
	if maxBin > MaxPoints {
		step = (maxBin + MaxPoints - 1) / MaxPoints
	}

	points := make([]float32, 0, MaxPoints)
	for i := 0; i < maxBin; i += step {
		db := float32(FloorDB)
		if power[i] > 0 {
			v := float32(10 * math.Log10(power[i]))
			if v > FloorDB {
				db = v
			}
		}
		points = append(points, db)
	}
	snap := Snapshot{BinHz: binHz * float64(step), Points: points}

	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.clients {
		select {
		case c.send <- snap:
		default:
		}
	}
}
