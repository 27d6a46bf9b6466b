package screenws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	ws "nhooyr.io/websocket"

	"skwabl/turns/internal/haptics"
	"skwabl/turns/internal/meter"
	"skwabl/turns/internal/turn"
)

const (
	sendQueueDepth = 64
	writeTimeout   = 5 * time.Second
)

// conn wraps one screen socket with an outbound queue drained by its own
// writer, so publishing never waits on the network.
type conn struct {
	c      *ws.Conn
	roomID string
	out    chan Message
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	seq int64
}

func newConn(c *ws.Conn, roomID string) *conn {
	return &conn{c: c, roomID: roomID, out: make(chan Message, sendQueueDepth), done: make(chan struct{})}
}

func (k *conn) writeLoop(log zerolog.Logger) {
	for {
		select {
		case <-k.done:
			return
		case m := <-k.out:
			b, err := json.Marshal(m)
			if err != nil {
				log.Error().Err(err).Str("type", m.Type).Msg("encode screen message")
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err = k.c.Write(ctx, ws.MessageText, b)
			cancel()
			if err != nil {
				log.Debug().Err(err).Msg("screen write failed")
				k.close(ws.StatusGoingAway, "write failed")
				return
			}
			metricMessages.WithLabelValues("out", m.Type).Inc()
		}
	}
}

func (k *conn) enqueue(typ string, payload any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	select {
	case <-k.done:
		return false
	default:
	}
	m := Message{Type: typ, TsMs: time.Now().UnixMilli(), RoomID: k.roomID, Seq: k.seq + 1, Payload: raw}
	select {
	case k.out <- m:
		k.seq = m.Seq
		return true
	default:
		metricDropped.Inc()
		return false
	}
}

func (k *conn) close(code ws.StatusCode, reason string) {
	k.once.Do(func() {
		close(k.done)
		_ = k.c.Close(code, reason)
	})
}

// Registry keeps at most one screen connection per room and publishes room
// output to it.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*conn
	log   zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{conns: make(map[string]*conn), log: log}
}

// Replace registers k for its room and closes the previous screen if present.
// The close handshake runs in the background; an idle peer can hold it for
// seconds.
func (r *Registry) Replace(k *conn) (prevClosed bool) {
	r.mu.Lock()
	old := r.conns[k.roomID]
	r.conns[k.roomID] = k
	r.mu.Unlock()
	go k.writeLoop(r.log.With().Str("room_id", k.roomID).Logger())
	if old != nil {
		go old.close(ws.StatusNormalClosure, "replaced")
		prevClosed = true
	}
	return
}

// Remove forgets k if it is still the room's screen.
func (r *Registry) Remove(k *conn) {
	r.mu.Lock()
	if r.conns[k.roomID] == k {
		delete(r.conns, k.roomID)
	}
	r.mu.Unlock()
}

// Drop closes the room's screen, if any.
func (r *Registry) Drop(roomID string) {
	r.mu.Lock()
	k := r.conns[roomID]
	delete(r.conns, roomID)
	r.mu.Unlock()
	if k != nil {
		go k.close(ws.StatusNormalClosure, "room closed")
	}
}

func (r *Registry) Connected(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[roomID] != nil
}

func (r *Registry) send(roomID, typ string, payload any) {
	r.mu.Lock()
	k := r.conns[roomID]
	r.mu.Unlock()
	if k == nil {
		return
	}
	k.enqueue(typ, payload)
}

func (r *Registry) PublishState(roomID string, v turn.View) {
	r.send(roomID, TypeState, v)
}

func (r *Registry) PublishPulse(roomID string, p haptics.Pulse) {
	r.send(roomID, TypeHaptic, hapticPayload{Kind: string(p.Kind), Ms: p.Millis()})
}

func (r *Registry) PublishLevel(roomID string, rd meter.Reading) {
	r.send(roomID, TypeLevel, rd)
}
