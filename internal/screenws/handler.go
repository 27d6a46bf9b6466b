package screenws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	ws "nhooyr.io/websocket"

	"skwabl/turns/internal/auth"
	"skwabl/turns/internal/config"
	"skwabl/turns/internal/room"
	"skwabl/turns/internal/store"
	"skwabl/turns/internal/turn"
)

const readLimit = 16 << 10

type Server struct {
	Cfg   config.Config
	Store *store.Store
	Reg   *Registry
	Clock clockwork.Clock
	Log   zerolog.Logger
}

func NewServer(cfg config.Config, st *store.Store, reg *Registry, log zerolog.Logger) *Server {
	return &Server{Cfg: cfg, Store: st, Reg: reg, Clock: clockwork.NewRealClock(), Log: log}
}

func (s *Server) HandleScreenWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	roomID := q.Get("room_id")
	if roomID == "" {
		http.Error(w, "missing room_id", http.StatusBadRequest)
		return
	}
	rm := s.Store.GetRoom(roomID)
	if rm == nil {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	if s.Cfg.Screen.TokenSecret != "" {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "missing screen token", http.StatusUnauthorized)
			return
		}
		if _, _, err := auth.ValidateScreenToken(s.Cfg.Screen.TokenSecret, token, roomID, s.Clock.Now(), s.Cfg.Screen.TokenSkewSecs); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	c, err := ws.Accept(w, r, s.acceptOptions())
	if err != nil {
		s.Log.Warn().Err(err).Str("room_id", roomID).Msg("ws accept")
		return
	}
	c.SetReadLimit(readLimit)

	k := newConn(c, roomID)
	if s.Reg.Replace(k) {
		s.Store.AppendEvent(roomID, "screen_replaced", nil)
	}
	s.Store.AppendEvent(roomID, "screen_connected", nil)
	gaugeScreens.Inc()
	defer gaugeScreens.Dec()

	k.enqueue(TypeState, rm.View())

	ctx := r.Context()
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			metricMessages.WithLabelValues("in", "invalid").Inc()
			k.enqueue(TypeError, errorPayload{Code: "bad_json", Message: err.Error()})
			continue
		}
		s.handle(rm, k, msg)
	}
	k.close(ws.StatusNormalClosure, "done")
	s.Reg.Remove(k)
	s.Store.AppendEvent(roomID, "screen_disconnected", nil)
}

func (s *Server) handle(rm *room.Room, k *conn, msg Message) {
	if msg.Type == TypeHello {
		metricMessages.WithLabelValues("in", TypeHello).Inc()
		k.enqueue(TypeState, rm.View())
		return
	}
	var a room.Action
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &a); err != nil {
			metricMessages.WithLabelValues("in", "invalid").Inc()
			k.enqueue(TypeError, errorPayload{Code: "bad_payload", Message: err.Error()})
			return
		}
	}
	a.Type = msg.Type
	if _, _, err := rm.Do(a); err != nil {
		code := errorCode(err)
		label := a.Type
		if code == "unknown_type" {
			label = "invalid"
		}
		metricMessages.WithLabelValues("in", label).Inc()
		k.enqueue(TypeError, errorPayload{Code: code, Message: err.Error()})
		return
	}
	metricMessages.WithLabelValues("in", a.Type).Inc()
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrUnknownAction):
		return "unknown_type"
	case errors.Is(err, turn.ErrInvalidSpeaker):
		return "invalid_speaker"
	case errors.Is(err, room.ErrInvalidDuration):
		return "invalid_duration"
	}
	return "invalid"
}

func (s *Server) acceptOptions() *ws.AcceptOptions {
	opts := &ws.AcceptOptions{}
	for _, o := range s.Cfg.Server.AllowedOrigins {
		if o == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, u.Host)
		} else {
			opts.OriginPatterns = append(opts.OriginPatterns, o)
		}
	}
	return opts
}

// bearerToken reads the token from the Authorization header, falling back to
// the token query parameter for browsers that cannot set headers on sockets.
func bearerToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
