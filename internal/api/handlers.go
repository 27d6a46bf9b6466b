package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"skwabl/turns/internal/auth"
	"skwabl/turns/internal/config"
	"skwabl/turns/internal/health"
	"skwabl/turns/internal/meter"
	"skwabl/turns/internal/room"
	"skwabl/turns/internal/screenws"
	"skwabl/turns/internal/store"
	"skwabl/turns/internal/turn"
)

type Handlers struct {
	cfg    config.Config
	store  *store.Store
	reg    *screenws.Registry
	bridge meter.Bridge
	clock  clockwork.Clock
	log    zerolog.Logger
}

func NewHandlers(cfg config.Config, st *store.Store, reg *screenws.Registry, bridge meter.Bridge, clock clockwork.Clock, log zerolog.Logger) *Handlers {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handlers{cfg: cfg, store: st, reg: reg, bridge: bridge, clock: clock, log: log}
}

type createRequest struct {
	Seconds int `json:"seconds"`
}

func (h *Handlers) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	seconds := h.cfg.Timer.DefaultSeconds
	if req.Seconds != 0 {
		if !turn.ValidDuration(req.Seconds) {
			http.Error(w, room.ErrInvalidDuration.Error(), http.StatusBadRequest)
			return
		}
		seconds = req.Seconds
	}

	id := uuid.New().String()
	rm := room.New(id, room.Options{
		SlotSeconds:  seconds,
		TickInterval: time.Duration(h.cfg.Timer.TickMs) * time.Millisecond,
		Clock:        h.clock,
		Publisher:    h.reg,
		Events:       h.store,
		MeterHz:      h.cfg.Meter.SampleHz,
		Logger:       h.log,
	})
	if err := h.store.CreateRoom(rm); err != nil {
		rm.Close()
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	h.store.AppendEvent(id, "room_created", map[string]any{"seconds": seconds})
	h.log.Info().Str("room_id", id).Int("seconds", seconds).Msg("room created")

	resp := map[string]any{
		"room_id":    id,
		"created_at": rm.CreatedAt,
		"state":      rm.View(),
	}
	if tok, exp, err := h.mintToken(id); err == nil {
		resp["screen_token"] = tok
		resp["screen_token_exp"] = exp
	} else if !errors.Is(err, auth.ErrNoSecret) {
		h.log.Error().Err(err).Str("room_id", id).Msg("mint screen token")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) HandleGetRoom(w http.ResponseWriter, r *http.Request, id string) {
	rm := h.store.GetRoom(id)
	if rm == nil {
		http.NotFound(w, r)
		return
	}
	info := rm.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":         info.ID,
		"created_at":      info.CreatedAt,
		"state":           rm.View(),
		"ticking":         rm.Ticking(),
		"screen_attached": h.reg.Connected(id),
	})
}

func (h *Handlers) HandleDeleteRoom(w http.ResponseWriter, r *http.Request, id string) {
	h.reg.Drop(id)
	if err := h.store.DeleteRoom(id); err != nil {
		http.NotFound(w, r)
		return
	}
	h.log.Info().Str("room_id", id).Msg("room deleted")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// HandleAction applies one screen action posted over HTTP.
func (h *Handlers) HandleAction(w http.ResponseWriter, r *http.Request, id, action string) {
	rm := h.store.GetRoom(id)
	if rm == nil {
		http.NotFound(w, r)
		return
	}
	var a room.Action
	if err := decodeBody(r, &a); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.Type = action
	v, applied, err := rm.Do(a)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, room.ErrUnknownAction) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied, "state": v})
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetRoom(id) == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": id,
		"events":  h.store.ListEvents(id),
	})
}

func (h *Handlers) HandleMintScreenToken(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetRoom(id) == nil {
		http.NotFound(w, r)
		return
	}
	tok, exp, err := h.mintToken(id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrNoSecret) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	h.store.AppendEvent(id, "screen_token_minted", map[string]any{"exp": exp})
	writeJSON(w, http.StatusOK, map[string]any{"screen_token": tok, "exp": exp})
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("verbose") == "" {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
		return
	}
	status := health.CheckAll(r.Context(), health.Deps{Bridge: h.bridge, Rooms: h.store})
	code := http.StatusOK
	if !status.OK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *Handlers) mintToken(id string) (string, int64, error) {
	exp := h.clock.Now().Add(time.Duration(h.cfg.Screen.TokenTTLMin) * time.Minute).Unix()
	tok, err := auth.GenerateScreenToken(h.cfg.Screen.TokenSecret, id, exp)
	return tok, exp, err
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
