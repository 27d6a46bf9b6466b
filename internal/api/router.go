package api

import (
	"net/http"
	"strings"

	"github.com/rs/cors"

	"skwabl/turns/internal/room"
)

var actionPaths = map[string]string{
	"duration":    room.ActionSelectDuration,
	"reset":       room.ActionReset,
	"toggle":      room.ActionToggle,
	"interrupted": room.ActionInterrupted,
	"request":     room.ActionRequest,
	"respond":     room.ActionRespond,
}

func NewRouter(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", h.HandleHealth)

	mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.HandleCreateRoom(w, r)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/rooms/", func(w http.ResponseWriter, r *http.Request) {
		// /rooms/{id} | /rooms/{id}/{action} | /events | /screen-token
		path := strings.TrimSuffix(r.URL.Path, "/")
		rest := strings.TrimPrefix(path, "/rooms/")
		parts := strings.Split(rest, "/")
		if len(parts) == 0 || parts[0] == "" || len(parts) > 2 {
			http.NotFound(w, r)
			return
		}
		id := parts[0]

		if len(parts) == 1 {
			switch r.Method {
			case http.MethodGet:
				h.HandleGetRoom(w, r, id)
			case http.MethodDelete:
				h.HandleDeleteRoom(w, r, id)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		tail := parts[1]
		switch tail {
		case "events":
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleListEvents(w, r, id)
			return
		case "screen-token":
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.HandleMintScreenToken(w, r, id)
			return
		}

		action, ok := actionPaths[tail]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.HandleAction(w, r, id, action)
	})

	return withCORS(h.cfg.Server.AllowedOrigins, mux)
}

func withCORS(origins []string, next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(next)
}
