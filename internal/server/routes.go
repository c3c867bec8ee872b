package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ameba1399/mes-signaling/internal/signaling"
)

// Config carries the process-level knobs supplied at startup.
type Config struct {
	// AllowedOrigins lists the origins accepted for websocket
	// handshakes. Empty allows all, which is fine for local use.
	AllowedOrigins []string

	// StaticDir is the client UI directory. Empty disables static
	// serving.
	StaticDir string
}

func newUpgrader(allowed []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			return slices.Contains(allowed, r.Header.Get("Origin"))
		},
	}
}

// Routes builds the full HTTP surface: the websocket endpoint, a health
// check, and the static client UI.
func Routes(hub *signaling.Hub, cfg Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth(hub))
	mux.HandleFunc("/ws", ServeWs(hub, cfg.AllowedOrigins, logger))

	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		mux.Handle("GET /static/", http.StripPrefix("/static/", fs))
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(cfg.StaticDir, "index.html"))
		})
	}

	return withCORS(mux)
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
// The room name and display name come from the query string
// (?room=R&user=NAME); the participant id is assigned here, before the
// first message, and never changes.
func ServeWs(hub *signaling.Hub, allowedOrigins []string, logger *slog.Logger) http.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		roomName := r.URL.Query().Get("room")
		if roomName == "" {
			roomName = "default"
		}
		name := r.URL.Query().Get("user")
		if name == "" {
			name = guestName()
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		client := signaling.NewClient(uuid.NewString(), name, conn)

		go client.WritePump()
		go hub.Serve(client, roomName)
	}
}

func handleHealth(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, participants := hub.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":       "healthy",
			"rooms":        rooms,
			"participants": participants,
		})
	}
}

// withCORS applies a permissive CORS policy so the UI can be hosted
// separately from the relay.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
