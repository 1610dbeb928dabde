package gateway

import (
	"encoding/json"
	"log/slog"
	"morse-lab/auth"
	"morse-lab/contract"
	"morse-lab/domain/event"
	"morse-lab/morse"
	"morse-lab/repositories"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

// Routes bundles what the router serves. Signer, Archive and Debug are optional.
type Routes struct {
	Log          *slog.Logger
	WS           *Server
	Orchestrator contract.IOrchestrator
	Transcript   contract.TranscriptReader
	Archive      repositories.ITransmissionRepository
	Signer       *auth.Signer
	Debug        http.Handler
}

type MorseResponse struct {
	Text  string `json:"text"`
	Morse string `json:"morse"`
}

type ArchiveResponse struct {
	Transmissions []event.Transmitted `json:"transmissions"`
	Cursor        string              `json:"cursor,omitempty"`
}

func NewRouter(routes Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	r.Group(func(ws chi.Router) {
		if routes.Signer != nil {
			ws.Use(auth.Middleware(routes.Signer))
		}
		ws.Get("/ws/rooms/{name}", routes.WS.HandleWS)
	})

	r.Get("/morse", func(w http.ResponseWriter, r *http.Request) {
		text := r.URL.Query().Get("text")
		if strings.TrimSpace(text) == "" {
			http.Error(w, "missing text", http.StatusBadRequest)
			return
		}
		writeJSON(w, routes.Log, MorseResponse{Text: text, Morse: morse.Encode(text)})
	})

	r.Route("/rooms", func(rm chi.Router) {
		rm.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, routes.Log, routes.Orchestrator.Rooms())
		})
		rm.Get("/{name}/transcript", func(w http.ResponseWriter, r *http.Request) {
			transmissions := []event.Transmitted{}
			if routes.Transcript != nil {
				transmissions = append(transmissions, routes.Transcript.Transmissions(RoomFromPath(r))...)
			}
			writeJSON(w, routes.Log, transmissions)
		})
		if routes.Archive != nil {
			rm.Get("/{name}/archive", func(w http.ResponseWriter, r *http.Request) {
				var cursor *string
				if c := r.URL.Query().Get("cursor"); c != "" {
					cursor = &c
				}
				transmissions, next, err := routes.Archive.GetTransmissions(RoomFromPath(r), cursor)
				if err != nil {
					routes.Log.Error("archive read failed", "room", RoomFromPath(r), "error", err)
					http.Error(w, "archive unavailable", http.StatusInternalServerError)
					return
				}
				res := ArchiveResponse{Transmissions: transmissions}
				if next != nil && len(transmissions) > 0 {
					res.Cursor = *next
				}
				writeJSON(w, routes.Log, res)
			})
		}
	})

	if routes.Debug != nil {
		r.Mount("/debug", routes.Debug)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("response encoding failed", "error", err)
	}
}
