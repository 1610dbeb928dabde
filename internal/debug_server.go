package internal

import (
	"embed"
	"html/template"
	"log/slog"
	"morse-lab/contract"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
)

//go:embed debug.html
var templatesFS embed.FS

// ArchiveRow is one raw key of the badger archive, as shown on the debug page.
type ArchiveRow struct {
	Key       string
	Room      string
	Timestamp string
	EntityID  string
	Detail    string
}

type StatsProvider func() map[string]any

type PageData struct {
	Prefix  string
	Rooms   []contract.RoomSummary
	Stats   map[string]any
	Archive []ArchiveRow
}

// DebugSources feeds the debug page. DB is optional.
type DebugSources struct {
	Rooms func() []contract.RoomSummary
	Stats StatsProvider
	DB    *badger.DB
}

// NewDebugHandler serves GET /rooms, the live rooms with the technical
// counters, and the raw archive keys under ?prefix= (default "tx:") when a
// database is given. Meant to be mounted under /debug.
func NewDebugHandler(log *slog.Logger, src DebugSources) http.Handler {
	tmpl := template.Must(template.ParseFS(templatesFS, "debug.html"))
	r := chi.NewRouter()

	r.Get("/rooms", func(w http.ResponseWriter, r *http.Request) {
		data := PageData{Stats: make(map[string]any)}
		if src.Rooms != nil {
			data.Rooms = src.Rooms()
		}
		if src.Stats != nil {
			data.Stats = src.Stats()
		}
		if src.DB != nil {
			data.Prefix = r.URL.Query().Get("prefix")
			if data.Prefix == "" {
				data.Prefix = "tx:"
			}
			data.Archive = scan(log, src.DB, data.Prefix)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			log.Warn("debug page rendering failed", "error", err)
		}
	})
	return r
}

func scan(log *slog.Logger, db *badger.DB, prefix string) []ArchiveRow {
	var rows []ArchiveRow
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			rows = append(rows, ArchiveMapper(string(item.Key()), item.ValueSize()))
		}
		return nil
	})
	if err != nil {
		log.Warn("debug archive scan failed", "prefix", prefix, "error", err)
	}
	return rows
}

// ArchiveMapper splits a "tx:{room}:{unixnano}:{id}" key.
func ArchiveMapper(key string, size int64) ArchiveRow {
	parts := strings.Split(key, ":")
	row := ArchiveRow{
		Key:       key,
		Room:      "-",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Detail:    "Size: " + strconv.FormatInt(size, 10) + " bytes",
	}

	if len(parts) >= 4 {
		if room, err := url.QueryUnescape(parts[1]); err == nil {
			row.Room = room
		}
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("15:04:05")
		}
		row.EntityID = parts[3]
		if len(row.EntityID) > 8 {
			row.EntityID = row.EntityID[:8]
		}
	}
	return row
}
