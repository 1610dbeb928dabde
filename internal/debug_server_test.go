package internal

import (
	"log/slog"
	"morse-lab/contract"
	"morse-lab/domain/event"
	"morse-lab/repositories"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDebugHandler_Rooms(t *testing.T) {
	req := require.New(t)
	handler := NewDebugHandler(slog.Default(), DebugSources{
		Rooms: func() []contract.RoomSummary {
			return []contract.RoomSummary{{Name: "bravo", Net: true, Host: "AE2GCY", Members: []string{"AE2GCY", "AE2LLL"}}}
		},
		Stats: func() map[string]any { return map[string]any{"transmissions": 3} },
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	req.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	req.Contains(body, "bravo")
	req.Contains(body, "AE2GCY, AE2LLL")
	req.Contains(body, "transmissions: <b>3</b>")
	req.NotContains(body, "Archive")
}

func TestDebugHandler_Archive(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	defer db.Close()
	repo := repositories.NewTransmissionRepository(db, slog.Default(), nil)
	id := uuid.New()
	req.NoError(repo.StoreTransmission(event.Transmitted{
		ID: id, Room: "the lab", Callsign: "AE2GCY", Morse: "._-",
		At: time.Date(2024, 1, 1, 10, 11, 12, 0, time.UTC),
	}))
	handler := NewDebugHandler(slog.Default(), DebugSources{DB: db})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	req.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	req.Contains(body, "No live room.")
	req.Contains(body, "10:11:12")
	req.Contains(body, "the lab")
	req.Contains(body, id.String()[:8])
}

func TestArchiveMapper(t *testing.T) {
	req := require.New(t)

	row := ArchiveMapper("tx:a%2Fb:0000000000000000000:0123456789abcdef", 12)
	req.Equal("a/b", row.Room)
	req.Equal("00:00:00", row.Timestamp)
	req.Equal("01234567", row.EntityID)
	req.Equal("Size: 12 bytes", row.Detail)

	raw := ArchiveMapper("garbage", 0)
	req.Equal("-", raw.Room)
	req.Equal("--:--:--", raw.Timestamp)
}
