package repositories

import (
	"log/slog"
	"morse-lab/domain/event"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func transmissions(room string, at time.Time) []event.Transmitted {
	return []event.Transmitted{
		{ID: uuid.New(), Room: room, Callsign: "AE2GCY", Morse: "._-", WPM: 15, Frequency: 552, Frames: 20, At: at},
		{ID: uuid.New(), Room: room, Callsign: "AE2LLL", Morse: "._-_.", WPM: 20, Frequency: 879, Frames: 15, At: at.Add(time.Minute)},
		{ID: uuid.New(), Room: room, Callsign: "AE2GCY", Morse: ".", WPM: 15, Frequency: 552, Frames: 4, At: at.Add(2 * time.Minute)},
	}
}

func Test_Record_Multiple_Transmissions(t *testing.T) {
	req := require.New(t)
	repository := NewTransmissionRepository(openDB(t), slog.Default(), nil)
	at := time.Date(2026, 10, 14, 12, 0, 0, 123456789, time.UTC)
	stored := transmissions("alpha", at)
	for _, tx := range stored {
		req.NoError(repository.StoreTransmission(tx))
	}
	// another room sharing the prefix must not leak in
	req.NoError(repository.StoreTransmission(transmissions("alpha:2", at)[0]))

	fetched, cursor, err := repository.GetTransmissions("alpha", nil)

	req.NoError(err)
	req.NotNil(cursor)
	// newest first
	req.Equal([]event.Transmitted{stored[2], stored[1], stored[0]}, fetched)
}

func Test_Record_Multiple_Transmissions_With_Limit_And_Cursor(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewTransmissionRepository(openDB(t), slog.Default(), &limit)
	stored := transmissions("bravo", time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	for _, tx := range stored {
		req.NoError(repository.StoreTransmission(tx))
	}

	page, cursor, err := repository.GetTransmissions("bravo", nil)
	req.NoError(err)
	req.Len(page, limit)
	req.Equal(stored[2].ID, page[0].ID)

	next, _, err := repository.GetTransmissions("bravo", cursor)
	req.NoError(err)
	req.Len(next, 1)
	req.Equal(stored[0], next[0])
}

func Test_Unknown_Room_Is_Empty(t *testing.T) {
	req := require.New(t)
	repository := NewTransmissionRepository(openDB(t), slog.Default(), nil)

	fetched, _, err := repository.GetTransmissions("nowhere", nil)

	req.NoError(err)
	req.Empty(fetched)
}
