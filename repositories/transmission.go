//go:generate go run go.uber.org/mock/mockgen -source=transmission.go -destination=../mocks/mock_transmission_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"morse-lab/domain/event"
	"morse-lab/errors"
	"net/url"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type ITransmissionRepository interface {
	StoreTransmission(tx event.Transmitted) error
	GetTransmissions(room string, cursor *string) ([]event.Transmitted, *string, error)
}

type TransmissionRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int
}

func NewTransmissionRepository(db *badger.DB, log *slog.Logger, limit *int) TransmissionRepository {
	return TransmissionRepository{db: db, log: log, limit: limit}
}

// roomPrefix escapes the room name so no room's prefix is a prefix of another's.
func roomPrefix(room string) string {
	return fmt.Sprintf("tx:%s:", url.QueryEscape(room))
}

// StoreTransmission persists a transmission in BadgerDB.
// The key is formatted as "tx:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the event id as a tie breaker when two
//     transmissions happen in the same nanosecond.
func (r TransmissionRepository) StoreTransmission(tx event.Transmitted) error {
	key := fmt.Sprintf("%s%019d:%s", roomPrefix(tx.Room), tx.At.UnixNano(), tx.ID)
	value, err := toStruct(tx)
	if err != nil {
		return err
	}
	bytes, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetTransmissions returns the transmissions of room, newest first, starting
// after cursor. The returned cursor resumes where this page stopped.
func (r TransmissionRepository) GetTransmissions(room string, cursor *string) ([]event.Transmitted, *string, error) {
	var values [][]byte
	var lastKey string
	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := roomPrefix(room)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Past the newest possible key, then walk back
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[len(prefix):]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if r.limit != nil && len(values) == *r.limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d transmissions reached", *r.limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			if err := item.Value(func(value []byte) error {
				values = append(values, append([]byte(nil), value...))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	transmissions := make([]event.Transmitted, 0, len(values))
	for _, b := range values {
		var value structpb.Struct
		if err = proto.Unmarshal(b, &value); err != nil {
			return nil, nil, err
		}
		tx, err := fromStruct(&value)
		if err != nil {
			return nil, nil, err
		}
		transmissions = append(transmissions, tx)
	}
	return transmissions, &lastKey, nil
}

func toStruct(tx event.Transmitted) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":        tx.ID.String(),
		"room":      tx.Room,
		"callsign":  tx.Callsign,
		"morse":     tx.Morse,
		"wpm":       tx.WPM,
		"frequency": tx.Frequency,
		"frames":    tx.Frames,
		"at":        tx.At.UTC().Format(time.RFC3339Nano),
	})
}

func fromStruct(s *structpb.Struct) (event.Transmitted, error) {
	fields := s.GetFields()
	id, err := uuid.Parse(fields["id"].GetStringValue())
	if err != nil {
		return event.Transmitted{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	at, err := time.Parse(time.RFC3339Nano, fields["at"].GetStringValue())
	if err != nil {
		return event.Transmitted{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return event.Transmitted{
		ID:        id,
		Room:      fields["room"].GetStringValue(),
		Callsign:  fields["callsign"].GetStringValue(),
		Morse:     fields["morse"].GetStringValue(),
		WPM:       int(fields["wpm"].GetNumberValue()),
		Frequency: fields["frequency"].GetNumberValue(),
		Frames:    int(fields["frames"].GetNumberValue()),
		At:        at,
	}, nil
}
