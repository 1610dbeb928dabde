package sink

import (
	"bytes"
	"context"
	"log/slog"
	"morse-lab/domain/event"
	"morse-lab/mocks"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDiskSink_ArchivesTransmissionsOnly(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockITransmissionRepository(ctrl)
	tx := event.Transmitted{ID: uuid.New(), Room: "alpha", Callsign: "AE2GCY", Morse: "._-"}

	// Expect exactly one write, for the transmission
	repository.EXPECT().StoreTransmission(tx).Return(nil).Times(1)
	sink := NewDiskSink(repository, slog.Default())

	req.NoError(sink.Consume(context.Background(), tx))
	req.NoError(sink.Consume(context.Background(), event.MemberJoined{Room: "alpha", Callsign: "AE2GCY"}))
	req.NoError(sink.Consume(context.Background(), event.Notice{Room: "alpha", To: "1:2", Text: "hi"}))
}

func TestLogSink(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	req.NoError(NewLogSink(log).Consume(context.Background(), event.RoomClosed{Room: "alpha"}))

	req.Contains(buf.String(), "room=alpha")
	req.Contains(buf.String(), "type=event.RoomClosed")
}
