package projection

import (
	"context"
	"morse-lab/domain/event"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func sent(room, morse string) event.Transmitted {
	return event.Transmitted{Room: room, Callsign: "AE2GCY", Morse: morse}
}

func TestTranscript_KeepsLastTransmissions(t *testing.T) {
	req := require.New(t)
	transcript := NewTranscript(2)
	ctx := context.Background()

	// Given three transmissions in alpha and one in bravo
	for _, e := range []event.DomainEvent{
		sent("alpha", "."), sent("alpha", "_"), sent("bravo", "._"), sent("alpha", "._."),
		event.MemberJoined{Room: "alpha"},
	} {
		req.NoError(transcript.Consume(ctx, e))
	}

	// Then alpha keeps only its last two, in order
	morse := lo.Map(transcript.Transmissions("alpha"), func(tx event.Transmitted, _ int) string { return tx.Morse })
	req.Equal([]string{"_", "._."}, morse)
	req.Len(transcript.Transmissions("bravo"), 1)
	req.Empty(transcript.Transmissions("charlie"))
}

func TestTranscript_DroppedWhenRoomCloses(t *testing.T) {
	req := require.New(t)
	transcript := NewTranscript(0)
	ctx := context.Background()
	req.NoError(transcript.Consume(ctx, sent("alpha", ".")))

	req.NoError(transcript.Consume(ctx, event.RoomClosed{Room: "alpha"}))

	req.Empty(transcript.Transmissions("alpha"))
}

func TestTranscript_ReturnsCopies(t *testing.T) {
	req := require.New(t)
	transcript := NewTranscript(10)
	req.NoError(transcript.Consume(context.Background(), sent("alpha", ".")))

	got := transcript.Transmissions("alpha")
	got[0].Morse = "tampered"

	req.Equal(".", transcript.Transmissions("alpha")[0].Morse)
}
