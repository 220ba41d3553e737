package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHolderChangedEvent(t *testing.T) {
	ctx := context.Background()
	var (
		queue     string
		delivered any
	)
	handler := &FileHolderChangedEvent{
		QueueName: "file_holder_changed",
		Publish: func(_ context.Context, name string, payload any) error {
			queue = name
			delivered = payload
			return nil
		},
	}

	event := &types.FileHolderChanged{FileID: "file-1", FileNumber: "FM-2026-AAAABBBB", NewHolderID: "board-b"}

	assert.Equal(t, HolderChangedEventName, handler.Name())
	assert.IsType(t, &types.FileHolderChanged{}, handler.PayloadType())

	require.NoError(t, handler.Validate(ctx, event))
	require.Error(t, handler.Validate(ctx, "not an event"))
	require.Error(t, handler.Validate(ctx, &types.FileHolderChanged{FileID: "file-1"}))

	require.NoError(t, handler.Execute(ctx, event))
	assert.Equal(t, "file_holder_changed", queue)
	assert.Same(t, event, delivered)
}

func TestEventDispatcher(t *testing.T) {
	var emitted []string
	dispatcher := &EventDispatcher{emit: func(_ context.Context, name string, _ any) error {
		emitted = append(emitted, name)
		if len(emitted) > 1 {
			return errors.New("events queue closed")
		}
		return nil
	}}

	event := &types.FileHolderChanged{FileID: "file-1", NewHolderID: "board-b"}
	require.NoError(t, dispatcher.Notify(context.Background(), event))
	require.Error(t, dispatcher.Notify(context.Background(), event))
	assert.Equal(t, []string{HolderChangedEventName, HolderChangedEventName}, emitted)
}

// TestFileHolderChangedEventQueueRoundTrip follows the events queue: the
// emitted payload is serialised, decoded into PayloadType and then validated
// and executed.
func TestFileHolderChangedEventQueueRoundTrip(t *testing.T) {
	ctx := context.Background()
	var delivered *types.FileHolderChanged
	handler := &FileHolderChangedEvent{
		QueueName: "file_holder_changed",
		Publish: func(_ context.Context, _ string, payload any) error {
			delivered, _ = payload.(*types.FileHolderChanged)
			return nil
		},
	}

	emitted := &types.FileHolderChanged{
		FileID:      "file-1",
		FileNumber:  "FM-2026-AAAABBBB",
		NewHolderID: "board-b",
		Action:      types.ActionForward,
		OccurredAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(emitted)
	require.NoError(t, err)

	payload := handler.PayloadType()
	require.NoError(t, json.Unmarshal(raw, payload))
	require.NoError(t, handler.Validate(ctx, payload))
	require.NoError(t, handler.Execute(ctx, payload))

	require.NotNil(t, delivered)
	assert.Equal(t, emitted, delivered)
}
