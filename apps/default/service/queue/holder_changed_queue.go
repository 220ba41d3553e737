package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pitabwire/util"
)

// HolderChangedQueueHandler consumes holder change messages and fans them
// out to live mailbox subscribers.
type HolderChangedQueueHandler struct {
	broadcaster Broadcaster
}

func (hq *HolderChangedQueueHandler) Handle(ctx context.Context, _ map[string]string, payload []byte) error {
	event := &types.FileHolderChanged{}
	err := json.Unmarshal(payload, event)
	if err != nil {
		return err
	}
	if event.FileID == "" || event.NewHolderID == "" {
		util.Log(ctx).WithField("payload", string(payload)).Warn("dropping incomplete holder change")
		return nil
	}

	err = hq.broadcaster.Broadcast(ctx, event)
	if err != nil {
		util.Log(ctx).WithError(err).
			WithField("file_id", event.FileID).
			WithField("holder_id", event.NewHolderID).
			Warn("could not broadcast holder change")
		return err
	}
	return nil
}

func NewHolderChangedQueueHandler(broadcaster Broadcaster) (*HolderChangedQueueHandler, error) {
	if broadcaster == nil {
		return nil, errors.New("a broadcaster is required")
	}
	return &HolderChangedQueueHandler{broadcaster: broadcaster}, nil
}
