package events

import (
	"context"
	"errors"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"
)

const HolderChangedEventName = "file.holder.changed.event"

// PublishFunc hands a payload to the named queue.
type PublishFunc func(ctx context.Context, queueName string, payload any) error

// EmitFunc raises an internal service event.
type EmitFunc func(ctx context.Context, eventName string, payload any) error

// FileHolderChangedEvent moves committed holder changes from the request
// path onto the notification queue.
type FileHolderChangedEvent struct {
	QueueName string
	Publish   PublishFunc
}

func (fe *FileHolderChangedEvent) Name() string {
	return HolderChangedEventName
}

func (fe *FileHolderChangedEvent) PayloadType() any {
	return &types.FileHolderChanged{}
}

func (fe *FileHolderChangedEvent) Validate(_ context.Context, payload any) error {
	event, ok := payload.(*types.FileHolderChanged)
	if !ok {
		return errors.New(" payload is not of type FileHolderChanged")
	}
	if event.FileID == "" || event.NewHolderID == "" {
		return errors.New(" holder change is missing its file or holder")
	}
	return nil
}

func (fe *FileHolderChangedEvent) Execute(ctx context.Context, payload any) error {
	event := payload.(*types.FileHolderChanged)

	util.Log(ctx).
		WithField("file_id", event.FileID).
		WithField("holder_id", event.NewHolderID).
		WithField("type", fe.Name()).
		Debug("handling holder changed event")

	return fe.Publish(ctx, fe.QueueName, event)
}

func NewFileHolderChangedHandler(service *frame.Service, queueName string) frame.EventI {
	return &FileHolderChangedEvent{
		QueueName: queueName,
		Publish: func(ctx context.Context, name string, payload any) error {
			return service.Publish(ctx, name, payload)
		},
	}
}

// EventDispatcher notifies by emitting an internal event, so the request
// never waits on the queue.
type EventDispatcher struct {
	emit EmitFunc
}

func (ed *EventDispatcher) Notify(ctx context.Context, event *types.FileHolderChanged) error {
	return ed.emit(ctx, HolderChangedEventName, event)
}

func NewEventDispatcher(service *frame.Service) *EventDispatcher {
	return &EventDispatcher{
		emit: func(ctx context.Context, name string, payload any) error {
			return service.Emit(ctx, name, payload)
		},
	}
}
