package stream

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/truemediaorg/catbot/metrics"
	"github.com/truemediaorg/catbot/model"
)

var ErrStreamClosed = errors.New("stream closed by the source")

// Handler receives stream callbacks. Calls are made one at a time, in
// delivery order, from a single goroutine.
type Handler interface {
	OnConnect(ctx context.Context) error
	OnStatus(ctx context.Context, status model.Status) error
	OnFollow(ctx context.Context, event model.FollowEvent) error
}

// Event carries exactly one of its fields.
type Event struct {
	Status *model.Status
	Follow *model.FollowEvent
	Err    error
}

type Connection interface {
	Events() <-chan Event
	Close()
}

type Source interface {
	Connect(ctx context.Context) (Connection, error)
}

// Session connects once and dispatches events to the handler until the
// connection fails, a handler returns an error, or ctx is done.
func Session(ctx context.Context, source Source, handler Handler) error {
	conn, err := source.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := handler.OnConnect(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-conn.Events():
			if !ok {
				return ErrStreamClosed
			}
			if err := dispatch(ctx, handler, event); err != nil {
				return err
			}
		}
	}
}

func dispatch(ctx context.Context, handler Handler, event Event) error {
	switch {
	case event.Err != nil:
		return event.Err
	case event.Status != nil:
		return handler.OnStatus(ctx, *event.Status)
	case event.Follow != nil:
		return handler.OnFollow(ctx, *event.Follow)
	default:
		return nil
	}
}

// Run keeps a session open until ctx is done. Any session error is logged
// and followed by an immediate reconnect.
func Run(ctx context.Context, source Source, handler Handler, logger log.FieldLogger) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		logger.Info("Starting")
		metrics.StreamSessions.Inc()
		err := Session(ctx, source, handler)
		if ctx.Err() != nil {
			logger.Info("stream stopped")
			return nil
		}
		metrics.StreamErrors.Inc()
		logger.WithError(err).Error("stream session ended, reconnecting")
	}
}
