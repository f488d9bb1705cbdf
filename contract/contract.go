//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-dm/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the push primitive of one live connection.
// Consume must never block the caller on a slow or dead receiver.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks at most one live connection per user.
type IRegistry interface {
	Register(userID string, sink EventSink)
	Unregister(userID string)
	Release(userID string, sink EventSink) bool
	Lookup(userID string) (EventSink, bool)
	Count() int
	Online() []string
}

// MediaUploader turns raw image data into a durable URL.
type MediaUploader interface {
	Upload(ctx context.Context, raw string) (string, error)
}

// TextModerator masks forbidden words and reports which ones were found.
type TextModerator interface {
	Censor(original string) (string, []string)
}
