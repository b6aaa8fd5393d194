package usecase

import (
	"socialmall/internal/domain/entity"
	"socialmall/internal/domain/raw"
	"socialmall/pkg/errors"
	"socialmall/pkg/logger"
	"socialmall/pkg/metrics"
)

const (
	EventEditCommitted  = "edit.committed"
	EventEditRolledBack = "edit.rolled_back"
)

// Notifier pushes events to a connected user. Delivery is best effort.
type Notifier interface {
	Notify(userID, eventType string, data interface{})
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, string, interface{}) {}

// EditEvent reports the resolution of an optimistic edit.
type EditEvent struct {
	LocalID string           `json:"local_id"`
	Kind    entity.EditKind  `json:"kind"`
	Target  string           `json:"target"`
	State   entity.EditState `json:"state"`
	Error   string           `json:"error,omitempty"`
	Record  interface{}      `json:"record,omitempty"`
}

// settle resolves an edit once the backend answered: commit on success,
// rollback otherwise. record renders the affected record afterwards. It
// takes the session lock.
func settle(sess *Session, notifier Notifier, localID string, canonical raw.Value, opErr error, record func() interface{}) EditEvent {
	sess.mu.Lock()
	var (
		edit entity.OptimisticEdit
		err  error
	)
	if opErr != nil {
		edit, err = sess.rec.Rollback(localID)
	} else {
		edit, err = sess.rec.Commit(localID, canonical)
	}
	if err != nil {
		sess.mu.Unlock()
		logger.Warn("Settling edit %s: %v", localID, err)
		return EditEvent{LocalID: localID}
	}

	ev := EditEvent{
		LocalID: edit.LocalID,
		Kind:    edit.Kind,
		Target:  edit.Target,
		State:   edit.State,
	}
	if opErr != nil {
		ev.Error = errors.Message(opErr)
	}
	if record != nil {
		ev.Record = record()
	}
	sess.mu.Unlock()

	metrics.OptimisticEdits.WithLabelValues(string(edit.Kind), string(edit.State)).Inc()
	logger.LogEditOutcome(string(edit.Kind), edit.LocalID, string(edit.State), opErr)

	eventType := EventEditCommitted
	if edit.State == entity.EditRolledBack {
		eventType = EventEditRolledBack
	}
	notifier.Notify(sess.me.String(), eventType, ev)
	return ev
}
