package db

import "time"

//go:generate mockgen -destination=../mocks/mock_event_listener.go -package=mocks github.com/NethermindEth/blockvault/db EventListener

// EventListener is told about every read, write and sync a store performs.
type EventListener interface {
	OnIO(write bool, start time.Time)
	OnSync(start time.Time)
}

type SelectiveListener struct {
	OnIOCb   func(write bool, duration time.Duration)
	OnSyncCb func(duration time.Duration)
}

func (l *SelectiveListener) OnIO(write bool, start time.Time) {
	if l.OnIOCb != nil {
		l.OnIOCb(write, time.Since(start))
	}
}

func (l *SelectiveListener) OnSync(start time.Time) {
	if l.OnSyncCb != nil {
		l.OnSyncCb(time.Since(start))
	}
}
