package app

import "time"

// Task is a scheduled callback that can still be cancelled.
type Task interface {
	Stop() bool
}

// Scheduler runs fn once after d. The orchestrator uses it for session
// eviction so tests can fire or skip evictions deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) Task {
	return time.AfterFunc(d, fn)
}

// NewTimerScheduler returns a Scheduler backed by time.AfterFunc.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}
