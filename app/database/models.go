package database

import "time"

type Run struct {
	ID         int64
	Mode       string
	Target     string
	Version    string
	StartedAt  time.Time
	FinishedAt *time.Time
}

type CycleReport struct {
	ID         int64
	RunID      int64
	Cycle      int
	Attempted  int
	Succeeded  int
	TimedOut   int
	Skipped    int
	Failed     int
	StartedAt  time.Time
	DurationMS int64
}

type EntryOutcome struct {
	ID       int64
	CycleID  int64
	Position int
	Title    string
	Key      string
	Outcome  string
	Detail   string
}
