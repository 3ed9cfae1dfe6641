package database

// RunStore is the history surface consumed by the runner and the report API.
type RunStore interface {
	CreateRun(mode, target, version string) (int64, error)
	FinishRun(id int64) error
	RecordCycle(runID int64, report CycleReport, outcomes []EntryOutcome) (int64, error)
	ListRuns(limit int) ([]Run, error)
	GetRun(id int64) (*Run, []CycleReport, error)
	GetCycleOutcomes(cycleID int64) ([]EntryOutcome, error)
}
