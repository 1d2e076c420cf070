package pipeline

import "time"

// Stage names the state-machine position a table run has reached.
type Stage string

const (
	StageDiscovered  Stage = "discovered"
	StageDownloaded  Stage = "downloaded"
	StageConverted   Stage = "converted"
	StageTransformed Stage = "transformed"
	StageValidated   Stage = "validated"
	StageLoaded      Stage = "loaded"
)

// StageTransition records one state-machine advance with its wall-clock
// time and the row count observed at that point, so a terminal failure
// can be summarized as a single line naming the last stage reached.
type StageTransition struct {
	Stage Stage
	At    time.Time
	Rows  int
}
