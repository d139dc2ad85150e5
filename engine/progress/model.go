// Package progress implements the Progress/Checkpoint Store (§4.L): one
// progress.json per book directory, updated on every phase transition, plus
// the book-level phase checkpoint used by the Pipeline Driver's resume rule.
package progress

// CompletedPhase marks the terminal phase name written once a book finishes
// every stage of the pipeline.
const CompletedPhase = "completed"

// phase names matching the original pipeline's phase_N convention, exported
// so the Pipeline Driver can report progress without hardcoding strings.
const (
	PhaseExtract      = "phase_0"
	PhaseGlyphRepair  = "phase_0.5"
	PhaseSegment      = "phase_1"
	PhaseDoctrine     = "phase_2"
	PhaseNodeBuild    = "phase_2.5"
	PhaseEmbed        = "phase_3"
	PhaseCommit       = "phase_3.5"
	PhaseCompleted    = CompletedPhase
)
