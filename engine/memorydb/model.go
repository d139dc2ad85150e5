// Package memorydb is the file-backed memory store the Scoring & Commit
// Engine (§4.K) commits records into, grounded on the original pipeline's
// file-backed memory stub.
package memorydb

import "time"

// DoctrinePatch links a GLOBAL_MEMORY commit to a conflicting prior belief
// flagged by the doctrine-diff textual-contradiction heuristic.
type DoctrinePatch struct {
	ID                string    `json:"id"`
	TriggeringMemory  string    `json:"triggering_memory"`
	ConflictingBelief string    `json:"conflicting_belief"`
	ResolutionStatus  string    `json:"resolution_status"`
	CreatedAt         time.Time `json:"created_at"`
}
