package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/pkg/atomicfile"
)

// FileName is the progress artifact's name within a book's working directory.
const FileName = "progress.json"

// Tracker writes domain.ProgressRecord to <Root>/progress.json on every
// phase transition, mirroring the original pipeline's live_progress: status
// flips to "completed" once current reaches total or the phase itself is
// "completed"; percent is current/total when both are known, else 100 for a
// completed phase and 0 otherwise.
type Tracker struct {
	Root string
}

// New returns a Tracker rooted at the given book working directory.
func New(root string) *Tracker {
	return &Tracker{Root: root}
}

func (t *Tracker) path() string {
	return filepath.Join(t.Root, FileName)
}

// Write records one phase-transition event. current and total are optional;
// pass -1 for either to mean "unknown", matching the original's current=None.
func (t *Tracker) Write(phase, message string, current, total int, counts map[string]int) error {
	rec := domain.ProgressRecord{
		Phase:     phase,
		Message:   message,
		Status:    status(phase, current, total),
		Percent:   percent(phase, current, total),
		Counts:    counts,
		Timestamp: time.Now().UTC(),
	}
	if current >= 0 {
		rec.Current = current
	}
	if total >= 0 {
		rec.Total = total
	}

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteJSON(t.path(), raw)
}

// Complete is a convenience for the final phase transition of a book.
func (t *Tracker) Complete(message string) error {
	return t.Write(CompletedPhase, message, 0, 0, nil)
}

func status(phase string, current, total int) string {
	if phase == CompletedPhase {
		return "completed"
	}
	if current >= 0 && total > 0 && current >= total {
		return "completed"
	}
	return "running"
}

func percent(phase string, current, total int) float64 {
	if current >= 0 && total > 0 {
		return float64(int(float64(current) / float64(total) * 100))
	}
	if phase == CompletedPhase {
		return 100
	}
	return 0
}

// Read loads the current progress record for a book directory, if one exists.
func Read(root string) (domain.ProgressRecord, bool, error) {
	raw, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ProgressRecord{}, false, nil
		}
		return domain.ProgressRecord{}, false, err
	}
	var rec domain.ProgressRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.ProgressRecord{}, false, err
	}
	return rec, true, nil
}

// BookProgress pairs a book's storage-directory name with its last
// recorded progress, for the status server's all-books listing.
type BookProgress struct {
	Book   string              `json:"book"`
	Record domain.ProgressRecord `json:"progress"`
}

// ListBooks scans storageRoot's immediate subdirectories and reads each
// one's progress.json, skipping any book directory that has none yet.
func ListBooks(storageRoot string) ([]BookProgress, error) {
	entries, err := os.ReadDir(storageRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var books []BookProgress
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rec, ok, err := Read(filepath.Join(storageRoot, e.Name()))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		books = append(books, BookProgress{Book: e.Name(), Record: rec})
	}
	return books, nil
}

// IsCompleted reports whether a book's last recorded progress is the
// terminal "completed" phase — the fast-skip signal the Pipeline Driver
// checks before reprocessing a book already fully ingested.
func IsCompleted(root string) (bool, error) {
	rec, ok, err := Read(root)
	if err != nil || !ok {
		return false, err
	}
	return rec.Phase == CompletedPhase, nil
}
