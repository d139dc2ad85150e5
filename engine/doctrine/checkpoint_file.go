package doctrine

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/Arjun3125/doctrine-ingest/pkg/atomicfile"
)

// FileCheckpoint is a Checkpoint backed by a JSON file (02_doctrine_chunks.json),
// so a chapter's completed chunks survive a process restart. Writes go through
// the same atomic temp-file-plus-rename helper used by §4.J and §4.L.
type FileCheckpoint struct {
	path string
	mu   sync.Mutex
	// state[chapterID][chunkIndex] = result
	state map[string]map[int]chunkResult
}

type fileCheckpointDoc struct {
	Chapters map[string]map[int]chunkResult `json:"chapters"`
}

// NewFileCheckpoint loads an existing checkpoint file at path, or starts
// empty if it does not yet exist.
func NewFileCheckpoint(path string) (*FileCheckpoint, error) {
	fc := &FileCheckpoint{path: path, state: make(map[string]map[int]chunkResult)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return nil, err
	}
	var doc fileCheckpointDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Chapters != nil {
		fc.state = doc.Chapters
	}
	return fc, nil
}

func (fc *FileCheckpoint) Get(chapterID string, chunkIndex int) (chunkResult, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	chap, ok := fc.state[chapterID]
	if !ok {
		return chunkResult{}, false
	}
	r, ok := chap[chunkIndex]
	return r, ok
}

func (fc *FileCheckpoint) Put(chapterID string, chunkIndex int, result chunkResult) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	chap, ok := fc.state[chapterID]
	if !ok {
		chap = make(map[int]chunkResult)
		fc.state[chapterID] = chap
	}
	chap[chunkIndex] = result
	fc.flushLocked()
}

func (fc *FileCheckpoint) Completed(chapterID string) map[int]chunkResult {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make(map[int]chunkResult, len(fc.state[chapterID]))
	for k, v := range fc.state[chapterID] {
		out[k] = v
	}
	return out
}

// flushLocked persists the current state. Callers must hold fc.mu. A write
// failure is swallowed here by design: the checkpoint is a resume
// optimization, not the chapter's source of truth, so a transient disk error
// should not abort an in-flight extraction — the next chunk will retry the
// write on its own Put.
func (fc *FileCheckpoint) flushLocked() {
	raw, err := json.MarshalIndent(fileCheckpointDoc{Chapters: fc.state}, "", "  ")
	if err != nil {
		return
	}
	_ = atomicfile.WriteJSON(fc.path, raw)
}
