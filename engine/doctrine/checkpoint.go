package doctrine

import "sync"

// Checkpoint is the chunk-level resume store for §4.D: before each LLM
// call the extractor checks completed[chunkIndex] and skips if present;
// after a successful parse it writes the parsed chunk back. On
// chapter-level failure, whatever chunks completed can be reaggregated.
type Checkpoint interface {
	Get(chapterID string, chunkIndex int) (chunkResult, bool)
	Put(chapterID string, chunkIndex int, result chunkResult)
	Completed(chapterID string) map[int]chunkResult
}

// MemCheckpoint is an in-process Checkpoint. A persistent implementation
// (e.g. backed by 02_doctrine_chunks.json) satisfies the same interface.
type MemCheckpoint struct {
	mu    sync.Mutex
	state map[string]map[int]chunkResult
}

func NewMemCheckpoint() *MemCheckpoint {
	return &MemCheckpoint{state: make(map[string]map[int]chunkResult)}
}

func (c *MemCheckpoint) Get(chapterID string, chunkIndex int) (chunkResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chap, ok := c.state[chapterID]
	if !ok {
		return chunkResult{}, false
	}
	r, ok := chap[chunkIndex]
	return r, ok
}

func (c *MemCheckpoint) Put(chapterID string, chunkIndex int, result chunkResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chap, ok := c.state[chapterID]
	if !ok {
		chap = make(map[int]chunkResult)
		c.state[chapterID] = chap
	}
	chap[chunkIndex] = result
}

func (c *MemCheckpoint) Completed(chapterID string) map[int]chunkResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]chunkResult, len(c.state[chapterID]))
	for k, v := range c.state[chapterID] {
		out[k] = v
	}
	return out
}
