// Package segment implements the Chapter Segmenter (§4.C): streaming
// LLM-driven chapter-boundary detection with a heading-regex fallback.
package segment

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
	"github.com/Arjun3125/doctrine-ingest/pkg/llm"
)

// BoundaryTimeout bounds one streaming-boundary LLM call (§5).
const BoundaryTimeout = 120 * time.Second

// boundaryWindow is the number of trailing/leading characters sent to the
// LLM on each page: the last boundaryWindow chars of the buffer and the
// first boundaryWindow chars of the incoming page.
const boundaryWindow = 4000

// minReasonableBookChars triggers the heading-regex fallback when the
// streaming pass collapses a long book into a single chapter.
const minReasonableBookChars = 20000

// Decision is the LLM's strict-JSON boundary verdict.
type Decision string

const (
	StartNewChapter  Decision = "start_new_chapter"
	ContinueChapter  Decision = "continue_chapter"
	EndChapterSignal Decision = "end_chapter"
)

type boundaryResponse struct {
	Decision   Decision `json:"decision"`
	Confidence float64  `json:"confidence"`
}

// headingPatterns back the fallback splitter (§4.C).
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^THE\s+[A-Z ]+BOOK`),
	regexp.MustCompile(`(?m)^BOOK\s+[IVXLCDM]+`),
	regexp.MustCompile(`(?m)^CHAPTER\s+\d+`),
}

// DecisionCache memoizes boundary decisions by content hash so repeated
// runs over the same buffer/page pair make no LLM calls.
type DecisionCache interface {
	Get(key string) (Decision, bool)
	Put(key string, d Decision)
}

// MemDecisionCache is a simple in-process DecisionCache.
type MemDecisionCache struct{ data map[string]Decision }

func NewMemDecisionCache() *MemDecisionCache { return &MemDecisionCache{data: make(map[string]Decision)} }

func (c *MemDecisionCache) Get(key string) (Decision, bool) { d, ok := c.data[key]; return d, ok }
func (c *MemDecisionCache) Put(key string, d Decision)      { c.data[key] = d }

// Segmenter splits a book's pages into chapters.
type Segmenter struct {
	Service llm.Service
	Model   string
	Cache   DecisionCache
	Logger  *slog.Logger
}

// NewSegmenter builds a Segmenter.
func NewSegmenter(svc llm.Service, model string, cache DecisionCache, logger *slog.Logger) *Segmenter {
	if cache == nil {
		cache = NewMemDecisionCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{Service: svc, Model: model, Cache: cache, Logger: logger}
}

// Split implements the streaming boundary-detection algorithm with
// heading-regex fallback. The result is always non-empty (§4.C guarantee).
func (s *Segmenter) Split(ctx context.Context, pages []string) []domain.Chapter {
	chapters := s.splitStreaming(ctx, pages)

	totalChars := 0
	for _, p := range pages {
		totalChars += len(p)
	}

	if len(chapters) <= 1 && totalChars > minReasonableBookChars {
		full := strings.Join(pages, "\f")
		if fallback := s.fallbackSplit(full); len(fallback) >= 2 {
			return fallback
		}
	}

	if len(chapters) == 0 {
		return []domain.Chapter{s.newChapter(1, strings.Join(pages, "\f"))}
	}
	return chapters
}

func (s *Segmenter) splitStreaming(ctx context.Context, pages []string) []domain.Chapter {
	var chapters []domain.Chapter
	var buffer strings.Builder

	flush := func() {
		text := buffer.String()
		if strings.TrimSpace(text) == "" {
			buffer.Reset()
			return
		}
		chapters = append(chapters, s.newChapter(len(chapters)+1, text))
		buffer.Reset()
	}

	for _, page := range pages {
		if buffer.Len() == 0 {
			buffer.WriteString(page)
			continue
		}

		decision := s.decide(ctx, buffer.String(), page)
		switch decision {
		case StartNewChapter:
			flush()
			buffer.WriteString(page)
		case EndChapterSignal:
			buffer.WriteString("\f")
			buffer.WriteString(page)
			flush()
		default: // ContinueChapter, or unparseable (tie-break default)
			buffer.WriteString("\f")
			buffer.WriteString(page)
		}
	}
	flush()
	return chapters
}

func (s *Segmenter) decide(ctx context.Context, buffer, page string) Decision {
	tail := lastN(buffer, boundaryWindow)
	head := firstN(page, boundaryWindow)
	cacheKey := domain.ContentHash(tail + "\x00" + head)

	if cached, ok := s.Cache.Get(cacheKey); ok {
		return cached
	}

	callCtx, cancel := context.WithTimeout(ctx, BoundaryTimeout)
	defer cancel()

	raw, err := s.Service.Generate(callCtx, llm.GenerateRequest{
		Model:    s.Model,
		System:   boundarySystemPrompt,
		Prompt:   boundaryPrompt(tail, head),
		JSONMode: true,
		Timeout:  BoundaryTimeout,
	})
	if err != nil {
		s.Logger.Warn("segment: boundary call failed, defaulting to continue_chapter", "err", err)
		return ContinueChapter
	}

	var resp boundaryResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		s.Logger.Warn("segment: unparseable boundary json, defaulting to continue_chapter", "err", err)
		return ContinueChapter
	}

	switch resp.Decision {
	case StartNewChapter, ContinueChapter, EndChapterSignal:
		s.Cache.Put(cacheKey, resp.Decision)
		return resp.Decision
	default:
		return ContinueChapter
	}
}

const boundarySystemPrompt = "You are a chapter-boundary detector. Given the tail of the text seen so far " +
	"and the head of the next page, decide whether the next page starts a new chapter, continues the " +
	"current chapter, or ends the current chapter. Respond with strict JSON: " +
	`{"decision": "start_new_chapter"|"continue_chapter"|"end_chapter", "confidence": 0.0-1.0}.`

func boundaryPrompt(tail, head string) string {
	return "BUFFER_TAIL:\n" + tail + "\n\nNEXT_PAGE_HEAD:\n" + head
}

func (s *Segmenter) newChapter(index int, text string) domain.Chapter {
	return domain.Chapter{
		ChapterIndex: index,
		ChapterID:    domain.ContentHash(text),
		RawText:      text,
	}
}

// fallbackSplit applies the heading-regex splitter over the full canonical
// text, returning one Chapter per heading match (plus any leading text as
// chapter 0-equivalent prefix merged into the first chapter).
func (s *Segmenter) fallbackSplit(fullText string) []domain.Chapter {
	type match struct{ start int }
	var matches []match
	// Page breaks ("\f") count as line starts for the (?m)^ heading patterns;
	// the replacement keeps every byte offset unchanged.
	searchText := strings.ReplaceAll(fullText, "\f", "\n")
	for _, pat := range headingPatterns {
		for _, loc := range pat.FindAllStringIndex(searchText, -1) {
			matches = append(matches, match{start: loc[0]})
		}
	}
	if len(matches) < 2 {
		return nil
	}

	// Sort matches by start position.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].start < matches[j-1].start; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	var chapters []domain.Chapter
	for i, m := range matches {
		end := len(fullText)
		if i+1 < len(matches) {
			end = matches[i+1].start
		}
		start := m.start
		if i == 0 {
			start = 0
		}
		text := strings.TrimSpace(fullText[start:end])
		if text == "" {
			continue
		}
		chapters = append(chapters, s.newChapter(len(chapters)+1, text))
	}
	return chapters
}

func lastN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func firstN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
