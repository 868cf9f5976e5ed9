package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docsumm/internal/llm"
	"github.com/dgallion1/docsumm/internal/session"
)

// stubService is a deterministic in-memory Service for pipeline tests.
// Errors are scripted per call ordinal; summaries are derived from inputs so
// tests can assert ordering and data flow.
type stubService struct {
	mu sync.Mutex

	summarizeCalls []summarizeCall
	mergeSizes     []int
	analyzeCalls   int

	// summarizeErrs[i] is returned by the i-th Summarize call (nil = ok).
	summarizeErrs []error
	// mergeErr, if set, is consulted with the 0-based merge call ordinal.
	mergeErr func(call int) error
	// analyzeErrs[i] is returned by the i-th Analyze call.
	analyzeErrs []error

	// gate, if non-nil, blocks every Summarize call until it is closed.
	gate chan struct{}
}

type summarizeCall struct {
	prev  string
	chunk string
}

func (s *stubService) Summarize(ctx context.Context, prev *llm.Summary, chunkText string) (*llm.Summary, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.summarizeCalls)
	prevText := ""
	if prev != nil {
		prevText = prev.Summary
	}
	s.summarizeCalls = append(s.summarizeCalls, summarizeCall{prev: prevText, chunk: chunkText})
	if n < len(s.summarizeErrs) && s.summarizeErrs[n] != nil {
		return nil, s.summarizeErrs[n]
	}
	return &llm.Summary{
		Summary:  "sum(" + firstWord(chunkText) + ")",
		Entities: []llm.Entity{{Name: "Acme", Type: "organization"}},
		KeyFacts: []llm.Fact{{Fact: "fact about " + firstWord(chunkText)}},
		Themes:   []string{"growth"},
	}, nil
}

func (s *stubService) Merge(ctx context.Context, batch []*llm.Summary) (*llm.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.mergeSizes)
	s.mergeSizes = append(s.mergeSizes, len(batch))
	if s.mergeErr != nil {
		if err := s.mergeErr(n); err != nil {
			return nil, err
		}
	}
	parts := make([]string, len(batch))
	for i, b := range batch {
		parts[i] = b.Summary
	}
	return &llm.Summary{
		Summary:  strings.Join(parts, "+"),
		Entities: []llm.Entity{{Name: "Acme", Type: "organization"}},
		KeyFacts: []llm.Fact{{Fact: "merged fact"}},
		Themes:   []string{"growth"},
	}, nil
}

func (s *stubService) Analyze(ctx context.Context, final *llm.Summary, meta llm.Metadata) (*llm.AnalysisReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.analyzeCalls
	s.analyzeCalls++
	if n < len(s.analyzeErrs) && s.analyzeErrs[n] != nil {
		return nil, s.analyzeErrs[n]
	}
	return &llm.AnalysisReport{
		ExecutiveSummary: "Executive summary of " + final.Summary,
		MainConclusions:  []string{"conclusion one"},
		KeyInsights:      []string{"insight one"},
		ConfidenceLevel:  "high",
	}, nil
}

func (s *stubService) summarizeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.summarizeCalls)
}

func (s *stubService) mergeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mergeSizes)
}

func firstWord(text string) string {
	if i := strings.IndexByte(text, ' '); i > 0 {
		return text[:i]
	}
	return text
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) (*session.Store, *session.Session) {
	t.Helper()
	sess, err := session.New(t.TempDir())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return session.NewStore(sess), sess
}

// fastRetry keeps retry tests quick.
func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, RetryValidation: true}
}

// words produces deterministic test prose with n words.
func words(n int) string {
	var b strings.Builder
	for i := range n {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "word%d", i)
	}
	return b.String()
}
