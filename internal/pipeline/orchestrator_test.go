package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/dgallion1/docsumm/internal/chunker"
	"github.com/dgallion1/docsumm/internal/document"
	"github.com/dgallion1/docsumm/internal/llm"
	"github.com/dgallion1/docsumm/internal/token"
)

func testDocument(nWords int) *document.Document {
	return &document.Document{
		Name:  "report.txt",
		Title: "Quarterly Report",
		Text:  words(nWords),
	}
}

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		DataDir:        t.TempDir(),
		Chunking:       chunker.Config{ChunkSize: 50, ChunkOverlap: 10},
		MergeBatchSize: 4,
		Retry:          fastRetry(2),
	}
}

func TestProcessDocumentEndToEnd(t *testing.T) {
	svc := &stubService{}
	opts := testOptions(t)
	orch := NewOrchestrator(svc, token.Words{}, opts, testLogger())

	var stages []Stage
	hooks := &Hooks{OnStage: func(s Stage) { stages = append(stages, s) }}

	// 120 words at size 50 / overlap 10 chunks as [0,50) [40,90) [80,120).
	result, err := orch.ProcessDocument(context.Background(), testDocument(120), hooks)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	if result.ChunkCount != 3 {
		t.Errorf("ChunkCount = %d, want 3", result.ChunkCount)
	}
	if svc.summarizeCount() != 3 {
		t.Errorf("summarize calls = %d, want 3", svc.summarizeCount())
	}
	if svc.mergeCount() != 1 {
		t.Errorf("merge calls = %d, want 1", svc.mergeCount())
	}
	if svc.analyzeCalls != 1 {
		t.Errorf("analyze calls = %d, want 1", svc.analyzeCalls)
	}

	wantStages := []Stage{StageLoaded, StageChunked, StageSummarized, StageMerged, StageAnalyzed, StageReported}
	if !slices.Equal(stages, wantStages) {
		t.Errorf("stages = %v, want %v", stages, wantStages)
	}

	if result.Report == nil || result.Report.ExecutiveSummary == "" {
		t.Error("missing analysis report")
	}
	if !strings.Contains(string(result.Markdown), "Quarterly Report") {
		t.Error("rendered report should carry the document title")
	}

	for _, name := range []string{
		"chunks_0000.json",
		"chunk_0000.json", "chunk_0001.json", "chunk_0002.json",
		"merge_level1_0000.json",
		"final_analysis_0000.json",
		"final_report.md",
		"session.log",
	} {
		if _, err := os.Stat(filepath.Join(result.Session.Dir, name)); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}
}

func TestProcessDocumentReportsProgress(t *testing.T) {
	svc := &stubService{}
	orch := NewOrchestrator(svc, token.Words{}, testOptions(t), testLogger())

	var progress [][2]int
	hooks := &Hooks{OnChunk: func(done, total int) { progress = append(progress, [2]int{done, total}) }}

	if _, err := orch.ProcessDocument(context.Background(), testDocument(120), hooks); err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if len(progress) == 0 {
		t.Fatal("no progress reported")
	}
	if first := progress[0]; first != [2]int{0, 3} {
		t.Errorf("first progress = %v, want [0 3]", first)
	}
	if last := progress[len(progress)-1]; last != [2]int{3, 3} {
		t.Errorf("last progress = %v, want [3 3]", last)
	}
}

func TestProcessDocumentRejectsBadConfigBeforeSession(t *testing.T) {
	dataDir := t.TempDir()

	cases := []struct {
		name string
		opts Options
	}{
		{"overlap equals size", Options{
			DataDir:        dataDir,
			Chunking:       chunker.Config{ChunkSize: 100, ChunkOverlap: 100},
			MergeBatchSize: 4,
		}},
		{"negative overlap", Options{
			DataDir:        dataDir,
			Chunking:       chunker.Config{ChunkSize: 100, ChunkOverlap: -1},
			MergeBatchSize: 4,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orch := NewOrchestrator(&stubService{}, token.Words{}, tc.opts, testLogger())
			_, err := orch.ProcessDocument(context.Background(), testDocument(120), nil)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			var se *StageError
			if errors.As(err, &se) {
				t.Errorf("config errors must fail before any stage runs, got %v", err)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dataDir, "sessions")); !os.IsNotExist(err) {
		t.Error("no session directory should be created for rejected configuration")
	}
}

func TestProcessDocumentFailureKeepsPartialArtifacts(t *testing.T) {
	svc := &stubService{
		analyzeErrs: []error{
			&llm.FatalError{StatusCode: 400, Message: "rejected"},
			&llm.FatalError{StatusCode: 400, Message: "rejected"},
		},
	}
	orch := NewOrchestrator(svc, token.Words{}, testOptions(t), testLogger())

	var stages []Stage
	hooks := &Hooks{OnStage: func(s Stage) { stages = append(stages, s) }}

	_, err := orch.ProcessDocument(context.Background(), testDocument(120), hooks)
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StageError", err)
	}
	if se.Stage != StageAnalyzed {
		t.Errorf("Stage = %s, want %s", se.Stage, StageAnalyzed)
	}
	if se.ArtifactDir == "" {
		t.Fatal("StageError must name the artifact directory")
	}
	if stages[len(stages)-1] != StageFailed {
		t.Errorf("last stage = %s, want %s", stages[len(stages)-1], StageFailed)
	}

	// Everything completed before the analysis failure survives on disk.
	for _, name := range []string{"chunk_0000.json", "chunk_0002.json", "merge_level1_0000.json"} {
		if _, statErr := os.Stat(filepath.Join(se.ArtifactDir, name)); statErr != nil {
			t.Errorf("expected partial artifact %s: %v", name, statErr)
		}
	}
	for _, name := range []string{"final_analysis_0000.json", "final_report.md"} {
		if _, statErr := os.Stat(filepath.Join(se.ArtifactDir, name)); !os.IsNotExist(statErr) {
			t.Errorf("artifact %s should not exist after analysis failure", name)
		}
	}
}

func TestProcessDocumentEmptyDocument(t *testing.T) {
	orch := NewOrchestrator(&stubService{}, token.Words{}, testOptions(t), testLogger())

	doc := &document.Document{Name: "empty.txt", Text: ""}
	_, err := orch.ProcessDocument(context.Background(), doc, nil)
	if err == nil {
		t.Fatal("expected error for empty document")
	}
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StageError", err)
	}
	if se.Stage != StageChunked {
		t.Errorf("Stage = %s, want %s", se.Stage, StageChunked)
	}
}
