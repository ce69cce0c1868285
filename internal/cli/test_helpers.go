package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"chromepack/internal/config"
	"chromepack/internal/output"
	"chromepack/internal/state"
)

// Mock step implementations recording calls for command tests. Each mock
// returns its err field, letting tests inject failures per step.

type mockFetcher struct {
	tags []string
	err  error
}

func (m *mockFetcher) Fetch(ctx context.Context, tag string) error {
	m.tags = append(m.tags, tag)
	return m.err
}

type mockStamper struct {
	calls int
	err   error
}

func (m *mockStamper) Stamp(ctx context.Context) error {
	m.calls++
	return m.err
}

type mockDownloader struct {
	calls int
	path  string
	err   error
}

func (m *mockDownloader) Download(ctx context.Context) (string, error) {
	m.calls++
	return m.path, m.err
}

type mockExporter struct {
	sourceTags   []string
	testdataTags []string
	err          error
}

func (m *mockExporter) ExportSource(ctx context.Context, srcDir, tag string) (string, error) {
	m.sourceTags = append(m.sourceTags, tag)
	return fmt.Sprintf("%s-%s.tar.xz", "chromium", tag), m.err
}

func (m *mockExporter) ExportTestData(ctx context.Context, srcDir, tag string) (string, error) {
	m.testdataTags = append(m.testdataTags, tag)
	return fmt.Sprintf("%s-%s-testdata.tar.xz", "chromium", tag), m.err
}

type mockPublisher struct {
	tags   []string
	assets [][]string
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, tag string, assetPaths []string) error {
	m.tags = append(m.tags, tag)
	m.assets = append(m.assets, assetPaths)
	return m.err
}

// testApp bundles a fully mocked App with its captured output.
type testApp struct {
	app *App
	out *bytes.Buffer

	fetcher   *mockFetcher
	stamper   *mockStamper
	pgo       *mockDownloader
	exporter  *mockExporter
	publisher *mockPublisher
}

// newTestApp builds an App with mocked steps and real state files in a
// temp work directory.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	workDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Source.WorkDir = workDir

	out := &bytes.Buffer{}
	ta := &testApp{
		out:       out,
		fetcher:   &mockFetcher{},
		stamper:   &mockStamper{},
		pgo:       &mockDownloader{path: "/profiles/chrome-linux.profdata"},
		exporter:  &mockExporter{},
		publisher: &mockPublisher{},
	}
	ta.app = &App{
		Config:      cfg,
		Printer:     output.NewPrinterWithWriter(out),
		Fetcher:     ta.fetcher,
		Stamper:     ta.stamper,
		PGO:         ta.pgo,
		Exporter:    ta.exporter,
		Publisher:   ta.publisher,
		StateReader: state.NewReader(workDir),
		StateWriter: state.NewWriter(workDir),
	}
	return ta
}

// run executes the command tree with the given arguments.
func (ta *testApp) run(args ...string) error {
	root := NewRootCommand(ta.app)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.Execute()
}

// setStage seeds the recorded stage for a tag.
func (ta *testApp) setStage(t *testing.T, tag string, stage state.Stage) {
	t.Helper()
	if err := ta.app.StateWriter.UpdateStage(tag, stage); err != nil {
		t.Fatalf("failed to seed stage: %v", err)
	}
}

// stage reads the recorded stage for a tag.
func (ta *testApp) stage(t *testing.T, tag string) state.Stage {
	t.Helper()
	stage, err := ta.app.StateReader.GetStage(tag)
	if err != nil {
		t.Fatalf("failed to read stage: %v", err)
	}
	return stage
}
