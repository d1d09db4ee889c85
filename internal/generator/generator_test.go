package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gendocs/internal/config"
	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
	"git.home.luguber.info/inful/gendocs/internal/events"
	"git.home.luguber.info/inful/gendocs/internal/frontmatter"
	"git.home.luguber.info/inful/gendocs/internal/git"
	"git.home.luguber.info/inful/gendocs/internal/history"
	"git.home.luguber.info/inful/gendocs/internal/metrics"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type capturePublisher struct{ events []*events.GeneratedEvent }

func (p *capturePublisher) Publish(_ context.Context, ev *events.GeneratedEvent) error {
	p.events = append(p.events, ev)
	return nil
}
func (p *capturePublisher) Close() error { return nil }

func writeProject(t *testing.T, root string) {
	t.Helper()
	files := map[string]string{
		"go.mod":                     "module example.com/acme/widget\n\ngo 1.24\n\nrequire github.com/stretchr/testify v1.11.1\n",
		"cmd/widget/main.go":         "package main\n\nfunc main() {}\n",
		"internal/core/core.go":      "package core\n\nfunc Add(a, b int) int { return a + b }\n",
		"internal/core/core_test.go": "package core\n\nimport \"testing\"\n\nfunc TestAdd(t *testing.T) {\n\tt.Run(\"x\", func(t *testing.T) {})\n}\n",
		"docs/guide.md":              "# Guide\n",
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
}

func newTestGenerator(t *testing.T, root string, c *clock, opts ...Option) (*Generator, *config.Config) {
	t.Helper()
	return newConfiguredGenerator(t, root, c, nil, opts...)
}

func newConfiguredGenerator(t *testing.T, root string, c *clock, mutate func(*config.Config), opts ...Option) (*Generator, *config.Config) {
	t.Helper()
	cfg, err := config.Load(filepath.Join(root, config.DefaultFileName))
	require.NoError(t, err)
	cfg.Project.License = "MIT"
	if mutate != nil {
		mutate(cfg)
	}

	g, err := New(cfg, append([]Option{WithClock(c.now)}, opts...)...)
	require.NoError(t, err)
	g.readGit = func(string) (*git.Info, error) {
		return &git.Info{Available: true, Branch: "main", Commit: "0123456789abcdef", ShortCommit: "0123456", Author: "alice", Subject: "init", CommitCount: 1}, nil
	}
	return g, cfg
}

func statuses(res *Result) map[config.DocumentKind]Status {
	out := map[config.DocumentKind]Status{}
	for _, d := range res.Documents {
		out[d.Kind] = d.Status
	}
	return out
}

func readDoc(t *testing.T, path string) *frontmatter.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := frontmatter.Parse(data)
	require.NoError(t, err)
	return doc
}

func TestRun_CreatesThenLeavesUnchanged(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	c := &clock{t: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	g, cfg := newTestGenerator(t, root, c)

	res, err := g.Run(t.Context(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, res.Documents, 4)
	for kind, st := range statuses(res) {
		assert.Equal(t, StatusCreated, st, kind)
		assert.FileExists(t, cfg.OutputPath(kind))
	}
	for _, d := range res.Documents {
		assert.Empty(t, d.BrokenLinks, d.Kind)
	}

	overview := readDoc(t, cfg.OutputPath(config.DocOverview))
	require.True(t, overview.HadFrontmatter)
	assert.Equal(t, "widget Project Overview", overview.Fields["title"])
	assert.Equal(t, "2026-10-14", overview.Fields[frontmatter.FieldLastmod])
	ok, err := overview.Verify()
	require.NoError(t, err)
	assert.True(t, ok)

	readme, err := os.ReadFile(cfg.OutputPath(config.DocReadme))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(readme), "# widget\n"), "READMEs carry no frontmatter")

	c.t = c.t.Add(72 * time.Hour)
	res, err = g.Run(t.Context(), RunOptions{})
	require.NoError(t, err)
	for kind, st := range statuses(res) {
		assert.Equal(t, StatusUnchanged, st, kind)
	}
	assert.Empty(t, res.Changed())
	overview = readDoc(t, cfg.OutputPath(config.DocOverview))
	assert.Equal(t, "2026-10-14", overview.Fields[frontmatter.FieldLastmod], "lastmod kept when content is unchanged")
}

func TestRun_UpdatesWhenProjectChanges(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	c := &clock{t: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	g, cfg := newTestGenerator(t, root, c)

	_, err := g.Run(t.Context(), RunOptions{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "internal", "core", "extra_test.go"),
		[]byte("package core\n\nimport \"testing\"\n\nfunc TestMore(t *testing.T) {}\n"), 0o600))
	c.t = c.t.Add(24 * time.Hour)

	res, err := g.Run(t.Context(), RunOptions{})
	require.NoError(t, err)
	st := statuses(res)
	assert.Equal(t, StatusUpdated, st[config.DocOverview])
	assert.Equal(t, StatusUpdated, st[config.DocTesting])

	report := readDoc(t, cfg.OutputPath(config.DocTesting))
	assert.Equal(t, "2026-10-15", report.Fields[frontmatter.FieldLastmod])
	assert.Contains(t, string(report.Body), "| Test cases | 2 |")
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	g, cfg := newTestGenerator(t, root, &clock{t: time.Now()})

	res, err := g.Run(t.Context(), RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	for _, d := range res.Documents {
		assert.Equal(t, StatusSkipped, d.Status)
		assert.Equal(t, StatusCreated, d.WouldBe)
		assert.NoFileExists(t, cfg.OutputPath(d.Kind))
	}
	assert.Len(t, res.Changed(), 4)
}

func TestRun_OnlySelectedDocuments(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	g, cfg := newTestGenerator(t, root, &clock{t: time.Now()})

	res, err := g.Run(t.Context(), RunOptions{Documents: []config.DocumentKind{config.DocReadme}})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.FileExists(t, cfg.OutputPath(config.DocReadme))
	assert.NoFileExists(t, cfg.OutputPath(config.DocOverview))

	readme, err := os.ReadFile(cfg.OutputPath(config.DocReadme))
	require.NoError(t, err)
	assert.NotContains(t, string(readme), "PROJECT_OVERVIEW.md")
}

func TestRun_FrontmatterDisabled(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	g, cfg := newTestGenerator(t, root, &clock{t: time.Now()})
	off := false
	cfg.Output.Frontmatter = &off

	_, err := g.Run(t.Context(), RunOptions{Documents: []config.DocumentKind{config.DocOverview}})
	require.NoError(t, err)
	data, err := os.ReadFile(cfg.OutputPath(config.DocOverview))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# widget Project Overview\n"))
}

func TestRun_SeparateOutputDirectory(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	g, cfg := newConfiguredGenerator(t, root, &clock{t: time.Now()}, func(cfg *config.Config) {
		cfg.Output.Directory = filepath.Join(root, "generated")
	})

	res, err := g.Run(t.Context(), RunOptions{})
	require.NoError(t, err)
	for _, d := range res.Documents {
		assert.Equal(t, filepath.Join(root, "generated"), filepath.Dir(d.Path))
		assert.Empty(t, d.BrokenLinks, d.Kind)
	}
	overview, err := os.ReadFile(cfg.OutputPath(config.DocOverview))
	require.NoError(t, err)
	assert.Contains(t, string(overview), "(../docs/guide.md)")
}

func TestRun_GitFailureIsNotFatal(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	g, cfg := newTestGenerator(t, root, &clock{t: time.Now()})
	g.readGit = func(string) (*git.Info, error) { return nil, errors.New("corrupt repository") }

	_, err := g.Run(t.Context(), RunOptions{Documents: []config.DocumentKind{config.DocOverview}})
	require.NoError(t, err)
	data, err := os.ReadFile(cfg.OutputPath(config.DocOverview))
	require.NoError(t, err)
	assert.Contains(t, string(data), "The project is not in a git repository.")
}

func TestRun_ScanFailure(t *testing.T) {
	root := t.TempDir()
	g, cfg := newTestGenerator(t, root, &clock{t: time.Now()})
	cfg.Project.Root = filepath.Join(root, "missing")

	_, err := g.Run(t.Context(), RunOptions{})
	require.Error(t, err)
	assert.True(t, gderrors.IsCategory(err, gderrors.CategoryScan))
}

func TestRun_RecordsMetricsHistoryAndEvents(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)

	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	rec := metrics.NewPrometheusRecorder(nil)
	pub := &capturePublisher{}

	g, cfg := newConfiguredGenerator(t, root, &clock{t: time.Now()}, func(cfg *config.Config) {
		cfg.Metrics.Textfile = filepath.Join(root, "metrics", "gendocs.prom")
	}, WithRecorder(rec), WithHistory(store), WithPublisher(pub))

	res, err := g.Run(t.Context(), RunOptions{})
	require.NoError(t, err)

	runs, err := store.Recent(t.Context(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, CommandGenerate, runs[0].Command)
	assert.Equal(t, history.OutcomeSuccess, runs[0].Outcome)
	assert.Equal(t, "0123456", runs[0].Commit)
	assert.Len(t, runs[0].Documents, 4)

	require.Len(t, pub.events, 1)
	assert.Equal(t, res.RunID, pub.events[0].RunID)
	assert.Equal(t, "widget", pub.events[0].Project)
	assert.True(t, pub.events[0].Changed())

	text, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(text), `gendocs_documents_total{document="overview",status="created"} 1`)
	assert.Contains(t, string(text), `gendocs_runs_total{outcome="success"} 1`)

	// The textfile lives under the root but must not make the next run stale.
	res, err = g.Run(t.Context(), RunOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Changed())
}

func TestCheck(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	g, cfg := newTestGenerator(t, root, &clock{t: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)})

	res, err := g.Check(t.Context(), nil)
	require.Error(t, err)
	assert.True(t, gderrors.IsCategory(err, gderrors.CategoryStale))
	for _, d := range res.Documents {
		assert.Equal(t, CheckMissing, d.State())
		assert.NoFileExists(t, d.Path)
	}

	_, err = g.Run(t.Context(), RunOptions{})
	require.NoError(t, err)

	res, err = g.Check(t.Context(), nil)
	require.NoError(t, err)
	for _, d := range res.Documents {
		assert.Equal(t, CheckOK, d.State(), d.Kind)
	}

	// Hand edit below the frontmatter.
	path := cfg.OutputPath(config.DocTesting)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(data, []byte("\nlocal notes\n")...), 0o600))

	// Stale README.
	require.NoError(t, os.WriteFile(cfg.OutputPath(config.DocReadme), []byte("# old\n"), 0o600))

	res, err = g.Check(t.Context(), nil)
	require.Error(t, err)
	states := map[config.DocumentKind]CheckState{}
	for _, d := range res.Documents {
		states[d.Kind] = d.State()
	}
	assert.Equal(t, CheckEdited, states[config.DocTesting])
	assert.Equal(t, CheckStale, states[config.DocReadme])
	assert.Equal(t, CheckOK, states[config.DocOverview])

	ce, ok := gderrors.As(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{path, cfg.OutputPath(config.DocReadme)}, ce.Context["documents"])
}

func TestWriteAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path := filepath.Join(dir, "README.md")

	require.NoError(t, writeAtomic(path, []byte("one")))
	require.NoError(t, writeAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
