package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"grimm.is/nereon/internal/i18n"
	"grimm.is/nereon/internal/nereon"
	"grimm.is/nereon/internal/testutil"
)

const sampleConfig = `
name  = "edge"
ports = [80, 443]

server "main" {
  enabled = true
  ratio   = 0.25
}
`

func TestMain(m *testing.M) {
	// Deterministic English output regardless of the test host's locale
	Printer = i18n.NewPrinter(language.English)
	os.Exit(m.Run())
}

func hclSource(path string) Source {
	return Source{Config: path, Backend: nereon.BackendHCL}
}

func TestRunShow(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunShow(&out, hclSource(testutil.WriteFile(t, "app.hcl", sampleConfig))))

	text := out.String()
	for _, want := range []string{"object {3}", "name", `"edge"`, "[1]", "443", "main", "true", "0.25"} {
		assert.Contains(t, text, want)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Len(t, lines, 9)
}

func TestRunShowNoConfig(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunShow(&out, Source{Backend: nereon.BackendHCL}))
	assert.Equal(t, "no configuration loaded\n", out.String())
}

func TestRunCheck_ValidConfig(t *testing.T) {
	cfg := testutil.WriteFile(t, "valid.hcl", sampleConfig)
	meta := testutil.WriteFile(t, "meta.hcl", `
option "name" {
  type = "string"
}
`)
	var out bytes.Buffer
	src := Source{Config: cfg, Meta: meta, Backend: nereon.BackendHCL}
	if err := RunCheck(&out, src); err != nil {
		t.Fatalf("RunCheck() error = %v", err)
	}
	assert.Contains(t, out.String(), "ok (9 nodes)")
	assert.Contains(t, out.String(), "Metadata: 1 options")
}

func TestRunCheck_InvalidConfig(t *testing.T) {
	cfg := testutil.WriteFile(t, "invalid.hcl", `
server "main" {
    # Missing closing brace
`)
	var out bytes.Buffer
	err := RunCheck(&out, hclSource(cfg))
	require.Error(t, err)
	assert.ErrorIs(t, err, nereon.ErrOpenFailed)
}

func TestRunCheck_NoFiles(t *testing.T) {
	assert.Error(t, RunCheck(&bytes.Buffer{}, Source{}))
}

func TestRunExport(t *testing.T) {
	cfg := testutil.WriteFile(t, "app.hcl", sampleConfig)

	tests := []struct {
		format string
		want   []string
	}{
		{FormatHCL, []string{`name  = "edge"`, "server {", "main {"}},
		{FormatYAML, []string{"name: edge", "- 80", "ratio: 0.25"}},
		{FormatJSON, []string{`"name": "edge"`, `"enabled": true`}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, RunExport(&out, hclSource(cfg), tt.format))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}

	err := RunExport(&bytes.Buffer{}, hclSource(cfg), "toml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestRunExportRoundTrip(t *testing.T) {
	cfg := testutil.WriteFile(t, "app.hcl", sampleConfig)
	first, err := hclSource(cfg).Decode()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RunExport(&out, hclSource(cfg), FormatHCL))
	again, err := hclSource(testutil.WriteFile(t, "again.hcl", out.String())).Decode()
	require.NoError(t, err)
	assert.True(t, first.Equal(again), "exported HCL decodes to the same tree:\n%s", out.String())
}

func TestRunDiff(t *testing.T) {
	a := testutil.WriteFile(t, "a.hcl", "port = 80\nname = \"x\"\n")
	b := testutil.WriteFile(t, "b.hcl", "port = 81\nname = \"x\"\n")

	var out bytes.Buffer
	require.NoError(t, RunDiff(&out, hclSource(a), hclSource(a)))
	assert.Equal(t, "trees are identical\n", out.String())

	out.Reset()
	err := RunDiff(&out, hclSource(a), hclSource(b))
	assert.ErrorIs(t, err, ErrTreesDiffer)
	assert.Contains(t, out.String(), "-port: 80")
	assert.Contains(t, out.String(), "+port: 81")
}

func TestRunSoak(t *testing.T) {
	cfg := testutil.WriteFile(t, "app.hcl", sampleConfig)
	var out bytes.Buffer
	require.NoError(t, RunSoak(&out, hclSource(cfg), 200))
	assert.Equal(t, "200 cycles, 9 nodes each, 0 contexts left open\n", out.String())

	assert.Error(t, RunSoak(&out, hclSource(cfg), 0))
}

func TestRunWatchStopsOnCancel(t *testing.T) {
	cfg := testutil.WriteFile(t, "app.hcl", sampleConfig)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, RunWatch(ctx, &out, hclSource(cfg), ""))
	assert.Contains(t, out.String(), "reloaded "+cfg+" (9 nodes)")
}

func TestUnknownBackend(t *testing.T) {
	_, err := Source{Config: "x", Backend: "sqlite"}.Decode()
	assert.ErrorContains(t, err, "unknown backend")
}
