package converter

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// writeScript creates an executable stub standing in for the office
// converter binary. Invocation shape is
// <binary> --headless --convert-to pdf <input> --outdir <outdir>,
// so $4 is the input path and $6 the output directory.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soffice-stub")
	script := "#!/bin/sh\ninput=\"$4\"\noutdir=\"$6\"\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeInput(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("some office document"), 0o644))
	return path
}

func TestConvertSuccess(t *testing.T) {
	binary := writeScript(t, `base=$(basename "$input"); base="${base%.*}"
printf '%%PDF-1.4 converted' > "$outdir/$base.pdf"`)
	outDir := filepath.Join(t.TempDir(), "out")
	inv := New(binary, outDir, 5*time.Second, testLogger())

	artifact, err := inv.Convert(context.Background(), writeInput(t, "report.docx"))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", artifact.Name)
	assert.Equal(t, int64(len("%PDF-1.4 converted")), artifact.Size)
	assert.Contains(t, string(artifact.Data), "%PDF")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "run directory must be cleaned up")
}

func TestConvertProcessFailed(t *testing.T) {
	binary := writeScript(t, "exit 3")
	inv := New(binary, t.TempDir(), 5*time.Second, testLogger())

	_, err := inv.Convert(context.Background(), writeInput(t, "report.docx"))
	require.Error(t, err)
	assert.Equal(t, ProcessFailed, KindOf(err))

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.ExitCode)
}

func TestConvertTimeoutKillsProcess(t *testing.T) {
	binary := writeScript(t, "sleep 10")
	inv := New(binary, t.TempDir(), 200*time.Millisecond, testLogger())

	start := time.Now()
	_, err := inv.Convert(context.Background(), writeInput(t, "slow.docx"))
	require.Error(t, err)
	assert.Equal(t, Timeout, KindOf(err))
	assert.Less(t, time.Since(start), 5*time.Second, "process must be killed at the deadline, not awaited")
}

// The real office binary is a wrapper that forks helpers holding the stderr
// pipe; the timeout must kill the whole tree, not just the direct child.
func TestConvertTimeoutKillsForkedChildren(t *testing.T) {
	binary := writeScript(t, "sleep 8 &\nwait")
	inv := New(binary, t.TempDir(), 300*time.Millisecond, testLogger())

	start := time.Now()
	_, err := inv.Convert(context.Background(), writeInput(t, "slow.docx"))
	require.Error(t, err)
	assert.Equal(t, Timeout, KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second, "forked children must not be awaited")
}

// A killed run's half-written PDF must never be committed by a later run of
// the same input name.
func TestConvertTimeoutLeavesNoPartialArtifact(t *testing.T) {
	outDir := t.TempDir()
	input := writeInput(t, "report.docx")

	partial := writeScript(t, `base=$(basename "$input"); base="${base%.*}"
printf 'PARTIAL' > "$outdir/$base.pdf"
sleep 8`)
	inv := New(partial, outDir, 300*time.Millisecond, testLogger())
	_, err := inv.Convert(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, Timeout, KindOf(err))

	silent := writeScript(t, "exit 0")
	inv = New(silent, outDir, 5*time.Second, testLogger())
	_, err = inv.Convert(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, ArtifactMissing, KindOf(err), "leftover bytes from the killed run must not be accepted")
}

// A PDF already sitting in the output directory (say, from another record
// with the same base name) is not this run's output.
func TestConvertIgnoresStaleOutput(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "report.pdf"), []byte("stale"), 0o644))

	binary := writeScript(t, "exit 0")
	inv := New(binary, outDir, 5*time.Second, testLogger())

	_, err := inv.Convert(context.Background(), writeInput(t, "report.docx"))
	require.Error(t, err)
	assert.Equal(t, ArtifactMissing, KindOf(err))
}

func TestConvertArtifactMissing(t *testing.T) {
	binary := writeScript(t, "exit 0")
	inv := New(binary, t.TempDir(), 5*time.Second, testLogger())

	_, err := inv.Convert(context.Background(), writeInput(t, "report.docx"))
	require.Error(t, err)
	assert.Equal(t, ArtifactMissing, KindOf(err))
}

func TestConvertEmptyArtifact(t *testing.T) {
	binary := writeScript(t, `base=$(basename "$input"); base="${base%.*}"
: > "$outdir/$base.pdf"`)
	inv := New(binary, t.TempDir(), 5*time.Second, testLogger())

	_, err := inv.Convert(context.Background(), writeInput(t, "report.docx"))
	require.Error(t, err)
	assert.Equal(t, EmptyArtifact, KindOf(err))
}

func TestConvertCreatesOutputDir(t *testing.T) {
	binary := writeScript(t, `base=$(basename "$input"); base="${base%.*}"
printf 'x' > "$outdir/$base.pdf"`)
	outDir := filepath.Join(t.TempDir(), "nested", "out")
	inv := New(binary, outDir, 5*time.Second, testLogger())

	_, err := inv.Convert(context.Background(), writeInput(t, "report.docx"))
	require.NoError(t, err)
	_, statErr := os.Stat(outDir)
	assert.NoError(t, statErr)
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(os.ErrNotExist))
	assert.Equal(t, Kind(""), KindOf(nil))
}
