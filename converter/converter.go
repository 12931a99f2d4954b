// Package converter drives the external headless office-to-PDF converter.
// It builds the command, enforces a wall-clock timeout, and inspects the
// produced artifact before reporting success.
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

type Kind string

const (
	Timeout         Kind = "timeout"
	ProcessFailed   Kind = "process_failed"
	ArtifactMissing Kind = "artifact_missing"
	EmptyArtifact   Kind = "empty_artifact"
)

// Error is a typed conversion failure. All kinds are recoverable: the caller
// keeps its prior converted artifact and may re-trigger the conversion.
type Error struct {
	Kind     Kind
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ProcessFailed:
		return fmt.Sprintf("conversion failed: converter exited with code %d", e.ExitCode)
	case Timeout:
		return "conversion failed: converter timed out"
	case ArtifactMissing:
		return "conversion failed: no PDF was produced"
	case EmptyArtifact:
		return "conversion failed: produced PDF is empty"
	default:
		return "conversion failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain, or "" if the error
// is not a conversion error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// Artifact is a verified, non-empty PDF produced by the converter. The bytes
// are fully read into memory; the on-disk run directory is gone by the time
// Convert returns.
type Artifact struct {
	Name string
	Data []byte
	Size int64
}

type Invoker struct {
	binary  string
	outDir  string
	timeout time.Duration
	logger  *logrus.Logger
}

func New(binary, outDir string, timeout time.Duration, logger *logrus.Logger) *Invoker {
	return &Invoker{binary: binary, outDir: outDir, timeout: timeout, logger: logger}
}

// Convert runs one converter process against inputPath and returns the
// verified PDF artifact. The converter writes `<base>.pdf` into a run
// directory that is private to this call and removed before Convert returns,
// so a killed run cannot leave a partial PDF for a later run to pick up. On
// timeout the whole process group is killed.
func (inv *Invoker) Convert(ctx context.Context, inputPath string) (*Artifact, error) {
	if err := os.MkdirAll(inv.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	runDir, err := os.MkdirTemp(inv.outDir, "run-")
	if err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	defer os.RemoveAll(runDir)

	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, inv.binary,
		"--headless", "--convert-to", "pdf", inputPath, "--outdir", runDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// The office binary is a wrapper that forks helper processes which
	// inherit the stderr pipe. Killing only the direct child would leave
	// them running and block Wait until they exit, so the whole tree runs
	// as one process group and the group is killed on cancel.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			if err == syscall.ESRCH {
				return os.ErrProcessDone
			}
			return err
		}
		return nil
	}
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	err = cmd.Run()
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		inv.logger.WithFields(logrus.Fields{
			"input":   inputPath,
			"elapsed": time.Since(start),
		}).Warn("converter timed out, process killed")
		return nil, &Error{Kind: Timeout, Err: ctx.Err()}
	}
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		inv.logger.WithFields(logrus.Fields{
			"input":     inputPath,
			"exit_code": exitCode,
			"stderr":    strings.TrimSpace(stderr.String()),
		}).Warn("converter process failed")
		return nil, &Error{Kind: ProcessFailed, ExitCode: exitCode, Err: err}
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outPath := filepath.Join(runDir, base+".pdf")

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, &Error{Kind: ArtifactMissing, Err: err}
	}
	if info.Size() == 0 {
		return nil, &Error{Kind: EmptyArtifact}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &Error{Kind: ArtifactMissing, Err: err}
	}

	inv.logger.WithFields(logrus.Fields{
		"input":   inputPath,
		"output":  base + ".pdf",
		"size":    info.Size(),
		"elapsed": time.Since(start),
	}).Info("conversion finished")

	return &Artifact{
		Name: base + ".pdf",
		Data: data,
		Size: info.Size(),
	}, nil
}
