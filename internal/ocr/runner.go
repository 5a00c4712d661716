package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-ledger/internal/common"
)

// maxStderrLog caps the stderr copied into a failure log.
const maxStderrLog = 8 << 10

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// execRunner runs poppler and tesseract binaries. A binary missing from PATH
// is reported by name so the adapter error says which tool to install.
type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	log := common.LoggerFromContext(ctx, r.logger).With(
		"req_id", common.RequestIDFromContext(ctx),
		"cmd", name,
	)
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	switch {
	case errors.Is(err, exec.ErrNotFound):
		log.Error("ocr.exec.missing", "error", err)
		return nil, nil, fmt.Errorf("%s is not installed: %w", name, err)
	case err != nil:
		log.Error("ocr.exec.failed",
			"args", strings.Join(args, " "),
			"elapsed_ms", elapsed,
			"error", err,
			"stderr", truncate(errb.String(), maxStderrLog),
		)
	default:
		log.Debug("ocr.exec.ok",
			"elapsed_ms", elapsed,
			"stdout_bytes", out.Len(),
			"stderr_bytes", errb.Len(),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
