package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
)

type call struct {
	name string
	args []string
}

type stubRunner struct {
	calls  []call
	byName map[string]func(args []string) ([]byte, []byte, error)
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, call{name: name, args: args})
	if fn, ok := s.byName[name]; ok {
		return fn(args)
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func TestExtractPDFTextLayer(t *testing.T) {
	r := &stubRunner{byName: map[string]func([]string) ([]byte, []byte, error){
		"pdftotext": func([]string) ([]byte, []byte, error) {
			return []byte("INVOICE\t\t#1001\r\n----------\nAlice    22.00\n\n\n\nThanks\f"), nil, nil
		},
	}}
	e := NewExtractor(Config{MaxPages: 1}, nil, WithRunner(r))

	res, err := e.Extract(context.Background(), "/tmp/invoice.PDF")
	require.NoError(t, err)
	assert.Equal(t, constants.PDF, res.SourceType)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "INVOICE #1001\n\nAlice 22.00\n\nThanks", res.Text)

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "-f", "1", "-l", "1", "/tmp/invoice.PDF", "-"}, r.calls[0].args)
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	r := &stubRunner{byName: map[string]func([]string) ([]byte, []byte, error){
		"pdftotext": func([]string) ([]byte, []byte, error) { return []byte("  \f"), nil, nil },
		"pdftoppm": func(args []string) ([]byte, []byte, error) {
			prefix := args[len(args)-1]
			return nil, nil, os.WriteFile(prefix+"-1.png", []byte("png"), 0o600)
		},
		"tesseract": func(args []string) ([]byte, []byte, error) {
			assert.True(t, strings.HasSuffix(args[0], "page-1.png"))
			return []byte("Scanned 10.00"), nil, nil
		},
	}}
	e := NewExtractor(Config{}, nil, WithRunner(r))

	res, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "scan.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, "Scanned 10.00", res.Text)
	assert.Equal(t, 1, res.Pages)
}

func TestExtractImage(t *testing.T) {
	r := &stubRunner{byName: map[string]func([]string) ([]byte, []byte, error){
		"tesseract": func(args []string) ([]byte, []byte, error) {
			assert.Equal(t, []string{"/tmp/a.png", "stdout", "-l", "eng", "--tessdata-dir", "/td"}, args)
			return []byte("Widget  2  x  10.00\n"), nil, nil
		},
	}}
	e := NewExtractor(Config{TessdataDir: "/td"}, nil, WithRunner(r))

	res, err := e.Extract(context.Background(), "/tmp/a.png")
	require.NoError(t, err)
	assert.Equal(t, constants.IMAGE, res.SourceType)
	assert.Equal(t, "Widget 2 x 10.00", res.Text)
}

func TestExtractImageFailure(t *testing.T) {
	r := &stubRunner{byName: map[string]func([]string) ([]byte, []byte, error){
		"tesseract": func([]string) ([]byte, []byte, error) { return nil, []byte("bad image"), errors.New("exit 1") },
	}}
	e := NewExtractor(Config{}, nil, WithRunner(r))
	res, err := e.Extract(context.Background(), "/tmp/a.jpg")
	require.Error(t, err)
	assert.Equal(t, []string{"bad image"}, res.Warnings)
}

func TestExtractUnsupported(t *testing.T) {
	e := NewExtractor(Config{}, nil, WithRunner(&stubRunner{}))
	_, err := e.Extract(context.Background(), "/tmp/a.docx")
	require.ErrorIs(t, err, common.ErrUnsupportedFileType)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := execRunner{logger: slog.Default()}
	_, _, err := r.Run(context.Background(), "ledger-no-such-tool")
	require.ErrorIs(t, err, exec.ErrNotFound)
	assert.Contains(t, err.Error(), "ledger-no-such-tool is not installed")
}
