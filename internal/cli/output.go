package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aird-ai/aird/internal/report"
)

// Output format selectors. Anything shaped `json:<path>` writes a pretty
// JSON file; other unrecognised values fall back per command (markdown for
// reports, a bare file path for discover).
const (
	formatStdout   = "stdout"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

func isJSONPath(format string) bool {
	return strings.HasPrefix(format, "json:") && len(format) > len("json:")
}

func jsonPath(format string) string {
	return strings.TrimPrefix(format, "json:")
}

func stdoutIsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// writeStdout writes s to stdout with a guaranteed trailing newline.
func writeStdout(s string) {
	fmt.Fprint(os.Stdout, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(os.Stdout)
	}
}

func marshalJSON(v interface{}, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func writeJSONTo(w io.Writer, v interface{}, pretty bool) error {
	data, err := marshalJSON(v, pretty)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeJSONFile writes v as pretty-printed JSON to path.
func writeJSONFile(v interface{}, path string) error {
	data, err := marshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return nil
}

// writeOutput routes v by format: stdout/json emit JSON on stdout (pretty
// controls indentation), json:<path> writes a pretty file, and anything else
// renders markdown when a renderer is given, falling back to stdout JSON.
func writeOutput(v interface{}, format string, markdown func() string, pretty bool) error {
	switch {
	case format == formatStdout || format == formatJSON:
		return writeJSONTo(os.Stdout, v, pretty)
	case isJSONPath(format):
		return writeJSONFile(v, jsonPath(format))
	case markdown != nil:
		writeStdout(markdown())
		return nil
	default:
		return writeJSONTo(os.Stdout, v, pretty)
	}
}

// writeReport routes a report artifact. Markdown on a terminal becomes the
// coloured rendering on stderr with stdout left empty, so redirecting stdout
// always captures clean machine output.
func writeReport(rep *report.Report, format string) error {
	if format == formatMarkdown && stdoutIsTTY() {
		renderReport(os.Stderr, rep)
		return nil
	}
	return writeOutput(rep, format, func() string { return report.ToMarkdown(rep) }, false)
}
