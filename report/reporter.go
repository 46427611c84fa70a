package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cloudtrim/rightsizer/orchestrator"
)

// Format selects the output rendering
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatHTML    Format = "html"
)

// Renderer writes one run result in a single format
type Renderer interface {
	Render(w io.Writer, result *orchestrator.RunResult) error
}

// New returns the renderer for a format
func New(format Format) (Renderer, error) {
	switch format {
	case FormatConsole:
		return &ConsoleRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatCSV:
		return &CSVRenderer{}, nil
	case FormatHTML:
		return &HTMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// extensions maps formats to file extensions for saved reports
var extensions = map[Format]string{
	FormatConsole: "txt",
	FormatJSON:    "json",
	FormatCSV:     "csv",
	FormatHTML:    "html",
}

// Save renders the result into outputDir with a timestamped filename and
// returns the written path
func Save(result *orchestrator.RunResult, outputDir string, format Format) (string, error) {
	renderer, err := New(format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("rightsizer-%s.%s", result.GeneratedAt.Format("2006-01-02-150405"), extensions[format])
	path := filepath.Join(outputDir, name)

	f, err := os.Create(path) // #nosec G304 -- path derives from configured output dir
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := renderer.Render(f, result); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return path, nil
}
