package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/mcpstd/pkg/manager"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

// Write renders rep as Markdown into <root>/validation_report.md and returns
// the written path.
func Write(rep *manager.Report) (string, error) {
	path := filepath.Join(rep.Root, standard.ReportFile)
	if err := AtomicWrite(path, []byte(Markdown(rep))); err != nil {
		return "", err
	}
	return path, nil
}

// AtomicWrite writes content to a temp file in the target directory and
// renames it over path, so readers never see a partial report.
func AtomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".report-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		tmpFile.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("moving temp file to %s: %w", path, err)
	}
	return nil
}
