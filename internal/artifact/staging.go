package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

// Stage copies the gradable files from src into dst, an isolated directory,
// so grading never races partial writes from whatever produced the artifact.
// Any previous staging content at dst is replaced. Missing optional files are
// skipped; missing required files are left for the judge to report with their
// proper code.
func Stage(src, dst string, maxElapsed time.Duration) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	names := append([]string{}, domain.RequiredFiles...)
	names = append(names, domain.ManifestFileName)
	for _, name := range names {
		srcPath := filepath.Join(src, name)
		if _, err := os.Stat(srcPath); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(srcPath, filepath.Join(dst, name), maxElapsed); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
	}
	return nil
}

// copyFile copies src to dst in chunks under the transient-error retry
// policy.
func copyFile(src, dst string, maxElapsed time.Duration) error {
	return withRetries(maxElapsed, func() error {
		in, err := os.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.Create(dst)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}
