package grader

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/greenbench/comtrade-bench/internal/artifact"
	"github.com/greenbench/comtrade-bench/internal/canonical"
	"github.com/greenbench/comtrade-bench/internal/domain"
	"github.com/greenbench/comtrade-bench/internal/retrieval"
	"github.com/greenbench/comtrade-bench/internal/runlog"
)

// Baseline runs the reference retrieval pipeline for a task and writes a
// contract-compliant artifact: fetch all pages, canonicalize, persist.
type Baseline struct {
	source retrieval.Source
	log    logrus.FieldLogger

	// backoffUnit scales the retry backoff; tests shrink it.
	backoffUnit time.Duration
}

// NewBaseline returns a baseline runner against the given record source.
func NewBaseline(source retrieval.Source, logger logrus.FieldLogger) *Baseline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Baseline{source: source, log: logger, backoffUnit: time.Second}
}

// Run executes spec against the source and writes the artifact to outDir.
func (b *Baseline) Run(ctx context.Context, spec domain.TaskSpec, outDir string) error {
	start := time.Now()
	rec := runlog.New(b.log.WithField("task_id", spec.TaskID))
	rec.Infof("task %s: starting retrieval (mode=%s page_size=%d)",
		spec.TaskID, spec.Constraints.PagingMode, spec.Constraints.PageSize)

	if err := b.source.Configure(ctx, spec); err != nil {
		return fmt.Errorf("configure source for %s: %w", spec.TaskID, err)
	}

	engine := retrieval.NewEngine(b.source, retrieval.DefaultPolicy(b.backoffUnit), rec)
	rows, stats := engine.FetchAll(ctx, spec)

	dedupKey := domain.DefaultDedupKey()
	canon := canonical.Canonicalize(rows, canonical.Options{
		DedupKey:   dedupKey,
		DropTotals: spec.TotalsHandlingRequired(),
		Log:        rec,
	})

	rec.Infof("task %s: writing %d rows to %s", spec.TaskID, len(canon.Rows), outDir)
	return artifact.Write(outDir, artifact.WriteInput{
		Spec:          spec,
		Rows:          canon.Rows,
		DedupKey:      dedupKey,
		TotalsDropped: canon.TotalsDropped,
		Stats:         stats,
		Log:           rec,
		Elapsed:       time.Since(start),
	})
}
