package generator

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tristendillon/doppelganger/core/ast"
	"github.com/tristendillon/doppelganger/core/cache"
	"github.com/tristendillon/doppelganger/core/codegen"
	"github.com/tristendillon/doppelganger/core/config"
	"github.com/tristendillon/doppelganger/core/logger"
	"github.com/tristendillon/doppelganger/core/models"
	"github.com/tristendillon/doppelganger/core/stub"
	"github.com/tristendillon/doppelganger/core/walker"
	"github.com/tristendillon/doppelganger/core/writer"
)

// DoppelgangerGenerator regenerates a full stub mirror of a source tree.
// Files are independent work items processed by cfg.Workers goroutines.
type DoppelgangerGenerator struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	walker  *walker.TreeWalkerImpl
	parser  *ast.Parser
	stubber *stub.Transformer
	cache   *cache.OutputCache
}

type Option func(*DoppelgangerGenerator)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(g *DoppelgangerGenerator) { g.log = log }
}

// WithCache reuses generated output for files whose content is unchanged.
func WithCache(c *cache.OutputCache) Option {
	return func(g *DoppelgangerGenerator) { g.cache = c }
}

func NewDoppelgangerGenerator(cfg *config.Config, opts ...Option) *DoppelgangerGenerator {
	if cfg == nil {
		cfg = config.Default()
	}
	g := &DoppelgangerGenerator{cfg: cfg}
	for _, opt := range opts {
		opt(g)
	}
	g.log = logger.OrDefault(g.log, "generator")
	g.walker = walker.NewTreeWalker(cfg, g.log.Named("walker"))
	g.parser = ast.NewParser(g.log.Named("parser"))
	g.stubber = stub.NewTransformer()
	return g
}

// Generate walks srcRoot and writes the stub of every eligible file to the
// same relative path under dstRoot. The returned report is non-nil even when
// the run fails. Per-file parse, read and write failures are recorded and
// skipped unless cfg.FailFast is set; directory and serialization failures
// always abort.
func (g *DoppelgangerGenerator) Generate(ctx context.Context, srcRoot, dstRoot string) (*models.Report, error) {
	report := models.NewReport(srcRoot, dstRoot)
	g.log.Infof("Generating doppelganger of %s into %s", srcRoot, dstRoot)

	eg, egCtx := errgroup.WithContext(ctx)
	jobs := make(chan models.PathMapping)

	eg.Go(func() error {
		defer close(jobs)
		return g.walker.Walk(egCtx, srcRoot, dstRoot, walker.Callbacks{
			File: func(m models.PathMapping) error {
				select {
				case jobs <- m:
					return nil
				case <-egCtx.Done():
					return egCtx.Err()
				}
			},
			Dir:     report.AddDirectory,
			Skipped: report.AddSkipped,
		})
	})

	for i := 0; i < g.cfg.Workers; i++ {
		eg.Go(func() error {
			for m := range jobs {
				if err := g.processFile(egCtx, m, report); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := eg.Wait()
	report.Finish()
	if g.cache != nil {
		g.cache.LogStats()
	}
	if err != nil {
		return report, errors.Wrap(err, "doppelganger generation aborted")
	}

	g.log.Infof("Generated %d files (%d failed, %d skipped) in %s",
		len(report.Succeeded()), len(report.Failed()), len(report.Skipped()), report.Duration)
	return report, nil
}

func (g *DoppelgangerGenerator) processFile(ctx context.Context, m models.PathMapping, report *models.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cached, err := g.generateFile(ctx, m)
	if err == nil {
		report.AddResult(models.FileResult{Mapping: m, Status: models.StatusOK, Cached: cached})
		g.log.Debugf("Generated %s", m.Rel)
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	report.AddResult(models.FileResult{Mapping: m, Status: models.StatusFailed, Kind: models.KindOf(err), Err: err})
	if models.IsFatal(err) || g.cfg.FailFast {
		return err
	}
	g.log.Warnf("Skipping %s: %v", m.Rel, err)
	return nil
}

func (g *DoppelgangerGenerator) generateFile(ctx context.Context, m models.PathMapping) (bool, error) {
	src, err := os.ReadFile(m.Source)
	if err != nil {
		return false, errors.Mark(errors.Wrapf(err, "failed to read %s", m.Source), models.ErrRead)
	}

	out, cached := g.lookup(m.Source, src)
	if !cached {
		out, err = g.Stub(ctx, m.Source, src)
		if err != nil {
			return false, err
		}
		if g.cache != nil {
			g.cache.Set(m.Source, src, out)
		}
	}

	return cached, writer.WriteFile(m.Dest, out)
}

func (g *DoppelgangerGenerator) lookup(path string, src []byte) ([]byte, bool) {
	if g.cache == nil {
		return nil, false
	}
	return g.cache.Get(path, src)
}

// Stub runs parse, transform, serialize and format on one file's content.
func (g *DoppelgangerGenerator) Stub(ctx context.Context, path string, src []byte) ([]byte, error) {
	mod, err := g.parser.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}
	return codegen.Render(g.stubber.Transform(mod))
}
