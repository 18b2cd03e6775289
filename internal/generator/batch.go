package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-wcet-smt/internal/scanner"
	"github.com/l3aro/go-wcet-smt/pkg/dirty"
)

// OutputExt is the extension of generated problems.
const OutputExt = ".smt2"

// BatchOptions configures a batch run over a directory.
type BatchOptions struct {
	// Include lists the doublestar patterns inputs must match.
	Include []string
	// OutputDir receives the problems, mirroring the input tree. Empty
	// writes each problem next to its input.
	OutputDir string
	// CacheDir holds the tracker state; relative paths are resolved
	// against the batch root.
	CacheDir string
	// Force regenerates every input.
	Force bool
	// Jobs bounds the concurrent generations; values below 1 mean 1.
	Jobs int
}

// BatchItem is the outcome for one input.
type BatchItem struct {
	Input   string
	Output  string
	Skipped bool
	Err     error
}

// BatchSummary collects the items of a batch run, sorted by input.
type BatchSummary struct {
	Items  []BatchItem
	Pruned int
}

// Counts returns how many inputs were generated, skipped and failed.
func (s *BatchSummary) Counts() (generated, skipped, failed int) {
	for _, it := range s.Items {
		switch {
		case it.Err != nil:
			failed++
		case it.Skipped:
			skipped++
		default:
			generated++
		}
	}
	return generated, skipped, failed
}

// Batch generates a problem for every input under root. Inputs whose
// contents, companion files and generator options are unchanged since the
// last run are skipped. A failing input does not stop the others; its error
// is reported in its item.
func (g *Generator) Batch(ctx context.Context, root string, bo BatchOptions) (*BatchSummary, error) {
	sopts := scanner.DefaultOptions()
	if len(bo.Include) > 0 {
		sopts.Include = bo.Include
	}
	files, err := scanner.New(sopts).Scan(root)
	if err != nil {
		return nil, err
	}

	cacheDir := bo.CacheDir
	if cacheDir == "" {
		cacheDir = dirty.DefaultCacheDir
	}
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(root, cacheDir)
	}
	tracker := dirty.New(dirty.WithCacheDir(cacheDir))
	if err := tracker.Load(); err != nil {
		g.logger.Warn("ignoring unreadable batch cache", "dir", cacheDir, "err", err)
		tracker = dirty.New(dirty.WithCacheDir(cacheDir))
	}

	jobs := bo.Jobs
	if jobs < 1 {
		jobs = 1
	}

	var (
		mu    sync.Mutex
		items = make([]BatchItem, 0, len(files))
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for _, fi := range files {
		fi := fi
		eg.Go(func() error {
			item := g.batchOne(ctx, tracker, fi, bo)
			if item.Err != nil {
				g.logger.Error("generation failed", "input", fi.Path, "err", item.Err)
			}
			mu.Lock()
			items = append(items, item)
			mu.Unlock()
			// Cancellation is the only error that stops the batch.
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Input < items[j].Input })
	summary := &BatchSummary{Items: items}

	keep := make([]string, 0, len(files))
	for _, fi := range files {
		keep = append(keep, fi.FullPath)
	}
	summary.Pruned = tracker.Prune(keep)
	if err := tracker.Save(); err != nil {
		return summary, fmt.Errorf("saving batch cache: %w", err)
	}
	return summary, nil
}

func (g *Generator) batchOne(ctx context.Context, tracker *dirty.Tracker, fi scanner.FileInfo, bo BatchOptions) BatchItem {
	item := BatchItem{Input: fi.Path, Output: g.outputPath(fi, bo.OutputDir)}

	digest, err := g.inputDigest(fi)
	if err != nil {
		item.Err = err
		return item
	}
	if !bo.Force && !tracker.Stale(fi.FullPath, digest) {
		item.Skipped = true
		g.logger.Debug("up to date", "input", fi.Path)
		return item
	}

	opts := g.opts
	opts.MatchingFile = fi.Matching
	opts.CutsFile = fi.Cuts
	opts.LabelMapFile, opts.LongestPathFile, opts.CutListFile = "", "", ""

	res, err := New(opts, g.logger).Run(ctx, fi.FullPath)
	if err != nil {
		tracker.Forget(fi.FullPath)
		item.Err = err
		return item
	}
	if err := WriteProblem(res.Env, item.Output, nil); err != nil {
		item.Err = err
		return item
	}
	tracker.Record(fi.FullPath, digest, item.Output)
	g.logger.Debug("generated", "input", fi.Path, "output", item.Output, "cuts", res.Stats.Cuts)
	return item
}

// inputDigest hashes an input together with its companions and the options
// that change the generated problem.
func (g *Generator) inputDigest(fi scanner.FileInfo) (string, error) {
	salts := []string{g.fingerprint()}
	for _, companion := range []string{fi.Matching, fi.Cuts} {
		if companion == "" {
			salts = append(salts, "")
			continue
		}
		d, err := dirty.DigestFile(companion)
		if err != nil {
			return "", err
		}
		salts = append(salts, d)
	}
	return dirty.DigestFile(fi.FullPath, salts...)
}

func (g *Generator) fingerprint() string {
	o := g.opts
	return fmt.Sprintf("enc=%d edge-implies-nodes=%t no-summaries=%t recursive-cuts=%t timeout=%d produce-models=%t",
		o.Encoding, o.EdgeImpliesNodes, o.NoSummaries, o.RecursiveCuts, o.Timeout, o.ProduceModels)
}

func (g *Generator) outputPath(fi scanner.FileInfo, outDir string) string {
	stem := scanner.Stem(filepath.Base(fi.FullPath)) + OutputExt
	if outDir == "" {
		return filepath.Join(filepath.Dir(fi.FullPath), stem)
	}
	rel := filepath.FromSlash(fi.Path)
	return filepath.Join(outDir, filepath.Dir(rel), stem)
}
