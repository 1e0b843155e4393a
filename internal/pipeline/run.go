// Package pipeline runs the integrity pass as an explicit ordered
// sequence of phases over one build's snapshot: buildGraph,
// resolveCycles, patchAssets, fillMissing, injectTags, flush. Each
// phase's inputs are passed explicitly; nothing is registered with host
// callbacks and no state survives the run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"sealant/internal/bundle"
	"sealant/internal/chunkgraph"
	"sealant/internal/dcache"
	"sealant/internal/diag"
	"sealant/internal/observ"
	"sealant/internal/patch"
	"sealant/internal/registry"
	"sealant/internal/sri"
	"sealant/internal/tags"
)

// Request configures one integrity pass.
type Request struct {
	Snapshot   *bundle.Snapshot
	Algorithms []string
	Mode       patch.Mode

	// AllowRehash declares that later build steps revise records via
	// Registry.Rehash instead of invalidating them.
	AllowRehash bool

	// MaxDiagnostics caps the diagnostic bag. Zero means a default cap.
	MaxDiagnostics int

	// Cache, when set, serves repeated digest computations across builds.
	Cache *dcache.Cache

	// WriteAssets flushes mutated assets and the records file to the
	// output directory after the pass.
	WriteAssets bool

	Progress ProgressSink
}

// Result captures what one integrity pass produced.
type Result struct {
	Bag          *diag.Bag
	Timings      Timings
	Timing       observ.Report
	Stats        patch.Stats
	TagsInjected int

	// Records is the final asset -> integrity map.
	Records map[string]string

	// AssetsWritten lists flushed asset names, sorted.
	AssetsWritten []string
}

// Run executes the full integrity pass. Only configuration errors
// (unknown algorithm) and I/O failures during flush return an error;
// everything else degrades through the diagnostic bag.
func Run(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if req == nil || req.Snapshot == nil {
		return result, fmt.Errorf("missing pipeline request")
	}

	maxDiagnostics := req.MaxDiagnostics
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	bag := diag.NewBag(maxDiagnostics)
	result.Bag = bag
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})

	engine, err := sri.NewEngine(req.Algorithms)
	if err != nil {
		reporter.Report(diag.CfgUnknownAlgorithm, diag.SevError, diag.Ref{}, err.Error(), nil)
		return result, err
	}
	var hasher sri.Hasher = engine
	if req.Cache != nil {
		hasher = &dcache.CachedHasher{Engine: engine, Cache: req.Cache}
	}
	reg := registry.New(hasher)

	timer := observ.NewTimer()
	files := assetNames(req.Snapshot)
	emitQueued(req.Progress, files)

	// buildGraph
	if err := ctx.Err(); err != nil {
		return result, err
	}
	graph, cond := buildGraph(req, reporter, timer, &result)
	emitStage(req.Progress, files, StageGraph, StatusDone, nil, result.Timings.Duration(StageGraph))

	// patchAssets
	if err := ctx.Err(); err != nil {
		return result, err
	}
	emitStage(req.Progress, files, StagePatch, StatusWorking, nil, 0)
	idx := timer.Begin(string(StagePatch))
	start := time.Now()
	patcher := &patch.Patcher{
		Graph:       &graph,
		Snapshot:    req.Snapshot,
		Engine:      engine,
		Hasher:      hasher,
		Registry:    reg,
		Reporter:    reporter,
		AllowRehash: req.AllowRehash,
	}
	if req.Mode == patch.ModeLazy {
		result.Stats = patcher.RunLazy(cond)
	} else {
		result.Stats = patcher.RunEager()
	}
	timer.End(idx, fmt.Sprintf("%d assets", result.Stats.AssetsHashed))
	result.Timings.Set(StagePatch, time.Since(start))
	emitStage(req.Progress, files, StagePatch, StatusDone, nil, time.Since(start))

	// fillMissing
	idx = timer.Begin(string(StageFill))
	start = time.Now()
	filled := reg.FillMissing(req.Snapshot.Assets, assetReader(req.Snapshot), reporter)
	timer.End(idx, fmt.Sprintf("%d assets", filled))
	result.Timings.Set(StageFill, time.Since(start))

	// injectTags
	if err := ctx.Err(); err != nil {
		return result, err
	}
	emitStage(req.Progress, files, StageTags, StatusWorking, nil, 0)
	idx = timer.Begin(string(StageTags))
	start = time.Now()
	injector := &tags.Injector{
		Registry: reg,
		Hasher:   hasher,
		Output:   req.Snapshot.Output,
		Reporter: reporter,
	}
	result.TagsInjected = injector.Inject(req.Snapshot.Tags)
	timer.End(idx, fmt.Sprintf("%d tags", result.TagsInjected))
	result.Timings.Set(StageTags, time.Since(start))
	emitStage(req.Progress, files, StageTags, StatusDone, nil, time.Since(start))

	result.Records = reg.Records()

	// flush
	if req.WriteAssets {
		emitStage(req.Progress, files, StageFlush, StatusWorking, nil, 0)
		idx = timer.Begin(string(StageFlush))
		start = time.Now()
		written, err := req.Snapshot.FlushAssets()
		if err != nil {
			emitStage(req.Progress, files, StageFlush, StatusError, err, time.Since(start))
			return result, err
		}
		if err := dcache.WriteRecords(req.Snapshot.Output.Dir, engine.Names(), result.Records); err != nil {
			emitStage(req.Progress, files, StageFlush, StatusError, err, time.Since(start))
			return result, err
		}
		result.AssetsWritten = written
		timer.End(idx, fmt.Sprintf("%d assets", len(written)))
		result.Timings.Set(StageFlush, time.Since(start))
		emitStage(req.Progress, files, StageFlush, StatusDone, nil, time.Since(start))
	}

	bag.Sort()
	result.Timing = timer.Report()
	return result, nil
}

func buildGraph(req *Request, reporter diag.Reporter, timer *observ.Timer, result *Result) (chunkgraph.Graph, *chunkgraph.Condensation) {
	idx := timer.Begin(string(StageGraph))
	start := time.Now()
	graph := chunkgraph.Build(req.Snapshot, reporter)
	timer.End(idx, fmt.Sprintf("%d chunks", len(graph.Idx.IDToName)))
	result.Timings.Set(StageGraph, time.Since(start))

	// cycle resolution only feeds the lazy walk
	var cond *chunkgraph.Condensation
	if req.Mode == patch.ModeLazy {
		idx = timer.Begin(string(StageCycles))
		start = time.Now()
		cond = chunkgraph.Decompose(&graph)
		timer.End(idx, fmt.Sprintf("%d components", len(cond.Components)))
		result.Timings.Set(StageCycles, time.Since(start))
	}
	return graph, cond
}

func assetNames(snap *bundle.Snapshot) []string {
	names := make([]string, 0, len(snap.Assets))
	for name := range snap.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// assetReader reads an asset's bytes from the output directory, for
// assets whose content was never loaded into the snapshot.
func assetReader(snap *bundle.Snapshot) func(name string) ([]byte, error) {
	dir := snap.Output.Dir
	if dir == "" {
		return nil
	}
	return func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	}
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageGraph, Status: StatusQueued})
	}
}

func emitStage(sink ProgressSink, files []string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}
