package main

import (
	"fmt"
	"io"
	"time"

	"sealant/internal/pipeline"
)

func printStageTimings(out io.Writer, timings pipeline.Timings, includeFlush bool) {
	if out == nil {
		return
	}
	var printErr error
	if timings.Has(pipeline.StageGraph) || timings.Has(pipeline.StageCycles) {
		graphed := timings.Sum(pipeline.StageGraph, pipeline.StageCycles)
		_, printErr = fmt.Fprintf(out, "graphed %.1f ms\n", toMillis(graphed))
		if printErr != nil {
			panic(printErr)
		}
	}
	if timings.Has(pipeline.StagePatch) || timings.Has(pipeline.StageFill) {
		hashed := timings.Sum(pipeline.StagePatch, pipeline.StageFill)
		_, printErr = fmt.Fprintf(out, "hashed %.1f ms\n", toMillis(hashed))
		if printErr != nil {
			panic(printErr)
		}
	}
	if timings.Has(pipeline.StageTags) {
		_, printErr = fmt.Fprintf(out, "tagged %.1f ms\n", toMillis(timings.Duration(pipeline.StageTags)))
		if printErr != nil {
			panic(printErr)
		}
	}
	if includeFlush && timings.Has(pipeline.StageFlush) {
		_, printErr = fmt.Fprintf(out, "wrote %.1f ms\n", toMillis(timings.Duration(pipeline.StageFlush)))
		if printErr != nil {
			panic(printErr)
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
