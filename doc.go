// Package dimarray provides labeled multi-dimensional arrays for Go,
// designed for time-series analytics and scientific data pipelines.
//
// dimarray offers an xarray/pandas-like API in which array axes are
// addressed by dimension name instead of integer position, so that
// aggregation, grouping and resampling code stays readable as data
// flows through reshaping operations.
//
// # Features
//
// - Named dimensions: reductions and selections take dimension names
// - Synthesized aggregations: sum/mean/std/... share one dispatch table
// - GroupBy and Resample: split-apply-combine over values or time buckets
// - Missing-value semantics: NaN-aware skipna with dtype promotion
// - Structured logging and rich errors via zerolog and cockroachdb/errors
//
// # Installation
//
// Install dimarray using go get:
//
//	go get github.com/YuminosukeSato/dimarray
//
// # Quick Start
//
// Here's a simple example of grouping a labeled array:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/dimarray"
//	    "github.com/YuminosukeSato/dimarray/ndarray"
//	)
//
//	func main() {
//	    values, _ := ndarray.NewFloat64([]float64{1, 2, 3, 4, 5, 6}, 6)
//	    da, err := dimarray.NewDataArray("t2m", values, []string{"time"})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    labels, _ := ndarray.NewString([]string{"a", "a", "b", "b", "a", "b"}, 6)
//	    key, _ := dimarray.NewDataArray("station", labels, []string{"time"})
//
//	    gb, err := da.GroupByArray(key, false)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    sums, err := gb.Sum(dimarray.GroupByOpts{})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fmt.Println(sums) // station=a -> 8, station=b -> 13
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - dimarray: DataArray and Dataset containers, reductions, groupby, resample
//   - ndarray: dense row-major arrays with a tagged dtype
//   - freq: frequency parsing and time-bucket edge generation
//   - viz: line plots built on gonum/plot
//   - core/dims: dimension-name axis resolution
//   - core/dtype: missing-value dtype promotion
//   - pkg/errors: typed errors with stack traces and warnings
//   - pkg/log: structured logging helpers
//
// # Error Handling
//
// All operations return explicit errors with stack traces attached.
// Lossy dtype promotions are reported through the package-level warning
// handler (see pkg/errors.SetWarningHandler) instead of failing.
package dimarray
