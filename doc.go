// Package analytix provides an automated analytical pipeline for tabular
// data: ingestion with semantic type inference, cleaning, feature
// engineering, model training with hyperparameter search, experiment
// tracking, drift detection and explainability.
//
// # Quick Start
//
// The pipeline package wires every stage together:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "os"
//
//	    "github.com/analytix-ai/analytix-go/pipeline"
//	)
//
//	func main() {
//	    f, err := os.Open("churn.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer f.Close()
//
//	    p := pipeline.New()
//	    result, err := p.Run(context.Background(), f, "churn.csv", "churned",
//	        pipeline.RunOptions{OptimizeAccuracy: true})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fmt.Println("best model:", result.Training.Best.ModelName)
//	    fmt.Println("metrics:", result.Training.Best.Metrics)
//	}
//
// # Packages
//
//   - dataset: typed columns, CSV/Excel loading, type inference, profiling
//   - clean: deduplication, imputation, outlier clipping, skew correction
//   - feature: selection, encoding, robust scaling, recursive elimination
//   - train: problem type detection, roster training, randomized search
//   - linear, tree: the model families behind the roster
//   - metrics: evaluation measures for both problem types
//   - experiment: append-only run tracking backed by SQLite
//   - drift: population stability index monitoring
//   - explain: global and local feature attributions
//   - intent: next-action recommendations from a dataset profile
//   - config: every tunable threshold in one place
//
// Individual stages are usable on their own; each accepts a Config and a
// Logger so runs stay isolated.
package analytix
