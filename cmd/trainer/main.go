// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Command trainer trains an image classifier and writes its test metrics.
//
// Usage:
//
//	trainer [-config run.yaml] [-dataset mnist] [-data ./data] [-epochs 5] ...
//
// The final record is written as JSON to -metrics (default metrics.json),
// for example {"accuracy":0.9812,"epochs":5,"loss":0.061,"train_loss":0.043}.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/born-ml/trainer/internal/config"
	"github.com/born-ml/trainer/internal/metrics"
	"github.com/born-ml/trainer/internal/pipeline"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("trainer: ")

	flags := config.BindFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Config()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	rec, err := pipeline.Run(cfg)
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	fmt.Fprintf(os.Stdout, "accuracy=%.4f loss=%.4f\n", rec[metrics.Accuracy], rec[metrics.Loss])
}
