// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Command experiment registers, runs and lists training experiments.
//
// Usage:
//
//	experiment register -name baseline -- -dataset mnist -lr 0.01 -batch 32
//	experiment run <id>
//	experiment list
//	experiment version
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/born-ml/trainer/internal/config"
	"github.com/born-ml/trainer/internal/experiment"
	"github.com/born-ml/trainer/internal/metrics"
	"github.com/born-ml/trainer/internal/pipeline"
)

const version = "v0.1.0"

// trainerCommand is recorded as the command of every experiment.
const trainerCommand = "trainer"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("experiment: ")

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	global := flag.NewFlagSet("experiment", flag.ContinueOnError)
	root := global.String("root", experiment.DefaultDir, "registry directory")
	global.Usage = func() { usage(global.Output()) }
	if err := global.Parse(args); err != nil {
		return err
	}
	args = global.Args()
	if len(args) == 0 {
		usage(out)
		return nil
	}

	reg := experiment.Open(*root)
	switch cmd, rest := args[0], args[1:]; cmd {
	case "register":
		return register(reg, rest, out)
	case "run":
		return runExperiment(reg, rest, out)
	case "list":
		return list(reg, out)
	case "version":
		fmt.Fprintf(out, "experiment %s\n", version)
		return nil
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: experiment [-root dir] <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  register -name NAME [-- trainer flags]   Register a new experiment")
	fmt.Fprintln(w, "  run ID                                    Run a registered experiment")
	fmt.Fprintln(w, "  list                                      List experiments")
	fmt.Fprintln(w, "  version                                   Show version")
}

func register(reg *experiment.Registry, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "experiment name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	trainerArgs := fs.Args()

	// Reject unusable trainer flags now rather than at run time.
	if _, err := parseTrainerArgs(trainerArgs); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	exp, err := reg.Register(*name, trainerCommand, trainerArgs)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, exp.ID)
	return nil
}

func runExperiment(reg *experiment.Registry, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("run: expected exactly one experiment ID")
	}
	exp, err := reg.Get(args[0])
	if err != nil {
		return err
	}

	cfg, err := parseTrainerArgs(exp.Args)
	if err != nil {
		return fmt.Errorf("run %s: %w", exp.ID, err)
	}
	// A metrics path set by flag or config file is kept; only the default
	// is moved into the experiment directory.
	if cfg.MetricsPath == config.DefaultMetricsPath {
		cfg.MetricsPath = filepath.Join(reg.Dir(exp.ID), config.DefaultMetricsPath)
	}

	log.Printf("running %s (%s): %s %s", exp.ID, exp.Name, exp.Command, strings.Join(exp.Args, " "))
	rec, err := pipeline.Run(cfg)
	if err != nil {
		return fmt.Errorf("run %s: %w", exp.ID, err)
	}
	if _, err := reg.SetResult(exp.ID, rec); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s accuracy=%.4f loss=%.4f\n", exp.ID, rec[metrics.Accuracy], rec[metrics.Loss])
	return nil
}

func list(reg *experiment.Registry, out io.Writer) error {
	exps, err := reg.List()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tACCURACY\tARGS")
	for _, exp := range exps {
		acc := "-"
		if v, ok := exp.Result[metrics.Accuracy]; ok {
			acc = fmt.Sprintf("%.4f", v)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			exp.ID, exp.Name, exp.Timestamp.Format("2006-01-02 15:04:05"), acc, strings.Join(exp.Args, " "))
	}
	return tw.Flush()
}

func parseTrainerArgs(args []string) (config.Config, error) {
	fs := flag.NewFlagSet(trainerCommand, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	if fs.NArg() > 0 {
		return config.Config{}, fmt.Errorf("unexpected arguments %v", fs.Args())
	}
	return flags.Config()
}
