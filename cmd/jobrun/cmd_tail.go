package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chr1sbest/jobrunlog/internal/fsys"
	"github.com/chr1sbest/jobrunlog/internal/tracker"
)

func tailCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tail", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "Path to config file")
	follow := fs.Bool("f", false, "Keep printing new lines until the run ends")
	errLog := fs.Bool("err", false, "Print error.log instead of output.log")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: jobrun tail [flags] <job> [run id]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 2
	}

	s, err := openSession(*configFile, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer s.close()

	run, err := s.findRun(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	name := tracker.OutputFileName
	if *errLog {
		name = tracker.ErrorFileName
	}

	if *follow {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := tracker.Follow(ctx, fsys.NewOS(), run.Dir, name, stdout); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	f, err := fsys.NewOS().Open(filepath.Join(run.Dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Logs are created on first write; a quiet run has none.
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer f.Close()
	if _, err := io.Copy(stdout, f); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
