package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(dispatch(os.Args[1:], os.Stdout, os.Stderr))
}

func dispatch(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "run":
		return runCmd(args[1:], stdout, stderr)
	case "status":
		return statusCmd(args[1:], stdout, stderr)
	case "runs":
		return runsCmd(args[1:], stdout, stderr)
	case "tail":
		return tailCmd(args[1:], stdout, stderr)
	case "version", "--version":
		fmt.Fprintln(stdout, versionLine())
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `jobrun - run triggered jobs and keep their history

Usage:
  jobrun <command> [flags]

Commands:
  run       Run a job command and record its status and logs
  status    Show the status of a run (latest by default)
  runs      List jobs, or the runs of one job
  tail      Print a run's output or error log
  version   Show the version
  help      Show this message

Examples:
  jobrun run nightly-cleanup -- ./cleanup.sh --older-than 30d
  jobrun status nightly-cleanup
  jobrun runs nightly-cleanup
  jobrun tail -f nightly-cleanup 20240102030405

History is written under <jobs_data_path>/triggered/<job>/<run id>/.
Settings come from jobrun.yaml, jobrun.yml or jobrun.json in the current
directory, or -config; $JOBS_DATA_PATH sets the default history root.

Run 'jobrun <command> -h' for details.`)
}
