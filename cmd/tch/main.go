// Package main implements the tch command line tool: it trains the
// built-in models and inspects saved .tch files.
package main

import (
	"fmt"
	"os"

	"github.com/phuslu/log"
)

const version = "v0.1.0-dev"

const usage = `tch - train and inspect tch-go models

Usage:
  tch version                Print the version
  tch train [flags] [task]   Train a model (cartpole, mnist, text)
  tch info <file.tch>        Inspect a saved model or checkpoint
  tch export <src> <dst>     Convert a .tch file to SafeTensors

Train flags:
  -config <path>      TOML config file
  -backend <name>     Compute backend: cpu or webgpu (overrides config)
  -checkpoint <path>  Checkpoint output path (overrides config)
  -data <dir>         Dataset directory (overrides config)

The task argument overrides the trainer from the config file. With no
config file the compiled-in defaults train CartPole on the CPU.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}

	switch args[0] {
	case "version":
		fmt.Printf("tch %s\n", version)
		return 0
	case "train":
		return runTrain(args[1:])
	case "info":
		return runInfo(args[1:])
	case "export":
		return runExport(args[1:])
	case "help", "-h", "--help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "tch: unknown command %q\n\n%s", args[0], usage)
		return 1
	}
}

// setupLogger configures the process-wide structured logger from the
// resolved config.
func setupLogger(level string) {
	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			ColorOutput:    true,
			EndWithMessage: true,
		},
	}
}
