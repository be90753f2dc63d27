// stackvm CLI - disassembles and runs the built-in demo program
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tliron/kutil/util"

	"github.com/chazu/stackvm/config"
	"github.com/chazu/stackvm/pkg/bytecode"
)

func main() {
	util.Exit(execute())
}

// execute runs the CLI and returns the process exit code. main exits through
// util.Exit so the log file registered by the simple backend gets closed.
func execute() int {
	verbosity := flag.Int("v", 0, "Log verbosity (0 = notices, 1 = info, 2 = debug)")
	trace := flag.Bool("trace", false, "Trace every executed instruction")
	format := flag.String("format", "", "Trace format: text, cbor or log")
	output := flag.String("o", "", "Write the trace to this file instead of stdout")
	disasm := flag.Bool("disasm", false, "Print the disassembly before running")
	noRun := flag.Bool("no-run", false, "Do not execute the program")
	strictReturn := flag.Bool("strict-return", false, "Treat RETURN on an empty stack as a runtime error")
	configDir := flag.String("config", "", "Directory containing stackvm.toml (default: search upwards from .)")
	decode := flag.String("decode", "", "Print a CBOR trace file as text and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stackvm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the built-in demo program on the bytecode interpreter.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  stackvm                          # Run, print returned values\n")
		fmt.Fprintf(os.Stderr, "  stackvm -disasm -no-run          # Disassemble only\n")
		fmt.Fprintf(os.Stderr, "  stackvm -trace                   # Trace to stdout\n")
		fmt.Fprintf(os.Stderr, "  stackvm -trace -format cbor -o t.cbor\n")
		fmt.Fprintf(os.Stderr, "  stackvm -decode t.cbor           # Replay a CBOR trace as text\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Flags given on the command line override stackvm.toml
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Log.Verbosity = *verbosity
		case "trace":
			cfg.Trace.Enabled = *trace
		case "format":
			cfg.Trace.Format = *format
		case "o":
			cfg.Trace.Output = *output
			if *output != "" {
				if abs, err := filepath.Abs(*output); err == nil {
					cfg.Trace.Output = abs
				}
			}
		case "strict-return":
			cfg.Interpreter.StrictReturn = *strictReturn
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cfg.ConfigureLogging()

	if *decode != "" {
		if err := decodeTrace(*decode, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	chunk := bytecode.DemoChunk()
	if *disasm {
		fmt.Println("== demo ==")
		fmt.Println(chunk.Disassemble())
	}
	if *noRun {
		return 0
	}

	if err := run(cfg, chunk); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads stackvm.toml from dir, or searches upwards from the
// working directory when dir is empty. A missing file yields the defaults.
func loadConfig(dir string) (*config.Config, error) {
	if dir != "" {
		return config.Load(dir)
	}
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

// run executes chunk with the tracer and options selected by cfg and prints
// every value reported by RETURN.
func run(cfg *config.Config, chunk *bytecode.Chunk) error {
	var traceOut io.Writer = os.Stdout
	if path := cfg.OutputPath(); path != "" && cfg.Trace.Enabled {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("cannot create trace output: %w", err)
		}
		defer f.Close()
		traceOut = f
	}

	tracer := cfg.NewTracer(traceOut)
	opts := append(cfg.Options(tracer), bytecode.WithReturnHandler(func(v bytecode.Value) {
		fmt.Println(v)
	}))

	in := bytecode.NewInterpreter(opts...)
	if err := in.Interpret(chunk); err != nil {
		return err
	}

	if w, ok := tracer.(interface{ Err() error }); ok && w.Err() != nil {
		return fmt.Errorf("writing trace: %w", w.Err())
	}
	return nil
}

// decodeTrace prints a CBOR trace stream in the text tracer's format.
func decodeTrace(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	events, err := bytecode.ReadTraceEvents(f)
	if err != nil {
		return fmt.Errorf("cannot decode %s: %w", path, err)
	}
	for i := range events {
		fmt.Fprintln(w, bytecode.FormatTraceEvent(&events[i]))
	}
	return nil
}
