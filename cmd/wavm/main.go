// wavm CLI - runs and inspects serialized guest programs
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dio/wavm/config"
	"github.com/dio/wavm/runtime"
	"github.com/dio/wavm/threads"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML config file")
	verbosity := flag.Int("v", -1, "Log verbosity (overrides config)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wavm [options] <command> <program>\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run <program>   Execute a serialized program\n")
		fmt.Fprintf(os.Stderr, "  dump <program>  Disassemble a serialized program\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	command, path := flag.Arg(0), flag.Arg(1)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	commonlog.Configure(cfg.Log.Verbosity, nil)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	prog, err := runtime.UnmarshalProgram(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "run":
		code, err := run(prog, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("main exited with %d\n", code)
	case "dump":
		mod, err := prog.Instantiate("program", threads.NewManager().Bind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(runtime.DisassembleModule(mod))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(2)
	}
}

// run instantiates the program and executes its main function on a
// guest thread, so that main may itself fork, exit and join.
func run(prog *runtime.Program, cfg config.Config) (int64, error) {
	mgr := threads.NewManager()
	mod, err := prog.Instantiate("program", mgr.Bind)
	if err != nil {
		return 0, err
	}

	main := mod.Function(prog.Main)
	if main == nil {
		return 0, fmt.Errorf("program has no function %q", prog.Main)
	}

	compartment := runtime.NewCompartment(prog.Globals)
	compartment.SetMaxCallDepth(cfg.Limits.MaxCallDepth)

	bootstrap := compartment.NewContext()
	defer bootstrap.Release()

	id, err := mgr.Create(bootstrap, main, 0)
	if err != nil {
		return 0, err
	}
	return mgr.Join(id)
}
