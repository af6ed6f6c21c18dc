package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"rill/internal/evaluator"
	"rill/internal/lexer"
	"rill/internal/object"
	"rill/internal/parser"
	"rill/internal/repl"
	"rill/internal/util"
)

const (
	DefaultRootPath   = "."
	DefaultConfigFile = "rill.toml"
)

var (
	// Version is stamped at build time via -ldflags.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"

	help    bool
	version bool
	// logging
	logLevel string
	logFile  string
	// config vars
	rootPath   string
	configFile string
	debugAST   bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&rootPath, "root", DefaultRootPath, "Set the root context for the program")
	flag.StringVar(&configFile, "config", DefaultConfigFile, "Configuration file path")
	flag.BoolVar(&debugAST, "debug-ast", false, "Print the parsed AST before evaluating")
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	config, err := util.LoadConfiguration(configFile, util.Configuration{
		Version:   Version,
		BuildDate: BuildDate,
		Commit:    Commit,
		RootPath:  rootPath,
		LogLevel:  logLevel,
		LogFile:   logFile,
		DebugAST:  debugAST,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", configFile, err)
		os.Exit(1)
	}
	applyFlagOverrides(&config)

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(config.LogLevel),
	}
	logWriter := configureLogWriter(config.LogFile)
	slog.SetDefault(slog.New(slog.NewJSONHandler(logWriter, loggerOptions)))

	if version {
		printVersion()
		return
	}
	if help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Printf("rill v%s\n", Version)
		if err := repl.Start(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "repl failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	os.Exit(runFile(flag.Arg(0), config))
}

// applyFlagOverrides re-applies any flag the user set explicitly, so the
// command line beats rill.toml.
func applyFlagOverrides(config *util.Configuration) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			config.RootPath = rootPath
		case "log-level":
			config.LogLevel = logLevel
		case "log-file":
			config.LogFile = logFile
		case "debug-ast":
			config.DebugAST = debugAST
		}
	})
}

func runFile(path string, config util.Configuration) int {
	source, err := os.ReadFile(filepath.Join(config.RootPath, path))
	if err != nil {
		// path may already be absolute or root-relative
		source, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", path, err)
		return 1
	}

	l := lexer.New(string(source))
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		for _, msg := range errs {
			fmt.Fprintf(os.Stderr, "parse error: %s\n", msg)
		}
		return 1
	}

	if config.DebugAST {
		fmt.Fprintln(os.Stderr, program.String())
	}

	eval := evaluator.New(object.NewEnvironment())
	result := eval.Eval(program)
	eval.System().Shutdown()

	if err, ok := result.(*object.RuntimeError); ok {
		fmt.Fprintln(os.Stderr, err.Inspect())
		return 1
	}
	return 0
}

func configureLogWriter(logFile string) *os.File {
	if logFile == "" {
		return os.Stderr
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	w, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	return w
}

func printVersion() {
	fmt.Printf("rill version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: rill [options] [filename]

Options:
  -root <path>       Set the root context for the program. Default is '.'
  -config <path>     Configuration file path. Default is 'rill.toml'.
  -debug-ast         Print the parsed AST before evaluating.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error. Default is 'error'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
This is the Rill programming language. Run a file, or start the REPL by
passing no filename.

Examples:
  rill                          Start the interactive REPL
  rill -log-level=debug         Start with debug logging enabled
  rill myfile.rill              Execute the provided Rill file

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
