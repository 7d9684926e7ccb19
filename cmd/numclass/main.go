// Command numclass classifies the integers of a range against the categories
// in a configuration file.
//
// Usage:
//
//	numclass --start 1 --end 10 --config_file default.json
//
// Without --start and --end the command prompts for a range, prints the
// results and asks whether to continue.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/numclass/numclass"
	"github.com/numclass/numclass/cel"
)

const envConfigFile = "NUMCLASS_CONFIG_FILE"

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitConfig      = 3
	exitCompilation = 4
	exitExecution   = 5
)

type options struct {
	start, end   string
	configFile   string
	configDir    string
	simple       bool
	table        bool
	summary      bool
	list         bool
	builtinsOnly bool
	maxNumbers   uint64
	batchSize    int
	workers      int
	explain      string
	logLevel     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("numclass", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.start, "start", "", "first number of the range")
	fs.StringVar(&o.end, "end", "", "last number of the range (inclusive)")
	fs.StringVar(&o.configFile, "config_file", "default.json", "configuration file; a bare name is looked up in --config_dir (env "+envConfigFile+")")
	fs.StringVar(&o.configDir, "config_dir", "config", "directory holding configuration files")
	fs.BoolVar(&o.simple, "simple", false, "print only the matching labels for each number")
	fs.BoolVar(&o.table, "table", false, "print the results as a table")
	fs.BoolVar(&o.summary, "summary", false, "print how many numbers fall in each category")
	fs.BoolVar(&o.list, "list", false, "print the compiled categories before the results")
	fs.BoolVar(&o.builtinsOnly, "builtins-only", false, "reject rules that are not built-in predicates")
	fs.Uint64Var(&o.maxNumbers, "max-numbers", 0, "largest range accepted, 0 for no limit")
	fs.IntVar(&o.batchSize, "parallel", 0, "evaluate the range in batches of this size concurrently, 0 to disable")
	fs.IntVar(&o.workers, "workers", 0, "concurrent batches when --parallel is set, 0 for GOMAXPROCS")
	fs.StringVar(&o.explain, "explain", "", "show how each category's rule evaluates for this number")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return o, err
	}

	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config_file" {
			explicit = true
		}
	})
	if env := os.Getenv(envConfigFile); env != "" && !explicit {
		o.configFile = env
	}
	return o, nil
}

// configPath resolves a bare file name inside the configuration directory.
func (o options) configPath() string {
	if filepath.Base(o.configFile) == o.configFile {
		return filepath.Join(o.configDir, o.configFile)
	}
	return o.configFile
}

func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.TimeOnly}).
		Level(lvl).With().Timestamp().Logger(), nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// parse errors are reported by the flag set
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	log, err := newLogger(o.logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "invalid --log-level: %v\n", err)
		return exitUsage
	}

	var explain *int64
	if o.explain != "" {
		n, err := strconv.ParseInt(o.explain, 10, 64)
		if err != nil {
			log.Error().Str("explain", o.explain).Msg("--explain must be an integer")
			return exitUsage
		}
		explain = &n
	}

	engine := numclass.NewEngine(cel.NewEvaluator(),
		numclass.BuiltinsOnly(o.builtinsOnly),
		numclass.MaxNumbers(o.maxNumbers),
		numclass.Parallel(o.batchSize, o.workers),
	)

	c := &classifier{
		opts:    o,
		path:    o.configPath(),
		engine:  engine,
		explain: explain,
		log:     log,
		out:     stdout,
	}

	if o.start != "" && o.end != "" {
		err = c.once(ctx, o.start, o.end)
	} else {
		err = c.interactive(ctx, stdin)
	}
	if err != nil {
		report(log, err)
	}
	return exitCode(err)
}

// classifier loads the configuration and prints the analysis of each range
// it is given.
type classifier struct {
	opts    options
	path    string
	engine  *numclass.Engine
	vault   *numclass.Vault
	explain *int64
	log     zerolog.Logger
	out     io.Writer
}

// load reads the configuration file and compiles its categories. The file is
// read again on every call so that edits are picked up between ranges.
func (c *classifier) load() error {
	c.log.Debug().Str("config", c.path).Msg("loading configuration")
	cfg, err := numclass.LoadConfig(c.path)
	if err != nil {
		return err
	}
	if c.vault == nil {
		c.vault, err = numclass.NewVault(c.engine, cfg.Categories)
	} else {
		err = c.vault.Replace(cfg.Categories)
	}
	if err != nil {
		return err
	}
	c.log.Debug().Int("categories", len(cfg.Categories)).Msg("categories compiled")
	return nil
}

func (c *classifier) once(ctx context.Context, start, end string) error {
	r, err := numclass.ParseRange(start, end)
	if err != nil {
		return err
	}
	if err := c.load(); err != nil {
		return err
	}
	return c.classify(ctx, r)
}

func (c *classifier) interactive(ctx context.Context, stdin io.Reader) error {
	in := bufio.NewScanner(stdin)
	prompt := func(p string) (string, bool) {
		fmt.Fprint(c.out, p)
		if !in.Scan() {
			return "", false
		}
		return strings.TrimSpace(in.Text()), true
	}

	for {
		start, ok := prompt("Please enter the starting number of the range: ")
		if !ok {
			break
		}
		end, ok := prompt("Please enter the ending number of the range: ")
		if !ok {
			break
		}
		if err := c.once(ctx, start, end); err != nil {
			return err
		}
		answer, ok := prompt("Continue? (y/n): ")
		if !ok || !strings.EqualFold(answer, "y") {
			break
		}
	}
	if err := in.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	c.log.Debug().Msg("session ended")
	return nil
}

func (c *classifier) classify(ctx context.Context, r numclass.Range) error {
	categories := c.vault.Categories()
	if c.opts.list {
		fmt.Fprintln(c.out, categories.String())
	}

	began := time.Now()
	results, err := c.engine.Analyze(ctx, categories, r)
	if err != nil {
		return err
	}
	c.log.Info().
		Stringer("range", r).
		Int("numbers", len(results.Entries)).
		Dur("elapsed", time.Since(began)).
		Msg("range classified")

	if c.opts.table {
		fmt.Fprintln(c.out, results.String())
	} else {
		for _, line := range results.Lines(!c.opts.simple) {
			fmt.Fprintln(c.out, line)
		}
	}
	if c.opts.summary {
		fmt.Fprintln(c.out, results.SummaryString())
	}

	if c.explain != nil {
		for _, cat := range categories {
			x, err := cat.Explain(ctx, *c.explain)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, x.String())
		}
	}
	return nil
}

func report(log zerolog.Logger, err error) {
	ev := log.Error().Err(err)

	var (
		ce *numclass.ConfigError
		re *numclass.RuleCompilationError
		xe *numclass.RuleExecutionError
	)
	switch {
	case errors.As(err, &ce):
		ev = ev.Str("path", ce.Path)
	case errors.As(err, &re):
		ev = ev.Str("label", re.Label)
	case errors.As(err, &xe):
		ev = ev.Str("label", xe.Label).Int64("number", xe.Number)
	}
	ev.Msg("classification failed")
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, numclass.ErrInvalidRange):
		return exitUsage
	case errors.Is(err, numclass.ErrConfig):
		return exitConfig
	case errors.Is(err, numclass.ErrRuleCompilation):
		return exitCompilation
	case errors.Is(err, numclass.ErrRuleExecution):
		return exitExecution
	default:
		return exitFailure
	}
}
