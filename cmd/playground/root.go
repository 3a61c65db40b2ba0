package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/expr-lang/expr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/aqilarik/spy/internal/format"
	"github.com/aqilarik/spy/spy"
)

const defaultExpr = `double(2) + double(20) + fail(1)`

type options struct {
	expr   string
	format string
	debug  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	var logger *zap.Logger

	cmd := &cobra.Command{
		Use:   "playground",
		Short: "Evaluate an expression against spied functions and print what they saw",
		Long: `Evaluates an expr-lang expression in which two spied functions are available:

  double(n)  returns n*2
  fail(n)    fails with an error when n is 0, otherwise returns n

After evaluation the call log of each spy is printed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if opts.debug {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), logger, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.expr, "expr", "e", defaultExpr, "expression to evaluate")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	return cmd
}

var errZero = errors.New("fail: zero")

func newSpies() map[string]*spy.Spy {
	return map[string]*spy.Spy{
		"double": spy.New(func(_ any, args ...any) (any, error) {
			n, err := intArg(args)
			if err != nil {
				return nil, err
			}
			return n * 2, nil
		}, spy.WithName("double")),
		"fail": spy.New(func(_ any, args ...any) (any, error) {
			n, err := intArg(args)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, errZero
			}
			return n, nil
		}, spy.WithName("fail")),
	}
}

func intArg(args []any) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expects 1 argument, got %d", len(args))
	}
	n, ok := args[0].(int)
	if !ok {
		return 0, fmt.Errorf("expects an int, got %T", args[0])
	}
	return n, nil
}

func run(w io.Writer, logger *zap.Logger, opts *options) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	spies := newSpies()

	exprOpts := make([]expr.Option, 0, len(spies))
	for _, name := range spyNames {
		exprOpts = append(exprOpts, spies[name].ExprFunction(name))
	}

	logger.Debug("compiling expression", zap.String("expr", opts.expr))
	prog, err := expr.Compile(opts.expr, exprOpts...)
	if err != nil {
		return fmt.Errorf("compile %q: %w", opts.expr, err)
	}

	final, runErr := expr.Run(prog, map[string]any{})
	if runErr != nil {
		logger.Warn("evaluation failed", zap.Error(runErr))
	} else {
		logger.Info("evaluated", zap.String("expr", opts.expr), zap.Any("result", final))
	}
	for _, name := range spyNames {
		logger.Debug("spy calls",
			zap.String("spy", name),
			zap.Int("calls", spies[name].Log().Len()),
			zap.Int("thrown", len(spies[name].ThrownCalls())))
	}

	rep := newReport(opts.expr, final, runErr, spies)
	return writeReport(w, opts.format, rep)
}

var spyNames = []string{"double", "fail"}

type report struct {
	Expr   string               `json:"expr" yaml:"expr"`
	Final  any                  `json:"final,omitempty" yaml:"final,omitempty"`
	Error  string               `json:"error,omitempty" yaml:"error,omitempty"`
	Spies  map[string][]callRow `json:"spies" yaml:"spies"`
	output map[string]string
}

// callRow is the serialized form of a spy.Call; the failure payload is
// rendered since errors do not marshal.
type callRow struct {
	Kind     spy.Kind `json:"kind" yaml:"kind"`
	Args     []any    `json:"args" yaml:"args"`
	Result   any      `json:"result,omitempty" yaml:"result,omitempty"`
	Err      string   `json:"err,omitempty" yaml:"err,omitempty"`
	Panicked bool     `json:"panicked,omitempty" yaml:"panicked,omitempty"`
}

func newReport(src string, final any, runErr error, spies map[string]*spy.Spy) report {
	rep := report{
		Expr:   src,
		Final:  final,
		Spies:  make(map[string][]callRow, len(spies)),
		output: make(map[string]string, len(spies)),
	}
	if runErr != nil {
		rep.Error = runErr.Error()
	}
	for name, s := range spies {
		rows := make([]callRow, 0, s.Log().Len())
		for _, c := range s.Calls() {
			row := callRow{Kind: c.Kind, Args: c.Args, Result: c.Result, Panicked: c.Panicked}
			if c.Thrown() {
				row.Err = format.Value(c.Err)
			}
			rows = append(rows, row)
		}
		rep.Spies[name] = rows
		rep.output[name] = s.String() + "\n" + s.Log().String()
	}
	return rep
}

func writeReport(w io.Writer, outFormat string, rep report) error {
	switch outFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		fmt.Fprintln(w, "EXPR:", rep.Expr)
		if rep.Error != "" {
			fmt.Fprintln(w, "ERROR:", rep.Error)
		} else {
			fmt.Fprintln(w, "FINAL:", rep.Final)
		}
		for _, name := range spyNames {
			fmt.Fprintln(w)
			fmt.Fprintln(w, rep.output[name])
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", outFormat)
	}
}
