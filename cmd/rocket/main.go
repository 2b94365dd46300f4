// Command rocket is the CLI entry point for the Rocket scripting
// language: it runs source files and exposes the lexer/parser output for
// debugging.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/rocket/internal/config"
	"github.com/aledsdavies/rocket/internal/interpreter"
	"github.com/aledsdavies/rocket/pkgs/ast"
	"github.com/aledsdavies/rocket/pkgs/lexer"
	"github.com/aledsdavies/rocket/pkgs/parser"
)

// Global flags, bound in init and resolved against .rocket.yaml in
// resolveDefaults before any subcommand runs.
var (
	debug     bool
	astFormat string
	printAST  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rocket",
	Short: "Run and inspect Rocket scripts",
	Long:  "rocket runs Rocket source files through the lexer, parser, and tree-walking evaluator, and can dump intermediate tokens or AST for debugging.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveDefaults()
	},
}

var runCmd = &cobra.Command{
	Use:   "run <path>",
	Short: "Parse and evaluate a Rocket source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

var tokensCmd = &cobra.Command{
	Use:   "tokens <path>",
	Short: "Lex a Rocket source file and dump its token stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

var astCmd = &cobra.Command{
	Use:   "ast <path>",
	Short: "Parse a Rocket source file and dump its AST",
	Args:  cobra.ExactArgs(1),
	RunE:  runAST,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable evaluator step tracing to stderr")
	rootCmd.PersistentFlags().StringVar(&astFormat, "format", "", "dump format for tokens/ast: text, json, or cbor (default text)")
	runCmd.Flags().BoolVarP(&printAST, "ast", "a", false, "print the parsed AST before running")

	rootCmd.AddCommand(runCmd, tokensCmd, astCmd)
}

// resolveDefaults loads .rocket.yaml from the working directory and
// fills in any flag the user left at its zero value, so CLI flags always
// take precedence over the project file.
func resolveDefaults() error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return err
	}
	if !debug {
		debug = cfg.Debug
	}
	if astFormat == "" {
		astFormat = string(cfg.AstFormat)
	}
	if astFormat == "" {
		astFormat = string(config.FormatText)
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	root, err := parser.Parse(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "syntax error: %s\n", err)
		os.Exit(1)
	}

	if printAST {
		fmt.Fprintln(os.Stdout, root.String())
	}

	traceLevel := interpreter.DebugOff
	if debug {
		traceLevel = interpreter.DebugTrace
	}
	evalErr := interpreter.Evaluate(root, interpreter.Config{
		Debug:  traceLevel,
		Trace:  os.Stderr,
		Stdout: os.Stdout,
		Stdin:  os.Stdin,
	})
	if evalErr != nil {
		if _, ok := evalErr.(*interpreter.RuntimeError); ok {
			fmt.Fprintf(os.Stderr, "runtime error: %s\n", evalErr)
		} else {
			fmt.Fprintf(os.Stderr, "internal error: %s\n", evalErr)
		}
		os.Exit(1)
	}
	return nil
}

func runTokens(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	toks, err := lexer.Lex(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "syntax error: %s\n", err)
		os.Exit(1)
	}

	switch config.AstFormat(astFormat) {
	case config.FormatJSON:
		return dumpJSON(toks)
	case config.FormatCBOR:
		return dumpCBOR(toks)
	default:
		for _, t := range toks {
			fmt.Println(t.String())
		}
		return nil
	}
}

func runAST(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	root, err := parser.Parse(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "syntax error: %s\n", err)
		os.Exit(1)
	}

	switch config.AstFormat(astFormat) {
	case config.FormatJSON:
		return dumpJSON(ast.DumpRoot(root))
	case config.FormatCBOR:
		return dumpCBOR(ast.DumpRoot(root))
	default:
		fmt.Println(root.String())
		return nil
	}
}

func dumpJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func dumpCBOR(v any) error {
	out, err := cbor.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
