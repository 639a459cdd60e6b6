// Command wasm2wat reads a binary WebAssembly module and writes its
// equivalent text-format representation to standard output.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/patvarilly/wasmtoolbox/decode"
	"github.com/patvarilly/wasmtoolbox/wat"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	var outPath string

	cmd := &cobra.Command{
		Use:           "wasm2wat <file>",
		Short:         "Convert a binary WebAssembly module to text format",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Usage is printed only for invocation errors (wrong argument
			// count, unknown flags), not for decode or emit failures.
			cmd.SilenceUsage = true
			logger, err := newLogger(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			return run(args[0], outPath, logger.Sugar())
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write WAT to this file instead of stdout")

	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	return cfg.Build()
}

func run(inputPath, outputPath string, logger *zap.SugaredLogger) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inputPath, err)
	}
	defer f.Close()

	module, err := decode.Decode(f, logger.Warnf)
	if err != nil {
		logger.Errorw("decode failed", "error", err)
		return err
	}

	out := os.Stdout
	if outputPath != "" {
		w, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outputPath, err)
		}
		defer w.Close()
		if err := wat.WriteModule(w, module); err != nil {
			logger.Errorw("emit failed", "error", err)
			return err
		}
		return nil
	}

	if err := wat.WriteModule(out, module); err != nil {
		logger.Errorw("emit failed", "error", err)
		return err
	}
	fmt.Fprintln(out)
	return nil
}
