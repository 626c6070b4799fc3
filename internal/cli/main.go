package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		stop() // a second interrupt terminates immediately
	}()

	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// NewRootCommand builds the dips command tree bound to the given streams.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	cc := newCommandContext(in, out)

	root := &cobra.Command{
		Use:          "dips",
		Short:        "Pick a video, preview it, and launch a DiPs conversion",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			return cc.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd.Context(), cc)
		},
	}

	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SilenceErrors = true

	pf := root.PersistentFlags()
	pf.StringVarP(&cc.configFlag, "config", "c", "", "Configuration file path")
	pf.StringVar(&cc.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&cc.dialogFlag, "dialog", "", "Dialog backend (terminal, zenity)")

	// Conversion properties
	pf.String("encoding", "", "Output encoding (RGBA, HFYU, H264)")
	pf.String("filter", "", "Filter type (sigmoid, inv_sig)")
	pf.String("chroma", "", "Chroma filter (all, r, g, b)")
	pf.Float64("sig-scalar", 0, "Sigmoid horizontal scalar (1-10)")
	pf.Int("win-size", 0, "Spatial window size (odd, 1-7)")
	pf.Bool("colorize", true, "Colorize the output")
	pf.IntSlice("refresh", nil, "Frame indices that refresh the reference window")

	root.AddCommand(
		newSessionCommand(cc),
		newThumbnailCommand(cc),
		newConvertCommand(cc),
		newHistoryCommand(cc),
		newDoctorCommand(cc),
		newConfigCommand(cc),
	)
	return root
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
