package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/forPelevin/dips/internal/config"
	"github.com/forPelevin/dips/internal/history"
	"github.com/forPelevin/dips/internal/pipeline"
	"github.com/forPelevin/dips/internal/preflight"
)

func newThumbnailCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "thumbnail <input>",
		Short: "Render the preview thumbnail for a video and print its locator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := cc.env()
			url, err := pipeline.Thumbnail(cmd.Context(), env, pipeline.NewBackend(env), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newConvertCommand(cc *commandContext) *cobra.Command {
	var output, outDir string
	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Run one conversion without prompting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := cc.env()
			backend, store, err := pipeline.OpenHistory(ctx, env, pipeline.NewBackend(env))
			if err != nil {
				return err
			}
			defer store.Close()

			out, err := pipeline.Convert(ctx, env, backend, pipeline.ConvertInput{
				Input:  args[0],
				Output: output,
				OutDir: outDir,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "converted %s -> %s\n", args[0], out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output video path (avi, mp4, mov)")
	cmd.Flags().StringVar(&outDir, "out", "out", "Output directory when --output is not given")
	return cmd
}

func newHistoryCommand(cc *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversion dispatches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := history.Open(ctx, cc.config.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			items, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No dispatches recorded")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, d := range items {
				duration := "-"
				if dur := d.Duration(); dur > 0 {
					duration = dur.Round(time.Millisecond).String()
				}
				rows = append(rows, []string{
					shortID(d.ID),
					humanize.Time(d.StartedAt),
					string(d.Status),
					filepath.Base(d.InputPath),
					d.OutputPath,
					duration,
					d.Error,
				})
			}
			fmt.Fprintln(out, renderTable(historyColumns, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of dispatches to show")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newDoctorCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that required tools and directories are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results := preflight.Run(cc.config)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				switch {
				case !r.Passed && r.Optional:
					status = "skipped"
				case !r.Passed:
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(doctorColumns, rows))
			if preflight.Failed(results) {
				return errors.New("doctor: required checks failed")
			}
			return nil
		},
	}
}

func newConfigCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init [path]",
		Short:       "Write a sample configuration file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(cc.configFlag)
			if len(args) == 1 {
				target = args[0]
			}
			var err error
			if target == "" {
				target, err = config.DefaultConfigPath()
			} else {
				target, err = config.ExpandPath(target)
			}
			if err != nil {
				return err
			}
			if _, statErr := os.Stat(target); statErr == nil && !force {
				return fmt.Errorf("config %s already exists (use --force to overwrite)", target)
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", target)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			encoded, err := cc.config.Encode()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, encoded)
			p := cc.props
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable(propertyColumns, [][]string{
				{"Encoding", p.Encoding.String()},
				{"Filter", p.Filter.Label()},
				{"Chroma", p.Chroma.Label()},
				{"Window size", strconv.Itoa(p.WindowSize)},
				{"Sigmoid scalar", strconv.FormatFloat(p.SigmoidScalar, 'f', -1, 64)},
				{"Colorize", strconv.FormatBool(p.Colorize)},
			}))
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
