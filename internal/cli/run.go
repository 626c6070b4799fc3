package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/dips/internal/domain/dips"
	"github.com/forPelevin/dips/internal/pipeline"
	"github.com/forPelevin/dips/internal/types"
)

const sessionHelp = `commands:
  input   pick an input video and preview it
  output  pick where the converted video is written
  run     convert the input (asks for an output if none is set)
  status  show the current selections
  help    show this help
  quit    leave the session`

func newSessionCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Start an interactive launcher session (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd.Context(), cc)
		},
	}
}

func runSession(ctx context.Context, cc *commandContext) error {
	session, closeFn, err := pipeline.NewSession(ctx, cc.env())
	if err != nil {
		return err
	}
	defer closeFn()

	surface := newTermSurface(cc.out)
	session.Mount(surface)
	defer session.Unmount()

	surface.banner("DiPs launcher")
	fmt.Fprintln(cc.out, sessionHelp)

	for {
		fmt.Fprint(cc.out, "dips> ")
		line, readErr := cc.in.ReadLine(ctx)
		if readErr != nil && ctx.Err() != nil {
			fmt.Fprintln(cc.out)
			return ctx.Err()
		}
		cmd := strings.ToLower(strings.TrimSpace(line))

		var opErr error
		switch cmd {
		case "":
		case "input", "i":
			opErr = session.SelectInput(ctx)
		case "output", "o":
			opErr = session.SelectOutput(ctx)
		case "run", "r":
			opErr = session.Run(ctx)
		case "status", "s":
			fmt.Fprintln(cc.out, renderStatus(session.State(), cc.props))
		case "help", "h", "?":
			fmt.Fprintln(cc.out, sessionHelp)
		case "quit", "q", "exit":
			return nil
		default:
			fmt.Fprintf(cc.out, "unknown command %q (try help)\n", cmd)
		}
		if opErr != nil {
			cc.logger.Debug("session operation failed", "command", cmd, "error", opErr)
			if errors.Is(opErr, context.Canceled) {
				return opErr
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				fmt.Fprintln(cc.out)
				return nil
			}
			return fmt.Errorf("read command: %w", readErr)
		}
	}
}

func renderStatus(st types.Snapshot, props dips.Properties) string {
	ready := "no"
	if st.Ready() {
		ready = "yes"
	}
	preview := st.Preview.ImageURL
	if preview == "" {
		preview = "-"
	}
	rows := [][]string{
		{"Input", st.Input.String()},
		{"Output", st.Output.String()},
		{"Phase", string(st.Phase)},
		{"Preview", preview},
		{"Ready", ready},
		{"Dispatches", strconv.Itoa(st.Dispatches)},
		{"Encoding", props.Encoding.String()},
		{"Filter", props.Filter.Label()},
		{"Chroma", props.Chroma.Label()},
		{"Window size", strconv.Itoa(props.WindowSize)},
		{"Sigmoid scalar", strconv.FormatFloat(props.SigmoidScalar, 'f', -1, 64)},
		{"Colorize", strconv.FormatBool(props.Colorize)},
	}
	return renderTable(fieldColumns, rows)
}
