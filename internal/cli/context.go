package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/dips/internal/config"
	"github.com/forPelevin/dips/internal/domain/dips"
	"github.com/forPelevin/dips/internal/logging"
	"github.com/forPelevin/dips/internal/pipeline"
	"github.com/forPelevin/dips/internal/ports/adapters/termdialog"
)

type commandContext struct {
	in  *termdialog.Lines
	out io.Writer

	configFlag string
	logLevel   string
	dialogFlag string

	config *config.Config
	logger *slog.Logger
	props  dips.Properties
}

func newCommandContext(in io.Reader, out io.Writer) *commandContext {
	return &commandContext{in: termdialog.NewLines(in), out: out}
}

func (c *commandContext) load(cmd *cobra.Command) error {
	cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if d := strings.TrimSpace(c.dialogFlag); d != "" {
		cfg.Dialog.Backend = strings.ToLower(d)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	props, err := cfg.Properties()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := applyPropertyFlags(cmd, &props); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg, c.logLevel)
	if err != nil {
		return err
	}

	c.config = cfg
	c.props = props
	c.logger = logger
	return nil
}

func (c *commandContext) env() pipeline.Env {
	return pipeline.Env{
		Config: c.config,
		Logger: c.logger,
		Props:  c.props,
		In:     c.in,
		Out:    c.out,
	}
}

// applyPropertyFlags overrides configured properties with explicitly set flags.
func applyPropertyFlags(cmd *cobra.Command, p *dips.Properties) error {
	flags := cmd.Flags()
	if flags.Changed("encoding") {
		v, _ := flags.GetString("encoding")
		p.Encoding = dips.ParseEncoding(v)
	}
	if flags.Changed("filter") {
		v, _ := flags.GetString("filter")
		f, err := dips.ParseFilter(v)
		if err != nil {
			return err
		}
		p.Filter = f
	}
	if flags.Changed("chroma") {
		v, _ := flags.GetString("chroma")
		ch, err := dips.ParseChroma(v)
		if err != nil {
			return err
		}
		p.Chroma = ch
	}
	if flags.Changed("sig-scalar") {
		v, _ := flags.GetFloat64("sig-scalar")
		p.SetSigmoidScalar(v)
	}
	if flags.Changed("win-size") {
		v, _ := flags.GetInt("win-size")
		p.SetWindowSize(v)
	}
	if flags.Changed("colorize") {
		v, _ := flags.GetBool("colorize")
		p.Colorize = v
	}
	if flags.Changed("refresh") {
		v, _ := flags.GetIntSlice("refresh")
		p.RefreshMarkers = v
	}
	return nil
}
