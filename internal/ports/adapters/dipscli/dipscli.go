package dipscli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/forPelevin/dips/internal/domain/dips"
)

// Adapter runs conversions through the dips command line tool.
type Adapter struct {
	bin   string
	props dips.Properties
}

func New(binPath string, props dips.Properties) *Adapter {
	if binPath == "" {
		binPath = "dips"
	}
	props.Normalize()
	return &Adapter{bin: binPath, props: props}
}

func (a *Adapter) RunConversion(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" {
		return errors.New("input file not specified")
	}
	if outputPath == "" {
		return errors.New("output file not specified")
	}
	cmd := exec.CommandContext(ctx, a.bin, a.props.Args(inputPath, outputPath)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("dips run: %w\n%s", err, string(b))
	}
	return nil
}
