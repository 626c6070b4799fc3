package dips

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Filter int

const (
	FilterSigmoid Filter = iota
	FilterInverseSigmoid
)

type Chroma int

const (
	ChromaAll Chroma = iota
	ChromaRed
	ChromaGreen
	ChromaBlue
)

type Encoding int

const (
	EncodingUncompressed Encoding = iota
	EncodingHuffman
	EncodingH264
)

const (
	minWindowSize   = 1
	maxWindowSize   = 7
	minSigmoidScale = 1.0
	maxSigmoidScale = 10.0

	defaultSigmoidScale = 5.0
)

// Properties tunes a dips conversion run.
type Properties struct {
	Colorize       bool
	WindowSize     int
	SigmoidScalar  float64
	Filter         Filter
	Chroma         Chroma
	Encoding       Encoding
	RefreshMarkers []int
}

func DefaultProperties() Properties {
	return Properties{
		Colorize:      true,
		WindowSize:    1,
		SigmoidScalar: defaultSigmoidScale,
		Filter:        FilterSigmoid,
		Chroma:        ChromaAll,
		Encoding:      EncodingUncompressed,
	}
}

// SetWindowSize clamps size to [1,7] and rounds even values down to odd.
func (p *Properties) SetWindowSize(size int) {
	size = min(max(size, minWindowSize), maxWindowSize)
	if size%2 == 0 {
		size--
	}
	p.WindowSize = size
}

// SetSigmoidScalar clamps v to [1,10]. NaN and infinities fall back to the
// default of 5.
func (p *Properties) SetSigmoidScalar(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = defaultSigmoidScale
	}
	p.SigmoidScalar = min(max(v, minSigmoidScale), maxSigmoidScale)
}

// Normalize reapplies the clamping rules, e.g. after decoding from a file.
func (p *Properties) Normalize() {
	p.SetWindowSize(p.WindowSize)
	p.SetSigmoidScalar(p.SigmoidScalar)
}

// Args renders the backend command line for one run.
func (p Properties) Args(inputPath, outputPath string) []string {
	args := []string{
		"--input=" + inputPath,
		"--output=" + outputPath,
		"--encoding=" + p.Encoding.String(),
		"--filter=" + p.Filter.String(),
		"--sig_scalar=" + strconv.FormatFloat(p.SigmoidScalar, 'f', -1, 64),
		"--win_size=" + strconv.Itoa(p.WindowSize),
		"--colorize=" + strconv.FormatBool(p.Colorize),
	}
	if p.Chroma != ChromaAll {
		args = append(args, "--chroma="+p.Chroma.String())
	}
	for _, m := range p.RefreshMarkers {
		args = append(args, strconv.Itoa(m))
	}
	return args
}

func (f Filter) String() string {
	if f == FilterInverseSigmoid {
		return "inv_sig"
	}
	return "sigmoid"
}

func (f Filter) Label() string {
	if f == FilterInverseSigmoid {
		return title("inverse sigmoid")
	}
	return title("sigmoid")
}

func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sigmoid", "":
		return FilterSigmoid, nil
	case "inv_sig", "inverse_sigmoid":
		return FilterInverseSigmoid, nil
	default:
		return 0, fmt.Errorf("invalid filter type %q", s)
	}
}

func (c Chroma) String() string {
	switch c {
	case ChromaRed:
		return "r"
	case ChromaGreen:
		return "g"
	case ChromaBlue:
		return "b"
	default:
		return "all"
	}
}

func (c Chroma) Label() string {
	switch c {
	case ChromaRed:
		return title("red")
	case ChromaGreen:
		return title("green")
	case ChromaBlue:
		return title("blue")
	default:
		return title("all channels")
	}
}

func ParseChroma(s string) (Chroma, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return ChromaAll, nil
	case "r", "red":
		return ChromaRed, nil
	case "g", "green":
		return ChromaGreen, nil
	case "b", "blue":
		return ChromaBlue, nil
	default:
		return 0, fmt.Errorf("invalid chroma type %q", s)
	}
}

func (e Encoding) String() string {
	switch e {
	case EncodingHuffman:
		return "HFYU"
	case EncodingH264:
		return "H264"
	default:
		return "RGBA"
	}
}

// ParseEncoding falls back to uncompressed RGBA for unknown values.
func ParseEncoding(s string) Encoding {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HFYU":
		return EncodingHuffman
	case "H264":
		return EncodingH264
	default:
		return EncodingUncompressed
	}
}

func title(s string) string {
	return cases.Title(language.Und).String(s)
}
