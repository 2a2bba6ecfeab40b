package option

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for render option configuration, allowing
// callers to customize flag names while keeping sensible defaults via
// [NewConfig].
type Flags struct {
	Width, Height       string
	Mode                string
	Style               string
	Dither              string
	PaletteSize         string
	SixelQuality        string
	AspectRatio         string
	TerminalAspectRatio string
	Fit                 string
	QueueSize           string
	PrebufferFrames     string
	StaticPalette       string
	FastResize          string
	TargetFPS           string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{Flags: f}
}

// Config holds CLI flag values that build a [RenderOptions].
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.RenderOptions] to obtain the resulting
// [RenderOptions] with defaults filled in.
type Config struct {
	Flags Flags

	Width, Height       int
	Mode                string
	Style               string
	Dither              string
	PaletteSize         int
	SixelQuality        string
	AspectRatio         bool
	TerminalAspectRatio float64
	Fit                 string
	QueueSize           int
	PrebufferFrames     int
	StaticPalette       bool
	FastResize          bool
	TargetFPS           float64
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		Width:               "width",
		Height:              "height",
		Mode:                "mode",
		Style:               "style",
		Dither:              "dither",
		PaletteSize:         "palette-size",
		SixelQuality:        "sixel-quality",
		AspectRatio:         "aspect-ratio",
		TerminalAspectRatio: "terminal-aspect-ratio",
		Fit:                 "fit",
		QueueSize:           "queue-size",
		PrebufferFrames:     "prebuffer-frames",
		StaticPalette:       "static-palette",
		FastResize:          "fast-resize",
		TargetFPS:           "target-fps",
	}

	return f.NewConfig()
}

// RegisterFlags adds render option flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.IntVar(&c.Width, c.Flags.Width, 0, "target width in pixels (0 = derive from terminal)")
	flags.IntVar(&c.Height, c.Flags.Height, 0, "target height in pixels (0 = derive from terminal)")
	flags.StringVar(&c.Mode, c.Flags.Mode, string(ModeHalfBlock),
		fmt.Sprintf("render mode, one of: %s", allModes()))
	flags.StringVar(&c.Style, c.Flags.Style, string(StyleSimple),
		fmt.Sprintf("ascii-gray character ramp, one of: %s", allStyles()))
	flags.StringVar(&c.Dither, c.Flags.Dither, string(DitherNone),
		fmt.Sprintf("ascii-gray dithering, one of: %s", allDithers()))
	flags.IntVar(&c.PaletteSize, c.Flags.PaletteSize, 256, "sixel palette size, clamped to [1,256]")
	flags.StringVar(&c.SixelQuality, c.Flags.SixelQuality, string(SixelQualityHigh),
		fmt.Sprintf("sixel encode quality, one of: %s", allSixelQualities()))
	flags.BoolVar(&c.AspectRatio, c.Flags.AspectRatio, true, "preserve source aspect ratio")
	flags.Float64Var(&c.TerminalAspectRatio, c.Flags.TerminalAspectRatio, 1.0, "terminal cell aspect correction factor")
	flags.StringVar(&c.Fit, c.Flags.Fit, string(FitCover),
		fmt.Sprintf("video fit mode, one of: %s", allFits()))
	flags.IntVar(&c.QueueSize, c.Flags.QueueSize, 16, "playback pipeline queue depth")
	flags.IntVar(&c.PrebufferFrames, c.Flags.PrebufferFrames, 4, "frames buffered before playback starts")
	flags.BoolVar(&c.StaticPalette, c.Flags.StaticPalette, true, "disable adaptive palette/scale changes mid-stream")
	flags.BoolVar(&c.FastResize, c.Flags.FastResize, false, "use a fast interpolation filter for video pre-scaling")
	flags.Float64Var(&c.TargetFPS, c.Flags.TargetFPS, 0, "target playback fps (0 = follow source fps)")
}

// RegisterCompletions registers shell completions for enum-valued flags.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	completions := []struct {
		flag   string
		values []string
	}{
		{c.Flags.Mode, allModes()},
		{c.Flags.Style, allStyles()},
		{c.Flags.Dither, allDithers()},
		{c.Flags.SixelQuality, allSixelQualities()},
		{c.Flags.Fit, allFits()},
	}

	for _, comp := range completions {
		err := cmd.RegisterFlagCompletionFunc(comp.flag,
			cobra.FixedCompletions(comp.values, cobra.ShellCompDirectiveNoFileComp))
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", comp.flag, err)
		}
	}

	return nil
}

// RenderOptions builds a [RenderOptions] from the flag values stored in c,
// applying [RenderOptions.FillDefaults].
func (c *Config) RenderOptions() RenderOptions {
	o := RenderOptions{
		Width:               c.Width,
		Height:              c.Height,
		Mode:                Mode(c.Mode),
		Style:               Style(c.Style),
		Dither:              Dither(c.Dither),
		PaletteSize:         c.PaletteSize,
		SixelQuality:        SixelQuality(c.SixelQuality),
		AspectRatio:         c.AspectRatio,
		TerminalAspectRatio: c.TerminalAspectRatio,
		Fit:                 Fit(c.Fit),
		QueueSize:           c.QueueSize,
		PrebufferFrames:     c.PrebufferFrames,
		StaticPalette:       c.StaticPalette,
		FastResize:          c.FastResize,
		TargetFPS:           c.TargetFPS,
		AdaptiveScale:       !c.StaticPalette,
	}

	return o.FillDefaults()
}

func allModes() []string {
	return []string{string(ModeHalfBlock), string(ModeAsciiColor), string(ModeAsciiGray), string(ModeSixel)}
}

func allStyles() []string {
	return []string{string(StyleSimple), string(StyleDetailed), string(StyleBlocks)}
}

func allDithers() []string {
	return []string{string(DitherNone), string(DitherFloydSteinberg)}
}

func allSixelQualities() []string {
	return []string{string(SixelQualityLow), string(SixelQualityHigh)}
}

func allFits() []string {
	return []string{string(FitStretch), string(FitCover), string(FitContain)}
}
