package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakuraviz/sakura/facade"
	"github.com/sakuraviz/sakura/grid"
	"github.com/sakuraviz/sakura/internal/logging"
	"github.com/sakuraviz/sakura/option"
	"github.com/sakuraviz/sakura/playback"
	"github.com/sakuraviz/sakura/profile"
	"github.com/sakuraviz/sakura/termio"
	"github.com/sakuraviz/sakura/version"
)

// cliFlags holds sakura's own flag values, layered alongside the shared
// option.Config render flags.
type cliFlags struct {
	images     []string
	gif        string
	video      string
	localVideo string
	cols       int
	showVer    bool
}

func newRootCmd() *cobra.Command {
	optCfg := option.NewConfig()
	logCfg := logging.NewConfig()
	profCfg := profile.NewConfig()
	flags := &cliFlags{}

	// logPub fans out every log line to the interactive menu's live tail in
	// addition to stderr; runSakura only subscribes to it in the no-argument
	// menu path.
	logPub := logging.NewPublisher()

	var profiler *profile.Profiler

	rootCmd := &cobra.Command{
		Use:           "sakura",
		Short:         "Render images, GIFs, and video in the terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			handler, err := logCfg.NewHandler(io.MultiWriter(cmd.ErrOrStderr(), logPub))
			if err != nil {
				return fmt.Errorf("configuring logging: %w", err)
			}

			setDefaultLogger(handler)

			profiler = profCfg.NewProfiler()

			return profiler.Start()
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if profiler == nil {
				return nil
			}

			return profiler.Stop()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.showVer {
				printVersion(cmd)

				return nil
			}

			return runSakura(cmd, flags, optCfg.RenderOptions(), logPub)
		},
	}

	rootCmd.Flags().StringArrayVarP(&flags.images, "image", "i", nil,
		"still image URL, http(s) only (repeatable for a grid layout with --cols)")
	rootCmd.Flags().StringVarP(&flags.gif, "gif", "g", "", "animated GIF URL")
	rootCmd.Flags().StringVarP(&flags.video, "video", "v", "", "remote video URL")
	rootCmd.Flags().StringVarP(&flags.localVideo, "local-video", "l", "", "local video file path")
	rootCmd.Flags().IntVar(&flags.cols, "cols", 1, "grid columns when multiple --image values are given")
	rootCmd.Flags().BoolVar(&flags.showVer, "version", false, "print version information and exit")

	optCfg.RegisterFlags(rootCmd.Flags())
	logCfg.RegisterFlags(rootCmd.PersistentFlags())
	profCfg.RegisterFlags(rootCmd.PersistentFlags())

	if err := optCfg.RegisterCompletions(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	if err := logCfg.RegisterCompletions(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	if err := profCfg.RegisterCompletions(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	return rootCmd
}

func printVersion(cmd *cobra.Command) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "sakura %s (%s, %s/%s, revision %s)\n",
		orUnknown(version.Version), version.GoVersion, version.GoOS, version.GoArch, version.Revision)

	codecs := version.DetectCodecs()
	fmt.Fprintf(out, "codecs: ffmpeg=%s ffprobe=%s ffplay=%s\n",
		presentOrMissing(codecs.FFmpeg), presentOrMissing(codecs.FFprobe), presentOrMissing(codecs.FFplay))
}

func presentOrMissing(found bool) string {
	if found {
		return "found"
	}

	return "missing"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}

	return s
}

// runSakura dispatches to the requested render mode. Exactly one of the
// mutually-exclusive source flags is expected; with none and no positional
// input it falls back to the interactive menu.
func runSakura(cmd *cobra.Command, flags *cliFlags, opts option.RenderOptions, logPub *logging.Publisher) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	term := termio.ProbeStdout()

	switch {
	case len(flags.images) > 1:
		return runGrid(ctx, cmd, flags, opts, term)
	case len(flags.images) == 1:
		return runStill(ctx, cmd, flags.images[0], opts, term)
	case flags.gif != "":
		return runAnimated(ctx, cmd, flags.gif, opts, term)
	case flags.video != "":
		return runVideo(ctx, cmd, flags.video, opts, term, true)
	case flags.localVideo != "":
		return runLocalVideo(ctx, cmd, flags.localVideo, opts, term)
	default:
		return runInteractive(ctx, cmd, opts, term, logPub)
	}
}

func runStill(ctx context.Context, cmd *cobra.Command, urlOrPath string, opts option.RenderOptions, term termio.Size) error {
	out, err := facade.RenderStillURL(ctx, urlOrPath, opts, term)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)

	return nil
}

func runGrid(ctx context.Context, cmd *cobra.Command, flags *cliFlags, opts option.RenderOptions, term termio.Size) error {
	out, err := grid.Compose(ctx, flags.images, flags.cols, opts, term.Cols, term.Rows, decodeImageFile)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), out)

	return nil
}

func runAnimated(ctx context.Context, cmd *cobra.Command, url string, opts option.RenderOptions, term termio.Size) error {
	stats, err := facade.RenderAnimatedURL(ctx, url, opts, term, cmd.OutOrStdout())

	printStats(cmd, stats)

	return err
}

func runVideo(ctx context.Context, cmd *cobra.Command, url string, opts option.RenderOptions, term termio.Size, remote bool) error {
	var (
		stats playback.Stats
		err   error
	)

	if remote {
		stats, err = facade.RenderVideoURL(ctx, url, opts, term, cmd.OutOrStdout())
	} else {
		stats, err = facade.RenderVideoFile(ctx, url, opts, term, cmd.OutOrStdout())
	}

	printStats(cmd, stats)

	return err
}

func runLocalVideo(ctx context.Context, cmd *cobra.Command, path string, opts option.RenderOptions, term termio.Size) error {
	stats, err := facade.RenderVideoFile(ctx, path, opts, term, cmd.OutOrStdout())

	printStats(cmd, stats)

	return err
}

func printStats(cmd *cobra.Command, stats playback.Stats) {
	read, rendered, dropped := stats.Snapshot()
	fmt.Fprintf(cmd.ErrOrStderr(), "frames: read=%d rendered=%d dropped=%d\n", read, rendered, dropped)
}

var errNoInteractiveSelection = errors.New("no selection made")
