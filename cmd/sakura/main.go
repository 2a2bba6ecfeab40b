// Command sakura renders an image, GIF, or video in the terminal as
// half-block, ASCII, or SIXEL output, optionally with muted-fallback audio
// playback for video sources. Invoked with no arguments it starts an
// interactive menu.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sakura: %v\n", err)

		return 1
	}

	return 0
}
