// Package profile adds runtime profiling to sakura's CLI, so the decode,
// resize, and encode hot paths of a render can be captured without a
// separate build.
//
// It supports CPU, heap, allocs, goroutine, threadcreate, block, and mutex
// profiles through command-line flags. Use [Config.RegisterFlags] to add CLI
// flags and [Config.RegisterCompletions] to wire up shell completions.
//
// Typical usage creates a [Config], registers flags, then creates a
// [Profiler] to wrap command execution, as cmd/sakura's root command does:
//
//	cfg := profile.NewConfig()
//
//	var p *profile.Profiler
//
//	rootCmd := &cobra.Command{
//	    PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
//	        p = cfg.NewProfiler() // after flag parsing, so it sees the values
//	        return p.Start()
//	    },
//	    PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
//	        return p.Stop()
//	    },
//	}
//
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//	err := rootCmd.Execute()
//
// Users can then enable profiling via flags like --cpu-profile=cpu.prof to
// capture a slow video render.
package profile
