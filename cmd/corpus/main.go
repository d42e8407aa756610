// corpus builds a coverage-minimized fuzzing corpus: it pulls candidate
// files from the Common Crawl archive, runs each through a
// SanitizerCoverage-enabled target, and keeps only files that produce new
// coverage.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"common-corpus/internal/config"
)

var flagCfg = config.Default()

var (
	flagConfigPath string
	flagResume     string
	flagDryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "corpus <index.csv>",
	Short: "Build a coverage-minimized fuzzing corpus from Common Crawl data",
	Long: `corpus streams candidate files from the Common Crawl archive, executes
each through a SanitizerCoverage-instrumented target, and retains only the
candidates that expand observed code coverage. Progress is checkpointed so
an interrupted run resumes where it left off.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCorpus,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagConfigPath, "config", "corpus.toml", "path to the corpus manifest")
	f.StringVar(&flagCfg.TargetCmdline, "target-cmdline", "", "command line for the instrumented target; {} marks the testcase")
	f.StringVar(&flagCfg.TargetBinary, "target-binary", "", "name of the instrumented binary (for locating .sancov files)")
	f.StringVar(&flagCfg.FileFormat, "file-format", "", "file extension for corpus files (e.g. pdf, png)")
	f.StringVar(&flagCfg.CleanupGlob, "cleanup-glob", "", "glob of files to delete after each target run")
	f.IntVarP(&flagCfg.Threads, "threads", "j", flagCfg.Threads, "number of worker threads")
	f.StringVarP(&flagCfg.OutputDir, "output-dir", "o", flagCfg.OutputDir, "output directory for corpus files")
	f.StringVar(&flagCfg.ScratchDir, "scratch-dir", flagCfg.ScratchDir, "directory for scratch files and target output")
	f.StringVar(&flagResume, "resume", "", "resume from a saved state file")
	f.StringVar(&flagCfg.StateFile, "state-file", flagCfg.StateFile, "path to save the state file")
	f.BoolVarP(&flagCfg.Verbose, "verbose", "v", false, "print periodic progress statistics")
	f.BoolVar(&flagDryRun, "dry-run", false, "validate configuration and exit without processing")
}

// buildConfig merges manifest, environment, and flags. Flags that carry a
// manifest-overridable default only win when set explicitly.
func buildConfig(cmd *cobra.Command, indexCSV string) (config.Config, error) {
	cfg := config.Default()
	if err := cfg.LoadManifest(flagConfigPath); err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()

	overlay := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	overlay("target-cmdline", func() { cfg.TargetCmdline = flagCfg.TargetCmdline })
	overlay("target-binary", func() { cfg.TargetBinary = flagCfg.TargetBinary })
	overlay("file-format", func() { cfg.FileFormat = flagCfg.FileFormat })
	overlay("cleanup-glob", func() { cfg.CleanupGlob = flagCfg.CleanupGlob })
	overlay("threads", func() { cfg.Threads = flagCfg.Threads })
	overlay("output-dir", func() { cfg.OutputDir = flagCfg.OutputDir })
	overlay("scratch-dir", func() { cfg.ScratchDir = flagCfg.ScratchDir })
	overlay("state-file", func() { cfg.StateFile = flagCfg.StateFile })
	cfg.Verbose = flagCfg.Verbose
	cfg.DryRun = flagDryRun
	cfg.Resume = flagResume
	cfg.IndexCSV = indexCSV
	return cfg, nil
}

func runCorpus(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.DryRun {
		fmt.Print(cfg.Summary())
		return nil
	}
	return run(cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
