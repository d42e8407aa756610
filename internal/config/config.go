// Package config assembles the run configuration from the optional
// corpus.toml manifest, environment variables, and CLI flags.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"common-corpus/common"
	"common-corpus/internal/runner"
)

// Config is the full configuration surface of a run.
type Config struct {
	IndexCSV string

	TargetCmdline string
	TargetBinary  string
	FileFormat    string
	CleanupGlob   string

	Threads    int
	OutputDir  string
	ScratchDir string
	Resume     string
	StateFile  string
	Verbose    bool
	DryRun     bool

	ArchiveBaseURL string
	RetryMax       int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	CheckpointInterval time.Duration
	CheckpointEvery    uint64

	KafkaBroker  string
	ResultsTopic string

	RedisAddr string
	RedisKey  string
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Threads:            16,
		OutputDir:          "out",
		ScratchDir:         ".",
		StateFile:          "state.json",
		RetryMax:           8,
		RetryBaseDelay:     time.Second,
		RetryMaxDelay:      64 * time.Second,
		CheckpointInterval: 30 * time.Second,
		CheckpointEvery:    1000,
		ResultsTopic:       "common-corpus.results",
		RedisKey:           "common-corpus:state",
	}
}

// manifest mirrors the corpus.toml layout.
type manifest struct {
	Target struct {
		Cmdline     string `toml:"cmdline"`
		Binary      string `toml:"binary"`
		Format      string `toml:"format"`
		CleanupGlob string `toml:"cleanup_glob"`
	} `toml:"target"`
	Run struct {
		Threads    int    `toml:"threads"`
		OutputDir  string `toml:"output_dir"`
		ScratchDir string `toml:"scratch_dir"`
		StateFile  string `toml:"state_file"`
	} `toml:"run"`
	Fetch struct {
		BaseURL       string `toml:"base_url"`
		RetryMax      int    `toml:"retry_max"`
		RetryBase     string `toml:"retry_base_delay"`
		RetryMaxDelay string `toml:"retry_max_delay"`
	} `toml:"fetch"`
	Events struct {
		Broker string `toml:"broker"`
		Topic  string `toml:"topic"`
	} `toml:"events"`
	State struct {
		RedisAddr string `toml:"redis_addr"`
		RedisKey  string `toml:"redis_key"`
	} `toml:"state"`
}

// LoadManifest overlays values from a corpus.toml file. A missing file is
// not an error; a malformed one is.
func (c *Config) LoadManifest(path string) error {
	var m manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	setString(&c.TargetCmdline, m.Target.Cmdline)
	setString(&c.TargetBinary, m.Target.Binary)
	setString(&c.FileFormat, m.Target.Format)
	setString(&c.CleanupGlob, m.Target.CleanupGlob)
	if m.Run.Threads > 0 {
		c.Threads = m.Run.Threads
	}
	setString(&c.OutputDir, m.Run.OutputDir)
	setString(&c.ScratchDir, m.Run.ScratchDir)
	setString(&c.StateFile, m.Run.StateFile)
	setString(&c.ArchiveBaseURL, m.Fetch.BaseURL)
	if m.Fetch.RetryMax > 0 {
		c.RetryMax = m.Fetch.RetryMax
	}
	if m.Fetch.RetryBase != "" {
		c.RetryBaseDelay = common.ParseDuration(m.Fetch.RetryBase, c.RetryBaseDelay)
	}
	if m.Fetch.RetryMaxDelay != "" {
		c.RetryMaxDelay = common.ParseDuration(m.Fetch.RetryMaxDelay, c.RetryMaxDelay)
	}
	setString(&c.KafkaBroker, m.Events.Broker)
	setString(&c.ResultsTopic, m.Events.Topic)
	setString(&c.RedisAddr, m.State.RedisAddr)
	setString(&c.RedisKey, m.State.RedisKey)
	return nil
}

// ApplyEnv overlays infrastructure endpoints from the environment, the same
// surface the manifest exposes.
func (c *Config) ApplyEnv() {
	c.KafkaBroker = common.GetEnv("KAFKA_BROKER", c.KafkaBroker)
	c.ResultsTopic = common.GetEnv("KAFKA_RESULTS_TOPIC", c.ResultsTopic)
	c.RedisAddr = common.GetEnv("STATE_REDIS_ADDR", c.RedisAddr)
	c.RedisKey = common.GetEnv("STATE_REDIS_KEY", c.RedisKey)
	c.ArchiveBaseURL = common.GetEnv("ARCHIVE_BASE_URL", c.ArchiveBaseURL)
	c.RetryMax = common.ParseInt(common.GetEnv("RETRY_MAX", ""), c.RetryMax)
	c.RetryBaseDelay = common.ParseDuration(common.GetEnv("RETRY_BASE_DELAY", ""), c.RetryBaseDelay)
	c.RetryMaxDelay = common.ParseDuration(common.GetEnv("RETRY_MAX_DELAY", ""), c.RetryMaxDelay)
	c.CheckpointInterval = common.ParseDuration(common.GetEnv("CHECKPOINT_INTERVAL", ""), c.CheckpointInterval)
	c.CheckpointEvery = common.ParseUint(common.GetEnv("CHECKPOINT_EVERY", ""), c.CheckpointEvery)
}

// Validate checks the configuration before any processing starts. All
// violations are configuration errors: reported once, non-zero exit.
func (c *Config) Validate() error {
	if c.IndexCSV == "" {
		return fmt.Errorf("index CSV path is required")
	}
	if _, err := os.Stat(c.IndexCSV); err != nil {
		return fmt.Errorf("index CSV not found: %s", c.IndexCSV)
	}
	if c.TargetCmdline == "" {
		return fmt.Errorf("target command line is required")
	}
	if n := strings.Count(c.TargetCmdline, runner.Placeholder); n != 1 {
		return fmt.Errorf("target command line must contain %q exactly once, found %d", runner.Placeholder, n)
	}
	if c.TargetBinary == "" {
		return fmt.Errorf("target binary name is required")
	}
	if c.FileFormat == "" {
		return fmt.Errorf("file format is required")
	}
	argv, err := runner.SplitCommand(c.TargetCmdline)
	if err != nil || len(argv) == 0 {
		return fmt.Errorf("invalid target command line: %v", err)
	}
	if _, statErr := os.Stat(argv[0]); statErr != nil {
		if _, lookErr := exec.LookPath(argv[0]); lookErr != nil {
			return fmt.Errorf("target binary not found: %s", argv[0])
		}
	}
	if c.Threads < 1 {
		return fmt.Errorf("thread count must be positive, got %d", c.Threads)
	}
	if info, err := os.Stat(c.OutputDir); err == nil && !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.OutputDir)
	} else if err != nil {
		if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return nil
}

// Summary renders the validated configuration for dry runs.
func (c *Config) Summary() string {
	var b strings.Builder
	b.WriteString("Configuration validated successfully:\n")
	fmt.Fprintf(&b, "  Index CSV: %s\n", c.IndexCSV)
	fmt.Fprintf(&b, "  Target: %s\n", c.TargetCmdline)
	fmt.Fprintf(&b, "  Binary: %s\n", c.TargetBinary)
	fmt.Fprintf(&b, "  Format: %s\n", c.FileFormat)
	fmt.Fprintf(&b, "  Threads: %d\n", c.Threads)
	fmt.Fprintf(&b, "  Output: %s\n", c.OutputDir)
	if c.CleanupGlob != "" {
		fmt.Fprintf(&b, "  Cleanup: %s\n", c.CleanupGlob)
	}
	if c.KafkaBroker != "" {
		fmt.Fprintf(&b, "  Events: %s topic=%s\n", c.KafkaBroker, c.ResultsTopic)
	}
	if c.RedisAddr != "" {
		fmt.Fprintf(&b, "  State: redis %s key=%s\n", c.RedisAddr, c.RedisKey)
	} else {
		fmt.Fprintf(&b, "  State: %s\n", c.StateFile)
	}
	return b.String()
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
