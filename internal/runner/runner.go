// Package runner executes the instrumented target against candidate bytes
// and collects the resulting coverage artifact.
package runner

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CoverageEnv enables SanitizerCoverage dumping in the target.
const CoverageEnv = "ASAN_OPTIONS=coverage=1"

// Placeholder is the template token substituted with the scratch file path.
const Placeholder = "{}"

// RunError marks a per-candidate execution failure: the target could not be
// launched, or its coverage artifact is missing or malformed. Never run-fatal.
type RunError struct {
	Err error
}

func (e *RunError) Error() string { return fmt.Sprintf("run error: %v", e.Err) }
func (e *RunError) Unwrap() error { return e.Err }

// Result is one target invocation's coverage evidence.
type Result struct {
	Edges    []uint64 // parsed, deduplicated coverage edges
	Artifact []byte   // raw sancov bytes, persisted as the corpus sidecar
}

// Runner invokes the target for candidate bytes. Safe for concurrent use:
// each worker writes its own scratch file keyed by worker id.
type Runner struct {
	argv        []string // command template, split; one arg contains Placeholder
	binary      string   // target binary name, for locating sancov artifacts
	ext         string   // scratch file extension
	scratchDir  string
	cleanupGlob string
}

// New builds a runner from the command-line template. The template must
// contain the placeholder exactly once.
func New(template, binary, ext, scratchDir, cleanupGlob string) (*Runner, error) {
	argv, err := SplitCommand(template)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, errors.New("empty target command line")
	}
	if n := strings.Count(template, Placeholder); n != 1 {
		return nil, fmt.Errorf("target command line must contain %q exactly once, found %d", Placeholder, n)
	}
	return &Runner{
		argv:        argv,
		binary:      binary,
		ext:         ext,
		scratchDir:  scratchDir,
		cleanupGlob: cleanupGlob,
	}, nil
}

// Run writes data to the worker's scratch file, launches the target with
// coverage instrumentation enabled, and parses the sancov artifact the
// target dumped. A non-zero target exit is not an error; crashing inputs
// still produce coverage. The cleanup glob is removed after every
// invocation regardless of outcome.
func (r *Runner) Run(worker int, data []byte) (Result, error) {
	defer r.cleanup()

	scratch := filepath.Join(r.scratchDir, fmt.Sprintf("test%d.%s", worker, r.ext))
	if err := os.WriteFile(scratch, data, 0o644); err != nil {
		return Result{}, &RunError{Err: fmt.Errorf("write scratch file: %w", err)}
	}

	argv := make([]string, len(r.argv))
	for i, a := range r.argv {
		argv[i] = strings.ReplaceAll(a, Placeholder, scratch)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = r.scratchDir
	cmd.Env = append(os.Environ(), CoverageEnv)

	if err := cmd.Start(); err != nil {
		return Result{}, &RunError{Err: fmt.Errorf("launch target: %w", err)}
	}
	if err := cmd.Wait(); err != nil {
		// Target crashes and non-zero exits are expected on fuzz inputs.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, &RunError{Err: fmt.Errorf("wait for target: %w", err)}
		}
	}

	artifactPath := filepath.Join(r.scratchDir, fmt.Sprintf("%s.%d.sancov", r.binary, cmd.Process.Pid))
	defer os.Remove(artifactPath)

	artifact, err := os.ReadFile(artifactPath)
	if err != nil {
		return Result{}, &RunError{Err: fmt.Errorf("coverage artifact missing: %w", err)}
	}
	edges, err := ParseSancov(artifact)
	if err != nil {
		return Result{}, &RunError{Err: err}
	}
	return Result{Edges: edges, Artifact: artifact}, nil
}

// cleanup removes files matching the configured glob. Relative patterns are
// rooted at the scratch dir, where the target ran.
func (r *Runner) cleanup() {
	if r.cleanupGlob == "" {
		return
	}
	pattern := r.cleanupGlob
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(r.scratchDir, pattern)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		log.Printf("cleanup glob error: %v", err)
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			log.Printf("cleanup remove %s: %v", m, err)
		}
	}
}

// SplitCommand splits a command line into arguments, honoring single and
// double quotes.
func SplitCommand(line string) ([]string, error) {
	var args []string
	var cur strings.Builder
	var quote rune
	inArg := false
	for _, ch := range line {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '\'' || ch == '"':
			quote = ch
			inArg = true
		case ch == ' ' || ch == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(ch)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unbalanced quote in command line: %s", line)
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
