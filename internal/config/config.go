// Package config turns the raw flag values cobra/viper bind into one
// validated Config, the way the teacher's runTail parsed its flags inline —
// generalized into its own layer so argument-parsing errors are reported
// from a single place, per spec.
package config

import (
	"fmt"
	"time"

	"github.com/lurktail/lurk/internal/numspec"
	"github.com/lurktail/lurk/internal/sleepspec"
)

// FollowMode selects how (and whether) the follow engine tracks a path
// across renames.
type FollowMode int

const (
	FollowNone FollowMode = iota
	// FollowDescriptor keeps following the open handle across a rename.
	FollowDescriptor
	// FollowName re-resolves the path on every change, detecting rotation.
	FollowName
)

// Flags is the raw, string-typed view of every CLI flag, exactly as bound
// by cobra/viper in cmd/lurk — before suffix parsing, sign resolution, or
// cross-flag validation.
type Flags struct {
	Lines string
	Bytes string
	// BytesSet is whether --bytes/-c was explicitly given; when both Lines
	// and Bytes are set, Bytes wins, matching GNU tail.
	BytesSet bool

	// FollowValue is the --follow/-f value ("", "descriptor", or "name");
	// FollowSet is whether -f/--follow appeared at all.
	FollowValue string
	FollowSet   bool
	// FollowName is -F, equivalent to --follow=name --retry.
	FollowName bool
	Retry      bool

	SleepInterval string

	PID    int
	HasPID bool

	Quiet          bool
	Verbose        bool
	ZeroTerminated bool

	DisableInotify    bool
	MaxUnchangedStats int
}

// Config is the fully resolved, validated configuration the follow engine
// consumes.
type Config struct {
	Spec  numspec.Spec
	Delim byte

	Follow FollowMode
	Retry  bool

	SleepInterval time.Duration

	PID    int
	HasPID bool

	Quiet   bool
	Verbose bool

	DisableInotify    bool
	MaxUnchangedStats int

	Paths []string
}

// Load validates and resolves f and the positional path arguments into a
// Config, or returns the single argument error to report (per spec §7,
// argument errors are reported once and are immediately fatal).
func Load(f Flags, args []string) (Config, error) {
	unit := numspec.Lines
	raw := f.Lines
	if f.BytesSet {
		unit = numspec.Bytes
		raw = f.Bytes
	}
	if raw == "" {
		raw = "10"
	}

	spec, err := numspec.Parse(raw, unit)
	if err != nil {
		return Config{}, err
	}

	interval := f.SleepInterval
	if interval == "" {
		interval = "1"
	}
	sleep, err := sleepspec.Parse(interval)
	if err != nil {
		return Config{}, err
	}

	follow := FollowNone
	retry := f.Retry
	if f.FollowSet {
		switch f.FollowValue {
		case "", "descriptor":
			follow = FollowDescriptor
		case "name":
			follow = FollowName
		default:
			return Config{}, fmt.Errorf("invalid follow mode: %s (use 'name' or 'descriptor')", f.FollowValue)
		}
	}
	if f.FollowName {
		follow = FollowName
		retry = true
	}

	delim := byte('\n')
	if f.ZeroTerminated {
		delim = 0
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"-"}
	}

	return Config{
		Spec:              spec,
		Delim:             delim,
		Follow:            follow,
		Retry:             retry,
		SleepInterval:     sleep,
		PID:               f.PID,
		HasPID:            f.HasPID && f.PID != 0,
		Quiet:             f.Quiet,
		Verbose:           f.Verbose,
		DisableInotify:    f.DisableInotify,
		MaxUnchangedStats: f.MaxUnchangedStats,
		Paths:             paths,
	}, nil
}

// ShowHeaders reports whether headers should be emitted for this run, per
// spec §4.3: disabled when quiet, otherwise enabled when there's more than
// one input or verbose was requested.
func (c Config) ShowHeaders(inputCount int) bool {
	if c.Quiet {
		return false
	}
	return inputCount > 1 || c.Verbose
}
