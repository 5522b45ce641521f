// Package procwatch abstracts the sentinel-PID liveness probe behind --pid:
// one production implementation backed by gopsutil (works the same way on
// Linux, macOS, and Windows, unlike the syscall-per-platform approach),
// and one in-memory test double so the follow engine can be exercised
// without spawning real processes.
package procwatch

import "github.com/shirou/gopsutil/v4/process"

// Liveness probes whether a process is still alive.
type Liveness interface {
	// Alive reports whether pid is running. Inspection failures must be
	// treated as "still alive" by callers — see Alive's gopsutil
	// implementation below — since the engine should never terminate on
	// an ambiguous probe.
	Alive(pid int) bool
}

// gopsutilLiveness is the production Liveness backed by gopsutil.
type gopsutilLiveness struct{}

// New returns the production Liveness probe.
func New() Liveness {
	return gopsutilLiveness{}
}

// Alive reports whether pid exists. Any inspection error (e.g. a
// permissions failure probing a process owned by another user) is treated
// conservatively as "still alive", per spec: sentinel PID inspection
// failures never terminate the engine.
func (gopsutilLiveness) Alive(pid int) bool {
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return true
	}
	return exists
}
