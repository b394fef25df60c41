//go:build darwin
// +build darwin

package xdpview

import (
	"time"

	"golang.org/x/sys/unix"
)

// timeOfBoot returns the wall clock time at which the host booted, used to
// derive the boot-relative timestamps perf events carry.
func timeOfBoot() time.Time {
	var spec unix.Timespec
	err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &spec)
	if err != nil {
		return time.Now()
	}

	return time.Now().Add(-time.Second*time.Duration(spec.Sec) - time.Duration(spec.Nsec))
}
