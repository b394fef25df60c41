//go:build !linux && !darwin && !windows
// +build !linux,!darwin,!windows

package xdpview

import (
	"time"
)

// timeOfBoot returns the wall clock time at which the host booted, used to
// derive the boot-relative timestamps perf events carry. On platforms
// without a boot time source the timestamps degrade to zero durations.
func timeOfBoot() time.Time {
	return time.Now()
}
