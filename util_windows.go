//go:build windows
// +build windows

package xdpview

import (
	"time"

	"golang.org/x/sys/windows"
)

// timeOfBoot returns the wall clock time at which the host booted, used to
// derive the boot-relative timestamps perf events carry.
func timeOfBoot() time.Time {
	return time.Now().Add(-1 * windows.DurationSinceBoot())
}
