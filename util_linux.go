//go:build linux
// +build linux

package xdpview

import (
	"time"

	"golang.org/x/sys/unix"
)

// timeOfBoot returns the wall clock time at which the host booted, used to
// derive the boot-relative timestamps perf events carry.
func timeOfBoot() time.Time {
	var info unix.Sysinfo_t
	err := unix.Sysinfo(&info)
	if err != nil {
		return time.Now()
	}

	return time.Now().Add(-time.Second * time.Duration(info.Uptime))
}
