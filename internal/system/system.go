//go:build !windows

// Package system holds process-level glue: resource limits, memory-aware
// worker sizing, output directory layout and launching the compositing
// application.
package system

import (
	"fmt"
	"log"
	"syscall"
)

// InitResourceLimits raises the open-file limit. A headless browser with
// several tabs burns file descriptors quickly.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Could not read file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Could not raise file limit: %v", err)
	} else {
		fmt.Printf("[*] Open file limit raised to %d\n", rLimit.Cur)
	}
}
