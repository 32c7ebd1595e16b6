package system

import (
	"log"

	"github.com/shirou/gopsutil/v3/mem"
)

// bytes a headless tab typically holds at a 3x device pixel ratio.
const perWorkerBudget = 512 << 20

// ClampWorkers caps the requested worker count by available memory, so a
// wide pool of browser tabs does not push the host into swap. The
// requested value is only ever lowered.
func ClampWorkers(requested int) int {
	if requested < 1 {
		requested = 1
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Printf("[!] Could not read memory stats: %v", err)
		return requested
	}
	byMem := int(vm.Available / perWorkerBudget)
	if byMem < 1 {
		byMem = 1
	}
	if byMem < requested {
		log.Printf("[!] Worker pool reduced %d -> %d (%.1f GB available)",
			requested, byMem, float64(vm.Available)/(1<<30))
		return byMem
	}
	return requested
}
