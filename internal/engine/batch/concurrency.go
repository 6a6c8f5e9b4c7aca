// internal/engine/batch/concurrency.go
package batch

import (
	"runtime"
)

// Upper bounds for auto-tuned concurrency
const (
	maxHTTPWorkers    = 50
	maxBrowserWorkers = 8
)

// OptimalConcurrency calculates concurrency from the CPU count.
// Browser-backed drivers get one worker per CPU, capped well below plain HTTP.
func OptimalConcurrency(browser bool) int {
	numCPU := runtime.NumCPU()

	// Searches are I/O bound: 3x CPU for HTTP, 1x for full browsers
	if browser {
		return min(max(numCPU, 1), maxBrowserWorkers)
	}
	return min(max(numCPU*3, 1), maxHTTPWorkers)
}
