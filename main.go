// =============================================================================
// Cost Profiler - Main Entry Point
// =============================================================================
//
// USAGE:
//   costprofiler summarize   - Build profiles from the billing exports
//   costprofiler price       - Profiles plus fixed price suggestions
//   costprofiler breakdown   - Per-product billing of one company and month
//   costprofiler validate    - Validate the configuration
//   costprofiler version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Ingestion, cleaning, analytics, pricing and export
//   - pkg/utils  : File discovery, archival, error logs and run summaries
//
// =============================================================================

package main

import (
	"github.com/taopa/costprofiler/cmd"
)

func main() {
	cmd.Execute()
}
