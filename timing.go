// FILE: lixenwraith/optcfg/timing.go
package optcfg

import "time"

// File watching timing.
const (
	MinPollInterval     = 10 * time.Millisecond  // Hard floor for file stat polling
	DefaultDebounce     = 500 * time.Millisecond // File change coalescence period
	DefaultPollInterval = time.Second            // Standard file monitoring frequency
)
