package registry

import (
	"time"

	"github.com/opskit/toolbox/internal/metadata"
	"github.com/opskit/toolbox/internal/script"
)

// Plugin is one discovered report script: its parsed header plus a lazy
// reference to its code. The code has not been loaded when a Plugin exists.
type Plugin struct {
	Meta *metadata.Metadata
	Ref  script.Reference
}

// Name returns the plugin's display name.
func (p Plugin) Name() string {
	return p.Meta.Name
}

// RunStatus is the remembered outcome of a plugin's last run.
type RunStatus string

const (
	RunUnknown RunStatus = "unknown"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Icon returns the Unicode marker for the status.
func (s RunStatus) Icon() string {
	switch s {
	case RunSuccess:
		return "🟢"
	case RunFailed:
		return "🔴"
	default:
		return "⚪"
	}
}

// IconFallback returns an ASCII marker when Unicode is unavailable.
func (s RunStatus) IconFallback() string {
	switch s {
	case RunSuccess:
		return "[OK]"
	case RunFailed:
		return "[XX]"
	default:
		return "[??]"
	}
}

// String returns the string representation of the status.
func (s RunStatus) String() string {
	return string(s)
}

// CachedRun stores the last-run summary persisted for a plugin between
// sessions. Advisory display data only; it never gates execution.
type CachedRun struct {
	Status      RunStatus `json:"status"`
	Summary     string    `json:"summary"`
	CompletedAt time.Time `json:"completed_at"`
}

// RunCacheFile is the JSON file format for the last-run cache.
type RunCacheFile struct {
	Version string               `json:"version"`
	Runs    map[string]CachedRun `json:"runs"`
}
