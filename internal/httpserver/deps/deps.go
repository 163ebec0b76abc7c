package deps

import (
	"time"

	"github.com/MrSnakeDoc/huddle/internal/catalog"
	"github.com/MrSnakeDoc/huddle/internal/logger"
	"github.com/MrSnakeDoc/huddle/internal/scheduler"
	"github.com/MrSnakeDoc/huddle/internal/store"
)

// RefreshReporter exposes the outcome of background refreshes.
type RefreshReporter interface {
	Status() scheduler.RefreshStatus
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	InstanceID     string // random per process, tells replicas apart
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedHosts   []string         // Host headers allowed to mutate or reload
	AllowedCIDRS   []string         // IPs allowed to mutate, reload and probe
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Catalog        *catalog.Store   // the sports collection
	Backend        store.Backend    // storage behind Catalog, pinged by /readyz and /infra
	BackendName    string           // "redis", "sqlite", "file" or "memory"
	Refresher      RefreshReporter  // nil when no background refresher runs
	ReloadTrigger  chan struct{}    // Channel to trigger a manual refresh
	MutationBurst  int              // rate limit bucket size for mutating routes
	MutationRefill int              // tokens per minute for mutating routes
}
