package globals

import (
	"playconsole-backend/internal/components/alert"
	"playconsole-backend/internal/components/telemetry"
	"playconsole-backend/internal/scrapers/console"
	"time"
)

type ConsoleConfig struct {
	// "v2" (default) or "legacy"
	Version          string           `json:"version"`
	DeveloperAccount string           `json:"developer_account"`
	Cookies          []console.Cookie `json:"cookies"`
	UserAgent        string           `json:"user_agent"`
	// the console throttles aggressive clients, keep this low
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	// when set every request/response pair is written to this directory
	DumpDirectory string `json:"dump_directory"`
}

func (c ConsoleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type StoreConfig struct {
	// path to the sqlite database, empty means in memory
	Path string `json:"path"`
}

type DaemonConfig struct {
	// standard 5 field cron spec, defaults to "0 6 * * *"
	Cron       string   `json:"cron"`
	Timezone   string   `json:"timezone"`
	MonthsBack int      `json:"months_back"`
	Packages   []string `json:"packages"`
	StatsDays  int      `json:"stats_days"`
	Keep       int      `json:"keep"`
	// address the stored reports are served on, empty disables the server
	Listen string `json:"listen"`
}

type Config struct {
	Console   ConsoleConfig    `json:"console"`
	Telemetry telemetry.Config `json:"telemetry"`
	Store     StoreConfig      `json:"store"`
	Daemon    DaemonConfig     `json:"daemon"`
	Alert     alert.Config     `json:"alert"`
}
