package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/basket/routines/internal/config"
	"github.com/basket/routines/internal/persistence"
	"github.com/basket/routines/internal/shared"
)

type CheckResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "PASS", "FAIL", "WARN", "SKIP"
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type Diagnosis struct {
	Timestamp time.Time     `json:"timestamp"`
	System    SystemInfo    `json:"system"`
	Results   []CheckResult `json:"results"`
}

type SystemInfo struct {
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	Go      string `json:"go_version"`
	Version string `json:"version"`
}

// Run executes all diagnostic checks.
func Run(ctx context.Context, cfg *config.Config, version string) Diagnosis {
	d := Diagnosis{
		Timestamp: time.Now().UTC(),
		System: SystemInfo{
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			Go:      runtime.Version(),
			Version: version,
		},
	}

	checks := []func(context.Context, *config.Config) CheckResult{
		checkConfig,
		checkSessions,
		checkMemories,
		checkAgentBinary,
		checkLedger,
		checkPermissions,
	}

	for _, check := range checks {
		d.Results = append(d.Results, check(ctx, cfg))
	}

	return d
}

func checkConfig(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Config", Status: "FAIL", Message: "Configuration not loaded"}
	}
	return CheckResult{
		Name:    "Config",
		Status:  "PASS",
		Message: fmt.Sprintf("Loaded from %s", cfg.HomeDir),
		Detail:  fmt.Sprintf("timezone=%s, prompt_dir=%s", cfg.Timezone, cfg.PromptDir),
	}
}

func checkSessions(ctx context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Session Store", Status: "SKIP", Message: "Config missing"}
	}

	store, err := persistence.OpenSessions(cfg.RedisURL)
	if err != nil {
		return CheckResult{
			Name:    "Session Store",
			Status:  "FAIL",
			Message: fmt.Sprintf("Bad Redis URL: %v", err),
			Detail:  shared.RedactURL(cfg.RedisURL),
		}
	}
	defer store.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return CheckResult{
			Name:    "Session Store",
			Status:  "FAIL",
			Message: fmt.Sprintf("Redis unreachable: %v", err),
			Detail:  shared.RedactURL(cfg.RedisURL),
		}
	}
	return CheckResult{Name: "Session Store", Status: "PASS", Message: fmt.Sprintf("Redis reachable at %s", shared.RedactURL(cfg.RedisURL))}
}

func checkMemories(ctx context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Memories", Status: "SKIP", Message: "Config missing"}
	}
	if cfg.DatabaseURL == "" {
		// Not an error: routines that read memories degrade to an empty set.
		return CheckResult{Name: "Memories", Status: "SKIP", Message: "DATABASE_URL not set (memory reads degrade to empty)"}
	}

	reader, err := persistence.OpenMemories(cfg.DatabaseURL)
	if err != nil {
		return CheckResult{
			Name:    "Memories",
			Status:  "FAIL",
			Message: fmt.Sprintf("Bad database URL: %v", err),
			Detail:  shared.RedactURL(cfg.DatabaseURL),
		}
	}
	defer reader.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := reader.Ping(pingCtx); err != nil {
		return CheckResult{
			Name:    "Memories",
			Status:  "FAIL",
			Message: fmt.Sprintf("Postgres unreachable: %v", err),
			Detail:  shared.RedactURL(cfg.DatabaseURL),
		}
	}
	return CheckResult{Name: "Memories", Status: "PASS", Message: "Postgres reachable"}
}

func checkAgentBinary(_ context.Context, cfg *config.Config) CheckResult {
	bin := "claude"
	if cfg != nil && cfg.Agent.Bin != "" {
		bin = cfg.Agent.Bin
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return CheckResult{
			Name:    "Agent Binary",
			Status:  "FAIL",
			Message: fmt.Sprintf("%q not found on PATH", bin),
			Detail:  "Every routine dispatches through the agent CLI; install it or set agent.bin",
		}
	}
	return CheckResult{Name: "Agent Binary", Status: "PASS", Message: fmt.Sprintf("%s at %s", bin, path)}
}

func checkLedger(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Ledger", Status: "SKIP", Message: "Config missing"}
	}

	ledger, err := persistence.OpenLedger(cfg.LedgerPath())
	if err != nil {
		return CheckResult{Name: "Ledger", Status: "FAIL", Message: fmt.Sprintf("Open failed: %v", err), Detail: cfg.LedgerPath()}
	}
	defer ledger.Close()

	return CheckResult{Name: "Ledger", Status: "PASS", Message: "Open and schema valid", Detail: cfg.LedgerPath()}
}

func checkPermissions(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Name: "Permissions", Status: "SKIP", Message: "Config missing"}
	}

	testFile := fmt.Sprintf("%s/.write_test", cfg.HomeDir)
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return CheckResult{Name: "Permissions", Status: "FAIL", Message: fmt.Sprintf("Home dir unwritable: %v", err)}
	}
	os.Remove(testFile)

	return CheckResult{Name: "Permissions", Status: "PASS", Message: "Home directory writable"}
}
