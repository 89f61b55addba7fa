package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/uuship/uuship/internal/config"
	"github.com/uuship/uuship/internal/hostcall"
	"github.com/uuship/uuship/internal/upgrade"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check spool, configuration, and statistics-mirror health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("uuship doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (using compiled-in defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Spool:")
	checkDir("Root", cfg.Spool.Root)
	checkDir("Lock dir", cfg.Spool.LockDir)

	reports := make([]string, len(cfg.Hosts))
	var g errgroup.Group
	for i, h := range cfg.Hosts {
		i, h := i, h
		g.Go(func() error {
			reports[i] = hostReport(h, time.Now())
			return nil
		})
	}
	g.Wait()
	for _, r := range reports {
		fmt.Println(r)
	}

	fmt.Println()
	fmt.Println("  Job store:")
	checkFile("sqlite path", cfg.JobStore.Path)

	if cfg.StatsDB.Enabled {
		fmt.Println()
		fmt.Println("  Statistics mirror:")
		dsn := config.PostgresDSN()
		if dsn == "" {
			fmt.Println("    UUSHIP_POSTGRES_DSN not set")
		} else if db, err := sql.Open("pgx", dsn); err != nil {
			fmt.Printf("    connect failed: %s\n", err)
		} else {
			defer db.Close()
			if err := db.PingContext(context.Background()); err != nil {
				fmt.Printf("    connect failed: %s\n", err)
			} else if s, err := upgrade.CheckSchema(db); err != nil {
				fmt.Printf("    schema check failed: %s\n", err)
			} else if s.Dirty {
				fmt.Printf("    schema v%d (DIRTY — run: uuship migrate force %d)\n", s.CurrentVersion, s.CurrentVersion-1)
			} else if s.Compatible {
				fmt.Printf("    schema v%d (up to date)\n", s.CurrentVersion)
			} else {
				fmt.Printf("    schema v%d (upgrade needed — run: uuship migrate up)\n", s.CurrentVersion)
			}
		}
	}

	fmt.Println()
	fmt.Println("  External tools:")
	checkBinary("sh")

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

// hostReport checks one host's spool/public directories and call window,
// the uuchk.c-style per-system permission dump (SPEC_FULL.md §2.5, §4.2).
func hostReport(h config.Host, now time.Time) string {
	line := fmt.Sprintf("    Host %-10s spool=%s", h.Name, dirStatus(h.SpoolDir))
	if h.PublicDir != "" {
		line += fmt.Sprintf(" public=%s", dirStatus(h.PublicDir))
	}
	if h.CallWindow != "" {
		w := hostcall.NewWindow(h.CallWindow)
		ok, err := w.Allowed(now)
		switch {
		case err != nil:
			line += fmt.Sprintf(" call_window=invalid(%s)", err)
		case ok:
			line += " call_window=open"
		default:
			line += " call_window=closed"
		}
	}
	return line
}

func dirStatus(path string) string {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "NOT FOUND"
	case !info.IsDir():
		return "NOT A DIRECTORY"
	default:
		return "OK"
	}
}

func checkDir(label, path string) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		fmt.Printf("    %-14s %s (NOT FOUND)\n", label+":", path)
	case !info.IsDir():
		fmt.Printf("    %-14s %s (NOT A DIRECTORY)\n", label+":", path)
	default:
		fmt.Printf("    %-14s %s (OK)\n", label+":", path)
	}
}

func checkFile(label, path string) {
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("    %-14s %s (will be created on first use)\n", label+":", path)
		return
	}
	fmt.Printf("    %-14s %s (OK)\n", label+":", path)
}

func checkBinary(name string) {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Printf("    %-12s NOT FOUND\n", name+":")
	} else {
		fmt.Printf("    %-12s %s\n", name+":", path)
	}
}
