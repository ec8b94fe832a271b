// FilePath: cmd/hydrohub/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	"github.com/itsatony/hydrohub/internal/config"
	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/server"
	flag "github.com/spf13/pflag"
	nuts "github.com/vaudience/go-nuts"
)

// buildVersion is stamped at link time:
//
//	go build -ldflags "-X main.buildVersion=1.4.0" ./cmd/hydrohub
var buildVersion string

// @title hydrohub API
// @version 1.0
// @description Telemetry and control backend for a multi-unit hydroponics facility.
// @BasePath /
func main() {
	showVersion := flag.Bool("version", false, "print the version and exit")
	quiet := flag.BoolP("quiet", "q", false, "skip the startup banner")
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	nuts.InitVersion()
	version := resolveVersion(buildVersion, nuts.GetVersion())
	if *showVersion {
		fmt.Println(version)
		return
	}

	if !*quiet {
		ClearConsole()
		DrawLogo(version)
	}
	nuts.L.Infof("[Main] Starting HydroHub Server v%s", version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *migrateOnly {
		if err := migrate(cfg.Database); err != nil {
			nuts.L.Errorf("[Main] Migration failed: %v", err)
			os.Exit(1)
		}
		nuts.L.Infof("[Main] Database schema is up to date (%s)", cfg.Database.Driver)
		return
	}

	srv := server.New(cfg)
	srv.SetVersion(version)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// resolveVersion prefers the link-time version over version.json and git tags
func resolveVersion(build, fallback string) string {
	if build != "" {
		return build
	}
	return fallback
}

func migrate(cfg config.DatabaseConfig) error {
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return database.Migrate(context.Background(), db)
}

// ClearConsole clears the console screen.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo(version string) {
	fmt.Println()
	lines := []string{
		"    __  __          __           __  __      __  ",
		"   / / / /_  ______/ /________  / / / /_  __/ /_ ",
		"  / /_/ / / / / __  / ___/ __ \\/ /_/ / / / / __ \\",
		" / __  / /_/ / /_/ / /  / /_/ / __  / /_/ / /_/ /",
		"/_/ /_/\\__, /\\__,_/_/   \\____/_/ /_/\\__,_/_.___/ ",
		"      /____/ ......................................  " + version,
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
