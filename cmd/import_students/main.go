package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	opsdb "examroom/database"
	"examroom/internal/config"
	"examroom/internal/database"
	"examroom/internal/logger"
	"examroom/internal/repository"
	"examroom/internal/service"
)

// Bulk-imports student accounts from a CSV file without going through the
// HTTP surface. Useful for the initial roster load.
func main() {
	csvPath := flag.String("file", "", "path to the CSV file (header: full_name,phone,class)")
	defaultClass := flag.String("class", "", "class applied when the CSV has no class column")
	reportPath := flag.String("report", "", "optional path to write the per-row outcome CSV")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Prefer the godror env-driven pool when a thick-client host is set up;
	// otherwise fall back to the API pool's go-ora connection.
	db, err := opsdb.InitDB()
	if err != nil {
		db, err = database.NewSQLXOracleDB(cfg.GetDSN())
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	accountRepository := repository.NewSQLXAccountRepository(db)
	deviceRepository := repository.NewSQLXDeviceRepository(db)
	accountService := service.NewAccountService(accountRepository, deviceRepository)
	importService := service.NewImportService(accountService, cfg.Import)

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *csvPath, err)
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := importService.ImportStudents(ctx, file, *defaultClass)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	for _, outcome := range result.Outcomes {
		if outcome.Success {
			fmt.Printf("ok      %-30s login=%s\n", outcome.InputName, outcome.LoginID)
		} else {
			fmt.Printf("failed  %-30s %s\n", outcome.InputName, outcome.ErrorMessage)
		}
	}
	fmt.Printf("\n%d succeeded, %d failed\n", result.Succeeded, result.Failed)

	if *reportPath != "" {
		report, err := importService.ResultsCSV(result)
		if err != nil {
			log.Fatalf("Failed to render report: %v", err)
		}
		if err := os.WriteFile(*reportPath, report, 0o644); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		fmt.Printf("report written to %s\n", *reportPath)
	}

	if result.Failed > 0 {
		os.Exit(1)
	}
}
