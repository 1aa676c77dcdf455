package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"bookbuddy/internal/config"
	"bookbuddy/internal/database"
	"bookbuddy/internal/service"
	"bookbuddy/migrations"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.<format>)")
	exportFormat := exportCmd.String("format", service.FormatJSON, "Output format: json or yaml")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if *exportFormat != service.FormatJSON && *exportFormat != service.FormatYAML {
			fmt.Printf("Error: unsupported format %q\n", *exportFormat)
			exportCmd.PrintDefaults()
			os.Exit(1)
		}
		handleExport(openBackupService(), *exportOutput, *exportFormat)

	default:
		printUsage()
		os.Exit(1)
	}
}

func openBackupService() *service.BackupService {
	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations to ensure schema is up to date
	var fsys fs.FS = migrations.FS
	if cfg.MigrationsPath != "" {
		fsys = os.DirFS(cfg.MigrationsPath)
	}
	if err := db.RunMigrations(fsys); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	return service.NewBackupService(db)
}

func handleExport(backupService *service.BackupService, outputPath, format string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.%s", timestamp, format)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	log.Printf("Exporting database to: %s", outputPath)
	if err := backupService.Export(outputPath, format); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	fileInfo, err := os.Stat(outputPath)
	if err == nil {
		log.Printf("Export complete! File size: %.2f KB", float64(fileInfo.Size())/1024)
	}
}

func printUsage() {
	fmt.Println("BookBuddy Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export all family data")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.<format>)")
	fmt.Println("  -format <fmt>     json or yaml (default: json)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export")
	fmt.Println("  backup export -format yaml -output backups/family.yaml")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./bookbuddy.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  CONFIG_FILE      Optional config file read before the environment")
}
