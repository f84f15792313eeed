package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/pkg/importer"
)

const usage = "Usage: import_devices --file=path.xlsx [--mapping=configs/mapping/devices.yaml] [--max-errors=50] [--dry-run]"

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var filePath, mappingPath string
	maxErrors := importer.DefaultMaxErrors
	dryRun := false

	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "--file=") {
			filePath = strings.TrimPrefix(arg, "--file=")
		} else if strings.HasPrefix(arg, "--mapping=") {
			mappingPath = strings.TrimPrefix(arg, "--mapping=")
		} else if strings.HasPrefix(arg, "--max-errors=") {
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "--max-errors="))
			if err != nil || n < 0 {
				log.Fatalf("Invalid max-errors: %q", arg)
			}
			maxErrors = n
		} else if arg == "--dry-run" {
			dryRun = true
		}
	}

	if filePath == "" {
		fmt.Println("Error: file is required")
		fmt.Println(usage)
		os.Exit(1)
	}

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:8080"
	}
	client := backend.NewClient(backendURL)

	ctx := context.Background()
	token := os.Getenv("BACKEND_TOKEN")
	if token == "" && !dryRun {
		resp, err := client.Login(ctx, models.LoginRequest{
			Email:    os.Getenv("CATALOG_EMAIL"),
			Password: os.Getenv("CATALOG_PASSWORD"),
		})
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		token = resp.Token
	}

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("Failed to open Excel file: %v", err)
	}
	defer file.Close()

	fmt.Printf("Importing devices from %s into %s (dry_run=%v)\n", filePath, backendURL, dryRun)
	fmt.Println("=" + strings.Repeat("=", 60))

	summary, err := importer.ImportExcel(ctx, client.WithToken(token), file, importer.ImportOptions{
		MappingPath: mappingPath,
		DryRun:      dryRun,
		MaxErrors:   maxErrors,
	})
	if err != nil {
		log.Printf("Import stopped: %v", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Total created: %d\n", summary.Created)
	fmt.Printf("Total skipped: %d\n", summary.Skipped)
	fmt.Printf("Total errors: %d\n", summary.Errors)
	fmt.Printf("Dry run: %v\n", summary.DryRun)

	if len(summary.Sheets) > 0 {
		fmt.Println("\nSheet Details:")
		for _, sheet := range summary.Sheets {
			fmt.Printf("  %s: created=%d, skipped=%d, errors=%d\n",
				sheet.Name, sheet.Created, sheet.Skipped, sheet.Errors)

			if len(sheet.Samples) > 0 {
				fmt.Printf("    Error samples:\n")
				for _, sample := range sheet.Samples {
					fmt.Printf("      Row %d: %s\n", sample.Row, sample.Message)
				}
			}
		}
	}

	if err != nil || summary.Errors > 0 {
		os.Exit(1)
	}
}
