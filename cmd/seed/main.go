package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

func main() {
	// 명령줄 인자 확인
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <catalog.xlsx> [--yes]")
	}
	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && os.Args[2] == "--yes"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// XLSX 파일 읽기
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	catalog, err := readCatalog(f)
	if err != nil {
		log.Fatal("Failed to read catalog:", err)
	}
	fmt.Printf("Services: %d, addons: %d, skipped rows: %d\n", len(catalog.Services), len(catalog.Addons), catalog.Skipped)

	// 사용자 확인
	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	catalogRepo := repository.NewCatalogRepository(db.GetDB())
	services, addons, err := importCatalog(context.Background(), catalogRepo, catalog)
	if err != nil {
		log.Fatal("Failed to import catalog:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Services upserted: %d, addons upserted: %d\n", services, addons)
}
