package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/xuri/excelize/v2"
)

const (
	servicesSheet = "Services"
	addonsSheet   = "Addons"
)

// addonRow references its service by name; ids are only known after upsert.
type addonRow struct {
	ServiceName string
	Addon       model.Addon
}

type catalogSheet struct {
	Services []model.Service
	Addons   []addonRow
	Skipped  int
}

// readCatalog parses the Services sheet
// (name, category_id, subcategory_id, min_price, default_duration_minutes, is_active)
// and the optional Addons sheet (service_name, name, default_price, is_active).
// The first row of each sheet is a header.
func readCatalog(f *excelize.File) (*catalogSheet, error) {
	rows, err := f.GetRows(servicesSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", servicesSheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data found in %s sheet", servicesSheet)
	}

	out := &catalogSheet{}
	seen := make(map[string]bool)
	for _, row := range rows[1:] {
		name := cell(row, 0)
		if name == "" || seen[strings.ToLower(name)] {
			out.Skipped++
			continue
		}
		minPrice, err := strconv.ParseFloat(cell(row, 3), 64)
		if err != nil || minPrice < 0 {
			out.Skipped++
			continue
		}
		duration, err := strconv.Atoi(cell(row, 4))
		if err != nil || duration <= 0 {
			duration = 60
		}
		seen[strings.ToLower(name)] = true
		out.Services = append(out.Services, model.Service{
			Name:                   name,
			CategoryID:             cell(row, 1),
			SubcategoryID:          cell(row, 2),
			MinPrice:               minPrice,
			DefaultDurationMinutes: duration,
			IsActive:               parseActive(cell(row, 5)),
		})
	}

	if idx, _ := f.GetSheetIndex(addonsSheet); idx < 0 {
		return out, nil
	}
	addonRows, err := f.GetRows(addonsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", addonsSheet, err)
	}
	for i, row := range addonRows {
		if i == 0 {
			continue
		}
		serviceName, name := cell(row, 0), cell(row, 1)
		price, err := strconv.ParseFloat(cell(row, 2), 64)
		if serviceName == "" || name == "" || err != nil || price < 0 || !seen[strings.ToLower(serviceName)] {
			out.Skipped++
			continue
		}
		out.Addons = append(out.Addons, addonRow{
			ServiceName: serviceName,
			Addon: model.Addon{
				Name:         name,
				DefaultPrice: price,
				IsActive:     parseActive(cell(row, 3)),
			},
		})
	}
	return out, nil
}

// importCatalog upserts services first so addons can resolve their service ids.
func importCatalog(ctx context.Context, repo repository.CatalogRepository, catalog *catalogSheet) (int, int, error) {
	ids := make(map[string]uint, len(catalog.Services))
	for i := range catalog.Services {
		svc := catalog.Services[i]
		if err := repo.UpsertService(ctx, &svc); err != nil {
			return 0, 0, fmt.Errorf("service %q: %w", svc.Name, err)
		}
		ids[strings.ToLower(svc.Name)] = svc.ID
	}

	addons := 0
	for _, row := range catalog.Addons {
		addon := row.Addon
		addon.ServiceID = ids[strings.ToLower(row.ServiceName)]
		if err := repo.UpsertAddon(ctx, &addon); err != nil {
			return len(ids), addons, fmt.Errorf("addon %q: %w", addon.Name, err)
		}
		addons++
	}
	return len(ids), addons, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseActive treats an empty cell as active.
func parseActive(v string) bool {
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return strings.EqualFold(v, "yes") || strings.EqualFold(v, "y")
	}
	return b
}
