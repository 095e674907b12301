// Command import_people seeds people and friendships from an xlsx workbook.
//
// Sheet "people": telegram_id, full_name, public_id (optional).
// Sheet "friendships": requester public_id, friend public_id, accepted (optional bool).
// The first row of each sheet is a header.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"

	"github.com/mroshb/friendly/internal/config"
	"github.com/mroshb/friendly/internal/database"
	"github.com/mroshb/friendly/internal/models"
	"github.com/mroshb/friendly/internal/repositories"
	"github.com/mroshb/friendly/internal/security"
	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/friendly"
	"github.com/mroshb/friendly/pkg/logger"
	"github.com/mroshb/friendly/pkg/utils"
)

const (
	sheetPeople      = "people"
	sheetFriendships = "friendships"
)

type friendshipRow struct {
	Requester string
	Friend    string
	Accepted  bool
}

type importStats struct {
	People      int
	Friendships int
	Skipped     int
}

func main() {
	path := flag.String("file", "people.xlsx", "workbook to import")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.AppEnv == "development")
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	ctx := context.Background()
	reg, store, err := database.SetupFriendship(ctx, db, cfg)
	if err != nil {
		logger.Fatal("Failed to set up friendships", err)
	}

	f, err := excelize.OpenFile(*path)
	if err != nil {
		logger.Fatal("Failed to open workbook", err)
	}
	defer f.Close()

	stats, err := importWorkbook(ctx, f, repositories.NewPersonRepository(db), reg, store)
	if err != nil {
		logger.Fatal("Import failed", err)
	}
	fmt.Printf("Imported %d people and %d friendships (%d rows skipped).\n", stats.People, stats.Friendships, stats.Skipped)
}

func importWorkbook(ctx context.Context, f *excelize.File, people *repositories.PersonRepository, reg *friendly.Registry, store friendly.Store) (importStats, error) {
	var stats importStats

	persons, skipped, err := readPeople(f)
	if err != nil {
		return stats, err
	}
	stats.Skipped += skipped

	for i := range persons {
		p := &persons[i]
		err := people.CreatePerson(p)
		if errors.Is(err, errors.ErrCodeAlreadyExists) {
			logger.Warn("Person already exists, skipping", "telegram_id", p.TelegramID, "public_id", p.PublicID)
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.People++
	}

	rows, skipped, err := readFriendships(f)
	if err != nil {
		return stats, err
	}
	stats.Skipped += skipped

	for _, row := range rows {
		created, err := importFriendship(ctx, people, reg, store, row)
		if errors.Is(err, errors.ErrCodeNotFound) || errors.Is(err, errors.ErrCodeValidation) {
			logger.Warn("Skipping friendship", "requester", row.Requester, "friend", row.Friend, "error", err)
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, err
		}
		if created {
			stats.Friendships++
		} else {
			stats.Skipped++
		}
	}
	return stats, nil
}

func importFriendship(ctx context.Context, people *repositories.PersonRepository, reg *friendly.Registry, store friendly.Store, row friendshipRow) (bool, error) {
	requester, err := people.GetPersonByPublicID(row.Requester)
	if err != nil {
		return false, err
	}
	friend, err := people.GetPersonByPublicID(row.Friend)
	if err != nil {
		return false, err
	}

	f, err := friendly.For(reg, store, requester)
	if err != nil {
		return false, err
	}
	edge, ok, err := f.RequestFriendship(ctx, friend)
	if err != nil || !ok {
		return false, err
	}

	if row.Accepted && edge.Pending() {
		other, err := friendly.For(reg, store, friend)
		if err != nil {
			return false, err
		}
		if _, err := other.ConfirmFriendshipWith(ctx, requester); err != nil {
			return false, err
		}
	}
	return true, nil
}

func readPeople(f *excelize.File) ([]models.Person, int, error) {
	rows, err := f.GetRows(sheetPeople)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read sheet %s: %w", sheetPeople, err)
	}

	var people []models.Person
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			skipped++
			continue
		}

		telegramID, err := strconv.ParseInt(strings.TrimSpace(utils.NormalizePersianNumbers(row[0])), 10, 64)
		name := security.SanitizeName(row[1])
		if err != nil || name == "" {
			logger.Warn("Invalid person row", "row", i+1)
			skipped++
			continue
		}

		p := models.Person{TelegramID: telegramID, FullName: name}
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			publicID, ok := security.ValidatePublicID(row[2])
			if !ok {
				logger.Warn("Invalid public ID", "row", i+1, "public_id", row[2])
				skipped++
				continue
			}
			p.PublicID = publicID
		}
		people = append(people, p)
	}
	return people, skipped, nil
}

func readFriendships(f *excelize.File) ([]friendshipRow, int, error) {
	if idx, _ := f.GetSheetIndex(sheetFriendships); idx < 0 {
		return nil, 0, nil
	}
	rows, err := f.GetRows(sheetFriendships)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read sheet %s: %w", sheetFriendships, err)
	}

	var out []friendshipRow
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			skipped++
			continue
		}
		requester, ok1 := security.ValidatePublicID(row[0])
		friend, ok2 := security.ValidatePublicID(row[1])
		if !ok1 || !ok2 {
			logger.Warn("Invalid friendship row", "row", i+1)
			skipped++
			continue
		}

		fr := friendshipRow{Requester: requester, Friend: friend}
		if len(row) > 2 {
			fr.Accepted = parseAccepted(row[2])
		}
		out = append(out, fr)
	}
	return out, skipped, nil
}

func parseAccepted(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "بله":
		return true
	}
	return false
}
