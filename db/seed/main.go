package main

import (
	"context"
	"time"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/internal/domain"
	"github.com/practicedesk/secretary/internal/repository"
	"github.com/practicedesk/secretary/pkg/database"
	"github.com/practicedesk/secretary/pkg/logger"
)

// Demo data for a local MySQL instance. Appointments are placed relative to today so
// the reminder sweep has something to pick up.
func main() {
	logger.Init()
	defer logger.Sync()

	cfg := environments.Load()

	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Errorf("Failed to close database: %v", err)
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stores := repository.NewMySQLStores(db)

	contacts := []domain.Contact{
		{Name: "Maria Silva", Phone: "5511999990001"},
		{Name: "João Souza", Phone: "5521988880002"},
		{Name: "Ana Costa", Phone: "5531977770003", Notes: strPtr("prefers afternoons")},
	}
	for _, c := range contacts {
		created, err := stores.Contacts.Create(ctx, c)
		if err != nil {
			logger.Fatalf("Failed to seed contact %s: %v", c.Name, err)
		}
		logger.Infof("Seeded contact %s (%s)", created.Name, created.ID)
	}

	today := time.Now()
	appointments := []domain.Appointment{
		{ClientName: "Maria Silva", Phone: "5511999990001", Date: today.AddDate(0, 0, 1).Format("2006-01-02"), Time: "09:00"},
		{ClientName: "João Souza", Phone: "5521988880002", Date: today.AddDate(0, 0, 2).Format("2006-01-02"), Time: "14:30"},
		{ClientName: "Ana Costa", Date: today.AddDate(0, 0, 7).Format("2006-01-02"), Time: "16:00", Notes: strPtr("first session")},
	}
	for _, a := range appointments {
		created, err := stores.Appointments.Schedule(ctx, a)
		if err != nil {
			logger.Fatalf("Failed to seed appointment for %s: %v", a.ClientName, err)
		}
		logger.Infof("Seeded appointment %s for %s on %s at %s", created.ID, created.ClientName, created.Date, created.Time)
	}

	logger.Infof("Seed completed successfully")
}

func strPtr(s string) *string { return &s }
