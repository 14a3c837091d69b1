// Package testutil opens throwaway databases for the lots service tests.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/tair/rfid-textile/internal/lot/domain"
	"github.com/tair/rfid-textile/internal/lot/repository"
)

// Seeded directory rows
const (
	ChaineID        = "CH1"
	WorkerNom       = "Amira"
	WorkerPrenom    = "Ben"
	WorkerFullName  = "Amira Ben"
	WorkerMachine   = "Machine A3"
	ResponsibleID   = uint(1)
	OtherChaineID   = "CH2"
	OtherWorkerName = "Karim Haddad"

	// Second worker of ChaineID
	RelayWorkerName    = "Nadia Jlassi"
	RelayWorkerMachine = "Machine A5"
)

// NewDB returns a migrated, seeded database private to t.
// TEST_POSTGRES_DSN selects a PostgreSQL server; otherwise an in-memory SQLite database is used.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &gorm.Config{
		Logger:  gormLogger.Default.LogMode(gormLogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var (
		db  *gorm.DB
		err error
	)
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			t.Fatalf("failed to open postgres: %v", err)
		}
		t.Cleanup(func() { truncate(t, db) })
		truncate(t, db)
	} else {
		dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			t.Fatalf("failed to open sqlite: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			t.Fatalf("failed to get sqlite handle: %v", err)
		}
		// One connection keeps the in-memory database alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { sqlDB.Close() })
	}

	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	seed(t, db)
	return db
}

func seed(t testing.TB, db *gorm.DB) {
	t.Helper()

	workers := []domain.Worker{
		{Nom: WorkerNom, Prenom: WorkerPrenom, Localisation: WorkerMachine, ChaineID: ChaineID, IsActive: true},
		{Nom: "Nadia", Prenom: "Jlassi", Localisation: RelayWorkerMachine, ChaineID: ChaineID, IsActive: true},
		{Nom: "Karim", Prenom: "Haddad", Localisation: "Machine B1", ChaineID: OtherChaineID, IsActive: true},
	}
	if err := db.Create(&workers).Error; err != nil {
		t.Fatalf("failed to seed workers: %v", err)
	}

	user := domain.User{ID: ResponsibleID, Nom: "Sami", Prenom: "Trabelsi", Role: "controleur", ChaineID: ChaineID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed users: %v", err)
	}
}

func truncate(t testing.TB, db *gorm.DB) {
	t.Helper()
	// Tables are missing before the first migration, so errors are ignored.
	global := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range repository.Models() {
		if _, ok := m.(*domain.LotSequence); ok {
			_ = global.Model(m).Update("value", 0).Error
			continue
		}
		_ = global.Unscoped().Delete(m).Error
	}
}
