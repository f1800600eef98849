package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/config"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/connection"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/diagnosis"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/medication"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: false,
		// Duplicate-key and FK violations surface as gorm.ErrDuplicatedKey /
		// gorm.ErrForeignKeyViolated regardless of the driver.
		TranslateError: true,
	}
}

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath))
	default:
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: false,
		})
	}

	gormCfg := gormConfig()
	gormCfg.PrepareStmt = cfg.Driver != "sqlite"

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// SQLiteDSN enables foreign keys so ON DELETE rules behave as on Postgres.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on"
}

// OpenMemory opens a private in-memory SQLite database and migrates it.
// name keeps databases of parallel callers apart.
func OpenMemory(name string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=on"), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// A single connection keeps every query on the same in-memory database
	// and avoids SQLITE_LOCKED between a transaction and its callers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := migrateModels(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.AuditLog{},
		&profile.PatientProfile{},
		&profile.DoctorProfile{},
		&connection.Connection{},
		&diagnosis.Diagnosis{},
		&medication.Medication{},
		&prescription.Prescription{},
		&prescription.Item{},
		&notification.Notification{},
	}
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	if err := migrateModels(db); err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		if err := createIndexes(db, log); err != nil {
			return fmt.Errorf("creating indexes: %w", err)
		}
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func migrateModels(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}
	return nil
}

// createIndexes adds Postgres-only partial and trigram indexes.
func createIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		name  string
		query string
	}{
		{
			name:  "idx_connections_pending_doctor",
			query: `CREATE INDEX IF NOT EXISTS idx_connections_pending_doctor ON connections (doctor_id, requested_at) WHERE status = 'pending_approval_by_doctor'`,
		},
		{
			name:  "idx_notifications_unread",
			query: `CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (user_id, created_at DESC) WHERE is_read = false`,
		},
		// Medication search: trigram index for ILIKE on names
		{
			name:  "idx_medications_name_trgm",
			query: `CREATE INDEX IF NOT EXISTS idx_medications_name_trgm ON medications USING gin ((name || ' ' || coalesce(generic_name, '')) gin_trgm_ops)`,
		},
		{
			name:  "idx_prescription_items_open",
			query: `CREATE INDEX IF NOT EXISTS idx_prescription_items_open ON prescription_items (prescription_id) WHERE end_date IS NULL`,
		},
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		log.Warn("pg_trgm extension unavailable", zap.Error(err))
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			log.Warn("index not created", zap.String("index", idx.name), zap.Error(err))
		}
	}

	return nil
}
