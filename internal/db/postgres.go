package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/envutil"
	"github.com/macrofit/macrofit-backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := envutil.String("POSTGRES_HOST", "localhost")
	postgresPort := envutil.String("POSTGRES_PORT", "5432")
	postgresUser := envutil.String("POSTGRES_USER", "postgres")
	postgresPassword := envutil.String("POSTGRES_PASSWORD", "")
	postgresName := envutil.String("POSTGRES_NAME", "macrofit")
	sslMode := envutil.String("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		postgresUser, postgresPassword, postgresHost, postgresPort, postgresName, sslMode)

	serviceLog.Info("Connecting to Postgres...", "host", postgresHost, "db", postgresName)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.UserProfile{},
		&types.DietaryPreference{},
		&types.NutritionPlan{},
		&types.WorkoutLog{},
		&types.AICallLog{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		table string
		name  string
	}{
		{"user_token", "fk_user_token_user_id"},
		{"user_profile", "fk_user_profile_user_id"},
		{"dietary_preference", "fk_dietary_preference_user_id"},
		{"nutrition_plan", "fk_nutrition_plan_user_id"},
		{"workout_log", "fk_workout_log_user_id"},
	}
	for _, c := range constraints {
		stmt := fmt.Sprintf(`
			ALTER TABLE %q
			DROP CONSTRAINT IF EXISTS %q;
			ALTER TABLE %q
			ADD CONSTRAINT %q
			FOREIGN KEY ("user_id")
			REFERENCES "user"("id")
			ON DELETE CASCADE
		`, c.table, c.name, c.table, c.name)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
