package db

import (
	"fmt"

	"github.com/FloFRCD/nutrition-app-sub001/entity"
	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DSN builds the PostgreSQL connection string.
func DSN(c entity.PostgresConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// Open connects to PostgreSQL and runs the migrations.
func Open(c *entity.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if c.Env == "production" {
		level = gormlogger.Error
	}
	conn, err := gorm.Open(postgres.Open(DSN(c.PostgresConfig)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connection established",
		zap.String("host", c.PostgresConfig.Host), zap.String("dbname", c.PostgresConfig.DBName))

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	logger.Info("running migrations")
	err := conn.AutoMigrate(
		&models.Account{},
		&models.UserProfile{},
		&models.FoodRecord{},
		&models.AIResponse{},
		&models.KVRecord{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func Close(conn *gorm.DB) {
	sqlDB, err := conn.DB()
	if err != nil {
		logger.Error("failed to retrieve sql.DB", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("error closing the database connection", zap.Error(err))
	}
}
