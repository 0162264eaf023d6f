package database

import (
	"database/sql"
	"time"

	"inkpad/pkg/logger"

	_ "github.com/lib/pq"
)

// Connect opens the postgres pool and verifies it with a ping, retrying a few
// times in case of transient DNS/network blips. The caller owns the handle
// and closes it at shutdown.
func Connect(dsn string) *sql.DB {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open database connection: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db
		}
		logger.Sugar.Infof("Database connection failed, retrying in 2s... (%v)", err)
		time.Sleep(2 * time.Second)
	}
	logger.Sugar.Fatalf("Could not connect to database after retries: %v", err)
	return nil
}
