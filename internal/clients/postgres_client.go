package clients

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	postgresInstance Postgres
	postgresOnce     sync.Once
)

type Postgres struct {
	DB *pgxpool.Pool
}

// GetPostgresClient connects once and retries with backoff until the
// database is reachable. Inability to connect at all is the only condition
// treated as fatal.
func GetPostgresClient(ctx context.Context) Postgres {
	postgresOnce.Do(func() {
		dsn := postgresDSN()

		var pool *pgxpool.Pool
		var err error
		for attempt := 1; attempt <= 5; attempt++ {
			pool, err = pgxpool.New(ctx, dsn)
			if err == nil {
				err = pool.Ping(ctx)
			}
			if err == nil {
				break
			}

			slog.Warn("[PostgresClient] Connection failed, retrying...",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			time.Sleep(5 * time.Second)
		}
		if err != nil {
			panic(fmt.Errorf("[PostgresClient] failed to connect to PostgreSQL: %w", err))
		}

		slog.Info("[PostgresClient] Connected to PostgreSQL successfully")
		postgresInstance = Postgres{
			DB: pool,
		}
	})

	return postgresInstance
}

func postgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"))
}

func (p Postgres) Close() {
	if p.DB != nil {
		p.DB.Close()
	}
}
