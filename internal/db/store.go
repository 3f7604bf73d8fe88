package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spacesedan/pulselens/internal/models"
)

const pgUniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the tables if they do not exist. The server
// provisions its own schema at startup; there is no migration tool.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS social_media_posts (
            id           BIGSERIAL PRIMARY KEY,
            post_id      VARCHAR(255) NOT NULL UNIQUE,
            platform     VARCHAR(50) NOT NULL DEFAULT 'web',
            content      TEXT NOT NULL,
            author       VARCHAR(255) NOT NULL DEFAULT 'anonymous',
            created_at   TIMESTAMPTZ,
            ingested_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS sentiment_analysis (
            id               BIGSERIAL PRIMARY KEY,
            post_id          VARCHAR(255) NOT NULL,
            model_name       VARCHAR(100) NOT NULL,
            sentiment_label  VARCHAR(20) NOT NULL,
            confidence_score DOUBLE PRECISION NOT NULL,
            emotion          VARCHAR(50),
            analyzed_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS sentiment_alerts (
            id              BIGSERIAL PRIMARY KEY,
            alert_type      VARCHAR(50) NOT NULL,
            threshold_value DOUBLE PRECISION NOT NULL,
            actual_value    DOUBLE PRECISION NOT NULL,
            window_start    TIMESTAMPTZ NOT NULL,
            window_end      TIMESTAMPTZ NOT NULL,
            post_count      INTEGER NOT NULL,
            triggered_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            details         JSONB
        )`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_analyzed_at ON sentiment_analysis (analyzed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_post_id ON sentiment_analysis (post_id)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_ingested_at ON social_media_posts (ingested_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// InsertAnalysis stores one classification result outside any transaction.
func (s *Store) InsertAnalysis(ctx context.Context, analysis models.Analysis) error {
	query := `
        INSERT INTO sentiment_analysis (post_id, model_name, sentiment_label, confidence_score, emotion, analyzed_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
    `
	_, err := s.pool.Exec(ctx, query,
		analysis.PostID, analysis.ModelName, analysis.SentimentLabel,
		analysis.ConfidenceScore, analysis.Emotion, analysis.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// SaveAnalysisResult persists a post and its analysis as one transactional
// unit. A duplicate post_id does not fail the unit: the transaction is
// rolled back and only the analysis is inserted in a fresh unit, accepting
// a possible duplicate analysis row for a redelivered message.
func (s *Store) SaveAnalysisResult(ctx context.Context, post models.Post, analysis models.Analysis) (duplicate bool, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	postQuery := `
        INSERT INTO social_media_posts (post_id, platform, content, author, created_at, ingested_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err = tx.Exec(ctx, postQuery,
		post.PostID, post.Platform, post.Content, post.Author, post.CreatedAt, post.IngestedAt)
	if err != nil {
		if isUniqueViolation(err) {
			_ = tx.Rollback(ctx)
			slog.Info("[Store] Duplicate post, storing analysis only",
				slog.String("post_id", post.PostID))
			return true, s.InsertAnalysis(ctx, analysis)
		}
		return false, fmt.Errorf("failed to insert post: %w", err)
	}

	analysisQuery := `
        INSERT INTO sentiment_analysis (post_id, model_name, sentiment_label, confidence_score, emotion, analyzed_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
    `
	_, err = tx.Exec(ctx, analysisQuery,
		analysis.PostID, analysis.ModelName, analysis.SentimentLabel,
		analysis.ConfidenceScore, analysis.Emotion, analysis.AnalyzedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert analysis: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return false, nil
}

// CountSentimentBetween groups analyses in [from, to] by sentiment label.
// Labels unseen in the window are present in the result with a zero count.
func (s *Store) CountSentimentBetween(ctx context.Context, from, to time.Time) (map[string]int, error) {
	query := `
        SELECT sentiment_label, COUNT(*)
        FROM sentiment_analysis
        WHERE analyzed_at >= $1 AND analyzed_at <= $2
        GROUP BY sentiment_label
    `
	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count sentiment: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{
		models.SentimentPositive: 0,
		models.SentimentNegative: 0,
		models.SentimentNeutral:  0,
	}
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment count: %w", err)
		}
		if _, ok := counts[label]; ok {
			counts[label] = count
		}
	}
	return counts, rows.Err()
}

// CountSentimentSince is CountSentimentBetween with the window ending now.
func (s *Store) CountSentimentSince(ctx context.Context, since time.Time) (map[string]int, error) {
	return s.CountSentimentBetween(ctx, since, time.Now().UTC())
}

// InsertAlert persists one threshold breach and returns its id.
func (s *Store) InsertAlert(ctx context.Context, alert models.Alert) (int64, error) {
	details, err := json.Marshal(alert.Details)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal alert details: %w", err)
	}

	query := `
        INSERT INTO sentiment_alerts (alert_type, threshold_value, actual_value, window_start, window_end, post_count, triggered_at, details)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	var id int64
	err = s.pool.QueryRow(ctx, query,
		alert.AlertType, alert.ThresholdValue, alert.ActualValue,
		alert.WindowStart, alert.WindowEnd, alert.PostCount,
		alert.TriggeredAt, details).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert: %w", err)
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
