package db

import (
	"context"
	"fmt"
	"time"

	"github.com/spacesedan/pulselens/internal/models"
)

// PostWithAnalysis joins one post with its most recent analysis, if any.
type PostWithAnalysis struct {
	Post     models.Post
	Analysis *models.Analysis
}

// RecentPosts returns persisted posts newest first, optionally filtered by
// platform and sentiment label.
func (s *Store) RecentPosts(ctx context.Context, limit, offset int, platform, sentiment string) ([]PostWithAnalysis, error) {
	query := `
        SELECT p.post_id, p.platform, p.content, p.author, p.created_at, p.ingested_at,
               a.model_name, a.sentiment_label, a.confidence_score, COALESCE(a.emotion, ''), a.analyzed_at
        FROM social_media_posts p
        LEFT JOIN LATERAL (
            SELECT model_name, sentiment_label, confidence_score, emotion, analyzed_at
            FROM sentiment_analysis
            WHERE post_id = p.post_id
            ORDER BY analyzed_at DESC
            LIMIT 1
        ) a ON TRUE
        WHERE ($3 = '' OR p.platform = $3)
          AND ($4 = '' OR a.sentiment_label = $4)
        ORDER BY p.ingested_at DESC
        LIMIT $1 OFFSET $2
    `
	rows, err := s.pool.Query(ctx, query, limit, offset, platform, sentiment)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var results []PostWithAnalysis
	for rows.Next() {
		var p models.Post
		var modelName, label, emotion *string
		var confidence *float64
		var analyzedAt *time.Time

		if err := rows.Scan(&p.PostID, &p.Platform, &p.Content, &p.Author, &p.CreatedAt, &p.IngestedAt,
			&modelName, &label, &confidence, &emotion, &analyzedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}

		item := PostWithAnalysis{Post: p}
		if label != nil {
			item.Analysis = &models.Analysis{
				PostID:          p.PostID,
				ModelName:       *modelName,
				SentimentLabel:  *label,
				ConfidenceScore: *confidence,
				Emotion:         *emotion,
				AnalyzedAt:      *analyzedAt,
			}
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// CountPosts returns the total number of posts, optionally per platform.
func (s *Store) CountPosts(ctx context.Context, platform string) (int, error) {
	query := `SELECT COUNT(*) FROM social_media_posts WHERE ($1 = '' OR platform = $1)`
	var total int
	if err := s.pool.QueryRow(ctx, query, platform).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return total, nil
}

// CountAnalyses returns the total number of analysis rows.
func (s *Store) CountAnalyses(ctx context.Context) (int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sentiment_analysis`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return total, nil
}

// CountPostsSince returns posts ingested at or after the threshold.
func (s *Store) CountPostsSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM social_media_posts WHERE ingested_at >= $1`
	var total int
	if err := s.pool.QueryRow(ctx, query, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count recent posts: %w", err)
	}
	return total, nil
}

// SentimentDistribution groups analyses since the threshold by label,
// optionally restricted to one platform.
func (s *Store) SentimentDistribution(ctx context.Context, since time.Time, platform string) (map[string]int, error) {
	query := `
        SELECT a.sentiment_label, COUNT(*)
        FROM sentiment_analysis a
        JOIN social_media_posts p ON p.post_id = a.post_id
        WHERE a.analyzed_at >= $1
          AND ($2 = '' OR p.platform = $2)
        GROUP BY a.sentiment_label
    `
	rows, err := s.pool.Query(ctx, query, since, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to query distribution: %w", err)
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
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		if _, ok := counts[label]; ok {
			counts[label] = count
		}
	}
	return counts, rows.Err()
}

// RecentAlerts returns triggered alerts newest first.
func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	query := `
        SELECT id, alert_type, threshold_value, actual_value, window_start, window_end, post_count, triggered_at, details
        FROM sentiment_alerts
        ORDER BY triggered_at DESC
        LIMIT $1
    `
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.AlertType, &a.ThresholdValue, &a.ActualValue,
			&a.WindowStart, &a.WindowEnd, &a.PostCount, &a.TriggeredAt, &a.Details); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
