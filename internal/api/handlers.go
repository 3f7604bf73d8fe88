package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spacesedan/pulselens/internal/clients"
	"github.com/spacesedan/pulselens/internal/db"
	"github.com/spacesedan/pulselens/internal/models"
)

// Env carries the handlers' dependencies.
type Env struct {
	Store  *db.Store
	Valkey *clients.ValkeyClient
	Hub    interface {
		ServeWS(w http.ResponseWriter, r *http.Request)
	}
}

func (e *Env) health(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "disconnected"
	valkeyStatus := "disconnected"

	totalPosts, err := e.Store.CountPosts(ctx, "")
	if err == nil {
		dbStatus = "connected"
	}
	totalAnalyses, _ := e.Store.CountAnalyses(ctx)
	recentPosts, _ := e.Store.CountPostsSince(ctx, time.Now().UTC().Add(-time.Hour))

	if e.Valkey != nil && e.Valkey.Ping(ctx) == nil {
		valkeyStatus = "connected"
	}

	status := "degraded"
	if dbStatus == "connected" && valkeyStatus == "connected" {
		status = "healthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": models.EventTimestamp(time.Now()),
		"services": gin.H{
			"database": dbStatus,
			"valkey":   valkeyStatus,
		},
		"stats": gin.H{
			"total_posts":     totalPosts,
			"total_analyses":  totalAnalyses,
			"recent_posts_1h": recentPosts,
		},
	})
}

func (e *Env) getPosts(c *gin.Context) {
	limit := queryInt(c, "limit", 50, 1, 100)
	offset := queryInt(c, "offset", 0, 0, math.MaxInt32)
	platform := c.Query("platform")
	sentiment := c.Query("sentiment")

	ctx := c.Request.Context()

	posts, err := e.Store.RecentPosts(ctx, limit, offset, platform, sentiment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch posts"})
		return
	}
	total, err := e.Store.CountPosts(ctx, platform)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count posts"})
		return
	}

	items := make([]gin.H, 0, len(posts))
	for _, item := range posts {
		var createdAt *string
		if item.Post.CreatedAt != nil {
			ts := models.EventTimestamp(*item.Post.CreatedAt)
			createdAt = &ts
		}

		entry := gin.H{
			"post_id":    item.Post.PostID,
			"platform":   item.Post.Platform,
			"content":    item.Post.Content,
			"author":     item.Post.Author,
			"created_at": createdAt,
			"sentiment":  nil,
		}
		if item.Analysis != nil {
			entry["sentiment"] = gin.H{
				"label":      item.Analysis.SentimentLabel,
				"confidence": item.Analysis.ConfidenceScore,
				"emotion":    item.Analysis.Emotion,
				"model_name": item.Analysis.ModelName,
			}
		}
		items = append(items, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (e *Env) getAnalytics(c *gin.Context) {
	hours := queryInt(c, "hours", 24, 1, 168)
	platform := c.Query("platform")

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	counts, err := e.Store.SentimentDistribution(c.Request.Context(), since, platform)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch analytics"})
		return
	}

	positive := counts[models.SentimentPositive]
	negative := counts[models.SentimentNegative]
	neutral := counts[models.SentimentNeutral]
	total := positive + negative + neutral

	pct := func(n int) float64 {
		if total == 0 {
			return 0
		}
		return math.Round(float64(n)/float64(total)*10000) / 100
	}

	c.JSON(http.StatusOK, gin.H{
		"timeframe_hours": hours,
		"positive_count":  positive,
		"negative_count":  negative,
		"neutral_count":   neutral,
		"total_count":     total,
		"percentages": gin.H{
			"positive": pct(positive),
			"negative": pct(negative),
			"neutral":  pct(neutral),
		},
		"distribution": []gin.H{
			{"label": "positive", "count": positive, "percentage": pct(positive)},
			{"label": "negative", "count": negative, "percentage": pct(negative)},
			{"label": "neutral", "count": neutral, "percentage": pct(neutral)},
		},
	})
}

func (e *Env) getAlerts(c *gin.Context) {
	limit := queryInt(c, "limit", 20, 1, 100)

	alerts, err := e.Store.RecentAlerts(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alerts"})
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func (e *Env) serveWS(c *gin.Context) {
	e.Hub.ServeWS(c.Writer, c.Request)
}

func queryInt(c *gin.Context, key string, def, min, max int) int {
	value := c.Query(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}
