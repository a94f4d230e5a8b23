package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rxtech-lab/argo-bots/internal/health"
	"github.com/rxtech-lab/argo-bots/internal/ledger"
	"github.com/rxtech-lab/argo-bots/internal/ledger/archive"
	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/repository"
)

type HealthSummarizer interface {
	Summary(ctx context.Context) ([]health.SummaryItem, error)
}

type ForceChecker interface {
	ForceCheck(ctx context.Context, botID string) (models.HealthRecord, error)
}

type StatsReader interface {
	Stats(ctx context.Context, botID string) (ledger.Stats, error)
}

type DailyVolumeReader interface {
	DailyVolumes(ctx context.Context, botID string) ([]archive.DayVolume, error)
}

// BotHandler exposes the operational endpoints of the runner. Archive is
// optional.
type BotHandler struct {
	Repo    repository.Repository
	Health  HealthSummarizer
	Checker ForceChecker
	Stats   StatsReader
	Archive DailyVolumeReader
}

func (h *BotHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/health/summary", h.healthSummary)

	group := r.Group("/api/v1/bots")
	group.POST("/:id/force-check", h.forceCheck)
	group.GET("/:id/stats", h.stats)
	group.GET("/:id/health", h.healthHistory)
	group.GET("/:id/daily-volumes", h.dailyVolumes)
}

func (h *BotHandler) healthSummary(c *gin.Context) {
	items, err := h.Health.Summary(c.Request.Context())
	if err != nil {
		FromError(c, err)
		return
	}
	Ok(c, items)
}

func (h *BotHandler) forceCheck(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	record, err := h.Checker.ForceCheck(c.Request.Context(), id)
	if err != nil {
		FromError(c, err)
		return
	}
	Ok(c, record)
}

// loadBot writes a 404 and returns nil when the bot does not exist.
func (h *BotHandler) loadBot(c *gin.Context) *models.Bot {
	id := strings.TrimSpace(c.Param("id"))
	bot, err := h.Repo.GetBot(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error())
		return nil
	}
	if bot == nil {
		Error(c, http.StatusNotFound, "bot not found")
		return nil
	}
	return bot
}

func (h *BotHandler) stats(c *gin.Context) {
	bot := h.loadBot(c)
	if bot == nil {
		return
	}
	stats, err := h.Stats.Stats(c.Request.Context(), bot.ID)
	if err != nil {
		FromError(c, err)
		return
	}
	Ok(c, stats)
}

type healthHistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

func (h *BotHandler) healthHistory(c *gin.Context) {
	var q healthHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	bot := h.loadBot(c)
	if bot == nil {
		return
	}
	items, err := h.Repo.ListHealthRecords(c.Request.Context(), bot.ID, q.Limit)
	if err != nil {
		FromError(c, err)
		return
	}
	Ok(c, items)
}

func (h *BotHandler) dailyVolumes(c *gin.Context) {
	if h.Archive == nil {
		Error(c, http.StatusNotFound, "trade archive is disabled")
		return
	}
	bot := h.loadBot(c)
	if bot == nil {
		return
	}
	items, err := h.Archive.DailyVolumes(c.Request.Context(), bot.ID)
	if err != nil {
		FromError(c, err)
		return
	}
	Ok(c, items)
}
