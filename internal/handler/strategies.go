package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rxtech-lab/argo-bots/internal/strategy"
	"github.com/rxtech-lab/argo-bots/internal/types"
)

type StrategyHandler struct{}

func (h *StrategyHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/strategies")
	group.GET("", h.listKinds)
	group.GET("/:kind/schema", h.schema)
}

func (h *StrategyHandler) listKinds(c *gin.Context) {
	Ok(c, strategy.Kinds())
}

func (h *StrategyHandler) schema(c *gin.Context) {
	kind := types.StrategyKind(strings.ToLower(strings.TrimSpace(c.Param("kind"))))
	schema, err := strategy.ConfigSchema(kind)
	if err != nil {
		FromError(c, err)
		return
	}
	Ok(c, schema)
}
