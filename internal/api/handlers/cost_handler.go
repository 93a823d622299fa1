package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/callscribe/callscribe/internal/costing"
	"github.com/callscribe/callscribe/internal/utils"
)

type CostHandler struct {
	monitor *costing.Monitor
	tier    costing.Tier
}

func NewCostHandler(monitor *costing.Monitor, tier costing.Tier) *CostHandler {
	if tier == "" {
		tier = costing.TierBalanced
	}
	return &CostHandler{monitor: monitor, tier: tier}
}

// Summary reports the month's running totals, limit warnings, and any
// downgrade recommendations for the active tier.
func (h *CostHandler) Summary(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	limits := h.monitor.CheckLimits()
	c.JSON(http.StatusOK, gin.H{
		"tier":       h.tier,
		"limits":     limits,
		"downgrades": h.monitor.RecommendDowngrades(h.tier),
	})
}

type estimateRequest struct {
	DurationMinutes float64            `json:"duration_minutes" binding:"required"`
	Tier            costing.Tier       `json:"tier"`
	Overrides       *costing.Overrides `json:"overrides,omitempty"`
}

func (h *CostHandler) Estimate(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CostHandler.Estimate", "duration_minutes is required", err))
		return
	}
	tier := req.Tier
	if tier == "" {
		tier = h.tier
	}

	cfg, est := costing.ResolveConfig(tier, req.Overrides, req.DurationMinutes, h.monitor.MonthlyUsageMinutes())
	c.JSON(http.StatusOK, gin.H{"config": cfg, "estimate": est})
}

func (h *CostHandler) Projection(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	callsPerDay, _ := strconv.Atoi(c.DefaultQuery("calls_per_day", "0"))
	avgDuration, _ := strconv.ParseFloat(c.DefaultQuery("avg_duration_minutes", "0"), 64)
	tier := costing.Tier(c.DefaultQuery("tier", string(h.tier)))

	c.JSON(http.StatusOK, costing.ProjectMonthlyCost(callsPerDay, avgDuration, tier))
}

func (h *CostHandler) RecommendTier(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var constraints costing.Constraints
	if err := c.ShouldBindJSON(&constraints); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CostHandler.RecommendTier", "invalid constraints", err))
		return
	}

	tier, err := costing.RecommendTier(constraints)
	if err != nil {
		if errors.Is(err, costing.ErrNoTierAvailable) {
			writeError(c, utils.E(utils.CodeInvalidArgument, "CostHandler.RecommendTier", "no tier satisfies the constraints", err))
			return
		}
		writeError(c, utils.E(utils.CodeInternal, "CostHandler.RecommendTier", "recommendation failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tier": tier})
}
