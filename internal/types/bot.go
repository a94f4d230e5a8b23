package types

// BotStatus is the operator-controlled lifecycle state of a bot.
type BotStatus string

const (
	BotStatusCreated BotStatus = "created"
	BotStatusRunning BotStatus = "running"
	BotStatusStopped BotStatus = "stopped"
	BotStatusError   BotStatus = "error"
)

// HealthStatus is derived by the health monitor and never set by operators.
type HealthStatus string

const (
	HealthUnknown HealthStatus = "unknown"
	HealthHealthy HealthStatus = "healthy"
	HealthStale   HealthStatus = "stale"
	HealthError   HealthStatus = "error"
)

// StrategyKind selects the decision engine a bot runs.
type StrategyKind string

const (
	StrategyVolume StrategyKind = "volume"
	StrategySpread StrategyKind = "spread"
)
