package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/types"
)

// MemoryRepository keeps all state in-memory. It backs tests and
// database-less dry runs.
type MemoryRepository struct {
	mu          sync.RWMutex
	bots        map[string]models.Bot
	credentials map[string]models.ExchangeCredential
	trades      []models.TradeLog
	health      []models.HealthRecord
	seq         uint64
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bots:        make(map[string]models.Bot),
		credentials: make(map[string]models.ExchangeCredential),
		trades:      nil,
		health:      nil,
		seq:         0,
	}
}

func (r *MemoryRepository) ListBots(_ context.Context) ([]models.Bot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.Bot, 0, len(r.bots))
	for _, bot := range r.bots {
		items = append(items, bot)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r *MemoryRepository) ListBotsByStatus(ctx context.Context, status types.BotStatus) ([]models.Bot, error) {
	all, err := r.ListBots(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.Bot, 0, len(all))
	for _, bot := range all {
		if bot.Status == status {
			items = append(items, bot)
		}
	}
	return items, nil
}

func (r *MemoryRepository) GetBot(_ context.Context, id string) (*models.Bot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bot, ok := r.bots[id]
	if !ok {
		return nil, nil
	}
	return &bot, nil
}

func (r *MemoryRepository) UpsertBot(_ context.Context, item *models.Bot) error {
	if item == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	next := *item
	if existing, ok := r.bots[item.ID]; ok {
		next.HealthStatus = existing.HealthStatus
		next.LastTradeTime = existing.LastTradeTime
		next.CreatedAt = existing.CreatedAt
	} else {
		if next.HealthStatus == "" {
			next.HealthStatus = types.HealthUnknown
		}
		if next.CreatedAt.IsZero() {
			next.CreatedAt = now
		}
	}
	next.UpdatedAt = now
	r.bots[item.ID] = next
	return nil
}

func (r *MemoryRepository) UpdateBotHealthStatus(_ context.Context, id string, status types.HealthStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bot, ok := r.bots[id]
	if !ok {
		return nil
	}
	bot.HealthStatus = status
	r.bots[id] = bot
	return nil
}

func (r *MemoryRepository) UpdateBotLastTradeTime(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bot, ok := r.bots[id]
	if !ok {
		return nil
	}
	t := at
	bot.LastTradeTime = &t
	r.bots[id] = bot
	return nil
}

func credentialKey(clientID, exchange string) string {
	return clientID + "|" + exchange
}

func (r *MemoryRepository) UpsertCredential(_ context.Context, item *models.ExchangeCredential) error {
	if item == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := credentialKey(item.ClientID, item.Exchange)
	next := *item
	next.Ciphertext = append([]byte(nil), item.Ciphertext...)
	if existing, ok := r.credentials[key]; ok {
		next.ID = existing.ID
		next.CreatedAt = existing.CreatedAt
	} else {
		r.seq++
		next.ID = r.seq
		next.CreatedAt = time.Now().UTC()
	}
	next.UpdatedAt = time.Now().UTC()
	r.credentials[key] = next
	return nil
}

func (r *MemoryRepository) GetCredential(_ context.Context, clientID, exchange string) (*models.ExchangeCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.credentials[credentialKey(clientID, exchange)]
	if !ok {
		return nil, nil
	}
	item.Ciphertext = append([]byte(nil), item.Ciphertext...)
	return &item, nil
}

func (r *MemoryRepository) InsertTradeLog(_ context.Context, item *models.TradeLog) error {
	if item == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	item.ID = r.seq
	r.trades = append(r.trades, *item)
	return nil
}

func (r *MemoryRepository) ListTradeLogs(_ context.Context, params ListTradeLogsParams) ([]models.TradeLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.TradeLog, 0)
	for _, t := range r.trades {
		if params.BotID != "" && t.BotID != params.BotID {
			continue
		}
		if params.Since != nil && t.CreatedAt.Before(*params.Since) {
			continue
		}
		if params.Until != nil && !t.CreatedAt.Before(*params.Until) {
			continue
		}
		items = append(items, t)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if params.Limit > 0 && len(items) > params.Limit {
		items = items[:params.Limit]
	}
	return items, nil
}

func (r *MemoryRepository) SumTradeCost(ctx context.Context, botID string, since, until time.Time) (decimal.Decimal, error) {
	items, err := r.ListTradeLogs(ctx, ListTradeLogsParams{BotID: botID, Since: &since, Until: &until})
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, t := range items {
		total = total.Add(t.CostUSD)
	}
	return total, nil
}

func (r *MemoryRepository) InsertHealthRecord(_ context.Context, item *models.HealthRecord) error {
	if item == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	item.ID = r.seq
	r.health = append(r.health, *item)
	return nil
}

func (r *MemoryRepository) LatestHealthRecord(ctx context.Context, botID string) (*models.HealthRecord, error) {
	items, err := r.ListHealthRecords(ctx, botID, 1)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (r *MemoryRepository) ListHealthRecords(_ context.Context, botID string, limit int) ([]models.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.HealthRecord, 0)
	for i := len(r.health) - 1; i >= 0; i-- {
		if r.health[i].BotID != botID {
			continue
		}
		items = append(items, r.health[i])
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}
