package exchange

import (
	"context"
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/internal/vault"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// Built-in exchange identifiers.
const (
	ExchangeBinance        = "binance"
	ExchangeBinanceTestnet = "binance-testnet"
	ExchangePaper          = "paper"
)

// Factory constructs a ready adapter for pair. It should verify the
// credentials and the pair so failures surface at init rather than on the
// first order.
type Factory func(ctx context.Context, secret vault.SecretMaterial, pair types.Pair) (Adapter, error)

// Info describes a registered exchange.
type Info struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

type registration struct {
	info    Info
	factory Factory
}

// Registry maps exchange ids to adapter factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{
		mu:      sync.RWMutex{},
		entries: make(map[string]registration),
	}
}

// Register adds or replaces an exchange.
func (r *Registry) Register(info Info, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[info.Name] = registration{info: info, factory: factory}
}

// New builds an adapter for the exchange id.
func (r *Registry) New(ctx context.Context, exchangeID string, secret vault.SecretMaterial, pair types.Pair) (Adapter, error) {
	r.mu.RLock()
	entry, ok := r.entries[exchangeID]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownExchange, "unsupported exchange: %s", exchangeID)
	}

	return entry.factory(ctx, secret, pair)
}

// Info returns metadata for a registered exchange.
func (r *Registry) Info(exchangeID string) (Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[exchangeID]
	if !ok {
		return Info{}, errors.Newf(errors.ErrCodeUnknownExchange, "unsupported exchange: %s", exchangeID)
	}

	return entry.info, nil
}

// Supported lists registered exchange ids in sorted order.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
