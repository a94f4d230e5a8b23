// Package seed imports bot definitions from a YAML file into the repository.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/repository"
	"github.com/rxtech-lab/argo-bots/internal/strategy"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/internal/version"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// FormatVersion is the newest seed file layout this build reads.
const FormatVersion = "1.0.0"

// File is the layout of a seed file. An empty Version means FormatVersion.
type File struct {
	Version string    `yaml:"version"`
	Bots    []BotSpec `yaml:"bots"`
}

// BotSpec describes one bot. Config is kept as a YAML mapping and stored as
// JSON.
type BotSpec struct {
	ID       string         `yaml:"id"`
	ClientID string         `yaml:"client_id"`
	Account  string         `yaml:"account"`
	Exchange string         `yaml:"exchange"`
	Pair     string         `yaml:"pair"`
	Strategy string         `yaml:"strategy"`
	Status   string         `yaml:"status"`
	Config   map[string]any `yaml:"config"`
}

// Result reports what an import did.
type Result struct {
	Created   []string
	Updated   []string
	Unchanged []string
}

type Importer struct {
	bots repository.BotRepository
	log  *logger.Logger
}

func NewImporter(bots repository.BotRepository, log *logger.Logger) *Importer {
	return &Importer{bots: bots, log: log.Named("seed")}
}

// ImportFile reads path and imports every bot in it.
func (i *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to open seed file %s", path)
	}
	defer f.Close()

	return i.Import(ctx, f)
}

// Import validates every bot before writing any of them. A bot whose config
// changed gets its ConfigRev bumped so running runtimes reload it.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	var file File

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return Result{}, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to decode seed file", err)
	}

	if file.Version != "" {
		if err := version.CheckCompatibility(FormatVersion, file.Version); err != nil {
			return Result{}, err
		}
	}

	bots := make([]models.Bot, 0, len(file.Bots))
	seen := make(map[string]struct{}, len(file.Bots))

	for idx, entry := range file.Bots {
		bot, err := entry.toBot()
		if err != nil {
			return Result{}, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "bot #%d", idx+1)
		}

		if _, dup := seen[bot.ID]; dup {
			return Result{}, errors.Newf(errors.ErrCodeInvalidParameter, "bot #%d: duplicate id %s", idx+1, bot.ID)
		}
		seen[bot.ID] = struct{}{}

		bots = append(bots, bot)
	}

	var res Result

	for _, bot := range bots {
		existing, err := i.bots.GetBot(ctx, bot.ID)
		if err != nil {
			return res, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to load bot %s", bot.ID)
		}

		outcome := &res.Created

		if existing != nil {
			bot.ConfigRev = existing.ConfigRev
			bot.HealthStatus = existing.HealthStatus
			bot.LastTradeTime = existing.LastTradeTime
			bot.CreatedAt = existing.CreatedAt

			switch {
			case !bytes.Equal(canonical(existing.Config), canonical(bot.Config)) || existing.StrategyKind != bot.StrategyKind:
				bot.ConfigRev++
				outcome = &res.Updated
			case existing.Status != bot.Status || existing.ClientID != bot.ClientID ||
				existing.Account != bot.Account || existing.Exchange != bot.Exchange ||
				existing.BaseAsset != bot.BaseAsset || existing.QuoteAsset != bot.QuoteAsset:
				outcome = &res.Updated
			default:
				outcome = &res.Unchanged
			}
		}

		if err := i.bots.UpsertBot(ctx, &bot); err != nil {
			return res, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to save bot %s", bot.ID)
		}

		*outcome = append(*outcome, bot.ID)

		i.log.Info("bot imported",
			zap.String("bot_id", bot.ID),
			zap.String("strategy", string(bot.StrategyKind)),
			zap.String("pair", bot.Pair().String()),
			zap.Int("config_rev", bot.ConfigRev),
		)
	}

	return res, nil
}

func (b BotSpec) toBot() (models.Bot, error) {
	if strings.TrimSpace(b.ClientID) == "" {
		return models.Bot{}, errors.New(errors.ErrCodeMissingParameter, "client_id is required")
	}

	if strings.TrimSpace(b.Exchange) == "" {
		return models.Bot{}, errors.New(errors.ErrCodeMissingParameter, "exchange is required")
	}

	pair, err := types.ParsePair(b.Pair)
	if err != nil {
		return models.Bot{}, err
	}

	kind := types.StrategyKind(strings.ToLower(strings.TrimSpace(b.Strategy)))

	raw, err := json.Marshal(b.Config)
	if err != nil {
		return models.Bot{}, errors.Wrap(errors.ErrCodeInvalidParameter, "config is not representable as JSON", err)
	}

	if _, err := strategy.ParseConfig(kind, raw); err != nil {
		return models.Bot{}, err
	}

	status := types.BotStatus(strings.ToLower(strings.TrimSpace(b.Status)))
	switch status {
	case "":
		status = types.BotStatusCreated
	case types.BotStatusCreated, types.BotStatusRunning, types.BotStatusStopped:
	default:
		return models.Bot{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported status %q", b.Status)
	}

	id := strings.TrimSpace(b.ID)
	if id == "" {
		id = uuid.NewString()
	}

	return models.Bot{
		ID:            id,
		ClientID:      strings.TrimSpace(b.ClientID),
		Account:       strings.TrimSpace(b.Account),
		StrategyKind:  kind,
		BaseAsset:     pair.Base,
		QuoteAsset:    pair.Quote,
		Exchange:      strings.ToLower(strings.TrimSpace(b.Exchange)),
		Config:        raw,
		ConfigRev:     1,
		Status:        status,
		HealthStatus:  types.HealthUnknown,
		LastTradeTime: nil,
		CreatedAt:     time.Time{},
		UpdatedAt:     time.Time{},
	}, nil
}

// canonical re-encodes a JSON document with sorted keys.
func canonical(raw []byte) []byte {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}

	out, err := json.Marshal(v)
	if err != nil {
		return raw
	}

	return out
}
