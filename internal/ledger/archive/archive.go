// Package archive mirrors trade logs into a local DuckDB database and
// exports them as parquet for offline analysis.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

const databaseFile = "trades.duckdb"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Archive is a DuckDB-backed copy of the trade log.
type Archive struct {
	db  *sql.DB
	dir string
	sq  squirrel.StatementBuilderType
	mu  sync.Mutex
}

// DayVolume is the traded notional of one UTC day.
type DayVolume struct {
	Day        time.Time
	VolumeUSD  decimal.Decimal
	TradeCount int
}

// Open creates dir if needed and opens the archive database inside it.
func Open(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeArchiveWriteFailed, "failed to create archive directory", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(dir, databaseFile))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open archive database", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trade_logs (
			id UBIGINT,
			bot_id TEXT,
			side TEXT,
			amount DOUBLE,
			price DOUBLE,
			cost_usd DOUBLE,
			order_id TEXT,
			created_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeArchiveWriteFailed, "failed to create trade_logs table", err)
	}

	return &Archive{
		db:  db,
		dir: dir,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		mu:  sync.Mutex{},
	}, nil
}

// Write appends one trade.
func (a *Archive) Write(ctx context.Context, trade models.TradeLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	query, args, err := a.sq.
		Insert("trade_logs").
		Columns("id", "bot_id", "side", "amount", "price", "cost_usd", "order_id", "created_at").
		Values(
			trade.ID,
			trade.BotID,
			string(trade.Side),
			trade.Amount.InexactFloat64(),
			trade.Price.InexactFloat64(),
			trade.CostUSD.InexactFloat64(),
			trade.OrderID,
			trade.CreatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeArchiveWriteFailed, "failed to build insert", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeArchiveWriteFailed, "failed to insert trade", err)
	}

	return nil
}

// DailyVolumes returns botID's traded notional grouped by UTC day, oldest first.
func (a *Archive) DailyVolumes(ctx context.Context, botID string) ([]DayVolume, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	query, args, err := a.sq.
		Select("CAST(date_trunc('day', created_at) AS DATE) AS day", "SUM(cost_usd)", "COUNT(*)").
		From("trade_logs").
		Where(squirrel.Eq{"bot_id": botID}).
		GroupBy("day").
		OrderBy("day ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query daily volumes", err)
	}
	defer rows.Close()

	var result []DayVolume

	for rows.Next() {
		var (
			day    time.Time
			volume float64
			count  int
		)

		if err := rows.Scan(&day, &volume, &count); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan daily volume", err)
		}

		result = append(result, DayVolume{
			Day:        day.UTC(),
			VolumeUSD:  decimal.NewFromFloat(volume),
			TradeCount: count,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate daily volumes", err)
	}

	return result, nil
}

// ExportParquet writes botID's trades to <dir>/<botID>.parquet and returns the path.
func (a *Archive) ExportParquet(ctx context.Context, botID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	outputPath := filepath.Join(a.dir, unsafeFileChars.ReplaceAllString(botID, "_")+".parquet")

	// COPY does not take bind parameters.
	_, err := a.db.ExecContext(ctx, fmt.Sprintf(`
		COPY (SELECT * FROM trade_logs WHERE bot_id = '%s' ORDER BY created_at ASC, id ASC)
		TO '%s' (FORMAT PARQUET)
	`, strings.ReplaceAll(botID, "'", "''"), strings.ReplaceAll(outputPath, "'", "''")))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeArchiveWriteFailed, "failed to export parquet", err)
	}

	return outputPath, nil
}

// Count returns the number of archived trades for botID.
func (a *Archive) Count(ctx context.Context, botID string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	query, args, err := a.sq.Select("COUNT(*)").From("trade_logs").Where(squirrel.Eq{"bot_id": botID}).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count trades", err)
	}

	return count, nil
}

func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}

	err := a.db.Close()
	a.db = nil

	return err
}
