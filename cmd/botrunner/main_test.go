package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-bots/internal/config"
	"github.com/rxtech-lab/argo-bots/internal/types"
)

type BotrunnerTestSuite struct {
	suite.Suite
}

func TestBotrunnerSuite(t *testing.T) {
	suite.Run(t, new(BotrunnerTestSuite))
}

func (s *BotrunnerTestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer

	cmd := newApp()
	cmd.Writer = &out
	cmd.ErrWriter = &out

	err := cmd.Run(context.Background(), append([]string{"botrunner"}, args...))

	return out.String(), err
}

func (s *BotrunnerTestSuite) TestStrategiesList() {
	out, err := s.run("strategies", "list")
	s.Require().NoError(err)
	s.Contains(out, "volume")
	s.Contains(out, "spread")
}

func (s *BotrunnerTestSuite) TestStrategiesSchema() {
	out, err := s.run("strategies", "schema", "--kind", "Volume")
	s.Require().NoError(err)
	s.Contains(out, "volume-strategy-config")
	s.Contains(out, "min_interval_s")

	_, err = s.run("strategies", "schema", "--kind", "grid")
	s.Require().Error(err)
}

func (s *BotrunnerTestSuite) TestBotsImportRequiresDatabase() {
	s.T().Setenv("BOTS_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	s.T().Setenv("BOTS_DB_DSN", "")

	_, err := s.run("--env-only", "bots", "import", "--file", "bots.yaml")
	s.Require().Error(err)
	s.Contains(err.Error(), "db.dsn is required")
}

func (s *BotrunnerTestSuite) TestNewPaperExchange() {
	ex, err := newPaperExchange(config.PaperConfig{
		Markets:  []config.PaperMarket{{Pair: "eth/usdt", Mid: 2500, MinAmount: 0.001}},
		Balances: map[string]float64{"usdt": 1000},
	})
	s.Require().NoError(err)

	pair := types.Pair{Base: "ETH", Quote: "USDT"}
	s.True(ex.Supports(pair))

	mid, err := ex.GetMidPrice(context.Background(), pair)
	s.Require().NoError(err)
	s.True(mid.Equal(decimal.NewFromInt(2500)))

	balances, err := ex.GetBalances(context.Background())
	s.Require().NoError(err)
	s.True(balances.FreeOf("USDT").Equal(decimal.NewFromInt(1000)))

	_, err = newPaperExchange(config.PaperConfig{Markets: []config.PaperMarket{{Pair: "ETHUSDT", Mid: 1}}, Balances: nil})
	s.Require().Error(err)
}
