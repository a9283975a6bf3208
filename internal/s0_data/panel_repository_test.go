package s0_data

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/pkg/logger"
)

func TestBuildPanel(t *testing.T) {
	day1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	rows := []priceRow{
		{Code: "000660", Date: day1, Open: 100, Close: 110},
		{Code: "005930", Date: day1, Open: 70, Close: 68},
		{Code: "000660", Date: day2, Open: 110, Close: 115},
		{Code: "005930", Date: day2, Open: 68, Close: 69},
	}

	returns := buildPanel(rows, contracts.ValueReturn)
	assert.Equal(t, []string{"000660", "005930", "000660", "005930"}, returns.Tickers)
	assert.Equal(t, []float64{10, -2, 5, 1}, returns.Values)

	closes := buildPanel(rows, contracts.ValueClose)
	assert.Equal(t, []float64{110, 68, 115, 69}, closes.Values)
}

func TestPanelRepository_LoadRejectsBadQuery(t *testing.T) {
	repo := NewPanelRepository(nil, logger.NewNop())

	_, err := repo.Load(context.Background(), contracts.PanelQuery{Days: 0})
	assert.Error(t, err)

	_, err = repo.Load(context.Background(), contracts.PanelQuery{Days: 3, Value: "volume"})
	assert.Error(t, err)
}

// TestPanelRepository_Integration requires TEST_DATABASE_URL
func TestPanelRepository_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" || testing.Short() {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS data;
		CREATE TABLE IF NOT EXISTS data.daily_prices (
			stock_code  TEXT NOT NULL,
			trade_date  DATE NOT NULL,
			open_price  BIGINT NOT NULL,
			high_price  BIGINT NOT NULL DEFAULT 0,
			low_price   BIGINT NOT NULL DEFAULT 0,
			close_price BIGINT NOT NULL,
			volume      BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (stock_code, trade_date)
		)`)
	require.NoError(t, err)

	base := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	codes := []string{"ZZT001", "ZZT002", "ZZT003"}
	cleanup := func() {
		_, _ = pool.Exec(ctx, `DELETE FROM data.daily_prices WHERE stock_code = ANY($1)`, codes)
	}
	cleanup()
	defer cleanup()

	for day := 0; day < 4; day++ {
		for i, code := range codes {
			// ZZT003 은 마지막 날이 비어 제외되어야 한다
			if code == "ZZT003" && day == 3 {
				continue
			}
			_, err := pool.Exec(ctx,
				`INSERT INTO data.daily_prices (stock_code, trade_date, open_price, close_price) VALUES ($1, $2, $3, $4)`,
				code, base.AddDate(0, 0, day), 100, 100+day*(i+1))
			require.NoError(t, err)
		}
	}

	repo := NewPanelRepository(pool, logger.NewNop())
	panel, err := repo.Load(ctx, contracts.PanelQuery{
		Before: base.AddDate(0, 0, 4),
		Days:   3,
		Codes:  codes,
		Value:  contracts.ValueReturn,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ZZT001", "ZZT002", "ZZT001", "ZZT002", "ZZT001", "ZZT002"}, panel.Tickers)
	assert.Equal(t, []float64{1, 2, 2, 4, 3, 6}, panel.Values)
}
