package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/pkg/logger"
)

// PanelRepository implements contracts.PanelSource over data.daily_prices
// ⭐ SSOT: DB → 패널 변환은 여기서만
type PanelRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

var _ contracts.PanelSource = (*PanelRepository)(nil)

// NewPanelRepository creates a new panel repository
func NewPanelRepository(pool *pgxpool.Pool, logger *logger.Logger) *PanelRepository {
	return &PanelRepository{pool: pool, logger: logger}
}

// priceRow is one (stock, day) observation read from the database
type priceRow struct {
	Code  string
	Date  time.Time
	Open  float64
	Close float64
}

// panelQuery 최근 N 거래일 중 모든 날짜에 가격이 있는 종목만 반환
const panelQuery = `
	WITH window_dates AS (
		SELECT DISTINCT trade_date
		FROM data.daily_prices
		WHERE trade_date < $1
		ORDER BY trade_date DESC
		LIMIT $2
	),
	complete AS (
		SELECT dp.stock_code
		FROM data.daily_prices dp
		JOIN window_dates wd ON wd.trade_date = dp.trade_date
		WHERE ($3::text[] IS NULL OR dp.stock_code = ANY($3::text[]))
		GROUP BY dp.stock_code
		HAVING COUNT(*) = (SELECT COUNT(*) FROM window_dates)
	)
	SELECT dp.stock_code, dp.trade_date, dp.open_price::float8, dp.close_price::float8
	FROM data.daily_prices dp
	JOIN window_dates wd ON wd.trade_date = dp.trade_date
	JOIN complete c ON c.stock_code = dp.stock_code
	ORDER BY dp.trade_date ASC, dp.stock_code ASC
`

// Load reads the most recent query.Days trading days before query.Before
// 결과는 day-major, 오래된 날짜 먼저
func (r *PanelRepository) Load(ctx context.Context, query contracts.PanelQuery) (*contracts.Panel, error) {
	if query.Days <= 0 {
		return nil, fmt.Errorf("panel query days must be positive, got %d", query.Days)
	}
	value := query.Value
	if value == "" {
		value = contracts.ValueReturn
	}
	if !value.IsValid() {
		return nil, fmt.Errorf("unsupported panel value %q", query.Value)
	}
	before := query.Before
	if before.IsZero() {
		before = time.Now()
	}

	var codes []string
	if len(query.Codes) > 0 {
		codes = query.Codes
	}

	rows, err := r.pool.Query(ctx, panelQuery, before, query.Days, codes)
	if err != nil {
		return nil, fmt.Errorf("query daily prices: %w", err)
	}

	prices, err := pgx.CollectRows(rows, pgx.RowToStructByPos[priceRow])
	if err != nil {
		return nil, fmt.Errorf("scan daily prices: %w", err)
	}

	panel := buildPanel(prices, value)

	r.logger.WithFields(map[string]interface{}{
		"stage":        contracts.StageData.ShortName(),
		"before":       before.Format("2006-01-02"),
		"days":         query.Days,
		"observations": panel.Len(),
		"value":        value,
	}).Info("Panel loaded from database")

	return panel, nil
}

// buildPanel flattens date-ordered rows into the observation stream
func buildPanel(prices []priceRow, value contracts.ValueField) *contracts.Panel {
	panel := &contracts.Panel{
		Tickers: make([]string, 0, len(prices)),
		Values:  make([]float64, 0, len(prices)),
	}
	for _, p := range prices {
		v := p.Close
		if value == contracts.ValueReturn {
			v = p.Close - p.Open
		}
		panel.Tickers = append(panel.Tickers, p.Code)
		panel.Values = append(panel.Values, v)
	}
	return panel
}

// AvailableDays counts distinct trading days stored before the given date
func (r *PanelRepository) AvailableDays(ctx context.Context, before time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT trade_date) FROM data.daily_prices WHERE trade_date < $1`,
		before,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count trading days: %w", err)
	}
	return n, nil
}
