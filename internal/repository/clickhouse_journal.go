package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	pkgch "DayTrader/pkg/clickhouse"
	"DayTrader/pkg/logger"
)

const journalColumns = "report_id, ts, symbol, timeframe, class, kind, direction, price, entry, target, stop, atr, rsi"

// JournalSchema is the DDL for the signals table.
func JournalSchema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            report_id String,
            ts        DateTime64(3, 'UTC'),
            symbol    LowCardinality(String),
            timeframe LowCardinality(String),
            class     LowCardinality(String),
            kind      LowCardinality(String),
            direction LowCardinality(String),
            price     Float64,
            entry     Nullable(Float64),
            target    Nullable(Float64),
            stop      Nullable(Float64),
            atr       Nullable(Float64),
            rsi       Nullable(Float64)
        ) ENGINE = MergeTree
        ORDER BY (symbol, timeframe, ts)
        TTL toDateTime(ts) + INTERVAL 90 DAY`, table)}
}

// ClickHouseJournal is an append-only audit trail of fired signals.
// It is never read back into the window store.
type ClickHouseJournal struct {
	db      *sql.DB
	table   string
	timeout time.Duration
	log     *logger.Logger
}

var (
	_ domrepo.SignalJournal = (*ClickHouseJournal)(nil)
	_ domrepo.SignalHistory = (*ClickHouseJournal)(nil)
)

// NewClickHouseJournal creates the table if needed.
func NewClickHouseJournal(ctx context.Context, ch *pkgch.Client, table string, log *logger.Logger) (*ClickHouseJournal, error) {
	if table == "" {
		table = "signals"
	}
	if err := ch.InitSchema(ctx, JournalSchema(table)); err != nil {
		return nil, err
	}
	return &ClickHouseJournal{db: ch.DB(), table: table, timeout: ch.WriteTimeout(), log: log}, nil
}

func (j *ClickHouseJournal) Record(ctx context.Context, r *models.Report) error {
	rows := SignalRecords(r)
	if len(rows) == 0 {
		return nil
	}
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	q, args := insertSignals(j.table, rows)
	start := time.Now()
	if _, err := j.db.ExecContext(ctx, q, args...); err != nil {
		if j.log != nil {
			j.log.Error("clickhouse insert signals",
				logger.String("table", j.table),
				logger.String("report_id", r.ID),
				logger.Error(err))
		}
		return fmt.Errorf("journal signals: %w", err)
	}
	if j.log != nil {
		j.log.Debug("signals journaled",
			logger.String("report_id", r.ID),
			logger.Int("rows", len(rows)),
			logger.Duration("took", time.Since(start)))
	}
	return nil
}

func (j *ClickHouseJournal) Recent(ctx context.Context, symbol string, limit int) ([]models.SignalRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var (
		q    string
		args []interface{}
	)
	if symbol != "" {
		q = fmt.Sprintf("SELECT %s FROM %s WHERE symbol = ? ORDER BY ts DESC LIMIT ?", journalColumns, j.table)
		args = []interface{}{symbol, limit}
	} else {
		q = fmt.Sprintf("SELECT %s FROM %s ORDER BY ts DESC LIMIT ?", journalColumns, j.table)
		args = []interface{}{limit}
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []models.SignalRecord
	for rows.Next() {
		var (
			rec                          models.SignalRecord
			iv, class, kind, dir         string
			entry, target, stop, atr, rs sql.NullFloat64
		)
		if err := rows.Scan(&rec.ReportID, &rec.At, &rec.Symbol, &iv, &class, &kind, &dir, &rec.Price,
			&entry, &target, &stop, &atr, &rs); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		rec.Interval = models.Interval(iv)
		rec.Class = models.AssetClass(class)
		rec.Kind = models.SignalKind(kind)
		rec.Direction = models.Direction(dir)
		rec.EntryPrice = fromNull(entry)
		rec.Target = fromNull(target)
		rec.StopLoss = fromNull(stop)
		rec.ATR = fromNull(atr)
		rec.RSI = fromNull(rs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close is a no-op; the ClickHouse client is closed by its owner.
func (j *ClickHouseJournal) Close() error { return nil }

// SignalRecords flattens a report into one row per signal.
func SignalRecords(r *models.Report) []models.SignalRecord {
	out := make([]models.SignalRecord, 0, len(r.Signals))
	for _, s := range r.Signals {
		out = append(out, models.SignalRecord{
			ReportID:   r.ID,
			At:         r.GeneratedAt,
			Symbol:     r.Symbol,
			Interval:   r.Interval,
			Class:      r.Class,
			Kind:       s.Kind,
			Direction:  s.Direction,
			Price:      s.Price,
			EntryPrice: s.EntryPrice,
			Target:     s.Target,
			StopLoss:   s.StopLoss,
			ATR:        r.Indicators.ATR,
			RSI:        r.Indicators.RSI,
		})
	}
	return out
}

func insertSignals(table string, rows []models.SignalRecord) (string, []interface{}) {
	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*13)
	for _, rec := range rows {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			rec.ReportID,
			rec.At,
			rec.Symbol,
			string(rec.Interval),
			string(rec.Class),
			string(rec.Kind),
			string(rec.Direction),
			rec.Price,
			nullable(rec.EntryPrice),
			nullable(rec.Target),
			nullable(rec.StopLoss),
			nullable(rec.ATR),
			nullable(rec.RSI),
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, journalColumns, strings.Join(values, ","))
	return q, args
}

func nullable(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func fromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
