package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	pkgch "SignalDesk/pkg/clickhouse"
	applogger "SignalDesk/pkg/logger"
)

const (
	signalsTable  = "signaldesk.signals"
	pumpDumpTable = "signaldesk.pump_dump_alerts"
)

// CHSignalStore implements SignalStore backed by ClickHouse. Terminal writes
// go through lightweight mutations guarded on status, so the pending queries
// stop returning a record the moment its terminal write lands.
type CHSignalStore struct {
	db  *sql.DB
	l   *applogger.Logger
	seq atomic.Int64
}

func NewCHSignalStore(ch *pkgch.Client) *CHSignalStore {
	return &CHSignalStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

// nextID builds a process-unique id from the clock and an in-process counter.
func (s *CHSignalStore) nextID() int64 {
	return time.Now().UnixMilli()*1000 + s.seq.Add(1)%1000
}

func (s *CHSignalStore) SaveSignal(ctx context.Context, sig models.TrackedSignal) (int64, error) {
	id := sig.ID
	if id == 0 {
		id = s.nextID()
	}
	const q = `INSERT INTO ` + signalsTable + ` (
        id, symbol, direction, source, category, strength, reason,
        entry_price, target_percent, stop_percent, target_price, stop_price,
        created_at, expires_at, status, result, note, rsi_value, volume_z_score
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		id, sig.Symbol, string(sig.Direction), sig.Source, string(sig.Category),
		sig.Strength, sig.Reason,
		sig.EntryPrice, sig.TargetPercent, sig.StopPercent, sig.TargetPrice, sig.StopPrice,
		sig.CreatedAt, sig.ExpiresAt, string(sig.Status), string(sig.Result), sig.Note,
		sig.RSIValue, sig.VolumeZScore,
	)
	if err != nil {
		return 0, fmt.Errorf("save signal: %w", err)
	}
	return id, nil
}

func (s *CHSignalStore) SavePumpDump(ctx context.Context, a models.PumpDumpAlert) (int64, error) {
	id := a.ID
	if id == 0 {
		id = s.nextID()
	}
	const q = `INSERT INTO ` + pumpDumpTable + ` (
        id, symbol, alert_type, price_at_alert, price_change_percent,
        volume_change_percent, momentum, time_period, created_at, status, result
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		id, a.Symbol, string(a.AlertType), a.PriceAtAlert, a.PriceChangePercent,
		a.VolumeChangePercent, int32(a.Momentum), a.TimePeriod, a.CreatedAt,
		string(a.Status), string(a.Result),
	)
	if err != nil {
		return 0, fmt.Errorf("save pump/dump alert: %w", err)
	}
	return id, nil
}

func (s *CHSignalStore) PendingSignals(ctx context.Context, minAge time.Duration) ([]models.TrackedSignal, error) {
	cutoff := time.Now().UTC().Add(-minAge)
	const q = `
        SELECT id, symbol, direction, source, category, strength, reason,
               entry_price, target_percent, stop_percent, target_price, stop_price,
               created_at, expires_at, validated_at, status, result,
               exit_price, profit_percent, note, rsi_value, volume_z_score
        FROM ` + signalsTable + `
        WHERE status = 'pending' AND created_at <= ?
        ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("pending signals: %w", err)
	}
	defer rows.Close()

	var out []models.TrackedSignal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *CHSignalStore) PendingPumpDumps(ctx context.Context, minAge time.Duration) ([]models.PumpDumpAlert, error) {
	cutoff := time.Now().UTC().Add(-minAge)
	const q = `
        SELECT id, symbol, alert_type, price_at_alert, price_change_percent,
               volume_change_percent, momentum, time_period, created_at, status, result
        FROM ` + pumpDumpTable + `
        WHERE status = 'pending' AND created_at <= ?
        ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("pending pump/dump alerts: %w", err)
	}
	defer rows.Close()

	var out []models.PumpDumpAlert
	for rows.Next() {
		var a models.PumpDumpAlert
		var momentum int32
		if err := rows.Scan(&a.ID, &a.Symbol, (*string)(&a.AlertType), &a.PriceAtAlert,
			&a.PriceChangePercent, &a.VolumeChangePercent, &momentum, &a.TimePeriod,
			&a.CreatedAt, (*string)(&a.Status), (*string)(&a.Result)); err != nil {
			return nil, fmt.Errorf("scan pump/dump alert: %w", err)
		}
		a.Momentum = int(momentum)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *CHSignalStore) UpdateSignalResult(ctx context.Context, id int64, out models.SignalOutcome) error {
	const q = `ALTER TABLE ` + signalsTable + ` UPDATE
        status = ?, result = ?, exit_price = ?, profit_percent = ?,
        note = ?, validated_at = ?
        WHERE id = ? AND status = 'pending'`
	if _, err := s.db.ExecContext(ctx, q,
		string(out.Status), string(out.Result), out.ExitPrice, out.ProfitPercent,
		out.Note, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update signal result: %w", err)
	}
	return nil
}

func (s *CHSignalStore) UpdatePumpDumpResult(ctx context.Context, id int64, out models.PumpDumpOutcome) error {
	continued := uint8(0)
	if out.Continued {
		continued = 1
	}
	const q = `ALTER TABLE ` + pumpDumpTable + ` UPDATE
        status = 'validated', result = ?, continued = ?, reversal_percent = ?,
        validated_at = ?
        WHERE id = ? AND status = 'pending'`
	if _, err := s.db.ExecContext(ctx, q,
		string(out.Result), continued, out.ChangePercent, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update pump/dump result: %w", err)
	}
	return nil
}

func (s *CHSignalStore) AccuracyStats(ctx context.Context, window time.Duration) (models.AccuracyStats, error) {
	since := time.Now().UTC().Add(-window)
	stats := models.AccuracyStats{
		PeriodHours:  int(window.Hours()),
		ByCategory:   map[string]models.CategoryStats{},
		CalculatedAt: time.Now().UTC(),
	}

	const overall = `
        SELECT count(),
               countIf(result = 'success'),
               countIf(result = 'failure'),
               countIf(status = 'pending'),
               avgIf(profit_percent, result = 'success')
        FROM ` + signalsTable + `
        WHERE created_at >= ?`
	var avgProfit sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, overall, since).Scan(
		&stats.TotalSignals, &stats.Successful, &stats.Failed, &stats.Pending, &avgProfit); err != nil {
		return stats, fmt.Errorf("accuracy stats: %w", err)
	}
	if avgProfit.Valid {
		stats.AvgProfit = avgProfit.Float64
	}
	if resolved := stats.Successful + stats.Failed; resolved > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(resolved) * 100
		stats.FailureRate = float64(stats.Failed) / float64(resolved) * 100
	}

	const byCategory = `
        SELECT category, count(), countIf(result = 'success')
        FROM ` + signalsTable + `
        WHERE created_at >= ?
        GROUP BY category`
	rows, err := s.db.QueryContext(ctx, byCategory, since)
	if err != nil {
		return stats, fmt.Errorf("accuracy by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var cs models.CategoryStats
		if err := rows.Scan(&category, &cs.Total, &cs.Success); err != nil {
			return stats, fmt.Errorf("scan category stats: %w", err)
		}
		if cs.Total > 0 {
			cs.Rate = float64(cs.Success) / float64(cs.Total) * 100
		}
		stats.ByCategory[category] = cs
	}
	return stats, rows.Err()
}

func (s *CHSignalStore) SignalHistory(ctx context.Context, symbol string, category models.SignalCategory, limit int) ([]models.TrackedSignal, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
        SELECT id, symbol, direction, source, category, strength, reason,
               entry_price, target_percent, stop_percent, target_price, stop_price,
               created_at, expires_at, validated_at, status, result,
               exit_price, profit_percent, note, rsi_value, volume_z_score
        FROM ` + signalsTable + ` WHERE 1 = 1`
	args := []interface{}{}
	if symbol != "" {
		q += " AND symbol = ?"
		args = append(args, symbol)
	}
	if category != "" {
		q += " AND category = ?"
		args = append(args, string(category))
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("signal history: %w", err)
	}
	defer rows.Close()

	var out []models.TrackedSignal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *CHSignalStore) PumpDumpHistory(ctx context.Context, limit int) ([]models.PumpDumpAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
        SELECT id, symbol, alert_type, price_at_alert, price_change_percent,
               volume_change_percent, momentum, time_period, created_at,
               validated_at, continued, reversal_percent, status, result
        FROM ` + pumpDumpTable + `
        ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("pump/dump history: %w", err)
	}
	defer rows.Close()

	var out []models.PumpDumpAlert
	for rows.Next() {
		var a models.PumpDumpAlert
		var momentum int32
		var validatedAt sql.NullTime
		var continued sql.NullInt64
		var reversal sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.Symbol, (*string)(&a.AlertType), &a.PriceAtAlert,
			&a.PriceChangePercent, &a.VolumeChangePercent, &momentum, &a.TimePeriod,
			&a.CreatedAt, &validatedAt, &continued, &reversal,
			(*string)(&a.Status), (*string)(&a.Result)); err != nil {
			return nil, fmt.Errorf("scan pump/dump alert: %w", err)
		}
		a.Momentum = int(momentum)
		if validatedAt.Valid {
			t := validatedAt.Time
			a.ValidatedAt = &t
		}
		if continued.Valid {
			c := continued.Int64 == 1
			a.Continued = &c
		}
		if reversal.Valid {
			r := reversal.Float64
			a.ReversalPercent = &r
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanSignal(rows *sql.Rows) (models.TrackedSignal, error) {
	var sig models.TrackedSignal
	var validatedAt sql.NullTime
	var exitPrice, profit, rsi, volZ sql.NullFloat64
	if err := rows.Scan(&sig.ID, &sig.Symbol, (*string)(&sig.Direction), &sig.Source,
		(*string)(&sig.Category), &sig.Strength, &sig.Reason,
		&sig.EntryPrice, &sig.TargetPercent, &sig.StopPercent, &sig.TargetPrice, &sig.StopPrice,
		&sig.CreatedAt, &sig.ExpiresAt, &validatedAt, (*string)(&sig.Status), (*string)(&sig.Result),
		&exitPrice, &profit, &sig.Note, &rsi, &volZ); err != nil {
		return sig, fmt.Errorf("scan signal: %w", err)
	}
	if validatedAt.Valid {
		t := validatedAt.Time
		sig.ValidatedAt = &t
	}
	if exitPrice.Valid {
		v := exitPrice.Float64
		sig.ExitPrice = &v
	}
	if profit.Valid {
		v := profit.Float64
		sig.ProfitPercent = &v
	}
	if rsi.Valid {
		v := rsi.Float64
		sig.RSIValue = &v
	}
	if volZ.Valid {
		v := volZ.Float64
		sig.VolumeZScore = &v
	}
	return sig, nil
}

var _ domrepo.SignalStore = (*CHSignalStore)(nil)
