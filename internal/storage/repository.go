package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertSignalSampleSQL = `INSERT INTO signal_samples (
        symbol,
        cycle_ts,
        overall_signal,
        confidence,
        risk_level,
        price,
        change_24h,
        fear_greed,
        payload,
        status,
        error
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    )
    ON CONFLICT (symbol, cycle_ts) DO UPDATE
    SET
        overall_signal = EXCLUDED.overall_signal,
        confidence     = EXCLUDED.confidence,
        risk_level     = EXCLUDED.risk_level,
        price          = EXCLUDED.price,
        change_24h     = EXCLUDED.change_24h,
        fear_greed     = EXCLUDED.fear_greed,
        payload        = EXCLUDED.payload,
        status         = EXCLUDED.status,
        error          = EXCLUDED.error;`

	listSamplesBetweenSQL = `SELECT
        symbol,
        cycle_ts,
        overall_signal,
        confidence,
        risk_level,
        price,
        change_24h,
        fear_greed,
        payload,
        status,
        error,
        created_at
    FROM signal_samples
    WHERE symbol = $1
      AND cycle_ts >= $2
      AND cycle_ts < $3
    ORDER BY cycle_ts;`

	listRecentSamplesSQL = `SELECT
        symbol,
        cycle_ts,
        overall_signal,
        confidence,
        risk_level,
        price,
        change_24h,
        fear_greed,
        payload,
        status,
        error,
        created_at
    FROM signal_samples
    ORDER BY cycle_ts DESC
    LIMIT $1;`

	markSampleErroredSQL = `UPDATE signal_samples
    SET status = 'errored', error = $3
    WHERE symbol = $1 AND cycle_ts = $2;`

	countSamplesSQL = `SELECT COUNT(*) FROM signal_samples;`

	insertAlertSQL = `INSERT INTO signal_alerts (
        symbol,
        cycle_ts,
        signal,
        confidence,
        risk_level,
        channels
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (symbol, cycle_ts) DO UPDATE
    SET signal     = EXCLUDED.signal,
        confidence = EXCLUDED.confidence,
        risk_level = EXCLUDED.risk_level,
        channels   = EXCLUDED.channels
    RETURNING id, symbol, cycle_ts, signal, confidence, risk_level, channels, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        symbol,
        cycle_ts,
        signal,
        confidence,
        risk_level,
        channels,
        created_at
    FROM signal_alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM signal_alerts WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// SignalSampleStore defines operations for signal history persistence.
type SignalSampleStore interface {
	UpsertSignalSample(ctx context.Context, sample SignalSample) error
	ListSamplesBetween(ctx context.Context, symbol string, from, to time.Time) ([]SignalSample, error)
	ListRecentSamples(ctx context.Context, limit int) ([]SignalSample, error)
	MarkSampleErrored(ctx context.Context, symbol string, cycle time.Time, errMsg string) error
	CountSamples(ctx context.Context) (int64, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to signal samples and alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// best effort; the lock dies with the connection anyway
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertSignalSample persists or updates a fused signal sample.
func (s *Store) UpsertSignalSample(ctx context.Context, sample SignalSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var price interface{}
	if sample.Price != nil {
		price = sample.Price.String()
	}

	var change interface{}
	if sample.Change24h != nil {
		change = *sample.Change24h
	}

	var fearGreed interface{}
	if sample.FearGreed != nil {
		fearGreed = *sample.FearGreed
	}

	var errMsg interface{}
	if sample.Error != nil {
		errMsg = *sample.Error
	}

	_, execErr := pool.Exec(ctx, upsertSignalSampleSQL,
		sample.Symbol,
		sample.CycleTS,
		sample.Overall,
		sample.Confidence.String(),
		sample.Risk,
		price,
		change,
		fearGreed,
		[]byte(sample.Payload),
		sample.Status,
		errMsg,
	)
	if execErr != nil {
		return fmt.Errorf("upsert signal sample: %w", execErr)
	}
	return nil
}

// ListSamplesBetween lists one symbol's samples within a time window.
func (s *Store) ListSamplesBetween(ctx context.Context, symbol string, from, to time.Time) ([]SignalSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSamplesBetweenSQL, symbol, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list samples between: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]SignalSample, 0)
	for rows.Next() {
		sample, scanErr := scanSignalSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// ListRecentSamples lists the most recent samples ordered by descending cycle.
func (s *Store) ListRecentSamples(ctx context.Context, limit int) ([]SignalSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSamplesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent samples: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]SignalSample, 0, limit)
	for rows.Next() {
		sample, scanErr := scanSignalSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// MarkSampleErrored marks a sample as errored.
func (s *Store) MarkSampleErrored(ctx context.Context, symbol string, cycle time.Time, errMsg string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, markSampleErroredSQL, symbol, cycle, errMsg)
	if execErr != nil {
		return fmt.Errorf("mark sample errored: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountSamples counts stored samples.
func (s *Store) CountSamples(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSamplesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count samples: %w", scanErr)
	}
	return count, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.Symbol,
		alert.CycleTS,
		alert.Signal,
		alert.Confidence.String(),
		alert.Risk,
		alert.Channels,
	)

	var rec AlertRecord
	var confidenceStr string
	if scanErr := row.Scan(
		&rec.ID,
		&rec.Symbol,
		&rec.CycleTS,
		&rec.Signal,
		&confidenceStr,
		&rec.Risk,
		&rec.Channels,
		&rec.CreatedAt,
	); scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}

	var convErr error
	rec.Confidence, convErr = decimal.NewFromString(confidenceStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse confidence: %w", convErr)
	}

	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var rec AlertRecord
		var confidenceStr string
		if err := rows.Scan(
			&rec.ID,
			&rec.Symbol,
			&rec.CycleTS,
			&rec.Signal,
			&confidenceStr,
			&rec.Risk,
			&rec.Channels,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		rec.Confidence, convErr = decimal.NewFromString(confidenceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse confidence: %w", convErr)
		}

		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore deletes historical alerts.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alerts before: %w", execErr)
	}
	return nil
}

func scanSignalSample(rows pgx.Rows) (SignalSample, error) {
	var (
		symbol        string
		cycle         time.Time
		overall       string
		confidenceStr string
		risk          string
		priceStr      sql.NullString
		change        sql.NullFloat64
		fearGreed     sql.NullInt64
		payload       json.RawMessage
		status        string
		errMsg        sql.NullString
		createdAt     time.Time
	)

	if err := rows.Scan(
		&symbol,
		&cycle,
		&overall,
		&confidenceStr,
		&risk,
		&priceStr,
		&change,
		&fearGreed,
		&payload,
		&status,
		&errMsg,
		&createdAt,
	); err != nil {
		return SignalSample{}, err
	}

	confidence, err := decimal.NewFromString(confidenceStr)
	if err != nil {
		return SignalSample{}, fmt.Errorf("parse confidence: %w", err)
	}

	sample := SignalSample{
		Symbol:     symbol,
		CycleTS:    cycle,
		Overall:    overall,
		Confidence: confidence,
		Risk:       risk,
		Payload:    payload,
		Status:     status,
		CreatedAt:  createdAt,
	}

	if priceStr.Valid {
		price, convErr := decimal.NewFromString(priceStr.String)
		if convErr != nil {
			return SignalSample{}, fmt.Errorf("parse price: %w", convErr)
		}
		sample.Price = &price
	}
	if change.Valid {
		v := change.Float64
		sample.Change24h = &v
	}
	if fearGreed.Valid {
		v := int(fearGreed.Int64)
		sample.FearGreed = &v
	}
	if errMsg.Valid {
		msg := errMsg.String
		sample.Error = &msg
	}

	return sample, nil
}

var (
	_ SignalSampleStore = (*Store)(nil)
	_ AlertStore        = (*Store)(nil)
	_ AdvisoryLocker    = (*Store)(nil)
)
