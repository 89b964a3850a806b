package repository

// SchemaStatements returns the DDL applied at startup. Statements are
// idempotent, the ClickHouse client runs them one by one.
func SchemaStatements() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS signaldesk`,

		`CREATE TABLE IF NOT EXISTS signaldesk.candles_1s (
			bucket DateTime64(3),
			symbol LowCardinality(String),
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			vol Float64
		) ENGINE = ReplacingMergeTree
		PARTITION BY toYYYYMMDD(bucket)
		ORDER BY (symbol, bucket)
		TTL toDateTime(bucket) + INTERVAL 7 DAY`,

		`CREATE TABLE IF NOT EXISTS signaldesk.candles_1m (
			bucket DateTime64(3),
			symbol LowCardinality(String),
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			vol Float64
		) ENGINE = ReplacingMergeTree
		PARTITION BY toYYYYMM(bucket)
		ORDER BY (symbol, bucket)`,

		`CREATE TABLE IF NOT EXISTS signaldesk.signals (
			id Int64,
			symbol LowCardinality(String),
			direction LowCardinality(String),
			source LowCardinality(String),
			category LowCardinality(String),
			strength Float64,
			reason String,
			entry_price Float64,
			target_percent Float64,
			stop_percent Float64,
			target_price Float64,
			stop_price Float64,
			created_at DateTime64(3),
			expires_at DateTime64(3),
			validated_at Nullable(DateTime64(3)),
			status LowCardinality(String),
			result LowCardinality(String),
			exit_price Nullable(Float64),
			profit_percent Nullable(Float64),
			note String,
			rsi_value Nullable(Float64),
			volume_z_score Nullable(Float64)
		) ENGINE = MergeTree
		PARTITION BY toYYYYMM(created_at)
		ORDER BY (symbol, created_at, id)`,

		`CREATE TABLE IF NOT EXISTS signaldesk.pump_dump_alerts (
			id Int64,
			symbol LowCardinality(String),
			alert_type LowCardinality(String),
			price_at_alert Float64,
			price_change_percent Float64,
			volume_change_percent Float64,
			momentum Int32,
			time_period LowCardinality(String),
			created_at DateTime64(3),
			validated_at Nullable(DateTime64(3)),
			continued Nullable(UInt8),
			reversal_percent Nullable(Float64),
			max_continuation Nullable(Float64),
			status LowCardinality(String),
			result LowCardinality(String)
		) ENGINE = MergeTree
		PARTITION BY toYYYYMM(created_at)
		ORDER BY (symbol, created_at, id)`,
	}
}
