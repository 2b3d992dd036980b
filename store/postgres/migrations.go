package postgres

// Migrations run in order inside Migrate. Statements are idempotent so
// repeated startups are safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS club_members (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		email            TEXT NOT NULL DEFAULT '',
		phone            TEXT NOT NULL DEFAULT '',
		date_of_birth    TIMESTAMPTZ,
		category_id      TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'active',
		balance_minor    BIGINT NOT NULL DEFAULT 0,
		balance_currency TEXT NOT NULL DEFAULT 'gbp',
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS club_payments (
		id              TEXT PRIMARY KEY,
		member_id       TEXT NOT NULL REFERENCES club_members(id),
		member_name     TEXT NOT NULL,
		amount_minor    BIGINT NOT NULL,
		amount_currency TEXT NOT NULL,
		date            TIMESTAMPTZ NOT NULL,
		method          TEXT NOT NULL,
		reference       TEXT NOT NULL DEFAULT '',
		notes           TEXT NOT NULL DEFAULT '',
		receipt_number  TEXT NOT NULL UNIQUE,
		receipt_year    INT NOT NULL,
		receipt_seq     BIGINT NOT NULL DEFAULT 0,
		recorded_by     TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS club_fees (
		id              TEXT PRIMARY KEY,
		member_id       TEXT NOT NULL REFERENCES club_members(id),
		member_name     TEXT NOT NULL,
		year            INT NOT NULL,
		kind            TEXT NOT NULL DEFAULT 'manual',
		category_id     TEXT NOT NULL,
		category_name   TEXT NOT NULL,
		amount_minor    BIGINT NOT NULL,
		amount_currency TEXT NOT NULL,
		applied_by      TEXT NOT NULL DEFAULT '',
		notes           TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_club_members_status
		ON club_members (status, category_id)`,

	`CREATE INDEX IF NOT EXISTS idx_club_payments_member_date
		ON club_payments (member_id, date DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_club_payments_receipt_seq
		ON club_payments (receipt_year, receipt_seq DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_club_fees_year
		ON club_fees (year)`,

	// Only the annual run is guarded against double application;
	// manual fees for the same member and year stay unrestricted.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_club_fees_annual
		ON club_fees (member_id, year) WHERE kind = 'annual'`,
}
