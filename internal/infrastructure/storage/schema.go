package storage

// PostgresSchema provisions the deal and event tables on Postgres.
// It is shipped for operators and the migrate command; the repository never applies it on its own.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS deals (
    id                  BIGSERIAL PRIMARY KEY,
    external_id         TEXT NOT NULL UNIQUE,
    retailer            TEXT NOT NULL,
    title               TEXT NOT NULL,
    description         TEXT,
    product_url         TEXT NOT NULL,
    image_url           TEXT,
    sale_price          DOUBLE PRECISION,
    sale_currency       TEXT,
    discounted_price    DOUBLE PRECISION,
    discounted_currency TEXT,
    discount_percentage DOUBLE PRECISION,
    scraped_at          TIMESTAMPTZ NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS deals_retailer_scraped_at_idx ON deals (retailer, scraped_at DESC);

CREATE TABLE IF NOT EXISTS events (
    id          BIGSERIAL PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT,
    location    TEXT,
    image_url   TEXT,
    source_url  TEXT NOT NULL UNIQUE,
    start_date  TIMESTAMPTZ NOT NULL,
    end_date    TIMESTAMPTZ,
    category    TEXT,
    tags        JSONB NOT NULL DEFAULT '[]'::jsonb,
    metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS events_start_date_idx ON events (start_date);
CREATE INDEX IF NOT EXISTS events_category_idx ON events (category);
`

// SQLiteSchema is the embedded-store equivalent of PostgresSchema.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS deals (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    external_id         TEXT NOT NULL UNIQUE,
    retailer            TEXT NOT NULL,
    title               TEXT NOT NULL,
    description         TEXT,
    product_url         TEXT NOT NULL,
    image_url           TEXT,
    sale_price          REAL,
    sale_currency       TEXT,
    discounted_price    REAL,
    discounted_currency TEXT,
    discount_percentage REAL,
    scraped_at          TIMESTAMP NOT NULL,
    created_at          TIMESTAMP NOT NULL,
    updated_at          TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS deals_retailer_scraped_at_idx ON deals (retailer, scraped_at DESC);

CREATE TABLE IF NOT EXISTS events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    title       TEXT NOT NULL,
    description TEXT,
    location    TEXT,
    image_url   TEXT,
    source_url  TEXT NOT NULL UNIQUE,
    start_date  TIMESTAMP NOT NULL,
    end_date    TIMESTAMP,
    category    TEXT,
    tags        TEXT NOT NULL DEFAULT '[]',
    metadata    TEXT NOT NULL DEFAULT '{}',
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS events_start_date_idx ON events (start_date);
CREATE INDEX IF NOT EXISTS events_category_idx ON events (category);
`

// Schema returns the DDL matching a driver name.
func Schema(driver string) (string, bool) {
	switch driver {
	case DriverPostgres:
		return PostgresSchema, true
	case DriverSQLite:
		return SQLiteSchema, true
	default:
		return "", false
	}
}
