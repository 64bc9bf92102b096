package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"DealEventScraper/internal/domain"
	"DealEventScraper/internal/ports"
)

// Supported driver names, matching the database section of the config.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	dealsTable  = "deals"
	eventsTable = "events"

	defaultListLimit = 20
	maxListLimit     = 100

	pgUndefinedTable = "42P01"
)

var dealColumns = []string{
	"id", "external_id", "retailer", "title", "description", "product_url", "image_url",
	"sale_price", "sale_currency", "discounted_price", "discounted_currency", "discount_percentage",
	"scraped_at", "created_at", "updated_at",
}

var eventColumns = []string{
	"id", "title", "description", "location", "image_url", "source_url",
	"start_date", "end_date", "category", "tags", "metadata", "created_at", "updated_at",
}

// Repository persists deals and events through database/sql.
type Repository struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
	now     func() time.Time
}

var (
	_ ports.DealStore  = (*Repository)(nil)
	_ ports.EventStore = (*Repository)(nil)
)

// Open connects to the configured database. Postgres goes through pgx's
// database/sql driver, sqlite through the pure-Go modernc driver.
func Open(driver, dsn string) (*Repository, error) {
	var sqlDriver string
	switch driver {
	case DriverPostgres:
		sqlDriver = "pgx"
	case DriverSQLite:
		sqlDriver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer at a time; sqlite locks the whole file anyway
		db.SetMaxOpenConns(1)
	}

	return NewRepository(db, driver), nil
}

// NewRepository wraps an existing handle.
func NewRepository(db *sql.DB, driver string) *Repository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}
	return &Repository{
		db:      db,
		driver:  driver,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ping verifies the connection.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", r.driver, err)
	}
	return nil
}

// ApplySchema runs the DDL for the repository's driver.
func (r *Repository) ApplySchema(ctx context.Context) error {
	ddl, ok := Schema(r.driver)
	if !ok {
		return fmt.Errorf("no schema for driver %q", r.driver)
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// UpsertDeal inserts the deal or refreshes the existing row with the same external id.
// created_at is only written on insert.
func (r *Repository) UpsertDeal(ctx context.Context, row domain.DealRow) error {
	now := r.now()

	query, args, err := r.builder.
		Insert(dealsTable).
		Columns(
			"external_id", "retailer", "title", "description", "product_url", "image_url",
			"sale_price", "sale_currency", "discounted_price", "discounted_currency", "discount_percentage",
			"scraped_at", "created_at", "updated_at",
		).
		Values(
			row.ExternalID, row.Retailer, row.Title, row.Description, row.ProductURL, row.ImageURL,
			row.SalePrice, row.SaleCurrency, row.DiscountedPrice, row.DiscountedCurrency, row.DiscountPercentage,
			row.ScrapedAt.UTC(), now, now,
		).
		Suffix(onConflict("external_id",
			"retailer", "title", "description", "product_url", "image_url",
			"sale_price", "sale_currency", "discounted_price", "discounted_currency", "discount_percentage",
			"scraped_at", "updated_at",
		)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deal upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert deal: %w", mapError(err))
	}
	return nil
}

// UpsertEvent inserts the event or refreshes the existing row with the same source URL.
func (r *Repository) UpsertEvent(ctx context.Context, row domain.EventRow) error {
	now := r.now()

	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	metadataJSON, err := json.Marshal(row.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	var endDate *time.Time
	if row.EndDate != nil {
		end := row.EndDate.UTC()
		endDate = &end
	}

	query, args, err := r.builder.
		Insert(eventsTable).
		Columns(
			"title", "description", "location", "image_url", "source_url",
			"start_date", "end_date", "category", "tags", "metadata", "created_at", "updated_at",
		).
		Values(
			row.Title, row.Description, row.Location, row.ImageURL, row.SourceURL,
			row.StartDate.UTC(), endDate, row.Category, string(tagsJSON), string(metadataJSON), now, now,
		).
		Suffix(onConflict("source_url",
			"title", "description", "location", "image_url",
			"start_date", "end_date", "category", "tags", "metadata", "updated_at",
		)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build event upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert event: %w", mapError(err))
	}
	return nil
}

// ListDeals returns the most recently scraped deals first.
func (r *Repository) ListDeals(ctx context.Context, q ports.DealQuery) ([]domain.DealRow, error) {
	builder := r.builder.
		Select(dealColumns...).
		From(dealsTable).
		OrderBy("scraped_at DESC", "created_at DESC").
		Limit(listLimit(q.Limit))
	if q.Retailer != "" {
		builder = builder.Where(sq.Eq{"retailer": q.Retailer})
	}
	if q.Since != nil {
		builder = builder.Where(sq.GtOrEq{"scraped_at": q.Since.UTC()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build deal listing: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", mapError(err))
	}
	defer rows.Close()

	result := make([]domain.DealRow, 0)
	for rows.Next() {
		row, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// ListEvents returns events starting at or after q.Since, soonest first.
func (r *Repository) ListEvents(ctx context.Context, q ports.EventQuery) ([]domain.EventRow, error) {
	since := q.Since
	if since.IsZero() {
		since = r.now()
	}

	builder := r.builder.
		Select(eventColumns...).
		From(eventsTable).
		Where(sq.GtOrEq{"start_date": since.UTC()}).
		OrderBy("start_date ASC", "updated_at DESC").
		Limit(listLimit(q.Limit))
	if category := strings.TrimSpace(q.Category); category != "" {
		builder = builder.Where(sq.Eq{"category": category})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build event listing: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", mapError(err))
	}
	defer rows.Close()

	result := make([]domain.EventRow, 0)
	for rows.Next() {
		row, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// DeleteDealsBefore removes deals last scraped before cutoff.
func (r *Repository) DeleteDealsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := r.builder.
		Delete(dealsTable).
		Where(sq.Lt{"scraped_at": cutoff.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build deal cleanup: %w", err)
	}
	return r.execCount(ctx, "delete deals", query, args)
}

// DeleteEventsBefore removes events that ended before cutoff. Events without
// an end date are judged by their start date.
func (r *Repository) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoff = cutoff.UTC()
	query, args, err := r.builder.
		Delete(eventsTable).
		Where(sq.Or{
			sq.Lt{"end_date": cutoff},
			sq.And{sq.Eq{"end_date": nil}, sq.Lt{"start_date": cutoff}},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build event cleanup: %w", err)
	}
	return r.execCount(ctx, "delete events", query, args)
}

func (r *Repository) execCount(ctx context.Context, op, query string, args []any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(rows rowScanner) (domain.DealRow, error) {
	var (
		row                                    domain.DealRow
		description, imageURL                  sql.NullString
		saleCurrency, discountedCurrency       sql.NullString
		salePrice, discountedPrice, percentage sql.NullFloat64
	)
	err := rows.Scan(
		&row.ID, &row.ExternalID, &row.Retailer, &row.Title, &description, &row.ProductURL, &imageURL,
		&salePrice, &saleCurrency, &discountedPrice, &discountedCurrency, &percentage,
		&row.ScrapedAt, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return domain.DealRow{}, fmt.Errorf("scan deal: %w", err)
	}

	row.Description = nullString(description)
	row.ImageURL = nullString(imageURL)
	row.SaleCurrency = nullString(saleCurrency)
	row.DiscountedCurrency = nullString(discountedCurrency)
	row.SalePrice = nullFloat(salePrice)
	row.DiscountedPrice = nullFloat(discountedPrice)
	row.DiscountPercentage = nullFloat(percentage)
	row.ScrapedAt = row.ScrapedAt.UTC()
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()
	return row, nil
}

func scanEvent(rows rowScanner) (domain.EventRow, error) {
	var (
		row                                       domain.EventRow
		description, location, imageURL, category sql.NullString
		endDate                                   sql.NullTime
		tags, metadata                            []byte
	)
	err := rows.Scan(
		&row.ID, &row.Title, &description, &location, &imageURL, &row.SourceURL,
		&row.StartDate, &endDate, &category, &tags, &metadata, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return domain.EventRow{}, fmt.Errorf("scan event: %w", err)
	}

	row.Description = nullString(description)
	row.Location = nullString(location)
	row.ImageURL = nullString(imageURL)
	row.Category = nullString(category)
	if endDate.Valid {
		end := endDate.Time.UTC()
		row.EndDate = &end
	}
	row.StartDate = row.StartDate.UTC()
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()

	row.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &row.Tags); err != nil {
			return domain.EventRow{}, fmt.Errorf("decode tags of %q: %w", row.SourceURL, err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &row.Metadata); err != nil {
			return domain.EventRow{}, fmt.Errorf("decode metadata of %q: %w", row.SourceURL, err)
		}
	}
	return row, nil
}

// sqliteDSN pins the stored time layout so range filters compare text in chronological order.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_time_format=sqlite"
	}
	return dsn + "?_time_format=sqlite"
}

func onConflict(key string, columns ...string) string {
	assignments := make([]string, 0, len(columns))
	for _, column := range columns {
		assignments = append(assignments, column+" = EXCLUDED."+column)
	}
	return "ON CONFLICT (" + key + ") DO UPDATE SET " + strings.Join(assignments, ", ")
}

func listLimit(limit int) uint64 {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return uint64(limit)
	}
}

// mapError turns "table does not exist" into ports.ErrSchemaMissing for both dialects.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return fmt.Errorf("%w: %s", ports.ErrSchemaMissing, pgErr.Message)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_ERROR &&
		strings.Contains(liteErr.Error(), "no such table") {
		return fmt.Errorf("%w: %s", ports.ErrSchemaMissing, liteErr.Error())
	}

	return err
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
