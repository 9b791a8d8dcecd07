package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/mlukyanov/shortly/internal/models"
)

type PostgresRepository struct {
	pool   *pgxpool.Pool
	sb     squirrel.StatementBuilderType
	logger *zap.Logger
}

func NewPostgresRepository(dsn string, logger *zap.Logger) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("PostgreSQL repository initialized")

	return &PostgresRepository{
		pool:   pool,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger,
	}, nil
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver,
	)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// aliasValue maps an unset alias to NULL so the unique index on custom_alias
// only applies to records that actually claimed one.
func aliasValue(alias string) any {
	if alias == "" {
		return nil
	}
	return alias
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (p *PostgresRepository) CreateURL(ctx context.Context, u *models.URL) error {
	query, args, err := p.sb.
		Insert("urls").
		Columns("id", "owner_id", "original_url", "short_code", "custom_alias",
			"is_active", "created_at", "updated_at").
		Values(u.ID, u.OwnerID, u.OriginalURL, u.ShortCode, aliasValue(u.CustomAlias),
			u.IsActive, u.CreatedAt, u.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("execute query: %w", err)
	}

	return nil
}

var urlColumns = []string{"id", "owner_id", "original_url", "short_code",
	"custom_alias", "is_active", "created_at", "updated_at"}

func scanURL(row pgx.Row) (*models.URL, error) {
	var u models.URL
	var alias sql.NullString
	err := row.Scan(&u.ID, &u.OwnerID, &u.OriginalURL, &u.ShortCode,
		&alias, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.CustomAlias = alias.String
	return &u, nil
}

func (p *PostgresRepository) GetURLByCode(ctx context.Context, shortCode string) (*models.URL, error) {
	query, args, err := p.sb.
		Select(urlColumns...).
		From("urls").
		Where(squirrel.Eq{"short_code": shortCode}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	u, err := scanURL(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	return u, nil
}

func (p *PostgresRepository) GetURLByID(ctx context.Context, id string) (*models.URL, error) {
	query, args, err := p.sb.
		Select(urlColumns...).
		From("urls").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	u, err := scanURL(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	return u, nil
}

func (p *PostgresRepository) UpdateURL(ctx context.Context, u *models.URL) error {
	query, args, err := p.sb.
		Update("urls").
		Set("custom_alias", aliasValue(u.CustomAlias)).
		Set("is_active", u.IsActive).
		Set("updated_at", u.UpdatedAt).
		Where(squirrel.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	cmdTag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("execute query: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *PostgresRepository) DeleteURL(ctx context.Context, id string) error {
	query, args, err := p.sb.
		Delete("urls").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	// Click rows go with the record via the ON DELETE CASCADE constraint.
	cmdTag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *PostgresRepository) CodeInUse(ctx context.Context, code, excludeID string) (bool, error) {
	qb := p.sb.
		Select("1").
		From("urls").
		Where(squirrel.Or{
			squirrel.Eq{"short_code": code},
			squirrel.Eq{"custom_alias": code},
		}).
		Limit(1)
	if excludeID != "" {
		qb = qb.Where(squirrel.NotEq{"id": excludeID})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = p.pool.QueryRow(ctx, query, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query row: %w", err)
	}

	return true, nil
}

func (p *PostgresRepository) ListURLs(ctx context.Context, q models.ListQuery) ([]models.URLSummary, int64, error) {
	where := make([]squirrel.Sqlizer, 0, 2)
	where = append(where, squirrel.Eq{"u.owner_id": q.OwnerID})
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"u.original_url": pattern},
			squirrel.ILike{"u.short_code": pattern},
			squirrel.ILike{"u.custom_alias": pattern},
		})
	}

	sel := p.sb.
		Select("u.id", "u.owner_id", "u.original_url", "u.short_code", "u.custom_alias",
			"u.is_active", "u.created_at", "u.updated_at",
			"COALESCE(c.cnt, 0) AS click_count").
		From("urls u").
		LeftJoin("(SELECT url_id, count(*) AS cnt FROM clicks GROUP BY url_id) c ON c.url_id = u.id").
		Where(squirrel.And(where)).
		OrderBy(orderClause(q.Sort)).
		Limit(uint64(q.Limit)).
		Offset(uint64((q.Page - 1) * q.Limit))

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query urls: %w", err)
	}
	defer rows.Close()

	items := make([]models.URLSummary, 0, q.Limit)
	for rows.Next() {
		var item models.URLSummary
		var alias sql.NullString
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.OriginalURL, &item.ShortCode,
			&alias, &item.IsActive, &item.CreatedAt, &item.UpdatedAt, &item.ClickCount); err != nil {
			return nil, 0, fmt.Errorf("scan row: %w", err)
		}
		item.CustomAlias = alias.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	countQuery, countArgs, err := p.sb.
		Select("count(*)").
		From("urls u").
		Where(squirrel.And(where)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := p.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count urls: %w", err)
	}

	return items, total, nil
}

func orderClause(sort models.SortKey) string {
	switch sort {
	case models.SortCreatedAsc:
		return "u.created_at ASC"
	case models.SortClicksDesc:
		return "click_count DESC"
	case models.SortClicksAsc:
		return "click_count ASC"
	default:
		return "u.created_at DESC"
	}
}

func (p *PostgresRepository) RecordClick(ctx context.Context, urlID, ipHash string) error {
	query, args, err := p.sb.
		Insert("clicks").
		Columns("url_id", "ip_hash").
		Values(urlID, ipHash).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	return nil
}

func clickRange(urlID string, r models.AnalyticsRange) squirrel.Sqlizer {
	conds := squirrel.And{squirrel.Eq{"url_id": urlID}}
	if r.Start != nil {
		conds = append(conds, squirrel.GtOrEq{"clicked_at": *r.Start})
	}
	if r.End != nil {
		conds = append(conds, squirrel.LtOrEq{"clicked_at": *r.End})
	}
	return conds
}

func (p *PostgresRepository) ClickStats(ctx context.Context, urlID string, r models.AnalyticsRange) (int64, []models.DayCount, error) {
	where := clickRange(urlID, r)

	countQuery, countArgs, err := p.sb.
		Select("count(*)").
		From("clicks").
		Where(where).
		ToSql()
	if err != nil {
		return 0, nil, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := p.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count clicks: %w", err)
	}

	seriesQuery, seriesArgs, err := p.sb.
		Select("date_trunc('day', clicked_at) AS day", "count(*) AS cnt").
		From("clicks").
		Where(where).
		GroupBy("1").
		OrderBy("day ASC").
		ToSql()
	if err != nil {
		return 0, nil, fmt.Errorf("build series query: %w", err)
	}

	rows, err := p.pool.Query(ctx, seriesQuery, seriesArgs...)
	if err != nil {
		return 0, nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var series []models.DayCount
	for rows.Next() {
		var dc models.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return 0, nil, fmt.Errorf("scan row: %w", err)
		}
		series = append(series, dc)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("rows error: %w", err)
	}

	return total, series, nil
}

func (p *PostgresRepository) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresRepository) Close() error {
	p.pool.Close()
	return nil
}
