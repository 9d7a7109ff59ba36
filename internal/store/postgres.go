package store

import (
	"context"
	"time"

	"github.com/claimsift/claimsift/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
)

// schema mirrors the research database this tool cooperates with:
// subjects keyed by slug, sources and claims hanging off them.
const schema = `
CREATE TABLE IF NOT EXISTS subjects (
	slug       TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sources (
	id           TEXT PRIMARY KEY,
	subject_slug TEXT NOT NULL REFERENCES subjects(slug),
	url          TEXT NOT NULL,
	domain       TEXT,
	title        TEXT,
	content      TEXT NOT NULL,
	reliability  INTEGER NOT NULL DEFAULT 1,
	published_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS claims (
	id                  TEXT PRIMARY KEY,
	subject_slug        TEXT NOT NULL REFERENCES subjects(slug),
	claim               TEXT NOT NULL,
	claim_date          TEXT,
	subject             TEXT,
	predicate           TEXT,
	object              TEXT,
	confidence          DOUBLE PRECISION NOT NULL DEFAULT 0,
	source_url          TEXT,
	evidence_snippet    TEXT,
	corroboration_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sources_subject ON sources(subject_slug);
CREATE INDEX IF NOT EXISTS idx_claims_subject ON claims(subject_slug);
`

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database, verifies the connection and
// ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "parsing database dsn")
	}
	config.MaxConns = 4
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, goerr.Wrap(err, "creating connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "pinging database")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "ensuring schema")
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) ensureSubject(ctx context.Context, tx pgx.Tx, subject string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO subjects (slug) VALUES ($1) ON CONFLICT (slug) DO NOTHING`, subject)
	if err != nil {
		return goerr.Wrap(err, "upserting subject", goerr.V("subject", subject))
	}
	return nil
}

func (p *Postgres) SaveSources(ctx context.Context, subject string, sources []model.Source) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback(ctx)

	if err := p.ensureSubject(ctx, tx, subject); err != nil {
		return err
	}

	for _, s := range sources {
		_, err := tx.Exec(ctx, `
			INSERT INTO sources (id, subject_slug, url, domain, title, content, reliability, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				reliability = EXCLUDED.reliability`,
			s.ID, subject, s.URL, s.Domain, s.Title, s.Content, s.Reliability, s.PublishedAt)
		if err != nil {
			return goerr.Wrap(err, "inserting source", goerr.V("url", s.URL))
		}
	}

	return tx.Commit(ctx)
}

func (p *Postgres) SaveClaims(ctx context.Context, subject string, claims []model.Claim) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback(ctx)

	if err := p.ensureSubject(ctx, tx, subject); err != nil {
		return err
	}

	for _, c := range claims {
		_, err := tx.Exec(ctx, `
			INSERT INTO claims (id, subject_slug, claim, claim_date, subject, predicate, object,
				confidence, source_url, evidence_snippet, corroboration_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO NOTHING`,
			c.ID, subject, c.Text, c.EventDate, c.Subject, c.Predicate, c.Object,
			c.Confidence, c.SourceURL, c.EvidenceSnippet, c.CorroborationCount)
		if err != nil {
			return goerr.Wrap(err, "inserting claim", goerr.V("claim_id", c.ID))
		}
	}

	return tx.Commit(ctx)
}

func (p *Postgres) Sources(ctx context.Context, subject string) ([]model.Source, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, url, COALESCE(domain, ''), COALESCE(title, ''), content, reliability, published_at
		FROM sources WHERE subject_slug = $1 ORDER BY reliability DESC`, subject)
	if err != nil {
		return nil, goerr.Wrap(err, "querying sources", goerr.V("subject", subject))
	}
	defer rows.Close()

	var sources []model.Source
	for rows.Next() {
		var s model.Source
		if err := rows.Scan(&s.ID, &s.URL, &s.Domain, &s.Title, &s.Content, &s.Reliability, &s.PublishedAt); err != nil {
			return nil, goerr.Wrap(err, "scanning source row")
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "reading source rows")
	}
	if len(sources) == 0 {
		return nil, goerr.Wrap(ErrSubjectNotFound, "no sources", goerr.V("subject", subject))
	}
	return sources, nil
}

func (p *Postgres) Claims(ctx context.Context, subject string) ([]model.Claim, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, claim, COALESCE(claim_date, ''), COALESCE(subject, ''), COALESCE(predicate, ''),
			COALESCE(object, ''), confidence, COALESCE(source_url, ''), COALESCE(evidence_snippet, ''),
			corroboration_count
		FROM claims WHERE subject_slug = $1`, subject)
	if err != nil {
		return nil, goerr.Wrap(err, "querying claims", goerr.V("subject", subject))
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		if err := rows.Scan(&c.ID, &c.Text, &c.EventDate, &c.Subject, &c.Predicate, &c.Object,
			&c.Confidence, &c.SourceURL, &c.EvidenceSnippet, &c.CorroborationCount); err != nil {
			return nil, goerr.Wrap(err, "scanning claim row")
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "reading claim rows")
	}
	return claims, nil
}

func (p *Postgres) UpdateVerification(ctx context.Context, results []model.VerificationResult) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback(ctx)

	for _, r := range results {
		_, err := tx.Exec(ctx, `
			UPDATE claims SET confidence = $1, corroboration_count = $2 WHERE id = $3`,
			r.VerificationScore, r.SupportingCount(), r.ClaimID)
		if err != nil {
			return goerr.Wrap(err, "updating claim verification", goerr.V("claim_id", r.ClaimID))
		}
	}

	return tx.Commit(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
