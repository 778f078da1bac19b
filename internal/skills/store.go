package skills

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// Store persists the catalog in SQLite or PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// Open opens the store for the given DSN. postgres:// and postgresql:// URLs
// use PostgreSQL, anything else is a SQLite file path (or ":memory:").
func Open(dsn string) (*Store, error) {
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	} else if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
			return nil, fmt.Errorf("could not create db: %w", err)
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not create db: %w", err)
	}
	if driver == "sqlite" {
		// every connection to :memory: is a different database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping db: %w", err)
	}
	if _, err := db.Exec(`
		create table if not exists skills(
			id text not null primary key,
			name text not null default '',
			short_desc text not null default '',
			long_desc text not null default '',
			author text not null default '',
			author_url text not null default '',
			stars integer not null default 0,
			last_updated text not null default '',
			command text not null default '',
			tags text not null default '[]',
			file_sha text not null default '',
			download_url text not null default '',
			seo_title text not null default '',
			seo_desc text not null default '',
			source_repo text not null default '',
			source_path text not null default ''
		);
	`); err != nil {
		return nil, fmt.Errorf("could not migrate db: %w", err)
	}
	if _, err := db.Exec(`create index if not exists idx_skills_stars on skills(stars desc)`); err != nil {
		return nil, fmt.Errorf("could not migrate db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck
}

type row struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	ShortDesc   string `db:"short_desc"`
	LongDesc    string `db:"long_desc"`
	Author      string `db:"author"`
	AuthorURL   string `db:"author_url"`
	Stars       int    `db:"stars"`
	LastUpdated string `db:"last_updated"`
	Command     string `db:"command"`
	Tags        string `db:"tags"`
	FileSHA     string `db:"file_sha"`
	DownloadURL string `db:"download_url"`
	SEOTitle    string `db:"seo_title"`
	SEODesc     string `db:"seo_desc"`
	SourceRepo  string `db:"source_repo"`
	SourcePath  string `db:"source_path"`
}

func toRow(s Skill) (row, error) {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	bts, err := json.Marshal(tags)
	if err != nil {
		return row{}, fmt.Errorf("could not encode tags: %w", err)
	}
	return row{
		ID:          s.ID,
		Name:        s.Name,
		ShortDesc:   s.ShortDesc,
		LongDesc:    s.LongDesc,
		Author:      s.Author,
		AuthorURL:   s.AuthorURL,
		Stars:       s.Stars,
		LastUpdated: s.LastUpdated.UTC().Format(time.RFC3339),
		Command:     s.Command,
		Tags:        string(bts),
		FileSHA:     s.FileSHA,
		DownloadURL: s.DownloadURL,
		SEOTitle:    s.SEOTitle,
		SEODesc:     s.SEODesc,
		SourceRepo:  s.SourceRepo,
		SourcePath:  s.SourcePath,
	}, nil
}

func (r row) skill() Skill {
	var tags []string
	if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil || tags == nil {
		tags = []string{}
	}
	updated, _ := time.Parse(time.RFC3339, r.LastUpdated)
	return Skill{
		ID:          r.ID,
		Name:        r.Name,
		ShortDesc:   r.ShortDesc,
		LongDesc:    r.LongDesc,
		Author:      r.Author,
		AuthorURL:   r.AuthorURL,
		Stars:       r.Stars,
		LastUpdated: updated,
		Command:     r.Command,
		Tags:        tags,
		FileSHA:     r.FileSHA,
		DownloadURL: r.DownloadURL,
		SEOTitle:    r.SEOTitle,
		SEODesc:     r.SEODesc,
		SourceRepo:  r.SourceRepo,
		SourcePath:  r.SourcePath,
	}
}

// Upsert inserts the skill or replaces the stored one. It reports whether
// the skill was new.
func (s *Store) Upsert(ctx context.Context, sk Skill) (bool, error) {
	if sk.ID == "" {
		return false, errors.New("skill has no id")
	}
	r, err := toRow(sk)
	if err != nil {
		return false, err
	}

	var exists int
	err = s.db.GetContext(ctx, &exists, s.db.Rebind(`select count(*) from skills where id = ?`), sk.ID)
	if err != nil {
		return false, fmt.Errorf("could not save skill %s: %w", sk.ID, err)
	}

	if _, err := s.db.NamedExecContext(ctx, `
		insert into skills (
			id, name, short_desc, long_desc, author, author_url, stars,
			last_updated, command, tags, file_sha, download_url,
			seo_title, seo_desc, source_repo, source_path
		) values (
			:id, :name, :short_desc, :long_desc, :author, :author_url, :stars,
			:last_updated, :command, :tags, :file_sha, :download_url,
			:seo_title, :seo_desc, :source_repo, :source_path
		)
		on conflict(id) do update set
			name = excluded.name,
			short_desc = excluded.short_desc,
			long_desc = excluded.long_desc,
			author = excluded.author,
			author_url = excluded.author_url,
			stars = excluded.stars,
			last_updated = excluded.last_updated,
			command = excluded.command,
			tags = excluded.tags,
			file_sha = excluded.file_sha,
			download_url = excluded.download_url,
			seo_title = excluded.seo_title,
			seo_desc = excluded.seo_desc,
			source_repo = excluded.source_repo,
			source_path = excluded.source_path
	`, r); err != nil {
		return false, fmt.Errorf("could not save skill %s: %w", sk.ID, err)
	}
	return exists == 0, nil
}

// Get returns a single skill.
func (s *Store) Get(ctx context.Context, id string) (Skill, error) {
	var r row
	if err := s.db.GetContext(ctx, &r, s.db.Rebind(`select * from skills where id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Skill{}, ErrNotFound
		}
		return Skill{}, fmt.Errorf("could not get skill %s: %w", id, err)
	}
	return r.skill(), nil
}

// Summaries lists every skill, most starred first.
func (s *Store) Summaries(ctx context.Context) ([]Summary, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `
		select id, name, short_desc, author, stars, tags, source_repo
		from skills
		order by stars desc, id asc
	`); err != nil {
		return nil, fmt.Errorf("could not list skills: %w", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.skill().Summary())
	}
	return out, nil
}

// Index loads the whole catalog into a search index.
func (s *Store) Index(ctx context.Context) (*Index, error) {
	items, err := s.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(items), nil
}

// IDs returns every stored ID.
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `select id from skills order by id`); err != nil {
		return nil, fmt.Errorf("could not list skill ids: %w", err)
	}
	return ids, nil
}

// Count returns the number of stored skills.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `select count(*) from skills`); err != nil {
		return 0, fmt.Errorf("could not count skills: %w", err)
	}
	return n, nil
}
