package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ZRnown/ChineseLearning/internal/catalog"
)

// Store implements catalog.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ catalog.Store = (*Store)(nil)

// Open connects to PostgreSQL through the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const classicColumns = `id, title, author, dynasty, content, explanation, created_at, updated_at`

func (s *Store) ListClassics(ctx context.Context, q catalog.ClassicQuery) ([]catalog.Classic, error) {
	query := `select ` + classicColumns + ` from classics`
	args := []any{}
	if term := strings.TrimSpace(q.Search); term != "" {
		query += ` where title ilike $1 or author ilike $1`
		args = append(args, "%"+term+"%")
	}
	query += ` order by id`
	if q.Limit > 0 {
		query += fmt.Sprintf(` limit $%d`, len(args)+1)
		args = append(args, q.Limit)
	}
	if q.Offset > 0 {
		query += fmt.Sprintf(` offset $%d`, len(args)+1)
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []catalog.Classic
	for rows.Next() {
		var c catalog.Classic
		if err := rows.Scan(&c.ID, &c.Title, &c.Author, &c.Dynasty, &c.Content, &c.Explanation, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *Store) GetClassic(ctx context.Context, id int64) (catalog.Classic, error) {
	row := s.db.QueryRowContext(ctx, `select `+classicColumns+` from classics where id=$1`, id)
	var c catalog.Classic
	if err := row.Scan(&c.ID, &c.Title, &c.Author, &c.Dynasty, &c.Content, &c.Explanation, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Classic{}, catalog.ErrNotFound
		}
		return catalog.Classic{}, err
	}
	return c, nil
}

func (s *Store) CreateClassic(ctx context.Context, c *catalog.Classic) error {
	if strings.TrimSpace(c.Title) == "" {
		return catalog.ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx,
		`insert into classics(title, author, dynasty, content, explanation)
		 values($1,$2,$3,$4,$5)
		 returning id, created_at, updated_at`,
		c.Title, c.Author, c.Dynasty, c.Content, c.Explanation,
	)
	return row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

const noteColumns = `id, classic_id, user_id, content, created_at, updated_at`

func (s *Store) ListNotes(ctx context.Context, q catalog.NoteQuery) ([]catalog.Note, error) {
	query := `select ` + noteColumns + ` from notes`
	args := []any{}
	if q.ClassicID != 0 {
		query += ` where classic_id=$1`
		args = append(args, q.ClassicID)
	}
	query += ` order by id`
	if q.Limit > 0 {
		query += fmt.Sprintf(` limit $%d`, len(args)+1)
		args = append(args, q.Limit)
	}
	if q.Offset > 0 {
		query += fmt.Sprintf(` offset $%d`, len(args)+1)
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []catalog.Note
	for rows.Next() {
		var n catalog.Note
		if err := rows.Scan(&n.ID, &n.ClassicID, &n.UserID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (s *Store) GetNote(ctx context.Context, id int64) (catalog.Note, error) {
	row := s.db.QueryRowContext(ctx, `select `+noteColumns+` from notes where id=$1`, id)
	var n catalog.Note
	if err := row.Scan(&n.ID, &n.ClassicID, &n.UserID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Note{}, catalog.ErrNotFound
		}
		return catalog.Note{}, err
	}
	return n, nil
}

func (s *Store) CreateNote(ctx context.Context, n *catalog.Note) error {
	if strings.TrimSpace(n.Content) == "" {
		return catalog.ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx,
		`insert into notes(classic_id, user_id, content)
		 values($1,$2,$3)
		 returning id, created_at, updated_at`,
		n.ClassicID, n.UserID, n.Content,
	)
	return mapMissingReference(row.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt))
}

func (s *Store) UpdateNote(ctx context.Context, id int64, content string) (catalog.Note, error) {
	if strings.TrimSpace(content) == "" {
		return catalog.Note{}, catalog.ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx,
		`update notes set content=$2, updated_at=now() where id=$1
		 returning `+noteColumns, id, content)
	var n catalog.Note
	if err := row.Scan(&n.ID, &n.ClassicID, &n.UserID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Note{}, catalog.ErrNotFound
		}
		return catalog.Note{}, err
	}
	return n, nil
}

func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, `delete from notes where id=$1`, id)
}

const translationColumns = `id, classic_id, user_id, language, content, created_at, updated_at`

func (s *Store) ListTranslations(ctx context.Context, q catalog.TranslationQuery) ([]catalog.Translation, error) {
	query := `select ` + translationColumns + ` from translations`
	var conds []string
	args := []any{}
	if q.ClassicID != 0 {
		args = append(args, q.ClassicID)
		conds = append(conds, fmt.Sprintf("classic_id=$%d", len(args)))
	}
	if q.Language != "" {
		args = append(args, q.Language)
		conds = append(conds, fmt.Sprintf("lower(language)=lower($%d)", len(args)))
	}
	if len(conds) > 0 {
		query += ` where ` + strings.Join(conds, " and ")
	}
	query += ` order by id`
	if q.Limit > 0 {
		query += fmt.Sprintf(` limit $%d`, len(args)+1)
		args = append(args, q.Limit)
	}
	if q.Offset > 0 {
		query += fmt.Sprintf(` offset $%d`, len(args)+1)
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []catalog.Translation
	for rows.Next() {
		var tr catalog.Translation
		if err := rows.Scan(&tr.ID, &tr.ClassicID, &tr.UserID, &tr.Language, &tr.Content, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, tr)
	}
	return res, rows.Err()
}

func (s *Store) GetTranslation(ctx context.Context, id int64) (catalog.Translation, error) {
	row := s.db.QueryRowContext(ctx, `select `+translationColumns+` from translations where id=$1`, id)
	var tr catalog.Translation
	if err := row.Scan(&tr.ID, &tr.ClassicID, &tr.UserID, &tr.Language, &tr.Content, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Translation{}, catalog.ErrNotFound
		}
		return catalog.Translation{}, err
	}
	return tr, nil
}

func (s *Store) CreateTranslation(ctx context.Context, tr *catalog.Translation) error {
	if strings.TrimSpace(tr.Content) == "" || strings.TrimSpace(tr.Language) == "" {
		return catalog.ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx,
		`insert into translations(classic_id, user_id, language, content)
		 values($1,$2,$3,$4)
		 returning id, created_at, updated_at`,
		tr.ClassicID, tr.UserID, tr.Language, tr.Content,
	)
	return mapMissingReference(row.Scan(&tr.ID, &tr.CreatedAt, &tr.UpdatedAt))
}

func (s *Store) UpdateTranslation(ctx context.Context, id int64, content string) (catalog.Translation, error) {
	if strings.TrimSpace(content) == "" {
		return catalog.Translation{}, catalog.ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx,
		`update translations set content=$2, updated_at=now() where id=$1
		 returning `+translationColumns, id, content)
	var tr catalog.Translation
	if err := row.Scan(&tr.ID, &tr.ClassicID, &tr.UserID, &tr.Language, &tr.Content, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Translation{}, catalog.ErrNotFound
		}
		return catalog.Translation{}, err
	}
	return tr, nil
}

func (s *Store) DeleteTranslation(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, `delete from translations where id=$1`, id)
}

func (s *Store) Like(ctx context.Context, userID, classicID int64) error {
	_, err := s.db.ExecContext(ctx,
		`insert into likes(user_id, classic_id) values($1,$2) on conflict do nothing`,
		userID, classicID)
	return mapMissingReference(err)
}

func (s *Store) Unlike(ctx context.Context, userID, classicID int64) error {
	return s.removeMark(ctx, `delete from likes where user_id=$1 and classic_id=$2`, userID, classicID)
}

func (s *Store) Liked(ctx context.Context, userID, classicID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from likes where user_id=$1 and classic_id=$2)`,
		userID, classicID).Scan(&exists)
	return exists, err
}

func (s *Store) LikeCount(ctx context.Context, classicID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`select count(*) from likes where classic_id=$1`, classicID).Scan(&count)
	return count, err
}

func (s *Store) Favorite(ctx context.Context, userID, classicID int64) error {
	_, err := s.db.ExecContext(ctx,
		`insert into favorites(user_id, classic_id) values($1,$2) on conflict do nothing`,
		userID, classicID)
	return mapMissingReference(err)
}

func (s *Store) Unfavorite(ctx context.Context, userID, classicID int64) error {
	return s.removeMark(ctx, `delete from favorites where user_id=$1 and classic_id=$2`, userID, classicID)
}

func (s *Store) Favorited(ctx context.Context, userID, classicID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from favorites where user_id=$1 and classic_id=$2)`,
		userID, classicID).Scan(&exists)
	return exists, err
}

// removeMark deletes a per-user mark row. Removing a mark that was never set
// is a no-op, but the classic itself must exist.
func (s *Store) removeMark(ctx context.Context, query string, userID, classicID int64) error {
	res, err := s.db.ExecContext(ctx, query, userID, classicID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from classics where id=$1)`, classicID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return catalog.ErrNotFound
	}
	return nil
}

// mapMissingReference turns a foreign key violation (SQLSTATE 23503) into
// catalog.ErrNotFound so both store implementations answer a missing classic
// the same way.
func mapMissingReference(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return catalog.ErrNotFound
	}
	return err
}

func (s *Store) deleteRow(ctx context.Context, query string, id int64) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
