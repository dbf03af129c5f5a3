package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todoboard/internal/board/migrations"
	"github.com/dmitrijs2005/todoboard/internal/codec"
	"github.com/dmitrijs2005/todoboard/internal/dbx"
	"github.com/dmitrijs2005/todoboard/internal/listsync"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const maxPage = 100

// PostgresRepository stores the board in PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded board migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("board migrations: %w", err)
	}
	return nil
}

func nullTime(t codec.GroupPost) sql.NullTime {
	return sql.NullTime{Time: t.UpdatedAt, Valid: !t.UpdatedAt.IsZero()}
}

func rowsAffected(res sql.Result, id string) error {
	err := dbx.RequireRows(res)
	if errors.Is(err, dbx.ErrNoRowsAffected) {
		return postNotFound(id)
	}
	return err
}

func (r *PostgresRepository) CreatePost(ctx context.Context, p *codec.GroupPost) error {
	query := `
		INSERT INTO board_posts (id, group_id, author_id, author_name, title, content, attachment_key, created_at, comment_count, like_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.GroupID, p.AuthorID, p.AuthorName, p.Title, p.Content, p.AttachmentKey, p.CreatedAt, p.CommentCount, p.LikeCount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const postColumns = `id, group_id, author_id, author_name, title, content, attachment_key, created_at, updated_at, comment_count, like_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (codec.GroupPost, error) {
	var (
		p       codec.GroupPost
		updated sql.NullTime
	)
	err := s.Scan(&p.ID, &p.GroupID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Content,
		&p.AttachmentKey, &p.CreatedAt, &updated, &p.CommentCount, &p.LikeCount)
	if updated.Valid {
		p.UpdatedAt = updated.Time
	}
	return p, err
}

func (r *PostgresRepository) GetPost(ctx context.Context, id string) (*codec.GroupPost, error) {
	query := `SELECT ` + postColumns + ` FROM board_posts WHERE id = $1`
	p, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, postNotFound(id)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &p, nil
}

func pageLimit(limit int) int {
	if limit <= 0 || limit > maxPage {
		return maxPage
	}
	return limit
}

func (r *PostgresRepository) ListPosts(ctx context.Context, groupID, cursor string, limit int) (listsync.Page[codec.GroupPost], error) {
	limit = pageLimit(limit)
	query := `
		SELECT ` + postColumns + ` FROM board_posts p
		WHERE p.group_id = $1
		  AND ($2 = ''
		       OR NOT EXISTS (SELECT 1 FROM board_posts c WHERE c.id = $2)
		       OR (p.created_at, p.id) < (SELECT c.created_at, c.id FROM board_posts c WHERE c.id = $2))
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, groupID, cursor, limit)
	if err != nil {
		return listsync.Page[codec.GroupPost]{}, fmt.Errorf("failed to select posts: %w", err)
	}
	defer rows.Close()

	page := listsync.Page[codec.GroupPost]{Items: make([]codec.GroupPost, 0, limit)}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return listsync.Page[codec.GroupPost]{}, err
		}
		page.Items = append(page.Items, p)
	}
	if err := rows.Err(); err != nil {
		return listsync.Page[codec.GroupPost]{}, err
	}
	if len(page.Items) == limit {
		page.Cursor = page.Items[len(page.Items)-1].ID
	}
	return page, nil
}

func (r *PostgresRepository) UpdatePost(ctx context.Context, p *codec.GroupPost) error {
	query := `
		UPDATE board_posts SET title = $2, content = $3, attachment_key = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, p.ID, p.Title, p.Content, p.AttachmentKey, nullTime(*p))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return rowsAffected(res, p.ID)
}

// DeletePost removes the post; its comments go with it through the foreign key.
func (r *PostgresRepository) DeletePost(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM board_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return rowsAffected(res, id)
}

func (r *PostgresRepository) CreateComment(ctx context.Context, c *codec.PostComment) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE board_posts SET comment_count = comment_count + 1 WHERE id = $1`, c.PostID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if err := rowsAffected(res, c.PostID); err != nil {
			return err
		}

		query := `
			INSERT INTO board_comments (id, post_id, author_id, author_name, content, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, query,
			c.ID, c.PostID, c.AuthorID, c.AuthorName, c.Content, c.CreatedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) ListComments(ctx context.Context, postID, cursor string, limit int) (listsync.Page[codec.PostComment], error) {
	limit = pageLimit(limit)
	query := `
		SELECT id, post_id, author_id, author_name, content, created_at, updated_at FROM board_comments m
		WHERE m.post_id = $1
		  AND ($2 = ''
		       OR NOT EXISTS (SELECT 1 FROM board_comments c WHERE c.id = $2)
		       OR (m.created_at, m.id) > (SELECT c.created_at, c.id FROM board_comments c WHERE c.id = $2))
		ORDER BY m.created_at, m.id
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, postID, cursor, limit)
	if err != nil {
		return listsync.Page[codec.PostComment]{}, fmt.Errorf("failed to select comments: %w", err)
	}
	defer rows.Close()

	page := listsync.Page[codec.PostComment]{Items: make([]codec.PostComment, 0, limit)}
	for rows.Next() {
		var (
			c       codec.PostComment
			updated sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Content, &c.CreatedAt, &updated); err != nil {
			return listsync.Page[codec.PostComment]{}, err
		}
		if updated.Valid {
			c.UpdatedAt = updated.Time
		}
		page.Items = append(page.Items, c)
	}
	if err := rows.Err(); err != nil {
		return listsync.Page[codec.PostComment]{}, err
	}
	if len(page.Items) == limit {
		page.Cursor = page.Items[len(page.Items)-1].ID
	}
	return page, nil
}
