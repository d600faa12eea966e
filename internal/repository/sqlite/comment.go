package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

const commentColumns = `id, post_id, name, email, body, created, updated, active`

// CommentRepo implements the CommentRepository interface using SQLite
type CommentRepo struct {
	db *DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *DB) *CommentRepo {
	return &CommentRepo{db: db}
}

func scanComment(row scanner) (*domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(
		&c.ID,
		&c.PostID,
		&c.Name,
		&c.Email,
		&c.Body,
		scanTime(&c.CreatedAt),
		scanTime(&c.UpdatedAt),
		&c.Active,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateOnPublished inserts the comment in the same statement that checks
// the post is published, so a post unpublished concurrently never gains
// a comment.
func (r *CommentRepo) CreateOnPublished(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (post_id, name, email, body, created, updated, active)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM posts WHERE id = ? AND status = 'PB')
	`

	result, err := r.db.ExecContext(ctx, query,
		comment.PostID,
		comment.Name,
		comment.Email,
		comment.Body,
		dbTime(comment.CreatedAt),
		dbTime(comment.UpdatedAt),
		comment.Active,
		comment.PostID,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrPostNotFound
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get comment id: %w", err)
	}
	comment.ID = id

	return nil
}

// GetByID retrieves a comment by ID
func (r *CommentRepo) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM comments WHERE id = ?`, commentColumns)

	c, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// ListByPost retrieves comments of a post, oldest first
func (r *CommentRepo) ListByPost(ctx context.Context, postID int64, activeOnly bool) ([]*domain.Comment, error) {
	query := fmt.Sprintf(`SELECT %s FROM comments WHERE post_id = ?`, commentColumns)
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY created ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

// SetActive sets the moderation flag of a comment
func (r *CommentRepo) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET active = ?, updated = ? WHERE id = ?`,
		active, dbTime(nowUTC()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return expectOne(result, domain.ErrCommentNotFound)
}

// Delete deletes a comment by ID
func (r *CommentRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return expectOne(result, domain.ErrCommentNotFound)
}
