package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

// postColumns defines the standard SELECT columns for posts joined with
// their author
const postColumns = `p.id, p.title, p.slug, p.body, p.image, p.audio, p.video,
	p.published, p.created_at, p.updated_at, p.status,
	u.id, u.username, u.first_name, u.last_name`

const postFrom = `FROM posts p JOIN users u ON u.id = p.author_id`

// scanner interface for scanning rows
type scanner interface {
	Scan(dest ...any) error
}

// scanPost scans a single row into a Post without its tags
func scanPost(row scanner, extra ...any) (*domain.Post, error) {
	var post domain.Post
	var author domain.Author
	var status string

	dest := []any{
		&post.ID,
		&post.Title,
		&post.Slug,
		&post.Body,
		&post.Image,
		&post.Audio,
		&post.Video,
		scanTime(&post.Published),
		scanTime(&post.CreatedAt),
		scanTime(&post.UpdatedAt),
		&status,
		&author.ID,
		&author.Username,
		&author.FirstName,
		&author.LastName,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	post.Status = domain.PostStatus(status)
	post.Author = &author
	post.Tags = []*domain.Tag{}
	return &post, nil
}

// scanPosts scans multiple rows into a Post slice
func scanPosts(rows *sql.Rows) ([]*domain.Post, error) {
	posts := []*domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

// PostRepo implements the PostRepository and TagRepository interfaces
// using SQLite
type PostRepo struct {
	db  *DB
	loc *time.Location
}

// NewPostRepo creates a new post repository. loc is the site timezone used
// to derive the calendar date that scopes slug uniqueness.
func NewPostRepo(db *DB, loc *time.Location) *PostRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &PostRepo{db: db, loc: loc}
}

// Create creates a new post
func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	if post.Author == nil {
		return fmt.Errorf("failed to create post: author is required")
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO posts (title, slug, author_id, body, image, audio, video,
				published, publish_date, created_at, updated_at, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		result, err := tx.ExecContext(ctx, query,
			post.Title,
			post.Slug,
			post.Author.ID,
			post.Body,
			post.Image,
			post.Audio,
			post.Video,
			dbTime(post.Published),
			post.PublishDate(r.loc),
			dbTime(post.CreatedAt),
			dbTime(post.UpdatedAt),
			string(post.Status),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrSlugConflict
			}
			return fmt.Errorf("failed to create post: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get post id: %w", err)
		}
		post.ID = id

		return replaceTags(ctx, tx, post)
	})
}

// Update updates an existing post and replaces its tags
func (r *PostRepo) Update(ctx context.Context, post *domain.Post) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE posts
			SET title = ?, slug = ?, body = ?, image = ?, audio = ?, video = ?,
				published = ?, publish_date = ?, updated_at = ?, status = ?
			WHERE id = ?
		`

		result, err := tx.ExecContext(ctx, query,
			post.Title,
			post.Slug,
			post.Body,
			post.Image,
			post.Audio,
			post.Video,
			dbTime(post.Published),
			post.PublishDate(r.loc),
			dbTime(post.UpdatedAt),
			string(post.Status),
			post.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrSlugConflict
			}
			return fmt.Errorf("failed to update post: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return domain.ErrPostNotFound
		}

		return replaceTags(ctx, tx, post)
	})
}

// replaceTags upserts post.Tags by slug, fills in their IDs and rewrites
// the post's associations
func replaceTags(ctx context.Context, tx *sql.Tx, post *domain.Post) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, post.ID); err != nil {
		return fmt.Errorf("failed to clear post tags: %w", err)
	}

	for _, tag := range post.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name, slug) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			tag.Name, tag.Slug,
		); err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", tag.Name, err)
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT id, name FROM tags WHERE slug = ?`, tag.Slug,
		).Scan(&tag.ID, &tag.Name); err != nil {
			return fmt.Errorf("failed to resolve tag %q: %w", tag.Slug, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`,
			post.ID, tag.ID,
		); err != nil {
			return fmt.Errorf("failed to tag post: %w", err)
		}
	}

	return nil
}

// Delete deletes a post by ID
func (r *PostRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrPostNotFound
	}

	return nil
}

// GetByID retrieves a post by ID regardless of status
func (r *PostRepo) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	return r.getOne(ctx, `WHERE p.id = ?`, id)
}

// GetPublished retrieves a published post by ID
func (r *PostRepo) GetPublished(ctx context.Context, id int64) (*domain.Post, error) {
	return r.getOne(ctx, `WHERE p.id = ? AND p.status = 'PB'`, id)
}

// GetPublishedBySlug retrieves a published post by slug within a day
func (r *PostRepo) GetPublishedBySlug(ctx context.Context, slug string, dayStart, dayEnd time.Time) (*domain.Post, error) {
	return r.getOne(ctx,
		`WHERE p.slug = ? AND p.status = 'PB' AND p.published >= ? AND p.published < ?
		ORDER BY p.published DESC LIMIT 1`,
		slug, dbTime(dayStart), dbTime(dayEnd),
	)
}

func (r *PostRepo) getOne(ctx context.Context, where string, args ...any) (*domain.Post, error) {
	query := fmt.Sprintf(`SELECT %s %s %s`, postColumns, postFrom, where)

	post, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if err := loadTags(ctx, r.db, []*domain.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPublishedByIDs retrieves published posts by a list of IDs (for search results)
func (r *PostRepo) GetPublishedByIDs(ctx context.Context, ids []int64) ([]*domain.Post, error) {
	if len(ids) == 0 {
		return []*domain.Post{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT %s %s WHERE p.status = 'PB' AND p.id IN (%s)`,
		postColumns, postFrom, placeholders(len(ids)))

	return r.queryPosts(ctx, r.db, query, args...)
}

// List retrieves posts with pagination and filtering, newest first
func (r *PostRepo) List(ctx context.Context, filter *domain.PostListFilter) ([]*domain.Post, int, error) {
	var conditions []string
	var args []any

	if !filter.IncludeDrafts {
		conditions = append(conditions, "p.status = 'PB'")
	}

	if filter.AuthorID != "" {
		conditions = append(conditions, "p.author_id = ?")
		args = append(args, filter.AuthorID)
	}

	if filter.TagSlug != "" {
		conditions = append(conditions, `p.id IN (
			SELECT pt.post_id FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE t.slug = ?)`)
		args = append(args, filter.TagSlug)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var posts []*domain.Post
	var total int

	// Count and page inside one transaction so both see the same snapshot
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM posts p %s", whereClause)
		if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count posts: %w", err)
		}

		query := fmt.Sprintf(`SELECT %s %s %s ORDER BY p.published DESC, p.id DESC`,
			postColumns, postFrom, whereClause)
		pageArgs := args
		if filter.Limit > 0 {
			query += ` LIMIT ? OFFSET ?`
			pageArgs = append(append([]any{}, args...), filter.Limit, filter.Offset)
		}

		var err error
		posts, err = r.queryPosts(ctx, tx, query, pageArgs...)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// CountPublished returns the number of published posts
func (r *PostRepo) CountPublished(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE status = 'PB'`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return total, nil
}

// Similar retrieves published posts ranked by the number of tags they share
// with postID, most recent first among equals
func (r *PostRepo) Similar(ctx context.Context, postID int64, limit int) ([]*domain.Post, error) {
	if limit <= 0 {
		return []*domain.Post{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(pt.tag_id) AS same_tags
		%s
		JOIN post_tags pt ON pt.post_id = p.id
		WHERE pt.tag_id IN (SELECT tag_id FROM post_tags WHERE post_id = ?)
			AND p.status = 'PB'
			AND p.id <> ?
		GROUP BY p.id
		ORDER BY same_tags DESC, p.published DESC, p.id DESC
		LIMIT ?
	`, postColumns, postFrom)

	rows, err := r.db.QueryContext(ctx, query, postID, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar posts: %w", err)
	}
	defer rows.Close()

	posts := []*domain.Post{}
	for rows.Next() {
		var sameTags int
		post, err := scanPost(rows, &sameTags)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	if err := loadTags(ctx, r.db, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SearchText matches query as a case-insensitive substring of title or body.
// A limit of 0 returns every match.
func (r *PostRepo) SearchText(ctx context.Context, query string, limit int) ([]*domain.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.Post{}, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	sqlQuery := fmt.Sprintf(`SELECT %s %s
		WHERE p.status = 'PB'
			AND (casefold(p.title) LIKE ? ESCAPE '\' OR casefold(p.body) LIKE ? ESCAPE '\')
		ORDER BY p.published DESC, p.id DESC`, postColumns, postFrom)
	args := []any{pattern, pattern}
	if limit > 0 {
		sqlQuery += ` LIMIT ?`
		args = append(args, limit)
	}

	return r.queryPosts(ctx, r.db, sqlQuery, args...)
}

// SetAttachment stores a media reference in the slot for kind
func (r *PostRepo) SetAttachment(ctx context.Context, id int64, kind domain.AttachmentKind, ref string) error {
	var column string
	switch kind {
	case domain.AttachmentImage:
		column = "image"
	case domain.AttachmentAudio:
		column = "audio"
	case domain.AttachmentVideo:
		column = "video"
	default:
		return fmt.Errorf("unknown attachment kind %q", kind)
	}

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE posts SET %s = ?, updated_at = ? WHERE id = ?`, column),
		ref, dbTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set attachment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// GetBySlug retrieves a tag by slug
func (r *PostRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tag, error) {
	var tag domain.Tag
	err := r.db.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE slug = ?`, slug).
		Scan(&tag.ID, &tag.Name, &tag.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// ListTags retrieves all tags ordered by name
func (r *PostRepo) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}
	return tags, rows.Err()
}

func (r *PostRepo) queryPosts(ctx context.Context, q querier, query string, args ...any) ([]*domain.Post, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	posts, err := scanPosts(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if err := loadTags(ctx, q, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// loadTags fills in the tags of posts with a single query
func loadTags(ctx context.Context, q querier, posts []*domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Post, len(posts))
	args := make([]any, 0, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
		args = append(args, p.ID)
	}

	query := fmt.Sprintf(`
		SELECT pt.post_id, t.id, t.name, t.slug
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id IN (%s)
		ORDER BY t.name`, placeholders(len(args)))

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var tag domain.Tag
		if err := rows.Scan(&postID, &tag.ID, &tag.Name, &tag.Slug); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Tags = append(p.Tags, &tag)
		}
	}
	return rows.Err()
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
