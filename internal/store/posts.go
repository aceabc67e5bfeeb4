// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const postColumns = `p.id, p.title, p.slug, p.excerpt, p.body, p.status, p.featured, p.author_id, p.category_id, p.created_at, p.updated_at, p.published_at, p.scheduled_at`

func scanPostRow(row *sql.Row) (Post, error) {
	var p Post
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Excerpt,
		&p.Body,
		&p.Status,
		&p.Featured,
		&p.AuthorID,
		&p.CategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.PublishedAt,
		&p.ScheduledAt,
	)
	return p, err
}

const getPostByID = `
SELECT ` + postColumns + `
FROM posts p
WHERE p.id = ?1
`

// GetPostByID returns the post with the given id.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, getPostByID, id))
}

const getPublishedPostBySlug = `
SELECT ` + postColumns + `
FROM posts p
WHERE p.slug = ?1 AND p.status = 'published'
`

// GetPublishedPostBySlug returns a published post by slug. Draft and
// archived posts are not visible through this query.
func (q *Queries) GetPublishedPostBySlug(ctx context.Context, slug string) (Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, getPublishedPostBySlug, slug))
}

// PublicPostRow is a published post joined with its category and author
// for frontend display.
type PublicPostRow struct {
	Post
	CategoryName  sql.NullString
	CategoryColor sql.NullString
	CategorySlug  sql.NullString
	AuthorName    string
}

const publicPostColumns = postColumns + `, c.name, c.color, c.slug, u.name`

const publicPostJoins = `
FROM posts p
LEFT JOIN categories c ON c.id = p.category_id
JOIN users u ON u.id = p.author_id
`

func (q *Queries) queryPublicPosts(ctx context.Context, query string, args ...any) ([]PublicPostRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []PublicPostRow
	for rows.Next() {
		var p PublicPostRow
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Slug,
			&p.Excerpt,
			&p.Body,
			&p.Status,
			&p.Featured,
			&p.AuthorID,
			&p.CategoryID,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.PublishedAt,
			&p.ScheduledAt,
			&p.CategoryName,
			&p.CategoryColor,
			&p.CategorySlug,
			&p.AuthorName,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

const listFeaturedPosts = `
SELECT ` + publicPostColumns + publicPostJoins + `
WHERE p.status = 'published' AND p.featured = 1
ORDER BY p.published_at DESC
`

// ListFeaturedPosts returns all featured published posts, newest first.
func (q *Queries) ListFeaturedPosts(ctx context.Context) ([]PublicPostRow, error) {
	return q.queryPublicPosts(ctx, listFeaturedPosts)
}

const listRecentPosts = `
SELECT ` + publicPostColumns + publicPostJoins + `
WHERE p.status = 'published' AND p.featured = 0
ORDER BY p.published_at DESC
LIMIT ?1
`

// ListRecentPosts returns the newest non-featured published posts.
func (q *Queries) ListRecentPosts(ctx context.Context, limit int64) ([]PublicPostRow, error) {
	return q.queryPublicPosts(ctx, listRecentPosts, limit)
}

const listPublishedPosts = `
SELECT ` + publicPostColumns + publicPostJoins + `
WHERE p.status = 'published'
ORDER BY p.published_at DESC
LIMIT ?1
`

// ListPublishedPosts returns the newest published posts regardless of the
// featured flag, for the RSS feed.
func (q *Queries) ListPublishedPosts(ctx context.Context, limit int64) ([]PublicPostRow, error) {
	return q.queryPublicPosts(ctx, listPublishedPosts, limit)
}

// AdminPostRow is a posts row joined with author and category names for
// the admin listing.
type AdminPostRow struct {
	Post
	AuthorName   string
	CategoryName sql.NullString
}

const listAdminPosts = `
SELECT ` + postColumns + `, u.name, c.name
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN categories c ON c.id = p.category_id
WHERE (?1 = 0 OR p.author_id = ?1)
  AND (?2 = '' OR p.title LIKE '%' || ?2 || '%' OR p.excerpt LIKE '%' || ?2 || '%')
  AND (?3 = '' OR p.status = ?3)
ORDER BY p.updated_at DESC
LIMIT ?4 OFFSET ?5
`

// ListAdminPostsParams filters the admin post listing. AuthorID scopes the
// listing to one author when non-zero, Search matches title or excerpt,
// Status filters on the exact status.
type ListAdminPostsParams struct {
	AuthorID int64
	Search   string
	Status   string
	Limit    int64
	Offset   int64
}

// ListAdminPosts returns posts for the admin listing ordered by most
// recently updated. All filtering happens in the query.
func (q *Queries) ListAdminPosts(ctx context.Context, arg ListAdminPostsParams) ([]AdminPostRow, error) {
	rows, err := q.db.QueryContext(ctx, listAdminPosts,
		arg.AuthorID, arg.Search, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []AdminPostRow
	for rows.Next() {
		var p AdminPostRow
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Slug,
			&p.Excerpt,
			&p.Body,
			&p.Status,
			&p.Featured,
			&p.AuthorID,
			&p.CategoryID,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.PublishedAt,
			&p.ScheduledAt,
			&p.AuthorName,
			&p.CategoryName,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

const countAdminPosts = `
SELECT COUNT(*)
FROM posts p
WHERE (?1 = 0 OR p.author_id = ?1)
  AND (?2 = '' OR p.title LIKE '%' || ?2 || '%' OR p.excerpt LIKE '%' || ?2 || '%')
  AND (?3 = '' OR p.status = ?3)
`

// CountAdminPostsParams mirrors ListAdminPostsParams without paging.
type CountAdminPostsParams struct {
	AuthorID int64
	Search   string
	Status   string
}

// CountAdminPosts counts posts matching the admin listing filter.
func (q *Queries) CountAdminPosts(ctx context.Context, arg CountAdminPostsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAdminPosts, arg.AuthorID, arg.Search, arg.Status).Scan(&count)
	return count, err
}

const createPost = `
INSERT INTO posts (title, slug, excerpt, body, status, featured, author_id, category_id, created_at, updated_at, scheduled_at)
VALUES (?1, ?2, ?3, ?4, 'draft', 0, ?5, ?6, ?7, ?7, ?8)
RETURNING ` + postColumnsPlain + `
`

const postColumnsPlain = `id, title, slug, excerpt, body, status, featured, author_id, category_id, created_at, updated_at, published_at, scheduled_at`

// CreatePostParams holds the column values for a new post. Every new post
// starts as a non-featured draft owned by its author.
type CreatePostParams struct {
	Title       string
	Slug        string
	Excerpt     string
	Body        string
	AuthorID    int64
	CategoryID  sql.NullInt64
	CreatedAt   time.Time
	ScheduledAt sql.NullTime
}

// CreatePost inserts a draft post and returns the stored row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, createPost,
		arg.Title, arg.Slug, arg.Excerpt, arg.Body, arg.AuthorID, arg.CategoryID, arg.CreatedAt, arg.ScheduledAt))
}

const updatePost = `
UPDATE posts
SET title = ?1, slug = ?2, excerpt = ?3, body = ?4, category_id = ?5, scheduled_at = ?6, updated_at = ?7
WHERE id = ?8
RETURNING ` + postColumnsPlain + `
`

// UpdatePostParams holds the editable post fields. Status, featured flag
// and author are deliberately not part of an edit.
type UpdatePostParams struct {
	Title       string
	Slug        string
	Excerpt     string
	Body        string
	CategoryID  sql.NullInt64
	ScheduledAt sql.NullTime
	UpdatedAt   time.Time
	ID          int64
}

// UpdatePost updates a post's content, preserving status, featured flag
// and author.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, updatePost,
		arg.Title, arg.Slug, arg.Excerpt, arg.Body, arg.CategoryID, arg.ScheduledAt, arg.UpdatedAt, arg.ID))
}

const publishPost = `
UPDATE posts
SET status = 'published', published_at = COALESCE(published_at, ?1), scheduled_at = NULL, updated_at = ?1
WHERE id = ?2
RETURNING ` + postColumnsPlain + `
`

// PublishPost marks a post published. The publish timestamp is set on the
// first publish only.
func (q *Queries) PublishPost(ctx context.Context, id int64, now time.Time) (Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, publishPost, now, id))
}

const archivePost = `
UPDATE posts
SET status = 'archived', scheduled_at = NULL, updated_at = ?1
WHERE id = ?2
RETURNING ` + postColumnsPlain + `
`

// ArchivePost marks a post archived.
func (q *Queries) ArchivePost(ctx context.Context, id int64, now time.Time) (Post, error) {
	return scanPostRow(q.db.QueryRowContext(ctx, archivePost, now, id))
}

const setPostFeatured = `
UPDATE posts
SET featured = ?1, updated_at = ?2
WHERE id = ?3
`

// SetPostFeaturedParams toggles the featured flag.
type SetPostFeaturedParams struct {
	Featured  bool
	UpdatedAt time.Time
	ID        int64
}

// SetPostFeatured sets the featured flag on a post.
func (q *Queries) SetPostFeatured(ctx context.Context, arg SetPostFeaturedParams) error {
	_, err := q.db.ExecContext(ctx, setPostFeatured, arg.Featured, arg.UpdatedAt, arg.ID)
	return err
}

const deletePost = `DELETE FROM posts WHERE id = ?1`

// DeletePost removes a post.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

const postSlugExists = `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = ?1)`

// PostSlugExists reports whether any post uses the given slug.
func (q *Queries) PostSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, postSlugExists, slug).Scan(&exists)
	return exists, err
}

const postSlugExistsExcluding = `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = ?1 AND id != ?2)`

// PostSlugExistsExcludingParams checks slug uniqueness around an edit.
type PostSlugExistsExcludingParams struct {
	Slug string
	ID   int64
}

// PostSlugExistsExcluding reports whether another post uses the given slug.
func (q *Queries) PostSlugExistsExcluding(ctx context.Context, arg PostSlugExistsExcludingParams) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, postSlugExistsExcluding, arg.Slug, arg.ID).Scan(&exists)
	return exists, err
}

const countPosts = `
SELECT COUNT(*) FROM posts WHERE (?1 = 0 OR author_id = ?1)
`

// CountPosts counts posts, scoped to one author when authorID is non-zero.
func (q *Queries) CountPosts(ctx context.Context, authorID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPosts, authorID).Scan(&count)
	return count, err
}

const countPostsByStatus = `
SELECT COUNT(*) FROM posts WHERE status = ?1 AND (?2 = 0 OR author_id = ?2)
`

// CountPostsByStatusParams counts posts in one status, optionally scoped
// to an author.
type CountPostsByStatusParams struct {
	Status   string
	AuthorID int64
}

// CountPostsByStatus counts posts with the given status.
func (q *Queries) CountPostsByStatus(ctx context.Context, arg CountPostsByStatusParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostsByStatus, arg.Status, arg.AuthorID).Scan(&count)
	return count, err
}

const listRecentlyUpdatedPosts = `
SELECT ` + postColumns + `, u.name, c.name
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN categories c ON c.id = p.category_id
WHERE (?1 = 0 OR p.author_id = ?1)
ORDER BY p.updated_at DESC
LIMIT ?2
`

// ListRecentlyUpdatedPosts returns the most recently updated posts for the
// dashboard, scoped to one author when authorID is non-zero.
func (q *Queries) ListRecentlyUpdatedPosts(ctx context.Context, authorID, limit int64) ([]AdminPostRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecentlyUpdatedPosts, authorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []AdminPostRow
	for rows.Next() {
		var p AdminPostRow
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Slug,
			&p.Excerpt,
			&p.Body,
			&p.Status,
			&p.Featured,
			&p.AuthorID,
			&p.CategoryID,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.PublishedAt,
			&p.ScheduledAt,
			&p.AuthorName,
			&p.CategoryName,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

const getScheduledPostsForPublishing = `
SELECT ` + postColumns + `
FROM posts p
WHERE p.status = 'draft' AND p.scheduled_at IS NOT NULL AND p.scheduled_at <= ?1
ORDER BY p.scheduled_at
`

// GetScheduledPostsForPublishing returns drafts whose scheduled publish
// time has passed.
func (q *Queries) GetScheduledPostsForPublishing(ctx context.Context, now time.Time) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, getScheduledPostsForPublishing, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Slug,
			&p.Excerpt,
			&p.Body,
			&p.Status,
			&p.Featured,
			&p.AuthorID,
			&p.CategoryID,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.PublishedAt,
			&p.ScheduledAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
