// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/tomtom215/blogflock/internal/models"
)

// PostQuery holds the pagination and filter options shared by the read-side queries.
type PostQuery struct {
	Limit  int
	Offset int

	// MaxPostsPerMonth keeps only posts from blogs with at most this many
	// posts in the last month. Nil disables the filter.
	MaxPostsPerMonth *int

	// ViewerID populates PostRow.Bookmarked for that user. Nil leaves it false.
	ViewerID *int64
}

// queryArgs accumulates positional parameters.
type queryArgs []any

func (a *queryArgs) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

func bookmarkedExpr(q PostQuery, args *queryArgs) string {
	if q.ViewerID == nil {
		return "FALSE"
	}
	return `EXISTS (SELECT 1 FROM bookmarked_posts bp WHERE bp.post_id = p.id AND bp.user_id = ` + args.add(*q.ViewerID) + `)`
}

func activityFilter(q PostQuery, args *queryArgs) string {
	if q.MaxPostsPerMonth == nil {
		return ""
	}
	return ` AND b.posts_last_month <= ` + args.add(*q.MaxPostsPerMonth)
}

func pageClause(q PostQuery, args *queryArgs) string {
	// One extra row tells the caller whether another page exists.
	return ` LIMIT ` + args.add(q.Limit+1) + ` OFFSET ` + args.add(q.Offset)
}

// trimPage drops the probe row fetched by pageClause.
func trimPage(rows []models.PostRow, limit int) ([]models.PostRow, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

// PostsForLists returns posts of blogs in any of listIDs, newest first. A
// post reachable through several of the lists appears once, attributed to
// the lowest list id.
func (db *DB) PostsForLists(ctx context.Context, listIDs []int64, q PostQuery) ([]models.PostRow, bool, error) {
	if len(listIDs) == 0 {
		return nil, false, nil
	}
	var args queryArgs
	membership := `lb.list_id = ANY(` + args.add(pq.Array(listIDs)) + `)`
	return db.postsByMembership(ctx, membership, args, q)
}

// PostsForFollowedLists returns posts from every list userID follows.
func (db *DB) PostsForFollowedLists(ctx context.Context, userID int64, q PostQuery) ([]models.PostRow, bool, error) {
	var args queryArgs
	membership := `lb.list_id IN (SELECT lf.list_id FROM list_followers lf WHERE lf.user_id = ` + args.add(userID) + `)`
	return db.postsByMembership(ctx, membership, args, q)
}

// postsByMembership runs the shared list-post query. membership is a
// predicate over list_blogs lb whose parameters are already in args.
func (db *DB) postsByMembership(ctx context.Context, membership string, args queryArgs, q PostQuery) ([]models.PostRow, bool, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + postColumns + `, ` + blogColumns + `, ` + listBlogColumns + `, ` + listColumns + `, `)
	sb.WriteString(bookmarkedExpr(q, &args))
	sb.WriteString(`
		FROM (
			SELECT DISTINCT ON (p.id) p.id AS post_id, lb.id AS list_blog_id
			FROM posts p
			JOIN list_blogs lb ON lb.blog_id = p.blog_id
			JOIN blogs b ON b.id = p.blog_id
			WHERE ` + membership)
	sb.WriteString(activityFilter(q, &args))
	sb.WriteString(`
			ORDER BY p.id, lb.list_id
		) m
		JOIN posts p ON p.id = m.post_id
		JOIN list_blogs lb ON lb.id = m.list_blog_id
		JOIN blogs b ON b.id = p.blog_id
		JOIN lists l ON l.id = lb.list_id
		ORDER BY p.published_at DESC, p.id DESC`)
	sb.WriteString(pageClause(q, &args))

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query list posts: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []models.PostRow
	for rows.Next() {
		row, err := scanListPostRow(rows)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan list post: %w", err)
		}
		db.ensureListHashID(row.List)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate list posts: %w", err)
	}

	page, hasMore := trimPage(out, q.Limit)
	return page, hasMore, nil
}

// PostsForBookmarks returns the posts userID bookmarked, newest first.
func (db *DB) PostsForBookmarks(ctx context.Context, userID int64, q PostQuery) ([]models.PostRow, bool, error) {
	var args queryArgs
	owner := args.add(userID)

	var sb strings.Builder
	sb.WriteString(`SELECT ` + postColumns + `, ` + blogColumns + `, `)
	sb.WriteString(bookmarkedExpr(q, &args))
	sb.WriteString(`
		FROM bookmarked_posts bk
		JOIN posts p ON p.id = bk.post_id
		JOIN blogs b ON b.id = p.blog_id
		WHERE bk.user_id = ` + owner)
	sb.WriteString(activityFilter(q, &args))
	sb.WriteString(` ORDER BY p.published_at DESC, p.id DESC`)
	sb.WriteString(pageClause(q, &args))

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []models.PostRow
	for rows.Next() {
		row, err := scanBookmarkPostRow(rows)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}

	page, hasMore := trimPage(out, q.Limit)
	return page, hasMore, nil
}
