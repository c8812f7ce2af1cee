// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/blogflock/internal/models"
)

// ListsContaining returns every list that includes blogID, ordered by name
// then id. This is the fan-out set for a newly stored post of that blog.
func (db *DB) ListsContaining(ctx context.Context, blogID int64) ([]models.List, error) {
	query := `SELECT ` + listColumns + `
		FROM list_blogs lb
		JOIN lists l ON l.id = lb.list_id
		WHERE lb.blog_id = $1
		ORDER BY l.name ASC, l.id ASC`

	rows, err := db.conn.QueryContext(ctx, query, blogID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists for blog %d: %w", blogID, err)
	}
	defer closeWithLog(rows, "rows")

	var lists []models.List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		db.ensureListHashID(list)
		lists = append(lists, *list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lists: %w", err)
	}
	return lists, nil
}

// GetList returns the list with the given id.
func (db *DB) GetList(ctx context.Context, id int64) (*models.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists l WHERE l.id = $1`

	list, err := scanList(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list %d: %w", id, err)
	}
	db.ensureListHashID(list)
	return list, nil
}

// ensureListHashID fills HashID for lists written without one.
func (db *DB) ensureListHashID(list *models.List) {
	if list.HashID != "" || db.ids == nil {
		return
	}
	if hashID, err := db.ids.Encode(list.ID); err == nil {
		list.HashID = hashID
	}
}
