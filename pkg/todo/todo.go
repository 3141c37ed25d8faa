// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package todo holds the todo item model. Todos have no owner; any caller
// may read or change any of them.
package todo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("todo not found")
	ErrEmptyText = errors.New("todo text is required")
)

type Todo struct {
	ID        string `json:"_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`

	// CompletedAt is a Unix timestamp in milliseconds, set only while
	// Completed is true.
	CompletedAt *int64 `json:"completedAt"`
}

// New returns an incomplete todo with a fresh id.
func New(text string) (*Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	return &Todo{
		ID:   uuid.NewString(),
		Text: text,
	}, nil
}

// Update is a partial change to a todo.
type Update struct {
	Text      *string
	Completed bool
}

// Apply changes t according to u. Marking a todo completed stamps
// CompletedAt with now; anything else leaves it incomplete with
// CompletedAt cleared.
func (t *Todo) Apply(u Update, now time.Time) error {
	if u.Text != nil {
		text := strings.TrimSpace(*u.Text)
		if text == "" {
			return ErrEmptyText
		}
		t.Text = text
	}
	if u.Completed {
		ts := now.UnixMilli()
		t.Completed = true
		t.CompletedAt = &ts
	} else {
		t.Completed = false
		t.CompletedAt = nil
	}
	return nil
}

// ValidID reports whether id is shaped like an id New would hand out.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Repository stores todos. Methods addressing a todo by id return an error
// wrapping ErrNotFound for unknown or malformed ids.
type Repository interface {
	Create(ctx context.Context, t *Todo) error
	List(ctx context.Context) ([]*Todo, error)
	Get(ctx context.Context, id string) (*Todo, error)

	// Update applies u to the stored todo as one write and returns the
	// result.
	Update(ctx context.Context, id string, u Update) (*Todo, error)

	// Delete removes the todo and returns what was stored.
	Delete(ctx context.Context, id string) (*Todo, error)
}
