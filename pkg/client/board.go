package client

import (
	"context"
	"sync"
)

// Board is a stateful view over one user's tasks. It remembers the current
// filter and page, caches the last fetched page and stats, and refreshes
// both after every mutation so the view never shows stale counts.
type Board struct {
	client *Client

	mu         sync.RWMutex
	opts       ListOptions
	tasks      []Task
	pagination *Pagination
	stats      *Stats
}

// NewBoard creates a Board over the given client with the given initial
// filter. Call Refresh to perform the first fetch.
func NewBoard(c *Client, opts ListOptions) *Board {
	return &Board{client: c, opts: opts}
}

// Tasks returns the most recently fetched page.
func (b *Board) Tasks() []Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tasks
}

// Pagination returns the paging block for the most recent fetch, nil before
// the first Refresh.
func (b *Board) Pagination() *Pagination {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pagination
}

// Stats returns the most recently fetched stats, nil before the first
// Refresh.
func (b *Board) Stats() *Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stats
}

// SetFilter replaces the filter, resets to the first page and refetches.
func (b *Board) SetFilter(ctx context.Context, opts ListOptions) error {
	b.mu.Lock()
	opts.Page = 1
	b.opts = opts
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// SetPage moves to the given page and refetches.
func (b *Board) SetPage(ctx context.Context, page int) error {
	b.mu.Lock()
	b.opts.Page = page
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// Refresh refetches the current page and the stats.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.RLock()
	opts := b.opts
	b.mu.RUnlock()

	tasks, pagination, err := b.client.ListTasks(ctx, opts)
	if err != nil {
		return err
	}
	stats, err := b.client.TaskStats(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.tasks = tasks
	b.pagination = pagination
	b.stats = stats
	b.mu.Unlock()
	return nil
}

// CreateTask creates a task and refreshes the board.
func (b *Board) CreateTask(ctx context.Context, input CreateTaskInput) (*Task, error) {
	task, err := b.client.CreateTask(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := b.Refresh(ctx); err != nil {
		return task, err
	}
	return task, nil
}

// UpdateTask updates a task and refreshes the board.
func (b *Board) UpdateTask(ctx context.Context, id string, input UpdateTaskInput) (*Task, error) {
	task, err := b.client.UpdateTask(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if err := b.Refresh(ctx); err != nil {
		return task, err
	}
	return task, nil
}

// DeleteTask deletes a task and refreshes the board.
func (b *Board) DeleteTask(ctx context.Context, id string) error {
	if err := b.client.DeleteTask(ctx, id); err != nil {
		return err
	}
	return b.Refresh(ctx)
}
