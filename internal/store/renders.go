package store

import (
	"context"
	"fmt"
)

// Render is one entry of the render log.
type Render struct {
	Token       string `json:"token"`
	Page        string `json:"page"`
	Seq         int64  `json:"seq"`
	Passes      int    `json:"passes"`
	Stable      bool   `json:"stable"`
	Size        int    `json:"size"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Error       string `json:"error,omitempty"`
}

// RecordRender appends r to the render log.
// Recording the same token twice is a no-op.
func (s *Store) RecordRender(ctx context.Context, r Render) error {
	if r.Token == "" {
		return fmt.Errorf("record render: empty token")
	}

	stable := 0
	if r.Stable {
		stable = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renders (token, page, seq, passes, stable, size, fingerprint, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, r.Token, r.Page, r.Seq, r.Passes, stable, r.Size, r.Fingerprint, r.Error)
	if err != nil {
		return fmt.Errorf("record render %s: %w", r.Token, err)
	}
	return nil
}

// ListRenders returns the render log for page, or for every page when page
// is empty. Ordered by seq, then token.
func (s *Store) ListRenders(ctx context.Context, page string) ([]Render, error) {
	query := `
		SELECT token, page, seq, passes, stable, size, fingerprint, error
		FROM renders`
	var args []any
	if page != "" {
		query += ` WHERE page = ?`
		args = append(args, page)
	}
	query += ` ORDER BY seq ASC, token COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	renders := []Render{}
	for rows.Next() {
		var r Render
		var stable int
		if err := rows.Scan(&r.Token, &r.Page, &r.Seq, &r.Passes, &stable, &r.Size, &r.Fingerprint, &r.Error); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		r.Stable = stable == 1
		renders = append(renders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renders: %w", err)
	}
	return renders, nil
}

// LastSeq returns the highest recorded render sequence number, or 0 for an
// empty log. The CLI resumes its build clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM renders`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq, nil
}
