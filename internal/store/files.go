package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/folio/internal/vfs"
)

// File describes a stored input without its content.
type File struct {
	Path vfs.VirtualPath
	Size int64
	Seq  int64
}

// PutFile stores data under path, replacing any previous content.
// It returns the write's sequence number, which grows with every write.
func (s *Store) PutFile(ctx context.Context, path vfs.VirtualPath, data []byte) (int64, error) {
	if path == "" {
		return 0, fmt.Errorf("put file: empty path")
	}
	if data == nil {
		data = []byte{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM files`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next file seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO files (path, content, seq) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET content = excluded.content, seq = excluded.seq
	`, string(path), data, seq)
	if err != nil {
		return 0, fmt.Errorf("put file %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit file %s: %w", path, err)
	}
	return seq, nil
}

// ReadFile returns the content stored under path. A missing row is reported
// as a NotFound *vfs.FileError.
func (s *Store) ReadFile(ctx context.Context, path vfs.VirtualPath) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM files WHERE path = ?`, string(path)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vfs.NotFound(path)
	}
	if err != nil {
		return nil, &vfs.FileError{Kind: vfs.KindIo, Path: path, Err: err}
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// DeleteFile removes path. It reports whether a row existed.
func (s *Store) DeleteFile(ctx context.Context, path vfs.VirtualPath) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, string(path))
	if err != nil {
		return false, fmt.Errorf("delete file %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete file %s: %w", path, err)
	}
	return n > 0, nil
}

// ListFiles returns every stored file ordered by path.
func (s *Store) ListFiles(ctx context.Context) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, length(content), seq
		FROM files
		ORDER BY path COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	files := []File{}
	for rows.Next() {
		var f File
		var path string
		if err := rows.Scan(&path, &f.Size, &f.Seq); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		f.Path = vfs.VirtualPath(path)
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// Read implements vfs.Provider. Only the document's own package is stored.
func (s *Store) Read(ctx context.Context, id vfs.ID) ([]byte, error) {
	if id.Package != "" || id.Path == "" {
		return nil, vfs.NotFound(id.Path)
	}
	return s.ReadFile(ctx, id.Path)
}

var _ vfs.Provider = (*Store)(nil)
