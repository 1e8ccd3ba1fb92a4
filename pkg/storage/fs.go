package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Operation names understood by the filesystem provider. Higher layers pass
// these through Query/Exec so the backend stays pluggable.
const (
	OpEnsureDir = "generator.ensure_dir"
	OpWrite     = "generator.write"
	OpRead      = "generator.read"
	OpRemove    = "generator.remove"
)

// NewFilesystem returns a Provider that stores build artifacts on disk under
// root. The base argument should match the generator output dir so duplicated
// prefixes in artifact paths are trimmed before resolution.
func NewFilesystem(root, base string) Provider {
	base = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(base)), "/")
	if base == "." {
		base = ""
	}
	return &filesystemProvider{root: root, base: base}
}

type filesystemProvider struct {
	root string
	base string
}

func (s *filesystemProvider) Query(_ context.Context, op string, args ...any) (Rows, error) {
	if op != OpRead || len(args) == 0 {
		return nil, nil
	}
	target := s.normalizePath(args[0])
	data, err := os.ReadFile(s.abs(target))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fileRows{data: data}, nil
}

func (s *filesystemProvider) Exec(_ context.Context, op string, args ...any) (Result, error) {
	switch op {
	case OpEnsureDir:
		if len(args) == 0 {
			return emptyResult{}, fmt.Errorf("ensure_dir requires path")
		}
		path := s.normalizePath(args[0])
		return emptyResult{}, os.MkdirAll(s.abs(path), 0o755)
	case OpWrite:
		if len(args) < 2 {
			return emptyResult{}, fmt.Errorf("write requires path and reader")
		}
		path := s.normalizePath(args[0])
		reader, ok := args[1].(io.Reader)
		if !ok || reader == nil {
			return emptyResult{}, fmt.Errorf("write expects io.Reader content")
		}
		full := s.abs(path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return emptyResult{}, err
		}
		file, err := os.Create(full)
		if err != nil {
			return emptyResult{}, err
		}
		defer file.Close()
		if _, err := io.Copy(file, reader); err != nil {
			return emptyResult{}, err
		}
		return emptyResult{}, nil
	case OpRemove:
		if len(args) == 0 {
			return emptyResult{}, fmt.Errorf("remove requires path")
		}
		path := s.normalizePath(args[0])
		err := os.RemoveAll(s.abs(path))
		if errors.Is(err, os.ErrNotExist) {
			return emptyResult{}, nil
		}
		return emptyResult{}, err
	default:
		return emptyResult{}, nil
	}
}

func (s *filesystemProvider) Transaction(_ context.Context, fn func(tx Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&filesystemTx{provider: s})
}

func (s *filesystemProvider) abs(rel string) string {
	if rel == "" {
		return s.root
	}
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func (s *filesystemProvider) normalizePath(arg any) string {
	path, _ := arg.(string)
	path = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "/")
	if s.base != "" {
		if path == s.base {
			path = ""
		} else if strings.HasPrefix(path, s.base+"/") {
			path = strings.TrimPrefix(path, s.base+"/")
		}
	}
	if path == "." {
		path = ""
	}
	return path
}

type filesystemTx struct {
	provider *filesystemProvider
}

func (tx *filesystemTx) Query(ctx context.Context, op string, args ...any) (Rows, error) {
	return tx.provider.Query(ctx, op, args...)
}

func (tx *filesystemTx) Exec(ctx context.Context, op string, args ...any) (Result, error) {
	return tx.provider.Exec(ctx, op, args...)
}

func (tx *filesystemTx) Transaction(ctx context.Context, fn func(tx Transaction) error) error {
	return tx.provider.Transaction(ctx, fn)
}

func (tx *filesystemTx) Commit() error   { return nil }
func (tx *filesystemTx) Rollback() error { return nil }

type emptyResult struct{}

func (emptyResult) RowsAffected() (int64, error) { return 0, nil }
func (emptyResult) LastInsertId() (int64, error) { return 0, nil }

type fileRows struct {
	data []byte
	read bool
}

func (r *fileRows) Next() bool {
	if r.read {
		return false
	}
	r.read = true
	return true
}

func (r *fileRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return fmt.Errorf("scan requires destination")
	}
	bytesDest, ok := dest[0].(*[]byte)
	if !ok {
		return fmt.Errorf("scan expects *[]byte destination")
	}
	*bytesDest = append((*bytesDest)[:0], r.data...)
	return nil
}

func (r *fileRows) Close() error { return nil }
