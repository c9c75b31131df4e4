package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"

	"github.com/dmitrijs2005/ingestgate/internal/filex"
)

// Local writes files below a root directory. Meant for development and
// tests.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Write implements Writer.
func (l *Local) Write(ctx context.Context, dir, filename string, body io.Reader, _ int64) error {
	p, err := objectPath(dir, filename)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := filex.EnsureSubDir(l.root, filepath.FromSlash(path.Dir(p)))
	if err != nil {
		return err
	}
	_, err = filex.WriteAtomic(filepath.Join(target, filename), body)
	return err
}
