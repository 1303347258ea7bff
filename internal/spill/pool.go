package spill

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Pool hands out uniquely named temp files for spilled buffers. Each Pool
// keeps its own atomic counter, so buffers sharing a pool may be
// constructed from any goroutine; names are unique only within one pool
type Pool struct {
	dir     string
	counter atomic.Int64
}

func NewPool(dir string) *Pool {
	return &Pool{dir: dir}
}

func (p *Pool) Dir() string {
	return p.dir
}

// create opens a fresh spill file. The returned path is owned by the caller
// and is expected to be unlinked once the buffer is done with it
func (p *Pool) create() (*os.File, string, error) {
	path := filepath.Join(p.dir, fmt.Sprintf("smartbuffer_%d", p.counter.Add(1)-1))

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, "", fmt.Errorf("spill: %w", err)
	}

	return file, path, nil
}
