package spill

import (
	"io"
	"os"

	"github.com/hearth-web/hearth/internal/evloop"
)

// maxReadPerEvent caps how many bytes a single readiness event may pull
// from the backing file, so one hungry buffer cannot starve the loop
const maxReadPerEvent = 60000

type mode uint8

const (
	modeMemory mode = iota
	modeFile
)

// Buffer is a growable byte store that starts in memory and transparently
// migrates to a temp file once its logical size crosses the threshold. In
// file mode all I/O is driven by readiness events: appends queue into a
// pending-write list drained on writable events, reads are requested via
// Read and satisfied on readable events. The transition to file mode is
// one-way.
type Buffer struct {
	loop evloop.Registrar
	pool *Pool

	maxMemorySize int
	mode          mode

	mem []byte

	file *os.File
	fd   uintptr
	// path is non-empty only when the file was created by spill; such a
	// file is unlinked on Close
	path string

	size        int64
	readPos     int64
	outstanding int
	readBuf     []byte
	pending     [][]byte

	registered bool
	terminated bool
	closed     bool
}

// New returns a memory-mode buffer which will spill into a pool-provided
// temp file once its size exceeds maxMemorySize
func New(loop evloop.Registrar, pool *Pool, maxMemorySize int) *Buffer {
	return &Buffer{
		loop:          loop,
		pool:          pool,
		maxMemorySize: maxMemorySize,
	}
}

// FromFile adopts an existing readable descriptor, e.g. a static file being
// served. The buffer owns the descriptor from now on, but will not unlink
// the underlying path on Close
func FromFile(loop evloop.Registrar, file *os.File) (*Buffer, error) {
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	b := &Buffer{
		loop: loop,
		mode: modeFile,
		file: file,
		size: stat.Size(),
	}
	b.register()

	return b, nil
}

// Append stores data in the buffer. In memory mode the bytes land in the
// in-memory store, spilling to a temp file when the logical size would
// cross the threshold. In file mode the bytes are queued for the next
// writable events
func (b *Buffer) Append(data []byte) error {
	if len(data) == 0 || b.terminated {
		return nil
	}

	if b.mode == modeFile {
		// the caller is free to reuse its slice, so queue a copy
		b.pending = append(b.pending, append([]byte(nil), data...))
		return nil
	}

	if int(b.size)+len(data) > b.maxMemorySize {
		return b.spill(data)
	}

	b.mem = append(b.mem, data...)
	b.size += int64(len(data))

	return nil
}

// spill moves the buffer into file mode: the accumulated memory plus the
// incoming chunk become the pending-write queue, the logical size restarts
// from the (empty) file and advances as the queue drains
func (b *Buffer) spill(data []byte) error {
	file, path, err := b.pool.create()
	if err != nil {
		return err
	}

	b.mode = modeFile
	b.file = file
	b.path = path

	if len(b.mem) > 0 {
		b.pending = append(b.pending, b.mem)
	}
	b.pending = append(b.pending, append([]byte(nil), data...))
	b.mem = nil
	b.size = 0

	b.register()

	return nil
}

func (b *Buffer) register() {
	b.fd = b.file.Fd()
	b.loop.AddFd(b.fd, evloop.Readable|evloop.Writable, b.onReady)
	b.registered = true
}

// Read requests that up to n more bytes be pulled into the read buffer. In
// memory mode the request is satisfied immediately; in file mode it raises
// the outstanding-read counter and readable events do the rest
func (b *Buffer) Read(n int) {
	if n <= 0 || b.terminated {
		return
	}

	if b.mode == modeFile {
		b.outstanding += n
		return
	}

	if rest := b.size - b.readPos; int64(n) > rest {
		n = int(rest)
	}
	if n <= 0 {
		return
	}

	b.readBuf = append(b.readBuf, b.mem[b.readPos:b.readPos+int64(n)]...)
	b.readPos += int64(n)
}

// ConsumeRead drops n bytes from the head of the read buffer
func (b *Buffer) ConsumeRead(n int) {
	if n >= len(b.readBuf) {
		b.readBuf = b.readBuf[:0]
		return
	}

	b.readBuf = append(b.readBuf[:0], b.readBuf[n:]...)
}

func (b *Buffer) ReadBuffer() []byte {
	return b.readBuf
}

// Size reports the logical byte count: everything appended in memory mode,
// or everything drained into the file in file mode
func (b *Buffer) Size() int64 {
	return b.size
}

// PendingWrite reports how many bytes are queued for writable events
func (b *Buffer) PendingWrite() (n int) {
	for _, chunk := range b.pending {
		n += len(chunk)
	}

	return n
}

// Outstanding reports how many requested read bytes are not yet satisfied
func (b *Buffer) Outstanding() int {
	return b.outstanding
}

// Spilled reports whether the buffer has left memory mode
func (b *Buffer) Spilled() bool {
	return b.mode == modeFile
}

// Terminated reports whether the backing descriptor was closed after a
// failed or zero-sized transfer
func (b *Buffer) Terminated() bool {
	return b.terminated
}

// onReady is the readiness callback. Writable drains at most one pending
// chunk per event; readable satisfies at most maxReadPerEvent outstanding
// bytes per event. Short transfers stay queued for the next event
func (b *Buffer) onReady(_ uintptr, ready evloop.Ready) (drop bool) {
	if b.terminated || b.closed {
		return true
	}

	if ready.Has(evloop.Writable) && len(b.pending) > 0 {
		if !b.drainOne() {
			return b.terminate()
		}
	}

	if ready.Has(evloop.Readable) && b.outstanding > 0 {
		if !b.readOne() {
			return b.terminate()
		}
	}

	return false
}

func (b *Buffer) drainOne() bool {
	chunk := b.pending[0]

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return false
	}

	n, err := b.file.Write(chunk)
	if n > 0 {
		b.size += int64(n)
		if n < len(chunk) {
			b.pending[0] = chunk[n:]
		} else {
			b.pending = b.pending[1:]
		}
	}

	return err == nil && n > 0
}

func (b *Buffer) readOne() bool {
	if b.readPos >= b.size {
		// nothing readable yet, keep the request outstanding
		return true
	}

	n := b.outstanding
	if n > maxReadPerEvent {
		n = maxReadPerEvent
	}
	if rest := b.size - b.readPos; int64(n) > rest {
		n = int(rest)
	}

	if _, err := b.file.Seek(b.readPos, io.SeekStart); err != nil {
		return false
	}

	chunk := make([]byte, n)
	read, err := b.file.Read(chunk)
	if read <= 0 {
		return err == nil
	}

	b.readBuf = append(b.readBuf, chunk[:read]...)
	b.readPos += int64(read)
	b.outstanding -= read

	return true
}

func (b *Buffer) terminate() bool {
	b.terminated = true
	if b.file != nil {
		_ = b.file.Close()
	}

	return true
}

// Close releases everything the buffer owns: the event loop registration,
// the descriptor and, for spill-created files, the file itself. Every
// release path runs unconditionally
func (b *Buffer) Close() (err error) {
	if b.closed {
		return nil
	}
	b.closed = true

	if b.registered {
		b.loop.RemoveFd(b.fd)
	}

	if b.file != nil && !b.terminated {
		err = b.file.Close()
	}

	if len(b.path) > 0 {
		if rmErr := os.Remove(b.path); err == nil {
			err = rmErr
		}
	}

	return err
}
