package evloop

type Ready uint8

const (
	Readable Ready = 1 << iota
	Writable
)

func (r Ready) Has(flag Ready) bool {
	return r&flag != 0
}

// Callback is invoked on every readiness event of the descriptor it was
// registered with. Returning true tells the loop to drop the descriptor
type Callback func(fd uintptr, ready Ready) (drop bool)

// Registrar is the surface a readiness multiplexer exposes to descriptor
// owners. The multiplexer itself lives outside of the library; the library
// only registers interest and reacts to dispatched events
type Registrar interface {
	AddFd(fd uintptr, interest Ready, cb Callback)
	RemoveFd(fd uintptr)
}

type entry struct {
	interest Ready
	cb       Callback
}

// Dispatcher is a manual Registrar. It never touches the OS: events are
// injected via Dispatch by whoever drives the descriptors. The connection
// driver and the tests use it to pump spill buffers deterministically
type Dispatcher struct {
	entries map[uintptr]entry
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		entries: map[uintptr]entry{},
	}
}

func (d *Dispatcher) AddFd(fd uintptr, interest Ready, cb Callback) {
	d.entries[fd] = entry{
		interest: interest,
		cb:       cb,
	}
}

func (d *Dispatcher) RemoveFd(fd uintptr) {
	delete(d.entries, fd)
}

func (d *Dispatcher) Has(fd uintptr) bool {
	_, found := d.entries[fd]
	return found
}

// Dispatch delivers a readiness event to the descriptor's callback. Flags
// outside of the registered interest are masked away; a callback asking to
// be dropped is removed immediately
func (d *Dispatcher) Dispatch(fd uintptr, ready Ready) {
	e, found := d.entries[fd]
	if !found {
		return
	}

	ready &= e.interest
	if ready == 0 {
		return
	}

	if e.cb(fd, ready) {
		delete(d.entries, fd)
	}
}

// DispatchAll delivers the same readiness flags to every registered
// descriptor
func (d *Dispatcher) DispatchAll(ready Ready) {
	for fd := range d.entries {
		d.Dispatch(fd, ready)
	}
}
