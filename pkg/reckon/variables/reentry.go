package variables

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// goid returns the id of the calling goroutine, taken from the header line
// runtime.Stack writes ("goroutine 18 [running]:"). It costs a stack
// capture, so callers only ask for it off the fast path.
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

// reentry catches a resolver that comes back to its own variable through a
// fresh registry read rather than the Reader it was handed, which the scope
// chain cannot see. The first resolution in flight is not tagged; each
// overlapping one records its goroutine, so a goroutine that arrives while
// it is already inside the variable fails on its second lap.
type reentry struct {
	inflight atomic.Int32

	mu     sync.Mutex
	active map[uint64]int
}

// enter reports false when the calling goroutine is already resolving the
// variable. A successful enter must be paired with leave(id).
func (g *reentry) enter() (id uint64, ok bool) {
	if g.inflight.Add(1) == 1 {
		return 0, true
	}

	id = goid()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[id] > 0 {
		g.inflight.Add(-1)
		return 0, false
	}
	if g.active == nil {
		g.active = make(map[uint64]int)
	}
	g.active[id]++
	return id, true
}

func (g *reentry) leave(id uint64) {
	if id != 0 {
		g.mu.Lock()
		if g.active[id]--; g.active[id] <= 0 {
			delete(g.active, id)
		}
		g.mu.Unlock()
	}
	g.inflight.Add(-1)
}

// waits maps a goroutine to the thread-safe Lazy it is blocked on. With
// Lazy.owner it forms the wait-for graph acquire walks before blocking, so
// the goroutine that would close a cycle of lazies fails instead of waiting.
var waits = struct {
	sync.Mutex
	on map[uint64]*Lazy
}{on: make(map[uint64]*Lazy)}

// acquire takes l.mu for goroutine id. When waiting would deadlock it
// returns false and the names along the cycle, starting and ending with l.
func (l *Lazy) acquire(id uint64) (bool, []string) {
	waits.Lock()
	if l.mu.TryLock() {
		l.owner = id
		waits.Unlock()
		return true, nil
	}

	path := []string{l.name}
	for cur, hops := l, 0; cur != nil && hops <= len(waits.on); hops++ {
		if cur.owner == id {
			waits.Unlock()
			return false, append(path, l.name)
		}
		cur = waits.on[cur.owner]
		if cur != nil {
			path = append(path, cur.name)
		}
	}
	waits.on[id] = l
	waits.Unlock()

	l.mu.Lock()

	waits.Lock()
	delete(waits.on, id)
	l.owner = id
	waits.Unlock()
	return true, nil
}

func (l *Lazy) release() {
	waits.Lock()
	l.owner = 0
	waits.Unlock()
	l.mu.Unlock()
}
