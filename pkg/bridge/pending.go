package bridge

// Handler receives a response payload from the host.
type Handler func(args any)

// Callbacks is the handler pair of a callback-style exec. Either may be nil.
type Callbacks struct {
	Success Handler
	Fail    Handler
}

func (c Callbacks) empty() bool {
	return c.Success == nil && c.Fail == nil
}

// pendingTable holds bookkeeping for commands awaiting a response.
// An id is in callbacks or promises, never both.
type pendingTable struct {
	callbacks map[int64]Callbacks
	promises  map[int64]*Promise
	progress  map[int64][]Handler
}

func newPendingTable() pendingTable {
	return pendingTable{
		callbacks: make(map[int64]Callbacks),
		promises:  make(map[int64]*Promise),
		progress:  make(map[int64][]Handler),
	}
}

func (t *pendingTable) register(id int64, cb Callbacks) {
	if cb.empty() {
		return
	}
	t.callbacks[id] = cb
}

func (t *pendingTable) registerPromise(id int64, p *Promise) {
	t.promises[id] = p
}

// addProgress appends a listener. It reports false once the promise is gone.
func (t *pendingTable) addProgress(id int64, fn Handler) bool {
	if _, ok := t.promises[id]; !ok {
		return false
	}
	t.progress[id] = append(t.progress[id], fn)
	return true
}

// route is the work Dispatch must do after releasing the bridge lock.
type route struct {
	callback    Callbacks
	hasCallback bool
	promise     *Promise
	listeners   []Handler
}

func (r route) matched() bool {
	return r.hasCallback || r.promise != nil
}

// take resolves the bookkeeping for one response and retires the id unless keep is set.
func (t *pendingTable) take(id int64, keep bool) route {
	var r route

	if cb, ok := t.callbacks[id]; ok {
		r.callback = cb
		r.hasCallback = true
		if !keep {
			delete(t.callbacks, id)
		}
	}

	if p, ok := t.promises[id]; ok {
		r.promise = p
		if keep {
			r.listeners = append([]Handler(nil), t.progress[id]...)
		} else {
			delete(t.promises, id)
			delete(t.progress, id)
		}
	}

	return r
}

func (t *pendingTable) size() int {
	return len(t.callbacks) + len(t.promises)
}
