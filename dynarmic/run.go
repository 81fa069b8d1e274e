package dynarmic

import "github.com/wnxd/dynarmic/trace"

// Run executes guest code from begin until the pc reaches until, count
// instructions have retired (zero means no limit) or Stop is called. The
// context stays usable after Run returns, fault or not.
func (d *Dynarmic) Run(begin, until, count uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.live(); err != nil {
		return err
	} else if err = d.checkValue("Run", "begin", begin); err != nil {
		return err
	} else if err = d.checkValue("Run", "until", until); err != nil {
		return err
	}
	if d.tracer.Enabled() {
		d.tracer.Call("Run", trace.Hex("begin", begin), trace.Hex("until", until), trace.Uint("count", count))
	}
	if ret := d.engine.Run(d.handle, begin, until, count); ret != 0 {
		return engineError("Run", ErrRun, ret, trace.Hex("begin", begin), trace.Hex("until", until))
	}
	return nil
}

func (d *Dynarmic) Start(begin, until uint64) error {
	return d.Run(begin, until, 0)
}

// Stop makes a Run in progress return at the next instruction boundary. It
// does not wait for Run and may be called from any goroutine.
func (d *Dynarmic) Stop() error {
	d.stopMu.RLock()
	defer d.stopMu.RUnlock()
	if d.handle == 0 {
		if d.engine == nil {
			return ErrUninitialized
		}
		return ErrClosed
	}
	if ret := d.engine.Stop(d.handle); ret != 0 {
		return engineError("Stop", ErrRun, ret)
	}
	return nil
}
