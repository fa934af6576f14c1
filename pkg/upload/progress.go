package upload

import (
	"go.uber.org/atomic"
)

// Progress is the percent-complete of one upload. Record is called from the
// storage client's request goroutines while Read is called from request handlers, so every
// field is an atomic cell and the percent only ever moves forward.
type Progress struct {
	total    atomic.Int64
	uploaded atomic.Int64
	percent  atomic.Int32
}

// Declare sets the number of bytes the job is expected to send.
func (p *Progress) Declare(total int64) {
	p.total.Store(total)
}

// Record accounts n more bytes acknowledged by the store. With no declared
// total the percent keeps its last value.
func (p *Progress) Record(n int64) {
	if n <= 0 {
		return
	}
	uploaded := p.uploaded.Add(n)
	total := p.total.Load()
	if total <= 0 {
		return
	}
	pct := uploaded * 100 / total
	if pct > 100 {
		pct = 100
	}
	for {
		cur := p.percent.Load()
		if int32(pct) <= cur || p.percent.CompareAndSwap(cur, int32(pct)) {
			return
		}
	}
}

// Read returns the current percent, 0 to 100.
func (p *Progress) Read() int {
	return int(p.percent.Load())
}

// Total is the declared size in bytes.
func (p *Progress) Total() int64 {
	return p.total.Load()
}

// Sent is the number of bytes recorded so far.
func (p *Progress) Sent() int64 {
	return p.uploaded.Load()
}
