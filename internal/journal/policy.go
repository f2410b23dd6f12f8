package journal

import "fmt"

type ResyncSignal struct {
	DroppedBatches uint64 `json:"droppedBatches"`
	TotalBatches   uint64 `json:"totalBatches"`
	FirstDropped   uint64 `json:"firstDropped"`
}

// Policy tracks dropped batches so consumers know to re-sync from a
// keyframe instead of applying a gap-ridden stream.
type Policy struct {
	total        uint64
	dropped      uint64
	firstDropped uint64
	pending      bool
}

func NewPolicy() *Policy {
	return &Policy{}
}

func (p *Policy) NoteBatch() {
	if p == nil {
		return
	}
	if p.total == ^uint64(0) {
		p.total /= 2
		p.dropped /= 2
	}
	p.total++
}

func (p *Policy) NoteDropped(tick uint64) {
	if p == nil {
		return
	}
	if p.dropped == 0 {
		p.firstDropped = tick
	}
	p.dropped++
	p.pending = true
}

func (p *Policy) Consume() (ResyncSignal, bool) {
	if p == nil || !p.pending {
		return ResyncSignal{}, false
	}
	signal := ResyncSignal{
		DroppedBatches: p.dropped,
		TotalBatches:   p.total,
		FirstDropped:   p.firstDropped,
	}
	p.pending = false
	p.total = 0
	p.dropped = 0
	p.firstDropped = 0
	return signal, true
}

func (s ResyncSignal) Summary() string {
	if s.DroppedBatches == 0 && s.TotalBatches == 0 {
		return ""
	}
	return fmt.Sprintf("dropped_batches=%d total_batches=%d first_dropped_tick=%d", s.DroppedBatches, s.TotalBatches, s.FirstDropped)
}
