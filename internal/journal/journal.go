// Package journal buffers the outbound signals produced by each tick until a
// consumer drains them, and keeps a rolling window of state keyframes that
// late observers and replay tooling can start from.
package journal

import (
	"encoding/json"
	"sync"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
)

const (
	MetricBatchesDropped = "journal_batches_dropped_total"
	MetricKeyframes      = "journal_keyframes"
)

// Batch is every outbound signal of one tick, in emission order.
type Batch struct {
	Tick   uint64              `json:"tick"`
	Events []contract.Outbound `json:"events"`
}

// Config bounds the journal. Zero values disable the matching limit, except
// KeyframeCapacity where zero disables keyframes entirely.
type Config struct {
	MaxPendingBatches int    `yaml:"maxPendingBatches"`
	KeyframeCapacity  int    `yaml:"keyframeCapacity"`
	KeyframeMaxAge    uint64 `yaml:"keyframeMaxAge"`
}

// Journal accumulates batches between drains and keeps recent keyframes.
type Journal struct {
	mu        sync.RWMutex
	cfg       Config
	pending   []Batch
	keyframes []Keyframe
	sequence  uint64
	resync    *Policy
	metrics   telemetry.Metrics
}

func New(cfg Config, metrics telemetry.Metrics) *Journal {
	if cfg.MaxPendingBatches < 0 {
		cfg.MaxPendingBatches = 0
	}
	if cfg.KeyframeCapacity < 0 {
		cfg.KeyframeCapacity = 0
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Journal{
		cfg:       cfg,
		pending:   make([]Batch, 0),
		keyframes: make([]Keyframe, 0, cfg.KeyframeCapacity),
		resync:    NewPolicy(),
		metrics:   metrics,
	}
}

// Append records a tick's batch. Empty ticks are not recorded. When the
// pending queue is full the oldest batch is dropped and a resync is
// suggested to consumers.
func (j *Journal) Append(tick uint64, events []contract.Outbound) {
	if j == nil || len(events) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.resync.NoteBatch()
	j.pending = append(j.pending, Batch{Tick: tick, Events: cloneEvents(events)})
	if limit := j.cfg.MaxPendingBatches; limit > 0 && len(j.pending) > limit {
		overflow := len(j.pending) - limit
		for i := 0; i < overflow; i++ {
			j.resync.NoteDropped(j.pending[i].Tick)
		}
		copy(j.pending, j.pending[overflow:])
		j.pending = j.pending[:limit]
		j.metrics.Add(MetricBatchesDropped, uint64(overflow))
	}
}

// Drain returns the pending batches in tick order and clears them.
func (j *Journal) Drain() []Batch {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.pending) == 0 {
		return nil
	}
	drained := j.pending
	j.pending = make([]Batch, 0, len(drained))
	return drained
}

// Snapshot returns a copy of the pending batches without clearing them.
func (j *Journal) Snapshot() []Batch {
	if j == nil {
		return nil
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Batch, len(j.pending))
	for i, batch := range j.pending {
		out[i] = Batch{Tick: batch.Tick, Events: cloneEvents(batch.Events)}
	}
	return out
}

// ConsumeResyncHint reports, once, that batches were dropped since the last
// call.
func (j *Journal) ConsumeResyncHint() (ResyncSignal, bool) {
	if j == nil {
		return ResyncSignal{}, false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.resync.Consume()
}

// Keyframe is a serialised world snapshot with its checksum.
type Keyframe struct {
	Sequence uint64          `json:"sequence"`
	Tick     uint64          `json:"tick"`
	Checksum string          `json:"checksum"`
	Entities int             `json:"entities"`
	State    json.RawMessage `json:"state"`
}

type KeyframeEviction struct {
	Sequence uint64
	Tick     uint64
	Reason   string
}

type KeyframeRecordResult struct {
	Size           int
	OldestSequence uint64
	NewestSequence uint64
	Evicted        []KeyframeEviction
}

// RecordKeyframe stores frame, assigning its sequence, and evicts frames
// older than KeyframeMaxAge ticks or beyond KeyframeCapacity.
func (j *Journal) RecordKeyframe(frame Keyframe) KeyframeRecordResult {
	if j == nil {
		return KeyframeRecordResult{}
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cfg.KeyframeCapacity == 0 {
		j.keyframes = j.keyframes[:0]
		return KeyframeRecordResult{}
	}

	j.sequence++
	frame.Sequence = j.sequence
	frame.State = append(json.RawMessage(nil), frame.State...)
	j.keyframes = append(j.keyframes, frame)

	var evicted []KeyframeEviction
	if maxAge := j.cfg.KeyframeMaxAge; maxAge > 0 && frame.Tick > maxAge {
		cutoff := frame.Tick - maxAge
		idx := 0
		for idx < len(j.keyframes) && j.keyframes[idx].Tick < cutoff {
			evicted = append(evicted, KeyframeEviction{Sequence: j.keyframes[idx].Sequence, Tick: j.keyframes[idx].Tick, Reason: "expired"})
			idx++
		}
		if idx > 0 {
			copy(j.keyframes, j.keyframes[idx:])
			j.keyframes = j.keyframes[:len(j.keyframes)-idx]
		}
	}

	if len(j.keyframes) > j.cfg.KeyframeCapacity {
		overflow := len(j.keyframes) - j.cfg.KeyframeCapacity
		for _, old := range j.keyframes[:overflow] {
			evicted = append(evicted, KeyframeEviction{Sequence: old.Sequence, Tick: old.Tick, Reason: "count"})
		}
		copy(j.keyframes, j.keyframes[overflow:])
		j.keyframes = j.keyframes[:len(j.keyframes)-overflow]
	}

	size := len(j.keyframes)
	j.metrics.Store(MetricKeyframes, uint64(size))
	result := KeyframeRecordResult{Size: size, Evicted: evicted}
	if size > 0 {
		result.OldestSequence = j.keyframes[0].Sequence
		result.NewestSequence = j.keyframes[size-1].Sequence
	}
	return result
}

// Keyframes returns the retained keyframes oldest first.
func (j *Journal) Keyframes() []Keyframe {
	if j == nil {
		return nil
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	frames := make([]Keyframe, len(j.keyframes))
	copy(frames, j.keyframes)
	return frames
}

// Latest returns the newest keyframe.
func (j *Journal) Latest() (Keyframe, bool) {
	if j == nil {
		return Keyframe{}, false
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if len(j.keyframes) == 0 {
		return Keyframe{}, false
	}
	return j.keyframes[len(j.keyframes)-1], true
}

// KeyframeBySequence returns the keyframe matching sequence.
func (j *Journal) KeyframeBySequence(sequence uint64) (Keyframe, bool) {
	if j == nil {
		return Keyframe{}, false
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	for _, frame := range j.keyframes {
		if frame.Sequence == sequence {
			return frame, true
		}
	}
	return Keyframe{}, false
}

// KeyframeWindow reports the retention window.
func (j *Journal) KeyframeWindow() (size int, oldest, newest uint64) {
	if j == nil {
		return 0, 0, 0
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	size = len(j.keyframes)
	if size == 0 {
		return 0, 0, 0
	}
	return size, j.keyframes[0].Sequence, j.keyframes[size-1].Sequence
}

func cloneEvents(events []contract.Outbound) []contract.Outbound {
	if len(events) == 0 {
		return nil
	}
	out := make([]contract.Outbound, len(events))
	copy(out, events)
	return out
}
