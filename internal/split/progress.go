package split

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Progress struct {
	Current      int     `json:"current"`
	Total        int     `json:"total"`
	Percentage   float64 `json:"percentage"`
	IsProcessing bool    `json:"isProcessing"`
}

// tracker turns ffmpeg `-progress` key=value lines into Progress updates.
type tracker struct {
	mu       sync.Mutex
	buf      []byte
	seg      time.Duration
	total    time.Duration
	state    Progress
	onUpdate func(Progress)
}

func newTracker(segmentTime int, total time.Duration, onUpdate func(Progress)) *tracker {
	return &tracker{
		seg:      time.Duration(segmentTime) * time.Second,
		total:    total,
		state:    Progress{Total: EstimateCount(total, segmentTime)},
		onUpdate: onUpdate,
	}
}

func (t *tracker) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, b...)
	for {
		i := bytes.IndexByte(t.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(t.buf[:i]))
		t.buf = t.buf[i+1:]
		t.parseLine(line)
	}
	return len(b), nil
}

func (t *tracker) parseLine(line string) {
	key, val, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	switch key {
	case "out_time_us", "out_time_ms":
		// out_time_ms is microseconds too; ffmpeg kept the old name.
		us, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil || us < 0 {
			return
		}
		t.advance(time.Duration(us) * time.Microsecond)
	}
}

func (t *tracker) advance(at time.Duration) {
	if t.seg > 0 {
		cur := int(at/t.seg) + 1
		if t.state.Total > 0 && cur > t.state.Total {
			cur = t.state.Total
		}
		t.state.Current = cur
	}
	if t.total > 0 {
		t.state.Percentage = clamp(float64(at) / float64(t.total) * 100)
	}
	t.emit()
}

func (t *tracker) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.IsProcessing = true
	t.emit()
}

func (t *tracker) finish(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Progress{Current: count, Total: count, Percentage: 100}
	t.emit()
}

func (t *tracker) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.IsProcessing = false
	t.emit()
}

func (t *tracker) emit() {
	if t.onUpdate != nil {
		t.onUpdate(t.state)
	}
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
