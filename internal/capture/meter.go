package capture

import (
	"encoding/binary"
	"strings"
	"sync"
)

var levelRunes = []rune("▁▂▃▄▅▆▇█")

// LevelMeter turns 16-bit little-endian PCM chunks into a scrolling bar of
// peak levels for display while recording.
type LevelMeter struct {
	mu     sync.Mutex
	levels []float64
	width  int
}

func NewLevelMeter(width int) *LevelMeter {
	if width <= 0 {
		width = 32
	}
	return &LevelMeter{width: width}
}

func (m *LevelMeter) Feed(chunk []byte) {
	var peak int
	for i := 0; i+1 < len(chunk); i += 2 {
		v := int(int16(binary.LittleEndian.Uint16(chunk[i:])))
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}

	m.mu.Lock()
	m.levels = append(m.levels, float64(peak)/32768)
	if len(m.levels) > m.width {
		m.levels = m.levels[len(m.levels)-m.width:]
	}
	m.mu.Unlock()
}

// Levels returns the most recent peak levels between 0 and 1.
func (m *LevelMeter) Levels() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.levels...)
}

// Bars renders the levels as block characters.
func (m *LevelMeter) Bars() string {
	levels := m.Levels()
	var sb strings.Builder
	for _, l := range levels {
		idx := int(l * float64(len(levelRunes)))
		idx = min(max(idx, 0), len(levelRunes)-1)
		sb.WriteRune(levelRunes[idx])
	}
	return sb.String()
}

// Reset clears the history.
func (m *LevelMeter) Reset() {
	m.mu.Lock()
	m.levels = nil
	m.mu.Unlock()
}
