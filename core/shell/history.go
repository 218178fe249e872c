package shell

import "sync"

// DefaultHistoryLimit is the number of lines kept when no limit is set.
const DefaultHistoryLimit = 500

// History holds previously entered lines.
type History struct {
	mu    sync.Mutex
	lines []string
	limit int

	// OnClear is called after Clear, the interactive session uses it to reset
	// line editor history.
	OnClear func()
}

// NewHistory creates a history keeping at most limit lines.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Add appends a line, dropping the oldest once the limit is reached.
func (h *History) Add(line string) {
	if line == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines = append(h.lines, line)
	if over := len(h.lines) - h.limit; over > 0 {
		h.lines = append([]string(nil), h.lines[over:]...)
	}
}

// Lines returns a copy of the history, oldest first.
func (h *History) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}

// Clear deletes every entry.
func (h *History) Clear() {
	h.mu.Lock()
	h.lines = nil
	onClear := h.OnClear
	h.mu.Unlock()

	if onClear != nil {
		onClear()
	}
}
