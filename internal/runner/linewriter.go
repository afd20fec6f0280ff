package runner

import (
	"bytes"
	"sync"
	"unicode/utf8"
)

// maxLine bounds a buffered partial line; longer lines are split.
const maxLine = 64 * 1024

// lineWriter turns a byte stream into calls to sink, one per line, with
// "\n" or "\r\n" stripped.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	sink func(string) bool
}

func newLineWriter(sink func(string) bool) *lineWriter {
	return &lineWriter{sink: sink}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	// Split only past maxLine so the byte after the cut is there to check.
	for len(w.buf) > maxLine {
		cut := splitPoint(w.buf)
		w.emit(w.buf[:cut])
		w.buf = w.buf[cut:]
	}
	return len(p), nil
}

// splitPoint is where an overlong buffer is cut: maxLine, moved back so a
// multibyte rune is not split across two lines.
func splitPoint(buf []byte) int {
	cut := maxLine
	for i := 0; i < utf8.UTFMax && cut > 0; i++ {
		if utf8.RuneStart(buf[cut]) {
			return cut
		}
		cut--
	}
	// Not valid UTF-8 around the cut; split where the bytes fall.
	return maxLine
}

// Flush emits a trailing line that had no terminator.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *lineWriter) emit(line []byte) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	w.sink(string(line))
}
