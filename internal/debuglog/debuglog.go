// Package debuglog implements the FL_DEBUG/FL_DEBUG_FILE debug log
// (spec.md §6): a batched, rotated log the Outer Server writes to when
// debugging is enabled. Rotation is grounded on
// gravwell's ingest/log/rotate.FileRotator (size-triggered, rotate only at
// a line boundary); rotated segments are compressed with brotli instead of
// gzip, the way a long-running embedded bridge accumulates many short-lived
// debug segments across DAW sessions and wants them small on disk.
package debuglog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
)

const (
	defaultMaxSize   = 2 * 1024 * 1024
	defaultBatchSize = 4096
	defaultFlush     = 500 * time.Millisecond
)

// Logger batches writes into an in-memory buffer, flushing periodically or
// when the buffer fills, and rotates (compressing the old segment with
// brotli) once the file exceeds MaxSize. The zero value is not usable;
// construct with Open.
type Logger struct {
	mu       sync.Mutex
	path     string
	f        *os.File
	buf      *bufio.Writer
	size     int64
	maxSize  int64
	stopFlag chan struct{}
	wg       sync.WaitGroup
}

// Open opens (creating if necessary) the debug log at path and starts a
// background flush loop.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	l := &Logger{
		path:     path,
		f:        f,
		buf:      bufio.NewWriterSize(f, defaultBatchSize),
		size:     info.Size(),
		maxSize:  defaultMaxSize,
		stopFlag: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.flushLoop()
	return l, nil
}

func (l *Logger) flushLoop() {
	defer l.wg.Done()
	t := time.NewTicker(defaultFlush)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			l.mu.Lock()
			l.buf.Flush()
			l.mu.Unlock()
		case <-l.stopFlag:
			return
		}
	}
}

// Printf writes one formatted, newline-terminated line, rotating first if
// the buffered write would push the file over MaxSize.
func (l *Logger) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line += "\n"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size+int64(len(line)) > l.maxSize {
		if err := l.rotateLocked(); err != nil {
			// rotation failure is non-fatal; keep appending to the
			// current segment rather than losing the line.
			fmt.Fprintf(os.Stderr, "debuglog: rotate %s: %v\n", l.path, err)
		}
	}

	n, _ := l.buf.WriteString(line)
	l.size += int64(n)
}

func (l *Logger) rotateLocked() error {
	if err := l.buf.Flush(); err != nil {
		return err
	}
	if err := l.f.Close(); err != nil {
		return err
	}

	rotated := l.path + "." + time.Now().Format("20060102T150405") + ".br"
	if err := compressFile(l.path, rotated); err != nil {
		return err
	}
	if err := os.Remove(l.path); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	l.f = f
	l.buf = bufio.NewWriterSize(f, defaultBatchSize)
	l.size = 0
	return nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	bw := brotli.NewWriter(out)
	if _, err := io.Copy(bw, in); err != nil {
		bw.Close()
		return err
	}
	return bw.Close()
}

// Close flushes any buffered output and stops the background flush loop.
func (l *Logger) Close() error {
	close(l.stopFlag)
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.buf.Flush(); err != nil {
		return err
	}
	return l.f.Close()
}
