package reader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/exp/slog"
)

// StdinDevice selects standard input as the tag source.
const StdinDevice = "-"

// Reader turns a line-oriented tag source into non-blocking polls. At most one tag is held;
// tags arriving while one is pending are dropped, since scans are never queued.
type Reader struct {
	log    *slog.Logger
	tags   chan uint32
	closer io.Closer

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Open selects the tag source: empty disables scanning, "-" reads stdin, anything else is a device path.
func Open(device string, log *slog.Logger) (*Reader, error) {
	switch device {
	case "":
		return New(nil, log), nil
	case StdinDevice:
		r := newReader(log)
		go r.consume(stdinLines(r.log))
		return r, nil
	}

	f, err := os.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open reader device: %w", err)
	}
	return New(f, log), nil
}

// New starts reading src in the background. A nil src yields a reader that never reports tags.
func New(src io.ReadCloser, log *slog.Logger) *Reader {
	r := newReader(log)
	if src == nil {
		close(r.done)
		return r
	}

	r.closer = src
	lines := make(chan string)
	go pump(src, lines, r.stop, r.log)
	go r.consume(lines)
	return r
}

func newReader(log *slog.Logger) *Reader {
	return &Reader{
		log:  log.With(slog.String("component", "tag_reader")),
		tags: make(chan uint32, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Poll returns the pending tag, if any, without blocking.
func (r *Reader) Poll() (uint32, bool) {
	select {
	case tag := <-r.tags:
		return tag, true
	default:
		return 0, false
	}
}

// Close detaches the reader and closes its source. It does not wait for a blocked read to return.
func (r *Reader) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })

	var err error
	if r.closer != nil {
		err = r.closer.Close()
	}
	<-r.done
	return err
}

func (r *Reader) consume(lines <-chan string) {
	defer close(r.done)

	for {
		select {
		case <-r.stop:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			r.handle(line)
		}
	}
}

func (r *Reader) handle(line string) {
	tag, err := ParseTag(line)
	if err != nil {
		if !errors.Is(err, ErrEmptyLine) {
			r.log.Warn("discarding reader line", slog.Any("error", err))
		}
		return
	}

	select {
	case r.tags <- tag:
		r.log.Debug("tag detected", slog.String("tag", fmt.Sprintf("%08X", tag)))
	default:
		r.log.Warn("tag dropped, previous scan still pending", slog.String("tag", fmt.Sprintf("%08X", tag)))
	}
}

// pump forwards lines from src until it ends or stop closes. A nil stop never fires.
func pump(src io.Reader, out chan<- string, stop <-chan struct{}, log *slog.Logger) {
	defer close(out)

	sc := bufio.NewScanner(src)
	for sc.Scan() {
		select {
		case out <- sc.Text():
		case <-stop:
			return
		}
	}

	if err := sc.Err(); err != nil {
		select {
		case <-stop:
		default:
			log.Error("reader stopped", slog.Any("error", err))
		}
	}
}

var (
	stdinOnce sync.Once
	stdin     chan string
)

// stdinLines is the process-wide stdin line feed. Stdin cannot be closed to unblock a read, so a
// single pump outlives the readers and each line goes to whichever reader is attached.
func stdinLines(log *slog.Logger) <-chan string {
	stdinOnce.Do(func() {
		stdin = make(chan string)
		go pump(os.Stdin, stdin, nil, log)
	})
	return stdin
}

// ParseTag accepts a decimal id or a 0x-prefixed hexadecimal id that fits in 32 bits.
func ParseTag(line string) (uint32, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return 0, ErrEmptyLine
	}

	base := 10
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		s, base = rest, 16
	}

	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTag, line)
	}
	return uint32(v), nil
}
