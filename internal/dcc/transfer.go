// Package dcc implements DCC file transfers: the acknowledgment protocol,
// the listening (sending) and connecting (receiving) roles, and the legacy
// address encoding used in DCC requests.
package dcc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"

	"github.com/dalnet/nebo/internal/metrics"
	"github.com/google/uuid"
)

const (
	// MaxBufferSize is the largest chunk a transfer sends at once
	MaxBufferSize = 8192
	// DefaultBufferSize is used when BufferSize is unset
	DefaultBufferSize = 4096
)

var (
	// ErrInterrupted wraps every error that ends a transfer early
	ErrInterrupted = errors.New("dcc transfer interrupted")
	// ErrStopped is the cause when a transfer was stopped cooperatively
	ErrStopped = errors.New("dcc transfer stopped")
)

// Transfer moves one file over an established DCC connection. The sender
// reads File, the receiver writes it.
type Transfer struct {
	ID            string
	File          io.ReadWriter
	StartPosition int64
	FileSize      int64
	BufferSize    int
	TurboMode     bool
	Secure        bool
	SendAhead     bool

	OnProgress             func(transferred int64)
	OnTransferComplete     func()
	OnTransferInterruption func(err error)

	transferred atomic.Int64
	stopped     atomic.Bool
}

// NewTransfer returns a transfer with the default buffer size and
// send-ahead enabled. A negative size means unknown.
func NewTransfer(file io.ReadWriter, size int64) *Transfer {
	return &Transfer{
		ID:         uuid.NewString(),
		File:       file,
		FileSize:   size,
		BufferSize: DefaultBufferSize,
		SendAhead:  true,
	}
}

// BytesTransferred is the number of bytes moved in this session
func (t *Transfer) BytesTransferred() int64 {
	return t.transferred.Load()
}

// IsComplete reports whether StartPosition plus the bytes moved reach
// FileSize. A transfer of unknown size is never complete.
func (t *Transfer) IsComplete() bool {
	return t.FileSize >= 0 && t.StartPosition+t.transferred.Load() >= t.FileSize
}

// Stop asks a running transfer to end after the current chunk
func (t *Transfer) Stop() {
	t.stopped.Store(true)
}

func (t *Transfer) bufferSize() int {
	switch {
	case t.BufferSize <= 0:
		return DefaultBufferSize
	case t.BufferSize > MaxBufferSize:
		return MaxBufferSize
	}
	return t.BufferSize
}

// seek moves File to StartPosition when it supports seeking
func (t *Transfer) seek() error {
	if t.StartPosition <= 0 {
		return nil
	}
	seeker, ok := t.File.(io.Seeker)
	if !ok {
		return nil
	}
	if _, err := seeker.Seek(t.StartPosition, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to %d: %w", t.StartPosition, err)
	}
	return nil
}

func (t *Transfer) progress(n int, direction string) int64 {
	total := t.transferred.Add(int64(n))
	metrics.DccBytes.WithLabelValues(direction).Add(float64(n))
	if t.OnProgress != nil {
		t.OnProgress(total)
	}
	return total
}

func (t *Transfer) complete() error {
	metrics.DccTransfers.WithLabelValues("complete").Inc()
	if t.OnTransferComplete != nil {
		t.OnTransferComplete()
	}
	return nil
}

func (t *Transfer) interrupt(cause error) error {
	err := fmt.Errorf("%w: %v", ErrInterrupted, cause)
	metrics.DccTransfers.WithLabelValues("interrupted").Inc()
	if t.OnTransferInterruption != nil {
		t.OnTransferInterruption(err)
	}
	return err
}

// Send streams File to conn in chunks of BufferSize. Unless TurboMode or
// SendAhead is set it waits for an acknowledgment after every chunk. Outside
// turbo mode it returns only once the peer has acknowledged every byte.
func (t *Transfer) Send(conn net.Conn) error {
	if err := t.seek(); err != nil {
		return t.interrupt(err)
	}

	var acks *ackReader
	if !t.TurboMode && t.SendAhead {
		acks = newAckReader(conn)
	}

	buf := make([]byte, t.bufferSize())
	var total int64
	var lastAck uint32
	for !t.IsComplete() {
		if t.stopped.Load() {
			return t.interrupt(ErrStopped)
		}
		n, err := t.File.Read(buf)
		if n > 0 {
			if _, werr := conn.Write(buf[:n]); werr != nil {
				return t.interrupt(werr)
			}
			total = t.progress(n, "sent")
			if !t.TurboMode && !t.SendAhead {
				if lastAck, err = readAck(conn); err != nil {
					return t.interrupt(err)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return t.interrupt(err)
		}
	}

	if !t.TurboMode {
		want := uint32(total)
		if acks != nil {
			if err := acks.waitFor(want); err != nil {
				return t.interrupt(err)
			}
		} else {
			for lastAck != want {
				var err error
				if lastAck, err = readAck(conn); err != nil {
					return t.interrupt(err)
				}
			}
		}
	}

	if !t.IsComplete() {
		return t.interrupt(io.ErrUnexpectedEOF)
	}
	return t.complete()
}

// Receive reads from conn into File until the transfer is complete. Every
// chunk is acknowledged unless TurboMode is set. A read of zero bytes ends
// the transfer as interrupted.
func (t *Transfer) Receive(conn net.Conn) error {
	if err := t.seek(); err != nil {
		return t.interrupt(err)
	}

	buf := make([]byte, t.bufferSize())
	ack := make([]byte, 4)
	for !t.IsComplete() {
		if t.stopped.Load() {
			return t.interrupt(ErrStopped)
		}
		n, err := conn.Read(buf)
		if n == 0 {
			if err == nil {
				err = io.ErrNoProgress
			}
			return t.interrupt(err)
		}
		if _, werr := t.File.Write(buf[:n]); werr != nil {
			return t.interrupt(werr)
		}
		total := t.progress(n, "received")
		if !t.TurboMode {
			binary.BigEndian.PutUint32(ack, uint32(total))
			if _, werr := conn.Write(ack); werr != nil {
				return t.interrupt(werr)
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return t.interrupt(err)
		}
	}
	return t.complete()
}

// readAck reads one 4-byte acknowledgment
func readAck(conn net.Conn) (uint32, error) {
	var ack [4]byte
	if _, err := io.ReadFull(conn, ack[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(ack[:]), nil
}

// ackReader drains acknowledgments in the background so a send-ahead
// sender never blocks the peer's writes
type ackReader struct {
	last   atomic.Uint32
	signal chan struct{}
	done   chan struct{}
	err    error
}

func newAckReader(conn net.Conn) *ackReader {
	a := &ackReader{signal: make(chan struct{}, 1), done: make(chan struct{})}
	go func() {
		defer close(a.done)
		for {
			ack, err := readAck(conn)
			if err != nil {
				a.err = err
				return
			}
			a.last.Store(ack)
			select {
			case a.signal <- struct{}{}:
			default:
			}
		}
	}()
	return a
}

// waitFor blocks until the peer acknowledged want bytes (mod 2^32)
func (a *ackReader) waitFor(want uint32) error {
	for {
		if a.last.Load() == want {
			return nil
		}
		select {
		case <-a.signal:
		case <-a.done:
			if a.last.Load() == want {
				return nil
			}
			return a.err
		}
	}
}
