package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"

	"dronesim/pkg/logging"
)

// FrameWriter sends frames to a bus.
type FrameWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

// SocketCANWriter transmits on a Linux socketcan interface.
type SocketCANWriter struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

// DialSocketCAN opens iface, e.g. "vcan0".
func DialSocketCAN(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &SocketCANWriter{
		conn: conn,
		tx:   socketcan.NewTransmitter(conn),
	}, nil
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	return w.tx.TransmitFrame(ctx, frame)
}

func (w *SocketCANWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// LogWriter traces frames in candump notation instead of sending them.
type LogWriter struct {
	log *slog.Logger
}

// NewLogWriter creates a writer that traces to logger.
func NewLogWriter(logger *slog.Logger) *LogWriter {
	return &LogWriter{log: logging.OrDefault(logger)}
}

func (w *LogWriter) WriteFrame(_ context.Context, frame can.Frame) error {
	logging.Trace(w.log, "CAN frame", "frame", frame.String())
	return nil
}

func (w *LogWriter) Close() error { return nil }

// MemoryWriter keeps every frame. It is used by the replay summary and
// tests.
type MemoryWriter struct {
	mu     sync.Mutex
	frames []can.Frame
}

func (w *MemoryWriter) WriteFrame(_ context.Context, frame can.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = append(w.frames, frame)
	return nil
}

func (w *MemoryWriter) Close() error { return nil }

// Frames returns a copy of the frames written so far.
func (w *MemoryWriter) Frames() []can.Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]can.Frame, len(w.frames))
	copy(out, w.frames)
	return out
}
