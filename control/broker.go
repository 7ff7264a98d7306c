package control

import (
	"sync"
	"time"

	"github.com/saarni/grainpad"
	"github.com/saarni/grainpad/engine"
)

type (
	// Broker is the centralized message broker joining the control loop,
	// the player and the level detector. It is many-to-one
	// communication, implemented with one buffered channel per
	// recipient; nothing ever blocks on a send, so the control loop can
	// never stall the audio thread and vice versa. Additionally, the
	// broker has a sync.Pool of *grainpad.AudioBuffer so rendered blocks
	// can be passed around without allocating on the audio path.
	//
	// For closing the detector goroutine there are two channels:
	// CloseDetector has a capacity of 1, so requesting closure never
	// blocks; if it is already full someone else has requested closure
	// and dropping the message is fine. FinishedDetector is closed (never
	// sent to) when the goroutine has cleaned up.
	Broker struct {
		ToPlayer   chan any
		ToModel    chan MsgToModel
		ToDetector chan MsgToDetector

		CloseDetector    chan struct{}
		FinishedDetector chan struct{}

		bufferPool sync.Pool
	}

	// MsgToModel carries telemetry back to the host: per-voice levels on
	// every processed block, plus infrequent boxed payloads in Data.
	MsgToModel struct {
		VoiceLevels [engine.MaxVoices]float32

		HasDetectorResult bool
		DetectorResult    DetectorResult

		Data any
	}

	// MsgToDetector feeds rendered audio (as *grainpad.AudioBuffer
	// borrowed from the pool) to the detector, or asks it to reset.
	MsgToDetector struct {
		Reset bool
		Data  any
	}

	// SetBufferMsg replaces the shared sample source on every voice.
	SetBufferMsg struct {
		Buffer *grainpad.SampleBuffer
	}

	// SetRegionMsg updates one voice's grain source span. Sample
	// positions are integers in the buffer's native sample rate.
	SetRegionMsg struct {
		Voice       int
		StartSample int
		EndSample   int
	}

	// SetParamMsg updates a single parameter on one voice. Messages of
	// the same type are last-write-wins, so dropping or reordering
	// against other message types is harmless.
	SetParamMsg struct {
		Voice int
		Param grainpad.ParamID
		Value float64
	}

	// TriggerMsg starts (On) or gracefully stops one voice.
	TriggerMsg struct {
		Voice int
		On    bool
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToPlayer:         make(chan any, 1024),
		ToModel:          make(chan MsgToModel, 1024),
		ToDetector:       make(chan MsgToDetector, 1024),
		CloseDetector:    make(chan struct{}, 1),
		FinishedDetector: make(chan struct{}),
		bufferPool:       sync.Pool{New: func() any { return &grainpad.AudioBuffer{} }},
	}
}

// GetAudioBuffer returns an empty audio buffer from the pool. After use
// it should be returned with PutAudioBuffer.
func (b *Broker) GetAudioBuffer() *grainpad.AudioBuffer {
	return b.bufferPool.Get().(*grainpad.AudioBuffer)
}

// PutAudioBuffer returns a buffer to the pool, resetting its length but
// keeping its capacity.
func (b *Broker) PutAudioBuffer(buf *grainpad.AudioBuffer) {
	if len(*buf) > 0 {
		*buf = (*buf)[:0]
	}
	b.bufferPool.Put(buf)
}

// TrySend sends a value to a channel if it is not full. It is guaranteed
// to be non-blocking; returns true if the value was sent.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive blocks until a value is received or the timeout passes.
// ok is false on timeout or when the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
