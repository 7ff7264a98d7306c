package grainpad

type (
	// AudioBuffer is a buffer of stereo audio frames.
	AudioBuffer [][2]float32

	// AudioSource is something that can fill audio buffers on demand,
	// typically the player goroutine pulling rendered frames from the
	// synth.
	AudioSource interface {
		ReadAudio(buffer AudioBuffer) (n int, err error)
	}

	// AudioContext is the audio playback backend. Play starts pulling
	// frames from the source until the returned player is closed.
	AudioContext interface {
		Play(source AudioSource) AudioPlayer
		Close() error
	}

	// AudioPlayer is one active playback stream.
	AudioPlayer interface {
		Close() error
	}
)

// Interleave flattens the buffer into an interleaved []float32, for
// export and for backends that want raw interleaved samples.
func (b AudioBuffer) Interleave() []float32 {
	ret := make([]float32, 0, 2*len(b))
	for _, frame := range b {
		ret = append(ret, frame[0], frame[1])
	}
	return ret
}
