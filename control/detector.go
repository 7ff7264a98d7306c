package control

import (
	"math"

	"github.com/saarni/grainpad"
	"github.com/viterin/vek/vek32"
)

type (
	// Decibel is a level relative to full scale, in dB.
	Decibel float32

	// DetectorResult is the outcome of analyzing one rendered block.
	DetectorResult struct {
		RMS  [2]Decibel
		Peak [2]Decibel
	}

	// Detector measures output levels off the audio thread. The player
	// hands it rendered blocks through the broker; it answers with
	// per-channel RMS and peak figures for the host's output meter. It
	// runs in its own goroutine so the vectorized math never costs the
	// audio callback anything.
	Detector struct {
		broker *Broker

		chans   [2][]float32
		scratch []float32

		peak [2]float32
	}
)

// NewDetector creates a detector bound to the broker.
func NewDetector(broker *Broker) *Detector {
	return &Detector{broker: broker}
}

// Run is the detector main loop, to be called as a goroutine. It exits
// when CloseDetector is signaled and closes FinishedDetector on its way
// out.
func (d *Detector) Run() {
	defer close(d.broker.FinishedDetector)
	for {
		select {
		case <-d.broker.CloseDetector:
			return
		case msg := <-d.broker.ToDetector:
			if msg.Reset {
				d.peak = [2]float32{}
				continue
			}
			buf, ok := msg.Data.(*grainpad.AudioBuffer)
			if !ok {
				continue
			}
			result := d.analyze(*buf)
			d.broker.PutAudioBuffer(buf)
			TrySend(d.broker.ToModel, MsgToModel{
				HasDetectorResult: true,
				DetectorResult:    result,
			})
		}
	}
}

func (d *Detector) analyze(buf grainpad.AudioBuffer) DetectorResult {
	if len(buf) == 0 {
		return DetectorResult{
			RMS:  [2]Decibel{amplitudeToDb(0), amplitudeToDb(0)},
			Peak: [2]Decibel{amplitudeToDb(d.peak[0]), amplitudeToDb(d.peak[1])},
		}
	}
	for c := 0; c < 2; c++ {
		d.chans[c] = d.chans[c][:0]
		for _, frame := range buf {
			d.chans[c] = append(d.chans[c], frame[c])
		}
	}
	var ret DetectorResult
	for c := 0; c < 2; c++ {
		samples := d.chans[c]
		if cap(d.scratch) < len(samples) {
			d.scratch = make([]float32, len(samples))
		}
		d.scratch = d.scratch[:len(samples)]

		vek32.Mul_Into(d.scratch, samples, samples)
		rms := float32(math.Sqrt(float64(vek32.Mean(d.scratch))))

		vek32.Abs_Inplace(samples)
		if p := vek32.Max(samples); p > d.peak[c] {
			d.peak[c] = p
		}

		ret.RMS[c] = amplitudeToDb(rms)
		ret.Peak[c] = amplitudeToDb(d.peak[c])
	}
	return ret
}

func amplitudeToDb(amplitude float32) Decibel {
	if amplitude <= 0 {
		return Decibel(math.Inf(-1))
	}
	return Decibel(20 * math.Log10(float64(amplitude)))
}
