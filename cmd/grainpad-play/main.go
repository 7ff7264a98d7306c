package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/saarni/grainpad"
	"github.com/saarni/grainpad/control"
	"github.com/saarni/grainpad/oto"
	"github.com/saarni/grainpad/sample"
	"github.com/saarni/grainpad/version"
)

func main() {
	samplePath := flag.String("i", "", "Sample .wav file the pads granulate. Required.")
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the same directory where the original bank file is.")
	play := flag.Bool("p", false, "Play the input pad banks (default behaviour when no other output is defined).")
	duration := flag.Float64("d", 8, "Playback/render length in seconds.")
	rawOut := flag.Bool("r", false, "Output the rendered audio as .raw file. By default, saves stereo float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered audio as .wav file. By default, saves stereo float32 buffer to disk.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	sampleRate := flag.Int("rate", 44100, "Output sample rate in Hz.")
	numVoices := flag.Int("voices", control.DefaultNumVoices, "Size of the voice pool.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help || *samplePath == "" {
		flag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the bank
	}
	buf, err := sample.Load(*samplePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load sample: %v\n", err)
		os.Exit(1)
	}
	var audioContext grainpad.AudioContext
	if *play {
		audioContext, err = oto.NewContext(*sampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
			os.Exit(1)
		}
	}
	process := func(filename string) error {
		output := func(extension string, contents []byte) error {
			if *stdout {
				os.Stdout.Write(contents)
				return nil
			}
			dir, name := filepath.Split(filename)
			if *directory != "" {
				dir = *directory
			}
			name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
			f := filepath.Join(dir, name)
			if dir != "" {
				if err := os.MkdirAll(dir, os.ModePerm); err != nil {
					return fmt.Errorf("could not create output directory %v: %v", dir, err)
				}
			}
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		f, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("could not open file %v: %v", filename, err)
		}
		bank, err := grainpad.ReadBank(f)
		f.Close()
		if err != nil {
			return err
		}
		if *play {
			if err := playBank(audioContext, buf, bank, *sampleRate, *numVoices, *duration); err != nil {
				return err
			}
		}
		if *rawOut || *wavOut {
			rendered, err := renderBank(buf, bank, *sampleRate, *numVoices, *duration)
			if err != nil {
				return err
			}
			if *rawOut {
				raw, err := rendered.Raw(*pcm)
				if err != nil {
					return fmt.Errorf("could not generate .raw file: %v", err)
				}
				if err := output(".raw", raw); err != nil {
					return fmt.Errorf("error outputting .raw file: %v", err)
				}
			}
			if *wavOut {
				wav, err := rendered.Wav(*sampleRate, *pcm)
				if err != nil {
					return fmt.Errorf("could not generate .wav file: %v", err)
				}
				if err := output(".wav", wav); err != nil {
					return fmt.Errorf("error outputting .wav file: %v", err)
				}
			}
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if err := process(param); err != nil {
			fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
			retval = 1
		}
	}
	if audioContext != nil {
		audioContext.Close()
	}
	os.Exit(retval)
}

// setup builds the actor graph for one bank: broker, player, detector
// goroutine and the manager with every pad triggered.
func setup(buf *grainpad.SampleBuffer, bank *grainpad.PadBank, sampleRate, numVoices int, clock func() time.Time) (*control.Broker, *control.Player, *control.Manager, error) {
	broker := control.NewBroker()
	player, err := control.NewPlayer(broker, sampleRate, numVoices)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not create player: %v", err)
	}
	go control.NewDetector(broker).Run()
	manager := control.NewManager(broker, numVoices)
	if clock != nil {
		manager.SetClock(clock)
	}
	manager.SetBuffer(buf)
	for i, pad := range bank.Pads {
		manager.Trigger(control.TriggerOpts{
			Pad:         i,
			Region:      pad.Region,
			Granular:    pad.Granular,
			Effects:     pad.Effects,
			X:           pad.X,
			Y:           pad.Y,
			Motion:      pad.Motion,
			MotionMode:  pad.MotionMode,
			MotionSpeed: pad.MotionSpeed,
			Corners:     pad.Corners,
		})
	}
	return broker, player, manager, nil
}

func playBank(audioContext grainpad.AudioContext, buf *grainpad.SampleBuffer, bank *grainpad.PadBank, sampleRate, numVoices int, duration float64) error {
	broker, player, manager, err := setup(buf, bank, sampleRate, numVoices, nil)
	if err != nil {
		return err
	}
	stream := audioContext.Play(player)
	ticker := time.NewTicker(time.Second / 60)
	deadline := time.After(time.Duration(duration * float64(time.Second)))
loop:
	for {
		select {
		case <-ticker.C:
			manager.Tick()
		case <-deadline:
			break loop
		}
	}
	ticker.Stop()
	manager.StopAll()
	time.Sleep(500 * time.Millisecond) // let tails ring out
	if err := stream.Close(); err != nil {
		return err
	}
	broker.CloseDetector <- struct{}{}
	<-broker.FinishedDetector
	return nil
}

// renderBank renders the bank offline, driving the manager with a
// synthetic clock so motion paths advance in render time, not wall time.
func renderBank(buf *grainpad.SampleBuffer, bank *grainpad.PadBank, sampleRate, numVoices int, duration float64) (grainpad.AudioBuffer, error) {
	const blockFrames = 512
	clock := time.Unix(0, 0)
	broker, player, manager, err := setup(buf, bank, sampleRate, numVoices, func() time.Time { return clock })
	if err != nil {
		return nil, err
	}
	totalFrames := int(duration * float64(sampleRate))
	rendered := make(grainpad.AudioBuffer, 0, totalFrames)
	block := make(grainpad.AudioBuffer, blockFrames)
	for frames := 0; frames < totalFrames; frames += blockFrames {
		manager.Tick()
		n := blockFrames
		if totalFrames-frames < n {
			n = totalFrames - frames
		}
		if _, err := player.ReadAudio(block[:n]); err != nil {
			return nil, fmt.Errorf("render failed: %v", err)
		}
		rendered = append(rendered, block[:n]...)
		clock = clock.Add(time.Duration(n) * time.Second / time.Duration(sampleRate))
	}
	broker.CloseDetector <- struct{}{}
	<-broker.FinishedDetector
	return rendered, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Grainpad command line utility for playing .yml/.json pad bank files.\nUsage: %s -i sample.wav [flags] [bankfile ...]\n", os.Args[0])
	flag.PrintDefaults()
}
