// Package wavfile reads and writes the PCM WAV files used as audio chunks.
package wavfile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// HeaderSize is the size of a canonical PCM WAV header.
const HeaderSize = 44

// ErrInvalidFile is returned for files that are not readable PCM WAV.
var ErrInvalidFile = errors.New("not a valid WAV file")

// Format describes a WAV file.
type Format struct {
	SampleRateHz int
	Channels     int
	BitDepth     int
	Duration     time.Duration
}

// Probe reads the header of the WAV file at path.
func Probe(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Format{}, fmt.Errorf("%s: %w", path, ErrInvalidFile)
	}
	dur, err := d.Duration()
	if err != nil {
		return Format{}, fmt.Errorf("read duration: %w", err)
	}
	return Format{
		SampleRateHz: int(d.SampleRate),
		Channels:     int(d.NumChans),
		BitDepth:     int(d.BitDepth),
		Duration:     dur,
	}, nil
}

// WriteSamples writes 16-bit PCM samples to a new WAV file at path.
func WriteSamples(path string, samples []int, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// WriteSilence writes a mono WAV file of the given duration containing silence.
func WriteSilence(path string, d time.Duration, sampleRate int) error {
	n := int(d.Seconds() * float64(sampleRate))
	if n < 1 {
		n = 1
	}
	return WriteSamples(path, make([]int, n), sampleRate, 1)
}

// HasAudio reports whether the file at path holds any sample data.
func HasAudio(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Size() > HeaderSize
}
