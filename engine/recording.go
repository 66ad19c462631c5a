package engine

import(
  "errors"
  "fmt"
  "math"
)

var ErrEmptyRecording = errors.New("recording has no samples")

/*
 * SourceRecording is a decoded mono or stereo recording held fully in memory.
 * It is never mutated after construction; loading a new file replaces it.
 */
type SourceRecording struct {
  channels [][]float64
  sampleRate float64
}

func NewSourceRecording(channels [][]float64, sampleRate float64) (*SourceRecording, error) {
  if len(channels) == 0 || len(channels) > 2 {
    return nil, fmt.Errorf("recording must have 1 or 2 channels, got %d", len(channels))
  }

  if sampleRate <= 0 || math.IsNaN(sampleRate) {
    return nil, fmt.Errorf("invalid sample rate %f", sampleRate)
  }

  length := len(channels[0])
  if length == 0 {
    return nil, ErrEmptyRecording
  }

  for c := 1; c < len(channels); c++ {
    if len(channels[c]) != length {
      return nil, fmt.Errorf("channel %d has %d samples, channel 0 has %d", c, len(channels[c]), length)
    }
  }

  return &SourceRecording{
    channels: channels,
    sampleRate: sampleRate,
  }, nil
}

func (sr *SourceRecording) Channels() [][]float64 {
  return sr.channels
}

func (sr *SourceRecording) NumChans() int {
  return len(sr.channels)
}

// Len is the number of sample frames
func (sr *SourceRecording) Len() int {
  return len(sr.channels[0])
}

func (sr *SourceRecording) SampleRate() float64 {
  return sr.sampleRate
}

func (sr *SourceRecording) Duration() float64 {
  return float64(sr.Len()) / sr.sampleRate
}

// clamps a sample position into [0, Len)
func (sr *SourceRecording) ClampPosition(position float64) float64 {
  if math.IsNaN(position) || position < 0 {
    return 0
  }

  last := float64(sr.Len() - 1)
  if position > last {
    return last
  }

  return position
}
