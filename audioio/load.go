package audioio

import(
  "errors"
  "fmt"
  "io"
  "github.com/cwbudde/algo-dsp/dsp/resample"
  "grainfreeze/engine"
)

// frames decoded per read while loading
const LoadBufferLength = 4096

/*
 * LoadRecording decodes an AIFF, WAV or MP3 file into a SourceRecording with
 * samples normalized to -1..1. Files with more than two channels keep the
 * first two. When the file rate differs from sampleRate every channel is
 * resampled to it.
 */
func LoadRecording(filePath string, sampleRate float64) (*engine.SourceRecording, error) {
  reader, err := NewAudioReader(filePath)

  if err != nil {
    return nil, fmt.Errorf("open %s: %w", filePath, err)
  }

  // Open can fail after the file is already open
  defer reader.Close()

  if err = reader.Open(LoadBufferLength); err != nil {
    return nil, fmt.Errorf("read header of %s: %w", filePath, err)
  }

  numChans := reader.GetNumChans()
  if numChans == 0 {
    return nil, ErrNoChannels
  }

  keep := min(numChans, 2)

  maxValue := IntMaxSignedValue[reader.GetBitDepth()]
  if maxValue == 0 {
    return nil, fmt.Errorf("unsupported bit depth %d", reader.GetBitDepth())
  }

  scale := 1.0 / float64(maxValue)
  channels := make([][]float64, keep)

  for c := range channels {
    channels[c] = make([]float64, 0, reader.GetNumSampleFrames())
  }

  for {
    _, numFrames, err := reader.ReadNext()
    finished := errors.Is(err, io.EOF)

    if err != nil && !finished {
      return nil, fmt.Errorf("decode %s: %w", filePath, err)
    }

    for c := 0; c < keep; c++ {
      buffer, err := reader.ExtractChannel(c)

      if err != nil {
        return nil, err
      }

      for _, sample := range buffer.Data[:numFrames] {
        channels[c] = append(channels[c], float64(sample) * scale)
      }
    }

    if finished || numFrames == 0 {
      break
    }
  }

  fileRate := float64(reader.GetSampleRate())

  if fileRate != sampleRate {
    for c := range channels {
      channels[c], err = resampleChannel(channels[c], fileRate, sampleRate)

      if err != nil {
        return nil, fmt.Errorf("resample %s from %.0f Hz: %w", filePath, fileRate, err)
      }
    }
  }

  recording, err := engine.NewSourceRecording(channels, sampleRate)

  if err != nil {
    return nil, fmt.Errorf("load %s: %w", filePath, err)
  }

  return recording, nil
}

func resampleChannel(samples []float64, fromRate, toRate float64) ([]float64, error) {
  resampler, err := resample.NewForRates(
    fromRate,
    toRate,
    resample.WithQuality(resample.QualityBest),
  )

  if err != nil {
    return nil, err
  }

  return resampler.Process(samples), nil
}
