package audioio

import(
  "errors"
  "fmt"
  "math"
  "github.com/go-audio/audio"
)

// shared state of the integer PCM readers
type pcmReader struct {
  AudioFile
  ReadBuffer *audio.IntBuffer
  NumSampleFrames int
  Duration float64
}

// shared state of the integer PCM writers
type pcmWriter struct {
  AudioFile
  WriteBuffer *audio.IntBuffer
  maxSampleValue int
  // frames interleaved since the last write
  frames int
}

// Getters
func (pr *pcmReader) GetBitDepth() int {
  return pr.BitDepth
}

func (pr *pcmReader) GetSampleRate() int {
  return pr.SampleRate
}

func (pr *pcmReader) GetNumChans() int {
  return pr.NumChans
}

func (pr *pcmReader) GetNumSampleFrames() int {
  return pr.NumSampleFrames
}

func (pr *pcmReader) GetDuration() float64 {
  return pr.Duration
}

func (pr *pcmReader) allocate(bufferLength int) {
  format := &audio.Format{
    NumChannels: pr.NumChans,
    SampleRate: pr.SampleRate,
  }

  pr.ReadBuffer = &audio.IntBuffer{
    Format: format,
    Data: make([]int, bufferLength * pr.NumChans),
    SourceBitDepth: pr.BitDepth,
  }
}

// channel is zero indexed
func (pr *pcmReader) ExtractChannel(channel int) (*audio.IntBuffer, error) {
  if pr.NumChans == 0 {
    return nil, ErrNoChannels
  }

  if channel < 0 || channel > pr.NumChans - 1 {
    return nil, fmt.Errorf("Requested channel (%d) is out of bounds 0-%d", channel, pr.NumChans - 1)
  }

  buffer := &audio.IntBuffer{
    Format: pr.ReadBuffer.Format,
    Data: make([]int, pr.ReadBuffer.NumFrames()),
    SourceBitDepth: pr.ReadBuffer.SourceBitDepth,
  }

  x := 0
  for i := channel; i < len(pr.ReadBuffer.Data); i += pr.NumChans {
    buffer.Data[x] = pr.ReadBuffer.Data[i]
    x++
  }

  return buffer, nil
}

func (pw *pcmWriter) allocate(bufferLength int) error {
  format := &audio.Format{
    NumChannels: pw.NumChans,
    SampleRate: pw.SampleRate,
  }

  pw.WriteBuffer = &audio.IntBuffer{
    Format: format,
    Data: make([]int, bufferLength * pw.NumChans),
    SourceBitDepth: pw.BitDepth,
  }

  pw.maxSampleValue = IntMaxSignedValue[pw.BitDepth]

  if pw.maxSampleValue == 0 {
    return fmt.Errorf("BitDepth %d returned invalid integer max signed value of 0", pw.BitDepth)
  }

  return nil
}

func (pw *pcmWriter) ZeroWriteBuffer() {
  for i := 0; i < len(pw.WriteBuffer.Data); i++ {
    pw.WriteBuffer.Data[i] = 0
  }
  pw.frames = 0
}

// scales -1..1 samples to the bit depth, clipping anything outside
func (pw *pcmWriter) InterleaveChannel(channel int, data []float64) error {
  if len(data) * pw.NumChans > len(pw.WriteBuffer.Data) {
    return errors.New("Data to interleave will not fit into WriteBuffer")
  }

  if channel < 0 || channel >= pw.NumChans {
    return fmt.Errorf("Requested channel (%d) is out of bounds 0-%d", channel, pw.NumChans - 1)
  }

  maxValue := float64(pw.maxSampleValue)

  for frameNumber := 0; frameNumber < len(data); frameNumber++ {
    sample := math.Round(data[frameNumber] * maxValue)

    if math.IsNaN(sample) {
      sample = 0
    } else if sample > maxValue {
      sample = maxValue
    } else if sample < -maxValue {
      sample = -maxValue
    }

    pw.WriteBuffer.Data[frameNumber * pw.NumChans + channel] = int(sample)
  }

  if len(data) > pw.frames {
    pw.frames = len(data)
  }

  return nil
}

// the interleaved frames waiting to be written
func (pw *pcmWriter) pending() *audio.IntBuffer {
  return &audio.IntBuffer{
    Format: pw.WriteBuffer.Format,
    Data: pw.WriteBuffer.Data[:pw.frames * pw.NumChans],
    SourceBitDepth: pw.WriteBuffer.SourceBitDepth,
  }
}
