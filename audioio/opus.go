package audioio

import(
  "errors"
  "fmt"
  "math"
  "os"
  "github.com/cwbudde/algo-dsp/dsp/resample"
  "github.com/thesyncim/gopus"
  "github.com/thesyncim/gopus/container/ogg"
)

// opus always runs at 48k here, 20 ms packets
const OpusSampleRate = 48000
const OpusFrameSize = 960
const DefaultOpusBitrate = 128000

/*
 * OpusWriter encodes float frames into an Ogg Opus stream. Input at any
 * other rate is resampled per channel to 48k, and the final partial packet
 * is padded with silence on Close.
 */
type OpusWriter struct {
  AudioFile
  Bitrate int
  encoder *gopus.Encoder
  stream *ogg.Writer
  fileIo *os.File
  resamplers []*resample.Resampler
  writeBuffer [][]float64
  frames int
  // 48k samples per channel not yet encoded
  pending [][]float64
  pcm []float32
}

func (ow *OpusWriter) Create(bufferLength int) error {
  var err error

  if ow.NumChans < 1 || ow.NumChans > 2 {
    return fmt.Errorf("opus output supports 1 or 2 channels, got %d", ow.NumChans)
  }

  if ow.SampleRate <= 0 {
    return fmt.Errorf("invalid sample rate %d", ow.SampleRate)
  }

  if ow.Bitrate == 0 {
    ow.Bitrate = DefaultOpusBitrate
  }

  ow.encoder, err = gopus.NewEncoder(gopus.EncoderConfig{
    SampleRate: OpusSampleRate,
    Channels: ow.NumChans,
    Application: gopus.ApplicationAudio,
  })

  if err != nil {
    return fmt.Errorf("create opus encoder: %w", err)
  }

  if err = ow.encoder.SetBitrate(ow.Bitrate); err != nil {
    return fmt.Errorf("set opus bitrate: %w", err)
  }

  ow.writeBuffer = make([][]float64, ow.NumChans)
  ow.pending = make([][]float64, ow.NumChans)

  for c := 0; c < ow.NumChans; c++ {
    ow.writeBuffer[c] = make([]float64, bufferLength)

    if ow.SampleRate != OpusSampleRate {
      resampler, err := resample.NewForRates(
        float64(ow.SampleRate),
        OpusSampleRate,
        resample.WithQuality(resample.QualityBest),
      )

      if err != nil {
        return fmt.Errorf("create resampler: %w", err)
      }

      ow.resamplers = append(ow.resamplers, resampler)
    }
  }

  ow.pcm = make([]float32, OpusFrameSize * ow.NumChans)

  ow.fileIo, err = os.Create(ow.Filepath)

  if err != nil {
    return err
  }

  ow.stream, err = ogg.NewWriter(ow.fileIo, uint32(ow.SampleRate), uint8(ow.NumChans))

  if err != nil {
    return fmt.Errorf("create ogg writer: %w", err)
  }

  return nil
}

func (ow *OpusWriter) ZeroWriteBuffer() {
  for c := range ow.writeBuffer {
    for i := range ow.writeBuffer[c] {
      ow.writeBuffer[c][i] = 0
    }
  }
  ow.frames = 0
}

func (ow *OpusWriter) InterleaveChannel(channel int, data []float64) error {
  if channel < 0 || channel >= ow.NumChans {
    return fmt.Errorf("Requested channel (%d) is out of bounds 0-%d", channel, ow.NumChans - 1)
  }

  if len(data) > len(ow.writeBuffer[channel]) {
    return errors.New("Data to interleave will not fit into WriteBuffer")
  }

  copy(ow.writeBuffer[channel], data)

  if len(data) > ow.frames {
    ow.frames = len(data)
  }

  return nil
}

func (ow *OpusWriter) WriteNext() error {
  if ow.frames == 0 {
    return nil
  }

  for c := 0; c < ow.NumChans; c++ {
    block := ow.writeBuffer[c][:ow.frames]

    if ow.resamplers != nil {
      block = ow.resamplers[c].Process(block)
    }

    ow.pending[c] = append(ow.pending[c], block...)
  }

  return ow.encodePending()
}

// encodes every complete packet in pending
func (ow *OpusWriter) encodePending() error {
  for len(ow.pending[0]) >= OpusFrameSize {
    for i := 0; i < OpusFrameSize; i++ {
      for c := 0; c < ow.NumChans; c++ {
        ow.pcm[i * ow.NumChans + c] = float32(clipUnit(ow.pending[c][i]))
      }
    }

    packet, err := ow.encoder.EncodeFloat32(ow.pcm)

    if err != nil {
      return fmt.Errorf("encode opus packet: %w", err)
    }

    // the encoder returns nothing while filling its lookahead
    if len(packet) > 0 {
      if err = ow.stream.WritePacket(packet, OpusFrameSize); err != nil {
        return fmt.Errorf("write ogg packet: %w", err)
      }
    }

    for c := 0; c < ow.NumChans; c++ {
      ow.pending[c] = ow.pending[c][OpusFrameSize:]
    }
  }

  return nil
}

func (ow *OpusWriter) Close() error {
  var err error

  if remaining := len(ow.pending[0]); remaining > 0 {
    for c := 0; c < ow.NumChans; c++ {
      ow.pending[c] = append(ow.pending[c], make([]float64, OpusFrameSize - remaining)...)
    }
    err = ow.encodePending()
  }

  return errors.Join(err, ow.stream.Close(), ow.fileIo.Close())
}

func clipUnit(sample float64) float64 {
  if math.IsNaN(sample) {
    return 0
  }
  return math.Max(-1.0, math.Min(1.0, sample))
}
