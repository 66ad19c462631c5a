package audioio

import(
  "errors"
  "os"
  "github.com/go-audio/wav"
)

type WaveReader struct {
  pcmReader
  decoder *wav.Decoder
  fileIo *os.File
}

type WaveWriter struct {
  pcmWriter
  encoder *wav.Encoder
  fileIo *os.File
}

// bufferLength: how many frames to read at one time
func (wr *WaveReader) Open(bufferLength int) error {
  var err error

  wr.fileIo, err = os.Open(wr.Filepath)

  if err != nil {
    return err
  }

  wr.decoder = wav.NewDecoder(wr.fileIo)

  wr.decoder.ReadInfo()

  if wr.decoder.NumChans == 0 {
    return ErrNoChannels
  }

  if wr.decoder.SampleRate == 0 {
    return errors.New("WaveReader.decoder.SampleRate is 0")
  }

  if wr.decoder.BitDepth == 0 {
    return errors.New("WaveReader.decoder.BitDepth is 0")
  }

  wr.NumChans = int(wr.decoder.NumChans)
  wr.BitDepth = int(wr.decoder.BitDepth)
  wr.SampleRate = int(wr.decoder.SampleRate)
  duration, err := wr.decoder.Duration()

  if err != nil {
    return err
  }

  wr.Duration = duration.Seconds()
  wr.NumSampleFrames = int(wr.Duration * float64(wr.SampleRate))
  wr.allocate(bufferLength)

  return nil
}

func (wr *WaveReader) Close() {
  if wr.fileIo == nil {
    return
  }

  wr.fileIo.Close()
  wr.fileIo = nil
}

// numSamples is the number of samples read across all channels
// numFrames is the number of samples per channel
func (wr *WaveReader) ReadNext() (numSamples, numFrames int, err error) {
  numSamples, err = wr.decoder.PCMBuffer(wr.ReadBuffer)
  numFrames = numSamples / wr.NumChans
  return
}

// WaveWriter
func (ww *WaveWriter) Create(bufferLength int) error {
  var err error

  if err = ww.allocate(bufferLength); err != nil {
    return err
  }

  ww.fileIo, err = os.Create(ww.Filepath)

  if err != nil {
    return err
  }

  ww.encoder = wav.NewEncoder(
    ww.fileIo,
    ww.SampleRate,
    ww.BitDepth,
    ww.NumChans,
    1, // Linear PCM
  )

  return nil
}

func (ww *WaveWriter) Close() error {
  encodeErr := ww.encoder.Close()
  fileErr := ww.fileIo.Close()
  return errors.Join(encodeErr, fileErr)
}

func (ww *WaveWriter) WriteNext() error {
  if ww.frames == 0 {
    return nil
  }

  return ww.encoder.Write(ww.pending())
}
