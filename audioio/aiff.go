package audioio

import(
  "errors"
  "os"
  "github.com/go-audio/aiff"
)

type AiffReader struct {
  pcmReader
  decoder *aiff.Decoder
  fileIo *os.File
}

type AiffWriter struct {
  pcmWriter
  encoder *aiff.Encoder
  fileIo *os.File
}

// bufferLength: how many frames to read at one time
func (ar *AiffReader) Open(bufferLength int) error {
  var err error

  ar.fileIo, err = os.Open(ar.Filepath)

  if err != nil {
    return err
  }

  ar.decoder = aiff.NewDecoder(ar.fileIo)

  ar.decoder.ReadInfo()

  if ar.decoder.NumChans == 0 {
    return ErrNoChannels
  }

  if ar.decoder.SampleRate == 0 {
    return errors.New("AiffReader.decoder.SampleRate is 0")
  }

  if ar.decoder.BitDepth == 0 {
    return errors.New("AiffReader.decoder.BitDepth is 0")
  }

  ar.NumChans = int(ar.decoder.NumChans)
  ar.BitDepth = int(ar.decoder.BitDepth)
  ar.SampleRate = int(ar.decoder.SampleRate)
  ar.NumSampleFrames = int(ar.decoder.NumSampleFrames)
  duration, err := ar.decoder.Duration()

  if err != nil {
    return err
  }

  ar.Duration = duration.Seconds()
  ar.allocate(bufferLength)

  return nil
}

func (ar *AiffReader) Close() {
  if ar.fileIo == nil {
    return
  }

  ar.fileIo.Close()
  ar.fileIo = nil
}

// numSamples is the number of samples read across all channels
// numFrames is the number of samples per channel
func (ar *AiffReader) ReadNext() (numSamples, numFrames int, err error) {
  numSamples, err = ar.decoder.PCMBuffer(ar.ReadBuffer)
  numFrames = numSamples / ar.NumChans
  return
}

// AiffWriter
func (aw *AiffWriter) Create(bufferLength int) error {
  var err error

  if err = aw.allocate(bufferLength); err != nil {
    return err
  }

  aw.fileIo, err = os.Create(aw.Filepath)

  if err != nil {
    return err
  }

  aw.encoder = aiff.NewEncoder(
    aw.fileIo,
    aw.SampleRate,
    aw.BitDepth,
    aw.NumChans,
  )

  return nil
}

func (aw *AiffWriter) Close() error {
  encodeErr := aw.encoder.Close()
  fileErr := aw.fileIo.Close()
  return errors.Join(encodeErr, fileErr)
}

func (aw *AiffWriter) WriteNext() error {
  if aw.frames == 0 {
    return nil
  }

  return aw.encoder.Write(aw.pending())
}
