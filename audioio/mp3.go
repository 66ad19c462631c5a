package audioio

import(
  "encoding/binary"
  "errors"
  "io"
  "os"
  "github.com/hajimehoshi/go-mp3"
)

// the decoder always produces 16 bit little endian stereo
const mp3Channels = 2
const mp3BitDepth = 16
const mp3BytesPerFrame = mp3Channels * 2

type Mp3Reader struct {
  pcmReader
  decoder *mp3.Decoder
  fileIo *os.File
  byteBuffer []byte
}

// bufferLength: how many frames to read at one time
func (mr *Mp3Reader) Open(bufferLength int) error {
  var err error

  mr.fileIo, err = os.Open(mr.Filepath)

  if err != nil {
    return err
  }

  mr.decoder, err = mp3.NewDecoder(mr.fileIo)

  if err != nil {
    return err
  }

  if mr.decoder.SampleRate() == 0 {
    return errors.New("Mp3Reader.decoder.SampleRate is 0")
  }

  mr.NumChans = mp3Channels
  mr.BitDepth = mp3BitDepth
  mr.SampleRate = mr.decoder.SampleRate()

  // Length is -1 when the stream is not seekable
  if length := mr.decoder.Length(); length > 0 {
    mr.NumSampleFrames = int(length / mp3BytesPerFrame)
  }

  mr.Duration = float64(mr.NumSampleFrames) / float64(mr.SampleRate)
  mr.byteBuffer = make([]byte, bufferLength * mp3BytesPerFrame)
  mr.allocate(bufferLength)

  return nil
}

func (mr *Mp3Reader) Close() {
  if mr.fileIo == nil {
    return
  }

  mr.fileIo.Close()
  mr.fileIo = nil
}

// numSamples is the number of samples read across all channels
// numFrames is the number of samples per channel
func (mr *Mp3Reader) ReadNext() (numSamples, numFrames int, err error) {
  n, err := io.ReadFull(mr.decoder, mr.byteBuffer)

  if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
    err = nil
  }

  if err != nil {
    return 0, 0, err
  }

  numFrames = n / mp3BytesPerFrame
  numSamples = numFrames * mp3Channels

  for i := 0; i < numSamples; i++ {
    mr.ReadBuffer.Data[i] = int(int16(binary.LittleEndian.Uint16(mr.byteBuffer[i * 2:])))
  }

  return numSamples, numFrames, nil
}
