package audioio

import(
  "os"
  "fmt"
  "errors"
  "github.com/go-audio/audio"
  "bytes"
  "path/filepath"
  "strings"
)

var IntMaxSignedValue = map[int]int {
  8: 127,
  16: 32767,
  24: 8388607,
  32: 2147483647,
}

const TYPE_INVALID = -1
const TYPE_AIFF = 1
const TYPE_WAVE = 2
const TYPE_MP3 = 3
const TYPE_OPUS = 4

var ErrInvalidFileType = errors.New("invalid file type")
var ErrNoChannels = errors.New("audio file has no channels")

type Reader interface {
  Open(bufferLength int) error
  Close()
  ReadNext() (int, int, error)
  ExtractChannel(channel int) (*audio.IntBuffer, error)
  GetBitDepth() int
  GetSampleRate() int
  GetNumChans() int
  GetNumSampleFrames() int
  GetDuration() float64
}

// Writers take float samples in -1..1, one channel at a time, then write the
// interleaved frames with WriteNext.
type Writer interface {
  Create(bufferLength int) error
  Close() error
  WriteNext() error
  InterleaveChannel(channel int, data []float64) error
  ZeroWriteBuffer()
}

type AudioFile struct {
  Filepath string
  NumChans int
  BitDepth int
  SampleRate int
}

type AudioReader struct {
  Reader Reader
  fileType int
}

type AudioWriter struct {
  Writer Writer
  fileType int
}

// determines a filetype based on the given file extension, the file does not have to exist
func returnFileTypeFromExtension(filePath string) (int, error) {
  extension := strings.ToLower(filepath.Ext(filePath))

  switch extension {
  case ".aiff", ".aif":
    return TYPE_AIFF, nil
  case ".wave", ".wav":
    return TYPE_WAVE, nil
  case ".mp3":
    return TYPE_MP3, nil
  case ".opus", ".ogg":
    return TYPE_OPUS, nil
  }

  return TYPE_INVALID, ErrInvalidFileType
}

// Reades the magic bytes of the given file and returns the file type const.
// File must exist on disk
func returnFileType(filePath string) (int, error) {
  file, err := os.Open(filePath)

  if err != nil {
    return TYPE_INVALID, err
  }

  defer file.Close()

  headerBytes := make([]byte, 12)
  if _, err := file.Read(headerBytes); err != nil {
    return TYPE_INVALID, err
  }

  return fileTypeFromHeader(headerBytes)
}

func fileTypeFromHeader(headerBytes []byte) (int, error) {
  if len(headerBytes) < 12 {
    return TYPE_INVALID, ErrInvalidFileType
  }

  headerBytes8 := []byte{}
  headerBytes8 = append(headerBytes8, headerBytes[:4]...)
  headerBytes8 = append(headerBytes8, headerBytes[8:]...)

  switch {
  case bytes.Equal(headerBytes8, []byte("FORMAIFF")):
    return TYPE_AIFF, nil
  case bytes.Equal(headerBytes8, []byte("RIFFWAVE")):
    return TYPE_WAVE, nil
  case bytes.HasPrefix(headerBytes, []byte("OggS")):
    return TYPE_OPUS, nil
  case bytes.HasPrefix(headerBytes, []byte("ID3")):
    return TYPE_MP3, nil
  // bare mpeg frame sync
  case headerBytes[0] == 0xFF && headerBytes[1] & 0xE0 == 0xE0:
    return TYPE_MP3, nil
  }

  return TYPE_INVALID, ErrInvalidFileType
}

func NewAudioReader(filePath string) (ar *AudioReader, err error) {
  ar = &AudioReader{}

  fileType, err := returnFileType(filePath)

  if err != nil {
    return nil, err
  }

  audioFile := AudioFile{Filepath: filePath}

  switch fileType {
  case TYPE_AIFF:
    ar.Reader = &AiffReader{pcmReader: pcmReader{AudioFile: audioFile}}
  case TYPE_WAVE:
    ar.Reader = &WaveReader{pcmReader: pcmReader{AudioFile: audioFile}}
  case TYPE_MP3:
    ar.Reader = &Mp3Reader{pcmReader: pcmReader{AudioFile: audioFile}}
  default:
    return nil, fmt.Errorf("AudioReader doesn't implement filetype %d: %w", fileType, ErrInvalidFileType)
  }

  ar.fileType = fileType

  return ar, nil
}

// delegate to the reader
func (ar *AudioReader) Open(bufferLength int) (err error) {
  return ar.Reader.Open(bufferLength)
}

func (ar *AudioReader) Close() {
  ar.Reader.Close()
}

func (ar *AudioReader) ReadNext() (int, int, error) {
  return ar.Reader.ReadNext()
}

func (ar *AudioReader) ExtractChannel(channel int) (*audio.IntBuffer, error) {
  return ar.Reader.ExtractChannel(channel)
}

func (ar *AudioReader) GetNumChans() int {
  return ar.Reader.GetNumChans()
}

func (ar *AudioReader) GetBitDepth() int {
  return ar.Reader.GetBitDepth()
}

func (ar *AudioReader) GetSampleRate() int {
  return ar.Reader.GetSampleRate()
}

func (ar *AudioReader) GetNumSampleFrames() int {
  return ar.Reader.GetNumSampleFrames()
}

func (ar *AudioReader) GetDuration() float64 {
  return ar.Reader.GetDuration()
}

func (ar *AudioReader) FileType() int {
  return ar.fileType
}

// Audio Writer
func NewAudioWriter(audioFile AudioFile) (aw *AudioWriter, err error) {
  aw = &AudioWriter{}

  fileType, err := returnFileTypeFromExtension(audioFile.Filepath)

  if err != nil {
    return nil, err
  }

  if audioFile.NumChans < 1 {
    return nil, ErrNoChannels
  }

  switch fileType {
  case TYPE_AIFF:
    aw.Writer = &AiffWriter{pcmWriter: pcmWriter{AudioFile: audioFile}}
  case TYPE_WAVE:
    aw.Writer = &WaveWriter{pcmWriter: pcmWriter{AudioFile: audioFile}}
  case TYPE_OPUS:
    aw.Writer = &OpusWriter{AudioFile: audioFile}
  default:
    return nil, fmt.Errorf("AudioWriter doesn't implement filetype %d: %w", fileType, ErrInvalidFileType)
  }

  aw.fileType = fileType

  return aw, nil
}

// delegate to Writer
func (aw *AudioWriter) Create(bufferLength int) error {
  return aw.Writer.Create(bufferLength)
}

func (aw *AudioWriter) Close() error {
  return aw.Writer.Close()
}

func (aw *AudioWriter) ZeroWriteBuffer() {
  aw.Writer.ZeroWriteBuffer()
}

func (aw *AudioWriter) InterleaveChannel(channel int, data []float64) error {
  return aw.Writer.InterleaveChannel(channel, data)
}

func (aw *AudioWriter) WriteNext() error {
  return aw.Writer.WriteNext()
}

func (aw *AudioWriter) FileType() int {
  return aw.fileType
}
