package engine

import(
  "fmt"
  "math"
  "math/rand/v2"
  "sync/atomic"
  "github.com/sirupsen/logrus"
)

const DefaultSampleRate = 44100.0

type EventKind int

const (
  NoteOn EventKind = iota
  NoteOff
  // transport start, the same as SetPlaying(true)
  ManualOn
  // transport stop
  ManualOff
  AllOff
)

// Event is a trigger arriving Offset frames into a rendered block
type Event struct {
  Kind EventKind
  Note int
  // 0-1, NoteOn with zero velocity is a NoteOff
  Velocity float64
  Offset int
}

type Option func(*Engine)

// WithVoices sets the polyphony, DefaultVoices when unset
func WithVoices(count int) Option {
  return func(e *Engine) {
    e.voices = count
  }
}

// WithSeed makes micro movement jitter reproducible
func WithSeed(seed uint64) Option {
  return func(e *Engine) {
    e.seed = seed
    e.seeded = true
  }
}

func WithLogger(logger *logrus.Logger) Option {
  return func(e *Engine) {
    e.logger = logger
  }
}

// WithSampleRate sets the output rate, used for glide time constants
func WithSampleRate(sampleRate float64) Option {
  return func(e *Engine) {
    e.sampleRate = sampleRate
  }
}

/*
 * Engine is the real-time phase vocoder. Control methods (SetParams,
 * SetPlaying, Load) may be called from any goroutine; Render must only be
 * called from a single audio goroutine. Control values reach the renderer
 * through atomic snapshots that it picks up at block boundaries.
 */
type Engine struct {
  sampleRate float64
  voices int
  seed uint64
  seeded bool
  logger *logrus.Logger
  log *logrus.Entry

  params atomic.Pointer[Params]
  source atomic.Pointer[SourceRecording]
  playing atomic.Bool
  // normalized, float64 bits
  playhead atomic.Uint64
  activeVoices atomic.Int32
  spectrum *SpectrumTap

  // owned by the render goroutine
  rs renderState
}

func New(opts ...Option) (*Engine, error) {
  e := &Engine{
    sampleRate: DefaultSampleRate,
    voices: DefaultVoices,
    logger: logrus.StandardLogger(),
  }

  for _, opt := range opts {
    opt(e)
  }

  if e.sampleRate <= 0 || math.IsNaN(e.sampleRate) {
    return nil, fmt.Errorf("sample rate must be positive, got %f", e.sampleRate)
  }

  if e.voices < 1 {
    return nil, fmt.Errorf("engine needs at least one voice, got %d", e.voices)
  }

  if !e.seeded {
    e.seed = rand.Uint64()
  }

  e.log = e.logger.WithFields(logrus.Fields{
    "component": "engine",
    "sampleRate": e.sampleRate,
  })

  params := DefaultParams()
  e.params.Store(&params)
  e.spectrum = NewSpectrumTap()

  if err := e.rs.init(e, params); err != nil {
    return nil, err
  }

  e.log.WithFields(logrus.Fields{
    "voices": e.voices,
    "seed": e.seed,
  }).Debug("engine created")

  return e, nil
}

func (e *Engine) SampleRate() float64 {
  return e.sampleRate
}

// SetParams publishes a normalized copy of p for the next block
func (e *Engine) SetParams(p Params) {
  normalized := p.Normalize()
  e.params.Store(&normalized)
}

func (e *Engine) Params() Params {
  return *e.params.Load()
}

/*
 * Load swaps in a new source recording; every voice is reset on the next
 * block. It reports false, leaving the current source in place, when rec
 * is nil.
 */
func (e *Engine) Load(rec *SourceRecording) bool {
  if rec == nil {
    e.log.Warn("ignoring load of nil recording")
    return false
  }

  e.source.Store(rec)

  e.log.WithFields(logrus.Fields{
    "frames": rec.Len(),
    "channels": rec.NumChans(),
    "sourceRate": rec.SampleRate(),
  }).Info("recording loaded")

  return true
}

// LoadChannels builds a SourceRecording from decoded channels and loads it
func (e *Engine) LoadChannels(channels [][]float64, sampleRate float64) bool {
  rec, err := NewSourceRecording(channels, sampleRate)
  if err != nil {
    e.log.WithError(err).Warn("recording rejected")
    return false
  }

  return e.Load(rec)
}

// Source is the current recording, nil before the first Load
func (e *Engine) Source() *SourceRecording {
  return e.source.Load()
}

func (e *Engine) SetPlaying(playing bool) {
  e.playing.Store(playing)
}

func (e *Engine) Playing() bool {
  return e.playing.Load()
}

// normalized position of the primary voice, or the transport position
func (e *Engine) Playhead() float64 {
  return math.Float64frombits(e.playhead.Load())
}

// Spectrum copies the primary voice's magnitudes into dst, returning the bin count
func (e *Engine) Spectrum(dst []float64) int {
  return e.spectrum.Read(dst)
}

// bins of the last published spectrum
func (e *Engine) SpectrumBins() int {
  return e.spectrum.Bins()
}

func (e *Engine) ActiveVoices() int {
  return int(e.activeVoices.Load())
}
