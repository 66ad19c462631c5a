package engine

import(
  "math"
  "math/rand/v2"
  "github.com/sirupsen/logrus"
  "grainfreeze/pvoc"
)

// playhead control changes smaller than this are ignored
const playheadEpsilon = 1e-5

// the parts of Params that need buffers rebuilt when they change
type blockConfig struct {
  sizeIndex int
  window pvoc.WindowType
  hopDivisor float64
  glideMs float64
}

func configOf(p *Params) blockConfig {
  return blockConfig{
    sizeIndex: p.SizeIndex,
    window: p.Window,
    hopDivisor: p.HopDivisor,
    glideMs: p.GlideMs,
  }
}

type renderState struct {
  pool *VoicePool
  transforms *pvoc.TransformPool
  windows *pvoc.WindowTable
  rng *rand.Rand
  source *SourceRecording
  // last seen configuration, and the size index actually in use
  config blockConfig
  sizeIndex int
  polyphonic bool
  wasPlaying bool
  // transport position and where the last start happened, in samples
  playhead float64
  startPosition float64
  lastPlayheadParam float64
  primary *Voice
  primarySpectrum []float64
  spectrumFresh bool
  ctx grainContext
}

func (rs *renderState) init(e *Engine, params Params) error {
  rs.transforms = pvoc.NewTransformPool()

  transform, err := rs.transforms.Prepare(params.SizeIndex)
  if err != nil {
    return err
  }

  rs.windows = pvoc.NewWindowTable(params.Window)
  rs.windows.Prepare(params.SizeIndex)
  rs.pool = NewVoicePool(e.voices, transform.Size)
  rs.rng = rand.New(rand.NewPCG(e.seed, e.seed ^ 0x9e3779b97f4a7c15))
  rs.config = configOf(&params)
  rs.sizeIndex = params.SizeIndex
  rs.polyphonic = params.Polyphonic
  rs.lastPlayheadParam = params.Playhead
  rs.primarySpectrum = make([]float64, transform.Bins, transform.Bins)

  rs.setGlide(e.sampleRate, params.GlideMs)

  return nil
}

func (rs *renderState) setGlide(sampleRate, glideMs float64) {
  for _, voice := range rs.pool.Voices() {
    voice.position.SetGlide(sampleRate, glideMs / 1000.0)
  }
}

// rebuilds whatever the configuration change touches. Allocates.
func (rs *renderState) reconfigure(e *Engine, next blockConfig) {
  previous := rs.config
  rs.config = next

  if next.sizeIndex != previous.sizeIndex {
    transform, err := rs.transforms.Prepare(next.sizeIndex)

    if err != nil {
      e.log.WithError(err).Error("keeping previous transform size")
    } else {
      rs.sizeIndex = next.sizeIndex
      rs.pool.Resize(transform.Size)
      rs.primarySpectrum = make([]float64, transform.Bins, transform.Bins)
      rs.primary = nil
    }
  }

  rs.windows.SetType(next.window)
  rs.windows.Prepare(rs.sizeIndex)

  if next.glideMs != previous.glideMs || next.sizeIndex != previous.sizeIndex {
    rs.setGlide(e.sampleRate, next.glideMs)
  }

  e.log.WithFields(logrus.Fields{
    "size": pvoc.SizeForIndex(rs.sizeIndex),
    "window": next.window.String(),
    "hopDivisor": next.hopDivisor,
    "glideMs": next.glideMs,
  }).Debug("configuration rebuilt")
}

// picks up source swaps, configuration changes and mode toggles
func (rs *renderState) sync(e *Engine, source *SourceRecording, params *Params) {
  if source != rs.source {
    rs.source = source
    rs.pool.Kill()
    rs.primary = nil
    rs.playhead = source.ClampPosition(params.Playhead * float64(source.Len()))
    rs.startPosition = rs.playhead
    rs.lastPlayheadParam = params.Playhead
    e.spectrum.Clear()

    e.log.WithFields(logrus.Fields{
      "frames": source.Len(),
      "channels": source.NumChans(),
    }).Debug("source swapped, voices reset")
  }

  if next := configOf(params); next != rs.config {
    rs.reconfigure(e, next)
  }

  if params.Polyphonic != rs.polyphonic {
    rs.polyphonic = params.Polyphonic
    rs.pool.ReleaseAll()

    e.log.WithField("polyphonic", params.Polyphonic).Debug("mode changed, voices released")
  }
}

// start remembers the position, stop returns to it; the playhead control
// relocates the transport when it moves
func (rs *renderState) transport(playing bool, params *Params, source *SourceRecording) {
  manual := rs.pool.Find(Manual())

  if playing && !rs.wasPlaying {
    rs.startPosition = rs.playhead
  } else if !playing && rs.wasPlaying {
    rs.playhead = rs.startPosition
    if manual != nil && manual.Playing() {
      manual.position.Snap(rs.playhead)
    }
  }

  if math.Abs(params.Playhead - rs.lastPlayheadParam) > playheadEpsilon {
    rs.lastPlayheadParam = params.Playhead
    rs.playhead = source.ClampPosition(params.Playhead * float64(source.Len()))

    if !playing {
      rs.startPosition = rs.playhead
    }

    // in freeze the new playhead becomes the glide target instead
    if !params.Freeze && manual != nil && manual.Playing() {
      manual.position.Snap(rs.playhead)
    }
  }
}

func (rs *renderState) prepareBlock(params *Params, source *SourceRecording) {
  transform := rs.transforms.Get(rs.sizeIndex)
  start, end := params.LoopBounds(source.Len())

  rs.ctx = grainContext{
    transform: transform,
    window: rs.windows.Coefficients(rs.sizeIndex),
    channels: source.Channels(),
    motion: Motion{
      LoopStart: start,
      LoopEnd: end,
      Speed: params.Speed(),
      Hop: pvoc.HopSize(transform.Size, params.HopDivisor),
      Micro: params.MicroMovement / 100.0,
      Length: float64(source.Len()),
    },
    ratio: params.PitchRatio(),
    hfBoost: params.HFBoost / 100.0,
    rng: rs.rng,
  }
}

// adds every active voice into out[from:to]
func (rs *renderState) renderSegment(out [][]float64, from, to int) {
  for _, voice := range rs.pool.Voices() {
    if !voice.Active() {
      continue
    }

    for i := from; i < to; i++ {
      sample, ranGrain := voice.next(&rs.ctx)

      if ranGrain && voice == rs.primary {
        copy(rs.primarySpectrum, rs.ctx.transform.Display)
        rs.spectrumFresh = true
      }

      for c := range out {
        out[c][i] += sample
      }
    }
  }
}

// one voice following the transport, gliding to the playhead when frozen
func (rs *renderState) renderManual(out [][]float64, frames int, params *Params, playing bool) {
  identity := Manual()
  voice := rs.pool.Find(identity)
  shouldBeActive := playing || params.Freeze

  if shouldBeActive && (voice == nil || !voice.Playing()) {
    voice = rs.pool.Trigger(identity, 1.0, rs.playhead)
  } else if !shouldBeActive && voice != nil && voice.Playing() {
    rs.pool.Release(identity)
  }

  if voice != nil && voice.Playing() {
    if params.Freeze {
      voice.position.SetMode(Gliding)
      voice.position.SetTarget(rs.playhead, rs.ctx.motion.LoopStart, rs.ctx.motion.LoopEnd)
    } else {
      voice.position.SetMode(Advancing)
    }
  }

  rs.primary = rs.pool.Primary()
  rs.renderSegment(out, 0, frames)

  if playing && !params.Freeze && voice != nil && voice.Playing() {
    rs.playhead = voice.Position()
  }
}

func (rs *renderState) noteTarget(params *Params, note int) float64 {
  return params.MapIdentityToPosition(note) * rs.ctx.motion.Length
}

func (rs *renderState) applyEvent(event Event, params *Params) {
  switch event.Kind {
  case NoteOn:
    if event.Velocity <= 0 {
      rs.pool.Release(Note(event.Note))
      return
    }

    target := rs.noteTarget(params, event.Note)
    voice := rs.pool.Trigger(Note(event.Note), math.Min(1.0, event.Velocity), target)

    // a full pool drops the note
    if voice != nil {
      voice.position.SetMode(Gliding)
      voice.position.SetTarget(target, rs.ctx.motion.LoopStart, rs.ctx.motion.LoopEnd)
    }
  case NoteOff:
    rs.pool.Release(Note(event.Note))
  case AllOff:
    rs.pool.ReleaseAll()
  }
}

// note voices, each gliding to the position its identity maps to. The block
// is split at event offsets.
func (rs *renderState) renderPolyphonic(out [][]float64, frames int, events []Event, params *Params) {
  for _, voice := range rs.pool.Voices() {
    if voice.Playing() && voice.identity.Kind == NoteTrigger {
      voice.position.SetMode(Gliding)
      voice.position.SetTarget(rs.noteTarget(params, voice.identity.Note), rs.ctx.motion.LoopStart, rs.ctx.motion.LoopEnd)
    }
  }

  rs.primary = rs.pool.Primary()
  cursor := 0

  for _, event := range events {
    offset := event.Offset
    if offset < cursor {
      offset = cursor
    } else if offset > frames {
      offset = frames
    }

    if offset > cursor {
      rs.renderSegment(out, cursor, offset)
      cursor = offset
    }

    rs.applyEvent(event, params)
    rs.primary = rs.pool.Primary()
  }

  if cursor < frames {
    rs.renderSegment(out, cursor, frames)
  }
}

// zeroes every channel and returns the usable frame count
func zeroOutput(out [][]float64) int {
  if len(out) == 0 {
    return 0
  }

  frames := len(out[0])
  for c := range out {
    if len(out[c]) < frames {
      frames = len(out[c])
    }

    for i := range out[c] {
      out[c][i] = 0
    }
  }

  return frames
}

/*
 * Render fills out (one slice per output channel) with the next block and
 * applies events at their frame offsets. It never blocks and, outside of
 * configuration changes, never allocates. With no source loaded the block
 * is silent.
 */
func (e *Engine) Render(out [][]float64, events []Event) {
  frames := zeroOutput(out)
  source := e.source.Load()

  if source == nil {
    e.activeVoices.Store(0)
    return
  }

  rs := &e.rs
  params := e.params.Load()
  rs.sync(e, source, params)

  for _, event := range events {
    switch event.Kind {
    case ManualOn:
      e.playing.Store(true)
    case ManualOff:
      e.playing.Store(false)
    }
  }

  playing := e.playing.Load()
  rs.transport(playing, params, source)
  rs.prepareBlock(params, source)

  if params.Polyphonic {
    rs.renderPolyphonic(out, frames, events, params)
  } else {
    rs.renderManual(out, frames, params, playing)
  }

  if rs.spectrumFresh {
    e.spectrum.Publish(rs.primarySpectrum)
    rs.spectrumFresh = false
  }

  position := rs.playhead
  if primary := rs.pool.Primary(); primary != nil {
    position = primary.Position()
  }
  e.playhead.Store(math.Float64bits(position / float64(source.Len())))
  e.activeVoices.Store(int32(rs.pool.ActiveCount()))

  // stopped transport mutes unless something sustains on its own
  if !playing && !params.Freeze && !params.Polyphonic {
    zeroOutput(out)
  }

  rs.wasPlaying = playing
}
