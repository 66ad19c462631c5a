package engine

import(
  "fmt"
  "math/rand/v2"
  "grainfreeze/pvoc"
)

type TriggerKind int

const (
  // the single transport driven voice
  ManualTrigger TriggerKind = iota
  NoteTrigger
)

// Identity says who started a voice. The manual voice never collides with a note.
type Identity struct {
  Kind TriggerKind
  Note int
}

func Manual() Identity {
  return Identity{Kind: ManualTrigger}
}

func Note(note int) Identity {
  return Identity{Kind: NoteTrigger, Note: note}
}

func (id Identity) String() string {
  if id.Kind == ManualTrigger {
    return "manual"
  }
  return fmt.Sprintf("note %d", id.Note)
}

type voiceState int

const (
  voiceIdle voiceState = iota
  voicePlaying
  // no more grains, the ring is draining
  voiceReleasing
)

/*
 * Voice is one independent read position into the source with its own
 * spectral memory. Voices are owned by the VoicePool and reused.
 */
type Voice struct {
  identity Identity
  velocity float64
  state voiceState
  position PositionController
  spectral *pvoc.VoiceState
  // samples until the next grain
  countdown int
  // hop of the last grain, zero before the first one
  hop int
  // samples of ring left to play after release
  tail int
  // trigger order, used to pick the primary voice
  age uint64
}

func newVoice(size int) *Voice {
  return &Voice{
    spectral: pvoc.NewVoiceState(size),
  }
}

func (v *Voice) Identity() Identity {
  return v.identity
}

func (v *Voice) Velocity() float64 {
  return v.velocity
}

func (v *Voice) Active() bool {
  return v.state != voiceIdle
}

func (v *Voice) Playing() bool {
  return v.state == voicePlaying
}

func (v *Voice) Releasing() bool {
  return v.state == voiceReleasing
}

func (v *Voice) Position() float64 {
  return v.position.Position()
}

func (v *Voice) start(identity Identity, velocity, target float64, age uint64) {
  v.identity = identity
  v.velocity = velocity
  v.state = voicePlaying
  v.age = age
  v.countdown = 0
  v.hop = 0
  v.tail = 0
  v.spectral.Reset(v.spectral.Size())
  v.position.Snap(target)
}

// release lets whatever the last grain wrote play out, then frees the voice
func (v *Voice) release() {
  if v.state != voicePlaying {
    return
  }

  v.tail = 0
  if v.hop > 0 {
    v.tail = v.spectral.Size() - (v.hop - v.countdown)
  }

  if v.tail <= 0 {
    v.kill()
    return
  }

  v.state = voiceReleasing
}

// reset clears the spectral memory for a transform of size, keeping the
// voice's identity, velocity and position
func (v *Voice) reset(size int) {
  v.spectral.Reset(size)
  v.countdown = 0
  v.hop = 0
  v.tail = 0
}

// stop immediately, discarding the ring
func (v *Voice) kill() {
  v.state = voiceIdle
  v.tail = 0
  v.spectral.Ring.Zero()
}

// grainContext is everything a voice needs from the renderer for one block
type grainContext struct {
  transform *pvoc.Transform
  window []float64
  channels [][]float64
  motion Motion
  ratio float64
  hfBoost float64
  rng *rand.Rand
}

/*
 * next renders one output sample. ranGrain reports whether a grain was
 * processed for this sample, in which case ctx.transform.Display holds its
 * magnitudes.
 */
func (v *Voice) next(ctx *grainContext) (sample float64, ranGrain bool) {
  switch v.state {
  case voicePlaying:
    position := v.position.Step(ctx.motion, ctx.rng)

    if v.countdown <= 0 {
      grain := pvoc.Grain{
        Position: position,
        Hop: ctx.motion.Hop,
        PitchRatio: ctx.ratio,
        HFBoost: ctx.hfBoost,
      }
      ranGrain = pvoc.ProcessGrain(ctx.transform, ctx.window, ctx.channels, grain, v.spectral)
      v.countdown = ctx.motion.Hop
      v.hop = ctx.motion.Hop
    }

    sample = v.spectral.Ring.Pop() * v.velocity
    v.countdown--
  case voiceReleasing:
    sample = v.spectral.Ring.Pop() * v.velocity
    v.tail--

    if v.tail <= 0 {
      v.kill()
    }
  }

  return sample, ranGrain
}
