package pvoc

import(
  "math"
)

// Grain describes one analysis/resynthesis step of a voice
type Grain struct {
  // read position in source samples
  Position float64
  Hop int
  PitchRatio float64
  // high frequency emphasis, 0-1
  HFBoost float64
}

// VoiceState is the spectral memory a voice carries from grain to grain
type VoiceState struct {
  PreviousPhase []float64
  SynthesisPhase []float64
  Ring *RingAccumulator
}

func NewVoiceState(size int) *VoiceState {
  bins := Bins(size)

  return &VoiceState{
    PreviousPhase: make([]float64, bins, bins),
    SynthesisPhase: make([]float64, bins, bins),
    Ring: NewRingAccumulator(size * RingOverlap),
  }
}

func (vs *VoiceState) Size() int {
  return vs.Ring.Len() / RingOverlap
}

// Reset zeroes all state for a transform of the given size, only
// allocating when the size differs from the current one
func (vs *VoiceState) Reset(size int) {
  bins := Bins(size)

  if len(vs.PreviousPhase) != bins {
    vs.PreviousPhase = make([]float64, bins, bins)
    vs.SynthesisPhase = make([]float64, bins, bins)
  } else {
    for i := 0; i < bins; i++ {
      vs.PreviousPhase[i] = 0
      vs.SynthesisPhase[i] = 0
    }
  }

  vs.Ring.Resize(size * RingOverlap)
}

// first sample of the analysis frame, kept inside the recording when it is
// at least one transform long
func grainStart(position float64, length, size int) int {
  start := int(math.Floor(position))

  if start > length - size {
    start = length - size
  }

  if start < 0 {
    start = 0
  }

  return start
}

/*
 * ProcessGrain runs one phase vocoder grain for a voice: window the source at
 * the grain position, analyze, unwrap phases, remap bins by the pitch ratio,
 * resynthesize and overlap-add into the voice's ring at its cursor.
 * The remapped magnitudes are left in t.Display. It never allocates; false is
 * returned (and nothing is added) when the state does not match the transform.
 */
func ProcessGrain(t *Transform, window []float64, channels [][]float64, g Grain, state *VoiceState) bool {
  if t == nil || len(window) != t.Size || len(state.PreviousPhase) != t.Bins || state.Ring.Len() < t.Size {
    return false
  }

  length := 0
  if len(channels) > 0 {
    length = len(channels[0])
  }

  hop := g.Hop
  if hop < 1 {
    hop = 1
  }

  ratio := g.PitchRatio
  if ratio <= 0 || math.IsNaN(ratio) {
    ratio = 1.0
  }

  WindowFrame(channels, window, grainStart(g.Position, length, t.Size), t.frame)

  if err := t.Forward(); err != nil {
    return false
  }

  CartToPolar(t.spectrum, t.Magnitudes, t.phases)
  PhaseUnwrap(t.phases, state.PreviousPhase, t.Advances, t.Size, hop)
  PitchRemap(t.Magnitudes, t.Advances, t.Display, t.shiftedAdvances, ratio, g.HFBoost)
  PolarToCart(t.Display, t.shiftedAdvances, state.SynthesisPhase, t.spectrum)

  if err := t.Inverse(); err != nil {
    return false
  }

  OverlapAdd(t.frame, window, state.Ring.Data, state.Ring.Cursor(), OverlapNorm(t.Size, hop))

  return true
}
