package engine

import(
  "fmt"
  "math"
  "grainfreeze/pvoc"
)

// Control ranges
const (
  MinStretch = 0.1
  MaxStretch = 4.0
  MaxPitchSemitones = 24.0
  MaxGlideMs = 1000.0
  // smallest normalized loop span Normalize will leave
  MinLoopSpan = 0.001
  // identity that maps onto the center anchor
  CenterNote = 60
  MaxNote = 127
)

/*
 * Params is one immutable snapshot of every control value. Controllers build
 * a new one and hand it to Engine.SetParams; the renderer picks it up at the
 * next block boundary.
 */
type Params struct {
  // 1 plays at the recorded rate, larger is slower
  Stretch float64
  // index into pvoc.TransformSizes
  SizeIndex int
  HopDivisor float64
  PitchSemitones float64
  // percent, 0-100
  HFBoost float64
  // percent, 0-100
  MicroMovement float64
  GlideMs float64
  Window pvoc.WindowType
  // normalized 0-1
  LoopStart float64
  LoopEnd float64
  Freeze bool
  Polyphonic bool
  // normalized positions for identity 0, CenterNote and MaxNote
  AnchorMin float64
  AnchorCenter float64
  AnchorMax float64
  // normalized 0-1
  Playhead float64
}

func DefaultParams() Params {
  return Params{
    Stretch: 1.0,
    SizeIndex: pvoc.DefaultSizeIndex,
    HopDivisor: 4.0,
    PitchSemitones: 0.0,
    HFBoost: 10.0,
    MicroMovement: 20.0,
    GlideMs: 100.0,
    Window: pvoc.BlackmanHarris,
    LoopStart: 0.0,
    LoopEnd: 1.0,
    AnchorMin: 0.0,
    AnchorCenter: 0.5,
    AnchorMax: 1.0,
    Playhead: 0.0,
  }
}

func clamp(value, low, high, fallback float64) float64 {
  if math.IsNaN(value) {
    return fallback
  }

  return math.Max(low, math.Min(high, value))
}

// Normalize returns a copy with every field clamped to its documented range
// and a loop region with start < end
func (p Params) Normalize() Params {
  defaults := DefaultParams()

  p.Stretch = clamp(p.Stretch, MinStretch, MaxStretch, defaults.Stretch)
  p.SizeIndex = pvoc.ClampSizeIndex(p.SizeIndex)
  p.HopDivisor = clamp(p.HopDivisor, pvoc.MinHopDivisor, pvoc.MaxHopDivisor, defaults.HopDivisor)
  p.PitchSemitones = clamp(p.PitchSemitones, -MaxPitchSemitones, MaxPitchSemitones, defaults.PitchSemitones)
  p.HFBoost = clamp(p.HFBoost, 0, 100, defaults.HFBoost)
  p.MicroMovement = clamp(p.MicroMovement, 0, 100, defaults.MicroMovement)
  p.GlideMs = clamp(p.GlideMs, 0, MaxGlideMs, defaults.GlideMs)

  if !p.Window.Valid() {
    p.Window = defaults.Window
  }

  p.LoopStart = clamp(p.LoopStart, 0, 1, defaults.LoopStart)
  p.LoopEnd = clamp(p.LoopEnd, 0, 1, defaults.LoopEnd)

  if p.LoopEnd <= p.LoopStart {
    p.LoopEnd = math.Min(1.0, p.LoopStart + MinLoopSpan)
    if p.LoopEnd <= p.LoopStart {
      p.LoopStart = p.LoopEnd - MinLoopSpan
    }
  }

  p.AnchorMin = clamp(p.AnchorMin, 0, 1, defaults.AnchorMin)
  p.AnchorCenter = clamp(p.AnchorCenter, 0, 1, defaults.AnchorCenter)
  p.AnchorMax = clamp(p.AnchorMax, 0, 1, defaults.AnchorMax)
  p.Playhead = clamp(p.Playhead, 0, 1, defaults.Playhead)

  return p
}

func (p Params) TransformSize() int {
  return pvoc.SizeForIndex(p.SizeIndex)
}

func (p Params) HopSize() int {
  return pvoc.HopSize(p.TransformSize(), p.HopDivisor)
}

func (p Params) PitchRatio() float64 {
  return pvoc.PitchRatio(p.PitchSemitones)
}

// source samples advanced per output sample in normal playback
func (p Params) Speed() float64 {
  return 1.0 / math.Max(MinStretch, p.Stretch)
}

/*
 * LoopBounds converts the normalized loop to sample positions for a
 * recording of length samples. A degenerate loop collapses to the sample
 * below its end, and the span is always at least one sample.
 */
func (p Params) LoopBounds(length int) (start, end float64) {
  start = p.LoopStart * float64(length)
  end = p.LoopEnd * float64(length)

  if math.IsNaN(start) {
    start = 0
  }

  if math.IsNaN(end) {
    end = float64(length)
  }

  if start >= end {
    start = math.Max(0.0, end - 1.0)
  }

  if end - start < 1.0 {
    end = start + 1.0
  }

  return start, end
}

/*
 * MapIdentityToPosition maps a note identity onto a normalized position:
 * notes below CenterNote interpolate AnchorMin..AnchorCenter over 0..60,
 * the rest AnchorCenter..AnchorMax over 60..127
 */
func (p Params) MapIdentityToPosition(note int) float64 {
  if note < 0 {
    note = 0
  } else if note > MaxNote {
    note = MaxNote
  }

  if note < CenterNote {
    return p.AnchorMin + (p.AnchorCenter - p.AnchorMin) * float64(note) / float64(CenterNote)
  }

  return p.AnchorCenter + (p.AnchorMax - p.AnchorCenter) * float64(note - CenterNote) / float64(MaxNote - CenterNote)
}

func (p Params) String() (output string) {
  output += fmt.Sprintf("%24s   %.2f\n", "Stretch:", p.Stretch)
  output += fmt.Sprintf("%24s   %d\n", "Transform Size:", p.TransformSize())
  output += fmt.Sprintf("%24s   %d samples\n", "Hop Size:", p.HopSize())
  output += fmt.Sprintf("%24s   %.2f st\n", "Pitch:", p.PitchSemitones)
  output += fmt.Sprintf("%24s   %.0f %%\n", "HF Boost:", p.HFBoost)
  output += fmt.Sprintf("%24s   %.0f %%\n", "Micro Movement:", p.MicroMovement)
  output += fmt.Sprintf("%24s   %.0f ms\n", "Glide:", p.GlideMs)
  output += fmt.Sprintf("%24s   %s\n", "Window:", p.Window)
  output += fmt.Sprintf("%24s   %.3f - %.3f\n", "Loop:", p.LoopStart, p.LoopEnd)
  output += fmt.Sprintf("%24s   %t\n", "Freeze:", p.Freeze)
  output += fmt.Sprintf("%24s   %t\n", "Polyphonic:", p.Polyphonic)
  return
}
