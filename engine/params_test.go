package engine

import(
  "math"
  "testing"
  "grainfreeze/pvoc"
  . "grainfreeze/testing_utilities"
)

func TestLoopBoundsCorrection(t *testing.T) {
  tests := map[string]struct{
    start float64
    end float64
    length int
    expectedStart float64
    expectedEnd float64
  }{
    "valid loop untouched": {start: 0.25, end: 0.75, length: 1000, expectedStart: 250, expectedEnd: 750},
    "equal bounds": {start: 0.5, end: 0.5, length: 1000, expectedStart: 499, expectedEnd: 500},
    "inverted bounds": {start: 0.8, end: 0.2, length: 1000, expectedStart: 199, expectedEnd: 200},
    "both at zero": {start: 0.0, end: 0.0, length: 1000, expectedStart: 0, expectedEnd: 1},
    "sub sample span": {start: 0.5, end: 0.5001, length: 100, expectedStart: 50, expectedEnd: 51},
  }

  for name, test := range tests {
    t.Run(name, func(t *testing.T) {
      params := DefaultParams()
      params.LoopStart = test.start
      params.LoopEnd = test.end

      start, end := params.LoopBounds(test.length)

      Near(t, test.expectedStart, start, 1e-9)
      Near(t, test.expectedEnd, end, 1e-9)
      Assert(t, start < end, "start %f must be before end %f", start, end)
      Assert(t, end - start >= 1.0, "span %f is less than a sample", end - start)
    })
  }
}

func TestNormalizeClamps(t *testing.T) {
  params := Params{
    Stretch: 10.0,
    SizeIndex: 20,
    HopDivisor: 1.0,
    PitchSemitones: -30.0,
    HFBoost: math.NaN(),
    MicroMovement: 150.0,
    GlideMs: -5.0,
    Window: pvoc.WindowType(9),
    LoopStart: 1.0,
    LoopEnd: 1.0,
    AnchorMin: -1.0,
    AnchorCenter: 0.5,
    AnchorMax: 2.0,
    Playhead: 1.5,
  }.Normalize()

  Equals(t, MaxStretch, params.Stretch)
  Equals(t, len(pvoc.TransformSizes) - 1, params.SizeIndex)
  Equals(t, pvoc.MinHopDivisor, params.HopDivisor)
  Equals(t, -MaxPitchSemitones, params.PitchSemitones)
  Equals(t, 10.0, params.HFBoost)
  Equals(t, 100.0, params.MicroMovement)
  Equals(t, 0.0, params.GlideMs)
  Equals(t, pvoc.BlackmanHarris, params.Window)
  Equals(t, 1.0, params.LoopEnd)
  Near(t, 1.0 - MinLoopSpan, params.LoopStart, 1e-12)
  Equals(t, 0.0, params.AnchorMin)
  Equals(t, 1.0, params.AnchorMax)
  Equals(t, 1.0, params.Playhead)
}

func TestNormalizeFixesInvertedLoop(t *testing.T) {
  params := DefaultParams()
  params.LoopStart = 0.6
  params.LoopEnd = 0.2
  params = params.Normalize()

  Equals(t, 0.6, params.LoopStart)
  Near(t, 0.601, params.LoopEnd, 1e-12)
}

func TestMapIdentityToPosition(t *testing.T) {
  params := DefaultParams()
  params.AnchorMin = 0.2
  params.AnchorCenter = 0.5
  params.AnchorMax = 0.9

  Near(t, 0.2, params.MapIdentityToPosition(0), 1e-12)
  Near(t, 0.35, params.MapIdentityToPosition(30), 1e-12)
  Near(t, 0.5, params.MapIdentityToPosition(CenterNote), 1e-12)
  Near(t, 0.9, params.MapIdentityToPosition(MaxNote), 1e-12)
  Near(t, 0.9, params.MapIdentityToPosition(200), 1e-12)
  Near(t, 0.2, params.MapIdentityToPosition(-3), 1e-12)
  Assert(t, params.MapIdentityToPosition(61) > 0.5, "notes above center should move toward max")
}

func TestDerivedValues(t *testing.T) {
  params := DefaultParams()

  Equals(t, 4096, params.TransformSize())
  Equals(t, 1024, params.HopSize())
  Near(t, 1.0, params.PitchRatio(), 1e-12)
  Near(t, 1.0, params.Speed(), 1e-12)

  params.Stretch = 0.05
  Near(t, 10.0, params.Speed(), 1e-12)
}
