package pvoc

import(
  "math"
  "math/cmplx"
  "testing"
  "github.com/mjibson/go-dsp/fft"
  . "grainfreeze/testing_utilities"
)

// exact-bin sinusoid, bin cycles per size samples
func sineAtBin(length, size int, bin float64) []float64 {
  samples := make([]float64, length)
  for i := range samples {
    samples[i] = 0.5 * math.Sin(twoPi * bin * float64(i) / float64(size))
  }
  return samples
}

func peakBin(magnitudes []float64, from, to int) int {
  peak := from
  for bin := from; bin < to; bin++ {
    if magnitudes[bin] > magnitudes[peak] {
      peak = bin
    }
  }
  return peak
}

func spectrumMagnitudes(samples []float64) []float64 {
  spectrum := fft.FFTReal(samples)
  magnitudes := make([]float64, len(samples) / 2 + 1)
  for bin := range magnitudes {
    magnitudes[bin] = cmplx.Abs(spectrum[bin])
  }
  return magnitudes
}

// runs grains hop samples apart starting at zero, popping hop samples of
// output after each one like the renderer does
func runGrains(t *testing.T, sizeIndex int, hop int, ratio float64, grains int, source []float64) ([]float64, *Transform) {
  pool := NewTransformPool()
  transform, err := pool.Prepare(sizeIndex)
  Ok(t, err)

  window := NewWindowTable(Hann).Prepare(sizeIndex)
  state := NewVoiceState(transform.Size)
  channels := [][]float64{source}
  output := []float64{}

  for g := 0; g < grains; g++ {
    grain := Grain{Position: float64(g * hop), Hop: hop, PitchRatio: ratio}
    Assert(t, ProcessGrain(transform, window, channels, grain, state), "grain %d was not processed", g)

    for i := 0; i < hop; i++ {
      output = append(output, state.Ring.Pop())
    }
  }

  return output, transform
}

func TestGrainIdentityMatchesReferenceSpectrum(t *testing.T) {
  size := 1024
  hop := size / 2
  source := sineAtBin(size * 8, size, 32)

  output, transform := runGrains(t, 1, hop, 1.0, 1, source)
  Equals(t, hop, len(output))

  window := GenerateWindow(Hann, size)
  windowed := make([]float64, size)
  for i := range windowed {
    windowed[i] = source[i] * window[i]
  }
  reference := spectrumMagnitudes(windowed)

  peak := reference[32]
  for bin := 0; bin < transform.Bins - 1; bin++ {
    Near(t, reference[bin], transform.Magnitudes[bin], peak * 1e-9)
    // r = 1 and no HF emphasis leaves the side channel untouched
    Near(t, transform.Magnitudes[bin], transform.Display[bin], peak * 1e-12)
  }
}

func TestGrainIdentityKeepsFrequency(t *testing.T) {
  size := 1024
  hop := size / 2
  source := sineAtBin(size * 12, size, 32)

  output, _ := runGrains(t, 1, hop, 1.0, 10, source)

  steady := output[len(output) - size:]
  magnitudes := spectrumMagnitudes(steady)

  Equals(t, 32, peakBin(magnitudes, 1, size / 2))

  energy := 0.0
  for _, sample := range steady {
    energy += sample * sample
  }
  Assert(t, energy > 0.0, "identity grains should produce output")
}

func TestGrainIdentityDoesNotDrift(t *testing.T) {
  size := 1024
  hop := size / 4
  // 33 cycles per transform turns the phase a quarter cycle every hop, so
  // the synthesis phases keep wrapping
  source := sineAtBin(size * 16, size, 33)

  output, _ := runGrains(t, 1, hop, 1.0, 48, source)

  early := spectrumMagnitudes(output[10 * hop : 10 * hop + size])
  late := spectrumMagnitudes(output[40 * hop : 40 * hop + size])

  Equals(t, 33, peakBin(early, 1, size / 2))
  Equals(t, 33, peakBin(late, 1, size / 2))

  peak := early[33]
  Assert(t, peak > 0.0, "steady output should carry the tone")
  Near(t, peak, late[33], peak * 1e-4)
  for bin := range early {
    Near(t, early[bin], late[bin], peak * 1e-3)
  }
}

func TestGrainPitchMapping(t *testing.T) {
  size := 1024
  hop := size / 4
  source := sineAtBin(size * 8, size, 32)

  tests := map[string]struct{
    ratio float64
    expected int
  }{
    "octave down": {ratio: 0.5, expected: 16},
    "unison": {ratio: 1.0, expected: 32},
    "octave up": {ratio: 2.0, expected: 64},
  }

  for name, test := range tests {
    t.Run(name, func(t *testing.T) {
      output, transform := runGrains(t, 1, hop, test.ratio, 16, source)

      Equals(t, test.expected, peakBin(transform.Display, 1, transform.Bins))

      steady := output[len(output) - size:]
      Equals(t, test.expected, peakBin(spectrumMagnitudes(steady), 1, size / 2))
    })
  }
}

func TestGrainHFBoostTiltsMagnitudes(t *testing.T) {
  size := 512
  pool := NewTransformPool()
  transform, err := pool.Prepare(0)
  Ok(t, err)

  window := NewWindowTable(Hann).Prepare(0)
  source := sineAtBin(size * 2, size, 100)
  state := NewVoiceState(size)

  ProcessGrain(transform, window, [][]float64{source}, Grain{Hop: size / 4, PitchRatio: 1.0}, state)
  flat := transform.Display[100]

  state.Reset(size)
  ProcessGrain(transform, window, [][]float64{source}, Grain{Hop: size / 4, PitchRatio: 1.0, HFBoost: 1.0}, state)
  boosted := transform.Display[100]

  Near(t, flat * (1.0 + 100.0 / 256.0), boosted, flat * 1e-9)
}

func TestGrainRejectsMismatchedState(t *testing.T) {
  pool := NewTransformPool()
  transform, err := pool.Prepare(1)
  Ok(t, err)

  window := NewWindowTable(Hann).Prepare(1)
  state := NewVoiceState(512)

  Assert(t, !ProcessGrain(transform, window, [][]float64{make([]float64, 2048)}, Grain{Hop: 256, PitchRatio: 1.0}, state), "state sized for 512 should be rejected by a 1024 transform")

  state.Reset(1024)
  Equals(t, 1024, state.Size())
  Assert(t, ProcessGrain(transform, window, [][]float64{make([]float64, 2048)}, Grain{Hop: 256, PitchRatio: 1.0}, state), "resized state should be accepted")
}

func TestGrainStartClamps(t *testing.T) {
  Equals(t, 0, grainStart(-10.0, 4096, 1024))
  Equals(t, 100, grainStart(100.7, 4096, 1024))
  Equals(t, 3072, grainStart(4000.0, 4096, 1024))
  Equals(t, 0, grainStart(300.0, 512, 1024))
}
