package pvoc

import(
  "math"
  "testing"
  . "grainfreeze/testing_utilities"
)

func TestHopSize(t *testing.T) {
  tests := map[string]struct{
    size int
    divisor float64
    expected int
  }{
    "quarter": {size: 2048, divisor: 4.0, expected: 512},
    "fractional divisor floors": {size: 1000, divisor: 3.0, expected: 333},
    "half steps": {size: 4096, divisor: 2.5, expected: 1638},
    "never below one": {size: 1, divisor: 16.0, expected: 1},
    "bad divisor falls back": {size: 512, divisor: 0.0, expected: 256},
  }

  for name, test := range tests {
    t.Run(name, func(t *testing.T) {
      Equals(t, test.expected, HopSize(test.size, test.divisor))
    })
  }
}

func TestSizeIndex(t *testing.T) {
  for i, size := range TransformSizes {
    index, err := SizeIndex(size)
    Ok(t, err)
    Equals(t, i, index)
    Equals(t, size / 2 + 1, Bins(size))
  }

  _, err := SizeIndex(1000)
  Assert(t, err != nil, "1000 is not a transform size")

  Equals(t, 512, SizeForIndex(-4))
  Equals(t, 65536, SizeForIndex(99))
  Equals(t, 32769, MaxBins())
}

func TestPitchRatio(t *testing.T) {
  Near(t, 1.0, PitchRatio(0), 1e-12)
  Near(t, 2.0, PitchRatio(12), 1e-12)
  Near(t, 0.25, PitchRatio(-24), 1e-12)
}

func TestWrapPhase(t *testing.T) {
  Near(t, 0.0, WrapPhase(0.0), 1e-12)
  Near(t, math.Pi, WrapPhase(math.Pi), 1e-12)
  Near(t, math.Pi, WrapPhase(-math.Pi), 1e-12)
  Near(t, math.Pi / 2, WrapPhase(math.Pi / 2 + 4 * math.Pi), 1e-9)
  Near(t, -math.Pi / 2, WrapPhase(-math.Pi / 2 - 6 * math.Pi), 1e-9)
  Equals(t, 0.0, WrapPhase(math.NaN()))
  Equals(t, 0.0, WrapPhase(math.Inf(1)))

  for phase := -50.0; phase < 50.0; phase += 0.37 {
    wrapped := WrapPhase(phase)
    Assert(t, wrapped > -math.Pi && wrapped <= math.Pi, "WrapPhase(%f) = %f is outside (-pi, pi]", phase, wrapped)
  }
}

func TestWindowFrameMixesAndPads(t *testing.T) {
  channels := [][]float64{
    {1.0, 2.0, 3.0, 4.0},
    {3.0, 4.0, 5.0, 6.0},
  }
  window := []float64{1.0, 1.0, 0.5, 1.0}
  frame := make([]complex128, 4)

  WindowFrame(channels, window, 2, frame)

  Equals(t, complex(4.0, 0), frame[0])
  Equals(t, complex(5.0, 0), frame[1])
  Equals(t, complex(0.0, 0), frame[2])
  Equals(t, complex(0.0, 0), frame[3])
}

func TestPolarToCartIsHermitian(t *testing.T) {
  size := 16
  bins := Bins(size)
  magnitudes := make([]float64, bins)
  advances := make([]float64, bins)
  phases := make([]float64, bins)
  spectrum := make([]complex128, size)

  for bin := 0; bin < bins; bin++ {
    magnitudes[bin] = float64(bin + 1)
    advances[bin] = 0.3 * float64(bin)
  }

  PolarToCart(magnitudes, advances, phases, spectrum)

  Equals(t, 0.0, imag(spectrum[0]))
  Equals(t, 0.0, imag(spectrum[size / 2]))

  for bin := 1; bin < size / 2; bin++ {
    Equals(t, real(spectrum[bin]), real(spectrum[size - bin]))
    Equals(t, -imag(spectrum[bin]), imag(spectrum[size - bin]))
    Near(t, magnitudes[bin], math.Hypot(real(spectrum[bin]), imag(spectrum[bin])), 1e-9)
  }
}

func TestOverlapAddWraps(t *testing.T) {
  ring := make([]float64, 6)
  frame := []complex128{1, 2, 3, 4}
  window := []float64{1, 1, 1, 1}

  OverlapAdd(frame, window, ring, 4, 0.5)

  Equals(t, []float64{1.5, 2.0, 0, 0, 0.5, 1.0}, ring)
}

func TestRingAccumulatorPop(t *testing.T) {
  ring := NewRingAccumulator(3)
  ring.Data[0] = 1.0
  ring.Data[1] = 2.0
  ring.Data[2] = 3.0

  Equals(t, 1.0, ring.Pop())
  Equals(t, 2.0, ring.Pop())
  Equals(t, 3.0, ring.Pop())
  Equals(t, 0, ring.Cursor())
  Equals(t, []float64{0, 0, 0}, ring.Data)

  ring.Data[1] = 5.0
  ring.Pop()
  ring.Resize(3)
  Equals(t, 0, ring.Cursor())
  Equals(t, []float64{0, 0, 0}, ring.Data)

  ring.Resize(8)
  Equals(t, 8, ring.Len())
}

func TestWindowTable(t *testing.T) {
  table := NewWindowTable(Hann)
  Assert(t, table.Coefficients(0) == nil, "nothing should be prepared yet")

  hann := table.Prepare(0)
  Equals(t, 512, len(hann))
  Near(t, 0.0, hann[0], 1e-12)
  Near(t, 0.0, hann[511], 1e-12)

  for i := 0; i < 256; i++ {
    Near(t, hann[i], hann[511 - i], 1e-12)
  }

  table.SetType(BlackmanHarris)
  blackman := table.Coefficients(0)
  Equals(t, BlackmanHarris, table.Type())
  Near(t, 0.00006, blackman[0], 1e-5)
  Assert(t, blackman[100] < hann[100], "Blackman-Harris should taper faster than Hann")
}

func TestParseWindowType(t *testing.T) {
  windowType, err := ParseWindowType("Hann")
  Ok(t, err)
  Equals(t, Hann, windowType)

  windowType, err = ParseWindowType(" blackmanharris ")
  Ok(t, err)
  Equals(t, BlackmanHarris, windowType)

  _, err = ParseWindowType("kaiser")
  Assert(t, err != nil, "kaiser is not supported")
}

func TestTransformPool(t *testing.T) {
  pool := NewTransformPool()
  Assert(t, pool.Get(1) == nil, "transform should not exist before Prepare")

  transform, err := pool.Prepare(1)
  Ok(t, err)
  Equals(t, 1024, transform.Size)
  Equals(t, 513, transform.Bins)

  again, err := pool.Prepare(1)
  Ok(t, err)
  Assert(t, transform == again, "Prepare should reuse the pooled transform")
  Assert(t, pool.Get(1) == transform, "Get should return the pooled transform")
  Equals(t, 1, pool.Prepared())

  _, err = NewTransform(1000)
  Assert(t, err != nil, "1000 point transforms are not supported")
}
