package pvoc

import(
  "fmt"
  "math"
)

const twoPi float64 = math.Pi * 2
const pi float64 = math.Pi

// Supported transform sizes, addressed by index everywhere else
var TransformSizes = []int{512, 1024, 2048, 4096, 8192, 16384, 32768, 65536}

const DefaultSizeIndex = 3

// the overlap-add ring holds this many transform lengths
const RingOverlap = 8

const MinHopDivisor float64 = 2.0
const MaxHopDivisor float64 = 16.0

// clamps an arbitrary index into the TransformSizes table
func ClampSizeIndex(index int) int {
  if index < 0 {
    return 0
  }

  if index > len(TransformSizes) - 1 {
    return len(TransformSizes) - 1
  }

  return index
}

func SizeForIndex(index int) int {
  return TransformSizes[ClampSizeIndex(index)]
}

// SizeIndex returns the table index for a transform size
func SizeIndex(size int) (int, error) {
  for i, s := range TransformSizes {
    if s == size {
      return i, nil
    }
  }

  return -1, fmt.Errorf("transform size must be a power of 2 between %d and %d, got %d", TransformSizes[0], TransformSizes[len(TransformSizes) - 1], size)
}

func Bins(size int) int {
  return size / 2 + 1
}

// largest bins count of any supported size
func MaxBins() int {
  return Bins(TransformSizes[len(TransformSizes) - 1])
}

// HopSize is floor(size / divisor), never less than one sample
func HopSize(size int, divisor float64) int {
  if divisor <= 0 || math.IsNaN(divisor) {
    divisor = MinHopDivisor
  }

  hop := int(math.Floor(float64(size) / divisor))

  if hop < 1 {
    hop = 1
  }

  return hop
}

func PitchRatio(semitones float64) float64 {
  return math.Pow(2.0, semitones / 12.0)
}

// overlap-add gain so that size/hop overlapping grains sum to roughly unity
func OverlapNorm(size, hop int) float64 {
  return 2.0 / (float64(size) / float64(hop))
}

// WrapPhase wraps a phase into (-pi, pi]
func WrapPhase(phase float64) float64 {
  if math.IsNaN(phase) || math.IsInf(phase, 0) {
    return 0
  }

  wrapped := math.Mod(phase + pi, twoPi)

  if wrapped <= 0 {
    wrapped += twoPi
  }

  return wrapped - pi
}

/*
 * copies size samples starting at start from the source channels into frame,
 * multiplied by the window. Stereo is mixed down by averaging, samples outside
 * the recording read as silence.
 */
func WindowFrame(channels [][]float64, window []float64, start int, frame []complex128) {
  size := len(window)
  numChans := len(channels)

  if numChans == 0 {
    for i := 0; i < size; i++ {
      frame[i] = 0
    }
    return
  }

  length := len(channels[0])

  for i := 0; i < size; i++ {
    idx := start + i

    if idx < 0 || idx >= length {
      frame[i] = 0
      continue
    }

    sample := channels[0][idx]
    if numChans > 1 {
      sample = (sample + channels[1][idx]) * 0.5
    }

    frame[i] = complex(sample * window[i], 0)
  }
}

// converts bins 0..len(magnitudes)-1 of a complex spectrum to magnitude and phase
func CartToPolar(spectrum []complex128, magnitudes, phases []float64) {
  for bin := 0; bin < len(magnitudes); bin++ {
    realPart := real(spectrum[bin])
    imagPart := imag(spectrum[bin])

    magnitudes[bin] = math.Hypot(realPart, imagPart)

    if magnitudes[bin] == 0.0 {
      phases[bin] = 0.0
    } else {
      phases[bin] = math.Atan2(imagPart, realPart)
    }
  }
}

/*
 * turns the current analysis phases into instantaneous phase advances per hop:
 * the difference against the previous grain minus the bin's expected advance,
 * wrapped, plus the expected advance again. previousPhase is updated in place.
 */
func PhaseUnwrap(phases, previousPhase, advances []float64, size, hop int) {
  phasePerBin := (float64(hop) * twoPi) / float64(size)

  for bin := 0; bin < len(phases); bin++ {
    expected := float64(bin) * phasePerBin
    phaseDifference := (phases[bin] - previousPhase[bin]) - expected
    previousPhase[bin] = phases[bin]

    advances[bin] = expected + WrapPhase(phaseDifference)
  }
}

/*
 * resamples magnitudes and phase advances along the frequency axis by ratio:
 * destination bin b reads source bin b/ratio with linear interpolation, and the
 * phase advance is scaled by ratio. Destination bins whose source lies at or past
 * the last bin are silent. hfBoost (0-1) tilts magnitudes up toward Nyquist.
 * Results are written to magnitudesOut and advancesOut.
 */
func PitchRemap(magnitudes, advances, magnitudesOut, advancesOut []float64, ratio, hfBoost float64) {
  bins := len(magnitudes)
  lastBin := float64(bins - 1)

  for bin := 0; bin < bins; bin++ {
    sourceBin := float64(bin) / ratio
    magnitude := 0.0
    advance := 0.0

    if sourceBin < lastBin {
      lower := int(sourceBin)
      upperWeight := sourceBin - float64(lower)

      magnitude = magnitudes[lower] * (1.0 - upperWeight) + magnitudes[lower + 1] * upperWeight
      advance = advances[lower] * (1.0 - upperWeight) + advances[lower + 1] * upperWeight
      advance *= ratio
    }

    if bins > 1 {
      magnitude *= 1.0 + (float64(bin) / lastBin) * hfBoost
    }

    magnitudesOut[bin] = magnitude
    advancesOut[bin] = advance
  }
}

/*
 * accumulates phase advances into the synthesis phases and writes the full
 * Hermitian spectrum of size len(spectrum) so the inverse transform is real
 */
func PolarToCart(magnitudes, advances, synthesisPhase []float64, spectrum []complex128) {
  size := len(spectrum)
  bins := len(magnitudes)

  for bin := 0; bin < bins; bin++ {
    synthesisPhase[bin] = WrapPhase(synthesisPhase[bin] + advances[bin])

    magnitude := magnitudes[bin]
    if magnitude == 0.0 {
      spectrum[bin] = 0
      continue
    }

    realValue := magnitude * math.Cos(synthesisPhase[bin])
    imagValue := magnitude * math.Sin(synthesisPhase[bin])

    // DC and Nyquist are real for a real signal
    if bin == 0 || bin == size / 2 {
      imagValue = 0.0
    }

    spectrum[bin] = complex(realValue, imagValue)
  }

  for bin := 1; bin < size - bins + 1; bin++ {
    spectrum[size - bin] = complex(real(spectrum[bin]), -imag(spectrum[bin]))
  }
}

/*
 * overlap-adds the real part of frame, multiplied by the synthesis window and
 * norm, into ring starting at cursor, wrapping at the end of the ring
 */
func OverlapAdd(frame []complex128, synthesisWindow []float64, ring []float64, cursor int, norm float64) {
  windowSize := len(synthesisWindow)
  ringSize := len(ring)

  if ringSize == 0 {
    return
  }

  for cursor < 0 {
    cursor += ringSize
  }

  cursor %= ringSize

  for i := 0; i < windowSize; i++ {
    ring[cursor] += real(frame[i]) * synthesisWindow[i] * norm

    cursor++
    if cursor == ringSize {
      cursor = 0
    }
  }
}
