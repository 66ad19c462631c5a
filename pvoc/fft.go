package pvoc

import(
  "fmt"
  algofft "github.com/cwbudde/algo-fft"
)

/*
 * Transform is the pooled engine for a single size: the algo-fft plan plus
 * the scratch every grain at that size works in. Only the render goroutine
 * touches it, so voices at the same size share one.
 */
type Transform struct {
  Size int
  Bins int
  plan *algofft.Plan[complex128]
  frame []complex128
  spectrum []complex128
  phases []float64
  Magnitudes []float64
  Advances []float64
  // pitch remapped magnitudes, what the display side channel shows
  Display []float64
  shiftedAdvances []float64
}

func NewTransform(size int) (*Transform, error) {
  if _, err := SizeIndex(size); err != nil {
    return nil, err
  }

  plan, err := algofft.NewPlan64(size)
  if err != nil {
    return nil, fmt.Errorf("creating %d point plan: %w", size, err)
  }

  bins := Bins(size)

  return &Transform{
    Size: size,
    Bins: bins,
    plan: plan,
    frame: make([]complex128, size, size),
    spectrum: make([]complex128, size, size),
    phases: make([]float64, bins, bins),
    Magnitudes: make([]float64, bins, bins),
    Advances: make([]float64, bins, bins),
    Display: make([]float64, bins, bins),
    shiftedAdvances: make([]float64, bins, bins),
  }, nil
}

// time to frequency, frame -> spectrum
func (t *Transform) Forward() error {
  return t.plan.Forward(t.spectrum, t.frame)
}

// frequency to time, spectrum -> frame, normalized by 1/size
func (t *Transform) Inverse() error {
  return t.plan.Inverse(t.frame, t.spectrum)
}

/*
 * TransformPool keeps one Transform per entry of TransformSizes. Entries are
 * built lazily by Prepare, which allocates, so it is only called on
 * configuration changes at block boundaries.
 */
type TransformPool struct {
  transforms []*Transform
}

func NewTransformPool() *TransformPool {
  return &TransformPool{
    transforms: make([]*Transform, len(TransformSizes), len(TransformSizes)),
  }
}

func (tp *TransformPool) Prepare(sizeIndex int) (*Transform, error) {
  sizeIndex = ClampSizeIndex(sizeIndex)

  if tp.transforms[sizeIndex] != nil {
    return tp.transforms[sizeIndex], nil
  }

  transform, err := NewTransform(TransformSizes[sizeIndex])
  if err != nil {
    return nil, err
  }

  tp.transforms[sizeIndex] = transform

  return transform, nil
}

// Get returns the prepared transform, or nil when sizeIndex was never prepared
func (tp *TransformPool) Get(sizeIndex int) *Transform {
  return tp.transforms[ClampSizeIndex(sizeIndex)]
}

func (tp *TransformPool) Prepared() int {
  count := 0
  for _, transform := range tp.transforms {
    if transform != nil {
      count++
    }
  }
  return count
}
