package engine

import(
  "math"
  "sync/atomic"
  "grainfreeze/pvoc"
)

/*
 * SpectrumTap hands the primary voice's magnitudes from the render
 * goroutine to display readers without locking. Each bin is an atomic
 * float; a reader may see bins from two neighbouring grains.
 */
type SpectrumTap struct {
  bins atomic.Int64
  values []atomic.Uint64
}

func NewSpectrumTap() *SpectrumTap {
  return &SpectrumTap{
    values: make([]atomic.Uint64, pvoc.MaxBins(), pvoc.MaxBins()),
  }
}

func (st *SpectrumTap) Publish(magnitudes []float64) {
  count := len(magnitudes)
  if count > len(st.values) {
    count = len(st.values)
  }

  for bin := 0; bin < count; bin++ {
    st.values[bin].Store(math.Float64bits(magnitudes[bin]))
  }

  st.bins.Store(int64(count))
}

func (st *SpectrumTap) Clear() {
  st.bins.Store(0)
}

func (st *SpectrumTap) Bins() int {
  return int(st.bins.Load())
}

// Read copies the latest spectrum into dst and returns how many bins it wrote
func (st *SpectrumTap) Read(dst []float64) int {
  count := st.Bins()
  if count > len(dst) {
    count = len(dst)
  }

  for bin := 0; bin < count; bin++ {
    dst[bin] = math.Float64frombits(st.values[bin].Load())
  }

  return count
}
