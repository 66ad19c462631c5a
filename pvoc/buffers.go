package pvoc

// RingAccumulator is the overlap-add output ring of a voice. Grains add into
// it starting at the cursor; the renderer pops one sample per frame.
type RingAccumulator struct {
  Data []float64
  cursor int
}

func NewRingAccumulator(length int) (ring *RingAccumulator) {
  ring = &RingAccumulator{
    Data: make([]float64, length, length),
  }

  return ring
}

func (ra *RingAccumulator) Len() int {
  return len(ra.Data)
}

func (ra *RingAccumulator) Cursor() int {
  return ra.cursor
}

// returns the sample under the cursor, zeroes it and advances the cursor
func (ra *RingAccumulator) Pop() float64 {
  if len(ra.Data) == 0 {
    return 0
  }

  sample := ra.Data[ra.cursor]
  ra.Data[ra.cursor] = 0

  ra.cursor++
  if ra.cursor == len(ra.Data) {
    ra.cursor = 0
  }

  return sample
}

// zero the ring and rewind the cursor
func (ra *RingAccumulator) Zero() {
  for i := 0; i < len(ra.Data); i++ {
    ra.Data[i] = 0
  }
  ra.cursor = 0
}

// Resize reallocates only when the length changes, the ring comes back zeroed
func (ra *RingAccumulator) Resize(length int) {
  if length != len(ra.Data) {
    ra.Data = make([]float64, length, length)
    ra.cursor = 0
    return
  }

  ra.Zero()
}
