package engine

import(
  "sort"
  "github.com/gopxl/beep/v2"
)

const DefaultBlockSize = 512

// ScheduledEvent is an Event at an absolute output frame
type ScheduledEvent struct {
  Frame int64
  Event Event
}

/*
 * Streamer adapts an Engine to beep.Streamer. It renders fixed size stereo
 * blocks and hands them out sample by sample, delivering scheduled events
 * in the block they fall into. The stream never ends on its own; wrap it
 * in beep.Take for a finite render.
 */
type Streamer struct {
  engine *Engine
  block [][]float64
  blockPos int
  frame int64
  schedule []ScheduledEvent
  next int
  pending []Event
}

var _ beep.Streamer = (*Streamer)(nil)

func NewStreamer(engine *Engine, blockSize int, schedule []ScheduledEvent) *Streamer {
  if blockSize < 1 {
    blockSize = DefaultBlockSize
  }

  sorted := make([]ScheduledEvent, len(schedule))
  copy(sorted, schedule)
  sort.SliceStable(sorted, func(a, b int) bool {
    return sorted[a].Frame < sorted[b].Frame
  })

  return &Streamer{
    engine: engine,
    block: [][]float64{
      make([]float64, blockSize, blockSize),
      make([]float64, blockSize, blockSize),
    },
    blockPos: blockSize,
    schedule: sorted,
    pending: make([]Event, 0, len(sorted)),
  }
}

// output frames rendered so far
func (s *Streamer) Frame() int64 {
  return s.frame
}

func (s *Streamer) renderBlock() {
  blockSize := int64(len(s.block[0]))
  s.pending = s.pending[:0]

  for s.next < len(s.schedule) && s.schedule[s.next].Frame < s.frame + blockSize {
    event := s.schedule[s.next].Event
    event.Offset = int(s.schedule[s.next].Frame - s.frame)
    if event.Offset < 0 {
      event.Offset = 0
    }

    s.pending = append(s.pending, event)
    s.next++
  }

  s.engine.Render(s.block, s.pending)
  s.frame += blockSize
  s.blockPos = 0
}

func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
  for n < len(samples) {
    if s.blockPos == len(s.block[0]) {
      s.renderBlock()
    }

    samples[n][0] = s.block[0][s.blockPos]
    samples[n][1] = s.block[1][s.blockPos]
    s.blockPos++
    n++
  }

  return n, true
}

func (s *Streamer) Err() error {
  return nil
}
