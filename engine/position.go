package engine

import(
  "math"
  "math/rand/v2"
)

// Smoother is a one pole exponential approach toward a target
type Smoother struct {
  current float64
  target float64
  coeff float64
}

// Reset sets the time constant. Zero seconds makes the smoother jump.
func (s *Smoother) Reset(sampleRate, seconds float64) {
  if seconds <= 0 || sampleRate <= 0 {
    s.coeff = 1.0
    return
  }

  s.coeff = 1.0 - math.Exp(-1.0 / (seconds * sampleRate))
}

func (s *Smoother) SetCurrentAndTarget(value float64) {
  s.current = value
  s.target = value
}

func (s *Smoother) SetTarget(value float64) {
  s.target = value
}

func (s *Smoother) Current() float64 {
  return s.current
}

func (s *Smoother) Target() float64 {
  return s.target
}

func (s *Smoother) Next() float64 {
  s.current += (s.target - s.current) * s.coeff
  return s.current
}

type Mode int

const (
  // linear, loop-wrapped playback at the stretch rate
  Advancing Mode = iota
  // smoothed approach to a target with micro jitter, used by freeze and notes
  Gliding
)

// Motion is what a position step needs to know about the current block
type Motion struct {
  // loop region in samples
  LoopStart float64
  LoopEnd float64
  Speed float64
  Hop int
  // micro movement, 0-1
  Micro float64
  // recording length in samples
  Length float64
}

/*
 * Advance moves position by speed and wraps it into [start, end). Positions
 * that fall below the loop start snap to it.
 */
func Advance(position, speed, start, end float64) float64 {
  position += speed

  if position >= end {
    position = start + math.Mod(position - start, end - start)
    if position >= end {
      position = start
    }
  }

  if position < start {
    position = start
  }

  return position
}

// PositionController produces one read position per output sample for a voice
type PositionController struct {
  mode Mode
  position float64
  smoother Smoother
  jitterOffset float64
  jitterCounter int
}

func (pc *PositionController) Position() float64 {
  return pc.position
}

func (pc *PositionController) Mode() Mode {
  return pc.mode
}

func (pc *PositionController) Target() float64 {
  return pc.smoother.Target()
}

func (pc *PositionController) SetGlide(sampleRate, seconds float64) {
  pc.smoother.Reset(sampleRate, seconds)
}

// Snap jumps straight to position, dropping any glide or jitter in progress
func (pc *PositionController) Snap(position float64) {
  pc.position = position
  pc.smoother.SetCurrentAndTarget(position)
  pc.jitterOffset = 0
  pc.jitterCounter = 0
}

// switching modes restarts the smoother from wherever the position is now
func (pc *PositionController) SetMode(mode Mode) {
  if mode == pc.mode {
    return
  }

  pc.mode = mode
  pc.smoother.SetCurrentAndTarget(pc.position)
  pc.jitterOffset = 0
  pc.jitterCounter = 0
}

// target for Gliding, clamped to the loop region
func (pc *PositionController) SetTarget(target, start, end float64) {
  pc.smoother.SetTarget(math.Max(start, math.Min(end, target)))
}

func (pc *PositionController) Step(motion Motion, rng *rand.Rand) float64 {
  if pc.mode == Advancing {
    pc.position = Advance(pc.position, motion.Speed, motion.LoopStart, motion.LoopEnd)
    return pc.position
  }

  glided := pc.smoother.Next()

  interval := motion.Hop / 4
  if interval < 1 {
    interval = 1
  }

  pc.jitterCounter++
  if pc.jitterCounter >= interval {
    pc.jitterCounter = 0

    if motion.Micro > 0 && rng != nil {
      pc.jitterOffset = (rng.Float64() - 0.5) * 0.0002 * motion.Micro * motion.Length
    } else {
      pc.jitterOffset = 0
    }
  }

  pc.position = math.Max(motion.LoopStart, math.Min(motion.LoopEnd, glided + pc.jitterOffset))

  return pc.position
}
