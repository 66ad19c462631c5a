package engine

import(
  "math"
  "math/rand/v2"
  "testing"
  . "grainfreeze/testing_utilities"
)

func TestAdvanceStaysInLoop(t *testing.T) {
  start := 1000.0
  end := 5000.0

  for _, stretch := range []float64{0.1, 0.37, 1.0, 2.5, 4.0} {
    speed := 1.0 / stretch
    position := start

    for i := 0; i < 100000; i++ {
      position = Advance(position, speed, start, end)
      Assert(t, position >= start && position < end, "stretch %f: position %f left [%f, %f) at step %d", stretch, position, start, end, i)
    }
  }
}

func TestAdvanceCorrectsOutsidePositions(t *testing.T) {
  Equals(t, 100.0, Advance(3.0, 1.0, 100.0, 200.0))
  Near(t, 150.0, Advance(449.0, 1.0, 100.0, 200.0), 1e-9)
  Near(t, 100.0, Advance(199.0, 1.0, 100.0, 200.0), 1e-9)
}

func TestSmootherZeroGlideSnaps(t *testing.T) {
  smoother := Smoother{}
  smoother.Reset(44100.0, 0.0)
  smoother.SetCurrentAndTarget(10.0)
  smoother.SetTarget(500.0)

  Equals(t, 500.0, smoother.Next())
}

func TestFreezeConvergence(t *testing.T) {
  sampleRate := 44100.0
  glide := 0.05
  distance := 10000.0
  epsilon := 1.0

  controller := PositionController{}
  controller.SetGlide(sampleRate, glide)
  controller.Snap(0.0)
  controller.SetMode(Gliding)
  controller.SetTarget(distance, 0.0, 20000.0)

  motion := Motion{LoopStart: 0, LoopEnd: 20000, Hop: 512, Micro: 0, Length: 20000}
  bound := int(math.Ceil(glide * sampleRate * math.Log(distance / epsilon))) + 2

  previous := controller.Position()
  reached := -1

  for step := 1; step <= bound; step++ {
    position := controller.Step(motion, nil)
    Assert(t, position >= previous, "glide went backwards at step %d: %f < %f", step, position, previous)
    Assert(t, position <= distance, "glide overshot at step %d: %f", step, position)
    previous = position

    if reached < 0 && distance - position <= epsilon {
      reached = step
    }
  }

  Assert(t, reached > 0, "glide did not reach epsilon within %d steps", bound)

  // doubling the glide time roughly doubles the time to converge
  slow := PositionController{}
  slow.SetGlide(sampleRate, glide * 2)
  slow.Snap(0.0)
  slow.SetMode(Gliding)
  slow.SetTarget(distance, 0.0, 20000.0)

  for step := 0; step < reached; step++ {
    slow.Step(motion, nil)
  }
  Assert(t, distance - slow.Position() > epsilon, "a longer glide should not have converged yet")
}

func TestGlideTargetClampsToLoop(t *testing.T) {
  controller := PositionController{}
  controller.SetGlide(44100.0, 0.0)
  controller.Snap(300.0)
  controller.SetMode(Gliding)
  controller.SetTarget(9000.0, 100.0, 400.0)

  Equals(t, 400.0, controller.Target())
  Equals(t, 400.0, controller.Step(Motion{LoopStart: 100, LoopEnd: 400, Hop: 4, Length: 1000}, nil))
}

func TestJitterStaysBounded(t *testing.T) {
  rng := rand.New(rand.NewPCG(7, 11))
  length := 100000.0
  center := 50000.0

  controller := PositionController{}
  controller.SetGlide(44100.0, 0.0)
  controller.Snap(center)
  controller.SetMode(Gliding)
  controller.SetTarget(center, 0, length)

  motion := Motion{LoopStart: 0, LoopEnd: length, Hop: 1024, Micro: 1.0, Length: length}
  moved := false

  for i := 0; i < 10000; i++ {
    position := controller.Step(motion, rng)
    Assert(t, math.Abs(position - center) <= 0.0001 * length, "jitter moved %f from the center", position - center)
    if position != center {
      moved = true
    }
  }

  Assert(t, moved, "full micro movement should move the position")
}

func TestSetModeRestartsSmoother(t *testing.T) {
  controller := PositionController{}
  controller.SetGlide(44100.0, 0.1)
  controller.Snap(0.0)

  motion := Motion{LoopStart: 0, LoopEnd: 1000, Speed: 1.0, Hop: 256, Length: 1000}
  for i := 0; i < 10; i++ {
    controller.Step(motion, nil)
  }
  Equals(t, 10.0, controller.Position())

  controller.SetMode(Gliding)
  Equals(t, 10.0, controller.Target())
  Equals(t, 10.0, controller.Step(motion, nil))
}
