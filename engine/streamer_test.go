package engine

import(
  "testing"
  "github.com/gopxl/beep/v2"
  . "grainfreeze/testing_utilities"
)

func TestStreamerDeliversScheduledEvents(t *testing.T) {
  engine := newTestEngine(t)

  params := DefaultParams()
  params.SizeIndex = 0
  params.Polyphonic = true
  engine.SetParams(params)
  engine.LoadChannels([][]float64{tone(220.0, 44100.0, 44100)}, 44100.0)

  schedule := []ScheduledEvent{
    {Frame: 700, Event: Event{Kind: NoteOff, Note: 48}},
    {Frame: 300, Event: Event{Kind: NoteOn, Note: 48, Velocity: 1.0}},
  }

  streamer := NewStreamer(engine, 256, schedule)
  samples := make([][2]float64, 300)

  n, ok := streamer.Stream(samples)
  Equals(t, 300, n)
  Assert(t, ok, "the engine stream never drains")

  for i := 0; i < 300; i++ {
    Equals(t, [2]float64{0, 0}, samples[i])
  }

  n, _ = streamer.Stream(samples)
  Equals(t, 300, n)
  Equals(t, 1, engine.ActiveVoices())
  Equals(t, int64(768), streamer.Frame())

  left := 0.0
  for i := 0; i < 300; i++ {
    left += samples[i][0] * samples[i][0]
    Equals(t, samples[i][0], samples[i][1])
  }
  Assert(t, left > 0.0, "note should be audible after frame 300")
}

func TestStreamerWithTake(t *testing.T) {
  engine := newTestEngine(t)
  engine.LoadChannels([][]float64{tone(220.0, 44100.0, 44100)}, 44100.0)

  schedule := []ScheduledEvent{{Frame: 0, Event: Event{Kind: ManualOn}}}
  finite := beep.Take(1000, NewStreamer(engine, 0, schedule))

  samples := make([][2]float64, 600)
  n, ok := finite.Stream(samples)
  Equals(t, 600, n)
  Assert(t, ok, "first read should succeed")
  Assert(t, engine.Playing(), "scheduled ManualOn should start the transport")

  n, ok = finite.Stream(samples)
  Equals(t, 400, n)
  Assert(t, ok, "partial read is still ok")

  n, ok = finite.Stream(samples)
  Equals(t, 0, n)
  Assert(t, !ok, "take should drain after 1000 frames")
}
