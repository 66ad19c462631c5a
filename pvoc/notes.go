package pvoc

import(
  "fmt"
  "math"
  "sort"
)

// piano range the spectrum is folded into, A0 upward
const LowestNote = 21
const NumNotes = 88

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MIDI note 69 = A4 = 440 Hz, -1 for frequencies that have no note
func FrequencyToMidiNote(frequency float64) int {
  if frequency <= 0.0 {
    return -1
  }

  return int(math.Round(69.0 + 12.0 * math.Log2(frequency / 440.0)))
}

func MidiNoteName(note int) string {
  if note < 0 {
    return "-"
  }

  return fmt.Sprintf("%s%d", noteNames[note % 12], note / 12 - 1)
}

/*
 * FoldToNotes maps every bin but DC of a magnitude spectrum onto the piano
 * range, keeping the largest magnitude landing on each note. out must hold
 * NumNotes values.
 */
func FoldToNotes(magnitudes []float64, size int, sampleRate float64, out []float64) {
  for i := range out {
    out[i] = 0.0
  }

  for bin := 1; bin < len(magnitudes); bin++ {
    frequency := float64(bin) * sampleRate / float64(size)
    note := FrequencyToMidiNote(frequency)

    if note >= LowestNote && note < LowestNote + len(out) {
      index := note - LowestNote
      out[index] = math.Max(out[index], magnitudes[bin])
    }
  }
}

type NoteMagnitude struct {
  Note int
  Magnitude float64
}

func (nm NoteMagnitude) Name() string {
  return MidiNoteName(nm.Note)
}

// the count loudest non-silent notes of a folded spectrum, loudest first
func TopNotes(folded []float64, count int) []NoteMagnitude {
  notes := []NoteMagnitude{}

  for i, magnitude := range folded {
    if magnitude > 0.0 {
      notes = append(notes, NoteMagnitude{Note: LowestNote + i, Magnitude: magnitude})
    }
  }

  sort.SliceStable(notes, func(a, b int) bool {
    return notes[a].Magnitude > notes[b].Magnitude
  })

  if len(notes) > count {
    notes = notes[:count]
  }

  return notes
}
