package charter

import(
  "bytes"
  "strings"
  "testing"
  "grainfreeze/pvoc"
  . "grainfreeze/testing_utilities"
)

func TestNoteChartLabels(t *testing.T) {
  folded := make([]float64, pvoc.NumNotes)
  folded[69 - pvoc.LowestNote] = 1.0

  bar := NoteChart("frozen", folded)
  Assert(t, bar != nil, "chart should be built")
  Equals(t, "frozen", bar.Title.Title)
}

func TestSpectrumChartStopsAtMaxFrequency(t *testing.T) {
  magnitudes := make([]float64, 2049)
  line := SpectrumChart("spectrum", magnitudes, 4096, 44100.0)

  binWidth := 44100.0 / 4096.0
  expected := int(MaxChartFrequency / binWidth) + 1

  line.Validate()
  Equals(t, expected, len(line.XAxisList[0].Data.([]string)))
}

func TestWriteCharts(t *testing.T) {
  magnitudes := make([]float64, 1025)
  // 440 Hz at 2048 points and 44.1k is bin 20.4
  magnitudes[20] = 3.5

  out := &bytes.Buffer{}
  Ok(t, WriteCharts(out, "render of tone.wav", magnitudes, 2048, 44100.0))

  html := out.String()
  Assert(t, strings.Contains(html, "render of tone.wav"), "page should carry the title")
  Assert(t, strings.Contains(html, "A4"), "note labels should be present")
  Assert(t, strings.Contains(html, "3.5"), "the peak value should be plotted")
}
