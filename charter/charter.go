package charter

import (
  "fmt"
  "io"
  "os"
  "github.com/go-echarts/go-echarts/v2/charts"
  "github.com/go-echarts/go-echarts/v2/components"
  "github.com/go-echarts/go-echarts/v2/opts"
  "github.com/go-echarts/go-echarts/v2/types"
  "grainfreeze/pvoc"
)

// bins above this are left off the spectrum line
const MaxChartFrequency = 8000.0

// SpectrumChart plots the magnitude of each bin up to MaxChartFrequency as a
// line, labelled in Hz
func SpectrumChart(title string, magnitudes []float64, size int, sampleRate float64) *charts.Line {
  binWidth := sampleRate / float64(size)
  count := len(magnitudes)

  if limit := int(MaxChartFrequency / binWidth) + 1; limit < count {
    count = limit
  }

  items := make([]opts.LineData, count)
  xLabels := make([]string, count)

  for i := 0; i < count; i++ {
    items[i] = opts.LineData{
      Value: magnitudes[i],
    }
    xLabels[i] = fmt.Sprintf("%.0f", float64(i) * binWidth)
  }

  line := charts.NewLine()
  line.SetGlobalOptions(
    charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
    charts.WithTitleOpts(opts.Title{
      Title:    title,
      Subtitle: fmt.Sprintf("%d point transform, %.2f Hz per bin", size, binWidth),
    }),
  )

  line.SetXAxis(xLabels).
    AddSeries("Magnitude", items).
    SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: false}))

  return line
}

// NoteChart plots note folded magnitudes as bars labelled A0 to C8
func NoteChart(title string, folded []float64) *charts.Bar {
  items := make([]opts.BarData, len(folded))
  xLabels := make([]string, len(folded))

  for i := 0; i < len(folded); i++ {
    items[i] = opts.BarData{
      Value: folded[i],
    }
    xLabels[i] = pvoc.MidiNoteName(pvoc.LowestNote + i)
  }

  bar := charts.NewBar()
  bar.SetGlobalOptions(
    charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
    charts.WithTitleOpts(opts.Title{
      Title:    title,
      Subtitle: "peak magnitude per note",
    }),
  )

  bar.SetXAxis(xLabels).
    AddSeries("Notes", items)

  return bar
}

// WriteCharts renders the note chart above the spectrum chart as one page
func WriteCharts(w io.Writer, title string, magnitudes []float64, size int, sampleRate float64) error {
  folded := make([]float64, pvoc.NumNotes)
  pvoc.FoldToNotes(magnitudes, size, sampleRate, folded)

  page := components.NewPage()
  page.PageTitle = title
  page.AddCharts(
    NoteChart(title, folded),
    SpectrumChart(title, magnitudes, size, sampleRate),
  )

  return page.Render(w)
}

func WriteChartsFile(path string, title string, magnitudes []float64, size int, sampleRate float64) error {
  f, err := os.Create(path)

  if err != nil {
    return err
  }
  defer f.Close()

  return WriteCharts(f, title, magnitudes, size, sampleRate)
}
