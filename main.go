package main

import (
  "fmt"
  "os"
  "path/filepath"
  "grainfreeze/audioio"
  "grainfreeze/charter"
  "grainfreeze/cli"
  "grainfreeze/engine"
  "grainfreeze/pvoc"
  "github.com/gopxl/beep/v2"
  "github.com/schollz/progressbar/v3"
  "github.com/sirupsen/logrus"
)

var Version = ""

// frames handed to the writer at a time
const writeChunk = engine.DefaultBlockSize * 8

// how many notes the final report lists
const reportNotes = 5

// the spectrum of the last block that had a sounding voice
type spectrumCapture struct {
  magnitudes []float64
  bins int
}

func main() {
  parsedArgs, err := cli.ParseFlags(os.Args, Version)

  if err != nil {
    fmt.Fprintln(os.Stderr, err)
    os.Exit(1)
  }

  logger := logrus.New()
  logger.SetOutput(os.Stderr)

  if parsedArgs.Verbose {
    logger.SetLevel(logrus.DebugLevel)
  } else if parsedArgs.Quiet {
    logger.SetLevel(logrus.WarnLevel)
  }

  // check if input file exists
  if _, err := os.Stat(parsedArgs.InputPath); err != nil {
    fmt.Fprintln(os.Stderr, "File does not exist:", parsedArgs.InputPath)
    os.Exit(1)
  }

  sampleRate := float64(parsedArgs.SampleRate)
  recording, err := audioio.LoadRecording(parsedArgs.InputPath, sampleRate)

  if err != nil {
    fmt.Fprintln(os.Stderr, "Could not load audio file:", err)
    os.Exit(1)
  }

  options := []engine.Option{
    engine.WithSampleRate(sampleRate),
    engine.WithVoices(parsedArgs.Voices),
    engine.WithLogger(logger),
  }

  if parsedArgs.Seed != 0 {
    options = append(options, engine.WithSeed(parsedArgs.Seed))
  }

  processor, err := engine.New(options...)

  if err != nil {
    fmt.Fprintln(os.Stderr, err)
    os.Exit(1)
  }

  params := parsedArgs.Params()
  processor.SetParams(params)
  processor.Load(recording)

  totalFrames := outputFrames(parsedArgs, params, recording, sampleRate)

  if !parsedArgs.Quiet {
    fmt.Printf("%24s   %s\n", "Mode:", parsedArgs.Command)
    fmt.Print(params.String())
    fmt.Printf("%24s   %d\n", "Number of Channels:", recording.NumChans())
    fmt.Printf("%24s   %.0f\n", "Sample Rate:", sampleRate)
    fmt.Printf("%24s   %.2f\n", "Hz/FFT Band:", sampleRate / float64(params.TransformSize()))
    fmt.Printf("%24s   %.2f s\n", "Input Duration:", recording.Duration())
    fmt.Printf("%24s   %.2f s\n", "Output Duration:", float64(totalFrames) / sampleRate)
  }

  audioFile := audioio.AudioFile{
    Filepath: parsedArgs.OutputPath,
    NumChans: 2,
    SampleRate: parsedArgs.SampleRate,
    BitDepth: parsedArgs.BitDepth,
  }

  audioWriter, err := audioio.NewAudioWriter(audioFile)

  if err != nil {
    fmt.Fprintln(os.Stderr, "Could not create output audio file:", err)
    os.Exit(1)
  }

  if err = audioWriter.Create(writeChunk); err != nil {
    fmt.Fprintln(os.Stderr, "Could not open audio file for writing:", parsedArgs.OutputPath, err)
    os.Exit(1)
  }

  // progress will be a number 0-100
  progress := make(chan int)
  errors := make(chan error)
  done := make(chan spectrumCapture)

  bar := progressbar.NewOptions(
    100,
    progressbar.OptionEnableColorCodes(true),
    progressbar.OptionSetDescription("rendering..."),
    progressbar.OptionFullWidth(),
    progressbar.OptionSetTheme(progressbar.Theme{
      Saucer:        "[green]=[reset]",
      SaucerHead:    "[green]=[reset]",
      SaucerPadding: " ",
      BarStart:      "[",
      BarEnd:        "]",
    }),
  )

  go render(
    processor,
    parsedArgs,
    totalFrames,
    audioWriter,
    progress,
    errors,
    done,
  )

  // wait for messages
  var capture spectrumCapture
  wait := true
  for wait {
    select {
    case err := <- errors:
      audioWriter.Close()
      fmt.Fprintln(os.Stderr, "\n >>> Processing error:", err, " <<<")
      os.Exit(1)
    case curProgress := <-progress:
      if !parsedArgs.Quiet {
        bar.Set(curProgress)
      }
    case capture = <- done:
      wait = false
    }
  }

  if err = audioWriter.Close(); err != nil {
    fmt.Fprintln(os.Stderr, "Could not finish output file:", err)
    os.Exit(1)
  }

  if !parsedArgs.Quiet {
    fmt.Println()
    fmt.Println()
    reportSpectrum(capture, sampleRate)
  }

  if len(parsedArgs.ChartPath) > 0 && capture.bins > 0 {
    title := fmt.Sprintf("%s of %s", parsedArgs.Command, filepath.Base(parsedArgs.InputPath))
    size := 2 * (capture.bins - 1)

    if err = charter.WriteChartsFile(parsedArgs.ChartPath, title, capture.magnitudes[:capture.bins], size, sampleRate); err != nil {
      fmt.Fprintln(os.Stderr, "Could not write chart:", err)
      os.Exit(1)
    }
  }

  if !parsedArgs.Quiet {
    fmt.Println("Done!")
  }
}

// output length when -d is not given
func outputFrames(parsedArgs *cli.Arguments, params engine.Params, recording *engine.SourceRecording, sampleRate float64) int {
  if parsedArgs.Duration > 0 {
    return int(parsedArgs.Duration * sampleRate)
  }

  switch parsedArgs.Command {
  case cli.CMD_RENDER:
    return int(recording.Duration() * params.Stretch * sampleRate)
  case cli.CMD_NOTES:
    // room for the last release to ring out
    return int(parsedArgs.NotesEnd() * sampleRate) + params.TransformSize()
  }

  return int(recording.Duration() * sampleRate)
}

/*
 * render pulls the engine through beep.Take in writeChunk pieces and hands
 * them to the writer. A freeze with a glide target moves the playhead once
 * half the output is written.
 */
func render(
  processor *engine.Engine,
  parsedArgs *cli.Arguments,
  totalFrames int,
  writer *audioio.AudioWriter,
  progress chan int,
  errors chan error,
  done chan spectrumCapture,
) {
  streamer := engine.NewStreamer(processor, engine.DefaultBlockSize, parsedArgs.Schedule(processor.SampleRate()))
  source := beep.Take(totalFrames, streamer)

  samples := make([][2]float64, writeChunk)
  left := make([]float64, writeChunk)
  right := make([]float64, writeChunk)

  capture := spectrumCapture{magnitudes: make([]float64, pvoc.MaxBins())}
  glided := parsedArgs.Command != cli.CMD_FREEZE || parsedArgs.GlideTo < 0
  written := 0
  lastProgress := -1

  for {
    n, ok := source.Stream(samples)

    if !ok || n == 0 {
      break
    }

    for i := 0; i < n; i++ {
      left[i] = samples[i][0]
      right[i] = samples[i][1]
    }

    writer.ZeroWriteBuffer()

    if err := writer.InterleaveChannel(0, left[:n]); err != nil {
      errors <- err
      return
    }

    if err := writer.InterleaveChannel(1, right[:n]); err != nil {
      errors <- err
      return
    }

    if err := writer.WriteNext(); err != nil {
      errors <- err
      return
    }

    if processor.ActiveVoices() > 0 {
      capture.bins = processor.Spectrum(capture.magnitudes)
    }

    written += n

    if !glided && written >= totalFrames / 2 {
      params := processor.Params()
      params.Playhead = parsedArgs.GlideTo
      processor.SetParams(params)
      glided = true
    }

    if current := written * 100 / max(totalFrames, 1); current != lastProgress {
      progress <- current
      lastProgress = current
    }
  }

  if err := source.Err(); err != nil {
    errors <- err
    return
  }

  done <- capture
}

func reportSpectrum(capture spectrumCapture, sampleRate float64) {
  if capture.bins == 0 {
    fmt.Printf("%24s   %s\n", "Loudest Notes:", "none, no voice sounded")
    return
  }

  size := 2 * (capture.bins - 1)
  folded := make([]float64, pvoc.NumNotes)
  pvoc.FoldToNotes(capture.magnitudes[:capture.bins], size, sampleRate, folded)

  label := "Loudest Notes:"
  for _, note := range pvoc.TopNotes(folded, reportNotes) {
    fmt.Printf("%24s   %-4s %.4f\n", label, note.Name(), note.Magnitude)
    label = ""
  }
}
