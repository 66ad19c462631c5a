package cli

import(
  "errors"
  "flag"
  "fmt"
  "os"
  "path/filepath"
  "strconv"
  "strings"
  "grainfreeze/engine"
  "grainfreeze/pvoc"
)

const CMD_RENDER = "render"
const CMD_FREEZE = "freeze"
const CMD_NOTES = "notes"

// NoteSpan holds one note of a -n schedule, times in seconds
type NoteSpan struct {
  Note int
  Velocity float64
  Start float64
  End float64
}

type Arguments struct {
  Command string
  InputPath string
  OutputPath string
  ChartPath string
  Duration float64
  SampleRate int
  BitDepth int
  Voices int
  Seed uint64
  Stretch float64
  Bands int
  Overlap float64
  Pitch float64
  WindowName string
  HFBoost float64
  Micro float64
  Glide float64
  LoopStart float64
  LoopEnd float64
  Playhead float64
  // freeze only, normalized position to glide to halfway through, -1 for none
  GlideTo float64
  AnchorMin float64
  AnchorCenter float64
  AnchorMax float64
  Notes []NoteSpan
  Verbose bool
  Quiet bool
}

// flags shared by every command
type commonFlags struct {
  input *string
  output *string
  chart *string
  duration *float64
  sampleRate *int
  bitDepth *int
  seed *uint64
  bands *int
  overlap *float64
  pitch *float64
  window *string
  hf *float64
  micro *float64
  glide *float64
  loopStart *float64
  loopEnd *float64
  verbose *bool
  quiet *bool
}

func registerCommon(cmd *flag.FlagSet) *commonFlags {
  defaults := engine.DefaultParams()

  return &commonFlags{
    input: cmd.String("i", "", "input file: path to input AIFF, WAV or MP3"),
    output: cmd.String("f", "", "output file: path to write output AIFF, WAV or Opus (.opus/.ogg). A directory picks a file name from the settings"),
    chart: cmd.String("c", "", "chart file: write an html spectrum chart of the final block to this path"),
    duration: cmd.Float64("d", 0.0, "duration: seconds of output to render, 0 renders the length of the input"),
    sampleRate: cmd.Int("r", int(engine.DefaultSampleRate), "sample rate: engine and output sample rate, the input is resampled to it"),
    bitDepth: cmd.Int("depth", 16, "bit depth of AIFF and WAV output, one of 8, 16, 24, 32"),
    seed: cmd.Uint64("seed", 0, "seed for micro movement, 0 picks one at random"),
    bands: cmd.Int("b", pvoc.SizeForIndex(defaults.SizeIndex), fmt.Sprintf("transform size: power of two between %d and %d", pvoc.TransformSizes[0], pvoc.TransformSizes[len(pvoc.TransformSizes) - 1])),
    overlap: cmd.Float64("o", defaults.HopDivisor, "overlap: hop is the transform size divided by this, 2 to 16"),
    pitch: cmd.Float64("p", defaults.PitchSemitones, "pitch shift in semitones, -24 to 24"),
    window: cmd.String("w", defaults.Window.String(), "window: windowing function to use, one of: " + pvoc.WindowNamesString()),
    hf: cmd.Float64("hf", defaults.HFBoost, "high frequency boost percent, 0-100"),
    micro: cmd.Float64("m", defaults.MicroMovement, "micro movement percent, 0-100: random position jitter while frozen"),
    glide: cmd.Float64("g", defaults.GlideMs, "glide time in ms, 0-1000"),
    loopStart: cmd.Float64("ls", defaults.LoopStart, "loop start, normalized 0-1"),
    loopEnd: cmd.Float64("le", defaults.LoopEnd, "loop end, normalized 0-1"),
    verbose: cmd.Bool("v", false, "verbose flag: debug logging"),
    quiet: cmd.Bool("q", false, "quiet flag: suppress informational output"),
  }
}

func (cf *commonFlags) apply(command string, parsedArgs *Arguments) error {
  if len(*cf.input) == 0 {
    return fmt.Errorf("Required argument missing:\n\n-i <path to input file> is required, for help:\n\ngrainfreeze %s -h\n\n", command)
  }

  if len(*cf.output) == 0 {
    return fmt.Errorf("Required argument missing:\n\n-f <path to output file> is required, for help:\n\ngrainfreeze %s -h\n\n", command)
  }

  if _, err := pvoc.SizeIndex(*cf.bands); err != nil {
    return err
  }

  if _, err := pvoc.ParseWindowType(*cf.window); err != nil {
    return err
  }

  if *cf.duration < 0 {
    return fmt.Errorf("duration must not be negative, got %f", *cf.duration)
  }

  if *cf.sampleRate <= 0 {
    return fmt.Errorf("sample rate must be positive, got %d", *cf.sampleRate)
  }

  parsedArgs.Command = command
  parsedArgs.InputPath, _ = filepath.Abs(*cf.input)
  parsedArgs.ChartPath = *cf.chart
  parsedArgs.Duration = *cf.duration
  parsedArgs.SampleRate = *cf.sampleRate
  parsedArgs.BitDepth = *cf.bitDepth
  parsedArgs.Seed = *cf.seed
  parsedArgs.Bands = *cf.bands
  parsedArgs.Overlap = *cf.overlap
  parsedArgs.Pitch = *cf.pitch
  parsedArgs.WindowName = *cf.window
  parsedArgs.HFBoost = *cf.hf
  parsedArgs.Micro = *cf.micro
  parsedArgs.Glide = *cf.glide
  parsedArgs.LoopStart = *cf.loopStart
  parsedArgs.LoopEnd = *cf.loopEnd
  parsedArgs.Verbose = *cf.verbose
  parsedArgs.Quiet = *cf.quiet

  if len(parsedArgs.ChartPath) > 0 {
    parsedArgs.ChartPath, _ = filepath.Abs(parsedArgs.ChartPath)
  }

  outputPath, err := parseOutputFilePath(*cf.output, parsedArgs)

  if err != nil {
    return err
  }

  parsedArgs.OutputPath = outputPath

  return nil
}

func ParseFlags(args []string, version string) (*Arguments, error) {
  cmdError := fmt.Errorf("grainfreeze %s\n\nusage: grainfreeze <command> <args>\n\nAvailable Commands:\n\n    render  play the input through the transport with stretch and pitch\n    freeze  hold the spectrum at a playhead position\n    notes   play a polyphonic note schedule\n\nFor specific command options:\n\ngrainfreeze <command> -h\n\n", version)

  if len(args) < 2 {
    return nil, cmdError
  }

  parsedArgs := &Arguments{
    Voices: engine.DefaultVoices,
    GlideTo: -1.0,
    AnchorMin: 0.0,
    AnchorCenter: 0.5,
    AnchorMax: 1.0,
  }

  switch args[1] {
  case CMD_RENDER:
    renderCmd := flag.NewFlagSet(CMD_RENDER, flag.ContinueOnError)
    common := registerCommon(renderCmd)
    renderStretch := renderCmd.Float64("s", 1.0, "stretch: 1 plays at the recorded rate, 0.1 to 4, larger is slower")
    renderPlayhead := renderCmd.Float64("ph", 0.0, "playhead: normalized start position 0-1")

    if err := renderCmd.Parse(args[2:]); err != nil {
      return nil, err
    }

    parsedArgs.Stretch = *renderStretch
    parsedArgs.Playhead = *renderPlayhead

    if err := common.apply(CMD_RENDER, parsedArgs); err != nil {
      return nil, err
    }
  case CMD_FREEZE:
    freezeCmd := flag.NewFlagSet(CMD_FREEZE, flag.ContinueOnError)
    common := registerCommon(freezeCmd)
    freezePlayhead := freezeCmd.Float64("ph", 0.5, "playhead: normalized position 0-1 to freeze at")
    freezeGlideTo := freezeCmd.Float64("to", -1.0, "glide target: normalized position the frozen playhead glides to halfway through, -1 to stay put")

    if err := freezeCmd.Parse(args[2:]); err != nil {
      return nil, err
    }

    parsedArgs.Stretch = 1.0
    parsedArgs.Playhead = *freezePlayhead
    parsedArgs.GlideTo = *freezeGlideTo

    if err := common.apply(CMD_FREEZE, parsedArgs); err != nil {
      return nil, err
    }
  case CMD_NOTES:
    notesCmd := flag.NewFlagSet(CMD_NOTES, flag.ContinueOnError)
    common := registerCommon(notesCmd)
    notesSchedule := notesCmd.String("n", "", "note schedule: comma separated note[:velocity]@start-end in seconds, e.g. 48:0.8@0-2,60@1-3")
    notesVoices := notesCmd.Int("voices", engine.DefaultVoices, "voices: polyphony")
    notesMin := notesCmd.Float64("amin", 0.0, "anchor min: normalized position of note 0")
    notesCenter := notesCmd.Float64("acenter", 0.5, "anchor center: normalized position of note 60")
    notesMax := notesCmd.Float64("amax", 1.0, "anchor max: normalized position of note 127")

    if err := notesCmd.Parse(args[2:]); err != nil {
      return nil, err
    }

    if len(*notesSchedule) == 0 {
      return nil, fmt.Errorf("Required argument missing:\n\n-n <note schedule> is required, for help:\n\ngrainfreeze notes -h\n\n")
    }

    notes, err := ParseNoteSchedule(*notesSchedule)

    if err != nil {
      return nil, err
    }

    if *notesVoices < 1 {
      return nil, fmt.Errorf("voices must be at least 1, got %d", *notesVoices)
    }

    parsedArgs.Stretch = 1.0
    parsedArgs.Notes = notes
    parsedArgs.Voices = *notesVoices
    parsedArgs.AnchorMin = *notesMin
    parsedArgs.AnchorCenter = *notesCenter
    parsedArgs.AnchorMax = *notesMax

    if err := common.apply(CMD_NOTES, parsedArgs); err != nil {
      return nil, err
    }
  default:
    return nil, cmdError
  }

  return parsedArgs, nil
}

// ParseNoteSchedule parses note[:velocity]@start-end entries, velocity defaults to 1
func ParseNoteSchedule(schedule string) ([]NoteSpan, error) {
  notes := []NoteSpan{}

  for _, entry := range strings.Split(schedule, ",") {
    entry = strings.TrimSpace(entry)
    if len(entry) == 0 {
      continue
    }

    identity, timing, found := strings.Cut(entry, "@")
    if !found {
      return nil, fmt.Errorf("note entry %q is missing @start-end", entry)
    }

    span := NoteSpan{Velocity: 1.0}
    notePart, velocityPart, hasVelocity := strings.Cut(identity, ":")

    note, err := strconv.Atoi(notePart)
    if err != nil || note < 0 || note > engine.MaxNote {
      return nil, fmt.Errorf("note entry %q: note must be 0-%d", entry, engine.MaxNote)
    }
    span.Note = note

    if hasVelocity {
      span.Velocity, err = strconv.ParseFloat(velocityPart, 64)
      if err != nil || span.Velocity <= 0 || span.Velocity > 1 {
        return nil, fmt.Errorf("note entry %q: velocity must be in (0, 1]", entry)
      }
    }

    startPart, endPart, found := strings.Cut(timing, "-")
    if !found {
      return nil, fmt.Errorf("note entry %q is missing an end time", entry)
    }

    span.Start, err = strconv.ParseFloat(startPart, 64)
    if err != nil {
      return nil, fmt.Errorf("note entry %q: bad start time: %w", entry, err)
    }

    span.End, err = strconv.ParseFloat(endPart, 64)
    if err != nil {
      return nil, fmt.Errorf("note entry %q: bad end time: %w", entry, err)
    }

    if span.Start < 0 || span.End <= span.Start {
      return nil, fmt.Errorf("note entry %q: end must come after start", entry)
    }

    notes = append(notes, span)
  }

  if len(notes) == 0 {
    return nil, errors.New("note schedule is empty")
  }

  return notes, nil
}

// Params builds the engine parameters for the parsed command
func (a *Arguments) Params() engine.Params {
  params := engine.DefaultParams()

  params.Stretch = a.Stretch
  params.SizeIndex, _ = pvoc.SizeIndex(a.Bands)
  params.HopDivisor = a.Overlap
  params.PitchSemitones = a.Pitch
  params.Window, _ = pvoc.ParseWindowType(a.WindowName)
  params.HFBoost = a.HFBoost
  params.MicroMovement = a.Micro
  params.GlideMs = a.Glide
  params.LoopStart = a.LoopStart
  params.LoopEnd = a.LoopEnd
  params.Playhead = a.Playhead
  params.AnchorMin = a.AnchorMin
  params.AnchorCenter = a.AnchorCenter
  params.AnchorMax = a.AnchorMax
  params.Freeze = a.Command == CMD_FREEZE
  params.Polyphonic = a.Command == CMD_NOTES

  return params.Normalize()
}

// Schedule turns the command into engine events at output frames
func (a *Arguments) Schedule(sampleRate float64) []engine.ScheduledEvent {
  schedule := []engine.ScheduledEvent{}

  switch a.Command {
  case CMD_RENDER:
    schedule = append(schedule, engine.ScheduledEvent{Frame: 0, Event: engine.Event{Kind: engine.ManualOn}})
  case CMD_NOTES:
    for _, span := range a.Notes {
      schedule = append(
        schedule,
        engine.ScheduledEvent{
          Frame: secondsToFrame(span.Start, sampleRate),
          Event: engine.Event{Kind: engine.NoteOn, Note: span.Note, Velocity: span.Velocity},
        },
        engine.ScheduledEvent{
          Frame: secondsToFrame(span.End, sampleRate),
          Event: engine.Event{Kind: engine.NoteOff, Note: span.Note},
        },
      )
    }
  }

  return schedule
}

func secondsToFrame(seconds, sampleRate float64) int64 {
  return int64(seconds * sampleRate)
}

// NotesEnd is when the last scheduled note ends, in seconds
func (a *Arguments) NotesEnd() float64 {
  end := 0.0
  for _, span := range a.Notes {
    end = max(end, span.End)
  }
  return end
}

// formats a float for a file name: 0.125 -> 0125, 100 -> 100, -12 -> m12
func fileNameNumber(value float64) string {
  formatted := strconv.FormatFloat(value, 'f', -1, 64)
  formatted = strings.Replace(formatted, ".", "", 1)
  return strings.Replace(formatted, "-", "m", 1)
}

/*
 * parseOutputFilePath resolves -f. A path whose directory exists is used as
 * given. An existing directory gets a file named after the input and every
 * setting that differs from its default, keeping the input's extension when
 * it can be written.
 */
func parseOutputFilePath(outputPath string, parsedArgs *Arguments) (string, error) {
  absPath, err := filepath.Abs(outputPath)

  if err != nil {
    return "", err
  }

  info, err := os.Stat(absPath)

  if err == nil && info.IsDir() {
    return filepath.Join(absPath, outputFileName(parsedArgs)), nil
  }

  if _, err := os.Stat(filepath.Dir(absPath)); err != nil {
    return "", fmt.Errorf("output directory does not exist: %s", filepath.Dir(absPath))
  }

  return absPath, nil
}

func outputFileName(parsedArgs *Arguments) string {
  defaults := engine.DefaultParams()

  base := filepath.Base(parsedArgs.InputPath)
  extension := strings.ToLower(filepath.Ext(base))
  base = strings.TrimSuffix(base, filepath.Ext(base))

  if extension != ".aif" && extension != ".aiff" && extension != ".wav" && extension != ".wave" {
    extension = ".wav"
  }

  parts := []string{base, parsedArgs.Command}

  if parsedArgs.Stretch != 1.0 && parsedArgs.Command == CMD_RENDER {
    parts = append(parts, "ts" + fileNameNumber(parsedArgs.Stretch))
  }

  if parsedArgs.Pitch != 0.0 {
    parts = append(parts, "p" + fileNameNumber(parsedArgs.Pitch))
  }

  if parsedArgs.Overlap != defaults.HopDivisor {
    parts = append(parts, "o" + fileNameNumber(parsedArgs.Overlap))
  }

  if parsedArgs.Bands != pvoc.SizeForIndex(defaults.SizeIndex) {
    parts = append(parts, fmt.Sprintf("b%d", parsedArgs.Bands))
  }

  if parsedArgs.WindowName != defaults.Window.String() {
    parts = append(parts, parsedArgs.WindowName)
  }

  if parsedArgs.Command == CMD_FREEZE {
    parts = append(parts, "ph" + fileNameNumber(parsedArgs.Playhead))
  }

  return strings.Join(parts, "-") + extension
}
