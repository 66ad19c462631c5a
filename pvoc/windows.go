package pvoc

import(
  "fmt"
  "strings"
  "github.com/cwbudde/algo-dsp/dsp/window"
)

type WindowType int

const (
  Hann WindowType = iota
  BlackmanHarris
)

var WindowTypeNames = map[WindowType]string {
  Hann: "hann",
  BlackmanHarris: "blackmanharris",
}

// maps our window shapes onto the algo-dsp generator types
var windowGenerators = map[WindowType]window.Type {
  Hann: window.TypeHann,
  BlackmanHarris: window.TypeBlackmanHarris4Term,
}

func (wt WindowType) String() string {
  if name, ok := WindowTypeNames[wt]; ok {
    return name
  }
  return fmt.Sprintf("window(%d)", int(wt))
}

func (wt WindowType) Valid() bool {
  _, ok := WindowTypeNames[wt]
  return ok
}

func WindowNames() []string {
  return []string{WindowTypeNames[Hann], WindowTypeNames[BlackmanHarris]}
}

func WindowNamesString() string {
  return strings.Join(WindowNames(), ", ")
}

func ParseWindowType(name string) (WindowType, error) {
  lowered := strings.ToLower(strings.TrimSpace(name))

  for windowType, windowName := range WindowTypeNames {
    if windowName == lowered {
      return windowType, nil
    }
  }

  return Hann, fmt.Errorf("Invalid window function (%s), valid options are: %s", name, WindowNamesString())
}

// symmetric window coefficients (denominator size-1) of the given shape
func GenerateWindow(windowType WindowType, size int) []float64 {
  generator, ok := windowGenerators[windowType]
  if !ok {
    generator = window.TypeHann
  }

  return window.Generate(generator, size)
}

/*
 * WindowTable caches the analysis/synthesis window for each transform size
 * that has been prepared. The same coefficients are used for analysis and
 * synthesis. Changing the shape regenerates every prepared size.
 */
type WindowTable struct {
  windowType WindowType
  coefficients [][]float64
}

func NewWindowTable(windowType WindowType) *WindowTable {
  return &WindowTable{
    windowType: windowType,
    coefficients: make([][]float64, len(TransformSizes), len(TransformSizes)),
  }
}

func (wt *WindowTable) Type() WindowType {
  return wt.windowType
}

// Prepare makes sure coefficients exist for sizeIndex. Allocates.
func (wt *WindowTable) Prepare(sizeIndex int) []float64 {
  sizeIndex = ClampSizeIndex(sizeIndex)

  if wt.coefficients[sizeIndex] == nil {
    wt.coefficients[sizeIndex] = GenerateWindow(wt.windowType, TransformSizes[sizeIndex])
  }

  return wt.coefficients[sizeIndex]
}

// Coefficients returns the prepared window for sizeIndex, or nil
func (wt *WindowTable) Coefficients(sizeIndex int) []float64 {
  return wt.coefficients[ClampSizeIndex(sizeIndex)]
}

// SetType switches the shape, recomputing the sizes already prepared
func (wt *WindowTable) SetType(windowType WindowType) {
  if windowType == wt.windowType {
    return
  }

  wt.windowType = windowType

  for i := range wt.coefficients {
    if wt.coefficients[i] != nil {
      wt.coefficients[i] = GenerateWindow(windowType, TransformSizes[i])
    }
  }
}
