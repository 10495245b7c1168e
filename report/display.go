package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/xyproto/env/v2"
)

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnColorFG    = pterm.FgYellow
	warnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	infoColorFG    = successColorFG
)

func init() {
	if env.Bool("JEFF65_NOCOLOR") {
		pterm.DisableColor()
	}
}

// shortenPath rewrites a display path relative to the reporter's base
// directory when the result is shorter than the absolute form.
func (r *Reporter) shortenPath(path string) string {
	if r.baseDir == "" {
		return path
	}

	if rel, err := filepath.Rel(r.baseDir, path); err == nil && len(rel) < len(path) {
		return rel
	}

	return path
}

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	errorStyleBG.Print("internal compiler error")
	fmt.Printf(" %s\n", message)
	fmt.Print("This error was not supposed to happen: please open an issue at github.com/jdpage/jeff65\n\n")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	errorStyleBG.Print("fatal error")
	fmt.Printf(" %s\n\n", message)
}

// displayUnitError displays a unit resolution error.
func displayUnitError(ue *UnitError) {
	errorStyleBG.Print("unit error")
	fmt.Printf(" %s\n\n", ue.Error())
}

// displayLinkError displays a link-time symbol error.
func displayLinkError(le *LinkError) {
	errorStyleBG.Print("link error")
	fmt.Printf(" %s\n\n", le.Error())
}

// displayStdError displays a standard Go error.
func displayStdError(reprPath string, err error) {
	fmt.Printf("%s: ", reprPath)
	errorColorFG.Print("error")
	fmt.Printf(": %s\n\n", err)
}

// displayCompileMessage displays a compilation error or warning.  The label is
// the string to prefix the message with: eg. if we want to display an error,
// the label is "error".
func displayCompileMessage(label, absPath, reprPath string, span *TextSpan, message string) {
	if span == nil {
		fmt.Printf("%s: %s: %s\n\n", reprPath, label, message)
		return
	}

	fmt.Printf("%s:%d:%d: ", reprPath, span.StartLine+1, span.StartCol+1)
	if label == "error" {
		errorColorFG.Print(label)
	} else {
		warnColorFG.Print(label)
	}
	fmt.Printf(": %s\n\n", message)

	displaySourceText(absPath, span)
}

// -----------------------------------------------------------------------------

// displaySourceText displays a segment of source text defined by a text span.
func displaySourceText(absPath string, span *TextSpan) {
	// Open the file so we can read the desired source text.
	file, err := os.Open(absPath)
	if err != nil {
		// The unit may not correspond to a real file (virtual units, tests).
		return
	}
	defer file.Close()

	// Collect all the source lines containing the given source text.
	var lines []string
	sc := bufio.NewScanner(file)
	for ln := 0; sc.Scan(); ln++ {
		if span.StartLine <= ln && ln <= span.EndLine {
			lines = append(lines, strings.ReplaceAll(sc.Text(), "\t", "    "))
		}
	}

	if sc.Err() != nil || len(lines) == 0 {
		return
	}

	// Calculate the minimum line indentation.
	minIndent := math.MaxInt
	for _, line := range lines {
		lineIndent := 0
		for _, c := range line {
			if c == ' ' {
				lineIndent++
			} else {
				break
			}
		}

		if lineIndent < minIndent {
			minIndent = lineIndent
		}
	}

	// Calculate the maximum line number length and the format string for line
	// numbers.
	maxLineNumLen := len(strconv.Itoa(span.EndLine + 1))
	lineNumFmtStr := "%-" + strconv.Itoa(maxLineNumLen) + "v | "

	for i, line := range lines {
		// Print the line number, separator bar, and the source text with the
		// leading indent trimmed off.
		infoColorFG.Printf(lineNumFmtStr, i+span.StartLine+1)
		fmt.Println(line[minIndent:])

		fmt.Print(strings.Repeat(" ", maxLineNumLen), " | ")

		// The underline continues from the previous line for every line after
		// the first, and runs to the end of the line for every line before the
		// last.
		carretPrefixCount := 0
		if i == 0 {
			carretPrefixCount = span.StartCol - minIndent
		}

		carretSuffixCount := 0
		if i == len(lines)-1 {
			carretSuffixCount = len(line) - span.EndCol
		}

		carretCount := len(line) - carretSuffixCount - carretPrefixCount - minIndent
		if carretPrefixCount < 0 || carretCount < 1 {
			carretPrefixCount = 0
			carretCount = 1
		}

		fmt.Print(strings.Repeat(" ", carretPrefixCount))
		errorColorFG.Println(strings.Repeat("^", carretCount))
	}

	fmt.Println()
}

// -----------------------------------------------------------------------------
// Below are the "aesthetic" display functions that only run at the verbose log
// level.  These provide additional information about the compilation process.

// phaseSpinner stores the current phase spinner.
var phaseSpinner *pterm.SpinnerPrinter
var currentPhase string
var phaseStartTime time.Time

const maxPhaseLength = len("Generating")

// BeginPhase displays the beginning of a compilation phase.
func BeginPhase(phase string) {
	ensureReporter()
	if rep.logLevel < LogLevelVerbose {
		return
	}

	currentPhase = phase
	phaseText := phase + "..." + strings.Repeat(" ", maxPhaseLength-len(phase)+2)
	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(infoColorFG))

	spinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: successStyleBG,
			Text:  "Done",
		},
	}

	spinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: errorStyleBG,
			Text:  "Fail",
		},
	}

	phaseSpinner, _ = spinner.Start(phaseText)
	phaseStartTime = time.Now()
}

// EndPhase displays the end of a compilation phase.
func EndPhase(success bool) {
	if phaseSpinner == nil {
		return
	}

	if success {
		phaseSpinner.Success(
			currentPhase+strings.Repeat(" ", maxPhaseLength-len(currentPhase)+2),
			fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
		)
	} else {
		phaseSpinner.Fail(currentPhase + strings.Repeat(" ", maxPhaseLength-len(currentPhase)+2))
	}

	phaseSpinner = nil
}

// CompileHeader displays the compiler banner before compilation starts.
func CompileHeader(version, rootUnit string) {
	ensureReporter()
	if rep.logLevel < LogLevelVerbose {
		return
	}

	fmt.Print("jeff65 ")
	infoColorFG.Print("v" + version)
	fmt.Print(" -- unit: ")
	infoColorFG.Println(rootUnit)
}

// CompileFooter displays the closing compilation summary.
func CompileFooter(outputPath string) {
	ensureReporter()

	rep.m.Lock()
	errorCount, warningCount := rep.errorCount, rep.warningCount
	rep.m.Unlock()

	if rep.logLevel < LogLevelVerbose {
		return
	}

	fmt.Print("\n")

	if errorCount == 0 {
		successColorFG.Print("All done! ")
		fmt.Print("wrote ")
		infoColorFG.Print(rep.shortenPath(outputPath))
	} else {
		errorColorFG.Print("Oh no! ")
	}

	fmt.Print(" (")

	if errorCount == 0 {
		successColorFG.Print(0)
	} else {
		errorColorFG.Print(errorCount)
	}
	if errorCount == 1 {
		fmt.Print(" error, ")
	} else {
		fmt.Print(" errors, ")
	}

	if warningCount == 0 {
		successColorFG.Print(0)
	} else {
		warnColorFG.Print(warningCount)
	}
	if warningCount == 1 {
		fmt.Println(" warning)")
	} else {
		fmt.Println(" warnings)")
	}
}
