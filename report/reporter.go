package report

import (
	"fmt"
	"os"
	"sync"

	"github.com/xyproto/env/v2"
)

// Reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user during compilation.  The reporter respects the set log
// level and is synchronized: its methods can be safely called from multiple
// goroutines (the code generation stage runs units in parallel).
type Reporter struct {
	// The mutex used to synchronize reporting calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The directory error display paths are shortened relative to.  This is
	// normally the working directory of the compiler.
	baseDir string

	// The running error and warning counts.
	errorCount, warningCount int
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all compilation messages to the user (default).
)

// logLevelNames maps log level configuration strings to log levels.
var logLevelNames = map[string]int{
	"silent":  LogLevelSilent,
	"error":   LogLevelError,
	"warn":    LogLevelWarn,
	"verbose": LogLevelVerbose,
}

// rep is the global reporter instance.
var rep *Reporter

// InitReporter initializes the global error reporter to the given log level.
// If the reporter has already been initialized, this function does nothing.
func InitReporter(logLevel int) {
	if rep == nil {
		wd, err := os.Getwd()
		if err != nil {
			wd = ""
		}

		rep = &Reporter{
			m:        &sync.Mutex{},
			logLevel: logLevel,
			baseDir:  wd,
		}
	}
}

// LogLevelFromEnv returns the log level selected by the JEFF65_LOGLEVEL
// environment variable, defaulting to verbose.
func LogLevelFromEnv() int {
	if level, ok := logLevelNames[env.Str("JEFF65_LOGLEVEL", "verbose")]; ok {
		return level
	}

	return LogLevelVerbose
}

// ensureReporter lazily initializes the global reporter.  Library consumers
// (notably tests) may report without an explicit InitReporter call.
func ensureReporter() {
	if rep == nil {
		InitReporter(LogLevelFromEnv())
	}
}

// -----------------------------------------------------------------------------

// ReportCompileError reports a compilation error: ie. erroneous input code.
func ReportCompileError(path string, span *TextSpan, message string, args ...interface{}) {
	ensureReporter()

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayCompileMessage("error", path, rep.shortenPath(path), span, fmt.Sprintf(message, args...))
	}
}

// ReportCompileWarning reports a compilation warning.  The arguments are of
// the same form as those to ReportCompileError.
func ReportCompileWarning(path string, span *TextSpan, message string, args ...interface{}) {
	ensureReporter()

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.warningCount++

	if rep.logLevel > LogLevelError {
		displayCompileMessage("warning", path, rep.shortenPath(path), span, fmt.Sprintf(message, args...))
	}
}

// ReportUnitError reports a unit resolution error.
func ReportUnitError(ue *UnitError) {
	ensureReporter()

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayUnitError(ue)
	}
}

// ReportLinkError reports a link-time symbol error.
func ReportLinkError(le *LinkError) {
	ensureReporter()

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayLinkError(le)
	}
}

// ReportStdError reports a non-fatal, standard Go error attributed to a path.
func ReportStdError(path string, err error) {
	ensureReporter()

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayStdError(rep.shortenPath(path), err)
	}
}

// ReportFatal reports a fatal error and exits the compiler.  These are
// expected errors that generally result from invalid configuration: a missing
// output directory, an unwritable cache, etc.
func ReportFatal(message string, args ...interface{}) {
	ensureReporter()

	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		displayFatal(fmt.Sprintf(message, args...))
		rep.m.Unlock()
	}

	os.Exit(1)
}

// ICE reports an internal compiler error and aborts.  These errors result from
// a bug in the compiler itself: an emission rule gap for a construct the
// checker accepted, a corrupted plan, etc.  They are always displayed
// regardless of log level.
func ICE(message string, args ...interface{}) {
	displayICE(fmt.Sprintf(message, args...))
	os.Exit(-1)
}

// -----------------------------------------------------------------------------

// ShouldProceed indicates whether compilation should continue past the current
// stage boundary: it returns false once any error has been reported.
func ShouldProceed() bool {
	ensureReporter()

	rep.m.Lock()
	defer rep.m.Unlock()

	return rep.errorCount == 0
}

// ErrorCount returns the number of errors reported so far.
func ErrorCount() int {
	ensureReporter()

	rep.m.Lock()
	defer rep.m.Unlock()

	return rep.errorCount
}

// -----------------------------------------------------------------------------

// CatchErrors catches compile errors thrown by a `panic` during a stage of
// compilation and reports them against the given source path.  In effect, this
// handler determines where "unrecoverable" errors within a subsection of the
// compiler stop bubbling.
// NB: This function must ALWAYS be deferred.
func CatchErrors(path string) {
	if x := recover(); x != nil {
		if cerr, ok := x.(*CompileError); ok {
			ReportCompileError(path, cerr.Span, "%s", cerr.Message)
		} else if serr, ok := x.(error); ok {
			ReportStdError(path, serr)
		} else {
			ReportFatal("%v", x)
		}
	}
}
