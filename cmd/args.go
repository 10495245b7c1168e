package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/report"
	"github.com/xyproto/env/v2"
)

const usage = `Usage: jeff65 compile [flags|options] <path to root unit>

Flags:
------
-h, --help      Displays usage information (ie. this text).
-v, --version   Displays the current compiler version.
-n, --nocache   Skips writing unit cache artifacts after code generation.

Options:
--------
-o,  --outpath    Sets the path for the output program image.  Defaults to the
                  root unit path with its extension replaced by .prg.
-I,  --unitpath   Adds a directory to the unit search path.  May be given more
                  than once.  The root unit's directory is always searched
                  first.
-c,  --cachedir   Sets the directory for unit cache artifacts.  Defaults to
                  JEFF65_CACHE if set; otherwise artifacts are written
                  alongside their source files.
-ll, --loglevel   Sets the compiler's log-level.  Valid values are:
                    - "verbose" for outputting all messages (default)
                    - "warn" for outputting errors and warnings
                    - "error" for outputting errors only
                    - "silent" for no output
-Z                Enables comma-separated debug outputs.  Valid values are:
                    - "plan" to print the compilation plan after resolution
                    - "symbols" to print symbol tables after code generation
`

// Prints the usage message and exits the compiler with the given exit code.
func printUsage(exitCode int) {
	fmt.Print(usage, "\n")
	os.Exit(exitCode)
}

// argParser is a command-line argument parser.
type argParser struct {
	// The arguments being parsed.
	args []string

	// The argument parser's position within those arguments.
	ndx int
}

// Set containing all the argument names that correspond to options.
var options = map[string]struct{}{
	"o":         {},
	"I":         {},
	"c":         {},
	"Z":         {},
	"ll":        {},
	"-outpath":  {},
	"-unitpath": {},
	"-cachedir": {},
	"-loglevel": {},
}

// Set containing all the debug outputs -Z accepts.
var debugOpts = map[string]struct{}{
	"plan":    {},
	"symbols": {},
}

// argumentError displays an argument error and exits the program.
func argumentError(message string, args ...interface{}) {
	fmt.Print("argument error: ", fmt.Sprintf(message, args...), "\n\n")
	printUsage(1)
}

// nextArg parses the next command-line argument if one exists.  The first value
// is the name of the argument.  If this argument is positional, this value is
// empty.  The second value is the value of argument. If this value is empty,
// the argument is a flag.  If an argument exists, at least one of the returned
// values will be non-empty.  The final value indicates whether or not there was
// an argument to parse.
func (ap *argParser) nextArg() (string, string, bool) {
	if ap.ndx < len(ap.args) {
		arg := ap.args[ap.ndx]
		ap.ndx++

		if strings.HasPrefix(arg, "-") { // flag or option
			name := arg[1:]

			if _, ok := options[name]; ok { // option
				// Make sure the option value exists.
				if ap.ndx < len(ap.args) && !strings.HasPrefix(ap.args[ap.ndx], "-") {
					value := ap.args[ap.ndx]
					ap.ndx++
					return name, value, true
				} else {
					argumentError("option %s requires an argument", strings.TrimLeft(name, "-"))
				}
			} else { // flag
				return name, "", true
			}

		} else { // positional
			return "", arg, true
		}
	}

	// No arguments to parse.
	return "", "", false
}

// useArg attempts to use a single command-line argument to initialize the
// compiler.  If the argument is invalid, the program will exit.
func useArg(c *Compiler, name, value string) {
	switch name {
	case "h", "-help":
		printUsage(0)
	case "v", "-version":
		fmt.Println("jeff65 v" + Version)
		os.Exit(0)
	case "n", "-nocache":
		c.noCache = true
	case "ll", "-loglevel":
		{
			logLevel, ok := map[string]int{
				"silent":  report.LogLevelSilent,
				"error":   report.LogLevelError,
				"warn":    report.LogLevelWarn,
				"verbose": report.LogLevelVerbose,
			}[value]
			if !ok {
				argumentError("invalid log level")
			}

			report.InitReporter(logLevel)
		}
	case "o", "-outpath":
		c.outputPath = value
	case "I", "-unitpath":
		c.searchPaths = append(c.searchPaths, value)
	case "c", "-cachedir":
		c.cacheDir = value
	case "Z":
		for _, opt := range strings.Split(value, ",") {
			if _, ok := debugOpts[opt]; !ok {
				argumentError("unknown debug output: %s", opt)
			}

			c.debug[opt] = true
		}
	case "":
		if c.verb == "" {
			if value != "compile" {
				argumentError("unknown command: %s", value)
			}

			c.verb = value
		} else if c.rootPath == "" {
			absPath, err := filepath.Abs(value)
			if err != nil {
				argumentError("invalid root path: %s", value)
			}

			c.rootPath = absPath
		} else {
			argumentError("root path specified multiple times")
		}
	default:
		argumentError("unknown flag: %s", name)
	}
}

// NewCompilerFromArgs creates a new compiler instance based on the given
// command line arguments if the arguments are valid and compilation should
// continue: ie. if the user requests the compiler version, then compilation
// should not continue.
func NewCompilerFromArgs() *Compiler {
	c := &Compiler{
		cacheDir: env.Str("JEFF65_CACHE"),
		debug:    make(map[string]bool),
		table:    depm.NewUnitTable(),
	}

	// Environment defaults first, so -ll can override them.
	report.InitReporter(report.LogLevelFromEnv())

	ap := argParser{args: os.Args[1:], ndx: 0}

	// Parse all command line arguments.
	for {
		if name, value, ok := ap.nextArg(); ok {
			useArg(c, name, value)
		} else {
			break
		}
	}

	// Check to make sure a command and a root path were specified.
	if c.verb == "" {
		argumentError("a command must be specified")
	}

	if c.rootPath == "" {
		argumentError("a root unit must be specified")
	}

	if info, err := os.Stat(c.rootPath); err != nil || info.IsDir() {
		argumentError("root unit must be a readable source file: %s", c.rootPath)
	}

	// Set default values for any optional unspecified flags.
	if c.outputPath == "" {
		ext := filepath.Ext(c.rootPath)
		c.outputPath = strings.TrimSuffix(c.rootPath, ext) + ".prg"
	}

	// Validate and correct the output path as necessary.
	if info, err := os.Stat(c.outputPath); err == nil {
		if info.IsDir() {
			argumentError("output path must be a file")
		}
	} else if !os.IsNotExist(err) {
		argumentError("invalid output path: %s", err)
	}

	if c.cacheDir != "" {
		if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
			report.ReportFatal("unable to create cache directory: %s", err)
		}
	}

	return c
}
