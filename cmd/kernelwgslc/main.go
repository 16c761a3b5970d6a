// Command kernelwgslc compiles a kernel IR program fixture to WGSL.
//
// Usage:
//
//	kernelwgslc [options] <input.json>
//
// Examples:
//
//	kernelwgslc kernel.json                  # Compile to stdout
//	kernelwgslc -o kernel.wgsl kernel.json    # Compile to file
//	kernelwgslc -emulate64 kernel.json        # Enable f64/i64 emulation
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/gogpu/kernelwgsl/wgsl"
)

var (
	output      = flag.String("o", "", "output file (default: stdout)")
	emulate64   = flag.Bool("emulate64", false, "enable f64 and i64/u64 emulation")
	emulateF64  = flag.Bool("emulate-f64", false, "enable f64 emulation only")
	emulateI64  = flag.Bool("emulate-i64", false, "enable i64/u64 emulation only")
	versionFlag = flag.Bool("version", false, "print version")
)

// version returns the module version from build info.
func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("kernelwgslc version %s\n", version())
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input fixture specified")
		usage()
		os.Exit(1)
	}

	inputPath := args[0]

	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	fix, err := loadFixture(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing fixture: %v\n", err)
		os.Exit(1)
	}

	prog, err := fix.buildProgram()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building program: %v\n", err)
		os.Exit(1)
	}

	opts := wgsl.DefaultOptions()
	opts.EnableF64Emulation = *emulate64 || *emulateF64
	opts.EnableI64Emulation = *emulate64 || *emulateI64

	code, info, err := wgsl.Compile(prog, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation error: %v\n", err)
		os.Exit(1)
	}

	for _, d := range info.Diagnostics {
		fmt.Fprintf(os.Stderr, "diagnostic: %s\n", d)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(code), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully compiled %s to %s (%d bytes, %d bindings)\n", inputPath, *output, len(code), len(info.Bindings))
	} else {
		if _, err := os.Stdout.Write([]byte(code)); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: kernelwgslc [options] <input.json>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  kernelwgslc kernel.json                Compile to stdout\n")
	fmt.Fprintf(os.Stderr, "  kernelwgslc -o kernel.wgsl kernel.json  Compile to file\n")
	fmt.Fprintf(os.Stderr, "  kernelwgslc -emulate64 kernel.json      Enable f64/i64 emulation\n")
}
