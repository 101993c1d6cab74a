package main // import "github.com/edp1096/toy-mna/cmd"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/edp1096/toy-mna/pkg/analysis"
	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/edp1096/toy-mna/pkg/netlist"
	"github.com/edp1096/toy-mna/pkg/util"
	"github.com/edp1096/toy-mna/pkg/waveform"
	"github.com/pkg/errors"
)

var (
	backendFlag  = flag.String("backend", "dense", "matrix backend: dense or sparse")
	plotFlag     = flag.String("plot", "", "write a PNG chart of the results to `file`")
	rendererFlag = flag.String("renderer", "plot", "chart renderer: plot or chart")
	signalsFlag  = flag.String("signals", "", "comma separated result keys to plot, e.g. V(out),I(R1)")
	dumpFlag     = flag.Bool("dump", false, "print the assembled equations before the analysis")
	verboseFlag  = flag.Bool("v", false, "log engine events to stderr")
)

func getKeys(m map[string][]float64, prefix string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func unitOf(name string) string {
	if strings.HasPrefix(name, "I(") {
		return "A"
	}
	return "V"
}

func printRow(results map[string][]float64, names []string, i int) {
	for _, name := range names {
		fmt.Printf("%s=%s  ", name, util.FormatValueFactor(results[name][i], unitOf(name)))
	}
	fmt.Println()
}

func printResults(results map[string][]float64, sweepLabel string) {
	fmt.Println("\nAnalysis Results:")
	fmt.Println("================")

	names := append(getKeys(results, "V("), getKeys(results, "I(")...)

	// DC Sweep
	if sweep, isDC := results["SWEEP"]; isDC {
		fmt.Printf("\nDC Sweep Analysis Results (%d points):\n", len(sweep))
		fmt.Printf("%-24s Node Voltages        Branch Currents\n", sweepLabel)
		fmt.Println("------------------------------------------------")

		// SWEEP2 holds one value per pass of the inner sweep.
		outer, nested := results["SWEEP2"]
		inner := len(sweep)
		if nested && len(outer) > 0 {
			inner = len(sweep) / len(outer)
		}
		for i := range sweep {
			if nested {
				fmt.Printf("%-11s %-11s  ", util.FormatMagnitude(sweep[i]), util.FormatMagnitude(outer[i/inner]))
			} else {
				fmt.Printf("%-24s ", util.FormatMagnitude(sweep[i]))
			}
			printRow(results, names, i)
		}
		return
	}

	// Transient
	if times, isTran := results["TIME"]; isTran {
		fmt.Printf("\nTransient Analysis Results (%d time points):\n", len(times))
		fmt.Println("Time        Node Voltages        Branch Currents")
		fmt.Println("------------------------------------------------")
		for i, t := range times {
			fmt.Printf("%9s  ", util.FormatValueFactor(t, "s"))
			printRow(results, names, i)
		}
		return
	}

	// Operating point
	fmt.Println("\nNode Voltages:")
	for _, name := range getKeys(results, "V(") {
		fmt.Printf("%s = %s\n", name, util.FormatValueFactor(results[name][0], "V"))
	}
	fmt.Println("\nBranch Currents:")
	for _, name := range getKeys(results, "I(") {
		fmt.Printf("%s = %s\n", name, util.FormatValueFactor(results[name][0], "A"))
	}
}

func newAnalyzer(data *netlist.NetlistData) (analysis.Analysis, string, error) {
	switch data.Analysis {
	case netlist.AnalysisTRAN:
		param := data.TranParam
		return analysis.NewTransient(param.TStart, param.TStop, param.TStep), "time (s)", nil
	case netlist.AnalysisDC:
		param := data.DCParam
		var dc *analysis.DCSweep
		var err error
		if param.Source2 != "" {
			// nested sweep
			dc, err = analysis.NewDCSweep(
				[]string{param.Source1, param.Source2},
				[]float64{param.Start1, param.Start2},
				[]float64{param.Stop1, param.Stop2},
				[]float64{param.Increment1, param.Increment2},
			)
		} else {
			dc, err = analysis.NewDCSweep(
				[]string{param.Source1},
				[]float64{param.Start1},
				[]float64{param.Stop1},
				[]float64{param.Increment1},
			)
		}
		if err != nil {
			return nil, "", err
		}
		return dc, dc.Label(), nil
	}
	return analysis.NewOP(), "", nil
}

func writePlot(results map[string][]float64, title, xLabel string) error {
	axis := "TIME"
	if _, ok := results["SWEEP"]; ok {
		axis = "SWEEP"
	}

	var keys []string
	if *signalsFlag != "" {
		keys = strings.Split(*signalsFlag, ",")
	}
	series, err := waveform.Select(results, axis, keys)
	if err != nil {
		return err
	}
	render, err := waveform.ParseRenderer(*rendererFlag)
	if err != nil {
		return err
	}

	f, err := os.Create(*plotFlag)
	if err != nil {
		return err
	}
	if err := render(f, title, xLabel, series); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func run(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data, err := netlist.Parse(string(content))
	if err != nil {
		return err
	}

	opts := circuit.DefaultOptions()
	if opts.Backend, err = matrix.ParseBackend(*backendFlag); err != nil {
		return err
	}
	if *verboseFlag {
		opts.Logger = log.New(os.Stderr, "toy-mna: ", log.Ltime|log.Lmicroseconds)
	}

	ckt, err := netlist.Build(data, opts)
	if err != nil {
		return err
	}

	analyzer, xLabel, err := newAnalyzer(data)
	if err != nil {
		return err
	}
	if err := analyzer.Setup(ckt); err != nil {
		return errors.Wrap(err, "analysis setup failed")
	}
	if *dumpFlag {
		if err := ckt.Prepare(); err != nil {
			return err
		}
		ckt.PrintSystem(os.Stdout)
	}
	if err := analyzer.Execute(); err != nil {
		return errors.Wrap(err, "analysis execution failed")
	}

	results := analyzer.GetResults()
	printResults(results, xLabel)

	if *verboseFlag {
		stats := ckt.NewtonStats()
		log.Printf("%s: %d elements, %d unknowns, %d ticks, newton %d iterations, residual %s",
			data.Analysis, len(ckt.Elements()), ckt.Size(), ckt.Ticks(), stats.Iterations, util.FormatMagnitude(stats.Residual))
	}

	if *plotFlag != "" && data.Analysis != netlist.AnalysisOP {
		if err := writePlot(results, data.Title, xLabel); err != nil {
			return errors.Wrap(err, "plotting")
		}
		fmt.Printf("\nChart written to %s\n", *plotFlag)
	}
	return nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] netlist.cir\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
