// Command segscan runs a segmented scan over JSON input.
//
//	echo '{"values":[1,2,3,4,5],"lengths":[2,3]}' | segscan -op sum
//
// Input carries either head flags or segment lengths. The result is written to
// stdout as {"values":[...]}.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/openfluke/segscan/detector"
	"github.com/openfluke/segscan/device"
	"github.com/openfluke/segscan/pods"
	"github.com/openfluke/segscan/segments"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type request struct {
	Values  []float64 `json:"values"`
	Flags   []uint32  `json:"flags,omitempty"`
	Lengths []int     `json:"lengths,omitempty"`
}

type response struct {
	Values any    `json:"values"`
	Error  string `json:"error,omitempty"`
}

func main() {
	op := flag.String("op", "sum", "Operator: sum|min|max|or")
	backward := flag.Bool("backward", false, "Scan from the last element towards the first")
	exclusive := flag.Bool("exclusive", false, "Exclusive scan")
	f32 := flag.Bool("f32", false, "Treat values as float32 instead of uint32")
	threads := flag.Int("threads", 0, "Threads per block (0 = detected)")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = detected)")
	useGPU := flag.Bool("gpu", false, "Run on the WebGPU backend if built with -tags=gpu")
	detect := flag.Bool("detect", false, "Print the host and adapter report and exit")
	trace := flag.String("trace", "Error", "Trace level: Error|Info|Debug")
	metrics := flag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :9090")
	flag.Parse()

	tracer := gologadapter.New()
	tracer.SetTraceLevel(tracing.TraceLevelFromString(*trace))
	tracing.SetTraceSelector(tracing.SelectorForAdapter(func() tracing.Trace { return tracer }))

	cpu := detector.DetectCPU()
	if *detect {
		printReports(cpu)
		return
	}

	if *metrics != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metrics, nil); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	var r io.Reader = os.Stdin
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatalf("Error opening input: %v", err)
		}
		defer f.Close()
		r = f
	}
	in, err := parseInput(r, *f32)
	if err != nil {
		log.Fatalf("Error reading input: %v", err)
	}
	in.ScanOptions = pods.ScanOptions{Op: *op, Backward: *backward, Exclusive: *exclusive}

	w := cpu.Recommended.Workers
	if *workers > 0 {
		w = *workers
	}
	dev := device.New(w)
	defer dev.Close()

	x := pods.NewContext(nil, cpu).WithDevice(dev)
	if *threads > 0 {
		x.Threads = *threads
	}
	if *useGPU {
		if rep, err := detector.Detect(); err == nil {
			x.Report = rep
		} else {
			log.Printf("GPU detection failed: %v", err)
		}
		x.WithGPU(pods.GPU)
	}

	out, err := pods.Run(x, "primitives/segscan", in)
	if err != nil {
		json.NewEncoder(os.Stdout).Encode(response{Error: err.Error()})
		os.Exit(1)
	}
	res := out.(pods.SegScanOut)
	var values any = res.U32
	if *f32 {
		values = res.F32
	}
	if err := json.NewEncoder(os.Stdout).Encode(response{Values: values}); err != nil {
		log.Fatal(err)
	}
}

// parseInput decodes a request and converts it into the segscan pod's input.
func parseInput(r io.Reader, f32 bool) (pods.SegScanIn, error) {
	var req request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return pods.SegScanIn{}, err
	}
	var in pods.SegScanIn
	switch {
	case req.Flags != nil && req.Lengths != nil:
		return in, fmt.Errorf("%w: give either flags or lengths", pods.ErrBadInput)
	case req.Lengths != nil:
		flags, err := segments.FlagsFromLengths(req.Lengths)
		if err != nil {
			return in, err
		}
		if len(flags) != len(req.Values) {
			return in, fmt.Errorf("%w: lengths cover %d elements, got %d values",
				pods.ErrBadInput, len(flags), len(req.Values))
		}
		in.Flags = flags
	default:
		in.Flags = req.Flags
	}
	if f32 {
		in.F32 = make([]float32, len(req.Values))
		for i, v := range req.Values {
			in.F32[i] = float32(v)
		}
		return in, nil
	}
	in.U32 = make([]uint32, len(req.Values))
	for i, v := range req.Values {
		if v < 0 || v > math.MaxUint32 || v != math.Trunc(v) {
			return in, fmt.Errorf("%w: value %v at %d is not a uint32", pods.ErrBadInput, v, i)
		}
		in.U32[i] = uint32(v)
	}
	return in, nil
}

func printReports(cpu *detector.CPUReport) {
	s, err := cpu.JSON()
	if err != nil {
		log.Fatalf("Error encoding CPU report: %v", err)
	}
	fmt.Println(s)
	g, err := detector.DetectJSON()
	if err != nil {
		log.Printf("No GPU adapter: %v", err)
		return
	}
	fmt.Println(g)
}
