package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"flipfield.gg/internal/journal"
	"flipfield.gg/internal/pipeline"
)

func main() {
	var (
		dir     = flag.String("journal", "", "journal directory containing outcomes-*.jsonl.zst")
		verbose = flag.Bool("v", false, "print every record")
	)
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "missing -journal")
		os.Exit(2)
	}

	var (
		chunks, cells, okChunks, okCells int
		elapsedSum                       int64
		byErr                            = map[string]int{}
	)
	err := journal.Scan(*dir, func(o pipeline.Outcome) error {
		chunks++
		cells += len(o.Coords)
		if o.OK {
			okChunks++
			okCells += len(o.Coords)
			elapsedSum += o.ElapsedMs
		} else {
			byErr[errKey(o.Err)]++
		}
		if *verbose {
			fmt.Printf("%s ok=%v cells=%d elapsed=%dms ref=%s err=%s\n",
				o.Time.Format("2006-01-02T15:04:05.000Z07:00"), o.OK, len(o.Coords), o.ElapsedMs, o.Ref, o.Err)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "scan:", err)
		os.Exit(1)
	}

	fmt.Printf("chunks=%d cells=%d ok_chunks=%d ok_cells=%d\n", chunks, cells, okChunks, okCells)
	if okChunks > 0 {
		fmt.Printf("avg_chunk_elapsed=%.1fms\n", float64(elapsedSum)/float64(okChunks))
	}
	if len(byErr) > 0 {
		keys := make([]string, 0, len(byErr))
		for k := range byErr {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("failed %s: %d\n", k, byErr[k])
		}
	}
}

// errKey collapses "flip rejected: E_RATE_LIMIT" style messages onto the code.
func errKey(msg string) string {
	if i := strings.LastIndex(msg, "E_"); i >= 0 {
		return msg[i:]
	}
	if msg == "" {
		return "(unknown)"
	}
	return msg
}
