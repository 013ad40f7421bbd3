package main

import (
	"flag"
	"log"
	"os"

	"flipfield.gg/internal/cell"
	"flipfield.gg/internal/keyindex"
)

func main() {
	var (
		out = flag.String("out", "./data/keymap.db", "output sqlite path")
		n   = flag.Int("n", cell.GridWidth*cell.GridWidth, "number of cells to index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[keymap] ", log.LstdFlags)

	if err := keyindex.Build(*out, *n); err != nil {
		logger.Fatalf("build: %v", err)
	}

	tbl, err := keyindex.Open(*out)
	if err != nil {
		logger.Fatalf("verify: %v", err)
	}
	logger.Printf("wrote %d keys to %s", tbl.Len(), *out)
}
