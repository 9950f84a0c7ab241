package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"mulegraph/internal/graph"
	"mulegraph/internal/ingest"
	"mulegraph/internal/output/reportjson"
	"mulegraph/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("graph-stats", flag.ContinueOnError)
	input := fs.String("input", "transactions.csv", "Transaction CSV or JSONL input path")
	format := fs.String("format", ingest.FormatAuto, "Input format: auto, csv or jsonl")
	output := fs.String("output", "", "Stats JSON output path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rows, err := ingest.NewFileSource(*input, *format).ReadRows(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load transactions: %v\n", err)
		return 1
	}
	batch, err := ingest.Ingest(rows, ingest.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to ingest transactions: %v\n", err)
		return 1
	}

	g := graph.Build(batch.All())
	stats := report.Stats(g, g.StronglyConnected())

	if *output == "" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode stats: %v\n", err)
			return 1
		}
		return 0
	}
	if err := reportjson.WriteFile(*output, stats); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write stats: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "analyzed transactions=%d skipped=%d nodes=%d edges=%d output=%s\n",
		batch.Len(), batch.Skipped(), stats.Nodes, stats.Edges, *output)
	return 0
}
