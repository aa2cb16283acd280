// sentinelctl builds, persists, and queries affinity indexes from the
// command line: `sentinelctl build` encodes two exemplar corpora and saves
// the index, `sentinelctl score` loads one and scores observations from
// stdin.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"sentinel/internal/app"
	"sentinel/internal/index"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		err = runBuild(deps, os.Args[2:])
	case "score":
		err = runScore(deps, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		deps.Log.Error("command failed", "cmd", os.Args[1], "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  sentinelctl build -positive <file> -negative <file> -out <path>
  sentinelctl score -index <path> [-min-score <f>] < observations.txt`)
}

func runBuild(deps app.Deps, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	positivePath := fs.String("positive", "", "file with one rare-class exemplar per line")
	negativePath := fs.String("negative", "", "file with one common-class exemplar per line")
	out := fs.String("out", "", "index destination (directory or s3:// URI)")
	ratio := fs.Float64("negative-ratio", 0, "rebalance negatives to this multiple of positives (0 = keep all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *positivePath == "" || *negativePath == "" || *out == "" {
		return fmt.Errorf("-positive, -negative and -out are required")
	}

	positive, err := readLines(*positivePath)
	if err != nil {
		return err
	}
	negative, err := readLines(*negativePath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ix, err := index.BuildFromCorpora(ctx, deps.Encoder, positive, negative, index.Options{
		Scale:  nil,
		Logger: deps.Log,
	})
	if err != nil {
		return err
	}
	if *ratio > 0 {
		ix.ApplyNegativeRatio(*ratio)
	}

	store, err := deps.BlobStoreFor(*out)
	if err != nil {
		return err
	}
	cfg, err := ix.Save(ctx, store, *out, "", nil)
	if err != nil {
		return err
	}
	deps.Log.Info("index built",
		"positives", ix.PositiveCount(),
		"negatives", ix.NegativeCount(),
		"encoder", cfg.EncoderModelNameOrPath,
		"path", *out)
	return nil
}

func runScore(deps app.Deps, args []string) error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	indexPath := fs.String("index", "", "index location (directory or s3:// URI)")
	minScore := fs.Float64("min-score", 0, "floor per-text scores below this to 0")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *indexPath == "" {
		return fmt.Errorf("-index is required")
	}

	texts, err := scanLines(os.Stdin)
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("no observations on stdin")
	}

	ctx := context.Background()
	store, err := deps.BlobStoreFor(*indexPath)
	if err != nil {
		return err
	}
	ix, err := index.Load(ctx, store, *indexPath, deps.EncoderFactory(),
		deps.Config.NegativeRatio, index.Options{Logger: deps.Log})
	if err != nil {
		return err
	}

	result, err := ix.CalculateRareClassAffinity(ctx, texts, *minScore)
	if err != nil {
		return err
	}

	for text, score := range result.ObservationScores {
		fmt.Printf("%.6f\t%s\n", score, text)
	}
	if result.RareClassAffinity.Valid {
		fmt.Printf("aggregate\t%.6f\n", result.RareClassAffinity.Float64)
	} else {
		fmt.Println("aggregate\tno positive signal")
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scanLines(f)
}

func scanLines(f *os.File) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
