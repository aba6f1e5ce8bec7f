package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"crypto-signal-watch/internal/config"
)

// Collect runs one collection cycle and prints the fused signals.
func (a *App) Collect(ctx context.Context, opts CollectOptions) error {
	symbols := config.NormalizeSymbols(opts.Symbols)
	if len(symbols) == 0 {
		symbols = a.Config.Symbols
	}
	if len(symbols) == 0 {
		return errors.New("no symbols configured")
	}

	pipe, _ := a.newPipeline()
	results := pipe.CollectAll(ctx, symbols)
	if len(results) == 0 {
		return errors.New("collection produced no signals")
	}

	if opts.AsJSON {
		for _, symbol := range symbols {
			sig, ok := results[symbol]
			if !ok {
				continue
			}
			payload, err := sig.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(payload))
		}
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Symbol\tTime (UTC)\tSignal\tConfidence\tRisk\tReasoning")

	for _, symbol := range symbols {
		sig, ok := results[symbol]
		if !ok {
			fmt.Fprintf(writer, "%s\t-\t-\t-\t-\tcollection failed\n", symbol)
			continue
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%.2f\t%s\t%s\n",
			sig.Symbol,
			sig.Timestamp.UTC().Format(time.RFC3339),
			sig.OverallSignal.String(),
			sig.Confidence,
			sig.Risk,
			sanitizeInline(strings.Join(sig.Reasoning, "; ")),
		)
	}

	writer.Flush()
	return nil
}
