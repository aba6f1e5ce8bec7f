package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"
)

// Health probes each upstream provider once and prints the report.
func (a *App) Health(ctx context.Context) error {
	pipe, _ := a.newPipeline()
	report := pipe.HealthCheck(ctx)

	fmt.Fprintf(os.Stdout, "checked at %s\n\n", report.Timestamp.Format(time.RFC3339))

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Source\tStatus")

	sources := make([]string, 0, len(report.Sources))
	for name := range report.Sources {
		sources = append(sources, name)
	}
	sort.Strings(sources)
	for _, name := range sources {
		fmt.Fprintf(writer, "%s\t%s\n", name, report.Sources[name])
	}
	writer.Flush()

	fmt.Fprintln(os.Stdout)
	writer = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Provider\tCalls\tLimit\tWindow")

	providers := make([]string, 0, len(report.RateLimits))
	for name := range report.RateLimits {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	for _, name := range providers {
		usage := report.RateLimits[name]
		fmt.Fprintf(writer, "%s\t%d\t%d\t%s\n", name, usage.Calls, usage.Max, usage.Window)
	}
	writer.Flush()

	fmt.Fprintln(os.Stdout)
	writer = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Cache\tEntries")
	categories := make([]string, 0, len(report.CacheSizes))
	sizes := make(map[string]int, len(report.CacheSizes))
	for category, n := range report.CacheSizes {
		categories = append(categories, string(category))
		sizes[string(category)] = n
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Fprintf(writer, "%s\t%d\n", category, sizes[category])
	}
	writer.Flush()

	return nil
}
