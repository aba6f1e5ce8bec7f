package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"crypto-signal-watch/internal/model"
	"crypto-signal-watch/internal/storage"
)

// Export renders one symbol's signal history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Symbol == "" {
		return errors.New("--symbol must be provided")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	samples, err := store.ListSamplesBetween(ctx, opts.Symbol, from, to)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		a.Logger.Info().Str("symbol", opts.Symbol).Msg("no samples found for export window")
		return nil
	}

	downsampled := downsampleSamples(samples, opts.MaxPoints)
	a.Logger.Info().Str("symbol", opts.Symbol).Int("total", len(samples)).Int("exported", len(downsampled)).Msg("exporting samples")

	if opts.CSVPath != "" {
		if err := writeSamplesCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSamplesPNG(opts.PNGPath, opts.Symbol, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleSamples(samples []storage.SignalSample, max int) []storage.SignalSample {
	if max <= 0 || len(samples) <= max {
		return samples
	}

	result := make([]storage.SignalSample, 0, max)
	step := float64(len(samples)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		result = append(result, samples[idx])
	}
	return result
}

func writeSamplesCSV(path string, samples []storage.SignalSample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"cycle_ts", "symbol", "overall_signal", "confidence", "risk_level", "price", "change_24h", "fear_greed", "status", "error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, sample := range samples {
		price := ""
		if sample.Price != nil {
			price = sample.Price.String()
		}
		change := ""
		if sample.Change24h != nil {
			change = fmt.Sprintf("%.4f", *sample.Change24h)
		}
		fearGreed := ""
		if sample.FearGreed != nil {
			fearGreed = fmt.Sprintf("%d", *sample.FearGreed)
		}
		errMsg := ""
		if sample.Error != nil {
			errMsg = *sample.Error
		}
		record := []string{
			sample.CycleTS.Format(time.RFC3339),
			sample.Symbol,
			sample.Overall,
			sample.Confidence.String(),
			sample.Risk,
			price,
			change,
			fearGreed,
			sample.Status,
			errMsg,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSamplesPNG(path, symbol string, samples []storage.SignalSample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(samples))
	confidence := make([]float64, len(samples))
	signal := make([]float64, len(samples))

	for i, sample := range samples {
		x[i] = sample.CycleTS
		confidence[i] = sample.Confidence.InexactFloat64()
		signal[i] = signalOrdinal(sample.Overall)
	}

	valueFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s signal history", symbol),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Confidence",
			ValueFormatter: valueFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Signal (1=strong sell .. 5=strong buy)",
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Confidence",
				XValues: x,
				YValues: confidence,
			},
			chart.TimeSeries{
				Name:    "Signal",
				XValues: x,
				YValues: signal,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

// signalOrdinal maps a stored signal label back onto the 1..5 scale.
func signalOrdinal(label string) float64 {
	for v := model.StrongSell; v <= model.StrongBuy; v++ {
		if v.String() == label {
			return float64(v)
		}
	}
	return float64(model.Neutral)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
