package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gamma-omg/backtester/internal/stats"
)

// Number marshals like a float64 but survives infinities, which
// encoding/json refuses to emit. A profit factor of a run without losers
// round-trips as the string "inf".
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	switch {
	case math.IsInf(float64(n), 1):
		return []byte(`"inf"`), nil
	case math.IsInf(float64(n), -1):
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(float64(n))
}

func (n *Number) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"inf"`:
		*n = Number(math.Inf(1))
		return nil
	case `"-inf"`:
		*n = Number(math.Inf(-1))
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Document is the persisted form of a finished run.
type Document struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Symbols     map[string]symbolResults `json:"symbols"`
}

// symbolResults shadows the one field that can hold an infinity.
type symbolResults struct {
	stats.Results
	ProfitFactor Number `json:"profit_factor"`
}

// Save writes the results of every symbol as an indented json document.
func Save(path string, results map[string]stats.Results) error {
	doc := Document{
		GeneratedAt: time.Now().UTC(),
		Symbols:     make(map[string]symbolResults, len(results)),
	}
	for symbol, r := range results {
		doc.Symbols[symbol] = symbolResults{Results: r, ProfitFactor: Number(r.ProfitFactor)}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// Load reads a report back into per-symbol results.
func Load(path string) (map[string]stats.Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}

	results := make(map[string]stats.Results, len(doc.Symbols))
	for symbol, r := range doc.Symbols {
		res := r.Results
		res.ProfitFactor = float64(r.ProfitFactor)
		results[symbol] = res
	}

	return results, nil
}
