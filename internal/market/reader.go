package market

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type BarFilter func(b Bar) bool

// ReadBars reads an ordered OHLCV series from a csv file with a
// "timestamp,open,high,low,close,volume" header. Timestamps are unix
// seconds and must be non-decreasing; gaps between bars are fine.
func ReadBars(dataPath string, filter BarFilter) ([]Bar, error) {
	f, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open bar data: %w", err)
	}
	defer f.Close()

	return readBars(csv.NewReader(bufio.NewReader(f)), filter)
}

func readBars(rdr *csv.Reader, filter BarFilter) ([]Bar, error) {
	if _, err := rdr.Read(); err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var bars []Bar
	var prev time.Time
	for {
		data, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read bar data: %w", err)
		}

		bar, err := parseBar(data)
		if err != nil {
			return nil, err
		}

		if bar.Time.Before(prev) {
			return nil, fmt.Errorf("bars out of order: %s after %s", bar.Time, prev)
		}
		prev = bar.Time

		if filter == nil || filter(bar) {
			bars = append(bars, bar)
		}
	}

	return bars, nil
}

func parseBar(data []string) (Bar, error) {
	if len(data) < 6 {
		return Bar{}, fmt.Errorf("malformed bar row: expected 6 fields, got %d", len(data))
	}

	timestamp, err := strconv.ParseFloat(data[0], 64)
	if err != nil {
		return Bar{}, fmt.Errorf("failed to parse bar time: %w", err)
	}

	open, err := decimal.NewFromString(data[1])
	if err != nil {
		return Bar{}, fmt.Errorf("failed to read open price: %w", err)
	}

	high, err := decimal.NewFromString(data[2])
	if err != nil {
		return Bar{}, fmt.Errorf("failed to read high price: %w", err)
	}

	low, err := decimal.NewFromString(data[3])
	if err != nil {
		return Bar{}, fmt.Errorf("failed to read low price: %w", err)
	}

	close, err := decimal.NewFromString(data[4])
	if err != nil {
		return Bar{}, fmt.Errorf("failed to read close price: %w", err)
	}

	volume, err := decimal.NewFromString(data[5])
	if err != nil {
		return Bar{}, fmt.Errorf("failed to read volume: %w", err)
	}

	return Bar{
		Time:   time.Unix(int64(timestamp), 0).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}, nil
}
