// Command test-data-generator writes a synthetic day file of raw sensor
// readings for local pipeline testing: hourly readings per sensor and type,
// with configurable fractions of nulls, duplicates and implausible values.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"
)

type typeProfile struct {
	name string
	base float64
	amp  float64
}

var profiles = []typeProfile{
	{"temperature", 24.0, 8.0},
	{"humidity", 55.0, 20.0},
	{"soil_moisture", 0.45, 0.25},
	{"light_intensity", 800.0, 700.0},
	{"battery_level", 85.0, 10.0},
}

func main() {
	out := flag.String("out", "data/raw/sample.csv", "output CSV path")
	date := flag.String("date", time.Now().UTC().Format("2006-01-02"), "day to generate (YYYY-MM-DD)")
	sensors := flag.Int("sensors", 3, "number of sensors")
	nullFrac := flag.Float64("null-frac", 0.05, "fraction of null values")
	dupFrac := flag.Float64("dup-frac", 0.02, "fraction of duplicated rows")
	outlierFrac := flag.Float64("outlier-frac", 0.01, "fraction of implausible values")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	day, err := time.Parse("2006-01-02", *date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid date: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"sensor_id", "timestamp", "reading_type", "value"}); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}

	rows := 0
	for s := 0; s < *sensors; s++ {
		sensorID := fmt.Sprintf("sensor_%03d", s+1)
		for hour := 0; hour < 24; hour++ {
			ts := day.Add(time.Duration(hour) * time.Hour).Format(time.RFC3339)
			for _, p := range profiles {
				value := p.base + p.amp*(rng.Float64()*2-1)
				row := []string{sensorID, ts, p.name, strconv.FormatFloat(value, 'f', 4, 64)}

				switch {
				case rng.Float64() < *nullFrac:
					row[3] = ""
				case rng.Float64() < *outlierFrac:
					row[3] = strconv.FormatFloat(value*50+10000, 'f', 4, 64)
				}

				if err := w.Write(row); err != nil {
					fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
					os.Exit(1)
				}
				rows++

				if rng.Float64() < *dupFrac {
					if err := w.Write(row); err != nil {
						fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
						os.Exit(1)
					}
					rows++
				}
			}
		}
	}

	fmt.Printf("Wrote %d rows to %s\n", rows, *out)
}
