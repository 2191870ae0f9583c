// Package drift reads raw SAR drift vector files and writes the formatted
// CSV product. The raw format is delimited text with an optional preamble
// before the header row. Times are Julian seconds, elapsed seconds since
// 2000-01-01T00:00:00Z.
package drift

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

// jsEpoch anchors Julian-second timestamps.
var jsEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// JSToTime converts Julian seconds to a UTC timestamp.
func JSToTime(sec float64) time.Time {
	return jsEpoch.Add(time.Duration(sec * float64(time.Second)))
}

// requiredColumns are the header names a drift file must carry. Order in the
// file is free; anything beyond these is ignored.
var requiredColumns = []string{
	"File1", "File2",
	"Time1_JS", "Time2_JS",
	"Lon1", "Lat1", "Lon2", "Lat2",
	"Bear_deg",
	"U_vel_ms", "V_vel_ms",
}

// metersPerSecToKmPerDay converts the input velocity unit to the product's.
const metersPerSecToKmPerDay = 86.4

// Reader loads raw drift files into cleaned observations.
type Reader struct {
	// Delimiter separates fields in the header and data rows.
	Delimiter rune

	// SkipRows is the number of preamble lines before the header row.
	SkipRows int

	// Precision is the number of decimals positions, distances, and
	// velocities are rounded to.
	Precision int

	// Project maps WGS-84 degrees to projected meters. Required.
	Project func(lonDeg, latDeg float64) (x, y float64)
}

// File is one loaded drift file: cleaned observations plus load accounting.
type File struct {
	Path         string
	Observations []domain.Observation

	// Rejected counts rows dropped for the zero-bearing sentinel.
	Rejected int
}

// Start returns the earliest acquisition start across observations.
func (f *File) Start() time.Time {
	var t time.Time
	for i := range f.Observations {
		if i == 0 || f.Observations[i].Date1.Before(t) {
			t = f.Observations[i].Date1
		}
	}
	return t
}

// End returns the latest acquisition end across observations.
func (f *File) End() time.Time {
	var t time.Time
	for i := range f.Observations {
		if f.Observations[i].Date2.After(t) {
			t = f.Observations[i].Date2
		}
	}
	return t
}

// ProductName derives the output base name from the file's time coverage,
// e.g. SIVelocity_SAR_20230301_041500_20230302_183000_v0.
func (f *File) ProductName() string {
	const stamp = "20060102_150405"
	return fmt.Sprintf("SIVelocity_SAR_%s_%s_v0",
		f.Start().UTC().Format(stamp), f.End().UTC().Format(stamp))
}

// ReadFile loads and cleans one drift file. A missing required column or a
// malformed value aborts the load with an error; only the zero-bearing
// sentinel drops rows silently.
func (r *Reader) ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open drift file: %w", err)
	}
	defer fh.Close()

	f, err := r.read(fh)
	if err != nil {
		return nil, fmt.Errorf("drift file %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

func (r *Reader) read(src io.Reader) (*File, error) {
	cr := csv.NewReader(src)
	cr.Comma = r.Delimiter
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // preamble lines are free-form

	for i := 0; i < r.SkipRows; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("skip preamble: %w", err)
		}
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	f := &File{}
	line := r.SkipRows + 1
	for {
		line++
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		obs, keep, err := r.parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !keep {
			f.Rejected++
			continue
		}
		obs.Index = len(f.Observations)
		f.Observations = append(f.Observations, obs)
	}
	return f, nil
}

func (r *Reader) parseRow(rec []string, cols map[string]int) (domain.Observation, bool, error) {
	var o domain.Observation

	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(rec) {
			return "", fmt.Errorf("row too short for column %q", name)
		}
		return strings.TrimSpace(rec[i]), nil
	}
	num := func(name string) (float64, error) {
		s, err := field(name)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: invalid value %q", name, s)
		}
		return v, nil
	}

	bear, err := num("Bear_deg")
	if err != nil {
		return o, false, err
	}
	if bear == 0 {
		// Zero bearing marks a failed retrieval upstream.
		return o, false, nil
	}
	o.SetBearing(bear)

	if o.File1, err = field("File1"); err != nil {
		return o, false, err
	}
	if o.File2, err = field("File2"); err != nil {
		return o, false, err
	}
	o.Sat1 = satellitePrefix(o.File1)
	o.Sat2 = satellitePrefix(o.File2)

	t1, err := num("Time1_JS")
	if err != nil {
		return o, false, err
	}
	t2, err := num("Time2_JS")
	if err != nil {
		return o, false, err
	}
	o.Date1 = JSToTime(t1)
	o.Date2 = JSToTime(t2)
	o.JSDuration = t2 - t1

	for _, c := range []struct {
		name string
		dst  *float64
	}{
		{"Lon1", &o.Lon1}, {"Lat1", &o.Lat1},
		{"Lon2", &o.Lon2}, {"Lat2", &o.Lat2},
	} {
		v, err := num(c.name)
		if err != nil {
			return o, false, err
		}
		*c.dst = r.round(v)
	}

	o.X1, o.Y1 = r.Project(o.Lon1, o.Lat1)
	o.X2, o.Y2 = r.Project(o.Lon2, o.Lat2)
	o.DX = o.X2 - o.X1
	o.DY = o.Y2 - o.Y1
	o.DistanceKm = r.round(math.Hypot(o.DX, o.DY) / 1000)

	u, err := num("U_vel_ms")
	if err != nil {
		return o, false, err
	}
	v, err := num("V_vel_ms")
	if err != nil {
		return o, false, err
	}
	o.UKmDay = r.round(u * metersPerSecToKmPerDay)
	o.VKmDay = r.round(v * metersPerSecToKmPerDay)

	o.ResetClassification()
	return o, true, nil
}

func (r *Reader) round(v float64) float64 {
	p := math.Pow(10, float64(r.Precision))
	return math.Round(v*p) / p
}

// satellitePrefix is the acquisition file's platform identifier, the part
// before the first underscore.
func satellitePrefix(name string) string {
	if i := strings.IndexByte(name, '_'); i >= 0 {
		return name[:i]
	}
	return name
}
