// Command gendrift generates synthetic raw drift vector files for testing
// the converter. Vectors cluster around a common motion per scene, with a
// configurable number of injected distance and bearing outliers and a few
// zero-bearing sentinel rows, so a screening run has known answers.
//
// Output is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/gendrift -out data/drift_20220301.txt -vectors 200 -outliers 8
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var jsEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type sceneDef struct {
	file1, file2 string
	t1, t2       time.Time
	lon, lat     float64 // cluster center, degrees
	bearing      float64 // mean drift bearing, degrees
	speed        float64 // mean drift speed, m/s
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output drift file path")
	vectors := flag.Int("vectors", 150, "inlier vectors per scene")
	outliers := flag.Int("outliers", 6, "injected outliers per scene, alternating distance/bearing")
	sentinels := flag.Int("sentinels", 3, "zero-bearing sentinel rows per scene")
	scenes := flag.Int("scenes", 1, "number of acquisition pairs (1 or 2)")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *scenes < 1 || *scenes > 2 {
		return fmt.Errorf("-scenes must be 1 or 2")
	}

	defs := []sceneDef{
		{
			file1: "S1A_EW_GRDM_20220301T041500.tif",
			file2: "S1B_EW_GRDM_20220302T183000.tif",
			t1:    time.Date(2022, 3, 1, 4, 15, 0, 0, time.UTC),
			t2:    time.Date(2022, 3, 2, 18, 30, 0, 0, time.UTC),
			lon:   -12.0, lat: 79.2,
			bearing: 205, speed: 0.12,
		},
		{
			file1: "RCM3_SC50M_20220301T093000.tif",
			file2: "S1A_EW_GRDM_20220302T214500.tif",
			t1:    time.Date(2022, 3, 1, 9, 30, 0, 0, time.UTC),
			t2:    time.Date(2022, 3, 2, 21, 45, 0, 0, time.UTC),
			lon:   -9.5, lat: 80.1,
			bearing: 190, speed: 0.08,
		},
	}

	rng := rand.New(rand.NewSource(*seed))
	var b strings.Builder
	b.WriteString("File1,File2,Time1_JS,Time2_JS,Lon1,Lat1,Lon2,Lat2,Bear_deg,U_vel_ms,V_vel_ms\n")

	total := 0
	for s := 0; s < *scenes; s++ {
		n := writeScene(&b, rng, defs[s], *vectors, *outliers, *sentinels)
		total += n
		log.Printf("scene %d (%s / %s): %d rows", s+1, defs[s].file1, defs[s].file2, n)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(*out, []byte(b.String()), 0o644); err != nil {
		return err
	}
	log.Printf("wrote %d rows: %s", total, *out)
	return nil
}

func writeScene(b *strings.Builder, rng *rand.Rand, def sceneDef, vectors, outliers, sentinels int) int {
	t1 := def.t1.Sub(jsEpoch).Seconds()
	t2 := def.t2.Sub(jsEpoch).Seconds()
	durationDays := (t2 - t1) / 86400

	rows := 0
	emit := func(lon1, lat1, bearing, speed float64) {
		// End position follows the bearing; the scale is rough, these files
		// exercise the converter, they do not model real ice.
		distDeg := speed * 86400 * durationDays / 111000
		rad := bearing * math.Pi / 180
		lon2 := lon1 + distDeg*math.Sin(rad)/math.Cos(lat1*math.Pi/180)
		lat2 := lat1 + distDeg*math.Cos(rad)

		u := speed * math.Sin(rad)
		v := speed * math.Cos(rad)
		fmt.Fprintf(b, "%s,%s,%.0f,%.0f,%.4f,%.4f,%.4f,%.4f,%.2f,%.4f,%.4f\n",
			def.file1, def.file2, t1, t2, lon1, lat1, lon2, lat2, bearing, u, v)
		rows++
	}
	position := func() (float64, float64) {
		return def.lon + rng.Float64()*0.8, def.lat + rng.Float64()*0.3
	}

	for i := 0; i < vectors; i++ {
		lon, lat := position()
		bearing := def.bearing + rng.NormFloat64()*2
		speed := def.speed * (1 + rng.NormFloat64()*0.05)
		emit(lon, lat, bearing, speed)
	}

	for i := 0; i < outliers; i++ {
		lon, lat := position()
		if i%2 == 0 {
			// Distance outlier: same heading, implausible speed.
			emit(lon, lat, def.bearing, def.speed*8)
		} else {
			// Bearing outlier: plausible speed, heading off the cluster.
			emit(lon, lat, def.bearing+90+rng.Float64()*20, def.speed)
		}
	}

	for i := 0; i < sentinels; i++ {
		lon, lat := position()
		fmt.Fprintf(b, "%s,%s,%.0f,%.0f,%.4f,%.4f,%.4f,%.4f,0,0,0\n",
			def.file1, def.file2, t1, t2, lon, lat, lon, lat)
		rows++
	}
	return rows
}
