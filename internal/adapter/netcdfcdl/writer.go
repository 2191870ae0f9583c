// Package netcdfcdl produces the NetCDF product by rendering a CDL document
// and compiling it with the netcdf-c ncgen tool. The CDL header comes from a
// template with the product name and dimension size substituted; the data
// section is generated per variable. When ncgen is not installed only the
// .cdl file is written.
package netcdfcdl

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

var jsEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Template substitution tokens. A custom template must end after its
// "data:" line; the data section is appended to it.
const (
	nameToken = "PRODUCT_NAME"
	sizeToken = "NUM_OBS"
)

const defaultTemplate = `netcdf PRODUCT_NAME {
dimensions:
	obs = NUM_OBS ;
variables:
	double time1(obs) ;
		time1:long_name = "start acquisition time" ;
		time1:units = "seconds since 2000-01-01 00:00:00 UTC" ;
	double time2(obs) ;
		time2:long_name = "end acquisition time" ;
		time2:units = "seconds since 2000-01-01 00:00:00 UTC" ;
	double lon1(obs) ;
		lon1:units = "degrees_east" ;
	double lat1(obs) ;
		lat1:units = "degrees_north" ;
	double lon2(obs) ;
		lon2:units = "degrees_east" ;
	double lat2(obs) ;
		lat2:units = "degrees_north" ;
	double u(obs) ;
		u:long_name = "ice drift zonal velocity" ;
		u:units = "km day-1" ;
	double v(obs) ;
		v:long_name = "ice drift meridional velocity" ;
		v:units = "km day-1" ;
	double dist(obs) ;
		dist:long_name = "drift distance" ;
		dist:units = "km" ;
	double bear(obs) ;
		bear:long_name = "drift bearing" ;
		bear:units = "degrees clockwise from true north" ;
	double dist_z(obs) ;
		dist_z:long_name = "neighborhood distance z-score" ;
	double bear_z(obs) ;
		bear_z:long_name = "neighborhood bearing z-score" ;
	int scene(obs) ;
		scene:long_name = "acquisition pair id" ;
	int neighbors(obs) ;
		neighbors:long_name = "neighbor count at classification" ;
	int category(obs) ;
		category:long_name = "outlier category, tens digit reason, ones digit confidence" ;

	:Conventions = "CF-1.8" ;
	:source = "SAR feature-tracked sea ice drift" ;
	:projection = "EPSG:3413" ;

data:
`

// Writer renders CDL documents for classified drift files.
type Writer struct {
	// TemplatePath overrides the built-in CDL header template.
	TemplatePath string

	Logger *slog.Logger
}

// Write renders dir/<name>.cdl and compiles dir/<name>.nc when ncgen is on
// PATH. It returns the path of the .cdl document.
func (w *Writer) Write(ctx context.Context, dir, name string, obs []domain.Observation) (string, error) {
	tmpl := defaultTemplate
	if w.TemplatePath != "" {
		raw, err := os.ReadFile(w.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("read cdl template: %w", err)
		}
		tmpl = string(raw)
	}

	header := strings.ReplaceAll(tmpl, nameToken, name)
	header = strings.ReplaceAll(header, sizeToken, strconv.Itoa(len(obs)))

	var b strings.Builder
	b.WriteString(header)
	writeData(&b, obs)
	b.WriteString("}\n")

	cdlPath := filepath.Join(dir, name+".cdl")
	if err := os.WriteFile(cdlPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write cdl: %w", err)
	}

	ncgen, err := exec.LookPath("ncgen")
	if err != nil {
		w.Logger.Warn("ncgen not found, skipping netcdf compilation", "cdl", cdlPath)
		return cdlPath, nil
	}

	ncPath := filepath.Join(dir, name+".nc")
	cmd := exec.CommandContext(ctx, ncgen, "-o", ncPath, cdlPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ncgen %s: %w: %s", cdlPath, err, strings.TrimSpace(string(out)))
	}
	w.Logger.Info("netcdf written", "path", ncPath, "observations", len(obs))
	return cdlPath, nil
}

func writeData(b *strings.Builder, obs []domain.Observation) {
	writeVar(b, "time1", obs, func(o *domain.Observation) string {
		return cdlFloat(o.Date1.Sub(jsEpoch).Seconds())
	})
	writeVar(b, "time2", obs, func(o *domain.Observation) string {
		return cdlFloat(o.Date2.Sub(jsEpoch).Seconds())
	})
	writeVar(b, "lon1", obs, func(o *domain.Observation) string { return cdlFloat(o.Lon1) })
	writeVar(b, "lat1", obs, func(o *domain.Observation) string { return cdlFloat(o.Lat1) })
	writeVar(b, "lon2", obs, func(o *domain.Observation) string { return cdlFloat(o.Lon2) })
	writeVar(b, "lat2", obs, func(o *domain.Observation) string { return cdlFloat(o.Lat2) })
	writeVar(b, "u", obs, func(o *domain.Observation) string { return cdlFloat(o.UKmDay) })
	writeVar(b, "v", obs, func(o *domain.Observation) string { return cdlFloat(o.VKmDay) })
	writeVar(b, "dist", obs, func(o *domain.Observation) string { return cdlFloat(o.DistanceKm) })
	writeVar(b, "bear", obs, func(o *domain.Observation) string { return cdlFloat(o.BearingDeg) })
	writeVar(b, "dist_z", obs, func(o *domain.Observation) string { return cdlFloat(o.DistanceZ) })
	writeVar(b, "bear_z", obs, func(o *domain.Observation) string { return cdlFloat(o.BearingZ) })
	writeVar(b, "scene", obs, func(o *domain.Observation) string { return strconv.Itoa(o.SceneID) })
	writeVar(b, "neighbors", obs, func(o *domain.Observation) string { return strconv.Itoa(o.NeighborCount) })
	writeVar(b, "category", obs, func(o *domain.Observation) string {
		return strconv.Itoa(int(o.Category.Reason)*10 + int(o.Category.Confidence))
	})
}

func writeVar(b *strings.Builder, name string, obs []domain.Observation, value func(*domain.Observation) string) {
	if len(obs) == 0 {
		return
	}
	b.WriteString("\t" + name + " = ")
	for i := range obs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(value(&obs[i]))
	}
	b.WriteString(" ;\n")
}

// cdlFloat renders a float for a CDL data list; NaN becomes the fill-value
// placeholder.
func cdlFloat(v float64) string {
	if math.IsNaN(v) {
		return "_"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
