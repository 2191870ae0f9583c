package drift

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

// formattedHeader is the column order of the formatted CSV product.
var formattedHeader = []string{
	"File1", "File2", "Sat1", "Sat2",
	"Date1", "Date2", "Duration_s",
	"Lon1", "Lat1", "Lon2", "Lat2",
	"X1", "Y1", "X2", "Y2",
	"U_kmday", "V_kmday", "Dist_km", "Bear_deg",
	"Scene", "Neighbors", "Neighbor_idx", "Dist_z", "Bear_z", "Category",
}

const dateLayout = "2006-01-02 15:04:05"

// WriteFormatted writes the formatted CSV product for one file's
// observations, in observation order. Undefined z-scores are written as
// empty fields.
func WriteFormatted(path string, obs []domain.Observation) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create formatted csv: %w", err)
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	if err := w.Write(formattedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range obs {
		o := &obs[i]
		rec := []string{
			o.File1, o.File2, o.Sat1, o.Sat2,
			o.Date1.UTC().Format(dateLayout),
			o.Date2.UTC().Format(dateLayout),
			formatFloat(o.JSDuration),
			formatFloat(o.Lon1), formatFloat(o.Lat1),
			formatFloat(o.Lon2), formatFloat(o.Lat2),
			formatFloat(o.X1), formatFloat(o.Y1),
			formatFloat(o.X2), formatFloat(o.Y2),
			formatFloat(o.UKmDay), formatFloat(o.VKmDay),
			formatFloat(o.DistanceKm), formatFloat(o.BearingDeg),
			strconv.Itoa(o.SceneID),
			strconv.Itoa(o.NeighborCount),
			joinIndexes(o.Neighbors),
			formatFloat(o.DistanceZ), formatFloat(o.BearingZ),
			o.Category.Code(),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush formatted csv: %w", err)
	}
	return fh.Close()
}

// joinIndexes renders a neighbor index list as space-separated integers.
func joinIndexes(idx []int) string {
	if len(idx) == 0 {
		return ""
	}
	parts := make([]string, len(idx))
	for i, n := range idx {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
