package pipeline

import (
	"context"
	"path/filepath"

	"github.com/BG-NOAA/sar-drift-converter/internal/adapter/geopackage"
	"github.com/BG-NOAA/sar-drift-converter/internal/adapter/kafkasink"
	"github.com/BG-NOAA/sar-drift-converter/internal/adapter/netcdfcdl"
	"github.com/BG-NOAA/sar-drift-converter/internal/adapter/quicklook"
	"github.com/BG-NOAA/sar-drift-converter/internal/drift"
)

// FormattedCSVLoader writes the formatted CSV product.
type FormattedCSVLoader struct {
	Dir string
}

func (l *FormattedCSVLoader) Load(_ context.Context, p *Product) error {
	path := filepath.Join(l.Dir, "formatted_"+p.Name+".csv")
	return drift.WriteFormatted(path, p.File.Observations)
}

// GeoPackageLoader writes the GeoPackage product.
type GeoPackageLoader struct {
	Dir string
}

func (l *GeoPackageLoader) Load(_ context.Context, p *Product) error {
	return geopackage.Write(filepath.Join(l.Dir, p.Name+".gpkg"), p.File.Observations)
}

// NetCDFLoader renders the CDL document and compiles the NetCDF product.
type NetCDFLoader struct {
	Dir    string
	Writer *netcdfcdl.Writer
}

func (l *NetCDFLoader) Load(ctx context.Context, p *Product) error {
	_, err := l.Writer.Write(ctx, l.Dir, p.Name, p.File.Observations)
	return err
}

// QuicklookLoader renders the per-file PNG and accumulates inliers for the
// batch overview.
type QuicklookLoader struct {
	Dir          string
	Stride       int
	InlierStride int

	overview *quicklook.Overview
}

func (l *QuicklookLoader) Load(_ context.Context, p *Product) error {
	if l.overview == nil {
		l.overview = quicklook.NewOverview(l.InlierStride)
	}
	l.overview.Add(p.File.Observations)

	path := filepath.Join(l.Dir, p.Name+".png")
	return quicklook.WriteScene(path, p.Name, p.File.Observations, l.Stride)
}

// FinishBatch writes the accumulated all-inliers overview.
func (l *QuicklookLoader) FinishBatch(_ context.Context) error {
	if l.overview == nil || l.overview.Empty() {
		return nil
	}
	return l.overview.Save(filepath.Join(l.Dir, "all_inliers.png"))
}

// KafkaLoader publishes classified vectors to the configured topic.
type KafkaLoader struct {
	Writer *kafkasink.Writer
}

func (l *KafkaLoader) Load(ctx context.Context, p *Product) error {
	return l.Writer.Publish(ctx, p.Name, p.File.Observations)
}
