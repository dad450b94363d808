// Command lassurvey decodes LAS files, prints a summary of each, and can
// record the results in a catalog and render previews.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/laser/internal/catalog"
	"github.com/banshee-data/laser/internal/config"
	"github.com/banshee-data/laser/internal/fsutil"
	"github.com/banshee-data/laser/internal/preview"
	"github.com/banshee-data/laser/internal/survey"
	"github.com/banshee-data/laser/internal/version"
	"github.com/banshee-data/laser/las"
)

type options struct {
	configPath string
	dbPath     string
	outDir     string
	asJSON     bool
	inMemory   bool
	list       bool
	debug      bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to reader config JSON (defaults apply when empty)")
	flag.StringVar(&o.dbPath, "db", "", "path to sqlite catalog; surveys are recorded when set")
	flag.StringVar(&o.outDir, "out", "", "directory for PNG and HTML previews")
	flag.BoolVar(&o.asJSON, "json", false, "print reports as JSON")
	flag.BoolVar(&o.inMemory, "mem", false, "read each file fully into memory instead of streaming it")
	flag.BoolVar(&o.list, "list", false, "list catalogued surveys and exit")
	flag.BoolVar(&o.debug, "debug", false, "enable survey debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, fsutil.OSFileSystem{}, o, flag.Args(), os.Stdout); err != nil {
		log.Fatalf("lassurvey: %v", err)
	}
}

func run(ctx context.Context, fsys fsutil.FileSystem, o options, paths []string, out io.Writer) error {
	cfg := config.EmptyReaderConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadReaderConfig(o.configPath); err != nil {
			return err
		}
	}
	cfg.ApplyLogWriters(os.Stderr)
	if o.debug {
		survey.SetDebugLogger(os.Stderr)
	}

	var cat *catalog.Catalog
	if o.dbPath != "" {
		var err error
		if cat, err = catalog.Open(o.dbPath, cfg.GetCatalogBusyTimeout()); err != nil {
			return err
		}
		defer cat.Close()
	}

	if o.list {
		if cat == nil {
			return fmt.Errorf("-list requires -db")
		}
		return listSurveys(ctx, cat, out)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no input files")
	}

	for _, path := range paths {
		report, err := surveyFile(ctx, fsys, path, cfg, o.inMemory)
		if err != nil {
			return fmt.Errorf("%w (code %d)", err, las.Code(err))
		}
		if err := printReport(out, report, o.asJSON); err != nil {
			return err
		}
		if cat != nil {
			id, err := cat.InsertSurvey(ctx, report)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "catalogued as %s\n", id)
		}
		if o.outDir != "" {
			if err := writePreviews(fsys, o.outDir, report, cfg.GetHistogramBins()); err != nil {
				return err
			}
		}
	}
	return nil
}

// surveyFile streams path through fsys, or with inMemory reads it whole and
// uses the memory-resident decoder.
func surveyFile(ctx context.Context, fsys fsutil.FileSystem, path string, cfg *config.ReaderConfig, inMemory bool) (*survey.Report, error) {
	if !inMemory {
		return survey.Survey(ctx, fsys, path, cfg)
	}
	image, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	report, err := survey.SurveyBytes(ctx, image, cfg)
	if err != nil {
		return nil, fmt.Errorf("survey %s: %w", path, err)
	}
	report.Path = path
	return report, nil
}

func printReport(w io.Writer, r *survey.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	h := r.Header
	fmt.Fprintf(w, "%s\n", r.Path)
	fmt.Fprintf(w, "  LAS %s format %d, %d points of %d bytes, project %s\n",
		h.Version(), h.PointFormat, r.Info.PointCount, h.PointSize, h.ProjectID)
	fmt.Fprintf(w, "  system %q software %q created day %d of %d\n", h.SystemID, h.Software, h.CreationDay, h.CreationYear)
	for _, axis := range []struct {
		name string
		s    survey.AxisStats
	}{{"x", r.X}, {"y", r.Y}, {"z", r.Z}, {"intensity", r.Intensity}} {
		fmt.Fprintf(w, "  %-9s min %.3f max %.3f mean %.3f sd %.3f\n", axis.name, axis.s.Min, axis.s.Max, axis.s.Mean, axis.s.StdDev)
	}

	var classes []string
	for class, n := range r.Classes {
		if n > 0 {
			classes = append(classes, fmt.Sprintf("%s=%d", las.Classification(class), n))
		}
	}
	fmt.Fprintf(w, "  classes: %s\n", strings.Join(classes, ", "))
	fmt.Fprintf(w, "  returns: %v\n", r.Returns[1:6])
	if r.ReturnsMismatch() {
		fmt.Fprintf(w, "  warning: header per-return counts %v disagree with decoded flags\n", h.PointsByReturn)
	}
	if r.OutOfBounds > 0 {
		fmt.Fprintf(w, "  warning: %d points outside header bounds\n", r.OutOfBounds)
	}
	return nil
}

func writePreviews(fsys fsutil.FileSystem, dir string, r *survey.Report, bins int) error {
	if len(r.Sample) == 0 {
		return nil
	}
	if st, err := fsys.Stat(dir); err == nil && !st.IsDir() {
		return fmt.Errorf("output path %s is not a directory", dir)
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path))

	err := writePreview(fsys, filepath.Join(dir, base+".png"), func(w io.Writer) error {
		return preview.WriteScatterPNG(w, r.Sample, base, 8*vg.Inch)
	})
	if err != nil {
		return err
	}
	err = writePreview(fsys, filepath.Join(dir, base+".html"), func(w io.Writer) error {
		return preview.RenderSurveyPage(w, r, bins)
	})
	if err != nil {
		return err
	}

	// Non-finite statistics have no JSON encoding.
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		log.Printf("lassurvey: %s report not written: %v", base, err)
		return nil
	}
	return fsys.WriteFile(filepath.Join(dir, base+".json"), data, 0644)
}

// writePreview renders into name, removing the file again if rendering
// fails. A sample with no finite points produces no file and no error.
func writePreview(fsys fsutil.FileSystem, name string, render func(io.Writer) error) error {
	f, err := fsys.Create(name)
	if err != nil {
		return err
	}
	renderErr := render(f)
	closeErr := f.Close()
	if renderErr == nil {
		return closeErr
	}
	if err := fsys.Remove(name); err != nil {
		log.Printf("lassurvey: remove %s: %v", name, err)
	}
	if errors.Is(renderErr, preview.ErrNoPoints) {
		return nil
	}
	return renderErr
}

func listSurveys(ctx context.Context, cat *catalog.Catalog, out io.Writer) error {
	surveys, err := cat.ListSurveys(ctx, "")
	if err != nil {
		return err
	}
	for _, s := range surveys {
		fmt.Fprintf(out, "%s  %s  %s  LAS %s fmt %d  %d points\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Path, s.Version, s.PointFormat, s.PointsDecoded)
	}
	return nil
}
