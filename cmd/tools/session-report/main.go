// Command session-report renders an HTML report from a session
// recorder database: placements by kind and scene event activity over
// time. Point it at the daemon's -db file after a run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/strataxr/anchord/internal/sessiondb"
)

var (
	dbFile  = flag.String("db", "session.db", "Path to the session recorder database")
	outFile = flag.String("out", "session-report.html", "Output HTML file")
)

func main() {
	flag.Parse()

	db, err := sessiondb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open session database: %v", err)
	}
	defer db.Close()
	recorder := sessiondb.NewRecorder(db)

	counts, err := recorder.CountPlacements()
	if err != nil {
		log.Fatalf("failed to query placements: %v", err)
	}
	activity, err := recorder.EventActivity()
	if err != nil {
		log.Fatalf("failed to query event activity: %v", err)
	}

	page := components.NewPage()
	page.AddCharts(placementsChart(counts), activityChart(activity))

	f, err := os.Create(*outFile)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	log.Printf("wrote %s (%d placement kinds, %d activity buckets)", *outFile, len(counts), len(activity))
}

func placementsChart(counts []sessiondb.PlacementCount) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session report"}),
		charts.WithTitleOpts(opts.Title{Title: "Placements by kind"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	kinds := make([]string, 0, len(counts))
	values := make([]opts.BarData, 0, len(counts))
	for _, c := range counts {
		kinds = append(kinds, c.Kind)
		values = append(values, opts.BarData{Value: c.Count})
	}
	bar.SetXAxis(kinds).AddSeries("placements", values)
	return bar
}

func activityChart(activity []sessiondb.EventBucket) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Scene events per minute"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	// Pivot buckets into one series per event kind over a shared axis.
	bucketSet := map[string]bool{}
	var buckets []string
	perKind := map[string]map[string]int{}
	for _, b := range activity {
		label := b.BucketStart.Format("15:04")
		if !bucketSet[label] {
			bucketSet[label] = true
			buckets = append(buckets, label)
		}
		if perKind[b.Kind] == nil {
			perKind[b.Kind] = map[string]int{}
		}
		perKind[b.Kind][label] += b.Count
	}

	kinds := make([]string, 0, len(perKind))
	for kind := range perKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	bar.SetXAxis(buckets)
	for _, kind := range kinds {
		values := make([]opts.BarData, 0, len(buckets))
		for _, label := range buckets {
			values = append(values, opts.BarData{Value: perKind[kind][label]})
		}
		bar.AddSeries(kind, values)
	}

	if len(activity) == 0 {
		fmt.Fprintln(os.Stderr, "note: no scene events recorded")
	}
	return bar
}
