// Command scene-plot renders a top-down PNG of the current scene from
// a running daemon: plane outlines, placed objects and the camera
// position, projected onto the ground (X/Z) plane.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/strataxr/anchord/internal/api"
	"github.com/strataxr/anchord/internal/geom"
)

var (
	apiBase = flag.String("api", "http://localhost:8080/api", "Base URL of the daemon API")
	outFile = flag.String("out", "scene.png", "Output PNG file")
)

func main() {
	flag.Parse()

	snapshot, err := fetchSnapshot(*apiBase)
	if err != nil {
		log.Fatalf("failed to fetch snapshot: %v", err)
	}

	p := plot.New()
	p.Title.Text = "Scene (top-down)"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "z (m)"

	for _, plane := range snapshot.Planes {
		line, err := plotter.NewLine(planeOutline(plane))
		if err != nil {
			log.Fatalf("failed to build plane outline: %v", err)
		}
		line.Color = color.RGBA{B: 200, A: 255}
		p.Add(line)
	}

	if len(snapshot.Objects) > 0 {
		pts := make(plotter.XYs, 0, len(snapshot.Objects))
		for _, o := range snapshot.Objects {
			pts = append(pts, plotter.XY{X: o.Pose.Position[0], Y: o.Pose.Position[2]})
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			log.Fatalf("failed to build object scatter: %v", err)
		}
		scatter.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
		scatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(scatter)
	}

	camera, err := plotter.NewScatter(plotter.XYs{{
		X: snapshot.Camera.Position[0],
		Y: snapshot.Camera.Position[2],
	}})
	if err != nil {
		log.Fatalf("failed to build camera marker: %v", err)
	}
	camera.GlyphStyle.Color = color.RGBA{G: 150, A: 255}
	camera.GlyphStyle.Radius = vg.Points(6)
	p.Add(camera)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, *outFile); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("wrote %s (%d planes, %d objects)", *outFile, len(snapshot.Planes), len(snapshot.Objects))
}

func fetchSnapshot(base string) (api.SnapshotDTO, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(base + "/session/snapshot")
	if err != nil {
		return api.SnapshotDTO{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return api.SnapshotDTO{}, fmt.Errorf("snapshot request returned %s", resp.Status)
	}

	var dto api.SnapshotDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return api.SnapshotDTO{}, err
	}
	return dto, nil
}

// planeOutline projects a plane's rectangle corners onto the ground
// plane as a closed polyline.
func planeOutline(plane api.PlaneDTO) plotter.XYs {
	center := r3.Vec{X: plane.Center[0], Y: plane.Center[1], Z: plane.Center[2]}
	normal := r3.Vec{X: plane.Normal[0], Y: plane.Normal[1], Z: plane.Normal[2]}
	u, v := geom.PlaneBasis(normal)

	corners := []r3.Vec{
		r3.Add(center, r3.Add(r3.Scale(plane.Extent[0], u), r3.Scale(plane.Extent[1], v))),
		r3.Add(center, r3.Add(r3.Scale(plane.Extent[0], u), r3.Scale(-plane.Extent[1], v))),
		r3.Add(center, r3.Add(r3.Scale(-plane.Extent[0], u), r3.Scale(-plane.Extent[1], v))),
		r3.Add(center, r3.Add(r3.Scale(-plane.Extent[0], u), r3.Scale(plane.Extent[1], v))),
	}
	corners = append(corners, corners[0]) // close the loop

	pts := make(plotter.XYs, 0, len(corners))
	for _, c := range corners {
		pts = append(pts, plotter.XY{X: c.X, Y: c.Z})
	}
	return pts
}
