// Command surveytool works on exported survey CSV files without the UI:
// it renders them, plots heat maps, prints statistics and merges files.
package main

import (
	"fmt"
	"image/png"
	"log"
	"os"
	"strconv"
	"strings"

	"mag-surveyor/internal/config"
	"mag-surveyor/internal/dataset"
	"mag-surveyor/internal/floorplan"
	"mag-surveyor/internal/grid"
	"mag-surveyor/internal/render"
	"mag-surveyor/internal/sensor"
	"mag-surveyor/internal/survey"
	"mag-surveyor/internal/version"

	"github.com/urfave/cli/v2"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "surveytool",
		Usage:   "render, plot, summarise and merge magnetic survey CSV files",
		Version: version.String(),
		Commands: []*cli.Command{
			renderCommand(),
			heatmapCommand(),
			statsCommand(),
			mergeCommand(),
			portsCommand(sensor.ListPorts),
		},
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "draw a CSV on the survey grid as a PNG",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "survey.yaml for floor plan and spacing"},
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "input CSV", Required: true},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output PNG", Required: true},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Value: 1200},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Value: 1200},
			&cli.Float64Flag{Name: "scale", Value: 1},
			&cli.StringFlag{Name: "center", Usage: "cell to centre and mark as the cursor, as x,y"},
			&cli.BoolFlag{Name: "heat", Usage: "colour nodes by magnitude"},
			&cli.BoolFlag{Name: "no-edges", Usage: "hide the pin-order polyline"},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Default()
			if path := c.String("config"); path != "" {
				var err error
				if cfg, err = config.Load(path); err != nil {
					return err
				}
			}
			plan, err := floorplan.FromConfig(cfg.FloorPlan)
			if err != nil {
				return err
			}
			store, err := loadStore(c.String("in"))
			if err != nil {
				return err
			}

			view := grid.NewView(cfg.View.MinScale, cfg.View.MaxScale).ZoomBy(c.Float64("scale"))
			scene := render.NewScene(store, view, plan.Spacing(cfg.Grid.Spacing))
			scene.Plan = plan
			scene.ShowEdges = cfg.View.ShowEdges && !c.Bool("no-edges")
			scene.Heat = c.Bool("heat")
			if s := c.String("center"); s != "" {
				cell, err := parseCellArg(s)
				if err != nil {
					return err
				}
				scene.View = scene.View.CenterOn(cell, scene.Spacing)
				scene.WithCursor(cell)
			}

			img := render.Render(scene, c.Int("width"), c.Int("height"))
			f, err := os.Create(c.String("out"))
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			if err := png.Encode(f, img); err != nil {
				return fmt.Errorf("encode png: %w", err)
			}
			log.Printf("render: %d records -> %s", store.Len(), c.String("out"))
			return nil
		},
	}
}

func heatmapCommand() *cli.Command {
	return &cli.Command{
		Name:  "heatmap",
		Usage: "plot node magnitudes as a heat map (png, svg or pdf by extension)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Required: true},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true},
			&cli.StringFlag{Name: "field", Value: string(FieldUncalibrated), Usage: "uncal or cal"},
			&cli.Float64Flag{Name: "size", Value: 16, Usage: "plot width and height in cm"},
		},
		Action: func(c *cli.Context) error {
			field, err := ParseField(c.String("field"))
			if err != nil {
				return err
			}
			store, err := loadStore(c.String("in"))
			if err != nil {
				return err
			}
			return SaveHeatMap(store, field, c.String("out"), c.Float64("size"))
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print record counts and magnitude statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Required: true},
			&cli.StringFlag{Name: "field", Value: string(FieldUncalibrated), Usage: "uncal or cal"},
		},
		Action: func(c *cli.Context) error {
			field, err := ParseField(c.String("field"))
			if err != nil {
				return err
			}
			b, err := dataset.ImportFile(c.String("in"))
			if err != nil {
				return err
			}
			store := survey.NewStore()
			b.Apply(store, dataset.Replace)
			s := Summarize(store, field)
			s.Skipped = b.Skipped
			s.Print(c.App.Writer)
			return nil
		},
	}
}

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "merge CSV files; later files win on shared cells",
		ArgsUsage: "a.csv b.csv ...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("no input files", 1)
			}
			store, err := Merge(c.Args().Slice())
			if err != nil {
				return err
			}
			if err := dataset.ExportFile(c.String("out"), store); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "merged %d files, %d records -> %s\n", c.NArg(), store.Len(), c.String("out"))
			return nil
		},
	}
}

// portsCommand lists serial ports for sensor.serial.port.
func portsCommand(list func() ([]string, error)) *cli.Command {
	return &cli.Command{
		Name:  "ports",
		Usage: "list serial ports a magnetometer can be read from",
		Action: func(c *cli.Context) error {
			ports, err := list()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(c.App.Writer, "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(c.App.Writer, p)
			}
			return nil
		},
	}
}

func loadStore(path string) (*survey.Store, error) {
	b, err := dataset.ImportFile(path)
	if err != nil {
		return nil, err
	}
	store := survey.NewStore()
	b.Apply(store, dataset.Replace)
	return store, nil
}

// Merge imports every path in merge mode into one store.
func Merge(paths []string) (*survey.Store, error) {
	store := survey.NewStore()
	for _, p := range paths {
		b, err := dataset.ImportFile(p)
		if err != nil {
			return nil, err
		}
		b.Apply(store, dataset.Merge)
	}
	return store, nil
}

func parseCellArg(s string) (grid.Cell, error) {
	x, y, ok := strings.Cut(s, ",")
	if !ok {
		return grid.Cell{}, fmt.Errorf("center %q: want x,y", s)
	}
	cx, err := strconv.Atoi(strings.TrimSpace(x))
	if err != nil {
		return grid.Cell{}, fmt.Errorf("center %q: %w", s, err)
	}
	cy, err := strconv.Atoi(strings.TrimSpace(y))
	if err != nil {
		return grid.Cell{}, fmt.Errorf("center %q: %w", s, err)
	}
	return grid.Cell{X: cx, Y: cy}, nil
}
