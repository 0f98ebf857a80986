// Command stationcore runs the console's bus/device fabric headlessly
// (there is no instruction-decoding CPU core or video sink shipped in this
// module, per the system's explicit scope boundary), driven by a cycle-
// accounting stub core, for a fixed number of frames.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	stationcore "github.com/jsbaxter/stationcore"
	"github.com/jsbaxter/stationcore/internal/cpu"
	"github.com/jsbaxter/stationcore/internal/disc"
	"github.com/jsbaxter/stationcore/internal/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "stationcore"
	app.Description = "A PS1-class console bus and device fabric"
	app.Usage = "stationcore --bios <file> [--disc <file>] [options]"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "bios",
			Usage: "Path to a 512KiB BIOS image",
		},
		cli.StringFlag{
			Name:  "disc",
			Usage: "Path to a raw (headerless) .bin disc image",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run before exiting",
			Value: 60,
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug-level logging",
		},
		cli.BoolFlag{
			Name:  "realtime",
			Usage: "Pace frames to the console's real NTSC frame rate instead of running flat-out",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("stationcore exiting", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	biosPath := c.String("bios")
	if biosPath == "" {
		cli.ShowAppHelp(c)
		return errors.New("stationcore: --bios is required")
	}

	console, err := stationcore.NewWithBIOSFile(cpu.NewStub(), biosPath)
	if err != nil {
		return err
	}

	if discPath := c.String("disc"); discPath != "" {
		img, err := loadDiscImage(discPath)
		if err != nil {
			return fmt.Errorf("stationcore: loading disc: %w", err)
		}
		console.InsertDisc(img)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	console.Start(ctx)
	defer console.Stop()

	var limiter timing.Limiter = timing.NewNoOpLimiter()
	if c.Bool("realtime") {
		l := timing.NewTickerLimiter()
		defer l.Stop()
		limiter = l
	}

	frames := c.Int("frames")
	slog.Info("running", "frames", frames, "realtime", c.Bool("realtime"))
	for i := 0; i < frames; i++ {
		console.RunUntilFrame()
		limiter.WaitForNextFrame()
	}
	slog.Info("done", "frames", console.FrameCount())
	return nil
}

// loadDiscImage reads a flat, headerless .bin into a single-track in-memory
// image; real .cue/.bin multi-track parsing is out of scope (see
// disc.Image's doc comment).
func loadDiscImage(path string) (disc.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%disc.SectorSize != 0 {
		return nil, fmt.Errorf("disc image size %d is not a multiple of the sector size %d", len(data), disc.SectorSize)
	}

	n := len(data) / disc.SectorSize
	sectors := make([][]byte, n)
	for i := 0; i < n; i++ {
		sectors[i] = data[i*disc.SectorSize : (i+1)*disc.SectorSize]
	}

	return &disc.MemImage{
		Sectors: sectors,
		Tracks:  []disc.DriveLoc{disc.FromLBA(0)},
	}, nil
}
