package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/marzari/dotmatrix/dotmatrix"
	"github.com/marzari/dotmatrix/dotmatrix/backend"
	"github.com/marzari/dotmatrix/dotmatrix/backend/sdl2"
	"github.com/marzari/dotmatrix/dotmatrix/backend/terminal"
)

func main() {
	app := cli.NewApp()
	app.Name = "dotmatrix"
	app.Description = "A Game Boy (DMG) emulator"
	app.Usage = "dotmatrix [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "backend",
			Usage: "Display backend: terminal or sdl2",
			Value: "terminal",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window scale factor (sdl2 backend)",
			Value: 4,
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a display",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode",
			Value: 0,
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("emulator exited with error", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	romPath := ""
	if c.NArg() > 0 {
		romPath = c.Args().Get(0)
	} else {
		// no argument: fall back to an interactive prompt
		fmt.Println("Please input the path of the ROM:")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading ROM path: %w", err)
		}
		romPath = strings.TrimSpace(line)
	}

	machine, err := dotmatrix.NewWithFile(romPath)
	if err != nil {
		return err
	}

	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 {
			return fmt.Errorf("headless mode requires --frames with a positive value")
		}
		for i := 0; i < frames; i++ {
			machine.RunUntilFrame()
		}
		slog.Info("headless run completed", "frames", frames)
		return nil
	}

	var host backend.Backend
	switch c.String("backend") {
	case "terminal":
		host = terminal.New()
	case "sdl2":
		host = sdl2.New()
	default:
		return fmt.Errorf("unknown backend %q", c.String("backend"))
	}

	config := backend.Config{
		Title: "dotmatrix - " + machine.Memory().Cartridge().Title(),
		Scale: c.Int("scale"),
	}
	if err := host.Init(config); err != nil {
		return err
	}
	defer host.Cleanup()

	return machine.Run(host)
}
