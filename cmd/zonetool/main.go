// Command zonetool processes tile maps into zones and gateway graphs,
// locally or on a zonegraph server.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.design/x/clipboard"

	"zonegraph/internal/client"
	"zonegraph/internal/config"
	"zonegraph/internal/protocol"
	"zonegraph/pkg/maps"
	"zonegraph/pkg/zones"
)

// outputDir is where relative output paths are written.
var outputDir string

type options struct {
	mapPath       string
	sample        string
	gatewaysPath  string
	outPath       string
	writeGateways string
	remove        string
	zoneAt        string
	debug         bool
	copy          bool
	list          bool
	server        string
	store         bool
	generate      bool
	genOpts       maps.GeneratorOptions
	stackLimit    int
}

func main() {
	var opts options
	profile := flag.String("profile", "", "Profile name for separate config")
	flag.StringVar(&opts.mapPath, "map", "", "Map JSON file to process")
	flag.StringVar(&opts.sample, "sample", "", "Embedded sample map ID to process")
	flag.StringVar(&opts.gatewaysPath, "gateways", "", "Gateway list file replacing the map's gateways")
	flag.StringVar(&opts.outPath, "out", "", "Write the binary zone map to this file")
	flag.StringVar(&opts.writeGateways, "write-gateways", "", "Write the gateway list to this file")
	flag.StringVar(&opts.remove, "remove", "", "Comma-separated gateway keys (g1,g2) to remove before output")
	flag.StringVar(&opts.zoneAt, "zone-at", "", "Print the zone of tile x,y")
	flag.BoolVar(&opts.debug, "debug", false, "Print the processed map")
	flag.BoolVar(&opts.copy, "copy", false, "Copy the debug dump (or gateway list) to the clipboard")
	flag.BoolVar(&opts.list, "list", false, "List the embedded sample maps")
	flag.StringVar(&opts.server, "server", "", "Process on this server instead of locally (\"last\" reuses the saved one)")
	flag.BoolVar(&opts.store, "store", false, "Store the result as a layout on the server")
	flag.BoolVar(&opts.generate, "generate", false, "Process a randomly generated map")
	flag.IntVar(&opts.genOpts.Width, "width", 40, "Generated map width")
	flag.IntVar(&opts.genOpts.Height, "height", 30, "Generated map height")
	flag.IntVar(&opts.genOpts.Water, "water", 30, "Generated water coverage percentage")
	flag.IntVar(&opts.genOpts.Cliffs, "cliffs", 6, "Generated cliff ridges")
	flag.IntVar(&opts.genOpts.Gateways, "gateway-count", 20, "Generated gateways")
	flag.IntVar(&opts.genOpts.WaterLinks, "water-links", 8, "Generated water links")
	flag.Int64Var(&opts.genOpts.Seed, "seed", 0, "Generator seed (0 = random)")
	flag.IntVar(&opts.stackLimit, "fill-stack", 0, "Flood fill stack limit (0 = configured default)")
	flag.Parse()

	config.SetProfile(*profile)
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: using default config: %v", err)
	}

	// Flags given explicitly win over the saved config
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			if opts.server == "last" {
				opts.server = cfg.LastServer
			} else {
				cfg.LastServer = opts.server
			}
		case "copy":
			cfg.CopyToClipboard = opts.copy
		case "store":
			cfg.StoreLayouts = opts.store
		}
	})
	if opts.stackLimit == 0 {
		opts.stackLimit = cfg.FillStackLimit
	}
	opts.copy = cfg.CopyToClipboard
	opts.store = cfg.StoreLayouts
	outputDir = cfg.OutputDir

	if err := run(opts, cfg); err != nil {
		log.Fatalf("zonetool: %v", err)
	}

	if err := cfg.Save(); err != nil {
		log.Printf("Warning: failed to save config: %v", err)
	}
}

func run(opts options, cfg *config.Config) error {
	if err := maps.LoadAll(); err != nil {
		return err
	}

	if opts.list {
		for _, info := range maps.List() {
			fmt.Printf("%-12s %-20s %3dx%-3d %3d gateways %3d zones\n",
				info.ID, info.Name, info.Width, info.Height, info.GatewayCount, info.ZoneCount)
		}
		return nil
	}

	raw, source, err := loadRaw(opts)
	if err != nil {
		return err
	}
	cfg.AddRecent(source)

	if opts.server != "" {
		if opts.remove != "" || opts.zoneAt != "" {
			return fmt.Errorf("-remove and -zone-at only work locally")
		}
		return runRemote(opts, raw)
	}
	return runLocal(opts, raw)
}

// loadRaw picks the map to process from the flags.
func loadRaw(opts options) (*maps.RawMap, string, error) {
	var raw *maps.RawMap
	var source string

	switch {
	case opts.mapPath != "":
		data, err := os.ReadFile(opts.mapPath)
		if err != nil {
			return nil, "", err
		}
		m, err := maps.LoadFromJSON(data, zones.Options{FillStackLimit: opts.stackLimit})
		if err != nil {
			return nil, "", err
		}
		raw, source = m.Raw(), opts.mapPath
	case opts.sample != "":
		m := maps.Get(opts.sample)
		if m == nil {
			return nil, "", fmt.Errorf("unknown sample map %q", opts.sample)
		}
		raw, source = m.Raw(), "sample:"+opts.sample
	case opts.generate:
		gen := maps.NewGenerator(opts.genOpts)
		raw = gen.Generate()
		source = fmt.Sprintf("generated:%d", gen.Seed())
		log.Printf("Generated %dx%d map with seed %d", raw.Width, raw.Height, gen.Seed())
	default:
		return nil, "", fmt.Errorf("one of -map, -sample or -generate is required")
	}

	if opts.gatewaysPath != "" {
		f, err := os.Open(opts.gatewaysPath)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		specs, err := zones.ParseGatewayList(f)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", opts.gatewaysPath, err)
		}
		raw.Gateways = maps.SpecsToRaw(specs)
	}
	return raw, source, nil
}

func runLocal(opts options, raw *maps.RawMap) error {
	zopts := zones.Options{
		FillStackLimit: opts.stackLimit,
		OnProgress: func(p zones.Progress) {
			log.Printf("%s: %s", p.State, p.Message)
		},
	}
	m, err := maps.Process(raw, zopts)
	if err != nil {
		return err
	}

	if opts.remove != "" {
		if err := m.RemoveGateways(strings.Split(opts.remove, ","), zopts); err != nil {
			return err
		}
	}

	if opts.zoneAt != "" {
		var x, y int
		if _, err := fmt.Sscanf(opts.zoneAt, "%d,%d", &x, &y); err != nil {
			return fmt.Errorf("bad -zone-at %q: want x,y", opts.zoneAt)
		}
		if !m.InBounds(x, y) {
			return fmt.Errorf("tile %d,%d is off the %dx%d map", x, y, m.Width(), m.Height())
		}
		fmt.Printf("Tile %d,%d is in zone %d\n", x, y, m.ZoneAt(x, y))
	}

	if opts.outPath != "" {
		var buf bytes.Buffer
		if err := zones.EncodeZoneMap(&buf, m.Zones, m.Equivalence); err != nil {
			return err
		}
		if err := writeFile(opts.outPath, buf.Bytes()); err != nil {
			return err
		}
		log.Printf("Wrote zone map to %s (%d bytes)", opts.outPath, buf.Len())
	}

	var gateways bytes.Buffer
	if err := zones.WriteGatewayList(&gateways, m.Gateways); err != nil {
		return err
	}
	if opts.writeGateways != "" {
		if err := writeFile(opts.writeGateways, gateways.Bytes()); err != nil {
			return err
		}
	}

	dump := ""
	if opts.debug {
		dump = m.Debug() + "\n" + m.PrintLinkMatrix()
		fmt.Print(dump)
	} else {
		fmt.Printf("%s: %d zones, %d gateways, %d links\n", m.ID, m.Stats.Zones, m.Stats.Gateways, m.Stats.Links)
	}

	if opts.copy {
		text := dump
		if text == "" {
			text = gateways.String()
		}
		return copyToClipboard(text)
	}
	return nil
}

func runRemote(opts options, raw *maps.RawMap) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := protocol.ProcessMapPayload{
		Map: &protocol.MapData{
			ID:       raw.ID,
			Name:     raw.Name,
			Width:    raw.Width,
			Height:   raw.Height,
			Rows:     raw.Rows,
			Gateways: raw.Gateways,
		},
		Store:          opts.store,
		FillStackLimit: opts.stackLimit,
	}
	res, err := client.ProcessRemote(ctx, opts.server, req, func(p protocol.ProgressPayload) {
		log.Printf("%s: %s", p.State, p.Message)
	})
	if err != nil {
		return err
	}

	if opts.outPath != "" {
		if err := writeFile(opts.outPath, res.ZoneMap); err != nil {
			return err
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %d zones, %d gateways, %d links\n", res.MapID, res.Stats.Zones, res.Stats.Gateways, res.Stats.Links))
	if res.LayoutID != "" {
		sb.WriteString(fmt.Sprintf("Stored as %s (share code %s)\n", res.LayoutID, res.ShareCode))
	}
	if opts.debug {
		for _, g := range res.Gateways {
			sb.WriteString(fmt.Sprintf("  %s (%d,%d)-(%d,%d) zones %d/%d side1 %d side2 %d\n",
				maps.GatewayKey(zones.GatewayID(g.ID)), g.X1, g.Y1, g.X2, g.Y2, g.Zone1, g.Zone2, len(g.Side1), len(g.Side2)))
		}
	}
	fmt.Print(sb.String())

	if opts.copy {
		return copyToClipboard(sb.String())
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if !filepath.IsAbs(path) && outputDir != "" {
		path = filepath.Join(outputDir, path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func copyToClipboard(text string) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	log.Printf("Copied %d bytes to the clipboard", len(text))
	return nil
}
