package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/1broseidon/winbridge/internal/geom"
	"github.com/1broseidon/winbridge/internal/host"
	"github.com/1broseidon/winbridge/internal/pixelformat"
	"github.com/1broseidon/winbridge/internal/session"
	"github.com/1broseidon/winbridge/internal/window"
	"github.com/1broseidon/winbridge/internal/x11"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	markStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
)

func runModes(args []string) int {
	fs := flag.NewFlagSet("modes", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/winbridge/config.yaml)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := newLogger(os.Stderr, cfg.Level())
	xh, err := x11.Connect(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer xh.Close()

	ctx := session.New(xh, logger)
	defer ctx.Teardown()

	modes, err := ctx.Displays().Enumerate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	current, err := ctx.Displays().Current()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(renderModes(modes, current))
	return 0
}

func runFormats(args []string) int {
	fs := flag.NewFlagSet("formats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path used for the requested format")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := newLogger(os.Stderr, cfg.Level())

	xh, err := x11.Connect(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer xh.Close()

	ctx := session.New(xh, logger)
	defer ctx.Teardown()

	// Formats are per window, so a probe window is created and never shown.
	mgr := window.NewManager(ctx)
	handle, err := mgr.Open(window.Options{
		ClassName: cfg.ClassName,
		Title:     cfg.Title,
		Client:    geom.FromSize(0, 0, 1, 1),
	}, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer mgr.Close()

	formats, err := xh.PixelFormats(handle)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	req := cfg.PixelRequest()
	chosen, negErr := pixelformat.NewNegotiator(logger).Negotiate(formats, req)
	pixelformat.Rank(formats, req)

	choice := -1
	if negErr == nil {
		choice = chosen.ID
	}
	fmt.Println(renderFormats(formats, choice))
	if negErr != nil {
		fmt.Fprintln(os.Stderr, negErr)
		return 1
	}
	return 0
}

func renderModes(modes []host.DisplayMode, current host.DisplayMode) string {
	rows := make([][]string, 0, len(modes))
	active := make(map[int]bool)
	for i, m := range modes {
		mark := ""
		if m == current {
			mark = "*"
			active[i] = true
		}
		rows = append(rows, []string{
			mark,
			strconv.Itoa(m.Width),
			strconv.Itoa(m.Height),
			strconv.Itoa(m.BitsPerPixel),
			strconv.Itoa(m.RefreshHz),
		})
	}
	return renderTable([]string{"", "WIDTH", "HEIGHT", "BPP", "HZ"}, rows, active)
}

func renderFormats(formats []host.PixelFormat, chosen int) string {
	rows := make([][]string, 0, len(formats))
	active := make(map[int]bool)
	for i, pf := range formats {
		mark := ""
		if pf.ID == chosen {
			mark = "*"
			active[i] = true
		}
		rows = append(rows, []string{
			mark,
			fmt.Sprintf("0x%x", pf.ID),
			strconv.Itoa(pf.ColorBits),
			strconv.Itoa(pf.AlphaBits),
			strconv.Itoa(pf.DepthBits),
			strconv.Itoa(pf.StencilBits),
			strconv.Itoa(pf.SampleCount),
			yesNo(pf.DoubleBuffered),
			yesNo(pf.Accelerated),
		})
	}
	headers := []string{"", "ID", "COLOR", "ALPHA", "DEPTH", "STENCIL", "SAMPLES", "DOUBLE", "ACCEL"}
	return renderTable(headers, rows, active)
}

func renderTable(headers []string, rows [][]string, active map[int]bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("241"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case active[row]:
				return markStyle.Padding(0, 1)
			case col == 0:
				return dimStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
