package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tuboc/chip8vm/emulator"
	"github.com/tuboc/chip8vm/sdlhost"
	"github.com/tuboc/chip8vm/termhost"
)

var (
	filename  = flag.String("f", "", "chip8 image file path")
	stepMode  = flag.Bool("s", false, "start with stepMode")
	speed     = flag.Int("hz", emulator.DefaultSpeed, "instructions per second (1-1000)")
	termMode  = flag.Bool("term", false, "run in the terminal instead of a window")
	verbose   = flag.Bool("v", false, "debug logging")
	onFault   = flag.String("onfault", "halt", "what to do after a faulting instruction: halt, skip or reboot")
	seed      = flag.Uint64("seed", 0, "random seed for RND, 0 picks one")
	quirkVY   = flag.Bool("quirk-shift", false, "8XY6/8XYE shift VY into VX")
	quirkI    = flag.Bool("quirk-index", false, "FX55/FX65 leave I unchanged")
	quirkVF   = flag.Bool("quirk-vf", false, "8XY1/8XY2/8XY3 leave VF unchanged")
	quirkJump = flag.Bool("quirk-jump", false, "BXNN jumps to VX+XNN")
	quirkWrap = flag.Bool("quirk-wrap", false, "sprites wrap around the screen edges")
)

func init() {
	runtime.LockOSThread()
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *filename == "" {
		flag.Usage()
		return fmt.Errorf("no rom given")
	}
	binary, err := os.ReadFile(*filename)
	if err != nil {
		return err
	}

	policy, err := emulator.ParseFaultPolicy(*onFault)
	if err != nil {
		return err
	}

	cfg := emulator.DefaultConfig()
	cfg.Speed = *speed
	cfg.OnFault = policy
	cfg.Seed = *seed
	cfg.Logger = logger
	cfg.Quirks = emulator.Quirks{
		ShiftUsesVY:          *quirkVY,
		KeepIndexOnLoadStore: *quirkI,
		KeepFlagOnLogic:      *quirkVF,
		JumpWithVX:           *quirkJump,
		WrapSprites:          *quirkWrap,
	}

	m, err := emulator.NewMachine(cfg, nil, nil)
	if err != nil {
		return err
	}
	if err := m.Load(binary); err != nil {
		return err
	}
	logger.Info("rom loaded", "file", *filename, "bytes", len(binary))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *stepMode {
		m.Pause()
	}
	if err := m.Start(ctx); err != nil {
		return err
	}
	defer m.Stop()

	if *termMode {
		return termhost.New(m, logger).Run(ctx)
	}

	host, err := sdlhost.New(m, logger)
	if err != nil {
		return err
	}
	defer host.Close()
	return host.Run(ctx)
}
