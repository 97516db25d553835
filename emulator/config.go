package emulator

import (
	"fmt"
	"log/slog"
	"strings"
)

// Quirks select between historical interpretations of a handful of
// opcodes. The zero value is the modern behaviour.
type Quirks struct {
	// ShiftUsesVY makes 8XY6/8XYE shift VY into VX instead of VX in place.
	ShiftUsesVY bool
	// KeepIndexOnLoadStore makes FX55/FX65 leave I unchanged.
	KeepIndexOnLoadStore bool
	// KeepFlagOnLogic makes 8XY1/8XY2/8XY3 leave VF alone.
	KeepFlagOnLogic bool
	// JumpWithVX makes BXNN jump to VX+XNN instead of V0+NNN.
	JumpWithVX bool
	// WrapSprites makes DXYN wrap pixels around the edges instead of clipping.
	WrapSprites bool
}

// FaultPolicy decides what the instruction clock does after an instruction
// fails.
type FaultPolicy uint8

const (
	HaltOnFault FaultPolicy = iota
	SkipOnFault
	RebootOnFault
)

func (p FaultPolicy) String() string {
	switch p {
	case HaltOnFault:
		return "halt"
	case SkipOnFault:
		return "skip"
	case RebootOnFault:
		return "reboot"
	}
	return fmt.Sprintf("FaultPolicy(%d)", uint8(p))
}

// ParseFaultPolicy is the inverse of FaultPolicy.String.
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch strings.ToLower(s) {
	case "halt":
		return HaltOnFault, nil
	case "skip":
		return SkipOnFault, nil
	case "reboot":
		return RebootOnFault, nil
	}
	return 0, fmt.Errorf("unknown fault policy %q", s)
}

// Config configures a Machine.
type Config struct {
	// Speed is the instruction clock rate in Hz.
	Speed   int
	Quirks  Quirks
	OnFault FaultPolicy

	// Seed seeds the CXNN random source. Zero picks a random seed.
	Seed uint64

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Speed:   DefaultSpeed,
		OnFault: HaltOnFault,
	}
}

func (c Config) Validate() error {
	if err := validateSpeed(c.Speed); err != nil {
		return err
	}
	if c.OnFault > RebootOnFault {
		return fmt.Errorf("invalid fault policy %d", c.OnFault)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
