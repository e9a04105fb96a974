// Package config loads panel profiles from YAML.
//
// A profile describes one wired display:
//
//	width: 80
//	height: 160
//	rotation: 1
//	bgr: false
//	invert: true
//	font_cache: true
//	spi:
//	  bus: SPI0.0
//	  hz: 24MHz
//	pins:
//	  dc: GPIO25
//	  rst: GPIO27
//	  cs: ""
//	offsets:
//	  - {col: 26, row: 1}
//	  - {col: 1, row: 26}
//	  - {col: 26, row: 1}
//	  - {col: 1, row: 26}
//
// Keys left out keep the values of Default.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"

	"periph.io/x/devices/v3/st7735"
)

// Profile is the YAML form of a panel configuration.
type Profile struct {
	Width     int      `yaml:"width"`
	Height    int      `yaml:"height"`
	Rotation  int      `yaml:"rotation"`
	MirrorX   bool     `yaml:"mirror_x"`
	MirrorY   bool     `yaml:"mirror_y"`
	BGR       bool     `yaml:"bgr"`
	Invert    bool     `yaml:"invert"`
	FontCache bool     `yaml:"font_cache"`
	SPI       SPI      `yaml:"spi"`
	Pins      Pins     `yaml:"pins"`
	Offsets   []Offset `yaml:"offsets"`
}

// SPI selects the bus and its clock.
type SPI struct {
	Bus string `yaml:"bus"` // spireg name, empty for the first bus
	Hz  string `yaml:"hz"`  // e.g. "15MHz"
}

// Pins names the GPIOs as known to gpioreg. Empty means not connected.
type Pins struct {
	DC  string `yaml:"dc"`
	RST string `yaml:"rst"`
	CS  string `yaml:"cs"`
}

// Offset is a RAM offset for one quarter turn.
type Offset struct {
	Col int `yaml:"col"`
	Row int `yaml:"row"`
}

// Panel is a resolved profile, ready for st7735.NewSPI.
type Panel struct {
	Bus  string
	DC   gpio.PinOut
	Opts *st7735.Opts
}

// Default returns the profile of an 80x160 module on the first SPI bus.
func Default() Profile {
	return Profile{
		Width:     80,
		Height:    160,
		FontCache: true,
		SPI:       SPI{Hz: "15MHz"},
		Pins:      Pins{DC: "GPIO25"},
	}
}

// Load decodes a profile from r on top of Default. Unknown keys are errors.
func Load(r io.Reader) (*Profile, error) {
	p := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadFile loads the profile stored at path.
func LoadFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks the values that YAML cannot constrain.
func (p *Profile) Validate() error {
	if p.Rotation < 0 || p.Rotation > 3 {
		return fmt.Errorf("config: rotation %d is not a quarter turn", p.Rotation)
	}
	if n := len(p.Offsets); n != 0 && n != 4 {
		return fmt.Errorf("config: need 4 offsets, one per rotation, got %d", n)
	}
	if p.Pins.DC == "" {
		return errors.New("config: pins.dc is required")
	}
	if _, err := p.frequency(); err != nil {
		return err
	}
	return nil
}

func (p *Profile) frequency() (physic.Frequency, error) {
	var f physic.Frequency
	if p.SPI.Hz == "" {
		return 0, nil
	}
	if err := f.Set(p.SPI.Hz); err != nil {
		return 0, fmt.Errorf("config: spi.hz: %w", err)
	}
	return f, nil
}

// Panel resolves the pin names with lookup, usually gpioreg.ByName, and
// builds the driver options.
func (p *Profile) Panel(lookup func(name string) gpio.PinIO) (*Panel, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	hz, _ := p.frequency()
	opts := &st7735.Opts{
		W:           p.Width,
		H:           p.Height,
		Rotation:    drivers.Rotation(p.Rotation),
		MirrorX:     p.MirrorX,
		MirrorY:     p.MirrorY,
		BGR:         p.BGR,
		Invert:      p.Invert,
		Hz:          hz,
		NoFontCache: !p.FontCache,
	}
	if len(p.Offsets) == 4 {
		var offs [4]st7735.Offset
		for i, o := range p.Offsets {
			offs[i] = st7735.Offset{Col: o.Col, Row: o.Row}
		}
		opts.Offsets = &offs
	}

	pin := func(role, name string) (gpio.PinIO, error) {
		if name == "" {
			return nil, nil
		}
		if q := lookup(name); q != nil {
			return q, nil
		}
		return nil, fmt.Errorf("config: %s pin %q not found", role, name)
	}
	dc, err := pin("dc", p.Pins.DC)
	if err != nil {
		return nil, err
	}
	rst, err := pin("rst", p.Pins.RST)
	if err != nil {
		return nil, err
	}
	if rst != nil {
		opts.RST = rst
	}
	cs, err := pin("cs", p.Pins.CS)
	if err != nil {
		return nil, err
	}
	if cs != nil {
		opts.CS = cs
	}
	return &Panel{Bus: p.SPI.Bus, DC: dc, Opts: opts}, nil
}
