// Package script reads replay scripts: a bitmap reference plus a list of
// engine commands, written as JSON or TOML.
//
// JSON scripts are an object or a bare command array:
//
//	{
//	  "label": "floor-2",
//	  "image": "floor-2.png",
//	  "commands": [
//	    {"op": "select_tool", "tool": "calibrate"},
//	    {"op": "click", "x": 0, "y": 0},
//	    {"op": "click", "x": 200, "y": 0},
//	    {"op": "calibrate", "length": 4, "unit": "m"}
//	  ]
//	}
//
// TOML scripts use one [[command]] table per command:
//
//	label = "floor-2"
//	width = 1000
//	height = 800
//
//	[[command]]
//	op = "select_tool"
//	tool = "polygon"
package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/garmushka/pkg/engine"
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/units"
)

// Format is a script encoding.
type Format string

// Script encodings.
const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Script is a replayable measurement session.
type Script struct {
	// Label names the session; it defaults to the image or script file name.
	Label string `json:"label,omitempty" toml:"label"`
	// Image is the bitmap path, relative to the script's directory.
	Image string `json:"image,omitempty" toml:"image"`
	// Width and Height size the sheet when no image is given.
	Width    int              `json:"width,omitempty" toml:"width"`
	Height   int              `json:"height,omitempty" toml:"height"`
	UnitMode string           `json:"unit_mode,omitempty" toml:"unit_mode"`
	Commands []engine.Command `json:"commands" toml:"command"`
}

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown script extension %q (want .json or .toml)", filepath.Ext(path))
}

// Parse decodes a script.
func Parse(data []byte, f Format) (*Script, error) {
	var s Script
	switch f {
	case FormatJSON:
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &s.Commands); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse script")
			}
			break
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse script")
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse script")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown script keys: %v", undecoded)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown script format %q", f)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses the script at path, resolving Image against the
// script's directory and defaulting Label.
func Load(path string) (*Script, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data, f)
	if err != nil {
		return nil, err
	}
	if s.Image != "" && !filepath.IsAbs(s.Image) {
		s.Image = filepath.Join(filepath.Dir(path), s.Image)
	}
	if s.Label == "" {
		name := path
		if s.Image != "" {
			name = s.Image
		}
		s.Label = filepath.Base(name)
	}
	return s, nil
}

// Validate checks the header fields. Commands are checked by the engine as
// they run.
func (s *Script) Validate() error {
	if s.Width < 0 || s.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "negative sheet size %dx%d", s.Width, s.Height)
	}
	if _, err := units.ParseMode(s.UnitMode); err != nil {
		return err
	}
	for i, c := range s.Commands {
		if c.Op == "" {
			return errors.New(errors.ErrCodeInvalidInput, "command %d has no op", i)
		}
	}
	return nil
}

// Mode returns the script's display mode, metric when unset.
func (s *Script) Mode() units.Mode {
	m, _ := units.ParseMode(s.UnitMode)
	return m
}
