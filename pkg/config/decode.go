package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/DUNE-DAQ/dtpctrllibs/pkg/issue"
)

// payload mirrors the wire schema with loosely typed fields so that each
// field can be validated and reported individually.
type payload struct {
	Device          string   `json:"device" yaml:"device"`
	LogLevel        string   `json:"uhal_log_level" yaml:"uhal_log_level"`
	ConnectionsFile string   `json:"connections_file" yaml:"connections_file"`
	Source          string   `json:"source" yaml:"source"`
	Pattern         string   `json:"pattern" yaml:"pattern"`
	Threshold       *int64   `json:"threshold" yaml:"threshold"`
	Masks           []uint64 `json:"masks" yaml:"masks"`
}

func (p payload) record() (ConfParams, error) {
	level, err := ParseLogLevel(p.LogLevel)
	if err != nil {
		return ConfParams{}, err
	}
	src, err := ParseSource(p.Source)
	if err != nil {
		return ConfParams{}, err
	}
	var threshold uint32
	if p.Threshold != nil {
		if *p.Threshold < 0 {
			return ConfParams{}, issue.InvalidConfig(fmt.Sprintf("negative threshold %d", *p.Threshold), nil)
		}
		if *p.Threshold > MaxThreshold {
			return ConfParams{}, issue.InvalidConfig(fmt.Sprintf("threshold %d exceeds %d", *p.Threshold, MaxThreshold), nil)
		}
		threshold = uint32(*p.Threshold)
	}

	c := ConfParams{
		Device:          p.Device,
		LogLevel:        level,
		ConnectionsFile: p.ConnectionsFile,
		Source:          src,
		Pattern:         p.Pattern,
		Threshold:       threshold,
	}
	if len(p.Masks) > 0 {
		c.Masks = append([]uint64(nil), p.Masks...)
	}
	if err := c.Validate(); err != nil {
		return ConfParams{}, err
	}
	return c, nil
}

// Decode decodes a JSON payload. Comments and trailing commas are accepted.
func Decode(data []byte) (ConfParams, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return ConfParams{}, issue.InvalidConfig("empty payload", nil)
	}
	var p payload
	if err := json.Unmarshal(jsonc.ToJSON(data), &p); err != nil {
		return ConfParams{}, issue.InvalidConfig("malformed JSON payload", err)
	}
	return p.record()
}

// DecodeYAML decodes a YAML payload.
func DecodeYAML(data []byte) (ConfParams, error) {
	var p payload
	if err := yaml.Unmarshal(data, &p); err != nil {
		return ConfParams{}, issue.InvalidConfig("malformed YAML payload", err)
	}
	return p.record()
}

// LoadFile reads a record from path, choosing YAML for .yaml/.yml
// extensions and JSON otherwise.
func LoadFile(path string) (ConfParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfParams{}, issue.InvalidConfig("cannot read "+path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return Decode(data)
	}
}

// IsDecodeError reports whether err came from payload decoding rather than
// from a later command step.
func IsDecodeError(err error) bool {
	return errors.Is(err, issue.ErrInvalidConfig) || errors.Is(err, issue.ErrInvalidLogLevel)
}
