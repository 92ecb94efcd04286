package geometry

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Export formats
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// WriteSummary encodes the detector summary to w as yaml or json
func WriteSummary(w io.Writer, d *Detector, format string) error {
	summary := d.Summary()

	switch format {
	case FormatYAML, "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("failed to encode detector as yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("failed to encode detector as json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported geometry format %q", format)
	}
}

// ReadParams decodes detector parameters from a yaml document, starting from
// the defaults so that partial documents only override what they name.
func ReadParams(r io.Reader) (DetectorParams, error) {
	params := DefaultDetectorParams()
	if err := yaml.NewDecoder(r).Decode(&params); err != nil && err != io.EOF {
		return DetectorParams{}, fmt.Errorf("failed to decode detector params: %w", err)
	}
	return params, nil
}
