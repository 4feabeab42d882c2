package zones

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk layout of a zone table.
type tableFile struct {
	Zones []DeliveryZone `yaml:"zones"`
}

// LoadFile reads a YAML zone table.
func LoadFile(path string) ([]DeliveryZone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zone file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses and validates a YAML zone table.
func Decode(r io.Reader) ([]DeliveryZone, error) {
	var tf tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("decode zone file: %w", err)
	}
	if err := Validate(tf.Zones); err != nil {
		return nil, err
	}
	return tf.Zones, nil
}

// Encode writes table as YAML.
func Encode(w io.Writer, table []DeliveryZone) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tableFile{Zones: table}); err != nil {
		return fmt.Errorf("encode zone file: %w", err)
	}
	return enc.Close()
}
