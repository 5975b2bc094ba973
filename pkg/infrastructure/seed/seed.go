// Package seed reads YAML seed files
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/brewerp/pkg/application/dto"
)

// Load reads the seed file at path
func Load(path string) (*dto.SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	file, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return file, nil
}

// Decode parses a seed document. Unknown keys are errors.
func Decode(r io.Reader) (*dto.SeedFile, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file dto.SeedFile
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed file is empty")
		}
		return nil, err
	}
	if len(file.Companies) == 0 {
		return nil, errors.New("seed file has no companies")
	}
	for i, c := range file.Companies {
		if c.Code == "" {
			return nil, fmt.Errorf("companies[%d]: code is required", i)
		}
	}
	return &file, nil
}
