package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileValues holds settings read from a YAML config file, keyed by environment variable name.
//
//	API_URL: https://api.example.com/graphql
//	PORT: "9090"
type FileValues map[string]string

func ReadFileValues(path string) (FileValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return ParseFileValues(data)
}

func ParseFileValues(data []byte) (FileValues, error) {
	values := FileValues{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return values, nil
}
