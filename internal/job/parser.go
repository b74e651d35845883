package job

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses a job from a YAML file. Relative source, identity and
// known_hosts paths are resolved against the file's directory.
func ParseFile(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	j, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}

	j.Path = path
	dir := filepath.Dir(path)
	j.Source = resolvePath(dir, j.Source)
	j.IdentityFile = resolvePath(dir, j.IdentityFile)
	j.KnownHosts = resolvePath(dir, j.KnownHosts)

	return j, nil
}

// Parse parses a job from YAML data and interpolates {{ env.NAME }}
// references in its string fields. Unknown keys are rejected.
func Parse(data []byte) (*Job, error) {
	var j Job

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&j); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid job format: %w", err)
	}

	if err := j.interpolate(EnvVars()); err != nil {
		return nil, err
	}

	return &j, nil
}

// interpolate expands variable references in every string field.
func (j *Job) interpolate(vars map[string]any) error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"host", &j.Host},
		{"user", &j.User},
		{"password", &j.Password},
		{"identity_file", &j.IdentityFile},
		{"known_hosts", &j.KnownHosts},
		{"list", &j.List},
		{"timeout", &j.Timeout},
		{"source", &j.Source},
	}

	for _, f := range fields {
		val, err := Interpolate(*f.ptr, vars)
		if err != nil {
			return fmt.Errorf("field '%s': %w", f.name, err)
		}
		*f.ptr = val
	}

	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func resolvePath(dir, path string) string {
	if path == "" {
		return ""
	}
	path = ExpandHome(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
