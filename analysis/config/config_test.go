// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	if cfg.RecursionMaxDepth != DefaultRecursionMaxDepth {
		t.Errorf("default recursion depth should be %d, got %d", DefaultRecursionMaxDepth, cfg.RecursionMaxDepth)
	}
	if cfg.LoopMaxIterations != DefaultLoopMaxIterations {
		t.Errorf("default loop iteration cap should be %d, got %d", DefaultLoopMaxIterations, cfg.LoopMaxIterations)
	}
	if LogLevel(cfg.LogLevel) != InfoLevel {
		t.Errorf("default log level should be info")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "config.yaml")
	contents := []byte("recursion-max-depth: 5\nloop-max-iterations: 3\nlog-level: 4\nverbose: true\n")
	if err := os.WriteFile(filename, contents, 0o600); err != nil {
		t.Fatalf("could not write test config: %s", err)
	}

	cfg, err := Load(filename)
	if err != nil {
		t.Fatalf("could not load config: %s", err)
	}
	if cfg.RecursionMaxDepth != 5 {
		t.Errorf("recursion-max-depth not loaded, got %d", cfg.RecursionMaxDepth)
	}
	if cfg.LoopMaxIterations != 3 {
		t.Errorf("loop-max-iterations not loaded, got %d", cfg.LoopMaxIterations)
	}
	if LogLevel(cfg.LogLevel) != DebugLevel {
		t.Errorf("log-level not loaded, got %d", cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Errorf("verbose not loaded")
	}
	if cfg.SourceFile() != filename {
		t.Errorf("config should remember its source file")
	}
}

func TestLoadConfigDefaultsApply(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(filename, []byte("verbose: true\n"), 0o600); err != nil {
		t.Fatalf("could not write test config: %s", err)
	}

	cfg, err := Load(filename)
	if err != nil {
		t.Fatalf("could not load config: %s", err)
	}
	if cfg.RecursionMaxDepth != DefaultRecursionMaxDepth {
		t.Errorf("unspecified recursion depth should default to %d", DefaultRecursionMaxDepth)
	}
	if LogLevel(cfg.LogLevel) != InfoLevel {
		t.Errorf("unspecified log level should default to info")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Errorf("loading a missing file should fail")
	}
}

func TestGlobalConfig(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(filename, []byte("log-level: 2\n"), 0o600); err != nil {
		t.Fatalf("could not write test config: %s", err)
	}
	SetGlobalConfig(filename)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("could not load global config: %s", err)
	}
	if LogLevel(cfg.LogLevel) != WarnLevel {
		t.Errorf("global config not loaded, got level %d", cfg.LogLevel)
	}
}
