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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename.
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig.
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config groups the policy knobs of the dependence analyses. The analysis
// budgets (recursion depth, loop fixed-point iterations) are configuration
// rather than constants: their right values depend on the programs being
// analyzed.
// If some field is not defined in the config file, it keeps its default.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string
}

// Options holds the user-settable analysis options.
type Options struct {
	// RecursionMaxDepth is the depth budget for following call edges inside
	// recursive call-graph components before the opaque-call approximation
	// takes over. Values <= 0 select DefaultRecursionMaxDepth.
	RecursionMaxDepth int `yaml:"recursion-max-depth"`

	// LoopMaxIterations caps the builder's fixed-point iteration over one
	// function's CFG. Values <= 0 select DefaultLoopMaxIterations.
	LoopMaxIterations int `yaml:"loop-max-iterations"`

	// NumWorkers is the number of goroutines building function graphs in
	// parallel. Values <= 0 select DefaultNumWorkers.
	NumWorkers int `yaml:"num-workers"`

	// ReportStatistics makes the analyses log graph statistics after each
	// function graph is built.
	ReportStatistics bool `yaml:"report-statistics"`

	// Verbose enables additional diagnostics, such as the recursive call
	// cycles found while linking.
	Verbose bool `yaml:"verbose"`

	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns a config with every option at its default.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Options: Options{
			RecursionMaxDepth: DefaultRecursionMaxDepth,
			LoopMaxIterations: DefaultLoopMaxIterations,
			NumWorkers:        DefaultNumWorkers,
			ReportStatistics:  false,
			Verbose:           false,
			LogLevel:          int(InfoLevel),
			SilenceWarn:       false,
		},
	}
}

// Load reads a configuration from a yaml file.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.RecursionMaxDepth <= 0 {
		cfg.RecursionMaxDepth = DefaultRecursionMaxDepth
	}
	if cfg.LoopMaxIterations <= 0 {
		cfg.LoopMaxIterations = DefaultLoopMaxIterations
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = DefaultNumWorkers
	}
	return cfg, nil
}

// SourceFile returns the file this config was loaded from, or "" for a
// default config.
func (c *Config) SourceFile() string {
	return c.sourceFile
}
