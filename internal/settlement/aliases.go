/**
 * Copyright 2025-present Paylance, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package settlement

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// AliasConfig groups the spellings under which a stable asset appears
// across webhooks and the provider catalog.
type AliasConfig struct {
	Symbol string   `yaml:"symbol"`
	Names  []string `yaml:"names"`
}

type aliasesFile struct {
	Aliases []AliasConfig `yaml:"aliases"`
}

// defaultAliases covers the stable assets the platform settles in when
// no aliases file is configured.
var defaultAliases = []AliasConfig{
	{Symbol: "USDC", Names: []string{"usdc", "usd coin"}},
	{Symbol: "USDT", Names: []string{"usdt", "tether", "tether usd"}},
}

// AssetAliases maps any known spelling to its canonical symbol
type AssetAliases struct {
	canonical map[string]string
}

func NewAssetAliases(configs []AliasConfig) *AssetAliases {
	if len(configs) == 0 {
		configs = defaultAliases
	}
	canonical := make(map[string]string)
	for _, cfg := range configs {
		canonical[strings.ToLower(cfg.Symbol)] = cfg.Symbol
		for _, name := range cfg.Names {
			canonical[strings.ToLower(name)] = cfg.Symbol
		}
	}
	return &AssetAliases{canonical: canonical}
}

// Canonical returns the canonical symbol for a spelling, or "" when the
// spelling is unknown.
func (a *AssetAliases) Canonical(spelling string) string {
	return a.canonical[strings.ToLower(strings.TrimSpace(spelling))]
}

// LoadAliases reads an aliases yaml file. An empty path or a missing
// file falls back to the built-in defaults.
func LoadAliases(aliasFile string) (*AssetAliases, error) {
	if aliasFile == "" {
		return NewAssetAliases(nil), nil
	}

	var aliasPath string
	if filepath.IsAbs(aliasFile) {
		aliasPath = aliasFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		aliasPath = filepath.Join(wd, aliasFile)
	}

	data, err := os.ReadFile(aliasPath)
	if os.IsNotExist(err) {
		return NewAssetAliases(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", aliasFile, err)
	}

	var config aliasesFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", aliasFile, err)
	}

	for i, alias := range config.Aliases {
		if alias.Symbol == "" {
			return nil, fmt.Errorf("alias at index %d missing symbol", i)
		}
	}

	return NewAssetAliases(config.Aliases), nil
}
