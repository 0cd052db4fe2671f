// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the core's runtime configuration from
// environment variables, with an optional YAML file providing defaults
// that env vars override.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AdapterConfig is one adapter's enablement and call-shape settings,
// read from `ingestion.<name>.*`.
type AdapterConfig struct {
	Enabled   bool
	APIKey    string
	TimeoutS  int
	Retries   int
}

// Config is the fully resolved runtime configuration.
type Config struct {
	DatabaseDSN string
	RedisURL    string
	UploadRoot  string
	ImportRoot  string
	Adapters    map[string]AdapterConfig
}

// LoadFromEnv builds a Config from environment variables, optionally
// seeded from a YAML file at yamlPath (ignored if empty or missing).
func LoadFromEnv(yamlPath string) (*Config, error) {
	overrides := map[string]string{}
	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			var raw map[string]string
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", yamlPath, err)
			}
			overrides = raw
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", yamlPath, err)
		}
	}

	get := func(key, def string) string {
		if v := os.Getenv(envKey(key)); v != "" {
			return v
		}
		if v, ok := overrides[key]; ok {
			return v
		}
		return def
	}

	cfg := &Config{
		DatabaseDSN: get("database_dsn", ""),
		RedisURL:    get("redis_url", "redis://localhost:6379/0"),
		UploadRoot:  get("upload_root", "/var/lib/dealbrain/uploads"),
		ImportRoot:  get("import_root", "/var/lib/dealbrain/imports"),
		Adapters:    map[string]AdapterConfig{},
	}

	for _, name := range []string{"ebay", "jsonld"} {
		enabledStr := get(fmt.Sprintf("ingestion.%s.enabled", name), "true")
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return nil, fmt.Errorf("config: ingestion.%s.enabled: %w", name, err)
		}
		timeoutS := getInt(get, fmt.Sprintf("ingestion.%s.timeout_s", name), 8)
		retries := getInt(get, fmt.Sprintf("ingestion.%s.retries", name), 2)

		adapter := AdapterConfig{
			Enabled:  enabled,
			APIKey:   get(fmt.Sprintf("ingestion.%s.api_key", name), ""),
			TimeoutS: timeoutS,
			Retries:  retries,
		}
		if name == "ebay" && adapter.Enabled && adapter.APIKey == "" {
			return nil, fmt.Errorf("config: ingestion.ebay.api_key is required when ebay is enabled")
		}
		cfg.Adapters[name] = adapter
	}

	return cfg, nil
}

func getInt(get func(key, def string) string, key string, def int) int {
	raw := get(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// envKey converts a dotted config key ("ingestion.ebay.api_key") into
// the environment variable name the process reads
// ("INGESTION_EBAY_API_KEY").
func envKey(dotted string) string {
	out := make([]byte, 0, len(dotted))
	for _, r := range dotted {
		switch {
		case r == '.':
			out = append(out, '_')
		case r >= 'a' && r <= 'z':
			out = append(out, byte(r-'a'+'A'))
		default:
			out = append(out, byte(r))
		}
	}
	return string(out)
}

// Timeout returns the adapter's configured call timeout as a
// time.Duration.
func (a AdapterConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutS) * time.Second
}
