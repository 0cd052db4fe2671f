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

// Package baseline loads a published baseline valuation document and
// materializes it into a system ruleset, then hydrates its placeholder
// rules into concrete, evaluable rules routed by field type.
package baseline

import "encoding/json"

// Document is the published baseline artifact: a catalog of value-bearing
// fields grouped by entity (cpu, gpu, ram_spec, ...), each carrying
// enough metadata to build either a placeholder or, once hydrated, a
// concrete valuation rule.
type Document struct {
	SchemaVersion string              `json:"schema_version"`
	GeneratedAt   string              `json:"generated_at"`
	Entities      map[string][]Field  `json:"entities"`
}

// Field is one entry in an entity's field list. Attrs carries every
// source-specific attribute (unit, Formula, valuation_buckets,
// dependencies, notes, nullable, default_value, ...) verbatim so the
// hydrator and rule metadata can read past whatever subset a given
// schema version populates.
type Field struct {
	ID          string         `json:"id"`
	ProperName  string         `json:"proper_name"`
	Description string         `json:"description"`
	Explanation string         `json:"explanation"`
	Unit        string         `json:"unit"`
	FieldType   string         `json:"field_type"`
	Attrs       map[string]any `json:"-"`
}

// UnmarshalJSON decodes the known columns into their typed fields and
// keeps the full object, known columns included, in Attrs so rule
// metadata can carry every source attribute through unmodified.
func (f *Field) UnmarshalJSON(data []byte) error {
	var attrs map[string]any
	if err := json.Unmarshal(data, &attrs); err != nil {
		return err
	}
	f.Attrs = attrs
	f.ID, _ = attrs["id"].(string)
	f.ProperName, _ = attrs["proper_name"].(string)
	f.Description, _ = attrs["description"].(string)
	f.Explanation, _ = attrs["explanation"].(string)
	f.Unit, _ = attrs["unit"].(string)
	f.FieldType, _ = attrs["field_type"].(string)
	return nil
}
