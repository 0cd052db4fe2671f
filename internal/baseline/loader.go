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

package baseline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dealbrain/core/internal/domain"
)

// Store is the persistence surface the loader needs: look up the
// current baseline (if any) by source hash, adopt a newly materialized
// one, and deactivate whichever baseline ruleset it is replacing.
type Store interface {
	RulesetBySourceHash(ctx context.Context, hash string) (*domain.ValuationRuleset, error)
	CreateRuleset(ctx context.Context, rs *domain.ValuationRuleset) (int64, error)
	DeactivateOtherBaselines(ctx context.Context, keepRulesetID int64) error
}

// Hash canonicalizes doc (sort keys, compact separators) and returns its
// SHA-256 hex digest, the identity used to decide whether a baseline
// has already been adopted.
func Hash(raw []byte) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("baseline: decode document for hashing: %w", err)
	}
	canonical, err := canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalize(v any) ([]byte, error) {
	switch tv := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := canonicalize(tv[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range tv {
			if i > 0 {
				buf.WriteByte(',')
			}
			ib, err := canonicalize(item)
			if err != nil {
				return nil, err
			}
			buf.Write(ib)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(tv)
	}
}

// Load parses and idempotently materializes a baseline document: if an
// existing ruleset's metadata.source_hash already matches the
// document's canonical hash, Load returns that ruleset unchanged. Else
// it builds a new system ruleset of placeholder rules, persists it, and
// deactivates any prior baseline.
func Load(ctx context.Context, store Store, raw []byte, sourceReference string) (*domain.ValuationRuleset, error) {
	hash, err := Hash(raw)
	if err != nil {
		return nil, err
	}

	existing, err := store.RulesetBySourceHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("baseline: lookup by source hash: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("baseline: decode document: %w", err)
	}

	rs := build(doc, hash, sourceReference)
	id, err := store.CreateRuleset(ctx, rs)
	if err != nil {
		return nil, fmt.Errorf("baseline: create ruleset: %w", err)
	}
	rs.ID = id

	if err := store.DeactivateOtherBaselines(ctx, id); err != nil {
		return nil, fmt.Errorf("baseline: deactivate prior baselines: %w", err)
	}
	return rs, nil
}

func build(doc Document, hash, sourceReference string) *domain.ValuationRuleset {
	version := doc.SchemaVersion
	if version == "" {
		version = hash[:8]
	}

	entityKeys := make([]string, 0, len(doc.Entities))
	for k := range doc.Entities {
		entityKeys = append(entityKeys, k)
	}
	sort.Strings(entityKeys)

	groups := make([]domain.ValuationRuleGroup, 0, len(entityKeys))
	for displayOrder, entityKey := range entityKeys {
		fields := doc.Entities[entityKey]
		rules := make([]domain.ValuationRuleV2, 0, len(fields))
		for order, f := range fields {
			rules = append(rules, placeholderRule(f, order))
		}
		groups = append(groups, domain.ValuationRuleGroup{
			Name:         entityKey,
			Category:     entityKey,
			DisplayOrder: displayOrder,
			Rules:        rules,
		})
	}

	return &domain.ValuationRuleset{
		Name:      fmt.Sprintf("System: Baseline v%s", version),
		Version:   version,
		Priority:  5,
		IsDefault: false,
		Active:    true,
		Metadata: map[string]any{
			"system_baseline":  true,
			"source_hash":      hash,
			"schema_version":   doc.SchemaVersion,
			"generated_at":     doc.GeneratedAt,
			"source_reference": sourceReference,
			"read_only":        true,
		},
		Groups:    groups,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func placeholderRule(f Field, order int) domain.ValuationRuleV2 {
	actionType := domain.ActionFixedValue
	if f.Unit == "multiplier" {
		actionType = domain.ActionMultiplier
	}

	metadata := make(map[string]any, len(f.Attrs)+1)
	for k, v := range f.Attrs {
		metadata[k] = v
	}
	metadata["baseline_placeholder"] = true
	if f.FieldType != "" {
		metadata["field_type"] = f.FieldType
	}
	metadata["field_id"] = f.ID

	return domain.ValuationRuleV2{
		Name:            f.ProperName,
		EvaluationOrder: order,
		Enabled:         true,
		Version:         1,
		Metadata:        metadata,
		Actions: []domain.Action{
			{
				Type:     actionType,
				ValueUSD: 0,
				UnitType: f.Unit,
				Modifiers: map[string]any{
					"baseline_placeholder": true,
					"baseline_unit":        f.Unit,
				},
			},
		},
	}
}
