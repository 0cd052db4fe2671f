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

// Package audit records the append-only trail of ruleset, rule-group,
// and rule create/update/delete/baseline-adopt events. The sink is
// pluggable: PostgresSink is the default backend, MongoSink an
// alternate document-store backend for deployments that already run
// Mongo for other audit logs.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dealbrain/core/internal/domain"
)

// Sink records a single audit entry. Implementations never mutate or
// delete a prior entry.
type Sink interface {
	Record(ctx context.Context, entry domain.RuleAudit) error
}

// PostgresSink appends audit rows to rule_audit_log via database/sql.
type PostgresSink struct {
	db *sql.DB
}

var _ Sink = (*PostgresSink)(nil)

// NewPostgresSink wraps an already-open *sql.DB.
func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// Record inserts one audit row.
func (s *PostgresSink) Record(ctx context.Context, entry domain.RuleAudit) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("audit: marshal detail: %w", err)
	}
	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO rule_audit_log (
			entity_type, entity_id, ruleset_id, action, actor, detail, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.db.ExecContext(ctx, query,
		string(entry.EntityType), entry.EntityID, entry.RulesetID,
		string(entry.Action), entry.Actor, detail, occurredAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert rule_audit_log: %w", err)
	}
	return nil
}

// MongoSink appends audit documents to a Mongo collection, for
// deployments that centralize audit trails in Mongo rather than
// Postgres.
type MongoSink struct {
	collection *mongo.Collection
}

var _ Sink = (*MongoSink)(nil)

// NewMongoSink wraps an already-connected collection handle.
func NewMongoSink(collection *mongo.Collection) *MongoSink {
	return &MongoSink{collection: collection}
}

type mongoAuditDoc struct {
	EntityType string         `bson:"entity_type"`
	EntityID   int64          `bson:"entity_id"`
	RulesetID  int64          `bson:"ruleset_id"`
	Action     string         `bson:"action"`
	Actor      string         `bson:"actor"`
	Detail     map[string]any `bson:"detail"`
	OccurredAt time.Time      `bson:"occurred_at"`
}

// Record inserts one audit document.
func (s *MongoSink) Record(ctx context.Context, entry domain.RuleAudit) error {
	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	doc := mongoAuditDoc{
		EntityType: string(entry.EntityType),
		EntityID:   entry.EntityID,
		RulesetID:  entry.RulesetID,
		Action:     string(entry.Action),
		Actor:      entry.Actor,
		Detail:     entry.Detail,
		OccurredAt: occurredAt,
	}
	_, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("audit: insert mongo document: %w", err)
	}
	return nil
}

// Recording is an in-memory Sink for tests that assert on which audit
// entries a code path produced.
type Recording struct {
	Entries []domain.RuleAudit
}

var _ Sink = (*Recording)(nil)

// Record appends entry to Entries.
func (r *Recording) Record(_ context.Context, entry domain.RuleAudit) error {
	r.Entries = append(r.Entries, entry)
	return nil
}
