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

// Package pagination implements keyset ("seek") pagination over the
// listing list endpoint: a cursor bookmarks a composite (sort_value, id)
// position rather than an offset, so pages stay stable while rows are
// inserted or deleted concurrently.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/dealbrain/core/internal/dberrors"
)

// MinLimit and MaxLimit bound the page size accepted by Validate.
const (
	MinLimit = 1
	MaxLimit = 500
)

var sortByPattern = regexp.MustCompile(`^[a-z_]+$`)

// Cursor is the decoded bookmark: the sort column's value for the last
// row of the previous page, plus that row's id as a tiebreaker.
type Cursor struct {
	ID        int64  `json:"id"`
	SortValue string `json:"sort_value"`
}

// Encode renders a cursor as the opaque base64(JSON) string clients pass
// back as the next page's "cursor" query parameter.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("pagination: encode cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode parses a cursor string produced by Encode. A malformed cursor
// is a validation error, not a panic or a silently-ignored page reset.
func Decode(raw string) (Cursor, error) {
	if raw == "" {
		return Cursor{}, nil
	}
	data, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", dberrors.ErrValidation)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", dberrors.ErrValidation)
	}
	return c, nil
}

// Request is a validated page request ready to hand to the repository
// layer.
type Request struct {
	Cursor   Cursor
	HasCursor bool
	Limit    int
	SortBy   string
	SortDesc bool
}

// Validate checks limit and sort_by (`limit` in [MinLimit, MaxLimit],
// `sort_by` matching `^[a-z_]+$`) and decodes the cursor, returning a
// dberrors.ErrValidation-wrapped error describing whichever check
// failed first.
func Validate(cursorRaw string, limit int, sortBy string, sortDesc bool) (Request, error) {
	if limit < MinLimit || limit > MaxLimit {
		return Request{}, fmt.Errorf("%w: limit must be between %d and %d", dberrors.ErrValidation, MinLimit, MaxLimit)
	}
	if sortBy == "" {
		sortBy = "id"
	}
	if !sortByPattern.MatchString(sortBy) {
		return Request{}, fmt.Errorf("%w: sort_by %q is not a valid column name", dberrors.ErrValidation, sortBy)
	}

	cursor, err := Decode(cursorRaw)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Cursor:    cursor,
		HasCursor: cursorRaw != "",
		Limit:     limit,
		SortBy:    sortBy,
		SortDesc:  sortDesc,
	}, nil
}

// Comparator returns the SQL comparison operator ("<" or ">") the
// repository layer should use against (sort_col, id) for req's sort
// direction: ascending order seeks forward with ">", descending with
// "<".
func (r Request) Comparator() string {
	if r.SortDesc {
		return "<"
	}
	return ">"
}

// Page wraps a results slice (already overfetched by one row by the
// caller) into the returned slice plus a HasNext flag and the cursor for
// the next request, using idOf/sortValueOf to read the bookmark fields
// off the last row actually returned.
func Page[T any](rows []T, limit int, idOf func(T) int64, sortValueOf func(T) string) (items []T, nextCursor string, hasNext bool, err error) {
	hasNext = len(rows) > limit
	if hasNext {
		rows = rows[:limit]
	}
	if len(rows) == 0 {
		return rows, "", hasNext, nil
	}
	last := rows[len(rows)-1]
	if hasNext {
		nextCursor, err = Encode(Cursor{ID: idOf(last), SortValue: sortValueOf(last)})
		if err != nil {
			return nil, "", false, err
		}
	}
	return rows, nextCursor, hasNext, nil
}
