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
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source fetches the raw bytes of a baseline JSON document given a
// location string. Local documents live under the import root on disk;
// an s3:// prefix reads from an S3-backed import root instead, mirroring
// how the import/upload roots can be pointed at object storage without
// the rest of the pipeline knowing the difference.
type Source interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FileSource reads baseline documents from a local directory.
type FileSource struct {
	Root string
}

func (s FileSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	path := location
	if s.Root != "" && !strings.HasPrefix(location, "/") {
		path = s.Root + "/" + location
	}
	return os.ReadFile(path)
}

// S3Source reads baseline documents from an S3 bucket. Grounded on the
// teacher's connectors/s3 GetObject call shape; this loader only ever
// reads, never lists or writes.
type S3Source struct {
	client *s3.Client
	bucket string
}

// NewS3Source builds an S3Source against bucket using the default AWS
// credential chain (env vars, shared config, instance role).
func NewS3Source(ctx context.Context, bucket string) (*S3Source, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("baseline: load aws config: %w", err)
	}
	return &S3Source{client: s3.NewFromConfig(awsCfg), bucket: bucket}, nil
}

func (s *S3Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	key = strings.TrimPrefix(key, "s3://"+s.bucket+"/")
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("baseline: get s3 object %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// ResolveSource picks FileSource or S3Source based on importRoot's
// scheme: "s3://bucket" selects S3, anything else is treated as a local
// directory path.
func ResolveSource(ctx context.Context, importRoot string) (Source, error) {
	if strings.HasPrefix(importRoot, "s3://") {
		bucket := strings.TrimPrefix(importRoot, "s3://")
		if i := strings.Index(bucket, "/"); i >= 0 {
			bucket = bucket[:i]
		}
		return NewS3Source(ctx, bucket)
	}
	return FileSource{Root: importRoot}, nil
}
