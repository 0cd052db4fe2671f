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

// Package catalog normalizes free-form RAM/storage/CPU/GPU descriptors
// extracted from a listing into canonical, deduplicated domain.RamSpec,
// domain.StorageProfile, domain.CPU, and domain.GPU rows.
package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/dealbrain/core/internal/domain"
)

// Store is the lookup/create surface catalog needs from persistence.
type Store interface {
	FindRamSpec(ctx context.Context, tuple [5]any) (domain.RamSpec, bool, error)
	CreateRamSpec(ctx context.Context, spec domain.RamSpec) (domain.RamSpec, error)
	FindStorageProfile(ctx context.Context, tuple [4]any) (domain.StorageProfile, bool, error)
	CreateStorageProfile(ctx context.Context, profile domain.StorageProfile) (domain.StorageProfile, error)
	FindCPUByName(ctx context.Context, name string) (domain.CPU, bool, error)
	CreateCPU(ctx context.Context, cpu domain.CPU) (domain.CPU, error)
	FindGPUByName(ctx context.Context, name string) (domain.GPU, bool, error)
	CreateGPU(ctx context.Context, gpu domain.GPU) (domain.GPU, error)
}

// NormalizeRAMGeneration maps free-form memory-technology descriptors
// onto the canonical domain.RAMGeneration enum.
func NormalizeRAMGeneration(raw string) domain.RAMGeneration {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return domain.RAMUnknown
	}
	switch {
	case normalized == "ddr" || normalized == "ddr4/3200":
		return domain.RAMDDR4
	case strings.HasPrefix(normalized, "ddr3"):
		return domain.RAMDDR3
	case strings.HasPrefix(normalized, "ddr4"):
		return domain.RAMDDR4
	case strings.HasPrefix(normalized, "ddr5"):
		return domain.RAMDDR5
	case strings.Contains(normalized, "lpddr5"):
		return domain.RAMLPDDR5
	case strings.Contains(normalized, "lpddr4"):
		return domain.RAMLPDDR4
	default:
		return domain.RAMUnknown
	}
}

// NormalizeStorageMedium maps free-form storage descriptors onto the
// canonical domain.StorageMedium enum.
func NormalizeStorageMedium(raw string) domain.StorageMedium {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "nvme":
		return domain.StorageNVMe
	case "ssd", "sata", "sata ssd":
		return domain.StorageSATASSD
	case "hard drive", "hard disk", "hdd":
		return domain.StorageHDD
	case "hybrid":
		return domain.StorageHybrid
	case "emmc", "flash":
		return domain.StorageEMMC
	case "ufs":
		return domain.StorageUFS
	default:
		return domain.StorageUnknown
	}
}

// RamSpecInput is the raw, loosely-typed payload a listing or import row
// supplies for RAM; any subset of fields may be present.
type RamSpecInput struct {
	Generation       string
	SpeedMHz         int
	ModuleCount      int
	CapacityPerGB    int
	TotalCapacityGB  int
}

// NormalizeRamSpec fills in a total capacity from module_count *
// capacity_per_module when it isn't given directly, and renders a
// display label.
func NormalizeRamSpec(in RamSpecInput) (domain.RamSpec, bool) {
	total := in.TotalCapacityGB
	if total == 0 && in.ModuleCount > 0 && in.CapacityPerGB > 0 {
		total = in.ModuleCount * in.CapacityPerGB
	}
	if total == 0 {
		return domain.RamSpec{}, false
	}

	spec := domain.RamSpec{
		Generation:      NormalizeRAMGeneration(in.Generation),
		SpeedMHz:        in.SpeedMHz,
		ModuleCount:     in.ModuleCount,
		CapacityPerGB:   in.CapacityPerGB,
		TotalCapacityGB: total,
	}
	return spec, true
}

// GetOrCreateRamSpec resolves in to a canonical RamSpec row, creating one
// if no existing row matches the full dedup tuple.
func GetOrCreateRamSpec(ctx context.Context, store Store, in RamSpecInput) (domain.RamSpec, error) {
	spec, ok := NormalizeRamSpec(in)
	if !ok {
		return domain.RamSpec{}, errUnresolvedRAM
	}

	existing, found, err := store.FindRamSpec(ctx, spec.Tuple())
	if err != nil {
		return domain.RamSpec{}, err
	}
	if found {
		return existing, nil
	}
	return store.CreateRamSpec(ctx, spec)
}

// StorageInput is the raw payload for a storage device descriptor.
type StorageInput struct {
	Medium     string
	Interface  string
	FormFactor string
	CapacityGB int
}

// GetOrCreateStorageProfile resolves in to a canonical StorageProfile
// row.
func GetOrCreateStorageProfile(ctx context.Context, store Store, in StorageInput) (domain.StorageProfile, error) {
	if in.CapacityGB <= 0 {
		return domain.StorageProfile{}, errUnresolvedStorage
	}

	profile := domain.StorageProfile{
		Medium:     NormalizeStorageMedium(in.Medium),
		Interface:  in.Interface,
		FormFactor: in.FormFactor,
		CapacityGB: in.CapacityGB,
	}

	existing, found, err := store.FindStorageProfile(ctx, profile.Tuple())
	if err != nil {
		return domain.StorageProfile{}, err
	}
	if found {
		return existing, nil
	}
	return store.CreateStorageProfile(ctx, profile)
}

// GetOrCreateCPU resolves a CPU model name to a catalog row, creating a
// placeholder with zeroed benchmark scores when the model is new. The
// placeholder is backfilled later by the CPU benchmark importer; listings
// referencing it still persist and value against its (initially zero)
// scores.
func GetOrCreateCPU(ctx context.Context, store Store, name string) (domain.CPU, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CPU{}, errUnresolvedCPU
	}

	existing, found, err := store.FindCPUByName(ctx, name)
	if err != nil {
		return domain.CPU{}, err
	}
	if found {
		return existing, nil
	}
	return store.CreateCPU(ctx, domain.CPU{Name: name, Manufacturer: guessManufacturer(name)})
}

// GetOrCreateGPU resolves a GPU model name the same way GetOrCreateCPU
// resolves a CPU model.
func GetOrCreateGPU(ctx context.Context, store Store, name string) (domain.GPU, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.GPU{}, errUnresolvedGPU
	}

	existing, found, err := store.FindGPUByName(ctx, name)
	if err != nil {
		return domain.GPU{}, err
	}
	if found {
		return existing, nil
	}
	return store.CreateGPU(ctx, domain.GPU{Name: name, Manufacturer: guessManufacturer(name)})
}

func guessManufacturer(modelName string) string {
	lower := strings.ToLower(modelName)
	switch {
	case strings.Contains(lower, "intel") || strings.Contains(lower, "core i"):
		return "Intel"
	case strings.Contains(lower, "amd") || strings.Contains(lower, "ryzen") || strings.Contains(lower, "radeon"):
		return "AMD"
	case strings.Contains(lower, "nvidia") || strings.Contains(lower, "geforce") || strings.Contains(lower, "rtx") || strings.Contains(lower, "gtx"):
		return "NVIDIA"
	case strings.Contains(lower, "apple") || strings.Contains(lower, "m1") || strings.Contains(lower, "m2") || strings.Contains(lower, "m3"):
		return "Apple"
	default:
		return ""
	}
}

// FormatRAMGB renders an integer capacity as a "16GB" label fragment,
// reused by display-label building across the catalog and valuation
// packages.
func FormatRAMGB(gb int) string {
	return strconv.Itoa(gb) + "GB"
}

var (
	errUnresolvedRAM     = catalogError("unable to determine ram specification from payload")
	errUnresolvedStorage = catalogError("unable to determine storage profile from payload")
	errUnresolvedCPU     = catalogError("cpu model name is empty")
	errUnresolvedGPU     = catalogError("gpu model name is empty")
)

type catalogError string

func (e catalogError) Error() string { return string(e) }
