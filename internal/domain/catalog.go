// Package domain holds the persisted entity model for the catalog and
// listing aggregate: CPU/GPU reference data, canonical RAM/storage specs,
// ports bundles, scoring profiles, and the Listing root aggregate with
// its valuation fields.
package domain

import (
	"strconv"
	"time"
)

// RAMGeneration is the canonical memory-technology enum for a RamSpec.
type RAMGeneration string

const (
	RAMDDR3   RAMGeneration = "DDR3"
	RAMDDR4   RAMGeneration = "DDR4"
	RAMDDR5   RAMGeneration = "DDR5"
	RAMLPDDR4 RAMGeneration = "LPDDR4"
	RAMLPDDR5 RAMGeneration = "LPDDR5"
	RAMUnknown RAMGeneration = "UNKNOWN"
)

// StorageMedium is the canonical storage-technology enum for a
// StorageProfile.
type StorageMedium string

const (
	StorageNVMe     StorageMedium = "NVMe"
	StorageSATASSD  StorageMedium = "SATA-SSD"
	StorageHDD      StorageMedium = "HDD"
	StorageHybrid   StorageMedium = "Hybrid"
	StorageEMMC     StorageMedium = "eMMC"
	StorageUFS      StorageMedium = "UFS"
	StorageUnknown  StorageMedium = "UNKNOWN"
)

// CPU is reference benchmark data for a processor model. Created once and
// referenced by many listings; auto-created during ingest when a listing
// names a CPU model not yet in the catalog.
type CPU struct {
	ID              int64
	Name            string
	Manufacturer    string
	Cores           int
	Threads         int
	TDPWatts        float64
	CPUMarkSingle   float64
	CPUMarkMulti    float64
	IGPUMark        float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GPU is reference benchmark data for a discrete or integrated graphics
// part.
type GPU struct {
	ID           int64
	Name         string
	Manufacturer string
	GPUMark      float64
	MetalScore   *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RamSpec is a canonical, deduplicated memory configuration. Two listings
// describing "16GB DDR4 3200MHz, 2x8GB" resolve to the same RamSpec row.
type RamSpec struct {
	ID              int64
	Generation      RAMGeneration
	SpeedMHz        int
	ModuleCount     int
	CapacityPerGB   int
	TotalCapacityGB int
	Attributes      map[string]any
}

// DisplayLabel renders a short human label, e.g. "16GB DDR4-3200 (2x8GB)".
func (r RamSpec) DisplayLabel() string {
	if r.ModuleCount > 1 {
		return formatRAMLabel(r.TotalCapacityGB, r.Generation, r.SpeedMHz, r.ModuleCount, r.CapacityPerGB)
	}
	return formatRAMLabelSingle(r.TotalCapacityGB, r.Generation, r.SpeedMHz)
}

func formatRAMLabel(total int, gen RAMGeneration, speed, modules, perModule int) string {
	return strconv.Itoa(total) + "GB " + string(gen) + "-" + strconv.Itoa(speed) +
		" (" + strconv.Itoa(modules) + "x" + strconv.Itoa(perModule) + "GB)"
}

func formatRAMLabelSingle(total int, gen RAMGeneration, speed int) string {
	return strconv.Itoa(total) + "GB " + string(gen) + "-" + strconv.Itoa(speed)
}

// Tuple returns the dedup key for RamSpec canonicalization: the full
// (generation, speed, module_count, per_module, total) tuple.
func (r RamSpec) Tuple() [5]any {
	return [5]any{r.Generation, r.SpeedMHz, r.ModuleCount, r.CapacityPerGB, r.TotalCapacityGB}
}

// StorageProfile is a canonical, deduplicated storage configuration.
type StorageProfile struct {
	ID             int64
	Medium         StorageMedium
	Interface      string
	FormFactor     string
	CapacityGB     int
	PerformanceTier string
}

// Tuple returns the dedup key for StorageProfile canonicalization.
func (s StorageProfile) Tuple() [4]any {
	return [4]any{s.Medium, s.Interface, s.FormFactor, s.CapacityGB}
}

// Port is a single named connector row within a PortsProfile.
type Port struct {
	ID          int64
	Type        string
	Count       int
	SpecNotes   string
}

// PortsProfile is a named bundle of ports, e.g. "Mini PC rear I/O".
type PortsProfile struct {
	ID    int64
	Name  string
	Ports []Port
}

// ScoringWeights maps a metric name to its weight in the composite score
// formula (cpu_mark_multi, cpu_mark_single, gpu_score, perf_per_watt,
// ram_capacity, ...).
type ScoringWeights map[string]float64

// Profile is a named weighted-sum scoring configuration; exactly one
// profile is marked Default at any time.
type Profile struct {
	ID      int64
	Name    string
	Weights ScoringWeights
	Default bool
}
