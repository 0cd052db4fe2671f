package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealbrain/core/internal/domain"
)

func TestNormalizeRAMGeneration(t *testing.T) {
	assert.Equal(t, domain.RAMDDR4, NormalizeRAMGeneration("DDR4/3200"))
	assert.Equal(t, domain.RAMDDR5, NormalizeRAMGeneration("ddr5"))
	assert.Equal(t, domain.RAMLPDDR5, NormalizeRAMGeneration("LPDDR5X"))
	assert.Equal(t, domain.RAMUnknown, NormalizeRAMGeneration(""))
}

func TestNormalizeStorageMedium(t *testing.T) {
	assert.Equal(t, domain.StorageNVMe, NormalizeStorageMedium("NVMe"))
	assert.Equal(t, domain.StorageSATASSD, NormalizeStorageMedium("SSD"))
	assert.Equal(t, domain.StorageHDD, NormalizeStorageMedium("Hard Drive"))
	assert.Equal(t, domain.StorageUnknown, NormalizeStorageMedium("quantum foam"))
}

func TestNormalizeRamSpecComputesTotalFromModules(t *testing.T) {
	spec, ok := NormalizeRamSpec(RamSpecInput{Generation: "ddr4", ModuleCount: 2, CapacityPerGB: 8})
	assert.True(t, ok)
	assert.Equal(t, 16, spec.TotalCapacityGB)
}

func TestNormalizeRamSpecFailsWithoutCapacity(t *testing.T) {
	_, ok := NormalizeRamSpec(RamSpecInput{Generation: "ddr4"})
	assert.False(t, ok)
}

type stubCatalogStore struct {
	ramSpecs  map[[5]any]domain.RamSpec
	storage   map[[4]any]domain.StorageProfile
	cpus      map[string]domain.CPU
	gpus      map[string]domain.GPU
	nextID    int64
}

func newStubStore() *stubCatalogStore {
	return &stubCatalogStore{
		ramSpecs: map[[5]any]domain.RamSpec{},
		storage:  map[[4]any]domain.StorageProfile{},
		cpus:     map[string]domain.CPU{},
		gpus:     map[string]domain.GPU{},
	}
}

func (s *stubCatalogStore) FindRamSpec(ctx context.Context, tuple [5]any) (domain.RamSpec, bool, error) {
	v, ok := s.ramSpecs[tuple]
	return v, ok, nil
}
func (s *stubCatalogStore) CreateRamSpec(ctx context.Context, spec domain.RamSpec) (domain.RamSpec, error) {
	s.nextID++
	spec.ID = s.nextID
	s.ramSpecs[spec.Tuple()] = spec
	return spec, nil
}
func (s *stubCatalogStore) FindStorageProfile(ctx context.Context, tuple [4]any) (domain.StorageProfile, bool, error) {
	v, ok := s.storage[tuple]
	return v, ok, nil
}
func (s *stubCatalogStore) CreateStorageProfile(ctx context.Context, p domain.StorageProfile) (domain.StorageProfile, error) {
	s.nextID++
	p.ID = s.nextID
	s.storage[p.Tuple()] = p
	return p, nil
}
func (s *stubCatalogStore) FindCPUByName(ctx context.Context, name string) (domain.CPU, bool, error) {
	v, ok := s.cpus[name]
	return v, ok, nil
}
func (s *stubCatalogStore) CreateCPU(ctx context.Context, cpu domain.CPU) (domain.CPU, error) {
	s.nextID++
	cpu.ID = s.nextID
	s.cpus[cpu.Name] = cpu
	return cpu, nil
}
func (s *stubCatalogStore) FindGPUByName(ctx context.Context, name string) (domain.GPU, bool, error) {
	v, ok := s.gpus[name]
	return v, ok, nil
}
func (s *stubCatalogStore) CreateGPU(ctx context.Context, gpu domain.GPU) (domain.GPU, error) {
	s.nextID++
	gpu.ID = s.nextID
	s.gpus[gpu.Name] = gpu
	return gpu, nil
}

func TestGetOrCreateRamSpecDedups(t *testing.T) {
	store := newStubStore()
	in := RamSpecInput{Generation: "ddr4", SpeedMHz: 3200, ModuleCount: 2, CapacityPerGB: 8}

	a, err := GetOrCreateRamSpec(context.Background(), store, in)
	assert.NoError(t, err)
	b, err := GetOrCreateRamSpec(context.Background(), store, in)
	assert.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}

func TestGetOrCreateCPUCreatesPlaceholder(t *testing.T) {
	store := newStubStore()
	cpu, err := GetOrCreateCPU(context.Background(), store, "Intel Core i7-12700K")
	assert.NoError(t, err)
	assert.Equal(t, "Intel", cpu.Manufacturer)
	assert.Equal(t, float64(0), cpu.CPUMarkMulti)

	again, err := GetOrCreateCPU(context.Background(), store, "Intel Core i7-12700K")
	assert.NoError(t, err)
	assert.Equal(t, cpu.ID, again.ID)
}

func TestGetOrCreateCPUEmptyName(t *testing.T) {
	store := newStubStore()
	_, err := GetOrCreateCPU(context.Background(), store, "  ")
	assert.Error(t, err)
}
