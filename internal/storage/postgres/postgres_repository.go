// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/dealbrain/core/internal/dberrors"
	"github.com/dealbrain/core/internal/domain"
)

// PostgresRepository implements Repository against a lib/pq connection
// pool.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository wraps an already-opened pool. Use Open to build
// one with the pool settings this service expects.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// DB exposes the underlying pool so callers can manage its lifecycle
// (Close on shutdown) without PostgresRepository needing its own
// Close method.
func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", dberrors.ErrUnavailable, err)
	}
	return nil
}

// --- Listings ---------------------------------------------------------

func (r *PostgresRepository) CreateListing(ctx context.Context, l *domain.Listing) error {
	otherURLs, err := json.Marshal(l.OtherURLs)
	if err != nil {
		return fmt.Errorf("marshal other_urls: %w", err)
	}
	attrs, err := toJSON(l.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	raw, err := toJSON(l.RawListingJSON)
	if err != nil {
		return fmt.Errorf("marshal raw_listing_json: %w", err)
	}
	breakdown, err := marshalBreakdown(l.ValuationBreakdown)
	if err != nil {
		return err
	}
	extraction, err := marshalExtractionMetadata(l.ExtractionMetadata)
	if err != nil {
		return err
	}
	missing, err := json.Marshal(l.MissingFields)
	if err != nil {
		return fmt.Errorf("marshal missing_fields: %w", err)
	}

	query := `
		INSERT INTO listings (
			title, listing_url, other_urls, seller, price_usd, condition, status,
			marketplace, vendor_item_id, dedup_hash,
			cpu_id, gpu_id, ram_spec_id, primary_storage_id, secondary_storage_id,
			ports_profile_id, scoring_profile_id,
			ram_gb, primary_storage_gb, primary_storage_type, secondary_storage_gb, secondary_storage_type,
			notes, attributes, raw_listing_json, last_seen_at,
			adjusted_price_usd, valuation_breakdown,
			score_cpu_multi, score_cpu_single, score_gpu, score_composite,
			dollar_per_cpu_mark, dollar_per_cpu_mark_single, dollar_per_cpu_mark_multi,
			dollar_per_single_mark, dollar_per_cpu_mark_single_adjusted, dollar_per_cpu_mark_multi_adjusted,
			perf_per_watt, active_profile_id, ruleset_id,
			quality, extraction_metadata, missing_fields,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17,
			$18, $19, $20, $21, $22,
			$23, $24, $25, $26,
			$27, $28,
			$29, $30, $31, $32,
			$33, $34, $35,
			$36, $37, $38,
			$39, $40, $41,
			$42, $43, $44,
			now(), now()
		) RETURNING id, created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		l.Title, l.ListingURL, otherURLs, l.Seller, l.PriceUSD, string(l.Condition), l.Status,
		string(l.Marketplace), l.VendorItemID, l.DedupHash,
		l.CPUID, l.GPUID, l.RamSpecID, l.PrimaryStorageID, l.SecondaryStorageID,
		l.PortsProfileID, l.ScoringProfileID,
		l.RamGB, l.PrimaryStorageGB, l.PrimaryStorageType, l.SecondaryStorageGB, l.SecondaryStorageType,
		l.Notes, attrs, raw, l.LastSeenAt,
		l.AdjustedPriceUSD, breakdown,
		l.ScoreCPUMulti, l.ScoreCPUSingle, l.ScoreGPU, l.ScoreComposite,
		l.DollarPerCPUMark, l.DollarPerCPUMarkSingle, l.DollarPerCPUMarkMulti,
		l.DollarPerSingleMark, l.DollarPerCPUMarkSingleAdjusted, l.DollarPerCPUMarkMultiAdjusted,
		l.PerfPerWatt, l.ActiveProfileID, l.RulesetID,
		string(l.Quality), extraction, missing,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: listing already exists", dberrors.ErrConflict)
		}
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateListing(ctx context.Context, l *domain.Listing) error {
	otherURLs, err := json.Marshal(l.OtherURLs)
	if err != nil {
		return fmt.Errorf("marshal other_urls: %w", err)
	}
	attrs, err := toJSON(l.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	raw, err := toJSON(l.RawListingJSON)
	if err != nil {
		return fmt.Errorf("marshal raw_listing_json: %w", err)
	}
	breakdown, err := marshalBreakdown(l.ValuationBreakdown)
	if err != nil {
		return err
	}
	extraction, err := marshalExtractionMetadata(l.ExtractionMetadata)
	if err != nil {
		return err
	}
	missing, err := json.Marshal(l.MissingFields)
	if err != nil {
		return fmt.Errorf("marshal missing_fields: %w", err)
	}

	query := `
		UPDATE listings SET
			title = $1, listing_url = $2, other_urls = $3, seller = $4, price_usd = $5,
			condition = $6, status = $7, marketplace = $8, vendor_item_id = $9, dedup_hash = $10,
			cpu_id = $11, gpu_id = $12, ram_spec_id = $13, primary_storage_id = $14, secondary_storage_id = $15,
			ports_profile_id = $16, scoring_profile_id = $17,
			ram_gb = $18, primary_storage_gb = $19, primary_storage_type = $20,
			secondary_storage_gb = $21, secondary_storage_type = $22,
			notes = $23, attributes = $24, raw_listing_json = $25, last_seen_at = $26,
			adjusted_price_usd = $27, valuation_breakdown = $28,
			score_cpu_multi = $29, score_cpu_single = $30, score_gpu = $31, score_composite = $32,
			dollar_per_cpu_mark = $33, dollar_per_cpu_mark_single = $34, dollar_per_cpu_mark_multi = $35,
			dollar_per_single_mark = $36, dollar_per_cpu_mark_single_adjusted = $37,
			dollar_per_cpu_mark_multi_adjusted = $38,
			perf_per_watt = $39, active_profile_id = $40, ruleset_id = $41,
			quality = $42, extraction_metadata = $43, missing_fields = $44,
			updated_at = now()
		WHERE id = $45
		RETURNING updated_at`

	err = r.db.QueryRowContext(ctx, query,
		l.Title, l.ListingURL, otherURLs, l.Seller, l.PriceUSD,
		string(l.Condition), l.Status, string(l.Marketplace), l.VendorItemID, l.DedupHash,
		l.CPUID, l.GPUID, l.RamSpecID, l.PrimaryStorageID, l.SecondaryStorageID,
		l.PortsProfileID, l.ScoringProfileID,
		l.RamGB, l.PrimaryStorageGB, l.PrimaryStorageType,
		l.SecondaryStorageGB, l.SecondaryStorageType,
		l.Notes, attrs, raw, l.LastSeenAt,
		l.AdjustedPriceUSD, breakdown,
		l.ScoreCPUMulti, l.ScoreCPUSingle, l.ScoreGPU, l.ScoreComposite,
		l.DollarPerCPUMark, l.DollarPerCPUMarkSingle, l.DollarPerCPUMarkMulti,
		l.DollarPerSingleMark, l.DollarPerCPUMarkSingleAdjusted, l.DollarPerCPUMarkMultiAdjusted,
		l.PerfPerWatt, l.ActiveProfileID, l.RulesetID,
		string(l.Quality), extraction, missing,
		l.ID,
	).Scan(&l.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: listing %d", dberrors.ErrNotFound, l.ID)
	}
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

const listingColumns = `
	id, title, listing_url, other_urls, seller, price_usd, condition, status,
	marketplace, vendor_item_id, dedup_hash,
	cpu_id, gpu_id, ram_spec_id, primary_storage_id, secondary_storage_id,
	ports_profile_id, scoring_profile_id,
	ram_gb, primary_storage_gb, primary_storage_type, secondary_storage_gb, secondary_storage_type,
	notes, attributes, raw_listing_json, last_seen_at,
	adjusted_price_usd, valuation_breakdown,
	score_cpu_multi, score_cpu_single, score_gpu, score_composite,
	dollar_per_cpu_mark, dollar_per_cpu_mark_single, dollar_per_cpu_mark_multi,
	dollar_per_single_mark, dollar_per_cpu_mark_single_adjusted, dollar_per_cpu_mark_multi_adjusted,
	perf_per_watt, active_profile_id, ruleset_id,
	quality, extraction_metadata, missing_fields,
	created_at, updated_at`

func scanListing(scan func(...any) error) (domain.Listing, error) {
	var l domain.Listing
	var otherURLs, attrs, raw, breakdown, extraction, missing []byte
	var condition, status, marketplace, quality string

	err := scan(
		&l.ID, &l.Title, &l.ListingURL, &otherURLs, &l.Seller, &l.PriceUSD, &condition, &status,
		&marketplace, &l.VendorItemID, &l.DedupHash,
		&l.CPUID, &l.GPUID, &l.RamSpecID, &l.PrimaryStorageID, &l.SecondaryStorageID,
		&l.PortsProfileID, &l.ScoringProfileID,
		&l.RamGB, &l.PrimaryStorageGB, &l.PrimaryStorageType, &l.SecondaryStorageGB, &l.SecondaryStorageType,
		&l.Notes, &attrs, &raw, &l.LastSeenAt,
		&l.AdjustedPriceUSD, &breakdown,
		&l.ScoreCPUMulti, &l.ScoreCPUSingle, &l.ScoreGPU, &l.ScoreComposite,
		&l.DollarPerCPUMark, &l.DollarPerCPUMarkSingle, &l.DollarPerCPUMarkMulti,
		&l.DollarPerSingleMark, &l.DollarPerCPUMarkSingleAdjusted, &l.DollarPerCPUMarkMultiAdjusted,
		&l.PerfPerWatt, &l.ActiveProfileID, &l.RulesetID,
		&quality, &extraction, &missing,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.Listing{}, err
	}

	l.Condition = domain.ItemCondition(condition)
	l.Status = status
	l.Marketplace = domain.Marketplace(marketplace)
	l.Quality = domain.Quality(quality)

	if err := json.Unmarshal(otherURLs, &l.OtherURLs); err != nil && len(otherURLs) > 0 {
		return domain.Listing{}, fmt.Errorf("unmarshal other_urls: %w", err)
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &l.Attributes); err != nil {
			return domain.Listing{}, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &l.RawListingJSON); err != nil {
			return domain.Listing{}, fmt.Errorf("unmarshal raw_listing_json: %w", err)
		}
	}
	if len(breakdown) > 0 && string(breakdown) != "null" {
		l.ValuationBreakdown = &domain.ValuationBreakdown{}
		if err := json.Unmarshal(breakdown, l.ValuationBreakdown); err != nil {
			return domain.Listing{}, fmt.Errorf("unmarshal valuation_breakdown: %w", err)
		}
	}
	if len(extraction) > 0 {
		var raw map[string]string
		if err := json.Unmarshal(extraction, &raw); err != nil {
			return domain.Listing{}, fmt.Errorf("unmarshal extraction_metadata: %w", err)
		}
		l.ExtractionMetadata = make(map[string]domain.FieldState, len(raw))
		for k, v := range raw {
			l.ExtractionMetadata[k] = domain.FieldState(v)
		}
	}
	if len(missing) > 0 {
		if err := json.Unmarshal(missing, &l.MissingFields); err != nil {
			return domain.Listing{}, fmt.Errorf("unmarshal missing_fields: %w", err)
		}
	}

	return l, nil
}

func (r *PostgresRepository) GetListing(ctx context.Context, id int64) (*domain.Listing, error) {
	query := "SELECT " + listingColumns + " FROM listings WHERE id = $1"
	row := r.db.QueryRowContext(ctx, query, id)
	l, err := scanListing(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: listing %d", dberrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &l, nil
}

// ListListings runs a keyset-paginated query: it fetches one row beyond
// opts.Limit so the caller can tell whether another page follows without
// a separate COUNT.
func (r *PostgresRepository) ListListings(ctx context.Context, opts ListOptions) (ListResult, error) {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "id"
	}
	comparator := ">"
	order := "ASC"
	if opts.SortDesc {
		comparator = "<"
		order = "DESC"
	}

	var conditions []string
	var args []any
	argIdx := 1

	for field, val := range opts.Filters {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", field, argIdx))
		args = append(args, val)
		argIdx++
	}

	if opts.Cursor != "" {
		var cursorID int64
		if _, err := fmt.Sscanf(opts.Cursor, "%d", &cursorID); err != nil {
			return ListResult{}, fmt.Errorf("%w: malformed cursor", dberrors.ErrValidation)
		}
		conditions = append(conditions, fmt.Sprintf("id %s $%d", comparator, argIdx))
		args = append(args, cursorID)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := opts.Limit + 1
	query := fmt.Sprintf(
		"SELECT %s FROM listings %s ORDER BY %s %s, id %s LIMIT $%d",
		listingColumns, where, sortBy, order, order, argIdx,
	)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows.Scan)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list listings: %w", err)
	}

	result := ListResult{Listings: out}
	if len(out) > opts.Limit {
		result.Listings = out[:opts.Limit]
		result.NextCursor = fmt.Sprintf("%d", result.Listings[len(result.Listings)-1].ID)
	}
	return result, nil
}

func (r *PostgresRepository) FindByVendorID(ctx context.Context, marketplace, vendorItemID string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM listings WHERE marketplace = $1 AND vendor_item_id = $2`,
		marketplace, vendorItemID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find by vendor id: %w", err)
	}
	return id, true, nil
}

func (r *PostgresRepository) FindByHash(ctx context.Context, hash string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM listings WHERE dedup_hash = $1`, hash).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find by hash: %w", err)
	}
	return id, true, nil
}

func (r *PostgresRepository) TouchLastSeen(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE listings SET last_seen_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: listing %d", dberrors.ErrNotFound, id)
	}
	return nil
}

// --- Catalog ------------------------------------------------------------

func (r *PostgresRepository) FindRamSpec(ctx context.Context, tuple [5]any) (domain.RamSpec, bool, error) {
	var s domain.RamSpec
	var generation string
	var attrs []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, generation, speed_mhz, module_count, capacity_per_gb, total_capacity_gb, attributes
		 FROM ram_specs WHERE generation = $1 AND speed_mhz = $2 AND module_count = $3
		   AND capacity_per_gb = $4 AND total_capacity_gb = $5`,
		tuple[0], tuple[1], tuple[2], tuple[3], tuple[4],
	).Scan(&s.ID, &generation, &s.SpeedMHz, &s.ModuleCount, &s.CapacityPerGB, &s.TotalCapacityGB, &attrs)
	if err == sql.ErrNoRows {
		return domain.RamSpec{}, false, nil
	}
	if err != nil {
		return domain.RamSpec{}, false, fmt.Errorf("find ram spec: %w", err)
	}
	s.Generation = domain.RAMGeneration(generation)
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &s.Attributes); err != nil {
			return domain.RamSpec{}, false, fmt.Errorf("unmarshal ram spec attributes: %w", err)
		}
	}
	return s, true, nil
}

func (r *PostgresRepository) CreateRamSpec(ctx context.Context, spec domain.RamSpec) (domain.RamSpec, error) {
	attrs, err := toJSON(spec.Attributes)
	if err != nil {
		return domain.RamSpec{}, fmt.Errorf("marshal ram spec attributes: %w", err)
	}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO ram_specs (generation, speed_mhz, module_count, capacity_per_gb, total_capacity_gb, attributes)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		string(spec.Generation), spec.SpeedMHz, spec.ModuleCount, spec.CapacityPerGB, spec.TotalCapacityGB, attrs,
	).Scan(&spec.ID)
	if err != nil {
		return domain.RamSpec{}, fmt.Errorf("create ram spec: %w", err)
	}
	return spec, nil
}

func (r *PostgresRepository) FindStorageProfile(ctx context.Context, tuple [4]any) (domain.StorageProfile, bool, error) {
	var p domain.StorageProfile
	var medium string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, medium, interface, form_factor, capacity_gb, performance_tier
		 FROM storage_profiles WHERE medium = $1 AND interface = $2 AND form_factor = $3 AND capacity_gb = $4`,
		tuple[0], tuple[1], tuple[2], tuple[3],
	).Scan(&p.ID, &medium, &p.Interface, &p.FormFactor, &p.CapacityGB, &p.PerformanceTier)
	if err == sql.ErrNoRows {
		return domain.StorageProfile{}, false, nil
	}
	if err != nil {
		return domain.StorageProfile{}, false, fmt.Errorf("find storage profile: %w", err)
	}
	p.Medium = domain.StorageMedium(medium)
	return p, true, nil
}

func (r *PostgresRepository) CreateStorageProfile(ctx context.Context, profile domain.StorageProfile) (domain.StorageProfile, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO storage_profiles (medium, interface, form_factor, capacity_gb, performance_tier)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		string(profile.Medium), profile.Interface, profile.FormFactor, profile.CapacityGB, profile.PerformanceTier,
	).Scan(&profile.ID)
	if err != nil {
		return domain.StorageProfile{}, fmt.Errorf("create storage profile: %w", err)
	}
	return profile, nil
}

func (r *PostgresRepository) FindCPUByName(ctx context.Context, name string) (domain.CPU, bool, error) {
	cpu, ok, err := r.scanCPURow(r.db.QueryRowContext(ctx,
		`SELECT id, name, manufacturer, cores, threads, tdp_watts, cpu_mark_single, cpu_mark_multi, igpu_mark, created_at, updated_at
		 FROM cpus WHERE name = $1`, name))
	if err != nil {
		return domain.CPU{}, false, fmt.Errorf("find cpu by name: %w", err)
	}
	return cpu, ok, nil
}

func (r *PostgresRepository) GetCPU(ctx context.Context, id int64) (domain.CPU, error) {
	cpu, ok, err := r.scanCPURow(r.db.QueryRowContext(ctx,
		`SELECT id, name, manufacturer, cores, threads, tdp_watts, cpu_mark_single, cpu_mark_multi, igpu_mark, created_at, updated_at
		 FROM cpus WHERE id = $1`, id))
	if err != nil {
		return domain.CPU{}, fmt.Errorf("get cpu: %w", err)
	}
	if !ok {
		return domain.CPU{}, fmt.Errorf("%w: cpu %d", dberrors.ErrNotFound, id)
	}
	return cpu, nil
}

func (r *PostgresRepository) scanCPURow(row *sql.Row) (domain.CPU, bool, error) {
	var c domain.CPU
	err := row.Scan(&c.ID, &c.Name, &c.Manufacturer, &c.Cores, &c.Threads, &c.TDPWatts,
		&c.CPUMarkSingle, &c.CPUMarkMulti, &c.IGPUMark, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.CPU{}, false, nil
	}
	if err != nil {
		return domain.CPU{}, false, err
	}
	return c, true, nil
}

func (r *PostgresRepository) CreateCPU(ctx context.Context, cpu domain.CPU) (domain.CPU, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cpus (name, manufacturer, cores, threads, tdp_watts, cpu_mark_single, cpu_mark_multi, igpu_mark, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now()) RETURNING id, created_at, updated_at`,
		cpu.Name, cpu.Manufacturer, cpu.Cores, cpu.Threads, cpu.TDPWatts, cpu.CPUMarkSingle, cpu.CPUMarkMulti, cpu.IGPUMark,
	).Scan(&cpu.ID, &cpu.CreatedAt, &cpu.UpdatedAt)
	if err != nil {
		return domain.CPU{}, fmt.Errorf("create cpu: %w", err)
	}
	return cpu, nil
}

func (r *PostgresRepository) FindGPUByName(ctx context.Context, name string) (domain.GPU, bool, error) {
	gpu, ok, err := r.scanGPURow(r.db.QueryRowContext(ctx,
		`SELECT id, name, manufacturer, gpu_mark, metal_score, created_at, updated_at FROM gpus WHERE name = $1`, name))
	if err != nil {
		return domain.GPU{}, false, fmt.Errorf("find gpu by name: %w", err)
	}
	return gpu, ok, nil
}

func (r *PostgresRepository) GetGPU(ctx context.Context, id int64) (domain.GPU, error) {
	gpu, ok, err := r.scanGPURow(r.db.QueryRowContext(ctx,
		`SELECT id, name, manufacturer, gpu_mark, metal_score, created_at, updated_at FROM gpus WHERE id = $1`, id))
	if err != nil {
		return domain.GPU{}, fmt.Errorf("get gpu: %w", err)
	}
	if !ok {
		return domain.GPU{}, fmt.Errorf("%w: gpu %d", dberrors.ErrNotFound, id)
	}
	return gpu, nil
}

func (r *PostgresRepository) scanGPURow(row *sql.Row) (domain.GPU, bool, error) {
	var g domain.GPU
	err := row.Scan(&g.ID, &g.Name, &g.Manufacturer, &g.GPUMark, &g.MetalScore, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.GPU{}, false, nil
	}
	if err != nil {
		return domain.GPU{}, false, err
	}
	return g, true, nil
}

func (r *PostgresRepository) CreateGPU(ctx context.Context, gpu domain.GPU) (domain.GPU, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO gpus (name, manufacturer, gpu_mark, metal_score, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now()) RETURNING id, created_at, updated_at`,
		gpu.Name, gpu.Manufacturer, gpu.GPUMark, gpu.MetalScore,
	).Scan(&gpu.ID, &gpu.CreatedAt, &gpu.UpdatedAt)
	if err != nil {
		return domain.GPU{}, fmt.Errorf("create gpu: %w", err)
	}
	return gpu, nil
}

// --- Valuation ------------------------------------------------------------

func (r *PostgresRepository) GetActiveRuleset(ctx context.Context, profileID *int64) (domain.ValuationRuleset, error) {
	var rulesetID int64
	var err error
	if profileID != nil {
		err = r.db.QueryRowContext(ctx,
			`SELECT id FROM valuation_rulesets WHERE active = true AND (metadata->>'profile_id')::bigint = $1
			 ORDER BY priority ASC LIMIT 1`, *profileID,
		).Scan(&rulesetID)
		if err == sql.ErrNoRows {
			err = nil
			rulesetID = 0
		}
	}
	if rulesetID == 0 {
		err = r.db.QueryRowContext(ctx,
			`SELECT id FROM valuation_rulesets WHERE active = true AND is_default = true ORDER BY priority ASC LIMIT 1`,
		).Scan(&rulesetID)
	}
	if err == sql.ErrNoRows {
		return domain.ValuationRuleset{}, fmt.Errorf("%w: no active default ruleset", dberrors.ErrNotFound)
	}
	if err != nil {
		return domain.ValuationRuleset{}, fmt.Errorf("get active ruleset: %w", err)
	}
	return r.GetRuleset(ctx, rulesetID)
}

func (r *PostgresRepository) GetRuleset(ctx context.Context, id int64) (domain.ValuationRuleset, error) {
	var rs domain.ValuationRuleset
	var conditions, metadata []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, version, description, priority, is_default, active, conditions, metadata, created_at, updated_at
		 FROM valuation_rulesets WHERE id = $1`, id,
	).Scan(&rs.ID, &rs.Name, &rs.Version, &rs.Description, &rs.Priority, &rs.IsDefault, &rs.Active,
		&conditions, &metadata, &rs.CreatedAt, &rs.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.ValuationRuleset{}, fmt.Errorf("%w: ruleset %d", dberrors.ErrNotFound, id)
	}
	if err != nil {
		return domain.ValuationRuleset{}, fmt.Errorf("get ruleset: %w", err)
	}
	if len(conditions) > 0 && string(conditions) != "null" {
		var c domain.Condition
		if err := json.Unmarshal(conditions, &c); err != nil {
			return domain.ValuationRuleset{}, fmt.Errorf("unmarshal ruleset conditions: %w", err)
		}
		rs.Conditions = &c
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rs.Metadata); err != nil {
			return domain.ValuationRuleset{}, fmt.Errorf("unmarshal ruleset metadata: %w", err)
		}
	}

	groups, err := r.loadGroups(ctx, id)
	if err != nil {
		return domain.ValuationRuleset{}, err
	}
	rs.Groups = groups
	return rs, nil
}

func (r *PostgresRepository) loadGroups(ctx context.Context, rulesetID int64) ([]domain.ValuationRuleGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ruleset_id, name, category, display_order, weight, metadata
		 FROM valuation_rule_groups WHERE ruleset_id = $1 ORDER BY display_order ASC`, rulesetID)
	if err != nil {
		return nil, fmt.Errorf("load rule groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.ValuationRuleGroup
	for rows.Next() {
		var g domain.ValuationRuleGroup
		var metadata []byte
		if err := rows.Scan(&g.ID, &g.RulesetID, &g.Name, &g.Category, &g.DisplayOrder, &g.Weight, &metadata); err != nil {
			return nil, fmt.Errorf("scan rule group: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &g.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal rule group metadata: %w", err)
			}
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rule groups: %w", err)
	}

	for i := range groups {
		rules, err := r.loadRules(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Rules = rules
	}
	return groups, nil
}

func (r *PostgresRepository) loadRules(ctx context.Context, groupID int64) ([]domain.ValuationRuleV2, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, group_id, name, priority, evaluation_order, enabled, version, conditions, actions, metadata, created_at, updated_at
		 FROM valuation_rules WHERE group_id = $1 ORDER BY evaluation_order ASC, priority ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.ValuationRuleV2
	for rows.Next() {
		var rule domain.ValuationRuleV2
		var conditions, actions, metadata []byte
		if err := rows.Scan(&rule.ID, &rule.GroupID, &rule.Name, &rule.Priority, &rule.EvaluationOrder,
			&rule.Enabled, &rule.Version, &conditions, &actions, &metadata, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if len(conditions) > 0 {
			if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
				return nil, fmt.Errorf("unmarshal rule conditions: %w", err)
			}
		}
		if len(actions) > 0 {
			if err := json.Unmarshal(actions, &rule.Actions); err != nil {
				return nil, fmt.Errorf("unmarshal rule actions: %w", err)
			}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &rule.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal rule metadata: %w", err)
			}
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return rules, nil
}

func (r *PostgresRepository) ActiveRulesets(ctx context.Context) ([]domain.ValuationRuleset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM valuation_rulesets WHERE active = true ORDER BY priority ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active rulesets: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan active ruleset id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active rulesets: %w", err)
	}

	out := make([]domain.ValuationRuleset, 0, len(ids))
	for _, id := range ids {
		rs, err := r.GetRuleset(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, nil
}

func (r *PostgresRepository) ListingIDsForRuleset(ctx context.Context, rulesetID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM listings WHERE ruleset_id = $1`, rulesetID)
	if err != nil {
		return nil, fmt.Errorf("listing ids for ruleset: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan listing id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) RecordRuleAudit(ctx context.Context, audit domain.RuleAudit) error {
	detail, err := toJSON(audit.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO rule_audit_log (entity_type, entity_id, ruleset_id, action, actor, detail, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		string(audit.EntityType), audit.EntityID, audit.RulesetID, string(audit.Action), audit.Actor, detail,
	)
	if err != nil {
		return fmt.Errorf("record rule audit: %w", err)
	}
	return nil
}

// --- Baseline ------------------------------------------------------------

func (r *PostgresRepository) RulesetBySourceHash(ctx context.Context, hash string) (*domain.ValuationRuleset, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM valuation_rulesets WHERE metadata->>'source_hash' = $1`, hash,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find ruleset by source hash: %w", err)
	}
	rs, err := r.GetRuleset(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

func (r *PostgresRepository) CreateRuleset(ctx context.Context, rs *domain.ValuationRuleset) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create ruleset: %w", err)
	}
	defer tx.Rollback()

	conditions, err := marshalCondition(rs.Conditions)
	if err != nil {
		return 0, err
	}
	metadata, err := toJSON(rs.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal ruleset metadata: %w", err)
	}

	var rulesetID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO valuation_rulesets (name, version, description, priority, is_default, active, conditions, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now()) RETURNING id`,
		rs.Name, rs.Version, rs.Description, rs.Priority, rs.IsDefault, rs.Active, conditions, metadata,
	).Scan(&rulesetID)
	if err != nil {
		return 0, fmt.Errorf("create ruleset: %w", err)
	}

	for gi := range rs.Groups {
		g := &rs.Groups[gi]
		gMetadata, err := toJSON(g.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal group metadata: %w", err)
		}
		var groupID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO valuation_rule_groups (ruleset_id, name, category, display_order, weight, metadata)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			rulesetID, g.Name, g.Category, g.DisplayOrder, g.Weight, gMetadata,
		).Scan(&groupID)
		if err != nil {
			return 0, fmt.Errorf("create rule group: %w", err)
		}

		for ri := range g.Rules {
			rule := &g.Rules[ri]
			condJSON, err := marshalCondition(&rule.Conditions)
			if err != nil {
				return 0, err
			}
			actionsJSON, err := json.Marshal(rule.Actions)
			if err != nil {
				return 0, fmt.Errorf("marshal rule actions: %w", err)
			}
			ruleMetadata, err := toJSON(rule.Metadata)
			if err != nil {
				return 0, fmt.Errorf("marshal rule metadata: %w", err)
			}
			var ruleID int64
			err = tx.QueryRowContext(ctx,
				`INSERT INTO valuation_rules (group_id, name, priority, evaluation_order, enabled, version, conditions, actions, metadata, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now()) RETURNING id`,
				groupID, rule.Name, rule.Priority, rule.EvaluationOrder, rule.Enabled, rule.Version,
				condJSON, actionsJSON, ruleMetadata,
			).Scan(&ruleID)
			if err != nil {
				return 0, fmt.Errorf("create rule: %w", err)
			}
			rule.ID = ruleID
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create ruleset: %w", err)
	}
	rs.ID = rulesetID
	return rulesetID, nil
}

func (r *PostgresRepository) DeactivateOtherBaselines(ctx context.Context, keepRulesetID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE valuation_rulesets SET active = false, updated_at = now()
		 WHERE id != $1 AND metadata->>'system_baseline' = 'true'`, keepRulesetID)
	if err != nil {
		return fmt.Errorf("deactivate other baselines: %w", err)
	}
	return nil
}

// --- Aggregates ------------------------------------------------------------

func (r *PostgresRepository) CountListings(ctx context.Context, filters map[string]any) (int64, error) {
	var conditions []string
	var args []any
	idx := 1
	for field, val := range filters {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", field, idx))
		args = append(args, val)
		idx++
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM listings %s", where)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return count, nil
}

// --- helpers ------------------------------------------------------------

func toJSON(v map[string]any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

func marshalBreakdown(b *domain.ValuationBreakdown) ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal valuation_breakdown: %w", err)
	}
	return data, nil
}

func marshalExtractionMetadata(m map[string]domain.FieldState) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal extraction_metadata: %w", err)
	}
	return data, nil
}

func marshalCondition(c *domain.Condition) ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal conditions: %w", err)
	}
	return data, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}
