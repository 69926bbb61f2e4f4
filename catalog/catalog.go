package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Storage key suffixes, one per catalog kind. Full keys are
// prefix + suffix, e.g. "user_anna_brands".
const (
	deviceTypesKey  = "device_types"
	brandsKey       = "brands"
	seriesKey       = "series"
	seriesModelsKey = "series_models"
	legacyModelsKey = "models" // Pre-series flat scheme, migrated at open
	issuesKey       = "issues"
)

// CatchAllSeries is the series legacy flat models are migrated into.
const CatchAllSeries = "Weitere Modelle"

// Store provides the user-scoped catalogs on top of a Storage. The prefix
// provider is injected so callers (and tests) decide the scoping; it is
// consulted on every operation, never cached.
type Store struct {
	storage Storage
	prefix  func() string
}

// New creates a catalog store. A nil prefix provider falls back to
// session-based scoping via UserPrefix. Opening a store migrates any
// legacy flat model entries of the active scope into the series scheme.
func New(storage Storage, prefix func() string) *Store {
	if prefix == nil {
		prefix = UserPrefix(storage)
	}
	s := &Store{storage: storage, prefix: prefix}
	s.migrateLegacyModels()
	return s
}

// normalizeKey folds a user-facing name into a bucket key: NFKC
// normalization, trimmed, lower-cased.
func normalizeKey(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

// foldEqual reports whether two labels collide under key normalization.
func foldEqual(a, b string) bool {
	return normalizeKey(a) == normalizeKey(b)
}

func (s *Store) key(suffix string) string {
	return s.prefix() + suffix
}

// load unmarshals the value under key into dst. An absent key leaves dst
// untouched; a parse failure is logged and likewise treated as absent.
// Read paths never surface storage errors to the caller.
func (s *Store) load(key string, dst any) {
	raw, ok := s.storage.Get(key)
	if !ok {
		return
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		log.Printf("WARN: Catalog value under key '%s' is not valid JSON: %v. Treating as empty.", key, err)
	}
}

func (s *Store) save(key string, v any) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog value for key '%s': %w", key, err)
	}
	return s.storage.Set(key, string(jsonData))
}

// --- Device types (flat list, casefold-unique) ---

// SaveDeviceType appends a device type label unless an entry already
// matches it case-insensitively. Persists only when something changed.
func (s *Store) SaveDeviceType(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return fmt.Errorf("device type must not be empty")
	}

	var types []string
	s.load(s.key(deviceTypesKey), &types)

	for _, existing := range types {
		if foldEqual(existing, label) {
			return nil // Already present, nothing to persist
		}
	}
	types = append(types, label)
	return s.save(s.key(deviceTypesKey), types)
}

// DeviceTypes returns all stored device type labels.
func (s *Store) DeviceTypes() []string {
	var types []string
	s.load(s.key(deviceTypesKey), &types)
	if types == nil {
		types = []string{}
	}
	return types
}

// DeleteDeviceType removes a device type label (case-insensitive match).
// Brands and models saved under the type are not cascaded; they become
// unreachable via the UI but stay in storage.
func (s *Store) DeleteDeviceType(label string) error {
	var types []string
	s.load(s.key(deviceTypesKey), &types)

	kept := types[:0]
	for _, existing := range types {
		if !foldEqual(existing, label) {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(types) {
		return nil
	}
	if len(kept) == 0 {
		return s.storage.Delete(s.key(deviceTypesKey))
	}
	return s.save(s.key(deviceTypesKey), kept)
}

// ClearDeviceTypes removes the whole device type catalog of this scope.
func (s *Store) ClearDeviceTypes() error {
	return s.storage.Delete(s.key(deviceTypesKey))
}

// --- Brands (per device type, exact-string unique) ---

// SaveBrand appends a brand under a device type. Brand dedup is exact-match,
// not case-insensitive: "Apple" and "apple" are two entries. The asymmetry
// with device types is long-standing behavior the autofill relies on.
func (s *Store) SaveBrand(deviceType, brand string) error {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return fmt.Errorf("brand must not be empty")
	}

	brands := make(map[string][]string)
	s.load(s.key(brandsKey), &brands)

	bucket := normalizeKey(deviceType)
	for _, existing := range brands[bucket] {
		if existing == brand {
			return nil
		}
	}
	brands[bucket] = append(brands[bucket], brand)
	return s.save(s.key(brandsKey), brands)
}

// BrandsFor returns the brands stored under a device type.
func (s *Store) BrandsFor(deviceType string) []string {
	brands := make(map[string][]string)
	s.load(s.key(brandsKey), &brands)

	list := brands[normalizeKey(deviceType)]
	if list == nil {
		list = []string{}
	}
	return list
}

// DeleteBrand removes a brand (exact match) from a device type. An emptied
// bucket is removed from the map, an emptied map from storage. Models of
// the brand are not cascaded.
func (s *Store) DeleteBrand(deviceType, brand string) error {
	brands := make(map[string][]string)
	s.load(s.key(brandsKey), &brands)

	bucket := normalizeKey(deviceType)
	list, ok := brands[bucket]
	if !ok {
		return nil
	}

	kept := list[:0]
	for _, existing := range list {
		if existing != brand {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	if len(kept) == 0 {
		delete(brands, bucket)
	} else {
		brands[bucket] = kept
	}
	if len(brands) == 0 {
		return s.storage.Delete(s.key(brandsKey))
	}
	return s.save(s.key(brandsKey), brands)
}

// ClearBrands removes the whole brand catalog of this scope.
func (s *Store) ClearBrands() error {
	return s.storage.Delete(s.key(brandsKey))
}

// --- Model series and models (nested maps) ---

// seriesMap is deviceType key -> brand key -> series display names.
type seriesMap map[string]map[string][]string

// modelMap is deviceType key -> brand key -> series key -> model names.
type modelMap map[string]map[string]map[string][]string

func (s *Store) loadSeries() seriesMap {
	series := make(seriesMap)
	s.load(s.key(seriesKey), &series)
	return series
}

func (s *Store) loadModels() modelMap {
	models := make(modelMap)
	s.load(s.key(seriesModelsKey), &models)
	return models
}

// SaveSeries appends a series name under a (deviceType, brand) pair,
// deduplicated case-insensitively.
func (s *Store) SaveSeries(deviceType, brand, series string) error {
	series = strings.TrimSpace(series)
	if series == "" {
		return fmt.Errorf("series must not be empty")
	}

	all := s.loadSeries()
	dtKey := normalizeKey(deviceType)
	brandKey := normalizeKey(brand)

	for _, existing := range all[dtKey][brandKey] {
		if foldEqual(existing, series) {
			return nil
		}
	}
	if all[dtKey] == nil {
		all[dtKey] = make(map[string][]string)
	}
	all[dtKey][brandKey] = append(all[dtKey][brandKey], series)
	return s.save(s.key(seriesKey), all)
}

// SeriesFor returns the series names stored under a (deviceType, brand) pair.
func (s *Store) SeriesFor(deviceType, brand string) []string {
	all := s.loadSeries()
	list := all[normalizeKey(deviceType)][normalizeKey(brand)]
	if list == nil {
		list = []string{}
	}
	return list
}

// DeleteSeries removes a series name. Its models are not cascaded; they
// stay in storage, unreachable until a series of the same name reappears.
func (s *Store) DeleteSeries(deviceType, brand, series string) error {
	all := s.loadSeries()
	dtKey := normalizeKey(deviceType)
	brandKey := normalizeKey(brand)

	list, ok := all[dtKey][brandKey]
	if !ok {
		return nil
	}

	kept := list[:0]
	for _, existing := range list {
		if !foldEqual(existing, series) {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	if len(kept) == 0 {
		delete(all[dtKey], brandKey)
		if len(all[dtKey]) == 0 {
			delete(all, dtKey)
		}
	} else {
		all[dtKey][brandKey] = kept
	}
	if len(all) == 0 {
		return s.storage.Delete(s.key(seriesKey))
	}
	return s.save(s.key(seriesKey), all)
}

// SaveModel appends a model under a (deviceType, brand, series) triple,
// deduplicated case-insensitively. The series itself is not created here;
// pair SaveModel with SaveSeries when adding new series.
func (s *Store) SaveModel(deviceType, brand, series, model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("model must not be empty")
	}

	all := s.loadModels()
	dtKey := normalizeKey(deviceType)
	brandKey := normalizeKey(brand)
	srKey := normalizeKey(series)

	for _, existing := range all[dtKey][brandKey][srKey] {
		if foldEqual(existing, model) {
			return nil
		}
	}
	if all[dtKey] == nil {
		all[dtKey] = make(map[string]map[string][]string)
	}
	if all[dtKey][brandKey] == nil {
		all[dtKey][brandKey] = make(map[string][]string)
	}
	all[dtKey][brandKey][srKey] = append(all[dtKey][brandKey][srKey], model)
	return s.save(s.key(seriesModelsKey), all)
}

// ModelsFor returns the models stored under a (deviceType, brand, series)
// triple.
func (s *Store) ModelsFor(deviceType, brand, series string) []string {
	all := s.loadModels()
	list := all[normalizeKey(deviceType)][normalizeKey(brand)][normalizeKey(series)]
	if list == nil {
		list = []string{}
	}
	return list
}

// ModelsForDeviceAndBrand returns the series-to-models view for a
// (deviceType, brand) pair: one entry per stored series name, each with its
// (possibly empty) model list. A series whose last model was deleted still
// appears here with no models; deleting models never removes series names.
func (s *Store) ModelsForDeviceAndBrand(deviceType, brand string) map[string][]string {
	result := make(map[string][]string)
	for _, series := range s.SeriesFor(deviceType, brand) {
		result[series] = s.ModelsFor(deviceType, brand, series)
	}
	return result
}

// DeleteModel removes a model (case-insensitive match) from a series.
// Removing the last model deletes the series' model bucket but leaves the
// series name in the series list: orphaned series are possible and kept.
func (s *Store) DeleteModel(deviceType, brand, series, model string) error {
	all := s.loadModels()
	dtKey := normalizeKey(deviceType)
	brandKey := normalizeKey(brand)
	srKey := normalizeKey(series)

	list, ok := all[dtKey][brandKey][srKey]
	if !ok {
		return nil
	}

	kept := list[:0]
	for _, existing := range list {
		if !foldEqual(existing, model) {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	if len(kept) == 0 {
		delete(all[dtKey][brandKey], srKey)
		if len(all[dtKey][brandKey]) == 0 {
			delete(all[dtKey], brandKey)
		}
		if len(all[dtKey]) == 0 {
			delete(all, dtKey)
		}
	} else {
		all[dtKey][brandKey][srKey] = kept
	}
	if len(all) == 0 {
		return s.storage.Delete(s.key(seriesModelsKey))
	}
	return s.save(s.key(seriesModelsKey), all)
}

// ClearModels removes the series, model, and legacy model catalogs of this
// scope.
func (s *Store) ClearModels() error {
	if err := s.storage.Delete(s.key(seriesKey)); err != nil {
		return err
	}
	if err := s.storage.Delete(s.key(seriesModelsKey)); err != nil {
		return err
	}
	return s.storage.Delete(s.key(legacyModelsKey))
}

// ClearAll removes every catalog of this scope, including issues.
func (s *Store) ClearAll() error {
	if err := s.ClearDeviceTypes(); err != nil {
		return err
	}
	if err := s.ClearBrands(); err != nil {
		return err
	}
	if err := s.ClearModels(); err != nil {
		return err
	}
	return s.ClearIssues()
}

// --- Legacy flat model migration ---

// migrateLegacyModels folds the pre-series flat model catalog (composite
// "deviceType:brand" keys) into the series scheme, under CatchAllSeries.
// The new maps are computed fully before anything is written, and the
// migration is idempotent, so a crash partway is healed on the next open.
func (s *Store) migrateLegacyModels() {
	legacy := make(map[string][]string)
	s.load(s.key(legacyModelsKey), &legacy)
	if len(legacy) == 0 {
		return
	}

	series := s.loadSeries()
	models := s.loadModels()
	catchAllKey := normalizeKey(CatchAllSeries)
	migrated := 0

	compositeKeys := make([]string, 0, len(legacy))
	for k := range legacy {
		compositeKeys = append(compositeKeys, k)
	}
	sort.Strings(compositeKeys)

	for _, composite := range compositeKeys {
		dtKey, brandKey, ok := strings.Cut(composite, ":")
		if !ok || dtKey == "" || brandKey == "" {
			// The flat scheme never guarded against odd keys; leave it alone.
			log.Printf("WARN: Skipping malformed legacy model key '%s' during catalog migration.", composite)
			delete(legacy, composite)
			continue
		}
		dtKey = normalizeKey(dtKey)
		brandKey = normalizeKey(brandKey)

		hasCatchAll := false
		for _, existing := range series[dtKey][brandKey] {
			if foldEqual(existing, CatchAllSeries) {
				hasCatchAll = true
				break
			}
		}
		if !hasCatchAll {
			if series[dtKey] == nil {
				series[dtKey] = make(map[string][]string)
			}
			series[dtKey][brandKey] = append(series[dtKey][brandKey], CatchAllSeries)
		}

		for _, model := range legacy[composite] {
			exists := false
			for _, existing := range models[dtKey][brandKey][catchAllKey] {
				if foldEqual(existing, model) {
					exists = true
					break
				}
			}
			if exists {
				continue
			}
			if models[dtKey] == nil {
				models[dtKey] = make(map[string]map[string][]string)
			}
			if models[dtKey][brandKey] == nil {
				models[dtKey][brandKey] = make(map[string][]string)
			}
			models[dtKey][brandKey][catchAllKey] = append(models[dtKey][brandKey][catchAllKey], model)
			migrated++
		}
	}

	if err := s.save(s.key(seriesKey), series); err != nil {
		log.Printf("ERROR: Catalog migration failed writing series: %v. Will retry on next open.", err)
		return
	}
	if err := s.save(s.key(seriesModelsKey), models); err != nil {
		log.Printf("ERROR: Catalog migration failed writing models: %v. Will retry on next open.", err)
		return
	}
	if err := s.storage.Delete(s.key(legacyModelsKey)); err != nil {
		log.Printf("ERROR: Catalog migration failed removing legacy key: %v. Will retry on next open.", err)
		return
	}

	log.Printf("INFO: Migrated %d legacy catalog models into series '%s'.", migrated, CatchAllSeries)
}

// --- Bulk reseed ---

// Reseed replaces every model of a (deviceType, brand) pair with the given
// series-to-models seed. Steps run in order: drop all models under every
// stored series, drop legacy flat leftovers, then create each seed series
// and save its models. The operation is not transactional: a failure
// partway leaves a mix of old and new entries, and the caller re-runs to
// converge.
func (s *Store) Reseed(deviceType, brand string, seed map[string][]string) error {
	// (a) drop every model bucket of the pair
	models := s.loadModels()
	dtKey := normalizeKey(deviceType)
	brandKey := normalizeKey(brand)
	if _, ok := models[dtKey][brandKey]; ok {
		delete(models[dtKey], brandKey)
		if len(models[dtKey]) == 0 {
			delete(models, dtKey)
		}
		if err := s.save(s.key(seriesModelsKey), models); err != nil {
			return fmt.Errorf("reseed: failed to drop models for %s/%s: %w", deviceType, brand, err)
		}
	}

	// (b) drop legacy flat leftovers, if the scope was never migrated
	legacy := make(map[string][]string)
	s.load(s.key(legacyModelsKey), &legacy)
	if _, ok := legacy[dtKey+":"+brandKey]; ok {
		delete(legacy, dtKey+":"+brandKey)
		if err := s.save(s.key(legacyModelsKey), legacy); err != nil {
			return fmt.Errorf("reseed: failed to drop legacy models for %s/%s: %w", deviceType, brand, err)
		}
	}

	// (c) create each seed series and its models, in stable order
	seriesNames := make([]string, 0, len(seed))
	for name := range seed {
		seriesNames = append(seriesNames, name)
	}
	sort.Strings(seriesNames)

	for _, name := range seriesNames {
		if err := s.SaveSeries(deviceType, brand, name); err != nil {
			return fmt.Errorf("reseed: failed to save series '%s': %w", name, err)
		}
		for _, model := range seed[name] {
			if err := s.SaveModel(deviceType, brand, name, model); err != nil {
				return fmt.Errorf("reseed: failed to save model '%s' in series '%s': %w", model, name, err)
			}
		}
	}

	return nil
}
