package backup

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"inventoryKeeper/internal/assets"
	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/clock"
	"inventoryKeeper/internal/csv"
	"inventoryKeeper/internal/models"

	EventBus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers = 4
	backupPrefix   = "backup_"
)

// Service exports the catalog to backup files and reconciles backup files
// back into it.
type Service struct {
	store   catalog.Store
	log     *zap.Logger
	bus     EventBus.Bus
	clock   clock.Clock
	workers int
}

type Option func(*Service)

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithBus publishes catalog.TopicChanged once after every import.
func WithBus(bus EventBus.Bus) Option {
	return func(s *Service) { s.bus = bus }
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithWorkers bounds how many photos are read in parallel during export.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewService(store catalog.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		log:     zap.NewNop(),
		clock:   clock.NewSystem(),
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ExportResult struct {
	Path     string
	Exported int
	// WithoutPhoto counts local photos that could not be read and were
	// exported without payload.
	WithoutPhoto int
}

func (r ExportResult) Summary() string {
	s := fmt.Sprintf("%d products exported to %s", r.Exported, r.Path)
	if r.WithoutPhoto > 0 {
		s += fmt.Sprintf(" (%d without photo)", r.WithoutPhoto)
	}
	return s
}

type ImportResult struct {
	Total          int
	Inserted       int
	Updated        int
	Skipped        int
	PhotosRestored int
	PhotosFailed   int
}

func (r ImportResult) Summary() string {
	s := fmt.Sprintf("%d records: %d new, %d updated, %d skipped", r.Total, r.Inserted, r.Updated, r.Skipped)
	if r.PhotosFailed > 0 {
		s += fmt.Sprintf(" (%d photos could not be restored)", r.PhotosFailed)
	}
	return s
}

// Export writes every product to dest. When dest is a directory the file is
// named backup_YYYYMMDD_HHMMSS.<ext>. An empty format is detected from the
// destination extension.
func (s *Service) Export(ctx context.Context, dest string, format Format) (ExportResult, error) {
	dest, format = s.resolveDestination(dest, format)

	products, err := s.store.List(ctx, "")
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to read catalog: %w", err)
	}

	records, withoutPhoto, err := s.buildRecords(ctx, products)
	if err != nil {
		return ExportResult{}, err
	}

	var data []byte
	switch format {
	case FormatCSV:
		var buf bytes.Buffer
		if err := csv.WriteRecords(&buf, records); err != nil {
			return ExportResult{}, err
		}
		data = buf.Bytes()
	default:
		data, err = encodeJSON(records)
		if err != nil {
			return ExportResult{}, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return ExportResult{}, fmt.Errorf("%w: failed to create output directory: %v", catalog.ErrIO, err)
	}
	if err := assets.WriteFileAtomic(dest, data); err != nil {
		return ExportResult{}, err
	}

	result := ExportResult{Path: dest, Exported: len(records), WithoutPhoto: withoutPhoto}
	s.log.Info("backup exported",
		zap.String("path", dest),
		zap.String("format", string(format)),
		zap.Int("exported", result.Exported),
		zap.Int("without_photo", result.WithoutPhoto))
	return result, nil
}

// buildRecords reads photos in parallel but keeps the catalog order.
func (s *Service) buildRecords(ctx context.Context, products []models.Product) ([]models.BackupRecord, int, error) {
	records := make([]models.BackupRecord, len(products))
	failed := make([]bool, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			payload, err := assets.EncodeForExport(p.ImageRef)
			if err != nil {
				failed[i] = true
				s.log.Warn("product exported without photo",
					zap.Int64("id", p.ID), zap.String("name", p.Name), zap.Error(err))
			}
			records[i] = toRecord(p, payload)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	withoutPhoto := 0
	for _, f := range failed {
		if f {
			withoutPhoto++
		}
	}
	return records, withoutPhoto, nil
}

func toRecord(p models.Product, payload string) models.BackupRecord {
	imagePath := models.LocalImageSentinel
	if assets.Classify(p.ImageRef) == assets.Remote {
		imagePath = strings.TrimSpace(p.ImageRef)
	}
	return models.BackupRecord{
		Name:         p.Name,
		Price:        models.PriceNumber(p.Price),
		ImagePath:    imagePath,
		ImagePayload: payload,
	}
}

func (s *Service) resolveDestination(dest string, format Format) (string, Format) {
	if format == "" {
		format = DetectFormat(dest)
	}
	isDir := strings.HasSuffix(dest, string(os.PathSeparator)) || strings.HasSuffix(dest, "/")
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		isDir = true
	}
	if dest == "" || isDir {
		name := fmt.Sprintf("%s%s.%s", backupPrefix, clock.Stamp(s.clock), format)
		dest = filepath.Join(dest, name)
	}
	return dest, format
}

// Import reads a JSON or CSV backup and reconciles it into the catalog.
// File-level problems abort with ErrIO or ErrParse; record-level problems
// only move the counters.
func (s *Service) Import(ctx context.Context, src, assetsDir string) (ImportResult, error) {
	if err := ValidateBackupFile(src); err != nil {
		return ImportResult{}, err
	}

	var pending []pendingRecord
	switch DetectFormat(src) {
	case FormatCSV:
		records, err := csv.NewParser(src).ParseRecords()
		if err != nil {
			return ImportResult{}, err
		}
		pending = fromRecords(records)
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return ImportResult{}, fmt.Errorf("%w: failed to read backup file: %v", catalog.ErrIO, err)
		}
		pending, err = decodeJSON(data)
		if err != nil {
			return ImportResult{}, err
		}
	}

	s.log.Info("importing backup", zap.String("path", src), zap.Int("records", len(pending)))
	return s.reconcile(ctx, pending, assetsDir)
}

// ImportRecords reconciles records that were already decoded by the caller.
func (s *Service) ImportRecords(ctx context.Context, records []models.BackupRecord, assetsDir string) (ImportResult, error) {
	return s.reconcile(ctx, fromRecords(records), assetsDir)
}

type outcome int

const (
	skipped outcome = iota
	inserted
	updated
)

type photoStatus int

const (
	noPhoto photoStatus = iota
	photoRestored
	photoFailed
)

// reconcile applies every record inside one store batch. Cancellation is
// only honoured between records and discards the whole batch.
func (s *Service) reconcile(ctx context.Context, pending []pendingRecord, assetsDir string) (ImportResult, error) {
	var result ImportResult
	err := s.store.Batch(ctx, func(tx catalog.Store) error {
		// Batch may retry fn on transient errors.
		result = ImportResult{Total: len(pending)}
		for i, p := range pending {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, photo := s.reconcileOne(ctx, tx, i, p, assetsDir)
			switch out {
			case inserted:
				result.Inserted++
			case updated:
				result.Updated++
			default:
				result.Skipped++
			}
			switch photo {
			case photoRestored:
				result.PhotosRestored++
			case photoFailed:
				result.PhotosFailed++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import aborted, no records were saved: %w", err)
	}

	s.log.Info("backup imported",
		zap.Int("total", result.Total),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("photos_failed", result.PhotosFailed))
	catalog.Publish(s.bus, catalog.ChangeEvent{Source: "import", Inserted: result.Inserted, Updated: result.Updated})
	return result, nil
}

func (s *Service) reconcileOne(ctx context.Context, tx catalog.Store, index int, p pendingRecord, assetsDir string) (outcome, photoStatus) {
	log := s.log.With(zap.Int("index", index))
	if p.err != nil {
		log.Warn("skipping malformed record", zap.Error(p.err))
		return skipped, noPhoto
	}
	rec := p.record

	name, err := catalog.NormalizeName(rec.Name)
	if err != nil {
		log.Warn("skipping record without name")
		return skipped, noPhoto
	}
	log = log.With(zap.String("name", name))

	price, ok := catalog.ParsePrice(rec.Price)
	if !ok && rec.Price != "" {
		log.Warn("unparsable price, importing as 0", zap.String("price", rec.Price.String()))
	}

	imageRef, photo := s.resolveImage(log, name, rec, index, assetsDir)

	existing, found, err := tx.FindByName(ctx, name)
	if err != nil {
		log.Warn("skipping record, lookup failed", zap.Error(err))
		return skipped, photo
	}
	if found {
		if err := tx.UpdatePriceAndImage(ctx, existing.ID, price, imageRef); err != nil {
			log.Warn("skipping record, update failed", zap.Error(err))
			return skipped, photo
		}
		return updated, photo
	}
	if _, err := tx.Create(ctx, name, price, imageRef); err != nil {
		log.Warn("skipping record, insert failed", zap.Error(err))
		return skipped, photo
	}
	return inserted, photo
}

// resolveImage returns the effective image reference for a record: a freshly
// restored local file when the payload decodes, otherwise the literal
// image_path. The "local" sentinel never becomes a reference.
func (s *Service) resolveImage(log *zap.Logger, name string, rec models.BackupRecord, index int, assetsDir string) (string, photoStatus) {
	ref := strings.TrimSpace(rec.ImagePath)
	if ref == models.LocalImageSentinel {
		ref = ""
	}
	if strings.TrimSpace(rec.ImagePayload) == "" {
		return ref, noPhoto
	}

	path, err := assets.DecodeAndStore(name, rec.ImagePayload, assetsDir, index)
	if err != nil {
		log.Warn("photo not restored, keeping image_path", zap.Error(err))
		return ref, photoFailed
	}
	return path, photoRestored
}

// ValidateBackupFile checks that filename is a readable, non-empty file.
func ValidateBackupFile(filename string) error {
	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("%w: cannot open backup file: %v", catalog.ErrIO, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", catalog.ErrIO, filename)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: backup file is empty", catalog.ErrParse)
	}
	return nil
}

// PruneBackups deletes all but the newest keep timestamped backups in dir
// and returns the removed paths. Files whose name carries no valid stamp are
// left alone.
func PruneBackups(dir string, keep int) ([]string, error) {
	type stamped struct {
		path string
		at   time.Time
	}
	var files []stamped
	for _, ext := range []Format{FormatJSON, FormatCSV} {
		matches, err := filepath.Glob(filepath.Join(dir, backupPrefix+"*."+string(ext)))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if at, ok := clock.ParseStamp(filepath.Base(m), backupPrefix); ok {
				files = append(files, stamped{path: m, at: at})
			}
		}
	}
	if keep < 0 || len(files) <= keep {
		return nil, nil
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].at.Equal(files[j].at) {
			return files[i].path > files[j].path
		}
		return files[i].at.After(files[j].at)
	})
	var removed []string
	for _, f := range files[keep:] {
		if err := os.Remove(f.path); err != nil {
			return removed, fmt.Errorf("%w: failed to remove old backup %s: %v", catalog.ErrIO, f.path, err)
		}
		removed = append(removed, f.path)
	}
	return removed, nil
}
