package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type productRow struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	Name      string          `gorm:"not null;index"`
	Price     decimal.Decimal `gorm:"type:numeric;not null"`
	ImageRef  string          `gorm:"not null;default:''"`
	CreatedAt time.Time
}

func (productRow) TableName() string { return "products" }

func (r productRow) toModel() models.Product {
	return models.Product{ID: r.ID, Name: r.Name, Price: r.Price, ImageRef: r.ImageRef}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresStore keeps the catalog in a PostgreSQL table through gorm.
type PostgresStore struct {
	db   *gorm.DB
	log  *zap.Logger
	inTx bool
	sp   int
}

func NewPostgresStore(dsn string, log *zap.Logger) (*PostgresStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.AutoMigrate(&productRow{}); err != nil {
		return nil, fmt.Errorf("failed to prepare products table: %w", err)
	}
	log.Info("connected to PostgreSQL")
	return &PostgresStore{db: db, log: log}, nil
}

func (s *PostgresStore) Close() error {
	if s.inTx {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) Create(ctx context.Context, name string, price decimal.Decimal, imageRef string) (int64, error) {
	name, err := catalog.NormalizeName(name)
	if err != nil {
		return 0, err
	}
	row := productRow{Name: name, Price: catalog.NormalizePrice(price), ImageRef: imageRef}
	err = s.guard(ctx, func(db *gorm.DB) error {
		return db.Create(&row).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}
	return row.ID, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	err := s.guard(ctx, func(db *gorm.DB) error {
		return db.Delete(&productRow{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter string) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Order("id asc")
	if filter != "" {
		q = q.Where("name ILIKE ?", "%"+likeEscaper.Replace(catalog.LookupName(filter))+"%")
	}
	var rows []productRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.toModel())
	}
	return products, nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (models.Product, bool, error) {
	var row productRow
	err := s.db.WithContext(ctx).Where("name = ?", catalog.LookupName(name)).Order("id asc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, false, nil
	}
	if err != nil {
		return models.Product{}, false, fmt.Errorf("failed to find product %q: %w", name, err)
	}
	return row.toModel(), true, nil
}

func (s *PostgresStore) UpdatePriceAndImage(ctx context.Context, id int64, price decimal.Decimal, imageRef string) error {
	updates := map[string]any{"price": catalog.NormalizePrice(price)}
	if imageRef != "" {
		updates["image_ref"] = imageRef
	}
	var affected int64
	err := s.guard(ctx, func(db *gorm.DB) error {
		res := db.Model(&productRow{}).Where("id = ?", id).Updates(updates)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", catalog.ErrNotFound, id)
	}
	return nil
}

// Batch runs fn inside one transaction. Each statement issued through tx is
// wrapped in its own savepoint so a failed statement is rolled back alone
// and the transaction stays usable for the remaining records.
func (s *PostgresStore) Batch(ctx context.Context, fn func(tx catalog.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresStore{db: tx, log: s.log, inTx: true})
	})
}

func (s *PostgresStore) guard(ctx context.Context, op func(db *gorm.DB) error) error {
	db := s.db.WithContext(ctx)
	if !s.inTx {
		return op(db)
	}

	s.sp++
	name := fmt.Sprintf("rec_%d", s.sp)
	if err := db.SavePoint(name).Error; err != nil {
		return err
	}
	if err := op(db); err != nil {
		if rbErr := db.RollbackTo(name).Error; rbErr != nil {
			s.log.Warn("rollback to savepoint failed", zap.String("savepoint", name), zap.Error(rbErr))
		}
		return err
	}
	return nil
}
