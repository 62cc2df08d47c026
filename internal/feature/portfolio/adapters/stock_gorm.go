package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_portfolio/internal/feature/portfolio/domain/entity"
	"stock_portfolio/internal/feature/portfolio/usecase"
)

// stockRepository はStockRepositoryのGORM実装です。
type stockRepository struct {
	db *gorm.DB
}

var _ usecase.StockRepository = (*stockRepository)(nil)

// NewStockRepository は指定されたDB接続でstockRepositoryを生成します。
func NewStockRepository(db *gorm.DB) *stockRepository {
	return &stockRepository{db: db}
}

// GetOrCreateStock は INSERT ... ON CONFLICT(symbol) DO NOTHING の後に symbol で読み直します。
// 同時に同じ銘柄を追加しても一意制約エラーにはならず、先に書き込んだ行が返ります。
func (r *stockRepository) GetOrCreateStock(ctx context.Context, s entity.Stock) (entity.Stock, bool, error) {
	m := stockModelFromEntity(s)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "symbol"}}, DoNothing: true}).
		Create(&m)
	if res.Error != nil {
		return entity.Stock{}, false, res.Error
	}

	stored, err := r.FindStockBySymbol(ctx, s.Symbol)
	if err != nil {
		return entity.Stock{}, false, err
	}
	return stored, res.RowsAffected == 1, nil
}

// FindStockBySymbol は symbol に一致する銘柄を返します。
func (r *stockRepository) FindStockBySymbol(ctx context.Context, symbol string) (entity.Stock, error) {
	var m StockModel
	if err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Stock{}, usecase.ErrStockNotFound
		}
		return entity.Stock{}, err
	}
	return m.toEntity(), nil
}

// ListStocks は symbol 順にすべての銘柄を返します。
func (r *stockRepository) ListStocks(ctx context.Context) ([]entity.Stock, error) {
	var models []StockModel
	if err := r.db.WithContext(ctx).Order("symbol ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return toEntities(models), nil
}

func toEntities(models []StockModel) []entity.Stock {
	stocks := make([]entity.Stock, len(models))
	for i, m := range models {
		stocks[i] = m.toEntity()
	}
	return stocks
}
