package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_portfolio/internal/feature/portfolio/domain/entity"
	"stock_portfolio/internal/feature/portfolio/usecase"
)

// portfolioRepository はPortfolioRepositoryのGORM実装です。
type portfolioRepository struct {
	db *gorm.DB
}

var _ usecase.PortfolioRepository = (*portfolioRepository)(nil)

// NewPortfolioRepository は指定されたDB接続でportfolioRepositoryを生成します。
func NewPortfolioRepository(db *gorm.DB) *portfolioRepository {
	return &portfolioRepository{db: db}
}

// GetOrCreatePortfolio は user_id の一意制約に対して衝突を無視して挿入し、読み直します。
func (r *portfolioRepository) GetOrCreatePortfolio(ctx context.Context, userID uint) (entity.Portfolio, bool, error) {
	db := r.db.WithContext(ctx)

	m := PortfolioModel{UserID: userID}
	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).Create(&m)
	if res.Error != nil {
		return entity.Portfolio{}, false, res.Error
	}

	var stored PortfolioModel
	if err := db.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return entity.Portfolio{}, false, err
	}
	return entity.Portfolio{ID: stored.ID, UserID: stored.UserID}, res.RowsAffected == 1, nil
}

// FindPortfolio はユーザーのポートフォリオを作成せずに取得します。
func (r *portfolioRepository) FindPortfolio(ctx context.Context, userID uint) (entity.Portfolio, error) {
	var stored PortfolioModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Portfolio{}, usecase.ErrPortfolioNotFound
		}
		return entity.Portfolio{}, err
	}
	return entity.Portfolio{ID: stored.ID, UserID: stored.UserID}, nil
}

// AddStock は所属関係を追加します。既に存在する場合は何もせず false を返します。
func (r *portfolioRepository) AddStock(ctx context.Context, portfolioID, stockID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "portfolio_id"}, {Name: "stock_id"}},
			DoNothing: true,
		}).
		Create(&PortfolioStockModel{PortfolioID: portfolioID, StockID: stockID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListPortfolioStocks はポートフォリオに所属する銘柄を symbol 順に返します。
func (r *portfolioRepository) ListPortfolioStocks(ctx context.Context, portfolioID uint) ([]entity.Stock, error) {
	var models []StockModel
	if err := r.db.WithContext(ctx).
		Model(&StockModel{}).
		Select("stocks.*").
		Joins("JOIN portfolio_stocks ON portfolio_stocks.stock_id = stocks.id").
		Where("portfolio_stocks.portfolio_id = ?", portfolioID).
		Order("stocks.symbol ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toEntities(models), nil
}
