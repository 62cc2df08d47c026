// Package adapters はportfolioフィーチャーのGORMリポジトリ実装を提供します。
package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	"stock_portfolio/internal/feature/portfolio/domain/entity"
)

// StockModel は stocks テーブルのGORMモデルです。symbol は一意です。
type StockModel struct {
	ID        uint                `gorm:"primaryKey"`
	Symbol    string              `gorm:"size:10;not null;uniqueIndex"`
	Name      string              `gorm:"size:100;not null;default:''"`
	Market    string              `gorm:"size:50;not null;default:''"`
	Price     decimal.NullDecimal `gorm:"type:decimal(20,4)"`
	MarketCap *string             `gorm:"column:market_cap;size:50"`
	PERatio   decimal.NullDecimal `gorm:"column:pe_ratio;type:decimal(20,4)"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM.
func (StockModel) TableName() string {
	return "stocks"
}

func (m StockModel) toEntity() entity.Stock {
	return entity.Stock{
		ID:        m.ID,
		Symbol:    m.Symbol,
		Name:      m.Name,
		Market:    m.Market,
		Price:     m.Price,
		MarketCap: m.MarketCap,
		PERatio:   m.PERatio,
	}
}

func stockModelFromEntity(s entity.Stock) StockModel {
	return StockModel{
		Symbol:    s.Symbol,
		Name:      truncate(s.Name, 100),
		Market:    truncate(s.Market, 50),
		Price:     s.Price,
		MarketCap: s.MarketCap,
		PERatio:   s.PERatio,
	}
}

// PortfolioModel は portfolios テーブルのGORMモデルです。
// user_id の一意インデックスで1ユーザー1ポートフォリオを保証します。
type PortfolioModel struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM.
func (PortfolioModel) TableName() string {
	return "portfolios"
}

// PortfolioStockModel はポートフォリオと銘柄の所属関係です。
// 複合主キーにより同じ銘柄は一度しか所属できません。
type PortfolioStockModel struct {
	PortfolioID uint `gorm:"primaryKey;autoIncrement:false"`
	StockID     uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM.
func (PortfolioStockModel) TableName() string {
	return "portfolio_stocks"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
