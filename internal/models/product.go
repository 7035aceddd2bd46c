package models

import (
	"strings"

	"gorm.io/gorm"
)

const MaxProductImages = 4

type Product struct {
	gorm.Model
	Title         string   `json:"title" gorm:"not null"`
	Description   string   `json:"description" gorm:"size:1000;not null"`
	UserID        uint     `json:"userId" gorm:"not null;index"`
	Category      string   `json:"category" gorm:"not null"`
	Condition     string   `json:"condition" gorm:"default:New"`
	FeaturedImage string   `json:"featuredImage" gorm:"not null"`
	ImageList     string   `json:"-" gorm:"column:images"` // comma-separated URLs
	ImageURLs     []string `json:"images" gorm:"-"`
	Price         float64  `json:"price" gorm:"not null"`
	Negotiable    bool     `json:"negotiable" gorm:"default:true"`
}

// Images returns the stored image URLs.
func (p *Product) Images() []string {
	if p.ImageList == "" {
		return nil
	}
	return strings.Split(p.ImageList, ",")
}

// SetImages stores up to MaxProductImages image URLs.
func (p *Product) SetImages(urls []string) {
	if len(urls) > MaxProductImages {
		urls = urls[len(urls)-MaxProductImages:]
	}
	p.ImageList = strings.Join(urls, ",")
}
