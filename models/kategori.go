package models

import "time"

// Kategori is shared by every user; (nama, tipe) is unique.
type Kategori struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Nama      string    `gorm:"size:100;not null;uniqueIndex:idx_kategori_nama_tipe" json:"nama"`
	Tipe      Tipe      `gorm:"size:16;not null;uniqueIndex:idx_kategori_nama_tipe" json:"tipe"`
}

func (Kategori) TableName() string { return "kategori" }
