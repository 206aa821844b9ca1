package models

import "time"

// Tipe is the kind of a financial record or category.
type Tipe string

const (
	Pemasukan   Tipe = "pemasukan"   // income
	Pengeluaran Tipe = "pengeluaran" // expense
)

// Valid reports whether t is exactly one of the two recognised literals.
func (t Tipe) Valid() bool {
	return t == Pemasukan || t == Pengeluaran
}

// Pencatatan is a financial record owned by exactly one user.
type Pencatatan struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Jumlah     int64     `gorm:"not null" json:"jumlah"`
	Tipe       Tipe      `gorm:"size:16;not null" json:"tipe"`
	Catatan    *string   `gorm:"size:255" json:"catatan"`
	UserID     uint      `gorm:"index;not null" json:"userId"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	KategoriID uint      `gorm:"index;not null" json:"kategoriId"`
	Kategori   *Kategori `gorm:"foreignKey:KategoriID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"kategori,omitempty"`
}

func (Pencatatan) TableName() string { return "pencatatan" }
