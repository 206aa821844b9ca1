package pencatatan

import (
	"context"
	"fmt"

	"cashmate/models"
	"cashmate/pkg/apperr"
)

// Summary totals a user's records for one month.
type Summary struct {
	Bulan       string `json:"bulan"`
	Pemasukan   int64  `json:"pemasukan"`
	Pengeluaran int64  `json:"pengeluaran"`
	Saldo       int64  `json:"saldo"`
	Jumlah      int64  `json:"jumlahCatatan"`
}

// Summarize returns the totals of bulan ("YYYY-MM", current month when empty).
func (s *Store) Summarize(ctx context.Context, user *models.User, bulan string) (Summary, error) {
	if user == nil {
		return Summary{}, apperr.Unauthenticated()
	}
	if bulan == "" {
		bulan = s.now().Format(monthLayout)
	}
	start, end, verr := monthRange(bulan)
	if verr != nil {
		return Summary{}, verr
	}
	var rows []struct {
		Tipe  models.Tipe
		Total int64
		Count int64
	}
	err := s.owned(ctx, user.ID).Model(&models.Pencatatan{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Select("tipe, COALESCE(SUM(jumlah), 0) AS total, COUNT(*) AS count").
		Group("tipe").
		Scan(&rows).Error
	if err != nil {
		return Summary{}, apperr.Internal(fmt.Errorf("summarize pencatatan: %w", err))
	}
	sum := Summary{Bulan: bulan}
	for _, r := range rows {
		switch r.Tipe {
		case models.Pemasukan:
			sum.Pemasukan += r.Total
		case models.Pengeluaran:
			sum.Pengeluaran += r.Total
		}
		sum.Jumlah += r.Count
	}
	sum.Saldo = sum.Pemasukan - sum.Pengeluaran
	return sum, nil
}
