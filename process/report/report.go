// Package report prints a month-bounded income/expense report for one user.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cashmate/models"
	"cashmate/pkg/pencatatan"

	"gorm.io/gorm"
)

// Run writes the report of email for month (YYYY-MM) to w and, when list is
// set, every matching record.
func Run(ctx context.Context, db *gorm.DB, log *slog.Logger, w io.Writer, email, month string, list bool) error {
	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %s not found", email)
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	records := pencatatan.NewStore(db, log)
	sum, err := records.Summarize(ctx, &user, month)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Report for user=%s month=%s (UTC):\n", user.Email, sum.Bulan)
	fmt.Fprintf(w, "  records=%d pemasukan=%d pengeluaran=%d saldo=%d\n",
		sum.Jumlah, sum.Pemasukan, sum.Pengeluaran, sum.Saldo)

	if !list {
		return nil
	}
	rows, err := records.List(ctx, &user, pencatatan.Filter{Bulan: sum.Bulan, WithKategori: true})
	if err != nil {
		return err
	}
	for _, r := range rows {
		kat := ""
		if r.Kategori != nil {
			kat = r.Kategori.Nama
		}
		catatan := ""
		if r.Catatan != nil {
			catatan = *r.Catatan
		}
		fmt.Fprintf(w, "%d|%s|%d|%s|%s|%s\n", r.ID, r.Tipe, r.Jumlah, kat, catatan, r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
