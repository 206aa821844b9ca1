package pencatatan

import (
	"encoding/json"
	"strings"

	"cashmate/models"
	"cashmate/pkg/apperr"
)

// RawInput is the request body of create and update as sent by clients.
// Numbers are kept as json.Number so non-integer values are reported as
// field errors instead of decode failures.
type RawInput struct {
	Jumlah   *json.Number `json:"jumlah"`
	Tipe     *string      `json:"tipe"`
	Catatan  *string      `json:"catatan"`
	Kategori *json.Number `json:"kategori"`
}

// Input carries only the fields the client supplied.
type Input struct {
	Jumlah     *int64
	Tipe       *models.Tipe
	Catatan    *string
	KategoriID *uint
}

const maxCatatanLength = 255

// Parse converts raw into an Input, rejecting values that are not numbers.
func Parse(raw RawInput) (Input, *apperr.Error) {
	var in Input
	var fields []apperr.FieldError
	if raw.Jumlah != nil {
		n, err := raw.Jumlah.Int64()
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: "jumlah", Message: "Value must be an integer", Type: "numeric"})
		} else {
			in.Jumlah = &n
		}
	}
	if raw.Kategori != nil {
		n, err := raw.Kategori.Int64()
		if err != nil || n <= 0 {
			fields = append(fields, apperr.FieldError{Field: "kategori", Message: "Value must be a category id", Type: "numeric"})
		} else {
			id := uint(n)
			in.KategoriID = &id
		}
	}
	if raw.Tipe != nil {
		t := models.Tipe(*raw.Tipe)
		in.Tipe = &t
	}
	if raw.Catatan != nil {
		c := strings.TrimSpace(*raw.Catatan)
		in.Catatan = &c
	}
	if len(fields) > 0 {
		return Input{}, apperr.Validation("Data tidak valid", fields...)
	}
	return in, nil
}

// validate checks in; create additionally requires jumlah, tipe and kategori.
func (in Input) validate(create bool) *apperr.Error {
	var fields []apperr.FieldError
	required := func(name string) {
		fields = append(fields, apperr.FieldError{Field: name, Message: "This field is required", Type: "required"})
	}
	if in.Jumlah == nil {
		if create {
			required("jumlah")
		}
	} else if *in.Jumlah <= 0 {
		fields = append(fields, apperr.FieldError{Field: "jumlah", Message: "Value must be greater than 0", Type: "gt"})
	}
	if in.Tipe == nil {
		if create {
			required("tipe")
		}
	} else if !in.Tipe.Valid() {
		fields = append(fields, apperr.FieldError{Field: "tipe", Message: "Value must be one of: pemasukan pengeluaran", Type: "oneof"})
	}
	if in.KategoriID == nil && create {
		required("kategori")
	}
	if in.Catatan != nil && len(*in.Catatan) > maxCatatanLength {
		fields = append(fields, apperr.FieldError{Field: "catatan", Message: "Value is too long", Type: "max"})
	}
	if len(fields) > 0 {
		return apperr.Validation("Data tidak valid", fields...)
	}
	return nil
}
