package models

// All lists every model managed by AutoMigrate, in dependency order.
func All() []any {
	return []any{&User{}, &AccessToken{}, &Kategori{}, &Pencatatan{}, &Article{}}
}
