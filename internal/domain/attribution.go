package domain

// Attribution — опциональная привязка события к пользователю или анониму.
// Просмотры append-only, их записи наружу не отдаются, поэтому отдельного
// доменного типа под них нет.
type Attribution struct {
	UserID      *string
	AnonymousID *string
	IPAddr      string
	UserAgent   string
}
