package users

// AccountRepo stores the development backend's accounts
type AccountRepo interface {
	Upsert(account *Account) error
	Delete(email string) error
	GetByEmail(email string) (*Account, error)
	GetByID(ID string) (*Account, error)
	List(offset, limit int) ([]*Account, error)
	SetBlocked(email string, blocked bool) error
}
