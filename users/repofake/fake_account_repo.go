package fakeaccountrepo

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-web-template/users"
)

var _ users.AccountRepo = (*FakeAccountRepo)(nil)

var errNotFound = errors.New("not found")

type FakeAccountRepo struct {
	accounts map[string]*users.Account
	emailIds map[string]string // email to account id
	lock     sync.RWMutex
}

func NewFakeAccountRepo() users.AccountRepo {
	return &FakeAccountRepo{
		accounts: make(map[string]*users.Account),
		emailIds: make(map[string]string),
	}
}

func (ar *FakeAccountRepo) Upsert(account *users.Account) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	account.Email = users.NormaliseEmail(account.Email)
	ar.accounts[account.ID] = account
	ar.emailIds[account.Email] = account.ID
	return nil
}

func (ar *FakeAccountRepo) Delete(email string) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	email = users.NormaliseEmail(email)
	accountID, ok := ar.emailIds[email]
	if !ok {
		return errNotFound
	}
	delete(ar.emailIds, email)
	delete(ar.accounts, accountID)
	return nil
}

func (ar *FakeAccountRepo) GetByEmail(email string) (*users.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	accountID, ok := ar.emailIds[users.NormaliseEmail(email)]
	if !ok {
		return nil, errNotFound
	}
	account, ok := ar.accounts[accountID]
	if !ok {
		return nil, errNotFound
	}
	return account, nil
}

func (ar *FakeAccountRepo) GetByID(ID string) (*users.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	account, ok := ar.accounts[ID]
	if !ok {
		return nil, errNotFound
	}
	return account, nil
}

func (ar *FakeAccountRepo) List(offset, limit int) ([]*users.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	all := make([]*users.Account, 0, len(ar.accounts))
	for _, a := range ar.accounts {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Email < all[j].Email
	})

	if offset >= len(all) {
		return []*users.Account{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (ar *FakeAccountRepo) SetBlocked(email string, blocked bool) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	accountID, ok := ar.emailIds[users.NormaliseEmail(email)]
	if !ok {
		return errNotFound
	}
	ar.accounts[accountID].Blocked = blocked
	return nil
}
