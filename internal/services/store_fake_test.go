package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/models"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory db.Store. ExecTx snapshots state and restores it
// when fn fails, which mirrors a rolled back database transaction.
type fakeStore struct {
	mu    sync.Mutex
	state fakeState

	// failOn makes the named method return failErr once
	failOn  string
	failErr error

	writes int
}

type fakeState struct {
	subjects     map[int64]models.Subject
	banks        map[int64]models.Bank
	categories   map[int64]models.Category
	registers    map[int64]models.RegTransaction
	transactions map[int64]fakeTxn
	users        map[int64]models.User
	nextID       int64
}

// fakeTxn keeps references by id, like the real schema
type fakeTxn struct {
	ID          int64
	UserID      int64
	Status      models.TransactionStatus
	DateTime    time.Time
	Comment     string
	CategoryID  int64
	RegID       int64
	SenderID    int64
	RecipientID int64
	SBankID     int64
	RBankID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: fakeState{
		subjects:     map[int64]models.Subject{},
		banks:        map[int64]models.Bank{},
		categories:   map[int64]models.Category{},
		registers:    map[int64]models.RegTransaction{},
		transactions: map[int64]fakeTxn{},
		users:        map[int64]models.User{},
	}}
}

func (s fakeState) clone() fakeState {
	c := fakeState{
		subjects:     make(map[int64]models.Subject, len(s.subjects)),
		banks:        make(map[int64]models.Bank, len(s.banks)),
		categories:   make(map[int64]models.Category, len(s.categories)),
		registers:    make(map[int64]models.RegTransaction, len(s.registers)),
		transactions: make(map[int64]fakeTxn, len(s.transactions)),
		users:        make(map[int64]models.User, len(s.users)),
		nextID:       s.nextID,
	}
	for k, v := range s.subjects {
		c.subjects[k] = v
	}
	for k, v := range s.banks {
		c.banks[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.registers {
		c.registers[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

func (f *fakeStore) ExecTx(ctx context.Context, fn func(db.Querier) error) error {
	f.mu.Lock()
	snapshot := f.state.clone()
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.state = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) fail(method string) error {
	if f.failOn == method {
		f.failOn = ""
		return f.failErr
	}
	return nil
}

func (f *fakeStore) id() int64 {
	f.state.nextID++
	return f.state.nextID
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

// subjects

func (f *fakeStore) FindSubjectByTaxID(ctx context.Context, taxID string) (*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.state.subjects {
		if s.TaxID == taxID {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.state.subjects[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateSubject(ctx context.Context, s *models.Subject) error {
	if err := f.fail("CreateSubject"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.state.subjects {
		if existing.TaxID == s.TaxID {
			return uniqueViolation()
		}
	}
	s.ID = f.id()
	f.state.subjects[s.ID] = *s
	f.writes++
	return nil
}

func (f *fakeStore) UpdateSubject(ctx context.Context, s *models.Subject) error {
	if err := f.fail("UpdateSubject"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.subjects[s.ID] = *s
	f.writes++
	return nil
}

// banks

func (f *fakeStore) FindBankByAccount(ctx context.Context, account string) (*models.Bank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.state.banks {
		if b.AccountNumber == account {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateBank(ctx context.Context, b *models.Bank) error {
	if err := f.fail("CreateBank"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.state.banks {
		if existing.AccountNumber == b.AccountNumber {
			return uniqueViolation()
		}
	}
	b.ID = f.id()
	f.state.banks[b.ID] = *b
	f.writes++
	return nil
}

func (f *fakeStore) UpdateBank(ctx context.Context, b *models.Bank) error {
	if err := f.fail("UpdateBank"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.banks[b.ID] = *b
	f.writes++
	return nil
}

// categories

func (f *fakeStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.state.categories[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.state.categories {
		if strings.EqualFold(c.Name, name) {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	return f.listCategories(func(models.Category) bool { return true }), nil
}

func (f *fakeStore) ListCategoriesByType(ctx context.Context, typ models.TransactionType) ([]models.Category, error) {
	return f.listCategories(func(c models.Category) bool { return c.Type == typ }), nil
}

func (f *fakeStore) listCategories(keep func(models.Category) bool) []models.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []models.Category{}
	for _, c := range f.state.categories {
		if keep(c) {
			items = append(items, c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (f *fakeStore) CreateCategory(ctx context.Context, c *models.Category) error {
	if err := f.fail("CreateCategory"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.state.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return uniqueViolation()
		}
	}
	c.ID = f.id()
	f.state.categories[c.ID] = *c
	f.writes++
	return nil
}

func (f *fakeStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	if err := f.fail("UpdateCategory"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.categories[c.ID] = *c
	f.writes++
	return nil
}

func (f *fakeStore) DeleteCategory(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.state.categories, id)
	f.writes++
	return nil
}

func (f *fakeStore) CountCategoryUsage(ctx context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, t := range f.state.transactions {
		if t.CategoryID == id {
			n++
		}
	}
	return n, nil
}

// registers

func (f *fakeStore) CreateRegister(ctx context.Context, r *models.RegTransaction) error {
	if err := f.fail("CreateRegister"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.id()
	f.state.registers[r.ID] = *r
	f.writes++
	return nil
}

func (f *fakeStore) UpdateRegister(ctx context.Context, r *models.RegTransaction) error {
	if err := f.fail("UpdateRegister"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.registers[r.ID] = *r
	f.writes++
	return nil
}

// transactions

func (f *fakeStore) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.state.transactions[id]
	if !ok {
		return nil, nil
	}
	return f.hydrate(row), nil
}

func (f *fakeStore) hydrate(row fakeTxn) *models.Transaction {
	t := &models.Transaction{
		ID:       row.ID,
		UserID:   row.UserID,
		Status:   row.Status,
		DateTime: row.DateTime,
		Comment:  row.Comment,
	}
	if reg, ok := f.state.registers[row.RegID]; ok {
		t.Register = &reg
	}
	if c, ok := f.state.categories[row.CategoryID]; ok {
		t.Category = &c
	}
	if s, ok := f.state.subjects[row.SenderID]; ok {
		t.Sender = &s
	}
	if s, ok := f.state.subjects[row.RecipientID]; ok {
		t.Recipient = &s
	}
	if b, ok := f.state.banks[row.SBankID]; ok {
		t.SenderBank = &b
	}
	if b, ok := f.state.banks[row.RBankID]; ok {
		t.RecipientBank = &b
	}
	return t
}

func (f *fakeStore) matches(t *models.Transaction, p db.ListTransactionsParams) bool {
	if t.UserID != p.UserID {
		return false
	}
	if p.Status != "" && t.Status != p.Status {
		return false
	}
	if p.Type != "" && (t.Register == nil || t.Register.Type != p.Type) {
		return false
	}
	if p.CategoryID != 0 && (t.Category == nil || t.Category.ID != p.CategoryID) {
		return false
	}
	if p.RecipientTaxID != "" && (t.Recipient == nil || t.Recipient.TaxID != p.RecipientTaxID) {
		return false
	}
	if p.SenderBank != "" && (t.SenderBank == nil || !strings.EqualFold(t.SenderBank.Name, p.SenderBank)) {
		return false
	}
	if p.RecipientBank != "" && (t.RecipientBank == nil || !strings.EqualFold(t.RecipientBank.Name, p.RecipientBank)) {
		return false
	}
	if !p.From.IsZero() && t.DateTime.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && t.DateTime.After(p.To) {
		return false
	}
	if p.MinAmount != nil && t.Register.Amount.LessThan(*p.MinAmount) {
		return false
	}
	if p.MaxAmount != nil && t.Register.Amount.GreaterThan(*p.MaxAmount) {
		return false
	}
	return true
}

func (f *fakeStore) ListTransactions(ctx context.Context, p db.ListTransactionsParams) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListTransactions"); err != nil {
		return nil, err
	}
	items := []models.Transaction{}
	for _, row := range f.state.transactions {
		t := f.hydrate(row)
		if f.matches(t, p) {
			items = append(items, *t)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	if p.Limit > 0 {
		start := int(p.Offset)
		if start > len(items) {
			start = len(items)
		}
		end := start + int(p.Limit)
		if end > len(items) {
			end = len(items)
		}
		items = items[start:end]
	}
	return items, nil
}

func (f *fakeStore) CountTransactions(ctx context.Context, p db.ListTransactionsParams) (int64, error) {
	p.Limit = 0
	items, err := f.ListTransactions(ctx, p)
	return int64(len(items)), err
}

func idOf[T any](v *T, id func(*T) int64) int64 {
	if v == nil {
		return 0
	}
	return id(v)
}

func (f *fakeStore) toRow(t *models.Transaction) fakeTxn {
	row := fakeTxn{
		ID:          t.ID,
		UserID:      t.UserID,
		Status:      t.Status,
		DateTime:    t.DateTime,
		Comment:     t.Comment,
		CategoryID:  idOf(t.Category, func(c *models.Category) int64 { return c.ID }),
		SenderID:    idOf(t.Sender, func(s *models.Subject) int64 { return s.ID }),
		RecipientID: idOf(t.Recipient, func(s *models.Subject) int64 { return s.ID }),
		SBankID:     idOf(t.SenderBank, func(b *models.Bank) int64 { return b.ID }),
		RBankID:     idOf(t.RecipientBank, func(b *models.Bank) int64 { return b.ID }),
	}
	if t.Register != nil {
		row.RegID = t.Register.ID
	}
	return row
}

func (f *fakeStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := f.fail("CreateTransaction"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.id()
	f.state.transactions[t.ID] = f.toRow(t)
	f.writes++
	return nil
}

func (f *fakeStore) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := f.fail("UpdateTransaction"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.state.transactions[t.ID]
	row := f.toRow(t)
	row.UserID = existing.UserID
	row.DateTime = existing.DateTime
	row.RegID = existing.RegID
	f.state.transactions[t.ID] = row
	f.writes++
	return nil
}

func (f *fakeStore) UpdateTransactionStatus(ctx context.Context, id int64, status models.TransactionStatus) error {
	if err := f.fail("UpdateTransactionStatus"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.state.transactions[id]
	row.Status = status
	f.state.transactions[id] = row
	f.writes++
	return nil
}

// statistics

func (f *fakeStore) activeTransactions(userID int64) []*models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*models.Transaction
	for _, row := range f.state.transactions {
		if row.UserID == userID && row.Status != models.StatusPaymentDeleted {
			items = append(items, f.hydrate(row))
		}
	}
	return items
}

func (f *fakeStore) GetTotals(ctx context.Context, userID int64) (db.GetTotalsRow, error) {
	if err := f.fail("GetTotals"); err != nil {
		return db.GetTotalsRow{}, err
	}
	row := db.GetTotalsRow{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range f.activeTransactions(userID) {
		row.Count++
		if t.Register.Type == models.TypeDebit {
			row.Income = row.Income.Add(t.Register.Amount)
		} else {
			row.Expense = row.Expense.Add(t.Register.Amount)
		}
	}
	return row, nil
}

func (f *fakeStore) GetCategoryTotals(ctx context.Context, userID int64) ([]db.GetCategoryTotalsRow, error) {
	sums := map[string]*db.GetCategoryTotalsRow{}
	for _, t := range f.activeTransactions(userID) {
		if t.Category == nil {
			continue
		}
		row, ok := sums[t.Category.Name]
		if !ok {
			row = &db.GetCategoryTotalsRow{Name: t.Category.Name, Type: t.Category.Type, Sum: decimal.Zero}
			sums[t.Category.Name] = row
		}
		row.Sum = row.Sum.Add(t.Register.Amount)
	}
	items := []db.GetCategoryTotalsRow{}
	for _, row := range sums {
		items = append(items, *row)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (f *fakeStore) GetDailyTotals(ctx context.Context, userID int64, from, to time.Time) ([]db.GetDailyTotalsRow, error) {
	days := map[time.Time]*db.GetDailyTotalsRow{}
	for _, t := range f.activeTransactions(userID) {
		if t.DateTime.Before(from) || !t.DateTime.Before(to) {
			continue
		}
		y, m, d := t.DateTime.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		row, ok := days[day]
		if !ok {
			row = &db.GetDailyTotalsRow{Day: day, Income: decimal.Zero, Expense: decimal.Zero}
			days[day] = row
		}
		row.Count++
		if t.Register.Type == models.TypeDebit {
			row.Income = row.Income.Add(t.Register.Amount)
		} else {
			row.Expense = row.Expense.Add(t.Register.Amount)
		}
	}
	items := []db.GetDailyTotalsRow{}
	for _, row := range days {
		items = append(items, *row)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Day.Before(items[j].Day) })
	return items, nil
}

// users

func (f *fakeStore) CreateUser(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.state.users {
		if existing.Username == u.Username {
			return uniqueViolation()
		}
	}
	u.ID = f.id()
	u.CreatedAt = time.Now()
	f.state.users[u.ID] = *u
	return nil
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.state.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.state.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

var _ db.Store = (*fakeStore)(nil)
