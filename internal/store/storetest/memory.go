// Package storetest provides an in-memory store.Store for service tests.
package storetest

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/store"
)

type tables struct {
	seq          int64
	users        map[int64]dbgen.User
	categories   map[int64]dbgen.Category
	products     map[int64]dbgen.Product
	cartItems    map[int64]dbgen.CartItem
	transactions map[int64]dbgen.Transaction
	events       []dbgen.DomainEvent
}

func newTables() *tables {
	return &tables{
		users:        map[int64]dbgen.User{},
		categories:   map[int64]dbgen.Category{},
		products:     map[int64]dbgen.Product{},
		cartItems:    map[int64]dbgen.CartItem{},
		transactions: map[int64]dbgen.Transaction{},
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		seq:          t.seq,
		users:        make(map[int64]dbgen.User, len(t.users)),
		categories:   make(map[int64]dbgen.Category, len(t.categories)),
		products:     make(map[int64]dbgen.Product, len(t.products)),
		cartItems:    make(map[int64]dbgen.CartItem, len(t.cartItems)),
		transactions: make(map[int64]dbgen.Transaction, len(t.transactions)),
		events:       append([]dbgen.DomainEvent(nil), t.events...),
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.categories {
		c.categories[k] = v
	}
	for k, v := range t.products {
		c.products[k] = v
	}
	for k, v := range t.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range t.transactions {
		c.transactions[k] = v
	}
	return c
}

// Memory mimics the SQL semantics of the generated queries closely enough for
// service tests: scoped lookups, the pending-line upsert, the guarded inventory
// decrement, and rollback of ExecTx on error.
type Memory struct {
	mu   sync.Mutex
	txMu sync.Mutex
	db   *tables

	// Now stamps created_at/updated_at. Defaults to time.Now.
	Now func() time.Time
	// FailOn injects an error for the named query.
	FailOn map[string]error
	// Calls counts invocations per query name.
	Calls map[string]int
	// Commits and Rollbacks count ExecTx outcomes.
	Commits   int
	Rollbacks int
}

// New returns an empty in-memory store.
func New() *Memory {
	return &Memory{db: newTables(), FailOn: map[string]error{}, Calls: map[string]int{}}
}

var _ store.Store = (*Memory)(nil)

// ExecTx serialises units of work and restores the previous state when fn fails.
func (m *Memory) ExecTx(ctx context.Context, fn func(q dbgen.Querier) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.db.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.db = snapshot
		m.Rollbacks++
		m.mu.Unlock()
		return err
	}
	m.mu.Lock()
	m.Commits++
	m.mu.Unlock()
	return nil
}

func (m *Memory) enter(name string) error {
	m.mu.Lock()
	if m.Calls == nil {
		m.Calls = map[string]int{}
	}
	m.Calls[name]++
	if err, ok := m.FailOn[name]; ok && err != nil {
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) now() pgtype.Timestamptz {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return pgtype.Timestamptz{Time: now().UTC(), Valid: true}
}

func (m *Memory) nextID() int64 {
	m.db.seq++
	return m.db.seq
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint", ConstraintName: constraint}
}

// CallCount returns how many times the named query ran.
func (m *Memory) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[name]
}

// SeedUser inserts a user row as-is and returns it with an id assigned.
func (m *Memory) SeedUser(u dbgen.User) dbgen.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.nextID()
	}
	if u.CurrencyCode == "" {
		u.CurrencyCode = "USD"
	}
	if u.Roles == nil {
		u.Roles = []string{"cashier"}
	}
	u.CreatedAt, u.UpdatedAt = m.now(), m.now()
	m.db.users[u.ID] = u
	return u
}

// SeedProduct inserts a product row as-is and returns it with an id assigned.
func (m *Memory) SeedProduct(p dbgen.Product) dbgen.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.nextID()
	}
	p.CreatedAt, p.UpdatedAt = m.now(), m.now()
	m.db.products[p.ID] = p
	return p
}

// SeedCategory inserts a category row as-is.
func (m *Memory) SeedCategory(c dbgen.Category) dbgen.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.nextID()
	}
	c.CreatedAt = m.now()
	m.db.categories[c.ID] = c
	return c
}

// SeedTransaction inserts a transaction row as-is, keeping a caller supplied CreatedAt.
func (m *Memory) SeedTransaction(t dbgen.Transaction) dbgen.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.nextID()
	}
	if !t.CreatedAt.Valid {
		t.CreatedAt = m.now()
	}
	t.UpdatedAt = t.CreatedAt
	m.db.transactions[t.ID] = t
	return t
}

// SeedBoundItem inserts a cart line already bound to a transaction.
func (m *Memory) SeedBoundItem(item dbgen.CartItem) dbgen.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == 0 {
		item.ID = m.nextID()
	}
	item.CreatedAt, item.UpdatedAt = m.now(), m.now()
	m.db.cartItems[item.ID] = item
	return item
}

// Product returns the stored product and whether it exists.
func (m *Memory) Product(id int64) (dbgen.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.db.products[id]
	return p, ok
}

// Transaction returns the stored transaction and whether it exists.
func (m *Memory) Transaction(id int64) (dbgen.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.db.transactions[id]
	return t, ok
}

// Transactions returns every stored transaction ordered by id.
func (m *Memory) Transactions() []dbgen.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dbgen.Transaction, 0, len(m.db.transactions))
	for _, t := range m.db.transactions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CartItems returns every stored line, pending or bound, ordered by id.
func (m *Memory) CartItems() []dbgen.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dbgen.CartItem, 0, len(m.db.cartItems))
	for _, c := range m.db.cartItems {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Events returns the persisted domain events.
func (m *Memory) Events() []dbgen.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dbgen.DomainEvent(nil), m.db.events...)
}

func (m *Memory) BindCartItem(_ context.Context, arg dbgen.BindCartItemParams) (int64, error) {
	if err := m.enter("BindCartItem"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	item, ok := m.db.cartItems[arg.ID]
	if !ok || item.UserID != arg.UserID || item.TransactionID.Valid {
		return 0, nil
	}
	item.TransactionID = arg.TransactionID
	item.UpdatedAt = m.now()
	m.db.cartItems[item.ID] = item
	return 1, nil
}

func (m *Memory) ClearCart(_ context.Context, userID int64) (int64, error) {
	if err := m.enter("ClearCart"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	var n int64
	for id, item := range m.db.cartItems {
		if item.UserID == userID && !item.TransactionID.Valid {
			delete(m.db.cartItems, id)
			n++
		}
	}
	return n, nil
}

func matchProduct(p dbgen.Product, userID int64, category, search pgtype.Text) bool {
	if p.UserID != userID {
		return false
	}
	if category.Valid && (!p.Category.Valid || p.Category.String != category.String) {
		return false
	}
	if search.Valid && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search.String)) {
		return false
	}
	return true
}

func (m *Memory) CountProducts(_ context.Context, arg dbgen.CountProductsParams) (int64, error) {
	if err := m.enter("CountProducts"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.db.products {
		if matchProduct(p, arg.UserID, arg.Category, arg.Search) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListProducts(_ context.Context, arg dbgen.ListProductsParams) ([]dbgen.Product, error) {
	if err := m.enter("ListProducts"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	var out []dbgen.Product
	for _, p := range m.db.products {
		if matchProduct(p, arg.UserID, arg.Category, arg.Search) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return page(out, arg.LimitCount, arg.OffsetCount), nil
}

func page[T any](items []T, limit, offset int32) []T {
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit >= 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}

func matchTransaction(t dbgen.Transaction, userID int64, from, to pgtype.Timestamptz, search pgtype.Text, status dbgen.NullTransactionStatus) bool {
	if t.UserID != userID {
		return false
	}
	if from.Valid && t.CreatedAt.Time.Before(from.Time) {
		return false
	}
	if to.Valid && t.CreatedAt.Time.After(to.Time) {
		return false
	}
	if search.Valid {
		needle := strings.ToLower(search.String)
		if !strings.Contains(strconv.FormatInt(t.ID, 10), needle) && !strings.Contains(strings.ToLower(t.PaymentMethod), needle) {
			return false
		}
	}
	if status.Valid && t.Status != status.TransactionStatus {
		return false
	}
	return true
}

func (m *Memory) CountTransactions(_ context.Context, arg dbgen.CountTransactionsParams) (int64, error) {
	if err := m.enter("CountTransactions"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.db.transactions {
		if matchTransaction(t, arg.UserID, arg.FromTime, arg.ToTime, arg.Search, arg.Status) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListTransactions(_ context.Context, arg dbgen.ListTransactionsParams) ([]dbgen.Transaction, error) {
	if err := m.enter("ListTransactions"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	var out []dbgen.Transaction
	for _, t := range m.db.transactions {
		if matchTransaction(t, arg.UserID, arg.FromTime, arg.ToTime, arg.Search, arg.Status) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Time.Equal(out[j].CreatedAt.Time) {
			return out[i].CreatedAt.Time.After(out[j].CreatedAt.Time)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, arg.LimitCount, arg.OffsetCount), nil
}

func (m *Memory) CreateCategory(_ context.Context, arg dbgen.CreateCategoryParams) (dbgen.Category, error) {
	if err := m.enter("CreateCategory"); err != nil {
		return dbgen.Category{}, err
	}
	defer m.mu.Unlock()
	for _, c := range m.db.categories {
		if c.UserID == arg.UserID && strings.EqualFold(c.Name, arg.Name) {
			return dbgen.Category{}, uniqueViolation("categories_owner_name_key")
		}
	}
	c := dbgen.Category{ID: m.nextID(), Name: arg.Name, UserID: arg.UserID, CreatedAt: m.now()}
	m.db.categories[c.ID] = c
	return c, nil
}

func (m *Memory) CreateProduct(_ context.Context, arg dbgen.CreateProductParams) (dbgen.Product, error) {
	if err := m.enter("CreateProduct"); err != nil {
		return dbgen.Product{}, err
	}
	defer m.mu.Unlock()
	p := dbgen.Product{
		ID:        m.nextID(),
		Name:      arg.Name,
		Price:     arg.Price,
		Category:  arg.Category,
		Inventory: arg.Inventory,
		ImageUrl:  arg.ImageUrl,
		UserID:    arg.UserID,
		CreatedAt: m.now(),
		UpdatedAt: m.now(),
	}
	m.db.products[p.ID] = p
	return p, nil
}

func (m *Memory) CreateTransaction(_ context.Context, arg dbgen.CreateTransactionParams) (dbgen.Transaction, error) {
	if err := m.enter("CreateTransaction"); err != nil {
		return dbgen.Transaction{}, err
	}
	defer m.mu.Unlock()
	t := dbgen.Transaction{
		ID:             m.nextID(),
		Subtotal:       arg.Subtotal,
		DiscountAmount: arg.DiscountAmount,
		DiscountKind:   arg.DiscountKind,
		DiscountValue:  arg.DiscountValue,
		TaxRate:        arg.TaxRate,
		Tax:            arg.Tax,
		Total:          arg.Total,
		PaymentMethod:  arg.PaymentMethod,
		AmountTendered: arg.AmountTendered,
		ChangeDue:      arg.ChangeDue,
		Status:         arg.Status,
		Completed:      arg.Completed,
		UserID:         arg.UserID,
		CashierID:      arg.CashierID,
		CreatedAt:      m.now(),
		UpdatedAt:      m.now(),
	}
	m.db.transactions[t.ID] = t
	return t, nil
}

func (m *Memory) CreateUser(_ context.Context, arg dbgen.CreateUserParams) (dbgen.User, error) {
	if err := m.enter("CreateUser"); err != nil {
		return dbgen.User{}, err
	}
	defer m.mu.Unlock()
	for _, u := range m.db.users {
		if u.Email == arg.Email {
			return dbgen.User{}, uniqueViolation("users_email_key")
		}
	}
	u := dbgen.User{
		ID:           m.nextID(),
		Name:         arg.Name,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Roles:        []string{"cashier"},
		CurrencyCode: arg.CurrencyCode,
		TaxRate:      arg.TaxRate,
		CreatedAt:    m.now(),
		UpdatedAt:    m.now(),
	}
	m.db.users[u.ID] = u
	return u, nil
}

func (m *Memory) DecrementProductInventory(_ context.Context, arg dbgen.DecrementProductInventoryParams) (int32, error) {
	if err := m.enter("DecrementProductInventory"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	p, ok := m.db.products[arg.ID]
	if !ok || p.UserID != arg.UserID || p.Inventory < arg.Quantity {
		return 0, pgx.ErrNoRows
	}
	p.Inventory -= arg.Quantity
	p.UpdatedAt = m.now()
	m.db.products[p.ID] = p
	return p.Inventory, nil
}

func (m *Memory) DeleteCategory(_ context.Context, arg dbgen.DeleteCategoryParams) (int64, error) {
	if err := m.enter("DeleteCategory"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	c, ok := m.db.categories[arg.ID]
	if !ok || !c.UserID.Valid || c.UserID.Int64 != arg.OwnerID {
		return 0, nil
	}
	delete(m.db.categories, arg.ID)
	return 1, nil
}

func (m *Memory) DeletePendingCartItem(_ context.Context, arg dbgen.DeletePendingCartItemParams) (int64, error) {
	if err := m.enter("DeletePendingCartItem"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	item, ok := m.db.cartItems[arg.ID]
	if !ok || item.UserID != arg.UserID || item.TransactionID.Valid {
		return 0, nil
	}
	delete(m.db.cartItems, arg.ID)
	return 1, nil
}

func (m *Memory) DeleteProduct(_ context.Context, arg dbgen.DeleteProductParams) (int64, error) {
	if err := m.enter("DeleteProduct"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	p, ok := m.db.products[arg.ID]
	if !ok || p.UserID != arg.UserID {
		return 0, nil
	}
	delete(m.db.products, arg.ID)
	return 1, nil
}

func (m *Memory) GetCategoryForUser(_ context.Context, arg dbgen.GetCategoryForUserParams) (dbgen.Category, error) {
	if err := m.enter("GetCategoryForUser"); err != nil {
		return dbgen.Category{}, err
	}
	defer m.mu.Unlock()
	c, ok := m.db.categories[arg.ID]
	if !ok || (c.UserID.Valid && c.UserID.Int64 != arg.OwnerID) {
		return dbgen.Category{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *Memory) GetPendingCartItemForUpdate(_ context.Context, arg dbgen.GetPendingCartItemForUpdateParams) (dbgen.CartItem, error) {
	if err := m.enter("GetPendingCartItemForUpdate"); err != nil {
		return dbgen.CartItem{}, err
	}
	defer m.mu.Unlock()
	item, ok := m.db.cartItems[arg.ID]
	if !ok || item.UserID != arg.UserID || item.TransactionID.Valid {
		return dbgen.CartItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (m *Memory) GetProductForUser(_ context.Context, arg dbgen.GetProductForUserParams) (dbgen.Product, error) {
	if err := m.enter("GetProductForUser"); err != nil {
		return dbgen.Product{}, err
	}
	defer m.mu.Unlock()
	p, ok := m.db.products[arg.ID]
	if !ok || p.UserID != arg.UserID {
		return dbgen.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *Memory) GetProductInventory(_ context.Context, arg dbgen.GetProductInventoryParams) (int32, error) {
	if err := m.enter("GetProductInventory"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	p, ok := m.db.products[arg.ID]
	if !ok || p.UserID != arg.UserID {
		return 0, pgx.ErrNoRows
	}
	return p.Inventory, nil
}

func (m *Memory) GetTransactionForUpdate(_ context.Context, arg dbgen.GetTransactionForUpdateParams) (dbgen.Transaction, error) {
	if err := m.enter("GetTransactionForUpdate"); err != nil {
		return dbgen.Transaction{}, err
	}
	defer m.mu.Unlock()
	t, ok := m.db.transactions[arg.ID]
	if !ok || t.UserID != arg.UserID {
		return dbgen.Transaction{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *Memory) GetTransactionForUser(_ context.Context, arg dbgen.GetTransactionForUserParams) (dbgen.Transaction, error) {
	if err := m.enter("GetTransactionForUser"); err != nil {
		return dbgen.Transaction{}, err
	}
	defer m.mu.Unlock()
	t, ok := m.db.transactions[arg.ID]
	if !ok || t.UserID != arg.UserID {
		return dbgen.Transaction{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (dbgen.User, error) {
	if err := m.enter("GetUserByEmail"); err != nil {
		return dbgen.User{}, err
	}
	defer m.mu.Unlock()
	for _, u := range m.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func (m *Memory) GetUserByID(_ context.Context, id int64) (dbgen.User, error) {
	if err := m.enter("GetUserByID"); err != nil {
		return dbgen.User{}, err
	}
	defer m.mu.Unlock()
	u, ok := m.db.users[id]
	if !ok {
		return dbgen.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *Memory) IncrementProductInventory(_ context.Context, arg dbgen.IncrementProductInventoryParams) (int32, error) {
	if err := m.enter("IncrementProductInventory"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	p, ok := m.db.products[arg.ID]
	if !ok || p.UserID != arg.UserID {
		return 0, pgx.ErrNoRows
	}
	p.Inventory += arg.Quantity
	p.UpdatedAt = m.now()
	m.db.products[p.ID] = p
	return p.Inventory, nil
}

func (m *Memory) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error) {
	if err := m.enter("InsertDomainEvent"); err != nil {
		return dbgen.DomainEvent{}, err
	}
	defer m.mu.Unlock()
	ev := dbgen.DomainEvent{
		ID:          m.nextID(),
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     append([]byte(nil), arg.Payload...),
		OccurredAt:  m.now(),
	}
	m.db.events = append(m.db.events, ev)
	return ev, nil
}

func (m *Memory) ListCartItems(_ context.Context, userID int64) ([]dbgen.ListCartItemsRow, error) {
	if err := m.enter("ListCartItems"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	var pending []dbgen.CartItem
	for _, item := range m.db.cartItems {
		if item.UserID == userID && !item.TransactionID.Valid {
			pending = append(pending, item)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Time.Equal(pending[j].CreatedAt.Time) {
			return pending[i].CreatedAt.Time.Before(pending[j].CreatedAt.Time)
		}
		return pending[i].ID < pending[j].ID
	})
	out := make([]dbgen.ListCartItemsRow, 0, len(pending))
	for _, item := range pending {
		row := dbgen.ListCartItemsRow{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		}
		if p, ok := m.db.products[item.ProductID]; ok && p.UserID == item.UserID {
			row.ProductName = pgtype.Text{String: p.Name, Valid: true}
			row.ProductImageUrl = p.ImageUrl
			row.ProductPrice = decimal.NullDecimal{Decimal: p.Price, Valid: true}
			row.ProductInventory = pgtype.Int4{Int32: p.Inventory, Valid: true}
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *Memory) ListCategoriesForUser(_ context.Context, ownerID int64) ([]dbgen.Category, error) {
	if err := m.enter("ListCategoriesForUser"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	var out []dbgen.Category
	for _, c := range m.db.categories {
		if !c.UserID.Valid || c.UserID.Int64 == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ListTransactionItems(_ context.Context, transactionID pgtype.Int8) ([]dbgen.ListTransactionItemsRow, error) {
	if err := m.enter("ListTransactionItems"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	var out []dbgen.ListTransactionItemsRow
	for _, item := range m.db.cartItems {
		if !item.TransactionID.Valid || !transactionID.Valid || item.TransactionID.Int64 != transactionID.Int64 {
			continue
		}
		row := dbgen.ListTransactionItemsRow{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
		if p, ok := m.db.products[item.ProductID]; ok {
			row.ProductName = pgtype.Text{String: p.Name, Valid: true}
			row.ProductImageUrl = p.ImageUrl
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) LockCartItems(_ context.Context, userID int64) ([]dbgen.CartItem, error) {
	if err := m.enter("LockCartItems"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	var out []dbgen.CartItem
	for _, item := range m.db.cartItems {
		if item.UserID == userID && !item.TransactionID.Valid {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) MarkTransactionRestocked(_ context.Context, arg dbgen.MarkTransactionRestockedParams) (int64, error) {
	if err := m.enter("MarkTransactionRestocked"); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()
	t, ok := m.db.transactions[arg.ID]
	if !ok || t.UserID != arg.UserID || t.Status != dbgen.TransactionStatusCanceled || t.RestockedAt.Valid {
		return 0, nil
	}
	t.RestockedAt = m.now()
	t.UpdatedAt = m.now()
	m.db.transactions[t.ID] = t
	return 1, nil
}

func inWindow(ts pgtype.Timestamptz, from, to pgtype.Timestamptz) bool {
	if from.Valid && ts.Time.Before(from.Time) {
		return false
	}
	if to.Valid && !ts.Time.Before(to.Time) {
		return false
	}
	return true
}

func (m *Memory) SalesByDay(_ context.Context, arg dbgen.SalesByDayParams) ([]dbgen.SalesByDayRow, error) {
	if err := m.enter("SalesByDay"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	byDay := map[time.Time]*dbgen.SalesByDayRow{}
	for _, t := range m.db.transactions {
		if t.UserID != arg.UserID || t.Status != dbgen.TransactionStatusCompleted || !inWindow(t.CreatedAt, arg.FromTime, arg.ToTime) {
			continue
		}
		ts := t.CreatedAt.Time.UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		row, ok := byDay[day]
		if !ok {
			row = &dbgen.SalesByDayRow{Day: pgtype.Date{Time: day, Valid: true}}
			byDay[day] = row
		}
		row.Transactions++
		row.Gross = row.Gross.Add(t.Subtotal)
		if t.DiscountAmount.Valid {
			row.Discounts = row.Discounts.Add(t.DiscountAmount.Decimal)
		}
		row.Tax = row.Tax.Add(t.Tax)
		row.Revenue = row.Revenue.Add(t.Total)
	}
	out := make([]dbgen.SalesByDayRow, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Time.Before(out[j].Day.Time) })
	return out, nil
}

func (m *Memory) SetCartItemQuantity(_ context.Context, arg dbgen.SetCartItemQuantityParams) (dbgen.CartItem, error) {
	if err := m.enter("SetCartItemQuantity"); err != nil {
		return dbgen.CartItem{}, err
	}
	defer m.mu.Unlock()
	item, ok := m.db.cartItems[arg.ID]
	if !ok || item.UserID != arg.UserID || item.TransactionID.Valid {
		return dbgen.CartItem{}, pgx.ErrNoRows
	}
	item.Quantity = arg.Quantity
	item.UpdatedAt = m.now()
	m.db.cartItems[item.ID] = item
	return item, nil
}

func (m *Memory) TopProducts(_ context.Context, arg dbgen.TopProductsParams) ([]dbgen.TopProductsRow, error) {
	if err := m.enter("TopProducts"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	agg := map[int64]*dbgen.TopProductsRow{}
	for _, item := range m.db.cartItems {
		if !item.TransactionID.Valid {
			continue
		}
		t, ok := m.db.transactions[item.TransactionID.Int64]
		if !ok || t.UserID != arg.UserID || t.Status != dbgen.TransactionStatusCompleted || !inWindow(t.CreatedAt, arg.FromTime, arg.ToTime) {
			continue
		}
		row, ok := agg[item.ProductID]
		if !ok {
			row = &dbgen.TopProductsRow{ProductID: item.ProductID}
			if p, found := m.db.products[item.ProductID]; found {
				row.Name = p.Name
			}
			agg[item.ProductID] = row
		}
		row.Units += int64(item.Quantity)
		row.Revenue = row.Revenue.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	out := make([]dbgen.TopProductsRow, 0, len(agg))
	for _, row := range agg {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Units != out[j].Units {
			return out[i].Units > out[j].Units
		}
		return out[i].Revenue.GreaterThan(out[j].Revenue)
	})
	return page(out, arg.LimitCount, 0), nil
}

func (m *Memory) UpdateProduct(_ context.Context, arg dbgen.UpdateProductParams) (dbgen.Product, error) {
	if err := m.enter("UpdateProduct"); err != nil {
		return dbgen.Product{}, err
	}
	defer m.mu.Unlock()
	p, ok := m.db.products[arg.ID]
	if !ok || p.UserID != arg.UserID {
		return dbgen.Product{}, pgx.ErrNoRows
	}
	p.Name = arg.Name
	p.Price = arg.Price
	p.Category = arg.Category
	p.ImageUrl = arg.ImageUrl
	p.UpdatedAt = m.now()
	m.db.products[p.ID] = p
	return p, nil
}

func (m *Memory) UpdateTransactionStatus(_ context.Context, arg dbgen.UpdateTransactionStatusParams) (dbgen.Transaction, error) {
	if err := m.enter("UpdateTransactionStatus"); err != nil {
		return dbgen.Transaction{}, err
	}
	defer m.mu.Unlock()
	t, ok := m.db.transactions[arg.ID]
	if !ok || t.UserID != arg.UserID {
		return dbgen.Transaction{}, pgx.ErrNoRows
	}
	t.Status = arg.Status
	t.Completed = arg.Completed
	t.UpdatedAt = m.now()
	m.db.transactions[t.ID] = t
	return t, nil
}

func (m *Memory) UpdateUserSettings(_ context.Context, arg dbgen.UpdateUserSettingsParams) (dbgen.User, error) {
	if err := m.enter("UpdateUserSettings"); err != nil {
		return dbgen.User{}, err
	}
	defer m.mu.Unlock()
	u, ok := m.db.users[arg.ID]
	if !ok {
		return dbgen.User{}, pgx.ErrNoRows
	}
	u.CurrencyCode = arg.CurrencyCode
	u.TaxRate = arg.TaxRate
	u.StoreName = arg.StoreName
	u.StoreAddress = arg.StoreAddress
	u.StorePhone = arg.StorePhone
	u.StoreEmail = arg.StoreEmail
	u.ReceiptFooter = arg.ReceiptFooter
	u.ShowLogo = arg.ShowLogo
	u.LogoUrl = arg.LogoUrl
	u.UpdatedAt = m.now()
	m.db.users[u.ID] = u
	return u, nil
}

func (m *Memory) UpsertCartItem(_ context.Context, arg dbgen.UpsertCartItemParams) (dbgen.CartItem, error) {
	if err := m.enter("UpsertCartItem"); err != nil {
		return dbgen.CartItem{}, err
	}
	defer m.mu.Unlock()
	for id, item := range m.db.cartItems {
		if item.UserID == arg.UserID && item.ProductID == arg.ProductID && !item.TransactionID.Valid {
			item.Quantity += arg.Quantity
			item.UpdatedAt = m.now()
			m.db.cartItems[id] = item
			return item, nil
		}
	}
	item := dbgen.CartItem{
		ID:        m.nextID(),
		ProductID: arg.ProductID,
		Quantity:  arg.Quantity,
		UnitPrice: arg.UnitPrice,
		UserID:    arg.UserID,
		CreatedAt: m.now(),
		UpdatedAt: m.now(),
	}
	m.db.cartItems[item.ID] = item
	return item, nil
}
