package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"devbills/internal/auth"
	"devbills/internal/core"
	"devbills/internal/finance"
)

// Store is an in-process finance backend for local development and tests.
// Transactions are partitioned by the user found in the request context.
type Store struct {
	mu    sync.Mutex
	cats  []core.Category
	items map[string][]core.Transaction
	seq   int
	now   func() time.Time
}

var _ finance.Backend = (*Store)(nil)

func New(cats []core.Category) *Store {
	return &Store{
		cats:  dedupeCategories(cats),
		items: make(map[string][]core.Transaction),
		now:   time.Now,
	}
}

// DefaultCategories is the seed used when no seed file exists.
func DefaultCategories() []core.Category {
	return []core.Category{
		{ID: "alimentacao", Name: "Alimentação", Color: "#FF6B6B", Type: core.Expense},
		{ID: "moradia", Name: "Moradia", Color: "#4ECDC4", Type: core.Expense},
		{ID: "transporte", Name: "Transporte", Color: "#FFD166", Type: core.Expense},
		{ID: "saude", Name: "Saúde", Color: "#06D6A0", Type: core.Expense},
		{ID: "lazer", Name: "Lazer", Color: "#118AB2", Type: core.Expense},
		{ID: "salario", Name: "Salário", Color: "#37E359", Type: core.Income},
		{ID: "freelance", Name: "Freelance", Color: "#8338EC", Type: core.Income},
		{ID: "investimentos", Name: "Investimentos", Color: "#3A86FF", Type: core.Income},
	}
}

// NewFromFiles seeds categories from base/seed_categories.txt. Each line is
// "id|name|color|type"; blank lines and "#" comments are skipped.
func NewFromFiles(base string) *Store {
	cats := readCategories(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = DefaultCategories()
	}
	return New(cats)
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

// ListTransactions returns the user's transactions of the filtered month,
// newest first.
func (s *Store) ListTransactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.items[uid] {
		if filter.Matches(tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) Summary(ctx context.Context, p core.Period) (core.TransactionSummary, error) {
	txs, err := s.ListTransactions(ctx, core.TransactionFilter{Year: p.Year, Month: p.Month})
	if err != nil {
		return core.TransactionSummary{}, err
	}
	return core.Summarize(txs), nil
}

func (s *Store) Monthly(ctx context.Context, p core.Period, count int) ([]core.MonthlyItem, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	txs := append([]core.Transaction(nil), s.items[uid]...)
	s.mu.Unlock()
	return core.MonthlySeries(txs, p, count), nil
}

// CreateTransaction stores the transaction and returns it with a synthetic id.
func (s *Store) CreateTransaction(ctx context.Context, in core.CreateTransactionInput) (core.Transaction, error) {
	uid, err := userID(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.category(in.CategoryID)
	if !ok {
		return core.Transaction{}, fmt.Errorf("category %q: %w", in.CategoryID, finance.ErrNotFound)
	}
	if cat.Type != in.Type {
		return core.Transaction{}, fmt.Errorf("category %q does not accept %s transactions", cat.Name, in.Type)
	}

	s.seq++
	now := s.now().UTC()
	tx := core.Transaction{
		ID:          fmt.Sprintf("mem-%d", s.seq),
		UserID:      uid,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        core.NoonUTC(in.Date),
		CategoryID:  cat.ID,
		Category:    cat,
		Type:        in.Type,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.items[uid] = append(s.items[uid], tx)
	return tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	uid, err := userID(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.items[uid])
	s.items[uid] = core.RemoveTransaction(s.items[uid], id)
	if len(s.items[uid]) == before {
		return fmt.Errorf("transaction %q: %w", id, finance.ErrNotFound)
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) category(id string) (core.Category, bool) {
	for _, c := range s.cats {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

func userID(ctx context.Context) (string, error) {
	u, ok := auth.UserFrom(ctx)
	if !ok || u.UID == "" {
		return "", finance.ErrUnauthorized
	}
	return u.UID, nil
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 4 {
			continue
		}
		typ, ok := core.ParseTransactionType(parts[3])
		if !ok {
			continue
		}
		out = append(out, core.Category{
			ID:    strings.TrimSpace(parts[0]),
			Name:  strings.TrimSpace(parts[1]),
			Color: strings.TrimSpace(parts[2]),
			Type:  typ,
		})
	}
	return out
}

func dedupeCategories(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		if c.ID == "" {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
