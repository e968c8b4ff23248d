package core

import "testing"

func TestFilterByDescription(t *testing.T) {
	txs := []Transaction{
		tx("1", "Supermercado Extra", "10", Expense, catFood, march(1)),
		tx("2", "Aluguel", "1000", Expense, catHouse, march(2)),
		tx("3", "supermercado dia", "20", Expense, catFood, march(3)),
	}
	cases := []struct {
		query string
		ids   []string
	}{
		{"", []string{"1", "2", "3"}},
		{"MERCADO", []string{"1", "3"}},
		{"aluguel", []string{"2"}},
		{"mercado ", []string{"1"}},
		{"aluguel ", nil},
		{"xyz", nil},
	}
	for _, tc := range cases {
		got := FilterByDescription(txs, tc.query)
		if len(got) != len(tc.ids) {
			t.Errorf("query %q: got %d results, want %d", tc.query, len(got), len(tc.ids))
			continue
		}
		for i, id := range tc.ids {
			if got[i].ID != id {
				t.Errorf("query %q: result[%d] = %s, want %s", tc.query, i, got[i].ID, id)
			}
		}
	}
}

func TestFilterCategoriesByType(t *testing.T) {
	got := FilterCategoriesByType([]Category{catFood, catSalary, catHouse}, Income)
	if len(got) != 1 || got[0].ID != "salary" {
		t.Errorf("got %+v", got)
	}
}

func TestRemoveTransaction(t *testing.T) {
	txs := []Transaction{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := RemoveTransaction(txs, "b")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("got %+v", got)
	}
}
