package core

import "strings"

// FilterByDescription keeps the transactions whose description contains
// query, ignoring case. An empty query keeps everything. Order is preserved.
func FilterByDescription(txs []Transaction, query string) []Transaction {
	out := make([]Transaction, 0, len(txs))
	if query == "" {
		return append(out, txs...)
	}
	needle := strings.ToUpper(query)
	for _, tx := range txs {
		if strings.Contains(strings.ToUpper(tx.Description), needle) {
			out = append(out, tx)
		}
	}
	return out
}

// FilterCategoriesByType keeps the categories that apply to t.
func FilterCategoriesByType(cats []Category, t TransactionType) []Category {
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// RemoveTransaction drops the transaction with the given id.
func RemoveTransaction(txs []Transaction, id string) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.ID != id {
			out = append(out, tx)
		}
	}
	return out
}
