package catalog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/expensa/internal/encoding"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

// PriceListRow is one line of an uploaded price list.
type PriceListRow struct {
	Category string
	Item     string
	Price    decimal.Decimal
}

var (
	categoryHeaders = []string{"category", "category_name", "categoria"}
	itemHeaders     = []string{"item", "item_name", "name", "product"}
	priceHeaders    = []string{"price", "item_price", "unit_price", "preço"}
)

// ParsePriceList reads a CSV price list in any common encoding. Rows above the
// header line are ignored; both comma and semicolon separators are accepted.
// Any malformed data row rejects the whole file.
func ParsePriceList(r io.Reader) ([]PriceListRow, error) {
	utf8r, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	comma, err := sniffSeparator(br)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ledger.ValidationError{Fields: map[string]string{"file": "unreadable csv: " + err.Error()}}
	}

	idxCat, idxItem, idxPrice := -1, -1, -1
	header := -1

	for i, rec := range records {
		idxCat, idxItem, idxPrice = columnIndex(rec, categoryHeaders), columnIndex(rec, itemHeaders), columnIndex(rec, priceHeaders)
		if idxCat >= 0 && idxItem >= 0 && idxPrice >= 0 {
			header = i
			break
		}
	}

	if header < 0 {
		return nil, &ledger.ValidationError{Fields: map[string]string{"file": "missing category, item and price header"}}
	}

	var (
		rows []PriceListRow
		v    ledger.ValidationError
	)

	need := max(idxCat, idxItem, idxPrice)

	for i, rec := range records[header+1:] {
		line := header + i + 2

		if blank(rec) {
			continue
		}

		key := fmt.Sprintf("row %d", line)

		if len(rec) <= need {
			v.Add(key, "missing columns")
			continue
		}

		cat := strings.TrimSpace(rec[idxCat])
		item := strings.TrimSpace(rec[idxItem])

		if cat == "" || item == "" {
			v.Add(key, "category and item are required")
			continue
		}

		price, err := parsePrice(rec[idxPrice])
		if err != nil {
			v.Add(key, "invalid price "+strings.TrimSpace(rec[idxPrice]))
			continue
		}

		if price.IsNegative() {
			v.Add(key, "price must not be negative")
			continue
		}

		rows = append(rows, PriceListRow{Category: cat, Item: item, Price: price})
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	return rows, nil
}

func sniffSeparator(br *bufio.Reader) (rune, error) {
	head, err := br.Peek(1024)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading price list: %w", err)
	}

	if strings.Count(string(head), ";") > strings.Count(string(head), ",") {
		return ';', nil
	}

	return ',', nil
}

func columnIndex(rec []string, names []string) int {
	for i, col := range rec {
		col = strings.ToLower(strings.TrimSpace(col))
		for _, n := range names {
			if col == n {
				return i
			}
		}
	}

	return -1
}

func blank(rec []string) bool {
	for _, col := range rec {
		if strings.TrimSpace(col) != "" {
			return false
		}
	}

	return true
}

// parsePrice accepts "1234.50", "1,234.50" and the European "1.234,50".
func parsePrice(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "₹")
	clean = strings.TrimSpace(clean)

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")

	switch {
	case lastComma > lastDot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	default:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	return decimal.NewFromString(clean)
}
