package google

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"budget/internal/core"
)

// Column order used when a tab has no header row.
var defaultColumns = []string{"date", "type", "amount", "category", "description", "currency", "attachment"}

var headerAliases = map[string]string{
	"date":        "date",
	"type":        "type",
	"kind":        "type",
	"amount":      "amount",
	"category":    "category",
	"description": "description",
	"note":        "description",
	"currency":    "currency",
	"attachment":  "attachment",
	"receipt":     "attachment",
}

// parseRows turns a values matrix into raw transactions. Cells are kept as
// text; a row is skipped only when every cell is blank. Refs point at the
// source row so a bad record can be found in the sheet.
func parseRows(sheet string, values [][]interface{}) []core.RawTransaction {
	out := []core.RawTransaction{}
	if len(values) == 0 {
		return out
	}

	cols := map[string]int{}
	start := 0
	if header := toStrings(values[0]); isHeader(header) {
		for i, h := range header {
			if name, ok := headerAliases[strings.ToLower(h)]; ok {
				if _, dup := cols[name]; !dup {
					cols[name] = i
				}
			}
		}
		start = 1
	} else {
		for i, name := range defaultColumns {
			cols[name] = i
		}
	}

	get := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok {
			return ""
		}
		return safeGet(row, i)
	}

	for i := start; i < len(values); i++ {
		row := toStrings(values[i])
		if blank(row) {
			continue
		}
		out = append(out, core.RawTransaction{
			Ref:            fmt.Sprintf("%s!A%d", sheet, i+1),
			Date:           get(row, "date"),
			Kind:           get(row, "type"),
			Amount:         get(row, "amount"),
			Category:       get(row, "category"),
			Note:           get(row, "description"),
			Currency:       get(row, "currency"),
			AttachmentText: get(row, "attachment"),
		})
	}
	return out
}

func isHeader(row []string) bool {
	return indexOf(row, "Date") != -1 && (indexOf(row, "Amount") != -1)
}

func ledgersFromTitles(titles []string, prefix string) []core.LedgerID {
	out := []core.LedgerID{}
	for _, t := range titles {
		if !strings.HasPrefix(t, prefix) {
			continue
		}
		id := core.LedgerID(strings.TrimPrefix(t, prefix))
		if id.Validate() != nil {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sheetRange quotes the tab name so titles with spaces resolve.
func sheetRange(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
