package extract

import (
	"libfaq/crawler/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// Table reads the first table matching selector inside region.
//
// A table with a header row yields Rows, one map per body row whose cell
// count matches the header. A table without a header is read as key/value
// rows: the th (or first of two td cells) is the key and the value cell's
// nested li/span items, or its own text, are the values. Nil means no table
// or nothing readable in it.
func Table(region *goquery.Selection, selector string) domain.Value {
	table := region.Find(selector).First()
	if table.Length() == 0 {
		return nil
	}

	headers, body := tableHeaders(table)
	if len(headers) > 0 {
		rows := domain.Rows{}
		body.Each(func(_ int, tr *goquery.Selection) {
			cells := tr.ChildrenFiltered("td")
			if cells.Length() != len(headers) {
				return
			}
			row := domain.NewMap()
			cells.Each(func(i int, td *goquery.Selection) {
				row.Set(headers[i], domain.Text(Text(td)))
			})
			rows = append(rows, row)
		})
		if len(rows) == 0 {
			return nil
		}
		return rows
	}

	data := domain.NewMap()
	body.Each(func(_ int, tr *goquery.Selection) {
		keyCell, valueCell := keyValueCells(tr)
		if keyCell == nil {
			return
		}
		key := Text(keyCell)
		if key == "" {
			return
		}
		data.Set(key, cellValues(valueCell))
	})
	if data.Len() == 0 {
		return nil
	}
	return data
}

// tableHeaders returns the header texts and the rows that carry data.
func tableHeaders(table *goquery.Selection) ([]string, *goquery.Selection) {
	if thead := table.Find("thead").First(); thead.Length() > 0 {
		return cellTexts(thead.Find("th")), table.Find("tbody tr")
	}

	rows := table.Find("tr")
	first := rows.First()
	if first.ChildrenFiltered("th").Length() > 0 && first.ChildrenFiltered("td").Length() == 0 {
		return cellTexts(first.ChildrenFiltered("th")), rows.Slice(1, rows.Length())
	}
	return nil, rows
}

// cellTexts keeps empty cells so headers stay aligned with their columns.
func cellTexts(cells *goquery.Selection) []string {
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		out = append(out, Text(cell))
	})
	return out
}

func keyValueCells(tr *goquery.Selection) (*goquery.Selection, *goquery.Selection) {
	th := tr.ChildrenFiltered("th").First()
	tds := tr.ChildrenFiltered("td")
	if th.Length() > 0 && tds.Length() > 0 {
		return th, tds.First()
	}
	if th.Length() == 0 && tds.Length() == 2 {
		return tds.Eq(0), tds.Eq(1)
	}
	return nil, nil
}

func cellValues(cell *goquery.Selection) domain.Value {
	items := texts(cell.Find("li"))
	if len(items) == 0 {
		items = texts(cell.Find("span"))
	}
	if len(items) == 0 {
		if t := Text(cell); t != "" {
			items = []string{t}
		}
	}
	return domain.List(items)
}
