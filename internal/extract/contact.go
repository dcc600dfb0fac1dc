package extract

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"libfaq/crawler/internal/config"
	"libfaq/crawler/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// Contact reads every contact block in page. The first item of a block names
// the department; the following items are label/value pairs. A single
// block is returned unwrapped; repeated department names get a " (n)" suffix.
func Contact(page *goquery.Selection, cfg config.ContactConfig) *domain.Map {
	departments := domain.NewMap()
	if cfg.BlockSelector == "" {
		return departments
	}

	var parsed int
	var last *domain.Map

	page.Find(cfg.BlockSelector).Each(func(_ int, block *goquery.Selection) {
		items := block.Find(cfg.ItemSelector)
		if items.Length() == 0 {
			return
		}

		info := domain.NewMap()
		var department string
		items.Each(func(i int, item *goquery.Selection) {
			label, rest := SplitLabel(item, cfg.LabelSelector)
			if i == 0 {
				department = label
				if department == "" {
					department = rest
				}
				if rest == "" {
					rest = department
				}
				info.Set(cfg.DepartmentKey, domain.Text(rest))
				return
			}

			if cfg.StripTelPrefix {
				rest = stripPrefix(rest, cfg.TelPrefix)
			}
			if label == "" && rest == "" {
				return
			}
			if label == "" {
				label = fmt.Sprintf("_misc_%d", info.Len()+1)
			}
			info.Set(label, domain.Text(rest))
		})

		parsed++
		if department == "" {
			department = fmt.Sprintf("_misc_%d", parsed)
		}
		departments.Set(uniqueKey(departments, department), info)
		last = info
	})

	if parsed == 1 {
		return last
	}
	return departments
}

// uniqueKey suffixes a repeated department name with its occurrence number.
func uniqueKey(m *domain.Map, key string) string {
	if _, ok := m.Get(key); !ok {
		return key
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", key, n)
		if _, ok := m.Get(candidate); !ok {
			return candidate
		}
	}
}

// stripPrefix removes a leading label such as "Tel", "Tel." or "TEL :". The
// prefix must end at a separator or a digit, so "Telegram" is left alone.
func stripPrefix(value, prefix string) string {
	if prefix == "" || len(value) < len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return value
	}
	rest := value[len(prefix):]
	if rest != "" {
		r, _ := utf8.DecodeRuneInString(rest)
		if r != '.' && r != ':' && !unicode.IsSpace(r) && !unicode.IsDigit(r) {
			return value
		}
	}
	return Normalize(strings.TrimLeft(rest, ".: "))
}
