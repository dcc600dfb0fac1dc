package extract

import (
	"fmt"
	"strings"

	"libfaq/crawler/internal/config"
	"libfaq/crawler/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// Apply runs rules against region in order and returns the section value.
// List producing rules append to one list. A table or key-value result
// replaces that list and ends the section; later rules are not applied.
func Apply(region *goquery.Selection, rules []config.RuleConfig) domain.Value {
	list := domain.List{}
	for i, rule := range rules {
		switch rule.Kind {
		case config.RuleTextBlock:
			list = append(list, TextBlock(region, rule.Selector)...)
		case config.RuleEmphasisList:
			list = append(list, EmphasisList(region, rule.Class)...)
		case config.RulePlainList:
			list = append(list, PlainList(region, rule.Class)...)
		case config.RuleQnA:
			list = append(list, QnA(region, rule.Question, rule.Answer)...)
		case config.RuleTable:
			if v := Table(region, rule.Selector); v != nil {
				logIgnored(rules[i+1:])
				return v
			}
		case config.RuleKeyValue:
			if m := KeyValue(region, rule.Item, rule.Key); m.Len() > 0 {
				logIgnored(rules[i+1:])
				return m
			}
		default:
			log.Errorf("❌ Unhandled rule kind %q", rule.Kind)
		}
	}
	return list
}

func logIgnored(rest []config.RuleConfig) {
	for _, rule := range rest {
		log.Debugf("Rule %s ignored after a replacing rule", rule.Kind)
	}
}

// TextBlock collects every element matching selector, in document order.
func TextBlock(region *goquery.Selection, selector string) []string {
	return texts(region.Find(selector))
}

// EmphasisList collects list items marked with class.
func EmphasisList(region *goquery.Selection, class string) []string {
	return texts(region.Find("li." + class))
}

// PlainList collects the items of every list carrying class.
func PlainList(region *goquery.Selection, class string) []string {
	return texts(region.Find("." + class + " > li"))
}

// QnA pairs questions and answers by position.
func QnA(region *goquery.Selection, questionSelector, answerSelector string) []string {
	questions := region.Find(questionSelector)
	answers := region.Find(answerSelector)

	n := min(questions.Length(), answers.Length())
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		q := Text(questions.Eq(i))
		a := Text(answers.Eq(i))
		if q == "" && a == "" {
			continue
		}
		out = append(out, fmt.Sprintf("Q: %s A: %s", q, a))
	}
	return out
}

// KeyValue maps the key element of each item to the rest of the item's text.
// Items without a key get "_misc_<n>".
func KeyValue(region *goquery.Selection, itemSelector, keySelector string) *domain.Map {
	data := domain.NewMap()
	region.Find(itemSelector).Each(func(_ int, item *goquery.Selection) {
		key, value := SplitLabel(item, keySelector)
		if key == "" && value == "" {
			return
		}
		if key == "" {
			key = fmt.Sprintf("_misc_%d", data.Len()+1)
		}
		data.Set(key, domain.Text(value))
	})
	return data
}

// SplitLabel returns the text of the first labelSelector match inside item
// and the item's text with that label removed.
func SplitLabel(item *goquery.Selection, labelSelector string) (label, rest string) {
	full := Text(item)
	if labelSelector == "" {
		return "", full
	}
	label = Text(item.Find(labelSelector).First())
	if label == "" {
		return "", full
	}
	return label, Normalize(strings.ReplaceAll(full, label, ""))
}
