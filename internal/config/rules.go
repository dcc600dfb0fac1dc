package config

import "strconv"

// RuleKind is the closed set of extraction rules a section may use.
type RuleKind string

const (
	RuleTextBlock    RuleKind = "text-block"
	RuleEmphasisList RuleKind = "emphasis-list"
	RulePlainList    RuleKind = "plain-list"
	RuleTable        RuleKind = "table"
	RuleQnA          RuleKind = "qna"
	RuleKeyValue     RuleKind = "key-value"
)

var RuleKinds = []RuleKind{
	RuleTextBlock,
	RuleEmphasisList,
	RulePlainList,
	RuleTable,
	RuleQnA,
	RuleKeyValue,
}

func (k RuleKind) String() string {
	return string(k)
}

func (k RuleKind) Valid() bool {
	for _, known := range RuleKinds {
		if k == known {
			return true
		}
	}
	return false
}

// RuleConfig is one extraction rule. Which fields are read depends on Kind.
type RuleConfig struct {
	Kind     RuleKind `mapstructure:"kind"`
	Selector string   `mapstructure:"selector"` // text-block, table
	Class    string   `mapstructure:"class"`    // emphasis-list, plain-list
	Question string   `mapstructure:"question"` // qna
	Answer   string   `mapstructure:"answer"`   // qna
	Item     string   `mapstructure:"item"`     // key-value
	Key      string   `mapstructure:"key"`      // key-value
}

// withDefaults fills the optional selectors of a rule.
func (r RuleConfig) withDefaults() RuleConfig {
	switch r.Kind {
	case RuleTextBlock:
		if r.Selector == "" {
			r.Selector = "p"
		}
	case RuleTable:
		if r.Selector == "" {
			r.Selector = "table"
		}
	case RuleKeyValue:
		if r.Item == "" {
			r.Item = "li"
		}
		if r.Key == "" {
			r.Key = "span"
		}
	}
	return r
}

func (r RuleConfig) validate(key string) error {
	if !r.Kind.Valid() {
		return &ConfigError{Key: key + ".kind", Reason: "unknown rule kind " + strconv.Quote(string(r.Kind))}
	}
	switch r.Kind {
	case RuleEmphasisList, RulePlainList:
		if r.Class == "" {
			return &ConfigError{Key: key + ".class", Reason: "required for " + r.Kind.String()}
		}
	case RuleQnA:
		if r.Question == "" {
			return &ConfigError{Key: key + ".question", Reason: "required for qna"}
		}
		if r.Answer == "" {
			return &ConfigError{Key: key + ".answer", Reason: "required for qna"}
		}
	}
	return nil
}
