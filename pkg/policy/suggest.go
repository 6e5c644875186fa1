package policy

import (
	"fmt"
	"strings"

	"github.com/agentstation/ghostmerge/pkg/findings"
)

// Origin tells where a suggested value came from.
type Origin string

// Suggestion origins.
const (
	OriginLeft  Origin = "left"
	OriginRight Origin = "right"
	OriginBoth  Origin = "both"
)

// Suggestion is a proposed value with its provenance.
type Suggestion struct {
	Value  any    `json:"value" yaml:"value"`
	Origin Origin `json:"origin" yaml:"origin"`
	Policy Type   `json:"policy" yaml:"policy"`
	Reason string `json:"reason" yaml:"reason"`
}

// Apply runs a policy over two field values as returned by Finding.Get.
// Left wins every tie.
func Apply(policy Type, left, right any) Suggestion {
	switch policy {
	case PreferLeft:
		return pick(policy, left, right, OriginLeft, "left value preferred")
	case PreferRight:
		return pick(policy, left, right, OriginRight, "right value preferred")
	case PreferLonger:
		if textLen(right) > textLen(left) {
			return pick(policy, left, right, OriginRight, "right value is longer")
		}
		return pick(policy, left, right, OriginLeft, "left value is at least as long")
	case PreferHigherSeverity:
		ls, lok := left.(findings.Severity)
		rs, rok := right.(findings.Severity)
		if lok && rok {
			if rs.Rank() > ls.Rank() {
				return pick(policy, left, right, OriginRight, fmt.Sprintf("%s outranks %s", rs, ls))
			}
			return pick(policy, left, right, OriginLeft, fmt.Sprintf("%s is at least %s", ls, rs))
		}
	case PreferHigherScore:
		lf, lok := left.(float64)
		rf, rok := right.(float64)
		switch {
		case lok && rok && rf > lf:
			return pick(policy, left, right, OriginRight, fmt.Sprintf("%.1f is higher than %.1f", rf, lf))
		case lok && rok:
			return pick(policy, left, right, OriginLeft, fmt.Sprintf("%.1f is at least %.1f", lf, rf))
		case rok && !lok:
			return pick(policy, left, right, OriginRight, "only right has a score")
		case lok:
			return pick(policy, left, right, OriginLeft, "only left has a score")
		}
	case Union:
		ll, lok := left.([]string)
		rl, rok := right.([]string)
		if lok || rok {
			return Suggestion{
				Value:  findings.Union(ll, rl),
				Origin: OriginBoth,
				Policy: policy,
				Reason: "union of both sides",
			}
		}
	}
	return preferNonEmpty(policy, left, right)
}

// preferNonEmpty picks the side with a value; with two values, the text
// with more words, then the longer text, then left.
func preferNonEmpty(policy Type, left, right any) Suggestion {
	lEmpty, rEmpty := findings.IsEmpty(left), findings.IsEmpty(right)
	switch {
	case lEmpty && !rEmpty:
		return pick(policy, left, right, OriginRight, "left is empty")
	case rEmpty:
		return pick(policy, left, right, OriginLeft, "right is empty")
	}

	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		lw, rw := len(strings.Fields(ls)), len(strings.Fields(rs))
		switch {
		case rw > lw:
			return pick(policy, left, right, OriginRight, "right has more words")
		case lw > rw:
			return pick(policy, left, right, OriginLeft, "left has more words")
		case len(rs) > len(ls):
			return pick(policy, left, right, OriginRight, "right is longer")
		}
	}
	return pick(policy, left, right, OriginLeft, "left kept on tie")
}

func pick(policy Type, left, right any, origin Origin, reason string) Suggestion {
	value := left
	if origin == OriginRight {
		value = right
	}
	return Suggestion{Value: value, Origin: origin, Policy: policy, Reason: reason}
}

func textLen(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		return len(strings.TrimSpace(x))
	case []string:
		return len(strings.Join(x, "\n"))
	}
	return len(fmt.Sprint(v))
}
