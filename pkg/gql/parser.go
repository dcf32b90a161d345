package gql

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// MatchStmt represents a parsed single-pattern MATCH statement.
type MatchStmt struct {
	Sym     string
	Tag     string
	Where   []Cond
	Return  []string
	OrderBy string
	Desc    bool
	Limit   int64
}

type Cond struct {
	Prop  string
	Op    string
	Value int64
}

var matchRe = regexp.MustCompile(
	`(?i)^MATCH\s+\((\w+):(\w+)\)` +
		`(?:\s+WHERE\s+(.+?))?` +
		`\s+RETURN\s+([\w.,\s]+?)` +
		`(?:\s+ORDER\s+BY\s+(\w+)\.(\w+)(\s+DESC)?)?` +
		`(?:\s+LIMIT\s+(\d+))?\s*;?\s*$`)

var condRe = regexp.MustCompile(`^(\w+)\.(\w+)\s*(==|!=|>=|<=|>|<)\s*(-?\d+)$`)

// Parse parses simple graph queries:
// "MATCH (n:player) RETURN n.name"
// "MATCH (n:player) WHERE n.age > 30 RETURN n.name, n.age"
// "MATCH (n:player) WHERE n.age > 30 AND n.score >= 80 RETURN n.name ORDER BY n.age DESC LIMIT 10"
// Conditions compare a property of the matched vertex to an integer literal.
func Parse(s string) (*MatchStmt, error) {
	orig := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	if orig == "" {
		return nil, errors.New("empty query")
	}

	matches := matchRe.FindStringSubmatch(orig)
	if matches == nil {
		return nil, errors.New("syntax: expected MATCH (sym:tag) [WHERE sym.prop <op> <int> [AND ...]] RETURN sym.prop, ... [ORDER BY sym.prop [DESC]] [LIMIT <n>]")
	}

	stmt := &MatchStmt{
		Sym:   matches[1],
		Tag:   matches[2],
		Limit: -1,
	}

	if matches[3] != "" {
		for _, part := range strings.Split(matches[3], " AND ") {
			cm := condRe.FindStringSubmatch(strings.TrimSpace(part))
			if cm == nil {
				return nil, errors.New("syntax: WHERE condition must be sym.prop <op> <int>")
			}
			if cm[1] != stmt.Sym {
				return nil, errors.New("unknown symbol in WHERE: " + cm[1])
			}
			v, err := strconv.ParseInt(cm[4], 10, 64)
			if err != nil {
				return nil, errors.New("invalid WHERE value")
			}
			stmt.Where = append(stmt.Where, Cond{Prop: cm[2], Op: cm[3], Value: v})
		}
	}

	for _, item := range strings.Split(matches[4], ",") {
		item = strings.TrimSpace(item)
		sym, prop, ok := strings.Cut(item, ".")
		if !ok || sym != stmt.Sym || prop == "" {
			return nil, errors.New("RETURN items must be sym.prop")
		}
		stmt.Return = append(stmt.Return, prop)
	}
	if len(stmt.Return) == 0 {
		return nil, errors.New("empty RETURN list")
	}

	if matches[5] != "" {
		if matches[5] != stmt.Sym {
			return nil, errors.New("unknown symbol in ORDER BY: " + matches[5])
		}
		stmt.OrderBy = matches[6]
		stmt.Desc = matches[7] != ""
	}

	if matches[8] != "" {
		v, err := strconv.ParseInt(matches[8], 10, 64)
		if err != nil || v < 0 {
			return nil, errors.New("invalid LIMIT value")
		}
		stmt.Limit = v
	}

	return stmt, nil
}
