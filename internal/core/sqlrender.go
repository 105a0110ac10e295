package core

// sqlrender.go finalizes a catalog template for execution: list parameters
// are rendered as literal integer tuples (parameterized list-binding is
// unreliable across drivers), and remaining named placeholders are rewritten
// to positional arguments.
//
// The literal substitution is sound only because list values are []int built
// by BuildParams; no other value ever undergoes textual substitution.

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderIntList renders integer IDs as a SQL tuple literal: (12, 34, 56).
// An empty list renders as (NULL), which matches no row.
func RenderIntList(ids []int) string {
	if len(ids) == 0 {
		return "(NULL)"
	}

	var b strings.Builder
	b.WriteByte('(')
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(id))
	}
	b.WriteByte(')')
	return b.String()
}

// ExpandListParams substitutes every []int parameter whose @name placeholder
// appears in the template with a literal tuple, and returns the rewritten SQL
// plus a copy of the parameter map without list values. List parameters the
// template never references are dropped so they are not sent to the driver.
func ExpandListParams(sql string, params ParamMap) (string, ParamMap) {
	scalars := make(ParamMap, len(params))

	for name, value := range params {
		ids, isList := value.([]int)
		if !isList {
			scalars[name] = value
			continue
		}
		placeholder := "@" + name
		if strings.Contains(sql, placeholder) {
			sql = strings.ReplaceAll(sql, placeholder, RenderIntList(ids))
		}
	}

	return sql, scalars
}

// BindNamed rewrites @name placeholders to positional $n arguments.
// A name that appears multiple times binds the same argument. Placeholders
// with no entry in the parameter map bind NULL; catalog templates use
// "@x IS NULL OR col = @x" predicates so an omitted optional filter matches
// everything.
func BindNamed(sql string, params ParamMap) (string, []any) {
	var (
		args    []any
		indexes = make(map[string]int)
		out     strings.Builder
	)

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if c != '@' || i+1 >= len(sql) || !isIdentStart(sql[i+1]) {
			out.WriteByte(c)
			continue
		}

		j := i + 1
		for j < len(sql) && isIdentPart(sql[j]) {
			j++
		}
		name := sql[i+1 : j]

		idx, seen := indexes[name]
		if !seen {
			value, ok := params[name]
			if !ok {
				value = nil
			}
			args = append(args, value)
			idx = len(args)
			indexes[name] = idx
		}

		out.WriteString(fmt.Sprintf("$%d", idx))
		i = j - 1
	}

	return out.String(), args
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
