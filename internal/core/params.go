package core

// params.go converts a validated input set into SQL parameters.
//
// BuildParams is only called after ValidateInputs passed; it still guards its
// own conversions so a programming mistake fails loudly instead of binding
// garbage. Fields the target data source does not declare are dropped even if
// present in the input set.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BuildParams converts validated inputs into a parameter map keyed by SQL
// placeholder name. Select fields carrying the sentinel "None" are omitted
// entirely, never bound as null.
func BuildParams(sourceKey string, inputs InputSet) (ParamMap, error) {
	defs, ok := SourceFields(sourceKey)
	if !ok {
		return nil, configErr(ErrUnknownSource, "%s", sourceKey)
	}

	params := make(ParamMap)

	for _, def := range defs {
		switch def.Kind {
		case FieldDateRange:
			if err := bindDateRange(def, inputs, params); err != nil {
				return nil, err
			}

		case FieldSelect:
			value := strings.TrimSpace(inputs[def.Name])
			if value == "" || value == SentinelNone {
				continue
			}
			params[def.Param] = value

		default:
			if err := bindText(def, inputs, params); err != nil {
				return nil, err
			}
		}
	}

	return params, nil
}

// SentinelNone is the explicit "apply no filter" option on select fields.
// It is distinct from an absent value: the user chose it.
const SentinelNone = "None"

func bindText(def FieldDef, inputs InputSet, params ParamMap) error {
	tokens := splitTokens(inputs[def.Name])
	if len(tokens) == 0 {
		return nil
	}

	if !def.Numeric {
		params[def.Param] = strings.TrimSpace(inputs[def.Name])
		return nil
	}

	if def.MultiValue {
		// Order and duplicates preserved as entered.
		ids := make([]int, 0, len(tokens))
		for _, tok := range tokens {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return fmt.Errorf("field %s: token %q is not numeric", def.Name, tok)
			}
			ids = append(ids, n)
		}
		params[def.Param] = ids
		return nil
	}

	n, err := strconv.Atoi(tokens[0])
	if err != nil {
		return fmt.Errorf("field %s: value %q is not numeric", def.Name, tokens[0])
	}
	params[def.Param] = n
	return nil
}

func bindDateRange(def FieldDef, inputs InputSet, params ParamMap) error {
	startRaw := strings.TrimSpace(inputs["start_date"])
	endRaw := strings.TrimSpace(inputs["end_date"])
	if startRaw == "" || endRaw == "" {
		return nil
	}

	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		return fmt.Errorf("field %s: invalid start date %q", def.Name, startRaw)
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		return fmt.Errorf("field %s: invalid end date %q", def.Name, endRaw)
	}

	params[def.Params[0]] = start.Format(dateLayout)
	params[def.Params[1]] = end.Format(dateLayout)
	return nil
}
