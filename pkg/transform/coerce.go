package transform

import (
	"strconv"
	"strings"
	"time"

	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/tenant"
)

// CoerceTypes casts every column named in mapping.Types to its declared
// logical type, applying any configured cleaning steps first, and
// handles cast failures per the column's FailurePolicy (mapping.OnTypeFail,
// defaulting to null).
func CoerceTypes(f *frame.Frame, mapping tenant.ColumnMapping) (*frame.Frame, error) {
	policy := mapping.OnTypeFail
	if policy == "" {
		policy = tenant.FailNull
	}

	out := f
	for target, logicalType := range mapping.Types {
		col, ok := out.Column(target)
		if !ok {
			continue
		}
		typ, err := logicalTypeOf(logicalType)
		if err != nil {
			return nil, &Error{Kind: KindUnknownType, Column: target, Err: err}
		}
		coerced, err := coerceColumn(col, typ, mapping.Cleaning[target], policy)
		if err != nil {
			return nil, err
		}
		out, err = out.WithColumn(coerced)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func coerceColumn(col frame.Column, target frame.Type, cleaning []tenant.CleaningStep, policy tenant.FailurePolicy) (frame.Column, error) {
	n := col.Len()
	keepString := policy == tenant.FailFlagAndKeepString
	outType := target

	strs := make([]string, n)
	for i := 0; i < n; i++ {
		strs[i] = columnStringAt(col, i)
	}
	for i := range strs {
		if col.IsNull(i) {
			continue
		}
		for _, step := range cleaning {
			v, err := applyCleaningStep(strs[i], step)
			if err != nil {
				return frame.Column{}, &Error{Kind: KindBadCleaning, Column: col.Name, Err: err}
			}
			strs[i] = v
		}
	}

	out := frame.NewColumn(col.Name, outType, n)
	anyFailed := false
	for i := 0; i < n; i++ {
		if col.IsNull(i) || strs[i] == "" {
			continue
		}
		ok := setCoercedValue(&out, i, strs[i], target)
		if ok {
			out.Null[i] = false
			continue
		}
		anyFailed = true
		switch policy {
		case tenant.FailZero:
			out.Null[i] = false
		case tenant.FailFlagAndKeepString:
			// handled below by downgrading the whole column to string
		default:
			out.Null[i] = true
		}
	}

	if anyFailed && keepString {
		strCol := frame.NewColumn(col.Name, frame.TypeString, n)
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				continue
			}
			strCol.Strings[i] = strs[i]
			strCol.Null[i] = false
		}
		return strCol, nil
	}

	return out, nil
}

func columnStringAt(col frame.Column, i int) string {
	switch col.Typ {
	case frame.TypeString:
		return col.Strings[i]
	case frame.TypeInt64:
		return strconv.FormatInt(col.Int64s[i], 10)
	case frame.TypeFloat64:
		return strconv.FormatFloat(col.Float64s[i], 'f', -1, 64)
	case frame.TypeBool:
		return strconv.FormatBool(col.Bools[i])
	case frame.TypeTime:
		return col.Times[i].Format(time.RFC3339)
	default:
		return ""
	}
}

func setCoercedValue(out *frame.Column, i int, raw string, target frame.Type) bool {
	switch target {
	case frame.TypeInt64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(raw, 64)
			if ferr != nil {
				return false
			}
			out.Int64s[i] = int64(f)
			return true
		}
		out.Int64s[i] = v
		return true
	case frame.TypeFloat64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return false
		}
		out.Float64s[i] = v
		return true
	case frame.TypeBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return false
		}
		out.Bools[i] = v
		return true
	case frame.TypeString:
		out.Strings[i] = raw
		return true
	case frame.TypeTime:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return false
		}
		out.Times[i] = t
		return true
	default:
		return false
	}
}

func applyCleaningStep(v string, step tenant.CleaningStep) (string, error) {
	switch step.Name {
	case "trim":
		return strings.TrimSpace(v), nil
	case "uppercase":
		return strings.ToUpper(v), nil
	case "round":
		precision, err := strconv.Atoi(step.Arg)
		if err != nil {
			return v, err
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return v, err
		}
		return strconv.FormatFloat(f, 'f', precision, 64), nil
	case "parse_date":
		t, err := time.Parse(step.Arg, v)
		if err != nil {
			return v, err
		}
		return t.Format(time.RFC3339), nil
	default:
		return v, nil
	}
}
