package transform

import (
	"fmt"

	"github.com/lakeforge/etl/pkg/frame"
)

func logicalTypeOf(name string) (frame.Type, error) {
	switch name {
	case "int64":
		return frame.TypeInt64, nil
	case "float64":
		return frame.TypeFloat64, nil
	case "string":
		return frame.TypeString, nil
	case "bool":
		return frame.TypeBool, nil
	case "time":
		return frame.TypeTime, nil
	default:
		return "", fmt.Errorf("unknown logical type %q", name)
	}
}
