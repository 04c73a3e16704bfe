package ingest

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/modelshelf/modelshelf/pkg/domain"
)

var (
	leadingInt   = regexp.MustCompile(`^\s*([+-]?\d+)`)
	leadingFloat = regexp.MustCompile(`^\s*([+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?)`)
)

// parseVector decodes a JSON {x,y,z} object over def. An empty value yields
// def; anything that is not a JSON object with numeric axes is rejected.
func parseVector(field, raw string, def domain.Vector3) (domain.Vector3, error) {
	if raw == "" {
		return def, nil
	}

	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return def, domain.NewValidationError(field, domain.ValidationInvalid,
			field+" must be a JSON object with numeric x, y and z", raw)
	}

	v := def
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return def, domain.NewValidationError(field, domain.ValidationInvalid,
			"invalid "+field+" JSON: "+err.Error(), raw)
	}
	return v, nil
}

// parseTableNumber reads the leading integer of raw. Unparsable input and
// zero fall back to the default table.
func parseTableNumber(raw string) int {
	m := leadingInt.FindStringSubmatch(raw)
	if m == nil {
		return domain.DefaultTableNumber
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return domain.DefaultTableNumber
	}
	return n
}

// parsePrice reads the leading decimal number of raw; unparsable input is 0.
func parsePrice(raw string) float64 {
	m := leadingFloat.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

func parseType(raw string) string {
	if raw == "" {
		return domain.DefaultType
	}
	return raw
}
