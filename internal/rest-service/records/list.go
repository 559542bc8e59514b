package records

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is a JSON array column. Stored values that do not decode to an
// array read back as an empty list.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return datatypes.JSONSlice[string](l).Value()
}

func (l *StringList) Scan(v any) error {
	switch t := v.(type) {
	case nil:
		*l = StringList{}
	case []byte:
		*l = decodeList(t)
	case string:
		*l = decodeList([]byte(t))
	default:
		return fmt.Errorf("can't scan %T into a string list", v)
	}
	return nil
}

func (StringList) GormDataType() string {
	return datatypes.JSONSlice[string]{}.GormDataType()
}

func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return datatypes.JSONSlice[string]{}.GormDBDataType(db, field)
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) UnmarshalJSON(b []byte) error {
	*l = decodeList(b)
	return nil
}

// ParseList reads a list from form values: a single JSON array, a single
// comma separated value or repeated values.
func ParseList(values []string) StringList {
	if len(values) == 1 {
		v := strings.TrimSpace(values[0])
		if strings.HasPrefix(v, "[") {
			return decodeList([]byte(v))
		}
		return splitList(v)
	}
	out := StringList{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func decodeList(raw []byte) StringList {
	if !gjson.ValidBytes(raw) {
		return StringList{}
	}
	res := gjson.ParseBytes(raw)
	if res.Type == gjson.String {
		inner := strings.TrimSpace(res.String())
		if !strings.HasPrefix(inner, "[") {
			return splitList(inner)
		}
		if !gjson.Valid(inner) {
			return StringList{}
		}
		res = gjson.Parse(inner)
	}
	out := StringList{}
	if !res.IsArray() {
		return out
	}
	res.ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

func splitList(s string) StringList {
	out := StringList{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
