package db

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// EncodeList stores a string list as a JSON array. A nil list is stored as
// "[]" so it reads back empty rather than null.
func EncodeList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return datatypes.JSON(b)
}

// DecodeList is the inverse of EncodeList. Order and duplicates are kept.
// Empty or malformed columns decode to an empty list.
func DecodeList(raw datatypes.JSON) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
