// Package models holds request types shared by more than one service
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a numeric identifier in a request body. Clients send both 7 and "7".
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*id = ID(n)
	return nil
}

// Int64 returns the identifier as stored in the database
func (id ID) Int64() int64 {
	return int64(id)
}
