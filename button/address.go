package button

import (
	"fmt"
	"strconv"
	"strings"
)

// Address identifies one button on the controller's surface grid.
// It is a value type compared by structural equality.
type Address struct {
	Page   int `json:"page" yaml:"page"`
	Row    int `json:"row" yaml:"row"`
	Column int `json:"column" yaml:"column"`
}

// Key returns the form used for map keys: "page:row:column".
func (a Address) Key() string {
	return fmt.Sprintf("%d:%d:%d", a.Page, a.Row, a.Column)
}

// String returns the wire form used in URLs and text commands:
// "page/row/column".
func (a Address) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Page, a.Row, a.Column)
}

// ParseAddress parses the wire form "page/row/column".
func ParseAddress(s string) (Address, error) {
	items := strings.Split(strings.TrimSpace(s), "/")
	if len(items) != 3 {
		return Address{}, fmt.Errorf("invalid address: %q (want page/row/column)", s)
	}

	page, err := strconv.Atoi(items[0])
	if err != nil {
		return Address{}, fmt.Errorf("unable to parse page as int: %w", err)
	}
	row, err := strconv.Atoi(items[1])
	if err != nil {
		return Address{}, fmt.Errorf("unable to parse row as int: %w", err)
	}
	column, err := strconv.Atoi(items[2])
	if err != nil {
		return Address{}, fmt.Errorf("unable to parse column as int: %w", err)
	}

	return Address{Page: page, Row: row, Column: column}, nil
}
