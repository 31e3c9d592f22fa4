package obs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribeSQL(t *testing.T) {
	cases := []struct {
		sql, name, op string
	}{
		{"-- name: BindCartItem :execrows\nUPDATE cart_items SET x = 1", "db BindCartItem", "UPDATE"},
		{"  select 1", "db select", "SELECT"},
		{"", "db query", ""},
	}
	for _, tc := range cases {
		name, op := describeSQL(tc.sql)
		require.Equal(t, tc.name, name, tc.sql)
		require.Equal(t, tc.op, op, tc.sql)
	}
}
