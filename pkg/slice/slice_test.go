// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, Map([]int{1, 2, 3}, strconv.Itoa))

	empty := Map[int, string](nil, strconv.Itoa)
	require.NotNil(t, empty)

	encoded, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(encoded))
}
