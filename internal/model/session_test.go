package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataValidate(t *testing.T) {
	cases := []struct {
		name    string
		meta    Metadata
		classes int
		ok      bool
	}{
		{"keras export", Metadata{InputShape: []int64{-1, 256, 256, 3}, OutputShape: []int64{-1, 15}}, 15, true},
		{"fixed batch", Metadata{InputShape: []int64{1, 256, 256, 3}, OutputShape: []int64{1, 15}}, 15, true},
		{"dynamic spatial", Metadata{InputShape: []int64{-1, -1, -1, 3}, OutputShape: []int64{-1, -1}}, 15, true},
		{"nchw", Metadata{InputShape: []int64{1, 3, 256, 256}, OutputShape: []int64{1, 15}}, 15, false},
		{"wrong size", Metadata{InputShape: []int64{1, 224, 224, 3}, OutputShape: []int64{1, 15}}, 15, false},
		{"rank 3", Metadata{InputShape: []int64{256, 256, 3}, OutputShape: []int64{1, 15}}, 15, false},
		{"class mismatch", Metadata{InputShape: []int64{1, 256, 256, 3}, OutputShape: []int64{1, 38}}, 15, false},
		{"no output dims", Metadata{InputShape: []int64{1, 256, 256, 3}}, 15, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.meta.Validate(tc.classes)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
