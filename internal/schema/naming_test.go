package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "hyphenated", in: "cool-spot-demo", want: "cool_spot_demo"},
		{name: "already clean", in: "buffer", want: "buffer"},
		{name: "mixed case", in: "Cool-Spot", want: "cool_spot"},
		{name: "separator runs collapse", in: "a--b..c", want: "a_b_c"},
		{name: "leading and trailing separators trimmed", in: "--edge--", want: "edge"},
		{name: "digits kept", in: "model-v2", want: "model_v2"},
		{name: "unicode stripped", in: "café-demo", want: "caf_demo"},
		{name: "empty", in: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Slug(tc.in))
		})
	}
}

func TestNamerUniqueNames(t *testing.T) {
	t.Parallel()

	n := NewNamer()
	assert.Equal(t, "execute_cool_spot_demo", n.OperationName("cool-spot-demo"))
	assert.Equal(t, "execute_geospatial_buffer", n.OperationName("geospatial-buffer"))
}

func TestNamerCollisions(t *testing.T) {
	t.Parallel()

	// Distinct identifiers slugging to the same name receive numeric suffixes
	// in feed order.
	n := NewNamer()
	assert.Equal(t, "execute_hot_spot", n.OperationName("hot-spot"))
	assert.Equal(t, "execute_hot_spot_2", n.OperationName("hot.spot"))
	assert.Equal(t, "execute_hot_spot_3", n.OperationName("hot_spot"))
}

func TestNamerSuffixedNamesAreClaimed(t *testing.T) {
	t.Parallel()

	// An identifier slugging directly to a previously assigned suffixed form
	// must not reuse it.
	n := NewNamer()
	assert.Equal(t, "execute_buffer", n.OperationName("buffer"))
	assert.Equal(t, "execute_buffer_2", n.OperationName("buffer!"))
	assert.Equal(t, "execute_buffer_2_2", n.OperationName("buffer-2"))
}

func TestNamerSkipsTakenSuffix(t *testing.T) {
	t.Parallel()

	// The suffixed form is already owned when the colliding identifier
	// arrives; the suffix counter walks past it.
	n := NewNamer()
	assert.Equal(t, "execute_buffer_2", n.OperationName("buffer-2"))
	assert.Equal(t, "execute_buffer", n.OperationName("buffer"))
	assert.Equal(t, "execute_buffer_3", n.OperationName("buffer!"))
}

func TestNamerDeterministic(t *testing.T) {
	t.Parallel()

	ids := []string{"a-b", "a.b", "plain", "a_b"}

	run := func() []string {
		n := NewNamer()
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, n.OperationName(id))
		}
		return out
	}

	first := run()
	assert.Equal(t, first, run(), "same ordered identifier set must yield identical names")
	assert.Equal(t, []string{"execute_a_b", "execute_a_b_2", "execute_plain", "execute_a_b_3"}, first)
}

func TestNamerEmptySlug(t *testing.T) {
	t.Parallel()

	n := NewNamer()
	assert.Equal(t, "execute_process", n.OperationName("---"))
	assert.Equal(t, "execute_process_2", n.OperationName("///"))
}
