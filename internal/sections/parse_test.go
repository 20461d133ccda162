package sections

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	cases := []struct {
		header, keyword, class string
	}{
		{"ROUTES", "ROUTES", ""},
		{"1. SERVICE - AddTodo", "SERVICE", "AddTodo"},
		{"2.service - getTodos:", "SERVICE", "getTodos"},
		{"E2E_TESTS", "E2E_TESTS", ""},
		{"all_api_routes", "ALL_API_ROUTES", ""},
	}
	for _, c := range cases {
		kw, cls, err := ParseHeader(c.header)
		require.NoError(t, err, c.header)
		assert.Equal(t, c.keyword, kw, c.header)
		assert.Equal(t, c.class, cls, c.header)
	}
}

func TestParseHeaderBad(t *testing.T) {
	_, _, err := ParseHeader("--- ...")
	assert.True(t, errors.Is(err, ErrBadHeader))
}

func TestParse(t *testing.T) {
	text := "intro chatter is dropped\n" +
		"***ROUTES\n```ts\nexport const routes = [];\n```\n" +
		"### SERVICE - AddTodo\nexport class AddTodo {}\n" +
		"***\n" +
		"***CONTROLLERS\n```\n```\n" +
		"***WIDGETS\nwhatever\n"

	got, skips := Parse(text)
	require.Len(t, got, 2)
	assert.Equal(t, KindRoutes, got[0].Kind)
	assert.Equal(t, "export const routes = [];", got[0].Content)
	assert.Equal(t, KindService, got[1].Kind)
	assert.Equal(t, "AddTodo", got[1].ClassName)

	// Leading chatter has a header line and no body.
	reasons := map[string]int{}
	for _, s := range skips {
		reasons[SkipReason(s.Err)]++
	}
	assert.Equal(t, map[string]int{"empty_content": 2, "unknown_section": 1}, reasons)
}

func TestParseAliases(t *testing.T) {
	got, skips := Parse("***DEPENDENCY_INJECTION\na\n***TESTS\nb\n")
	assert.Empty(t, skips)
	require.Len(t, got, 2)
	assert.Equal(t, KindDIConfig, got[0].Kind)
	assert.Equal(t, KindE2ETests, got[1].Kind)
}

func TestKindsHaveBuckets(t *testing.T) {
	for _, k := range Kinds() {
		assert.NotEmpty(t, k.Bucket(), k.String())
	}
	assert.NotContains(t, RequiredBuckets(), BucketTypes)
}
