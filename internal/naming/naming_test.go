package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlural(t *testing.T) {
	assert.Equal(t, "todos", Plural("todo"))
	assert.Equal(t, "todos", Plural("todos"))
	assert.Equal(t, "categories", Plural("category"))
	assert.Equal(t, "", Plural("  "))
}

func TestCapitalizeAndLowerFirst(t *testing.T) {
	assert.Equal(t, "Todos", Capitalize("todos"))
	assert.Equal(t, "", Capitalize(""))
	assert.Equal(t, "addTodo", LowerFirst("AddTodo"))
	assert.Equal(t, "", LowerFirst(""))
}

func TestExtractFileName(t *testing.T) {
	cases := map[string]string{
		"AddTodo":        "AddTodo",
		"getTodos:":      "getTodos",
		"- removeTodo :": "removeTodo",
		"::":             "",
		"":               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractFileName(in), "input %q", in)
	}
}

func TestCheckModule(t *testing.T) {
	for _, ok := range []string{"books", "bookItems", "book_items", "order-lines", "Books"} {
		assert.NoError(t, CheckModule(ok), "name %q", ok)
	}
	for _, bad := range []string{"", "..", ".", "../x", "a/b", `a\b`, "/abs", "2books", "books ", "bo oks"} {
		assert.Error(t, CheckModule(bad), "name %q", bad)
	}
}
