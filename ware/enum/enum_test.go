package enum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/warekit/testutil/helper"
	"github.com/AntonStoeckl/warekit/ware"
	"github.com/AntonStoeckl/warekit/ware/enum"
)

func givenEnum[V comparable](t *testing.T, name string, members ...enum.Member[V]) enum.Enum[V] {
	t.Helper()

	e, err := enum.New(name, members...)
	require.NoError(t, err, "error in arranging test data")

	return e
}

func Test_New_RejectsDuplicateNames(t *testing.T) {
	_, err := enum.New("Color", enum.M("RED", 1), enum.M("RED", 2))

	assert.ErrorIs(t, err, enum.ErrDuplicateMember)
}

func Test_Enum_Accessors(t *testing.T) {
	color := givenEnum(t, "Color", enum.M("RED", "red"), enum.M("GREEN", "green"))

	assert.Equal(t, "Color", color.Name())
	assert.Equal(t, []enum.Member[string]{{Name: "RED", Value: "red"}, {Name: "GREEN", Value: "green"}}, color.Members())

	value, found := color.Value("GREEN")
	assert.True(t, found)
	assert.Equal(t, "green", value)

	_, found = color.Value("BLUE")
	assert.False(t, found)

	assert.True(t, color.Contains("red"))
	assert.False(t, color.Contains("blue"))
}

func Test_Values(t *testing.T) {
	http := givenEnum(t, "HTTPStatus", enum.M("OK", 200), enum.M("NOT_FOUND", 404))
	db := givenEnum(t, "DBStatus", enum.M("LOCKED", 900))

	assert.Equal(t, []int{200, 404}, enum.Values(http))
	assert.Equal(t, []int{200, 404, 900}, enum.Values(http, db))
	assert.Empty(t, enum.Values[int]())
}

func Test_Extend(t *testing.T) {
	base := givenEnum(t, "Base", enum.M("A", 1), enum.M("B", 2))
	other := givenEnum(t, "Other", enum.M("C", 3))
	applied := givenEnum(t, "Applied", enum.M("D", 4))

	extended, err := enum.Extend(applied, base, other)

	require.NoError(t, err)
	assert.Equal(t, "Applied", extended.Name())
	assert.Equal(t, []int{1, 2, 3, 4}, enum.Values(extended))
	assert.Equal(t, []int{4}, enum.Values(applied))
}

func Test_Extend_DuplicateMember(t *testing.T) {
	base := givenEnum(t, "Base", enum.M("A", 1))
	applied := givenEnum(t, "Applied", enum.M("A", 2))

	_, err := enum.Extend(applied, base)

	assert.ErrorIs(t, err, enum.ErrDuplicateMember)
}

func Test_MatchContaining(t *testing.T) {
	helper.GivenProcessSinkSpy(t)

	first := givenEnum(t, "First", enum.M("A", "a"))
	second := givenEnum(t, "Second", enum.M("B", "b"), enum.M("A", "a"))

	matched, err := enum.MatchContaining("a", first, second)
	require.NoError(t, err)
	assert.Equal(t, "First", matched.Name())

	matched, err = enum.MatchContaining("b", first, second)
	require.NoError(t, err)
	assert.Equal(t, "Second", matched.Name())

	_, err = enum.MatchContaining("z", first, second)
	assert.ErrorIs(t, err, ware.ErrInvalidArgument)
	assert.EqualError(t, err, "invalid argument: Given enums don't contain given value `z`.")
}
