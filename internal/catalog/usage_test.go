package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecipes struct {
	byMenu map[string][]RecipeLine
	err    error
}

func (f *fakeRecipes) RecipeLinesFor(_ context.Context, menuID string) ([]RecipeLine, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byMenu[menuID], nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNeedForOrder_AggregatesAcrossMenus(t *testing.T) {
	src := &fakeRecipes{byMenu: map[string][]RecipeLine{
		"burger": {
			{MenuID: "burger", MaterialID: "patty", QtyPerUnit: d("1")},
			{MenuID: "burger", MaterialID: "bun", QtyPerUnit: d("1")},
		},
		"cheeseburger": {
			{MenuID: "cheeseburger", MaterialID: "patty", QtyPerUnit: d("1")},
			{MenuID: "cheeseburger", MaterialID: "bun", QtyPerUnit: d("1")},
			{MenuID: "cheeseburger", MaterialID: "cheese", QtyPerUnit: d("1")},
		},
	}}

	need, err := NeedForOrder(context.Background(), src, []LineInput{
		{MenuID: "burger", Qty: 2},
		{MenuID: "cheeseburger", Qty: 1},
	})
	require.NoError(t, err)

	require.Len(t, need, 3)
	assert.True(t, need["patty"].Equal(d("3")))
	assert.True(t, need["bun"].Equal(d("3")))
	assert.True(t, need["cheese"].Equal(d("1")))
}

func TestNeedForOrder_FractionalQuantities(t *testing.T) {
	src := &fakeRecipes{byMenu: map[string][]RecipeLine{
		"latte": {
			{MenuID: "latte", MaterialID: "milk", QtyPerUnit: d("150.5"), Unit: "ml"},
			{MenuID: "latte", MaterialID: "beans", QtyPerUnit: d("18"), Unit: "g"},
		},
	}}

	need, err := NeedForOrder(context.Background(), src, []LineInput{{MenuID: "latte", Qty: 3}})
	require.NoError(t, err)

	assert.True(t, need["milk"].Equal(d("451.5")))
	assert.True(t, need["beans"].Equal(d("54")))
}

func TestNeedForOrder_SkipsProcessOnlyLines(t *testing.T) {
	src := &fakeRecipes{byMenu: map[string][]RecipeLine{
		"soup": {
			{MenuID: "soup", MaterialID: "", QtyPerUnit: d("999")}, // langkah proses, bukan stok
			{MenuID: "soup", MaterialID: "stock", QtyPerUnit: d("2")},
		},
	}}

	need, err := NeedForOrder(context.Background(), src, []LineInput{{MenuID: "soup", Qty: 4}})
	require.NoError(t, err)

	require.Len(t, need, 1)
	assert.True(t, need["stock"].Equal(d("8")))
}

func TestNeedForOrder_DefaultsZeroQtyToOne(t *testing.T) {
	src := &fakeRecipes{byMenu: map[string][]RecipeLine{
		"tea": {{MenuID: "tea", MaterialID: "leaves", QtyPerUnit: d("5")}},
	}}

	need, err := NeedForOrder(context.Background(), src, []LineInput{{MenuID: "tea", Qty: 0}})
	require.NoError(t, err)
	assert.True(t, need["leaves"].Equal(d("5")))
}

func TestNeedForOrder_EmptyOrder(t *testing.T) {
	src := &fakeRecipes{byMenu: map[string][]RecipeLine{}}

	need, err := NeedForOrder(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Empty(t, need)
}

func TestNeedForOrder_AllProcessOnly(t *testing.T) {
	src := &fakeRecipes{byMenu: map[string][]RecipeLine{
		"water": {{MenuID: "water", MaterialID: "", QtyPerUnit: d("1")}},
	}}

	need, err := NeedForOrder(context.Background(), src, []LineInput{{MenuID: "water", Qty: 2}})
	require.NoError(t, err)
	assert.Empty(t, need)
}

func TestNeedForOrder_PropagatesLookupError(t *testing.T) {
	src := &fakeRecipes{err: errors.New("boom")}

	_, err := NeedForOrder(context.Background(), src, []LineInput{{MenuID: "x", Qty: 1}})
	require.Error(t, err)
}

func TestNeedForOrder_SameMenuRepeatedLines(t *testing.T) {
	src := &fakeRecipes{byMenu: map[string][]RecipeLine{
		"burger": {{MenuID: "burger", MaterialID: "patty", QtyPerUnit: d("1")}},
	}}

	need, err := NeedForOrder(context.Background(), src, []LineInput{
		{MenuID: "burger", Qty: 1},
		{MenuID: "burger", Qty: 2},
	})
	require.NoError(t, err)
	assert.True(t, need["patty"].Equal(d("3")))
}
