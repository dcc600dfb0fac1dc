package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleDescription() *Map {
	row1 := NewMap()
	row1.Set("구분", Text("학부생"))
	row1.Set("대출권수", Text("10"))
	row2 := NewMap()
	row2.Set("구분", Text("대학원생"))
	row2.Set("대출권수", Text("20"))

	nested := NewMap()
	nested.Set("제1열람실", List{"24시간 운영"})
	nested.Set("제1열람실 / 좌석", List{"200석", "노트북석 40석"})

	m := NewMap()
	m.Set("개관시간", List{"평일 09:00–18:00"})
	m.Set("이용 안내", List{"A & B", "<출입증> 지참"})
	m.Set("대출 기준", Rows{row1, row2})
	m.Set("열람실", nested)
	return m
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	t.Run("collapses single element lists recursively", func(t *testing.T) {
		t.Parallel()

		flat := sampleDescription().Flatten()

		v, _ := flat.Get("개관시간")
		assert.Equal(t, Text("평일 09:00–18:00"), v)

		v, _ = flat.Get("이용 안내")
		assert.Equal(t, List{"A & B", "<출입증> 지참"}, v)

		v, _ = flat.Get("열람실")
		nested, ok := v.(*Map)
		require.True(t, ok)
		inner, _ := nested.Get("제1열람실")
		assert.Equal(t, Text("24시간 운영"), inner)
	})

	t.Run("single row table becomes its row", func(t *testing.T) {
		t.Parallel()

		row := NewMap()
		row.Set("요일", Text("토요일"))
		assert.Equal(t, row, Flatten(Rows{row}))
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		once := sampleDescription().Flatten()
		twice := once.Flatten()

		a, err := json.Marshal(once)
		require.NoError(t, err)
		b, err := json.Marshal(twice)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	})

	t.Run("leaves other values alone", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, Text("x"), Flatten(Text("x")))
		assert.Equal(t, List{}, Flatten(List{}))
		assert.Equal(t, List{"a", "b"}, Flatten(List{"a", "b"}))
	})
}

func TestMapJSON(t *testing.T) {
	t.Parallel()

	t.Run("keeps insertion order and readable text", func(t *testing.T) {
		t.Parallel()

		m := NewMap()
		m.Set("b", Text("second & third"))
		m.Set("a", List{"x", "y"})

		data, err := m.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `{"b":"second & third","a":["x","y"]}`, string(data))
	})

	t.Run("decodes every value kind", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(sampleDescription())
		require.NoError(t, err)

		decoded := NewMap()
		require.NoError(t, json.Unmarshal(data, decoded))

		assert.Equal(t, []string{"개관시간", "이용 안내", "대출 기준", "열람실"}, decoded.Keys())

		v, _ := decoded.Get("대출 기준")
		rows, ok := v.(Rows)
		require.True(t, ok)
		require.Len(t, rows, 2)
		cell, _ := rows[1].Get("대출권수")
		assert.Equal(t, Text("20"), cell)

		again, err := json.Marshal(decoded)
		require.NoError(t, err)
		assert.Equal(t, string(data), string(again))
	})

	t.Run("scalars that are not strings become text", func(t *testing.T) {
		t.Parallel()

		decoded := NewMap()
		require.NoError(t, json.Unmarshal([]byte(`{"count": 3, "gone": null}`), decoded))
		v, _ := decoded.Get("count")
		assert.Equal(t, Text("3"), v)
		_, ok := decoded.Get("gone")
		assert.False(t, ok)
	})
}

func TestMapYAML(t *testing.T) {
	t.Parallel()

	data, err := yaml.Marshal(sampleDescription())
	require.NoError(t, err)

	decoded := NewMap()
	require.NoError(t, yaml.Unmarshal(data, decoded))
	assert.Equal(t, []string{"개관시간", "이용 안내", "대출 기준", "열람실"}, decoded.Keys())

	again, err := yaml.Marshal(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestMerge(t *testing.T) {
	t.Parallel()

	m := NewMap()
	m.Merge("안내", List{"a"})
	m.Merge("안내", List{"b"})
	m.Merge("표", Text("x"))
	m.Merge("표", Text("y"))

	v, _ := m.Get("안내")
	assert.Equal(t, List{"a", "b"}, v)
	v, _ = m.Get("표")
	assert.Equal(t, Text("y"), v)
	assert.Equal(t, []string{"안내", "표"}, m.Keys())
}

func TestDescriptionText(t *testing.T) {
	t.Parallel()

	m := NewMap()
	m.Set("개관시간", Text("평일 09:00–18:00"))
	m.Set("휴관일", List{"일요일", "공휴일"})

	assert.Equal(t, "개관시간: 평일 09:00–18:00\n휴관일: 일요일\n공휴일", DescriptionText(m))
}

func TestVisitKey(t *testing.T) {
	t.Parallel()

	a := MenuEntry{Category: "도서관 이용", Subcategory: "", Title: "개관시간", URL: "https://library.test/hours"}
	b := a
	b.Subcategory = "도서관 이용"

	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), NewDetailRecord(a).Key())
}
