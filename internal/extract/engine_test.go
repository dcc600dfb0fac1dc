package extract

import (
	"strings"
	"testing"

	"libfaq/crawler/internal/config"
	"libfaq/crawler/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, body string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + body + "</body></html>"))
	require.NoError(t, err)
	return doc.Find("body")
}

func TestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{name: "nbsp and ideographic space", html: "<p>평일&nbsp;&nbsp;09:00　–\n\t18:00 </p>", want: "평일 09:00 – 18:00"},
		{name: "line break between text nodes", html: "<p>1층<br>2층</p>", want: "1층 2층"},
		{name: "script and comments skipped", html: "<p>안내<script>var x = 1;</script><!-- hidden --> 문구</p>", want: "안내 문구"},
		{name: "inline markup joins without spaces", html: "<p>평일 <strong>09</strong>:00–18:00, 도서<b>관</b></p>", want: "평일 09:00–18:00, 도서관"},
		{name: "inline and line break mixed", html: "<p>도서관<br>이용 <em>안내</em>문</p>", want: "도서관 이용 안내문"},
		{name: "empty", html: "<p> </p>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Text(parse(t, tt.html).Find("p")))
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("list rules accumulate in order", func(t *testing.T) {
		t.Parallel()

		region := parse(t, `
			<p>첫 문단</p>
			<ul><li class="point">주의 사항</li><li>일반 항목</li></ul>
			<ul class="dot"><li>항목 1</li><li> </li><li>항목 2</li></ul>
			<dl><dt>대출 기간은?</dt><dd>14일입니다.</dd></dl>`)

		got := Apply(region, []config.RuleConfig{
			{Kind: config.RuleTextBlock, Selector: "p"},
			{Kind: config.RuleEmphasisList, Class: "point"},
			{Kind: config.RulePlainList, Class: "dot"},
			{Kind: config.RuleQnA, Question: "dt", Answer: "dd"},
		})

		assert.Equal(t, domain.List{
			"첫 문단",
			"주의 사항",
			"항목 1",
			"항목 2",
			"Q: 대출 기간은? A: 14일입니다.",
		}, got)
	})

	t.Run("table replaces the list", func(t *testing.T) {
		t.Parallel()

		region := parse(t, `
			<ul class="dot"><li>표 위 안내</li></ul>
			<table><tr><th>휴관일</th><td>일요일</td></tr></table>
			<p>표 아래 문단</p>`)

		got := Apply(region, []config.RuleConfig{
			{Kind: config.RulePlainList, Class: "dot"},
			{Kind: config.RuleTable, Selector: "table"},
			{Kind: config.RuleTextBlock, Selector: "p"},
		})

		m, ok := got.(*domain.Map)
		require.True(t, ok, "expected a map, got %T", got)
		v, _ := m.Get("휴관일")
		assert.Equal(t, domain.List{"일요일"}, v)
	})

	t.Run("missing table keeps the list", func(t *testing.T) {
		t.Parallel()

		region := parse(t, `<p>문단</p>`)
		got := Apply(region, []config.RuleConfig{
			{Kind: config.RuleTable, Selector: "table"},
			{Kind: config.RuleTextBlock, Selector: "p"},
		})
		assert.Equal(t, domain.List{"문단"}, got)
	})

	t.Run("key value", func(t *testing.T) {
		t.Parallel()

		region := parse(t, `<ul><li><span>위치</span> 2층</li><li>기타 안내</li></ul>`)
		got := Apply(region, []config.RuleConfig{
			{Kind: config.RuleKeyValue, Item: "li", Key: "span"},
		})

		m, ok := got.(*domain.Map)
		require.True(t, ok)
		assert.Equal(t, []string{"위치", "_misc_2"}, m.Keys())
		v, _ := m.Get("위치")
		assert.Equal(t, domain.Text("2층"), v)
		v, _ = m.Get("_misc_2")
		assert.Equal(t, domain.Text("기타 안내"), v)
	})

	t.Run("nothing matched", func(t *testing.T) {
		t.Parallel()

		got := Apply(parse(t, `<div></div>`), []config.RuleConfig{
			{Kind: config.RuleTextBlock, Selector: "p"},
		})
		assert.True(t, domain.IsEmpty(got))
	})
}

func TestTable(t *testing.T) {
	t.Parallel()

	t.Run("header rows", func(t *testing.T) {
		t.Parallel()

		region := parse(t, `
			<table>
				<thead><tr><th>구분</th><th>대출권수</th></tr></thead>
				<tbody>
					<tr><td>학부생</td><td>10</td></tr>
					<tr><td>병합된 행</td></tr>
					<tr><td>대학원생</td><td>20</td></tr>
				</tbody>
			</table>`)

		got := Table(region, "table")
		rows, ok := got.(domain.Rows)
		require.True(t, ok, "expected rows, got %T", got)
		require.Len(t, rows, 2)

		assert.Equal(t, []string{"구분", "대출권수"}, rows[0].Keys())
		v, _ := rows[1].Get("구분")
		assert.Equal(t, domain.Text("대학원생"), v)
	})

	t.Run("header in the first row", func(t *testing.T) {
		t.Parallel()

		region := parse(t, `
			<table>
				<tr><th>요일</th><th>시간</th></tr>
				<tr><td>토요일</td><td>09:00–13:00</td></tr>
			</table>`)

		rows, ok := Table(region, "table").(domain.Rows)
		require.True(t, ok)
		require.Len(t, rows, 1)
		v, _ := rows[0].Get("시간")
		assert.Equal(t, domain.Text("09:00–13:00"), v)
	})

	t.Run("blank corner header", func(t *testing.T) {
		t.Parallel()

		region := parse(t, `
			<table>
				<thead><tr><th></th><th>평일</th><th>주말</th></tr></thead>
				<tbody><tr><td>자료실</td><td>09-18</td><td>휴관</td></tr></tbody>
			</table>`)

		rows, ok := Table(region, "table").(domain.Rows)
		require.True(t, ok, "expected rows")
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"", "평일", "주말"}, rows[0].Keys())
		v, _ := rows[0].Get("")
		assert.Equal(t, domain.Text("자료실"), v)
		v, _ = rows[0].Get("주말")
		assert.Equal(t, domain.Text("휴관"), v)
	})

	t.Run("key rows", func(t *testing.T) {
		t.Parallel()

		region := parse(t, `
			<table>
				<tr><th>개관시간</th><td><ul><li>평일 09:00</li><li>주말 10:00</li></ul></td></tr>
				<tr><td>연락처</td><td><span>내선 1234</span><span>내선 5678</span></td></tr>
				<tr><td>휴관일</td><td>일요일</td></tr>
				<tr><td colspan="3">안내 문구</td></tr>
			</table>`)

		m, ok := Table(region, "table").(*domain.Map)
		require.True(t, ok)
		assert.Equal(t, []string{"개관시간", "연락처", "휴관일"}, m.Keys())

		v, _ := m.Get("개관시간")
		assert.Equal(t, domain.List{"평일 09:00", "주말 10:00"}, v)
		v, _ = m.Get("연락처")
		assert.Equal(t, domain.List{"내선 1234", "내선 5678"}, v)
		v, _ = m.Get("휴관일")
		assert.Equal(t, domain.List{"일요일"}, v)
	})

	t.Run("no table", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Table(parse(t, `<p>표 없음</p>`), "table"))
	})
}

func TestContact(t *testing.T) {
	t.Parallel()

	cfg := config.ContactConfig{
		BlockSelector:  "div.contact2",
		ItemSelector:   "li",
		LabelSelector:  "span, strong",
		DepartmentKey:  "부서명",
		StripTelPrefix: true,
		TelPrefix:      "Tel",
	}

	t.Run("single department is unwrapped", func(t *testing.T) {
		t.Parallel()

		page := parse(t, `
			<div class="contact2"><ul>
				<li><strong>학술정보팀</strong></li>
				<li><span>전화</span> TEL. 02-123-4567</li>
				<li>Tel : 02-765-4321</li>
			</ul></div>`)

		got := Contact(page, cfg)
		assert.Equal(t, []string{"부서명", "전화", "_misc_3"}, got.Keys())

		v, _ := got.Get("부서명")
		assert.Equal(t, domain.Text("학술정보팀"), v)
		v, _ = got.Get("전화")
		assert.Equal(t, domain.Text("02-123-4567"), v)
		v, _ = got.Get("_misc_3")
		assert.Equal(t, domain.Text("02-765-4321"), v)
	})

	t.Run("several departments are keyed by name", func(t *testing.T) {
		t.Parallel()

		page := parse(t, `
			<div class="contact2"><ul><li><strong>열람지원팀</strong></li><li><span>이메일</span>read@library.test</li></ul></div>
			<div class="contact2"><ul><li><strong>대출반납팀</strong> 1층 데스크</li></ul></div>`)

		got := Contact(page, cfg)
		assert.Equal(t, []string{"열람지원팀", "대출반납팀"}, got.Keys())

		v, _ := got.Get("대출반납팀")
		second, ok := v.(*domain.Map)
		require.True(t, ok)
		dept, _ := second.Get("부서명")
		assert.Equal(t, domain.Text("1층 데스크"), dept)

		v, _ = got.Get("열람지원팀")
		first, ok := v.(*domain.Map)
		require.True(t, ok)
		mail, _ := first.Get("이메일")
		assert.Equal(t, domain.Text("read@library.test"), mail)
	})

	t.Run("repeated department names are kept apart", func(t *testing.T) {
		t.Parallel()

		page := parse(t, `
			<div class="contact2"><ul><li><strong>학술정보팀</strong></li><li><span>전화</span>02-111-1111</li></ul></div>
			<div class="contact2"><ul><li><strong>학술정보팀</strong></li><li><span>전화</span>02-222-2222</li></ul></div>`)

		got := Contact(page, cfg)
		assert.Equal(t, []string{"학술정보팀", "학술정보팀 (2)"}, got.Keys())

		v, _ := got.Get("학술정보팀 (2)")
		second, ok := v.(*domain.Map)
		require.True(t, ok)
		tel, _ := second.Get("전화")
		assert.Equal(t, domain.Text("02-222-2222"), tel)
	})

	t.Run("words starting with the prefix are kept", func(t *testing.T) {
		t.Parallel()

		page := parse(t, `
			<div class="contact2"><ul>
				<li><strong>홍보팀</strong></li>
				<li><span>SNS</span>Telegram 채널</li>
				<li>Tel02-333-3333</li>
			</ul></div>`)

		got := Contact(page, cfg)
		v, _ := got.Get("SNS")
		assert.Equal(t, domain.Text("Telegram 채널"), v)
		v, _ = got.Get("_misc_3")
		assert.Equal(t, domain.Text("02-333-3333"), v)
	})

	t.Run("no block", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 0, Contact(parse(t, `<p>없음</p>`), cfg).Len())
	})
}
