package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-mpfile-service/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		cell  models.Cell
		want  time.Time
		valid bool
	}{
		{"serial", models.NumberCell(43466), date(2019, time.January, 1), true},
		{"serial with time of day", models.NumberCell(43466.75), date(2019, time.January, 1), true},
		{"small number is not a date", models.NumberCell(25000), time.Time{}, false},
		{"threshold itself is not a date", models.NumberCell(30000), time.Time{}, false},
		{"day first", models.TextCell("15/01/2020"), date(2020, time.January, 15), true},
		{"ambiguous reads day first", models.TextCell("03/04/2020"), date(2020, time.April, 3), true},
		{"single digits", models.TextCell("3/4/2020"), date(2020, time.April, 3), true},
		{"dashes", models.TextCell("15-01-2020"), date(2020, time.January, 15), true},
		{"iso", models.TextCell("2020-01-15"), date(2020, time.January, 15), true},
		{"iso with time", models.TextCell("2020-01-15 00:00:00"), date(2020, time.January, 15), true},
		{"month name", models.TextCell("15-Jan-2020"), date(2020, time.January, 15), true},
		{"month first fallback", models.TextCell("12/25/2020"), date(2020, time.December, 25), true},
		{"twelve hour clock", models.TextCell("15/01/2020 10:30 AM"), date(2020, time.January, 15), true},
		{"twelve hour clock with seconds", models.TextCell("15/01/2020 10:30:00 AM"), date(2020, time.January, 15), true},
		{"dotted iso", models.TextCell("2020.01.15"), date(2020, time.January, 15), true},
		{"day month comma year", models.TextCell("15 Jan, 2020"), date(2020, time.January, 15), true},
		{"month name without comma", models.TextCell("January 15 2020"), date(2020, time.January, 15), true},
		{"numeric text is not a serial", models.TextCell("43466"), time.Time{}, false},
		{"garbage", models.TextCell("not a date"), time.Time{}, false},
		{"impossible date", models.TextCell("31/02/2020"), time.Time{}, false},
		{"empty", models.EmptyCell(), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.cell)
			require.Equal(t, tt.valid, ok)
			if ok {
				assert.True(t, got.Equal(tt.want), "NormalizeDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromSerialBounds(t *testing.T) {
	_, ok := FromSerial(math.Inf(1))
	assert.False(t, ok, "infinite serial should be invalid")

	_, ok = FromSerial(1e9)
	assert.False(t, ok, "serial beyond year 9999 should be invalid")

	got, ok := FromSerial(0)
	require.True(t, ok)
	assert.True(t, got.Equal(ExcelEpoch))
}

func TestYYYYMMDD(t *testing.T) {
	assert.Equal(t, int64(19850307), YYYYMMDD(date(1985, time.March, 7)))
}

func TestMaturityDate(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		term  float64
		want  time.Time
	}{
		{"whole years", date(2020, time.January, 15), 24, date(2022, time.January, 15)},
		{"years and months", date(2020, time.January, 15), 13, date(2021, time.February, 15)},
		// 1 year, 1 month, then 15 days on top of 2021-02-15
		{"half month as days", date(2020, time.January, 15), 13.5, date(2021, time.March, 2)},
		{"clipped to month end", date(2020, time.January, 31), 1, date(2020, time.February, 29)},
		{"clipped in a common year", date(2021, time.January, 31), 1, date(2021, time.February, 28)},
		{"fraction truncates days", date(2020, time.January, 1), 0.1, date(2020, time.January, 4)},
		{"negative term", date(2020, time.July, 15), -6, date(2020, time.January, 15)},
		{"long term", date(2000, time.February, 29), 120, date(2010, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MaturityDate(tt.start, tt.term)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Format("2006-01-02"), got.Format("2006-01-02"))
		})
	}
}

func TestMaturityDateErrors(t *testing.T) {
	start := date(2020, time.January, 15)

	_, err := MaturityDate(start, 0)
	assert.ErrorIs(t, err, ErrZeroTerm)

	for _, term := range []float64{math.NaN(), math.Inf(-1), 1e20} {
		_, err := MaturityDate(start, term)
		assert.ErrorIs(t, err, ErrInvalidTerm, "term %v", term)
	}
}

func TestIsPlainNumber(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1500", true},
		{"1500.50", true},
		{".5", true},
		{"1500.", true},
		{"1.2.3", false},
		{"-5", false},
		{"1,500", false},
		{"1e3", false},
		{" 15", false},
		{"", false},
		{".", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlainNumber(tt.input))
		})
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name string
		cell models.Cell
		want string
	}{
		{"plain text", models.TextCell("1500.50"), "1500.5"},
		{"leading dot", models.TextCell(".25"), "0.25"},
		{"trailing dot", models.TextCell("10."), "10"},
		{"negative text", models.TextCell("-5"), "0"},
		{"thousands separator", models.TextCell("1,500"), "0"},
		{"number", models.NumberCell(250000), "250000"},
		{"negative number", models.NumberCell(-1), "0"},
		{"empty", models.EmptyCell(), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(tt.cell)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "Amount() = %s, want %s", got, tt.want)
		})
	}
}

func TestWholeNumber(t *testing.T) {
	tests := []struct {
		name string
		cell models.Cell
		want int64
		ok   bool
	}{
		{"digits", models.TextCell("000123"), 123, true},
		{"dotted", models.TextCell("123.0"), 0, false},
		{"alphanumeric", models.TextCell("P-123"), 0, false},
		{"overflow", models.TextCell("99999999999999999999"), 0, false},
		{"integral number", models.NumberCell(24), 24, true},
		{"fractional number", models.NumberCell(24.5), 0, false},
		{"negative number", models.NumberCell(-24), 0, false},
		{"empty", models.EmptyCell(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WholeNumber(tt.cell)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerm(t *testing.T) {
	tests := []struct {
		name string
		cell models.Cell
		want float64
		ok   bool
	}{
		{"integer text", models.TextCell("24"), 24, true},
		{"fraction text", models.TextCell("13.5"), 13.5, true},
		{"negative text", models.TextCell("-6"), -6, true},
		{"number", models.NumberCell(120), 120, true},
		{"word", models.TextCell("twelve"), 0, false},
		{"nan text", models.TextCell("NaN"), 0, false},
		{"empty", models.EmptyCell(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Term(tt.cell)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToken(t *testing.T) {
	assert.Equal(t, "male", Token(models.TextCell("  MALE ")))
	assert.Equal(t, "1", Token(models.NumberCell(1)))
}
