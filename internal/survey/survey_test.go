package survey

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

var couponHeader = "destination,passanger,weather,temperature,time,coupon,expiration,gender,age,maritalStatus," +
	"has_children,education,occupation,income,car,Bar,CoffeeHouse,CarryAway,RestaurantLessThan20," +
	"Restaurant20To50,toCoupon_GEQ5min,toCoupon_GEQ15min,toCoupon_GEQ25min,direction_same,direction_opp,Y"

var couponRows = []string{
	`No Urgent Place,Alone,Sunny,55,2PM,Restaurant(<20),1d,Female,21,Unmarried partner,1,Some college - no degree,Unemployed,$37500 - $49999,,never,never,,4~8,1~3,1,0,0,0,1,1`,
	`No Urgent Place,Friend(s),Sunny,80,10AM,Coffee House,2h,Female,21,Unmarried partner,1,Some college - no degree,Unemployed,$37500 - $49999,,never,never,4~8,4~8,1~3,1,0,0,0,1,0`,
	`Home,Alone,Rainy,55,6PM,Bar,1d,Male,50plus,Widowed,0,Bachelors degree,Retired,Less than $12500,,gt8,less1,1~3,1~3,never,1,1,0,1,0,1`,
	`Home,Alone,Rainy,55,6PM,Bar,1d,Male,50plus,Widowed,0,Bachelors degree,Retired,Less than $12500,,gt8,less1,1~3,1~3,never,1,1,0,1,0,1`,
}

func writeCSV(t *testing.T, rows ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "coupons.csv")
	body := couponHeader + "\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func TestLoadFileParsesTypedFields(t *testing.T) {
	path := writeCSV(t, couponRows...)
	tbl, rep, err := LoadFile(path, CouponSchema(), LoadOptions{Strict: true})
	require.NoError(t, err)
	require.Equal(t, "coupons.csv", rep.Name)
	require.Equal(t, 4, rep.Rows)
	require.Equal(t, 4, tbl.Len())

	r := tbl.At(2)
	require.True(t, r.Accepted())
	age := r.Get("age")
	require.Equal(t, "50plus", age.Raw)
	require.Equal(t, 50.0, age.Num)
	income := r.Get("income")
	require.Equal(t, 0.0, income.Num)
	require.True(t, r.Get("car").Missing)
	require.Equal(t, 1, tbl.Duplicates())
}

func TestLoadMissingHeaderColumn(t *testing.T) {
	in := strings.NewReader("destination,Y\nHome,1\n")
	_, _, err := Load(in, CouponSchema(), LoadOptions{})
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "passanger", se.Column)
}

func TestLoadStrictAggregatesFieldErrors(t *testing.T) {
	bad := strings.Replace(couponRows[0], "Unmarried partner", "Engaged", 1)
	bad = strings.Replace(bad, ",21,", ",twenty,", 1)
	path := writeCSV(t, bad, couponRows[1])

	_, _, err := LoadFile(path, CouponSchema(), LoadOptions{Strict: true})
	var pe *ParseErrors
	require.ErrorAs(t, err, &pe)
	require.Len(t, pe.Fields, 2)
	require.Equal(t, map[string]int{"age": 1, "maritalStatus": 1}, pe.ByColumn())

	tbl, rep, err := LoadFile(path, CouponSchema(), LoadOptions{})
	require.NoError(t, err)
	require.Len(t, rep.Issues, 2)
	require.True(t, tbl.At(0).Get("age").Missing)
}

func TestCleanDropsImputesAndDedupes(t *testing.T) {
	path := writeCSV(t, couponRows...)
	raw, _, err := LoadFile(path, CouponSchema(), LoadOptions{Strict: true})
	require.NoError(t, err)

	clean, rep, err := Clean(raw, DefaultCleanPolicy(), zaptest.NewLogger(t))
	require.NoError(t, err)
	// row 1 has no CarryAway value and is dropped; rows 3 and 4 are duplicates.
	require.Equal(t, 4, rep.InputRows)
	require.Equal(t, 1, rep.Dropped)
	require.Equal(t, 1, rep.Duplicates)
	require.Equal(t, 2, rep.OutputRows)
	require.Equal(t, map[string]int{"CarryAway": 1}, rep.Missing)
	require.Equal(t, 2, clean.Len())
	require.Equal(t, 4, raw.Len(), "input table must not change")

	md := rep.Markdown()
	require.Contains(t, md, "Rows: 4 -> 2")
	require.Contains(t, md, "- CarryAway: 1 missing")
	require.Contains(t, md, "Ignored columns: car")

	for _, r := range clean.Records() {
		_, ok := r.Label()
		require.True(t, ok)
	}
}

func TestCleanImputesNumericMean(t *testing.T) {
	rows := []map[string]string{
		{"temperature": "30", "Y": "1", "coupon": CouponBar},
		{"temperature": "80", "Y": "0", "coupon": CouponBar},
		{"temperature": "", "Y": "1", "coupon": CouponBar},
	}
	schema := NewSchema(
		Column{Name: "temperature", Kind: Numeric, Required: true, Order: parseFloat},
		categorical("coupon", CouponBar),
		binary(LabelColumn),
	)
	tbl, err := FromRows(schema, rows...)
	require.NoError(t, err)

	clean, rep, err := Clean(tbl, CleanPolicy{Numeric: Impute, Categorical: Drop}, nil)
	require.NoError(t, err)
	require.Equal(t, 3, clean.Len())
	require.Equal(t, 55.0, rep.Imputed["temperature"])
	require.Equal(t, 55.0, clean.At(2).Get("temperature").Num)

	_, _, err = Clean(tbl, CleanPolicy{Numeric: Fail}, nil)
	var me *MissingDataError
	require.ErrorAs(t, err, &me)
	require.Equal(t, "temperature", me.Column)
	require.Equal(t, 1, me.Rows)
}

func TestCleanLogsFirstMissingColumnInSchemaOrder(t *testing.T) {
	schema := NewSchema(
		categorical("weather", "Sunny"),
		categorical("passanger", "Alone"),
		categorical("coupon", CouponBar),
		binary(LabelColumn),
	)
	tbl, err := FromRows(schema,
		map[string]string{"coupon": CouponBar, "Y": "1"},
		map[string]string{"weather": "Sunny", "passanger": "Alone", "coupon": CouponBar, "Y": "0"},
	)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		core, logs := observer.New(zapcore.DebugLevel)
		clean, rep, err := Clean(tbl, CleanPolicy{Categorical: Drop}, zap.New(core))
		require.NoError(t, err)
		require.Equal(t, 1, clean.Len())
		require.Equal(t, 1, rep.Dropped)

		dropped := logs.FilterMessage("dropped row").All()
		require.Len(t, dropped, 1)
		require.Equal(t, "weather", dropped[0].ContextMap()["column"])
	}
}

func TestCleanNeverImputesLabel(t *testing.T) {
	tbl, err := FromRows(CouponSchema(), map[string]string{"coupon": CouponBar, "Y": ""})
	require.NoError(t, err)

	_, _, err = Clean(tbl, CleanPolicy{Ignore: CouponSchema().Names()[:25], Categorical: Impute}, nil)
	var me *MissingDataError
	require.True(t, errors.As(err, &me))
	require.Equal(t, LabelColumn, me.Column)

	_, _, err = Clean(tbl, CleanPolicy{Ignore: []string{LabelColumn}}, nil)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
}

func TestBrackets(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		fn   func(string) (float64, error)
		in   string
		want float64
	}{
		{name: "age below21", fn: AgeYears, in: "below21", want: 20},
		{name: "age 26", fn: AgeYears, in: "26", want: 26},
		{name: "age 50plus", fn: AgeYears, in: "50plus", want: 50},
		{name: "income lowest", fn: IncomeLowerBound, in: "Less than $12500", want: 0},
		{name: "income range", fn: IncomeLowerBound, in: "$37500 - $49999", want: 37500},
		{name: "income top", fn: IncomeLowerBound, in: "$100000 or More", want: 100000},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := tc.fn(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseMissingPolicy(t *testing.T) {
	p, err := ParseMissingPolicy(" Drop ")
	require.NoError(t, err)
	require.Equal(t, Drop, p)

	_, err = ParseMissingPolicy("guess")
	require.Error(t, err)
}
