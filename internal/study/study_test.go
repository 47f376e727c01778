package study

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/couponlens/internal/segment"
	"github.com/KaramelBytes/couponlens/internal/survey"
)

func bar(freq, age, passenger, occupation, marital, y string) map[string]string {
	return map[string]string{
		"coupon": survey.CouponBar, "Bar": freq, "age": age, "passanger": passenger,
		"occupation": occupation, "maritalStatus": marital, "temperature": "55", "Y": y,
	}
}

func coffee(freq, age, gender, income, temp, y string) map[string]string {
	return map[string]string{
		"coupon": survey.CouponCoffeeHouse, "CoffeeHouse": freq, "age": age, "gender": gender,
		"income": income, "temperature": temp, "Y": y,
	}
}

func restaurant(coupon, freq, income, y string) map[string]string {
	return map[string]string{
		"coupon": coupon, "RestaurantLessThan20": freq, "income": income, "temperature": "80", "Y": y,
	}
}

func studyTable(t *testing.T, rows ...map[string]string) *survey.Table {
	t.Helper()
	if len(rows) == 0 {
		rows = []map[string]string{
			bar("never", "21", "Alone", "Student", "Single", "0"),
			bar("1~3", "31", "Friend(s)", "Sales & Related", "Married partner", "1"),
			bar("4~8", "26", "Kid(s)", "Student", "Single", "1"),
			bar("less1", "46", "Alone", "Farming Fishing & Forestry", "Widowed", "0"),
			bar("gt8", "below21", "Alone", "Student", "Single", "1"),
			coffee("1~3", "36", "Female", "$37500 - $49999", "80", "1"),
			coffee("never", "21", "Male", "$50000 - $62499", "55", "0"),
			coffee("gt8", "26", "Female", "Less than $12500", "30", "1"),
			restaurant(survey.CouponCheapRestaurant, "4~8", "$25000 - $37499", "1"),
			restaurant(survey.CouponExpensiveRestaurant, "never", "$100000 or More", "0"),
		}
	}
	tbl, err := survey.FromRows(survey.CouponSchema(), rows...)
	require.NoError(t, err)
	return survey.NewTable("coupons.csv", tbl.Schema(), tbl.Records())
}

func fixedNow() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestRun(t *testing.T) {
	rep, err := RunWithOptions(studyTable(t), Options{TemperatureBins: 5, Now: fixedNow}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NotEmpty(t, rep.ID)
	require.Equal(t, "coupons.csv", rep.Dataset)
	require.Equal(t, 10, rep.Rows)
	require.Equal(t, "0.60", rep.Overall.String())
	require.Equal(t, survey.CouponBar, rep.Coupons.Levels[0])
	require.Equal(t, 5, rep.Coupons.Row(0))
	require.Len(t, rep.Temperature, 5)
	require.Len(t, rep.Sections, 2)

	barSec := rep.Sections[0]
	require.Equal(t, 5, barSec.Overall.Size)
	require.Equal(t, "0.60", barSec.Overall.String())
	require.Len(t, barSec.Findings, 3)

	fewer := barSec.Findings[0].Contrast
	require.Equal(t, 3, fewer.Group.Size)
	require.Equal(t, "0.33", fewer.Group.String())
	require.Equal(t, "1.00", fewer.Others.String())
	require.Equal(t, segment.SideB, fewer.Comparison.Higher)
	require.Equal(t, "more than 3 a month higher by 0.67", barSec.Findings[0].Verdict)

	over25 := barSec.Findings[1].Contrast
	require.Equal(t, 2, over25.Group.Size)
	require.Equal(t, segment.SideA, over25.Comparison.Higher)

	noKids := barSec.Findings[2].Contrast
	require.Equal(t, 2, noKids.Group.Size, "kid passengers and farming are excluded")

	require.Len(t, barSec.Populations, 3)
	require.Equal(t, 2, barSec.Populations[0].Rate.Size)
	require.Equal(t, 2, barSec.Populations[1].Rate.Size)
	require.Equal(t, 1, barSec.Populations[2].Rate.Size)
	require.Len(t, barSec.Pairs, 3)
	require.Equal(t, "same acceptance rate", barSec.Pairs[0].Verdict)

	byAge := barSec.Breakdowns[1]
	require.Equal(t, "age", byAge.Column)
	total := 0
	for _, r := range byAge.Rates {
		total += r.Size
	}
	require.Equal(t, 3, total, "only drivers at bars at least monthly")

	coffeeSec := rep.Sections[1]
	require.Equal(t, "0.67", coffeeSec.Overall.String())
	c := coffeeSec.Findings[0].Contrast
	require.Equal(t, "1.00", c.Group.String())
	require.Equal(t, "0.00", c.Others.String())

	gender := coffeeSec.Breakdowns[0]
	require.Equal(t, []string{"Female", "Male"}, gender.Counts.Levels)
	require.Equal(t, "1.00", gender.Rates[0].String())
	require.Equal(t, "0.00", gender.Rates[1].String())
}

func TestRunReportsEmptyGroupsAsUndefined(t *testing.T) {
	tbl := studyTable(t,
		coffee("1~3", "36", "Female", "$37500 - $49999", "80", "1"),
		coffee("never", "21", "Male", "$50000 - $62499", "55", "0"),
	)
	rep, err := Run(tbl, nil)
	require.NoError(t, err)

	barSec := rep.Sections[0]
	require.False(t, barSec.Overall.Defined)
	require.Equal(t, "undefined", barSec.Overall.String())
	for _, f := range barSec.Findings {
		require.Nil(t, f.Contrast.Comparison)
		require.True(t, strings.HasPrefix(f.Verdict, "no comparison:"), f.Verdict)
	}
	for _, p := range barSec.Pairs {
		require.Nil(t, p.Comparison)
	}
	require.Contains(t, rep.Markdown(), "Proportion accepted: undefined (n=0)")
}

func TestAnswerRejectsUnknownValues(t *testing.T) {
	q := Question{
		ID:    "typo",
		Base:  []string{survey.CouponBar},
		Group: "kids",
		Where: segment.Eq("passanger", "kid"),
	}
	_, err := Answer(studyTable(t), q)
	var se *survey.SchemaError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "passanger", se.Column)
}

func TestQuestionsValidateAgainstSchema(t *testing.T) {
	s := survey.CouponSchema()
	for _, q := range append(BarQuestions(), CoffeeQuestions()...) {
		require.NoError(t, q.Where.Validate(s), q.ID)
	}
	for _, p := range BarPopulations() {
		require.NoError(t, p.Where.Validate(s), p.ID)
	}
}

func TestEncode(t *testing.T) {
	rep, err := RunWithOptions(studyTable(t), Options{Now: fixedNow}, nil)
	require.NoError(t, err)

	md, err := rep.Encode(FormatMarkdown)
	require.NoError(t, err)
	for _, want := range []string{
		"[OVERVIEW]",
		"Dataset: coupons.csv",
		"Proportion accepted: 0.60",
		"[COUPONS]",
		"- Bar: 5 offered, accepted 0.60",
		"[BAR COUPONS]",
		"where (Bar not in {never, less1} and age > 25)",
		"Independent groups:",
		"[COFFEE HOUSE COUPONS]",
	} {
		require.Contains(t, string(md), want)
	}

	js, err := rep.Encode(FormatJSON)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js, &decoded))
	require.Equal(t, 0.6, decoded["overall"].(map[string]any)["value"])
	require.Equal(t, rep.ID, decoded["id"])

	ym, err := rep.Encode(FormatYAML)
	require.NoError(t, err)
	var back Report
	require.NoError(t, yaml.Unmarshal(ym, &back))
	require.Equal(t, rep.Rows, back.Rows)
	require.Len(t, back.Sections, 2)
	require.Equal(t, rep.Sections[0].Findings[0].Verdict, back.Sections[0].Findings[0].Verdict)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tt := []struct {
		in   string
		want Format
		ext  string
	}{
		{in: "", want: FormatMarkdown, ext: ".md"},
		{in: "MD", want: FormatMarkdown, ext: ".md"},
		{in: "json", want: FormatJSON, ext: ".json"},
		{in: "yml", want: FormatYAML, ext: ".yaml"},
	}
	for i := range tt {
		tc := tt[i]

		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.ext, got.Ext())
		})
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
}
