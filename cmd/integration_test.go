package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/couponlens/internal/project"
	"github.com/KaramelBytes/couponlens/internal/survey"
)

const couponHeader = "destination,passanger,weather,temperature,time,coupon,expiration,gender,age,maritalStatus," +
	"has_children,education,occupation,income,car,Bar,CoffeeHouse,CarryAway,RestaurantLessThan20," +
	"Restaurant20To50,toCoupon_GEQ5min,toCoupon_GEQ15min,toCoupon_GEQ25min,direction_same,direction_opp,Y"

func couponRow(coupon, temp, age, bar, coffee, y string) string {
	return fmt.Sprintf("No Urgent Place,Alone,Sunny,%s,2PM,%s,1d,Female,%s,Single,1,Some college - no degree,Unemployed,$37500 - $49999,,%s,%s,1~3,4~8,1~3,1,0,0,0,1,%s",
		temp, coupon, age, bar, coffee, y)
}

// writeSurvey writes a ten-row survey: five bar, three coffee house and two
// restaurant/carry-out coupons, seven of them accepted.
func writeSurvey(t *testing.T, dir string) string {
	t.Helper()
	rows := []string{
		couponRow(survey.CouponBar, "55", "21", "never", "never", "0"),
		couponRow(survey.CouponBar, "80", "31", "1~3", "never", "1"),
		couponRow(survey.CouponBar, "55", "26", "4~8", "never", "1"),
		couponRow(survey.CouponBar, "30", "46", "less1", "never", "0"),
		couponRow(survey.CouponBar, "80", "below21", "gt8", "never", "1"),
		couponRow(survey.CouponCoffeeHouse, "80", "36", "never", "1~3", "1"),
		couponRow(survey.CouponCoffeeHouse, "55", "21", "never", "never", "0"),
		couponRow(survey.CouponCoffeeHouse, "30", "26", "never", "gt8", "1"),
		couponRow(survey.CouponCheapRestaurant, "80", "21", "never", "never", "1"),
		couponRow(survey.CouponCarryOut, "55", "21", "never", "never", "1"),
	}
	path := filepath.Join(dir, "coupons.csv")
	if err := os.WriteFile(path, []byte(couponHeader+"\n"+strings.Join(rows, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write survey: %v", err)
	}
	return path
}

// isolate points HOME at a temp dir so config and projects stay private to the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("COUPONLENS_LOG_LEVEL", "error")
	return home
}

// resetFlags restores every flag to its default; flag variables are package
// globals that would otherwise leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func TestCLI_Init_Analyze_List(t *testing.T) {
	home := isolate(t)
	data := writeSurvey(t, home)

	mustRun(t, "init", "itest", "-d", "integration test", "--data", data)
	mustRun(t, "analyze", "-p", "itest", "--charts", "--chart-format", "text")

	projDir, err := resolveProjectDirByName("itest")
	if err != nil {
		t.Fatalf("resolve project: %v", err)
	}
	p, err := project.LoadProject(projDir)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	kinds := map[string]int{}
	for _, a := range p.SortedArtifacts() {
		kinds[a.Kind]++
		if _, err := os.Stat(p.Path(a.Path)); err != nil {
			t.Fatalf("artifact %s missing on disk: %v", a.Path, err)
		}
	}
	if kinds[project.KindReport] != 1 || kinds[project.KindProfile] != 1 {
		t.Fatalf("unexpected artifact kinds: %v", kinds)
	}
	if kinds[project.KindChart] < 2 {
		t.Fatalf("expected coupon and temperature charts at least, got %d", kinds[project.KindChart])
	}

	var report string
	for _, a := range p.SortedArtifacts() {
		if a.Kind == project.KindReport {
			b, err := os.ReadFile(p.Path(a.Path))
			if err != nil {
				t.Fatalf("read report: %v", err)
			}
			report = string(b)
		}
	}
	for _, want := range []string{"[OVERVIEW]", "Proportion accepted: 0.70", "[BAR COUPONS]", "[COFFEE HOUSE COUPONS]"} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}

	out := mustRun(t, "list", "--artifacts", "-p", "itest")
	if !strings.Contains(out, "[report]") || !strings.Contains(out, "dataset: "+data) {
		t.Fatalf("unexpected list output:\n%s", out)
	}
	out = mustRun(t, "list", "--projects")
	if !strings.Contains(out, "- itest (") {
		t.Fatalf("project not listed:\n%s", out)
	}
	if _, err := runCmd(t, "init", "itest"); err == nil {
		t.Fatalf("expected error initializing an existing project")
	}
}

func TestCLI_AnalyzeJSON(t *testing.T) {
	home := isolate(t)
	data := writeSurvey(t, home)

	out := mustRun(t, "analyze", data, "--format", "json")
	var rep struct {
		Rows    int `json:"rows"`
		Overall struct {
			Value float64 `json:"value"`
		} `json:"overall"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if rep.Rows != 10 || rep.Overall.Value != 0.7 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	dest := filepath.Join(home, "out", "report.yaml")
	mustRun(t, "analyze", data, "--format", "yaml", "--output", dest)
	if b, err := os.ReadFile(dest); err != nil || !strings.Contains(string(b), "rows: 10") {
		t.Fatalf("yaml report not written: %v", err)
	}
}

func TestCLI_Segment(t *testing.T) {
	home := isolate(t)
	data := writeSurvey(t, home)

	out := mustRun(t, "segment", data, "--coupon", survey.CouponBar,
		"--where", "Bar notin never,less1", "--where", "age > 25", "--name", "regulars over 25")
	for _, want := range []string{
		"where (Bar not in {never, less1} and age > 25)",
		"- regulars over 25: 1.00 (n=2, accepted 2)",
		"- others: 0.33 (n=3, accepted 1)",
		"Comparison: regulars over 25 higher by 0.67",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("segment output missing %q:\n%s", want, out)
		}
	}

	_, err := runCmd(t, "segment", data, "--where", "passanger = kid")
	var se *survey.SchemaError
	if !errors.As(err, &se) || se.Column != "passanger" {
		t.Fatalf("expected schema error on passanger, got %v", err)
	}
	if _, err := runCmd(t, "segment", data, "--coupon", "Pizza", "--where", "age > 25"); !errors.As(err, &se) {
		t.Fatalf("expected schema error on coupon, got %v", err)
	}
	if _, err := runCmd(t, "segment", data); err == nil {
		t.Fatalf("expected error without --where")
	}
}

func TestCLI_RatesAndPlot(t *testing.T) {
	home := isolate(t)
	data := writeSurvey(t, home)

	out := mustRun(t, "rates", data, "--column", "Bar", "--coupon", survey.CouponBar)
	if !strings.Contains(out, "Acceptance rate by Bar") || !strings.Contains(out, "gt8") || !strings.Contains(out, "█") {
		t.Fatalf("unexpected rates output:\n%s", out)
	}

	out = mustRun(t, "plot", data, "--column", "coupon", "--hue", "Y", "--format", "text")
	if !strings.Contains(out, "Count of coupon by Y") || !strings.Contains(out, "Y=1") {
		t.Fatalf("unexpected plot output:\n%s", out)
	}

	dest := filepath.Join(home, "charts", "temperature.png")
	mustRun(t, "plot", data, "--column", "temperature", "--output", dest)
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("png not written: %v", err)
	}
}

func TestCLI_Profile(t *testing.T) {
	home := isolate(t)
	data := writeSurvey(t, home)

	out := mustRun(t, "profile", data, "--sample-rows", "2", "--group-by", "coupon")
	for _, want := range []string{"[DATASET SUMMARY]", "[CLEANING]", "Rows: 10 -> 10", "Ignored columns: car", "[GROUP-BY SUMMARY]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("profile missing %q:\n%s", want, out)
		}
	}
	out = mustRun(t, "profile", data, "--raw")
	if strings.Contains(out, "[CLEANING]") {
		t.Fatalf("raw profile should not clean:\n%s", out)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	isolate(t)

	mustRun(t, "config", "set", "report_format", "yaml")
	mustRun(t, "config", "set", "drop_columns", "car,direction_opp")
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "report_format: yaml") || !strings.Contains(out, "- direction_opp") {
		t.Fatalf("unexpected config:\n%s", out)
	}
	for _, args := range [][]string{
		{"config", "set", "report_format", "xml"},
		{"config", "set", "numeric_missing", "guess"},
		{"config", "set", "api_key", "x"},
	} {
		if _, err := runCmd(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestCLI_ProjectSettings(t *testing.T) {
	home := isolate(t)
	data := writeSurvey(t, home)

	mustRun(t, "init", "settings")
	mustRun(t, "project", "set-data", "-p", "settings", data)
	mustRun(t, "project", "set-format", "-p", "settings", "json")
	mustRun(t, "project", "set-format", "-p", "settings", "--chart", "text")
	if _, err := runCmd(t, "project", "set-format", "-p", "settings", "xml"); err == nil {
		t.Fatalf("expected error for unknown report format")
	}

	p, err := openProject("settings")
	if err != nil {
		t.Fatalf("open project: %v", err)
	}
	if p.Dataset != data || p.Config.ReportFormat != "json" || p.Config.ChartFormat != "text" {
		t.Fatalf("settings not saved: dataset=%q config=%+v", p.Dataset, p.Config)
	}

	mustRun(t, "analyze", "-p", "settings")
	p, err = openProject("settings")
	if err != nil {
		t.Fatalf("reopen project: %v", err)
	}
	found := false
	for _, a := range p.SortedArtifacts() {
		if a.Kind == project.KindReport && strings.HasSuffix(a.Path, "report.json") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a json report artifact, got %+v", p.SortedArtifacts())
	}

	mustRun(t, "project", "set-format", "-p", "settings", "--clear")
	p, _ = openProject("settings")
	if p.Config.ReportFormat != "" {
		t.Fatalf("report format not cleared: %q", p.Config.ReportFormat)
	}
}

func TestCLI_LogFlagsAndFileOutput(t *testing.T) {
	home := isolate(t)
	data := writeSurvey(t, home)

	if _, err := runCmd(t, "list", "--projects", "--log-level", "loud"); err == nil {
		t.Fatalf("expected error for an invalid --log-level")
	}

	logPath := filepath.Join(home, "logs", "couponlens.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	t.Setenv("COUPONLENS_LOG_OUTPUT", logPath)
	mustRun(t, "rates", data, "--column", "Bar", "--log-level", "info", "--log-format", "json")

	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"message":"loaded survey"`) {
		t.Fatalf("flags did not override the configured logger:\n%s", b)
	}
}
