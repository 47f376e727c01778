package study

import (
	"github.com/KaramelBytes/couponlens/internal/segment"
	"github.com/KaramelBytes/couponlens/internal/survey"
)

// Question is one group-versus-rest comparison over a coupon subset.
type Question struct {
	ID     string            `json:"id" yaml:"id"`
	Title  string            `json:"title" yaml:"title"`
	Base   []string          `json:"base" yaml:"base"`
	Group  string            `json:"group" yaml:"group"`
	Others string            `json:"others" yaml:"others"`
	Where  segment.Predicate `json:"-" yaml:"-"`
}

// Population is a sub-population measured on its own, without a complement.
type Population struct {
	ID    string
	Title string
	Base  []string
	Where segment.Predicate
}

var restaurants = []string{survey.CouponCheapRestaurant, survey.CouponExpensiveRestaurant}

// BarQuestions compares acceptance of bar coupons across driver groups.
func BarQuestions() []Question {
	bar := []string{survey.CouponBar}
	return []Question{
		{
			ID:     "bar-3-or-fewer",
			Title:  "Bar visits 3 or fewer times a month vs more",
			Base:   bar,
			Group:  "3 or fewer a month",
			Others: "more than 3 a month",
			Where:  segment.In("Bar", survey.FreqNever, survey.FreqLessThanOne, survey.FreqOneToThree),
		},
		{
			ID:     "bar-monthly-over-25",
			Title:  "Bar more than once a month and over 25",
			Base:   bar,
			Group:  "monthly, over 25",
			Others: segment.OthersName,
			Where:  segment.And(segment.AtLeastMonthly("Bar"), segment.Gt("age", 25)),
		},
		{
			ID:     "bar-monthly-no-kids-not-farming",
			Title:  "Bar more than once a month, no kid passengers, not farming, fishing or forestry",
			Base:   bar,
			Group:  "monthly, no kids, not farming",
			Others: segment.OthersName,
			Where: segment.And(
				segment.AtLeastMonthly("Bar"),
				segment.Ne("passanger", "Kid(s)"),
				segment.Ne("occupation", "Farming Fishing & Forestry"),
			),
		},
	}
}

// BarPopulations are the three independent groups compared for bar coupons.
// The third is drawn from restaurant coupons rather than bar coupons.
func BarPopulations() []Population {
	return []Population{
		{
			ID:    "monthly-no-kids-not-widowed",
			Title: "Bar more than once a month, no kid passengers, not widowed",
			Base:  []string{survey.CouponBar},
			Where: segment.And(
				segment.AtLeastMonthly("Bar"),
				segment.Ne("passanger", "Kid(s)"),
				segment.Ne("maritalStatus", "Widowed"),
			),
		},
		{
			ID:    "monthly-under-30",
			Title: "Bar more than once a month and under 30",
			Base:  []string{survey.CouponBar},
			Where: segment.And(segment.AtLeastMonthly("Bar"), segment.Lt("age", 30)),
		},
		{
			ID:    "cheap-restaurants-under-50k",
			Title: "Cheap restaurants more than 4 times a month and income under 50K",
			Base:  restaurants,
			Where: segment.And(
				segment.In("RestaurantLessThan20", survey.FreqFourToEight, survey.FreqMoreThan8),
				segment.Lt("income", 50000),
			),
		},
	}
}

// CoffeeQuestions compares acceptance of coffee house coupons.
func CoffeeQuestions() []Question {
	return []Question{
		{
			ID:     "coffee-monthly-over-25",
			Title:  "Coffee house more than once a month and over 25",
			Base:   []string{survey.CouponCoffeeHouse},
			Group:  "monthly, over 25",
			Others: segment.OthersName,
			Where:  segment.And(segment.AtLeastMonthly("CoffeeHouse"), segment.Gt("age", 25)),
		},
	}
}

type breakdownSpec struct {
	name   string
	title  string
	column string
	hue    bool
	where  segment.Predicate
}

func barBreakdowns() []breakdownSpec {
	return []breakdownSpec{
		{name: "bar-frequency", title: "Bar visits per month vs acceptance", column: "Bar", hue: true},
		{name: "bar-age-monthly", title: "Acceptance by age, bar more than once a month", column: "age", where: segment.AtLeastMonthly("Bar")},
	}
}

func coffeeBreakdowns() []breakdownSpec {
	return []breakdownSpec{
		{name: "coffee-gender", title: "Coffee house acceptance by gender", column: "gender", hue: true},
		{name: "coffee-income", title: "Coffee house acceptance by income", column: "income"},
		{name: "coffee-age", title: "Coffee house acceptance by age", column: "age", hue: true},
		{name: "coffee-temperature", title: "Coffee house acceptance by temperature", column: "temperature", hue: true},
	}
}
