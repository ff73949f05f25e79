package quiz

import "time"

// Bonuses are expressed in hundredths so points stay exact integers.

func TimeBonusPct(remaining, total time.Duration) int {
	if total <= 0 || remaining <= 0 {
		return 100
	}
	switch {
	case remaining*10 > total*7:
		return 150
	case remaining*2 > total:
		return 125
	case remaining*10 > total*3:
		return 110
	default:
		return 100
	}
}

func StreakBonusPct(streak int) int {
	switch {
	case streak >= 10:
		return 300
	case streak >= 5:
		return 200
	case streak >= 3:
		return 150
	default:
		return 100
	}
}

// Points is the award for a correct answer. streak includes this answer.
func Points(base int, remaining, total time.Duration, streak int) int {
	return base * TimeBonusPct(remaining, total) * StreakBonusPct(streak) / 10000
}
