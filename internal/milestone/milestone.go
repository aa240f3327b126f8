// Package milestone は寄付の累計額からマイルストーン（既定 $777 ごと）を導出する。
// 値は常に causes.raised_cents から計算し直し、別のカウンタとしては保存しない。
package milestone

// DefaultGoalCents は1マイルストーンの金額（$777）
const DefaultGoalCents int64 = 77700

// Progress は累計額から導出した現在の状態
type Progress struct {
	RaisedCents   int64   `json:"raised_cents"`
	GoalCents     int64   `json:"goal_cents"`
	Count         int64   `json:"milestone_count"`
	ProgressCents int64   `json:"progress_cents"`
	Percent       float64 `json:"percent"`
}

// Crossing は1回の加算で越えたマイルストーンの数
type Crossing struct {
	BeforeCount int64 `json:"before_count"`
	AfterCount  int64 `json:"after_count"`
	Crossed     int64 `json:"crossed"`
}

func normalizeGoal(goal int64) int64 {
	if goal <= 0 {
		return DefaultGoalCents
	}
	return goal
}

// Evaluate は count = floor(raised/goal), progress = raised mod goal を返す
func Evaluate(raisedCents, goalCents int64) Progress {
	goal := normalizeGoal(goalCents)
	raised := raisedCents
	if raised < 0 {
		raised = 0
	}

	progress := raised % goal
	percent := float64(progress) / float64(goal)
	if percent > 1.0 {
		percent = 1.0
	}

	return Progress{
		RaisedCents:   raised,
		GoalCents:     goal,
		Count:         raised / goal,
		ProgressCents: progress,
		Percent:       percent,
	}
}

// Cross は加算前後の累計額から越えたマイルストーン数を返す。
// 大口の寄付で複数越えた場合はその数をそのまま返す
func Cross(beforeCents, afterCents, goalCents int64) Crossing {
	before := Evaluate(beforeCents, goalCents).Count
	after := Evaluate(afterCents, goalCents).Count
	crossed := after - before
	if crossed < 0 {
		crossed = 0
	}
	return Crossing{BeforeCount: before, AfterCount: after, Crossed: crossed}
}

// Reached は1つ以上越えたかどうか
func (c Crossing) Reached() bool {
	return c.Crossed > 0
}
