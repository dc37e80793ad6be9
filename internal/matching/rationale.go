// internal/matching/rationale.go
package matching

import (
	"fmt"

	"school-match-workers/internal/models"
)

const (
	KeyPointTopRanking = "顶尖排名优势"

	ProMajorMatch  = "专业高度匹配,课程设置符合职业发展方向"
	ProGoodValue   = "学费在合理预算范围内,性价比高"
	ConCompetitive = "录取竞争激烈,需要提升背景竞争力"
	ConExpensive   = "学费较高,可能超出预期预算"
	ConLowRanking  = "排名相对靠后,声誉需考量"
	SuggestProfile = "建议提高GPA、准备更强的文书材料"
	SuggestFunding = "建议申请奖学金或考虑兼职机会"
	proTopRankingF = "世界一流名校,排名%s"
	proLocationF   = "地理位置优越: %s"
)

type tierAdvice struct {
	keyPoint   string
	suggestion string
}

// tierAdvices holds one entry per models.SchoolTypes.
var tierAdvices = map[models.SchoolType]tierAdvice{
	models.TypeReach:  {"🎯 冲刺校 - 有挑战但值得一试", "作为冲刺目标,需要准备最强材料"},
	models.TypeTarget: {"✅ 目标校 - 最佳匹配选择", "重点准备,争取录取"},
	models.TypeSafety: {"🛡️ 保底校 - 稳妥选择", "作为保底,确保有学可上"},
}

// adviceFor falls back to target advice for an unknown tier.
func adviceFor(tier models.SchoolType) tierAdvice {
	if a, ok := tierAdvices[tier]; ok {
		return a
	}
	return tierAdvices[models.TypeTarget]
}

// Explain derives the rationale lists from a score and tier. The tier always
// contributes exactly one key point and one suggestion.
func Explain(school models.School, _ models.Program, score models.MatchScore, tier models.SchoolType) models.RecommendationReason {
	reason := models.RecommendationReason{
		Pros:        []string{},
		Cons:        []string{},
		KeyPoints:   []string{},
		Suggestions: []string{},
	}
	b := score.Breakdown

	if b.Ranking >= 80 {
		reason.Pros = append(reason.Pros, fmt.Sprintf(proTopRankingF, school.RankingLabel()))
		reason.KeyPoints = append(reason.KeyPoints, KeyPointTopRanking)
	}
	if b.Program >= 80 {
		reason.Pros = append(reason.Pros, ProMajorMatch)
	}
	if b.Cost >= 70 {
		reason.Pros = append(reason.Pros, ProGoodValue)
	}
	if b.Location >= 80 {
		reason.Pros = append(reason.Pros, fmt.Sprintf(proLocationF, school.Location))
	}

	if b.Admission < 50 {
		reason.Cons = append(reason.Cons, ConCompetitive)
		reason.Suggestions = append(reason.Suggestions, SuggestProfile)
	}
	if b.Cost < 50 {
		reason.Cons = append(reason.Cons, ConExpensive)
		reason.Suggestions = append(reason.Suggestions, SuggestFunding)
	}
	if b.Ranking < 60 {
		reason.Cons = append(reason.Cons, ConLowRanking)
	}

	advice := adviceFor(tier)
	reason.KeyPoints = append(reason.KeyPoints, advice.keyPoint)
	reason.Suggestions = append(reason.Suggestions, advice.suggestion)
	return reason
}
