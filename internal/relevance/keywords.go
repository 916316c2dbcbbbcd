// Package relevance implements the Relevance Filter and Scorer of
// spec.md §4.4: five keyword tiers in Chinese and English, an admission
// rule, and a weighted scoring formula. Grounded on the original's
// processor/filter.py KeywordFilter.
package relevance

import "regexp"

// tier groups a keyword tier's English and (already case-sensitive,
// since Chinese has no case) Chinese patterns.
type tier struct {
	en []*regexp.Regexp
	zh []*regexp.Regexp
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile("(?i)"+p))
	}
	return out
}

func compileZH(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

var highValue = tier{
	en: compileAll([]string{
		`\bgpt-?5\b`, `\bclaude\s*(4|opus|sonnet)\b`, `\bgemini\s*(2|3|ultra)\b`,
		`\bbreakthrough\b`, `\bfrontier model\b`, `\bagi\b`,
	}),
	zh: compileZH([]string{`重大突破`, `颠覆性`, `里程碑`}),
}

var core = tier{
	en: compileAll([]string{
		`\bai\b`, `\bartificial intelligence\b`, `\bllm\b`, `\bmachine learning\b`,
		`\bneural network\b`, `\bgpt\b`, `\bclaude\b`, `\bgemini\b`, `\bopenai\b`,
		`\banthropic\b`, `\bdeepmind\b`, `\bchatbot\b`, `\bgenerative\b`,
	}),
	zh: compileZH([]string{
		`人工智能`, `大模型`, `大语言模型`, `机器学习`, `神经网络`, `生成式`, `智能体`,
	}),
}

var aux = tier{
	en: compileAll([]string{
		`\bstartup\b`, `\bfunding\b`, `\bvaluation\b`, `\bpartnership\b`,
		`\bresearch paper\b`, `\bbenchmark\b`,
	}),
	zh: compileZH([]string{`初创`, `融资`, `估值`, `合作`, `论文`, `基准测试`}),
}

var exclude = tier{
	en: compileAll([]string{
		`\bhoroscope\b`, `\blottery\b`, `\bcelebrity gossip\b`, `\bsports score\b`,
	}),
	zh: compileZH([]string{`星座运势`, `彩票`, `八卦`, `体育比分`}),
}

var lowSignal = tier{
	en: compileAll([]string{`\bsponsored\b`, `\badvertisement\b`, `\bclickbait\b`}),
	zh: compileZH([]string{`广告`, `赞助内容`}),
}

// gamingSignal is the gaming side-signal used only by the classifier.
var gamingSignal = tier{
	en: compileAll([]string{`\bnpc\b`, `\bvideo game\b`, `\bgame engine\b`, `\bunity\b`, `\bunreal engine\b`}),
	zh: compileZH([]string{`游戏`, `电竞`, `手游`}),
}

func (t tier) count(title, content string) ([]string, int) {
	text := title + " " + content
	var matched []string
	for _, p := range t.en {
		if p.MatchString(text) {
			matched = append(matched, p.String())
		}
	}
	for _, p := range t.zh {
		if p.MatchString(text) {
			matched = append(matched, p.String())
		}
	}
	return matched, len(matched)
}

func (t tier) any(title, content string) bool {
	_, n := t.count(title, content)
	return n > 0
}
