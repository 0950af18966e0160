package voice

import "strings"

// Intent 表示语音输入的粗粒度意图。
type Intent string

// Tone 表示语音输入的情绪语气。
type Tone string

const (
	IntentRelaxation   Intent = "relaxation guidance"
	IntentBurnout      Intent = "burnout support"
	IntentProfessional Intent = "professional support search"
	IntentGratitude    Intent = "gratitude"
	IntentGeneral      Intent = "general conversation"
)

const (
	ToneVulnerable Tone = "vulnerable/sad"
	ToneAnxious    Tone = "anxious/fearful"
	TonePositive   Tone = "positive/uplifted"
	ToneFrustrated Tone = "frustrated/irritable"
	ToneNeutral    Tone = "neutral"
)

// Context is the derived classification of one transcript. It is never
// persisted; it only feeds Wrap.
type Context struct {
	Intent Intent `json:"intent"`
	Tone   Tone   `json:"tone"`
}

type intentBucket struct {
	intent   Intent
	keywords []string
}

type toneBucket struct {
	tone     Tone
	keywords []string
}

// Buckets are checked in order; the first bucket with a matching keyword wins.
var intentBuckets = []intentBucket{
	{IntentRelaxation, []string{"breath", "relax", "calm"}},
	{IntentBurnout, []string{"burnout", "tired", "exhausted", "stressed"}},
	{IntentProfessional, []string{"therapist", "doctor", "help"}},
	{IntentGratitude, []string{"thank", "appreciate"}},
}

var toneBuckets = []toneBucket{
	{ToneVulnerable, []string{"sad", "depressed", "crying", "hurts"}},
	{ToneAnxious, []string{"anxious", "panic", "scared"}},
	{TonePositive, []string{"happy", "good", "great", "excited"}},
	{ToneFrustrated, []string{"angry", "mad", "frustrated"}},
}

// Analyze 根据转写文本推断意图与语气。两者相互独立。
func Analyze(text string) Context {
	normalized := strings.ToLower(text)

	ctx := Context{Intent: IntentGeneral, Tone: ToneNeutral}
	for _, bucket := range intentBuckets {
		if containsAny(normalized, bucket.keywords) {
			ctx.Intent = bucket.intent
			break
		}
	}
	for _, bucket := range toneBuckets {
		if containsAny(normalized, bucket.keywords) {
			ctx.Tone = bucket.tone
			break
		}
	}
	return ctx
}

func containsAny(text string, keywords []string) bool {
	for _, word := range keywords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
