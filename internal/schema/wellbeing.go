package schema

import "time"

// AssessmentKind 是自评问卷类型。
type AssessmentKind string

const (
	AssessmentAnxiety AssessmentKind = "anxiety"
	AssessmentStress  AssessmentKind = "stress"
	AssessmentLowMood AssessmentKind = "low_mood"
)

// MeditationKind 是冥想练习类型。
type MeditationKind string

const (
	MeditationBreathing   MeditationKind = "breathing"
	MeditationMindfulness MeditationKind = "mindfulness"
	MeditationSleep       MeditationKind = "sleep"
	MeditationMusic       MeditationKind = "music"
)

// MoodEntry 心情记录，mood 取值 1-10。
type MoodEntry struct {
	Mood int        `json:"mood" validate:"gte=1,lte=10"`
	Note *string    `json:"note" validate:"omitempty,max=500"`
	Tags []string   `json:"tags"`
	Date *time.Time `json:"date"`
}

func (MoodEntry) RecordKind() Kind { return KindMoodEntry }

func decodeMoodEntry(r *reader, now time.Time) Record {
	entry := MoodEntry{
		Mood: r.requiredInt("mood"),
		Note: r.optionalString("note"),
		Tags: r.stringListOrEmpty("tags"),
		Date: r.optionalTime("date"),
	}
	if entry.Date == nil && !r.rejected["date"] {
		stamped := now
		entry.Date = &stamped
	}
	return entry
}

// Worry 是一条"释放烦恼"记录。
type Worry struct {
	Text      string `json:"text" validate:"min=1,max=1000"`
	Intensity *int   `json:"intensity" validate:"omitempty,gte=1,lte=10"`
}

func (Worry) RecordKind() Kind { return KindWorry }

func decodeWorry(r *reader, _ time.Time) Record {
	return Worry{
		Text:      r.requiredString("text"),
		Intensity: r.optionalInt("intensity"),
	}
}

// AssessmentResult 保存一次自评结果，score 取值 0-21。
type AssessmentResult struct {
	Kind        AssessmentKind `json:"kind" validate:"oneof=anxiety stress low_mood"`
	Score       int            `json:"score" validate:"gte=0,lte=21"`
	Explanation *string        `json:"explanation"`
	Plan        []string       `json:"plan"`
}

func (AssessmentResult) RecordKind() Kind { return KindAssessmentResult }

func decodeAssessmentResult(r *reader, _ time.Time) Record {
	return AssessmentResult{
		Kind:        AssessmentKind(r.requiredString("kind")),
		Score:       r.requiredInt("score"),
		Explanation: r.optionalString("explanation"),
		Plan:        r.optionalStringList("plan"),
	}
}

// CrisisPlan 危机应对计划，steps 至少包含一步。
type CrisisPlan struct {
	Title    string   `json:"title" validate:"max=100"`
	Steps    []string `json:"steps" validate:"min=1"`
	Contacts []string `json:"contacts"`
}

func (CrisisPlan) RecordKind() Kind { return KindCrisisPlan }

func decodeCrisisPlan(r *reader, _ time.Time) Record {
	return CrisisPlan{
		Title:    r.requiredString("title"),
		Steps:    r.requiredStringList("steps"),
		Contacts: r.optionalStringList("contacts"),
	}
}

// ThoughtChallenge is a CBT-style thought record.
type ThoughtChallenge struct {
	Situation       string  `json:"situation"`
	Thought         string  `json:"thought"`
	EvidenceFor     *string `json:"evidence_for"`
	EvidenceAgainst *string `json:"evidence_against"`
	Reframe         *string `json:"reframe"`
}

func (ThoughtChallenge) RecordKind() Kind { return KindThoughtChallenge }

func decodeThoughtChallenge(r *reader, _ time.Time) Record {
	return ThoughtChallenge{
		Situation:       r.requiredString("situation"),
		Thought:         r.requiredString("thought"),
		EvidenceFor:     r.optionalString("evidence_for"),
		EvidenceAgainst: r.optionalString("evidence_against"),
		Reframe:         r.optionalString("reframe"),
	}
}

// MeditationSession 冥想记录，时长 1-120 分钟。
type MeditationSession struct {
	Kind        MeditationKind `json:"kind" validate:"oneof=breathing mindfulness sleep music"`
	DurationMin int            `json:"duration_min" validate:"gte=1,lte=120"`
	Notes       *string        `json:"notes"`
}

func (MeditationSession) RecordKind() Kind { return KindMeditationSession }

func decodeMeditationSession(r *reader, _ time.Time) Record {
	return MeditationSession{
		Kind:        MeditationKind(r.requiredString("kind")),
		DurationMin: r.requiredInt("duration_min"),
		Notes:       r.optionalString("notes"),
	}
}
