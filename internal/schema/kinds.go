package schema

import "time"

// Kind 标识一种记录类型，同时也是其集合名（类型名小写）。
type Kind string

const (
	KindMoodEntry         Kind = "moodentry"
	KindWorry             Kind = "worry"
	KindAssessmentResult  Kind = "assessmentresult"
	KindCrisisPlan        Kind = "crisisplan"
	KindThoughtChallenge  Kind = "thoughtchallenge"
	KindMeditationSession Kind = "meditationsession"
	KindHabit             Kind = "habit"
	KindHabitLog          Kind = "habitlog"
	KindRecovery          Kind = "recovery"
	KindRecoveryLog       Kind = "recoverylog"
	KindGarden            Kind = "garden"
	KindReflection        Kind = "reflection"
	KindUserSettings      Kind = "usersettings"
	KindChatMessage       Kind = "chatmessage"
)

type descriptor struct {
	decode    func(r *reader, now time.Time) Record
	sortField string
}

var registry = map[Kind]descriptor{
	KindMoodEntry:         {decode: decodeMoodEntry, sortField: "date"},
	KindWorry:             {decode: decodeWorry},
	KindAssessmentResult:  {decode: decodeAssessmentResult},
	KindCrisisPlan:        {decode: decodeCrisisPlan},
	KindThoughtChallenge:  {decode: decodeThoughtChallenge},
	KindMeditationSession: {decode: decodeMeditationSession},
	KindHabit:             {decode: decodeHabit},
	KindHabitLog:          {decode: decodeHabitLog},
	KindRecovery:          {decode: decodeRecovery},
	KindRecoveryLog:       {decode: decodeRecoveryLog},
	KindGarden:            {decode: decodeGarden},
	KindReflection:        {decode: decodeReflection},
	KindUserSettings:      {decode: decodeUserSettings},
	KindChatMessage:       {decode: decodeChatMessage},
}

// Kinds returns every registered kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindMoodEntry,
		KindWorry,
		KindAssessmentResult,
		KindCrisisPlan,
		KindThoughtChallenge,
		KindMeditationSession,
		KindHabit,
		KindHabitLog,
		KindRecovery,
		KindRecoveryLog,
		KindGarden,
		KindReflection,
		KindUserSettings,
		KindChatMessage,
	}
}

// Collection 返回该类型记录所在的集合名。
func (k Kind) Collection() string {
	return string(k)
}

// SortField 返回列表接口用于语义排序的日期字段；为空表示按 created_at 排序。
func (k Kind) SortField() string {
	return registry[k].sortField
}

// Known reports whether k is a registered kind.
func (k Kind) Known() bool {
	_, ok := registry[k]
	return ok
}
