package schema

import "time"

// Frequency 习惯频率。
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// HabitType 区分养成型与戒除型习惯。
type HabitType string

const (
	HabitBuild  HabitType = "build"
	HabitReduce HabitType = "reduce"
)

// HabitStatus 打卡状态。
type HabitStatus string

const (
	HabitDone    HabitStatus = "done"
	HabitSkipped HabitStatus = "skipped"
)

// RecoveryStatus 戒断日志状态。
type RecoveryStatus string

const (
	RecoveryKept   RecoveryStatus = "kept"
	RecoveryLapsed RecoveryStatus = "lapsed"
)

// Habit 定义一个习惯，频率与类型均有默认值。
type Habit struct {
	Title     string    `json:"title"`
	Frequency Frequency `json:"frequency" validate:"oneof=daily weekly"`
	Type      HabitType `json:"type" validate:"oneof=build reduce"`
}

func (Habit) RecordKind() Kind { return KindHabit }

func decodeHabit(r *reader, _ time.Time) Record {
	return Habit{
		Title:     r.requiredString("title"),
		Frequency: Frequency(r.stringOr("frequency", string(FrequencyDaily))),
		Type:      HabitType(r.stringOr("type", string(HabitBuild))),
	}
}

// HabitLog 记录一次打卡；habit_id 不校验是否存在。
type HabitLog struct {
	HabitID string      `json:"habit_id"`
	Status  HabitStatus `json:"status" validate:"oneof=done skipped"`
}

func (HabitLog) RecordKind() Kind { return KindHabitLog }

func decodeHabitLog(r *reader, _ time.Time) Record {
	return HabitLog{
		HabitID: r.requiredString("habit_id"),
		Status:  HabitStatus(r.stringOr("status", string(HabitDone))),
	}
}

// Recovery 描述用户想要戒除的行为。
type Recovery struct {
	Target    string     `json:"target"`
	StartDate *time.Time `json:"start_date"`
	Reason    *string    `json:"reason"`
}

func (Recovery) RecordKind() Kind { return KindRecovery }

func decodeRecovery(r *reader, _ time.Time) Record {
	return Recovery{
		Target:    r.requiredString("target"),
		StartDate: r.optionalTime("start_date"),
		Reason:    r.optionalString("reason"),
	}
}

// RecoveryLog 记录戒断第 day 天的情况。
type RecoveryLog struct {
	RecoveryID string         `json:"recovery_id"`
	Day        int            `json:"day" validate:"gte=0"`
	Trigger    *string        `json:"trigger"`
	Status     RecoveryStatus `json:"status" validate:"oneof=kept lapsed"`
}

func (RecoveryLog) RecordKind() Kind { return KindRecoveryLog }

func decodeRecoveryLog(r *reader, _ time.Time) Record {
	return RecoveryLog{
		RecoveryID: r.requiredString("recovery_id"),
		Day:        r.requiredInt("day"),
		Trigger:    r.optionalString("trigger"),
		Status:     RecoveryStatus(r.stringOr("status", string(RecoveryKept))),
	}
}
