package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/moodica/internal/config"
	"github.com/moodica/internal/db"
	"github.com/moodica/internal/schema"
	"github.com/moodica/internal/service"
)

// 测试数据生成器
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("读取 .env 失败:", err)
	}
	cfg := config.Load()

	store, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	defer store.Close()

	fmt.Println("开始生成测试数据...")

	created, err := seedSampleData(context.Background(), store, service.NewRecordService(store))
	if err != nil {
		log.Fatal("生成测试数据失败:", err)
	}

	for _, kind := range schema.Kinds() {
		if n, ok := created[kind]; ok {
			fmt.Printf("✅ %s: %d 条\n", kind, n)
		} else {
			fmt.Printf("%s 已有数据，跳过创建\n", kind)
		}
	}
	fmt.Println("测试数据生成完成！")
}

type sample struct {
	kind    schema.Kind
	payload string
}

// 每种记录至少一条；心情按天回溯，便于前端画趋势图
func samplePayloads(now time.Time) []sample {
	samples := []sample{
		{schema.KindWorry, `{"text": "Presentation on Friday", "intensity": 7}`},
		{schema.KindWorry, `{"text": "Haven't called my parents in a while", "intensity": 4}`},
		{schema.KindWorry, `{"text": "Rent is going up"}`},
		{schema.KindAssessmentResult, `{"kind": "anxiety", "score": 9, "explanation": "Mild anxiety", "plan": ["Breathing 5 min daily", "Limit caffeine"]}`},
		{schema.KindAssessmentResult, `{"kind": "stress", "score": 14, "plan": ["Take a walk after lunch"]}`},
		{schema.KindCrisisPlan, `{"title": "When everything feels too much", "steps": ["Sit down and breathe", "Text Alex", "Go outside"], "contacts": ["Alex", "Local crisis line"]}`},
		{schema.KindThoughtChallenge, `{"situation": "No reply to my message", "thought": "They are angry with me", "evidence_against": "They said they'd be busy today", "reframe": "They are probably just busy"}`},
		{schema.KindMeditationSession, `{"kind": "breathing", "duration_min": 5}`},
		{schema.KindMeditationSession, `{"kind": "sleep", "duration_min": 20, "notes": "Fell asleep before the end"}`},
		{schema.KindHabit, `{"title": "Drink water", "frequency": "daily"}`},
		{schema.KindHabit, `{"title": "Late-night scrolling", "type": "reduce"}`},
		{schema.KindRecovery, `{"target": "Doomscrolling", "reason": "Better sleep"}`},
		{schema.KindGarden, `{"gratitude": ["Warm tea", "A sunny morning"], "proud_moments": ["Finished the report"], "safe_place": "Grandma's kitchen"}`},
		{schema.KindReflection, `{"text": "You got through last winter. You'll get through this too."}`},
		{schema.KindUserSettings, `{"theme": "dark", "notification_style": "soft"}`},
		{schema.KindChatMessage, `{"role": "user", "content": "I couldn't sleep again.", "conversation_id": "sample"}`},
		{schema.KindChatMessage, `{"role": "assistant", "content": "` + service.SupportiveReply + `", "conversation_id": "sample"}`},
	}

	moods := []int{6, 4, 7, 5, 8, 3, 6}
	for i, mood := range moods {
		date := now.AddDate(0, 0, -i).Format(time.RFC3339)
		samples = append(samples, sample{schema.KindMoodEntry, fmt.Sprintf(`{"mood": %d, "tags": ["sample"], "date": %q}`, mood, date)})
	}
	return samples
}

type dependentSample struct {
	kind    schema.Kind
	parent  schema.Kind
	payload func(parentID string) map[string]any
}

// 打卡与戒断日志需要引用已存在的习惯或戒断记录
var dependentSamples = []dependentSample{
	{
		kind:   schema.KindHabitLog,
		parent: schema.KindHabit,
		payload: func(parentID string) map[string]any {
			return map[string]any{"habit_id": parentID}
		},
	},
	{
		kind:   schema.KindRecoveryLog,
		parent: schema.KindRecovery,
		payload: func(parentID string) map[string]any {
			return map[string]any{"recovery_id": parentID, "day": json.Number("1"), "trigger": "Phone on the pillow"}
		},
	},
}

const maxDependentParents = 2

// seedSampleData 写入示例记录；已有数据的集合整体跳过。返回每种记录新建的条数。
func seedSampleData(ctx context.Context, store *db.Store, records *service.RecordService) (map[schema.Kind]int, error) {
	skip := map[schema.Kind]bool{}
	for _, kind := range schema.Kinds() {
		existing, err := store.List(ctx, kind.Collection(), nil, 1)
		if err != nil {
			return nil, err
		}
		skip[kind] = len(existing) > 0
	}

	created := map[schema.Kind]int{}
	parents := map[schema.Kind][]string{}
	for _, s := range samplePayloads(time.Now().UTC()) {
		if skip[s.kind] {
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(s.payload), &payload); err != nil {
			return nil, fmt.Errorf("sample %s: %w", s.kind, err)
		}
		doc, err := records.Create(ctx, s.kind, payload)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", s.kind, err)
		}
		created[s.kind]++
		parents[s.kind] = append(parents[s.kind], doc.ID)
	}

	for _, dep := range dependentSamples {
		if skip[dep.kind] {
			continue
		}

		ids := parents[dep.parent]
		if len(ids) == 0 {
			existing, err := store.List(ctx, dep.parent.Collection(), nil, maxDependentParents)
			if err != nil {
				return nil, err
			}
			for _, doc := range existing {
				ids = append(ids, doc.ID)
			}
		}

		for _, id := range ids {
			if _, err := records.Create(ctx, dep.kind, dep.payload(id)); err != nil {
				return nil, fmt.Errorf("sample %s: %w", dep.kind, err)
			}
			created[dep.kind]++
		}
	}
	return created, nil
}
