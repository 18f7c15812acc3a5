package services

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/cw-satou/astral-backend/internal/catalog"
	"github.com/cw-satou/astral-backend/internal/domain"
	"github.com/cw-satou/astral-backend/internal/pkg/apierr"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
)

type fakeChatClient struct {
	content string
	err     error

	lastSystem string
	lastUser   string
}

func (f *fakeChatClient) ChatCompletion(_ context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func newReadingServiceForTest(t *testing.T, chat *fakeChatClient) *readingService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cat, err := catalog.Load(log)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	svc := NewReadingService(log, chat, cat).(*readingService)
	svc.rng = rand.New(rand.NewSource(1)) // deterministic oracle draw
	return svc
}

func sampleInput() domain.DiagnoseInput {
	return domain.DiagnoseInput{
		Problem:    "仕事の人間関係に悩んでいます",
		DesignPref: "落ち着いた色合い",
		Birth:      domain.Birth{Date: "1990-07-07", Time: "08:30", Place: "東京"},
	}
}

const goodResponse = "```json\n" + `{
	"reading": "あなたの星は今、転換期にあります。[1]",
	"horoscope_full": "太陽星座は蟹座です。",
	"past": "過去",
	"present": "現在",
	"future": "未来",
	"element_lack": "火",
	"element_detail": "火のエレメントが不足しています。",
	"stones": [
		{"name": "アメジスト", "reason": "精神の安定のため"},
		{"name": "聖なる謎の石", "reason": "存在しない"},
		{"name": "水晶", "reason": "浄化のため"}
	],
	"design_concept": "夜明けの空",
	"design_text": "紫と透明のグラデーション。",
	"sales_copy": "心を整える一本です。"
}` + "\n```"

func TestGenerateParsesAndFilters(t *testing.T) {
	chat := &fakeChatClient{content: goodResponse}
	svc := newReadingServiceForTest(t, chat)

	reading, err := svc.Generate(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if reading.Summary != "あなたの星は今、転換期にあります。" {
		t.Fatalf("citation marker survived: %q", reading.Summary)
	}
	// catalog filter keeps ranking order and drops the unknown stone
	if len(reading.Stones) != 2 {
		t.Fatalf("got %d stones, want 2: %+v", len(reading.Stones), reading.Stones)
	}
	if reading.Stones[0].Name != "アメジスト" || reading.Stones[1].Name != "水晶" {
		t.Fatalf("ranking disturbed: %+v", reading.Stones)
	}
	if reading.Oracle == nil || reading.Oracle.Name == "" {
		t.Fatalf("oracle card not drawn: %+v", reading.Oracle)
	}
	if reading.Oracle.Position != "upright" && reading.Oracle.Position != "reversed" {
		t.Fatalf("oracle position = %q", reading.Oracle.Position)
	}
	if len(reading.ImageURLs) != 1 || !strings.Contains(reading.ImageURLs[0], "/cards/") {
		t.Fatalf("oracle image url missing: %+v", reading.ImageURLs)
	}
}

func TestGeneratePromptContents(t *testing.T) {
	chat := &fakeChatClient{content: goodResponse}
	svc := newReadingServiceForTest(t, chat)

	if _, err := svc.Generate(context.Background(), sampleInput()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"仕事の人間関係", "1990-07-07", "東京", "アメジスト", "出力JSONフォーマット"} {
		if !strings.Contains(chat.lastUser, want) {
			t.Fatalf("user prompt missing %q", want)
		}
	}
	if !strings.Contains(chat.lastSystem, "JSON形式のみ") {
		t.Fatalf("system prompt missing JSON constraint")
	}
}

func TestGenerateProviderError(t *testing.T) {
	chat := &fakeChatClient{err: errors.New("connection refused")}
	svc := newReadingServiceForTest(t, chat)

	_, err := svc.Generate(context.Background(), sampleInput())
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *apierr.Error", err)
	}
	if ae.Status != 500 || ae.Code != "reading_generation_failed" {
		t.Fatalf("apierr = %+v", ae)
	}
}

func TestGenerateMalformedJSON(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{name: "no_json", content: "申し訳ありませんが生成できません。"},
		{name: "truncated", content: `{"reading": "とちゅうでき`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newReadingServiceForTest(t, &fakeChatClient{content: tc.content})
			_, err := svc.Generate(context.Background(), sampleInput())
			var ae *apierr.Error
			if !errors.As(err, &ae) || ae.Code != "reading_generation_failed" {
				t.Fatalf("err = %v, want reading_generation_failed", err)
			}
		})
	}
}

func TestGenerateAllStonesUnknown(t *testing.T) {
	content := `{"reading": "鑑定", "stones": [{"name": "謎の石", "reason": "x"}]}`
	svc := newReadingServiceForTest(t, &fakeChatClient{content: content})

	reading, err := svc.Generate(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("unknown stones must degrade, not error: %v", err)
	}
	if len(reading.Stones) != 0 {
		t.Fatalf("unknown stones kept: %+v", reading.Stones)
	}
}
