package services

import (
	"strings"
	"testing"

	"github.com/cw-satou/astral-backend/internal/domain"
)

func TestBuildOrderSummaryOrderLine(t *testing.T) {
	stones := []domain.Stone{
		{Name: "アメジスト", Count: 15},
		{Name: "ブルータイガーアイ", Count: 3},
	}
	reading := &domain.Reading{Summary: "要約", DesignConcept: "夜明けの空"}

	sum := BuildOrderSummary(reading, stones, domain.Sizing{WristInnerCM: 15.0, BeadSizeMM: 8})

	if sum.OrderLine != "内径15.0cm、アメジスト×15、ブルータイガーアイ×3" {
		t.Fatalf("order line = %q", sum.OrderLine)
	}
	for _, s := range stones {
		if strings.Count(sum.OrderLine, s.Name) != 1 {
			t.Fatalf("stone %s not exactly once in %q", s.Name, sum.OrderLine)
		}
	}
}

func TestBuildOrderSummaryInternalNote(t *testing.T) {
	stones := []domain.Stone{{Name: "水晶", Count: 20}}
	reading := &domain.Reading{
		Summary:       "鑑定の要約です。",
		DesignConcept: "桜舞う小道",
		DesignText:    "ピンクを基調に。",
	}

	sum := BuildOrderSummary(reading, stones, domain.Sizing{WristInnerCM: 14.5, BeadSizeMM: 6})

	for _, want := range []string{"[占い要約]", "鑑定の要約です。", "桜舞う小道", "ピンクを基調に。", "14.5cm", "6mm", "水晶×20"} {
		if !strings.Contains(sum.InternalNote, want) {
			t.Fatalf("internal note missing %q:\n%s", want, sum.InternalNote)
		}
	}
}

func TestBuildOrderSummarySalesCopyFallback(t *testing.T) {
	stones := []domain.Stone{{Name: "シトリン", Count: 20}}

	withCopy := BuildOrderSummary(&domain.Reading{SalesCopy: "既成の紹介文"}, stones, domain.DefaultSizing())
	if withCopy.SalesCopy != "既成の紹介文" {
		t.Fatalf("ready-made sales copy replaced: %q", withCopy.SalesCopy)
	}

	fallback := BuildOrderSummary(&domain.Reading{Summary: "要約", DesignConcept: "黄金の実り"}, stones, domain.DefaultSizing())
	if !strings.Contains(fallback.SalesCopy, "黄金の実り") || !strings.Contains(fallback.SalesCopy, "シトリン×20") {
		t.Fatalf("templated sales copy incomplete: %q", fallback.SalesCopy)
	}
}

func TestBuildOrderSummaryNilReading(t *testing.T) {
	sum := BuildOrderSummary(nil, []domain.Stone{{Name: "オニキス", Count: 18}}, domain.DefaultSizing())
	if !strings.Contains(sum.OrderLine, "オニキス×18") {
		t.Fatalf("order line = %q", sum.OrderLine)
	}
	// missing concept falls back to the untitled placeholder
	if !strings.Contains(sum.InternalNote, "無題") {
		t.Fatalf("internal note = %q", sum.InternalNote)
	}
}

func TestBuildAdminNotification(t *testing.T) {
	msg := BuildAdminNotification("U123", domain.OrderSummary{
		OrderLine:    "内径15.0cm、水晶×20",
		InternalNote: "メモ",
	})
	for _, want := range []string{"U123", "内径15.0cm、水晶×20", "メモ"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("admin notification missing %q: %q", want, msg)
		}
	}
}
