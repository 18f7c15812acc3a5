package services

import (
	"fmt"
	"strings"

	"github.com/cw-satou/astral-backend/internal/domain"
)

const stoneSeparator = "、"

// BuildOrderSummary renders a reading plus placed stones into the three
// order artifacts: the compact order line, the shop-internal note, and the
// customer-facing sales copy. Pure formatting; missing reading fields
// default to the empty string.
func BuildOrderSummary(reading *domain.Reading, stones []domain.Stone, sizing domain.Sizing) domain.OrderSummary {
	sizing = sizing.Normalized()

	parts := make([]string, 0, len(stones))
	for _, s := range stones {
		name := s.Name
		if strings.TrimSpace(name) == "" {
			name = "不明な石"
		}
		parts = append(parts, fmt.Sprintf("%s×%d", name, s.Count))
	}
	stonesText := strings.Join(parts, stoneSeparator)

	orderLine := fmt.Sprintf("内径%.1fcm%s%s", sizing.WristInnerCM, stoneSeparator, stonesText)

	var summary, concept, designText, salesCopy string
	if reading != nil {
		summary = reading.Summary
		concept = reading.DesignConcept
		designText = reading.DesignText
		salesCopy = reading.SalesCopy
	}
	if strings.TrimSpace(concept) == "" {
		concept = "無題"
	}

	internalNote := fmt.Sprintf(
		"[占い要約]\n%s\n\n[デザインコンセプト]\n%s\n%s\n\n[仕様メモ]\n- 手首内径: %.1fcm\n- 使用予定ビーズサイズ: %dmm\n- 石構成: %s\n",
		summary, concept, designText, sizing.WristInnerCM, sizing.BeadSizeMM, stonesText,
	)

	if strings.TrimSpace(salesCopy) == "" {
		salesCopy = fmt.Sprintf(
			"【%s】\n\n%s\n\n手首%.1fcm前後の方向けに、%sでお作りするブレスレットです。",
			concept, summary, sizing.WristInnerCM, stonesText,
		)
	}

	return domain.OrderSummary{
		OrderLine:    orderLine,
		InternalNote: internalNote,
		SalesCopy:    salesCopy,
	}
}

// BuildAdminNotification is the chat message sent to the shop owner when a
// new order lands.
func BuildAdminNotification(lineUserID string, summary domain.OrderSummary) string {
	return fmt.Sprintf(
		"【新規オーダーが入りました】\n- LINEユーザーID: %s\n- 注文内容: %s\n\n▼内部メモ\n%s",
		lineUserID, summary.OrderLine, summary.InternalNote,
	)
}
