package layout

import (
	"fmt"
	"strings"

	"github.com/cw-satou/astral-backend/internal/domain"
)

const noCandidatesText = "今回の鑑定ではお薦めできる石が見つかりませんでした。内容を変えてもう一度お試しください。"

// Per-style framing fragments. Unknown keys fall back to the generic
// fragment, mirroring the lenient lookup the enum dispatch replaced.
var styleFragments = map[domain.DesignStyle]string{
	domain.StyleSingle:    "一種類の石だけで組む、想いをまっすぐ届けるシンプルな構成です。",
	domain.StyleDual:      "主役の石を多めに、脇役の石を添える、バランス重視の二色構成です。",
	domain.StyleAccentTop: "手首の天面にアクセントの一粒を置き、まわりを支えの石で囲む構成です。",
	domain.StyleDefault:   "二つの石を半分ずつ組み合わせる、調和を大切にした構成です。",
}

const genericFragment = "お選びした石を組み合わせた、バランスの良い構成です。"

func styleFragment(style domain.DesignStyle) string {
	if f, ok := styleFragments[style]; ok {
		return f
	}
	return genericFragment
}

// renderDesignText builds the fixed three-section narrative: concept
// framing, why the secondary complements the primary, then the practical
// sizing/style summary.
func renderDesignText(primary, secondary domain.Stone, sizing domain.Sizing, style domain.DesignStyle) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("主役の石は%sです。", primary.Name))
	if reason := strings.TrimSpace(primary.Reason); reason != "" {
		b.WriteString(reason)
		if !strings.HasSuffix(reason, "。") {
			b.WriteString("。")
		}
	}
	b.WriteString("\n")

	if secondary.Name != primary.Name {
		b.WriteString(fmt.Sprintf("%sは%sの力を引き立て、全体の流れを整えてくれます。", secondary.Name, primary.Name))
	} else {
		b.WriteString(fmt.Sprintf("%sを重ねて使うことで、その力がより深く、安定して働きます。", primary.Name))
	}
	b.WriteString("\n")

	b.WriteString(styleFragment(style))
	b.WriteString(fmt.Sprintf("手首内径%.1fcm・%dmm珠を基準にお仕立てします。", sizing.WristInnerCM, sizing.BeadSizeMM))

	return b.String()
}
