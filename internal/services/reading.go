package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cw-satou/astral-backend/internal/catalog"
	"github.com/cw-satou/astral-backend/internal/clients/perplexity"
	"github.com/cw-satou/astral-backend/internal/domain"
	"github.com/cw-satou/astral-backend/internal/pkg/apierr"
	"github.com/cw-satou/astral-backend/internal/pkg/envutil"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
)

const systemPrompt = `あなたは、西洋占星術とクリスタルヒーリングに精通したプロの占い師であり、
ジュエリーデザイナーでもあります。
ユーザーの悩みに寄り添い、希望を与え、具体的な解決策としてパワーストーンブレスレットを提案してください。

【重要な制約事項】
1. 出力は必ずJSON形式のみを行ってください。余計な挨拶やMarkdown装飾は不要です。
2. JSONの構造は指定されたスキーマを厳守してください。
3. 石の選定は、以下の「使用可能な石リスト」の中から選んでください。リストにない石は使わないでください。
4. 鑑定結果の文章は、ユーザーに語りかけるような、優しく神秘的な口調（です・ます調）で書いてください。`

// ReadingService obtains one structured reading from the generative
// provider. The provider is opaque and non-deterministic; everything past
// the HTTP call is sanitize, decode, validate.
type ReadingService interface {
	Generate(ctx context.Context, input domain.DiagnoseInput) (*domain.Reading, error)
}

type readingService struct {
	log             *logger.Logger
	chat            perplexity.Client
	cat             *catalog.Catalog
	oracleImageBase string

	mu  sync.Mutex
	rng *rand.Rand
}

func NewReadingService(log *logger.Logger, chat perplexity.Client, cat *catalog.Catalog) ReadingService {
	return &readingService{
		log:             log.With("service", "ReadingService"),
		chat:            chat,
		cat:             cat,
		oracleImageBase: strings.TrimRight(envutil.Str("ORACLE_IMAGE_BASE_URL", "https://assets.astral-atelier.jp"), "/"),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *readingService) Generate(ctx context.Context, input domain.DiagnoseInput) (*domain.Reading, error) {
	content, err := s.chat.ChatCompletion(ctx, systemPrompt, s.userPrompt(input))
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "reading_generation_failed", err)
	}

	cleaned := perplexity.SanitizeJSON(content)
	if cleaned == "" {
		return nil, apierr.New(http.StatusInternalServerError, "reading_generation_failed",
			fmt.Errorf("provider returned no JSON object"))
	}

	var reading domain.Reading
	if err := json.Unmarshal([]byte(cleaned), &reading); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "reading_generation_failed",
			fmt.Errorf("decode reading: %w", err))
	}

	s.filterStones(&reading)
	s.attachOracleCard(&reading)
	return &reading, nil
}

func (s *readingService) userPrompt(input domain.DiagnoseInput) string {
	var b strings.Builder
	b.WriteString("以下のユーザー情報に基づき、ホロスコープを読み解き、最適なパワーストーンブレスレットを設計してください。\n\n")
	b.WriteString("【ユーザー情報】\n")
	if input.Gender != "" {
		fmt.Fprintf(&b, "- 性別: %s\n", input.Gender)
	}
	if len(input.Concerns) > 0 {
		fmt.Fprintf(&b, "- 関心事: %s\n", strings.Join(input.Concerns, "、"))
	}
	fmt.Fprintf(&b, "- 悩み: %s\n", input.Problem)
	fmt.Fprintf(&b, "- デザインの希望: %s\n", input.DesignPref)
	fmt.Fprintf(&b, "- 生年月日: %s\n", input.Birth.Date)
	fmt.Fprintf(&b, "- 出生時間: %s\n", input.Birth.Time)
	fmt.Fprintf(&b, "- 出生地: %s\n", input.Birth.Place)
	b.WriteString("\n【使用可能な石リスト】\n")
	b.WriteString(s.cat.PromptList())
	b.WriteString(`
【出力JSONフォーマット】
{
  "reading": "（400文字以内の鑑定結果。星の配置に触れながら、なぜ今の悩みが生じているのか、どうすれば解決に向かうかを優しく説く文章）",
  "horoscope_full": "（太陽星座・月星座などホロスコープ全体の読み解き）",
  "past": "（過去についての鑑定）",
  "present": "（現在についての鑑定）",
  "future": "（未来についての鑑定）",
  "element_lack": "（不足しているエレメント。火 / 地 / 風 / 水 のいずれか）",
  "element_detail": "（エレメントの補足説明）",
  "stones": [
    {
      "name": "（石の名前）",
      "reason": "（その石を選んだ理由。占星術的な根拠や石の効果）"
    }
  ],
  "design_concept": "（ブレスレットのデザインテーマ。情景が浮かぶようなタイトル）",
  "design_text": "（デザインの解説。150文字以内）",
  "sales_copy": "（商品としての魅力的な紹介文。200文字以内）"
}
`)
	return b.String()
}

// filterStones drops recommendations outside the fixed catalog. Ranking
// order is preserved; an entirely-unknown list degrades to the
// no-candidates layout downstream rather than erroring.
func (s *readingService) filterStones(reading *domain.Reading) {
	if len(reading.Stones) == 0 {
		return
	}
	kept := reading.Stones[:0]
	for _, stone := range reading.Stones {
		stone.Name = strings.TrimSpace(stone.Name)
		if !s.cat.Contains(stone.Name) {
			s.log.Warn("dropping stone outside catalog", "stone", stone.Name)
			continue
		}
		kept = append(kept, stone)
	}
	reading.Stones = kept
}

func (s *readingService) attachOracleCard(reading *domain.Reading) {
	cards := s.cat.Cards()
	if len(cards) == 0 {
		return
	}

	s.mu.Lock()
	card := cards[s.rng.Intn(len(cards))]
	reversed := s.rng.Intn(2) == 1
	s.mu.Unlock()

	position := "upright"
	if reversed {
		position = "reversed"
	}
	imageURL := fmt.Sprintf("%s/cards/%s.png", s.oracleImageBase, card.Slug)

	reading.Oracle = &domain.OracleCard{
		Name:     card.Name,
		Position: position,
		ImageURL: imageURL,
	}
	reading.ImageURLs = append(reading.ImageURLs, imageURL)
}
