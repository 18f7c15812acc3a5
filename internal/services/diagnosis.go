package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cw-satou/astral-backend/internal/catalog"
	"github.com/cw-satou/astral-backend/internal/domain"
	"github.com/cw-satou/astral-backend/internal/layout"
	"github.com/cw-satou/astral-backend/internal/pkg/apierr"
	"github.com/cw-satou/astral-backend/internal/pkg/envutil"
	apperrors "github.com/cw-satou/astral-backend/internal/pkg/errors"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
	"github.com/cw-satou/astral-backend/internal/repos"
)

// DiagnoseResult is the /diagnose response payload. Result carries the
// ranked stones without sizing; the client feeds them back through
// BuildBracelet for the fitted layout.
type DiagnoseResult struct {
	DiagnosisID  string              `json:"diagnosis_id"`
	Result       *domain.Reading     `json:"result"`
	OrderSummary domain.OrderSummary `json:"order_summary"`
}

// BraceletResult is the /build-bracelet response payload.
type BraceletResult struct {
	DiagnosisID  string              `json:"diagnosis_id,omitempty"`
	Phase        string              `json:"phase"`
	DesignText   string              `json:"design_text"`
	Stones       []domain.Stone      `json:"stones"`
	OrderSummary domain.OrderSummary `json:"order_summary"`
	WristInnerCM float64             `json:"wrist_inner_cm"`
	BeadSizeMM   int                 `json:"bead_size_mm"`
	DesignStyle  string              `json:"design_style"`
}

// ProductLinks are the shop-page URL variants derived from the stored
// product slug.
type ProductLinks struct {
	Top    string `json:"top"`
	Single string `json:"single"`
	Double string `json:"double"`
}

// FortuneDetail is the expanded view of one stored diagnosis.
type FortuneDetail struct {
	DiagnosisID    string       `json:"diagnosis_id"`
	CreatedAt      time.Time    `json:"created_at"`
	StoneName      string       `json:"stone_name"`
	ElementLack    string       `json:"element_lack,omitempty"`
	HoroscopeFull  string       `json:"horoscope_full,omitempty"`
	Past           string       `json:"past,omitempty"`
	Present        string       `json:"present,omitempty"`
	Future         string       `json:"future,omitempty"`
	ElementDetail  string       `json:"element_detail,omitempty"`
	OracleName     string       `json:"oracle_name,omitempty"`
	OraclePosition string       `json:"oracle_position,omitempty"`
	ProductLinks   ProductLinks `json:"product_links"`
}

const phaseBraceletBuilt = "bracelet_built"

// DiagnosisService orchestrates one request end to end. Persistence and
// notifications are best-effort: their errors are logged here and never
// change the HTTP outcome the reading already determined.
type DiagnosisService interface {
	Diagnose(ctx context.Context, input domain.DiagnoseInput) (*DiagnoseResult, error)
	BuildBracelet(ctx context.Context, input domain.BraceletInput) (*BraceletResult, error)
	FortuneDetail(ctx context.Context, diagnosisID string) (*FortuneDetail, error)
}

type diagnosisService struct {
	log            *logger.Logger
	reading        ReadingService
	repo           repos.DiagnosisRepo
	mailer         MailService
	cat            *catalog.Catalog
	productBaseURL string
	now            func() time.Time
}

func NewDiagnosisService(
	log *logger.Logger,
	reading ReadingService,
	repo repos.DiagnosisRepo,
	mailer MailService,
	cat *catalog.Catalog,
) DiagnosisService {
	return &diagnosisService{
		log:            log.With("service", "DiagnosisService"),
		reading:        reading,
		repo:           repo,
		mailer:         mailer,
		cat:            cat,
		productBaseURL: strings.TrimRight(envutil.Str("PRODUCT_BASE_URL", "https://shop.astral-atelier.jp"), "/"),
		now:            time.Now,
	}
}

func (s *diagnosisService) Diagnose(ctx context.Context, input domain.DiagnoseInput) (*DiagnoseResult, error) {
	reading, err := s.reading.Generate(ctx, input)
	if err != nil {
		return nil, err
	}

	diagnosisID := "diag_" + uuid.NewString()
	record := s.buildRecord(diagnosisID, input, reading)
	if s.repo != nil {
		if err := s.repo.Append(ctx, record); err != nil {
			// the reading is the valuable artifact; a failed sheet write
			// must not cost the caller their result
			s.log.Error("diagnosis record append failed", "diagnosis_id", diagnosisID, "error", err)
		}
	}

	// Counts for the summary come from a provisional default-style layout;
	// the fitted layout happens in the second call.
	sizing := input.Sizing.Normalized()
	provisional := layout.Build(reading.Stones, sizing, domain.StyleDefault)
	summary := BuildOrderSummary(reading, provisional.Stones, sizing)

	return &DiagnoseResult{
		DiagnosisID:  diagnosisID,
		Result:       reading,
		OrderSummary: summary,
	}, nil
}

func (s *diagnosisService) BuildBracelet(ctx context.Context, input domain.BraceletInput) (*BraceletResult, error) {
	sizing := input.Sizing.Normalized()
	res := layout.Build(input.Stones, sizing, input.Style)

	summary := BuildOrderSummary(&domain.Reading{DesignText: res.DesignText}, res.Stones, sizing)

	if s.mailer != nil && len(res.Stones) > 0 {
		if err := s.mailer.SendOrderMail(ctx, input.DiagnosisID, summary); err != nil {
			s.log.Error("order mail failed", "diagnosis_id", input.DiagnosisID, "error", err)
		}
	}

	return &BraceletResult{
		DiagnosisID:  input.DiagnosisID,
		Phase:        phaseBraceletBuilt,
		DesignText:   res.DesignText,
		Stones:       res.Stones,
		OrderSummary: summary,
		WristInnerCM: sizing.WristInnerCM,
		BeadSizeMM:   sizing.BeadSizeMM,
		DesignStyle:  res.Style,
	}, nil
}

func (s *diagnosisService) FortuneDetail(ctx context.Context, diagnosisID string) (*FortuneDetail, error) {
	if s.repo == nil {
		return nil, apierr.New(http.StatusInternalServerError, "store_unavailable",
			fmt.Errorf("diagnosis store not configured"))
	}

	rec, err := s.repo.GetByID(ctx, diagnosisID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "diagnosis_not_found",
				fmt.Errorf("diagnosis %s not found", diagnosisID))
		}
		if errors.Is(err, apperrors.ErrInvalidArgument) {
			return nil, apierr.New(http.StatusBadRequest, "invalid_diagnosis_id", err)
		}
		return nil, err
	}

	return &FortuneDetail{
		DiagnosisID:    rec.ID,
		CreatedAt:      rec.CreatedAt,
		StoneName:      rec.StoneName,
		ElementLack:    rec.ElementLack,
		HoroscopeFull:  rec.HoroscopeFull,
		Past:           rec.Past,
		Present:        rec.Present,
		Future:         rec.Future,
		ElementDetail:  rec.ElementDetail,
		OracleName:     rec.OracleName,
		OraclePosition: rec.OraclePos,
		ProductLinks:   s.productLinks(rec.ProductSlug),
	}, nil
}

func (s *diagnosisService) buildRecord(diagnosisID string, input domain.DiagnoseInput, reading *domain.Reading) *domain.DiagnosisRecord {
	rec := &domain.DiagnosisRecord{
		ID:            diagnosisID,
		CreatedAt:     s.now(),
		StoneName:     reading.PrimaryStoneName(),
		ElementLack:   reading.ElementLack,
		HoroscopeFull: reading.HoroscopeFull,
		Past:          reading.Past,
		Present:       reading.Present,
		Future:        reading.Future,
		ElementDetail: reading.ElementDetail,
		LineUserID:    input.LineUserID,
	}
	if reading.Oracle != nil {
		rec.OracleName = reading.Oracle.Name
		rec.OraclePos = reading.Oracle.Position
	}
	if s.cat != nil {
		rec.ProductSlug = s.cat.Slug(rec.StoneName)
	}
	return rec
}

// productLinks prefixes the stored base slug with the page variants.
func (s *diagnosisService) productLinks(slug string) ProductLinks {
	if strings.TrimSpace(slug) == "" {
		return ProductLinks{}
	}
	link := func(variant string) string {
		return fmt.Sprintf("%s/products/%s-%s", s.productBaseURL, variant, slug)
	}
	return ProductLinks{
		Top:    link("top"),
		Single: link("single"),
		Double: link("double"),
	}
}
