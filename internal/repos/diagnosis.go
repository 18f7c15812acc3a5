package repos

import (
	"context"
	"strings"
	"time"

	"github.com/cw-satou/astral-backend/internal/clients/sheets"
	"github.com/cw-satou/astral-backend/internal/domain"
	apperrors "github.com/cw-satou/astral-backend/internal/pkg/errors"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
)

// Column order of the diagnosis sheet. LineUserID and Purchased are written
// blank/false here and maintained by out-of-band processes.
const (
	colID = iota
	colCreatedAt
	colStoneName
	colElementLack
	colHoroscopeFull
	colPast
	colPresent
	colFuture
	colElementDetail
	colOracleName
	colOraclePos
	colProductSlug
	colLineUserID
	colPurchased
)

const createdAtLayout = time.RFC3339

type DiagnosisRepo interface {
	Append(ctx context.Context, rec *domain.DiagnosisRecord) error
	GetByID(ctx context.Context, id string) (*domain.DiagnosisRecord, error)
}

type diagnosisRepo struct {
	store sheets.RowStore
	log   *logger.Logger
}

func NewDiagnosisRepo(store sheets.RowStore, baseLog *logger.Logger) DiagnosisRepo {
	return &diagnosisRepo{store: store, log: baseLog.With("repo", "DiagnosisRepo")}
}

func (r *diagnosisRepo) Append(ctx context.Context, rec *domain.DiagnosisRecord) error {
	row := []any{
		rec.ID,
		rec.CreatedAt.Format(createdAtLayout),
		rec.StoneName,
		rec.ElementLack,
		rec.HoroscopeFull,
		rec.Past,
		rec.Present,
		rec.Future,
		rec.ElementDetail,
		rec.OracleName,
		rec.OraclePos,
		rec.ProductSlug,
		rec.LineUserID,
		rec.Purchased,
	}
	return r.store.AppendRow(ctx, row)
}

// GetByID scans the ID column first and fetches only the matching row, the
// same shape as the original column-scan lookup. A miss is ErrNotFound, not
// a fault.
func (r *diagnosisRepo) GetByID(ctx context.Context, id string) (*domain.DiagnosisRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ErrInvalidArgument
	}

	ids, err := r.store.ColumnValues(ctx, "A")
	if err != nil {
		return nil, err
	}

	rowIndex := -1
	for i, v := range ids {
		if v == id {
			rowIndex = i + 1 // sheet rows are 1-based
			break
		}
	}
	if rowIndex < 0 {
		return nil, apperrors.ErrNotFound
	}

	row, err := r.store.Row(ctx, rowIndex)
	if err != nil {
		return nil, err
	}
	return recordFromRow(row), nil
}

func recordFromRow(row []string) *domain.DiagnosisRecord {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	createdAt, _ := time.Parse(createdAtLayout, cell(colCreatedAt))

	return &domain.DiagnosisRecord{
		ID:            cell(colID),
		CreatedAt:     createdAt,
		StoneName:     cell(colStoneName),
		ElementLack:   cell(colElementLack),
		HoroscopeFull: cell(colHoroscopeFull),
		Past:          cell(colPast),
		Present:       cell(colPresent),
		Future:        cell(colFuture),
		ElementDetail: cell(colElementDetail),
		OracleName:    cell(colOracleName),
		OraclePos:     cell(colOraclePos),
		ProductSlug:   cell(colProductSlug),
		LineUserID:    cell(colLineUserID),
		Purchased:     parseSheetBool(cell(colPurchased)),
	}
}

func parseSheetBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
