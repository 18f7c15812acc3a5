package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cw-satou/astral-backend/internal/domain"
	"github.com/cw-satou/astral-backend/internal/pkg/apierr"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
	"github.com/cw-satou/astral-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type fakeDiagnosisService struct {
	diagnoseInput domain.DiagnoseInput
	diagnoseRes   *services.DiagnoseResult
	diagnoseErr   error

	braceletInput domain.BraceletInput
	braceletRes   *services.BraceletResult

	detailID  string
	detailRes *services.FortuneDetail
	detailErr error
}

func (f *fakeDiagnosisService) Diagnose(_ context.Context, input domain.DiagnoseInput) (*services.DiagnoseResult, error) {
	f.diagnoseInput = input
	return f.diagnoseRes, f.diagnoseErr
}

func (f *fakeDiagnosisService) BuildBracelet(_ context.Context, input domain.BraceletInput) (*services.BraceletResult, error) {
	f.braceletInput = input
	return f.braceletRes, nil
}

func (f *fakeDiagnosisService) FortuneDetail(_ context.Context, diagnosisID string) (*services.FortuneDetail, error) {
	f.detailID = diagnosisID
	return f.detailRes, f.detailErr
}

func doJSON(t *testing.T, handler gin.HandlerFunc, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.POST("/x", handler)
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDiagnoseRejectsEmptyBody(t *testing.T) {
	svc := &fakeDiagnosisService{}
	h := NewDiagnosisHandler(testLogger(t), svc)

	w := doJSON(t, h.Diagnose, "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_request") {
		t.Fatalf("body = %s, want invalid_request code", w.Body.String())
	}
}

func TestDiagnoseCoercesSizing(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantWrist float64
		wantBead  int
	}{
		{"numbers", `{"gender":"female","wrist_inner_cm":16.5,"bead_size_mm":10}`, 16.5, 10},
		{"strings", `{"gender":"female","wrist_inner_cm":"16.5","bead_size_mm":"10"}`, 16.5, 10},
		{"garbage falls back", `{"gender":"female","wrist_inner_cm":"ほそめ","bead_size_mm":"large"}`, 15.0, 8},
		{"absent falls back", `{"gender":"female"}`, 15.0, 8},
		{"zero falls back", `{"gender":"female","wrist_inner_cm":0,"bead_size_mm":0}`, 15.0, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeDiagnosisService{
				diagnoseRes: &services.DiagnoseResult{DiagnosisID: "diag_x", Result: &domain.Reading{}},
			}
			h := NewDiagnosisHandler(testLogger(t), svc)

			w := doJSON(t, h.Diagnose, tt.body, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
			}
			if got := svc.diagnoseInput.Sizing.WristInnerCM; got != tt.wantWrist {
				t.Errorf("wrist = %v, want %v", got, tt.wantWrist)
			}
			if got := svc.diagnoseInput.Sizing.BeadSizeMM; got != tt.wantBead {
				t.Errorf("bead = %d, want %d", got, tt.wantBead)
			}
		})
	}
}

func TestDiagnoseMapsServiceError(t *testing.T) {
	svc := &fakeDiagnosisService{
		diagnoseErr: apierr.New(http.StatusInternalServerError, "reading_generation_failed",
			fmt.Errorf("provider down")),
	}
	h := NewDiagnosisHandler(testLogger(t), svc)

	w := doJSON(t, h.Diagnose, `{"gender":"male"}`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "reading_generation_failed") {
		t.Fatalf("body = %s, want reading_generation_failed code", w.Body.String())
	}
}

func TestBuildBraceletMapsInput(t *testing.T) {
	svc := &fakeDiagnosisService{
		braceletRes: &services.BraceletResult{Phase: "bracelet_built"},
	}
	h := NewDiagnosisHandler(testLogger(t), svc)

	body := `{
		"diagnosis_id": "diag_abc",
		"stones_for_user": [{"name":"アメジスト","reason":"守護"},{"name":"シトリン"}],
		"wrist_inner_cm": "14.5",
		"bead_size_mm": 6,
		"design_style": "double"
	}`
	w := doJSON(t, h.BuildBracelet, body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	in := svc.braceletInput
	if in.DiagnosisID != "diag_abc" {
		t.Errorf("diagnosis id = %q", in.DiagnosisID)
	}
	if len(in.Stones) != 2 || in.Stones[0].Name != "アメジスト" || in.Stones[0].Reason != "守護" {
		t.Errorf("stones = %+v", in.Stones)
	}
	if in.Sizing.WristInnerCM != 14.5 || in.Sizing.BeadSizeMM != 6 {
		t.Errorf("sizing = %+v", in.Sizing)
	}
	if in.Style != domain.StyleDual {
		t.Errorf("style = %v, want dual", in.Style)
	}
}

func TestFortuneDetailNotFound(t *testing.T) {
	svc := &fakeDiagnosisService{
		detailErr: apierr.New(http.StatusNotFound, "diagnosis_not_found",
			fmt.Errorf("diagnosis diag_missing not found")),
	}
	h := NewDiagnosisHandler(testLogger(t), svc)

	w := doJSON(t, h.FortuneDetail, `{"diagnosis_id":"diag_missing"}`, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if svc.detailID != "diag_missing" {
		t.Errorf("detail id = %q", svc.detailID)
	}

	var env map[string]map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if env["error"]["code"] != "diagnosis_not_found" {
		t.Errorf("code = %q", env["error"]["code"])
	}
}

type fakeLineClient struct {
	valid       bool
	replyTokens []string
	replyTexts  []string
	replyErr    error
}

func (f *fakeLineClient) ValidateSignature([]byte, string) bool { return f.valid }

func (f *fakeLineClient) ReplyText(_ context.Context, replyToken string, texts ...string) error {
	f.replyTokens = append(f.replyTokens, replyToken)
	f.replyTexts = append(f.replyTexts, texts...)
	return f.replyErr
}

func (f *fakeLineClient) PushText(context.Context, string, ...string) error { return nil }

const webhookBody = `{
	"destination": "Uxxx",
	"events": [
		{"type":"message","replyToken":"rt-1","source":{"type":"user","userId":"U123"},"message":{"type":"text","id":"1","text":"こんにちは"}},
		{"type":"follow","replyToken":"rt-2"},
		{"type":"message","replyToken":"rt-3","message":{"type":"sticker","id":"2"}}
	]
}`

func TestWebhookRejectsBadSignature(t *testing.T) {
	lc := &fakeLineClient{valid: false}
	h := NewWebhookHandler(testLogger(t), lc)

	w := doJSON(t, h.Handle, webhookBody, map[string]string{"X-Line-Signature": "bogus"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(lc.replyTokens) != 0 {
		t.Errorf("replies sent despite bad signature: %v", lc.replyTokens)
	}
}

func TestWebhookRepliesToTextMessagesOnly(t *testing.T) {
	t.Setenv("LIFF_URL", "https://liff.line.me/123-abc")
	lc := &fakeLineClient{valid: true}
	h := NewWebhookHandler(testLogger(t), lc)

	w := doJSON(t, h.Handle, webhookBody, map[string]string{"X-Line-Signature": "sig"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", w.Body.String())
	}
	if len(lc.replyTokens) != 1 || lc.replyTokens[0] != "rt-1" {
		t.Fatalf("reply tokens = %v, want [rt-1]", lc.replyTokens)
	}
	if !strings.Contains(lc.replyTexts[0], "https://liff.line.me/123-abc") {
		t.Errorf("reply text missing diagnosis link: %q", lc.replyTexts[0])
	}
}

func TestWebhookAcknowledgesWhenReplyFails(t *testing.T) {
	lc := &fakeLineClient{valid: true, replyErr: fmt.Errorf("line down")}
	h := NewWebhookHandler(testLogger(t), lc)

	w := doJSON(t, h.Handle, webhookBody, map[string]string{"X-Line-Signature": "sig"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestWebhookWithoutClientAcknowledges(t *testing.T) {
	h := NewWebhookHandler(testLogger(t), nil)

	w := doJSON(t, h.Handle, webhookBody, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/healthcheck", Health)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["status"] != "ok" {
		t.Errorf("status field = %q", payload["status"])
	}
}
