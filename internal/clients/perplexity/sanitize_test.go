package perplexity

import (
	"encoding/json"
	"testing"
)

func TestSanitizeJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare_object",
			in:   `{"reading":"ok"}`,
			want: `{"reading":"ok"}`,
		},
		{
			name: "json_fence",
			in:   "```json\n{\"reading\":\"ok\"}\n```",
			want: `{"reading":"ok"}`,
		},
		{
			name: "plain_fence",
			in:   "```\n{\"reading\":\"ok\"}\n```",
			want: `{"reading":"ok"}`,
		},
		{
			name: "citation_markers_stripped",
			in:   `{"reading":"星の導き[1]があります[2]"}`,
			want: `{"reading":"星の導き`,
		},
		{
			name: "prose_around_object",
			in:   "はい、こちらが結果です。\n{\"reading\":\"ok\"}\nご確認ください。",
			want: `{"reading":"ok"}`,
		},
		{
			name: "braces_inside_strings",
			in:   `{"reading":"a } b { c"}`,
			want: `{"reading":"a } b { c"}`,
		},
		{
			name: "no_object_at_all",
			in:   "申し訳ありません、生成できませんでした。",
			want: "",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizeJSON(tc.in)
			if tc.name == "citation_markers_stripped" {
				// citation markers removed, object preserved
				var m map[string]string
				if err := json.Unmarshal([]byte(got), &m); err != nil {
					t.Fatalf("sanitized output not valid JSON: %q (%v)", got, err)
				}
				if m["reading"] != "星の導きがあります" {
					t.Fatalf("citations not stripped: %q", m["reading"])
				}
				return
			}
			if got != tc.want {
				t.Fatalf("SanitizeJSON(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeJSONUnbalancedObject(t *testing.T) {
	got := SanitizeJSON(`{"reading":"truncated`)
	if got == "" {
		t.Fatalf("unbalanced object should pass through for the decoder to reject")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(got), &m); err == nil {
		t.Fatalf("expected decode failure for truncated object")
	}
}
