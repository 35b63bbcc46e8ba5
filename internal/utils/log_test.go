package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "disabled preview",
			input:  `{"score": 82}`,
			limit:  0,
			expect: "",
		},
		{
			name:   "short model reply kept whole",
			input:  `{"score": 82}`,
			limit:  64,
			expect: `{"score": 82}`,
		},
		{
			name:   "long prompt cut with ellipsis",
			input:  "Rewrite the resume for the Senior Go Engineer posting",
			limit:  18,
			expect: "Rewrite the resume...",
		},
		{
			name:   "fenced reply trimmed before cutting",
			input:  "\n\n```json\n{}\n```\n",
			limit:  7,
			expect: "```json...",
		},
		{
			name:   "counts runes not bytes",
			input:  "Café résumé",
			limit:  4,
			expect: "Café...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
