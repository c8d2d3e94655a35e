package cmd

import (
	"strings"
	"testing"
)

const (
	aliceSS58 = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bobSS58   = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
)

func TestReadRecords(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "array",
			input: `  [{"id":"` + aliceSS58 + `","filename":"a.pdf"},{"id":"` + bobSS58 + `","filename":"b.pdf"}]`,
			want:  []string{"a.pdf", "b.pdf"},
		},
		{
			name: "ndjson",
			input: `{"id":"` + aliceSS58 + `","filename":"a.pdf"}` + "\n" +
				`{"id":"` + bobSS58 + `","filename":"b.pdf"}` + "\n",
			want: []string{"a.pdf", "b.pdf"},
		},
		{
			name:  "empty",
			input: "\n\n",
			want:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := readRecords(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("readRecords: %v", err)
			}
			if len(records) != len(tc.want) {
				t.Fatalf("expected %d records, got %d", len(tc.want), len(records))
			}
			for i, name := range tc.want {
				if records[i].Filename != name {
					t.Errorf("record %d: expected %q, got %q", i, name, records[i].Filename)
				}
			}
		})
	}
}

func TestReadRecordsInvalid(t *testing.T) {
	testCases := []string{
		`[{"id":"not-a-key"}]`,
		`{"id":"` + aliceSS58 + `"}` + "\n" + `{"id":`,
	}

	for _, input := range testCases {
		if _, err := readRecords(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}
